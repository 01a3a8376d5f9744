// Package observability provides formatted output for the CLI's inspection
// commands.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/hiring-agent/internal/db"
	"github.com/jonathan/hiring-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintApplicant outputs a human-readable summary of one applicant.
func (p *Printer) PrintApplicant(a *types.Applicant) {
	if a == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Email:     %s\n", a.Email)
	fmt.Fprintf(&sb, "Role:      %s\n", a.Role)
	fmt.Fprintf(&sb, "Status:    %s\n", a.Status)
	if a.RawStatus != "" && a.RawStatus != a.Status.String() {
		fmt.Fprintf(&sb, "Sheet:     %s\n", a.RawStatus)
	}
	fmt.Fprintf(&sb, "Submitted: %s\n", formatTime(&a.SubmittedTime))
	if a.InterviewsStarted != nil {
		fmt.Fprintf(&sb, "Interviews: %s to %s\n", formatTime(a.InterviewsStarted), formatTime(a.InterviewsCompleted))
	}
	if a.StartDate != nil {
		fmt.Fprintf(&sb, "Starts:    %s\n", a.StartDate.Format("2006-01-02"))
	}

	s := a.Scoring
	if s.Evaluations > 0 {
		fmt.Fprintf(&sb, "\nReviews (%d): %d enthusiastic yes, %d yes, %d pass, %d no\n",
			s.Evaluations, s.EnthusiasticYes, s.Yes, s.Pass, s.No)
	}

	if a.Offer.Started() || a.Agreements.Started() {
		sb.WriteString("\n")
		writeEnvelope(&sb, "Offer", a.Offer)
		writeEnvelope(&sb, "Agreements", a.Agreements)
	}
	if a.CriminalBackgroundCheckStatus != "" {
		fmt.Fprintf(&sb, "Background check: %s\n", a.CriminalBackgroundCheckStatus)
	}

	p.printBox(strings.ToUpper(a.Name), sb.String())
}

func writeEnvelope(sb *strings.Builder, label string, e types.Envelope) {
	if !e.Started() {
		fmt.Fprintf(sb, "%-11s not sent\n", label+":")
		return
	}
	fmt.Fprintf(sb, "%-11s %s (%s)\n", label+":", e.Status, e.ID)
}

// PrintRuns outputs the most recent refresh runs, newest first.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range runs {
		if i >= maxItemsToShow*2 {
			fmt.Fprintf(&sb, "... and %d more\n", len(runs)-i)
			break
		}
		fmt.Fprintf(&sb, "%s  %-10s %-9s %d ok, %d failed\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.Status, r.Processed-r.Failed, r.Failed)
	}

	p.printBox(fmt.Sprintf("REFRESH RUNS (%d)", len(runs)), sb.String())
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

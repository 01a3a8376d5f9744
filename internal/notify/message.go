// Package notify posts applicant updates to the hiring chat channel.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// BlockKind is the layout of one block of a message.
type BlockKind int

const (
	Section BlockKind = iota
	Context
)

// Block is one markdown paragraph of a message.
type Block struct {
	Kind BlockKind
	Text string
}

// Message is a chat message rendered as a colored card.
type Message struct {
	Color  string
	Blocks []Block
}

// Text joins the blocks, for logging and plain-text posters.
func (m Message) Text() string {
	lines := make([]string, len(m.Blocks))
	for i, b := range m.Blocks {
		lines[i] = b.Text
	}
	return strings.Join(lines, "\n")
}

const (
	colorBlue   = "#0077c2"
	colorGreen  = "#2eb67d"
	colorRed    = "#e01e5a"
	colorYellow = "#ecb22e"
)

// StatusColor is the card color for an applicant in s.
func StatusColor(s status.Status) string {
	switch s {
	case status.NextSteps, status.Interviewing:
		return colorBlue
	case status.Declined, status.Deferred:
		return colorRed
	case status.GivingOffer, status.Onboarding, status.Hired, status.Contractor:
		return colorGreen
	default:
		return colorYellow
	}
}

// ApplicantMessage renders the applicant card: who they are, their links,
// their values and where they are in the process.
func ApplicantMessage(a *types.Applicant, now time.Time) Message {
	intro := fmt.Sprintf("*%s*  <mailto:%s|%s>", a.Name, a.Email, a.Email)
	if a.Location != "" {
		intro += "  " + a.Location
	}

	info := fmt.Sprintf("<%s|resume> | <%s|materials>", a.ResumeURL, a.MaterialsURL)
	if a.Phone != "" {
		info += fmt.Sprintf(" | <tel:%s|%s>", a.Phone, a.Phone)
	}
	if a.GitHub != "" {
		info += fmt.Sprintf(" | <https://github.com/%s|github:%s>", strings.TrimPrefix(a.GitHub, "@"), a.GitHub)
	}
	if a.GitLab != "" {
		info += fmt.Sprintf(" | <https://gitlab.com/%s|gitlab:%s>", strings.TrimPrefix(a.GitLab, "@"), a.GitLab)
	}
	if a.LinkedIn != "" {
		info += fmt.Sprintf(" | <%s|linkedin>", a.LinkedIn)
	}
	if a.Portfolio != "" {
		info += fmt.Sprintf(" | <%s|portfolio>", a.Portfolio)
	}
	if a.Website != "" {
		info += fmt.Sprintf(" | <%s|website>", a.Website)
	}

	var values []string
	if a.ValueReflected != "" {
		values = append(values, fmt.Sprintf("values reflected: *%s*", a.ValueReflected))
	}
	if a.ValueViolated != "" {
		values = append(values, fmt.Sprintf("violated: *%s*", a.ValueViolated))
	}
	if len(a.ValuesInTension) > 0 {
		values = append(values, fmt.Sprintf("in tension: *%s*", strings.Join(a.ValuesInTension, " & ")))
	}
	valuesMsg := strings.Join(values, " | ")
	if valuesMsg == "" {
		valuesMsg = "values not yet populated"
	}

	progress := a.Role
	if joined := strings.Join(a.InterestedIn, ","); joined != "" && joined != a.Role {
		progress += " | " + joined
	}
	progress += fmt.Sprintf(" | *%s*", a.Status)
	if !a.SubmittedTime.IsZero() {
		progress += " | applied " + humanize.RelTime(a.SubmittedTime, now, "ago", "from now")
	}

	return Message{
		Color: StatusColor(a.Status),
		Blocks: []Block{
			{Kind: Section, Text: intro},
			{Kind: Context, Text: info},
			{Kind: Context, Text: valuesMsg},
			{Kind: Context, Text: progress},
		},
	}
}

// WithUpdate returns m with text inserted as the second block, right under
// the applicant's name.
func (m Message) WithUpdate(text string) Message {
	blocks := make([]Block, 0, len(m.Blocks)+1)
	if len(m.Blocks) > 0 {
		blocks = append(blocks, m.Blocks[0])
	}
	blocks = append(blocks, Block{Kind: Section, Text: text})
	if len(m.Blocks) > 1 {
		blocks = append(blocks, m.Blocks[1:]...)
	}
	m.Blocks = blocks
	return m
}

// Update lines posted when something about an applicant changes.
func StatusUpdate(a *types.Applicant) string {
	return fmt.Sprintf("status is now `%s`", a.Status)
}

func OfferUpdate(a *types.Applicant) string {
	return fmt.Sprintf("docusign offer status is now `%s`", a.Offer.Status)
}

func AgreementsUpdate(a *types.Applicant) string {
	return fmt.Sprintf("docusign employee agreements status is now `%s`", a.Agreements.Status)
}

func BackgroundCheckUpdate(a *types.Applicant) string {
	return fmt.Sprintf("background check status is now `%s`", a.CriminalBackgroundCheckStatus)
}

func StartDateUpdate(a *types.Applicant) string {
	if a.StartDate == nil {
		return ""
	}
	return fmt.Sprintf("start date is now `%s`, %s", a.StartDate.Format("2006-01-02"), a.StartDate.Format("Monday, January 2, 2006"))
}

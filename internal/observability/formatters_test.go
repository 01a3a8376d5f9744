package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/hiring-agent/internal/db"
	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

func TestPrintApplicant(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	p.PrintApplicant(&types.Applicant{
		Name:          "Ada Lovelace",
		Email:         "ada@example.com",
		Role:          "Software Engineer",
		Status:        status.Onboarding,
		RawStatus:     "Giving offer",
		SubmittedTime: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		StartDate:     &start,
		Scoring:       types.Scoring{Evaluations: 3, EnthusiasticYes: 2, Yes: 1},
		Offer:         types.Envelope{ID: "env-1", Status: "completed"},
	})
	output := buf.String()

	assert.Contains(t, output, "ADA LOVELACE")
	assert.Contains(t, output, "Onboarding")
	assert.Contains(t, output, "Giving offer")
	assert.Contains(t, output, "2024-04-01")
	assert.Contains(t, output, "Reviews (3): 2 enthusiastic yes, 1 yes")
	assert.Contains(t, output, "completed (env-1)")
	assert.Contains(t, output, "not sent")
}

func TestPrintApplicant_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintApplicant(nil)

	assert.Empty(t, buf.String())
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var runs []db.Run
	for i := 0; i < 12; i++ {
		runs = append(runs, db.Run{
			ID:        uuid.New(),
			Kind:      "sheets",
			Status:    db.RunStatusCompleted,
			Processed: 10,
			Failed:    1,
			CreatedAt: time.Date(2024, 3, 20, 12, i, 0, 0, time.UTC),
		})
	}

	p.PrintRuns(runs)
	output := buf.String()

	assert.Contains(t, output, "REFRESH RUNS (12)")
	assert.Contains(t, output, "9 ok, 1 failed")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
	assert.Contains(t, buf.String(), "...")
}

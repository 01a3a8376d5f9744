package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/phone"
	"github.com/jonathan/hiring-agent/internal/status"
)

func formRow() []string {
	return []string{
		"03/14/2024 09:30:00",
		"Ada@Example.com",
		"Ada Lovelace",
		"Oakland, CA",
		"(415) 555-2671",
		"https://github.com/ada/",
		"https://ada.dev",
		"HTTPS://ADA.EXAMPLE",
		"www.linkedin.com/in/ada",
		"https://drive.google.com/open?id=resume1",
		"https://drive.google.com/open?id=materials1",
		"software engineer - security, Hardware Engineer",
		"Interviewing",
		"Curiosity",
		"",
		"Rigor",
		"Candor",
		"TRUE",
		"FALSE",
		"",
	}
}

func rowOptions() RowOptions {
	return RowOptions{SheetID: "sheet-1", Role: "Software Engineer", Heuristics: phone.DefaultHeuristics}
}

func TestParseRow(t *testing.T) {
	a, err := ParseRow(formRow(), DetectColumns(formHeader), rowOptions())
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", a.Name)
	assert.Equal(t, "Ada@Example.com", a.Email)
	assert.Equal(t, "sheet-1", a.SheetID)
	assert.Equal(t, "Software Engineer", a.Role)
	assert.Equal(t, status.Interviewing, a.Status)
	assert.Equal(t, "Interviewing", a.RawStatus)
	assert.Equal(t, "+1 415-555-2671", a.Phone)
	assert.Equal(t, "us", a.CountryCode)
	assert.Equal(t, "@ada", a.GitHub)
	assert.Empty(t, a.GitLab)
	assert.Equal(t, "https://linkedin.com/in/ada", a.LinkedIn)
	assert.Equal(t, "https://ada.example", a.Website)
	assert.Equal(t, []string{"Product Security Engineer", "Hardware Engineer"}, a.InterestedIn)
	assert.Equal(t, "curiosity", a.ValueReflected)
	assert.Equal(t, []string{"candor", "rigor"}, a.ValuesInTension)
	assert.True(t, a.SentEmailReceived)
	assert.False(t, a.SentEmailFollowUp)
	assert.Nil(t, a.StartDate)

	want := time.Date(2024, 3, 14, 17, 30, 0, 0, time.UTC)
	assert.True(t, want.Equal(a.SubmittedTime), "got %s", a.SubmittedTime)
}

func TestParseRow_StartDate(t *testing.T) {
	row := formRow()
	row[19] = "06/03/2024"

	a, err := ParseRow(row, DetectColumns(formHeader), rowOptions())
	require.NoError(t, err)
	require.NotNil(t, a.StartDate)
	assert.Equal(t, time.June, a.StartDate.Month())
	assert.Equal(t, 3, a.StartDate.Day())
}

func TestParseRow_BadStartDate(t *testing.T) {
	row := formRow()
	row[19] = "next monday"

	_, err := ParseRow(row, DetectColumns(formHeader), rowOptions())

	var die *apperr.DataIntegrityError
	require.True(t, errors.As(err, &die))
	assert.Equal(t, "start date", die.Field)
	assert.Equal(t, "next monday", die.Value)
}

func TestParseRow_BadTimestamp(t *testing.T) {
	row := formRow()
	row[0] = "2024-03-14"

	_, err := ParseRow(row, DetectColumns(formHeader), rowOptions())

	var die *apperr.DataIntegrityError
	require.True(t, errors.As(err, &die))
	assert.Equal(t, "timestamp", die.Field)
}

func TestParseRow_ShortRow(t *testing.T) {
	a, err := ParseRow([]string{"03/14/2024 09:30:00", "b@example.com"}, DetectColumns(formHeader), rowOptions())
	require.NoError(t, err)

	assert.Equal(t, "b@example.com", a.Email)
	assert.Equal(t, status.NeedsToBeTriaged, a.Status)
	assert.True(t, a.SentEmailReceived)
	assert.Empty(t, a.ValuesInTension)
}

func TestParseGitHubGitLab(t *testing.T) {
	tests := []struct {
		in     string
		github string
		gitlab string
	}{
		{"https://github.com/ada", "@ada", ""},
		{"github.com/ada/", "@ada", ""},
		{"@Ada", "@ada", ""},
		{"ada", "@ada", ""},
		{"https://gitlab.com/ada", "", "@ada"},
		{"n/a", "", ""},
		{"https://linkedin.com/in/ada", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			gh, gl := ParseGitHubGitLab(tt.in)
			assert.Equal(t, tt.github, gh)
			assert.Equal(t, tt.gitlab, gl)
		})
	}
}

func TestNormalizeLinkedIn(t *testing.T) {
	assert.Equal(t, "https://linkedin.com/in/ada", NormalizeLinkedIn("https://www.linkedin.com/in/ada"))
	assert.Equal(t, "https://linkedin.com/in/ada", NormalizeLinkedIn("linkedin.com/in/ada"))
	assert.Equal(t, "", NormalizeLinkedIn("N/A"))
	assert.Equal(t, "", NormalizeLinkedIn(""))
}

func TestParseInterestedIn(t *testing.T) {
	assert.Nil(t, ParseInterestedIn(" "))
	assert.Equal(t,
		[]string{"Product Security Engineer", "Software Engineer: Web", "Designer"},
		ParseInterestedIn("Security Engineer, software engineer: web,, Designer"))
}

type gridSource struct {
	grid    [][]string
	written map[string]string
}

func (g *gridSource) ReadRows(_ context.Context, _, _ string) ([][]string, error) {
	return g.grid, nil
}

func (g *gridSource) WriteCell(_ context.Context, _, cellRef, value string) error {
	if g.written == nil {
		g.written = map[string]string{}
	}
	g.written[cellRef] = value
	return nil
}

func TestReadApplicants(t *testing.T) {
	bad := formRow()
	bad[1] = "bad@example.com"
	bad[19] = "soon"

	src := &gridSource{grid: [][]string{
		formHeader,
		formRow(),
		bad,
		{"", ""},
		{"03/14/2024 09:30:00", "after-gap@example.com"},
	}}

	rows, cols, err := ReadApplicants(context.Background(), src, "", rowOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cols.Email)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Index)
	assert.NoError(t, rows[0].Err)
	assert.Equal(t, "Ada@Example.com", rows[0].Applicant.Email)
	assert.Equal(t, 2, rows[1].Index)
	assert.Error(t, rows[1].Err)
	assert.Nil(t, rows[1].Applicant)
}

func TestReadApplicants_NoEmailColumn(t *testing.T) {
	src := &gridSource{grid: [][]string{{"Timestamp", "Name"}}}

	_, _, err := ReadApplicants(context.Background(), src, "", rowOptions(), nil)
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Form Responses 1", SheetName(DefaultRange))
	assert.Equal(t, "Tab", SheetName("'Tab'!A1"))
	assert.Equal(t, "", SheetName("A1:B2"))
}

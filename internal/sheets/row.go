package sheets

import (
	"slices"
	"strings"
	"time"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/phone"
	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Layouts used by the application form.
const (
	TimestampLayout = "01/02/2006 15:04:05"
	DateLayout      = "01/02/2006"
)

// RowOptions carries what a row needs besides its own cells.
type RowOptions struct {
	SheetID    string
	Role       string
	CompanyID  int
	Location   *time.Location // form timestamps carry no zone
	Heuristics []phone.Heuristic
}

// ParseRow converts one form response into an applicant. The result is the
// spreadsheet's view only: nothing extracted, geocoded or reviewed.
func ParseRow(row []string, cols Columns, opts RowOptions) (*types.Applicant, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.FixedZone("UTC-8", -8*60*60)
	}
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	a := &types.Applicant{
		Name:         cell(cols.Name),
		Email:        cell(cols.Email),
		Role:         opts.Role,
		SheetID:      opts.SheetID,
		CompanyID:    opts.CompanyID,
		RawStatus:    cell(cols.Status),
		Location:     cell(cols.Location),
		Portfolio:    cell(cols.Portfolio),
		Website:      strings.ToLower(cell(cols.Website)),
		ResumeURL:    cell(cols.Resume),
		MaterialsURL: cell(cols.Materials),
		LinkedIn:     NormalizeLinkedIn(cell(cols.LinkedIn)),
		InterestedIn: ParseInterestedIn(cell(cols.InterestedIn)),

		ValueReflected: strings.ToLower(cell(cols.ValueReflected)),
		ValueViolated:  strings.ToLower(cell(cols.ValueViolated)),

		SentEmailReceived: !strings.Contains(strings.ToLower(cell(cols.SentEmailReceived)), "false"),
		SentEmailFollowUp: !strings.Contains(strings.ToLower(cell(cols.SentEmailFollowUp)), "false"),
	}
	a.Status = status.FromRaw(a.RawStatus)
	a.GitHub, a.GitLab = ParseGitHubGitLab(cell(cols.GitHub))
	a.Phone, a.CountryCode = phone.Normalize(cell(cols.Phone), a.Location, opts.Heuristics)

	for _, i := range []int{cols.ValueInTension1, cols.ValueInTension2} {
		if v := strings.ToLower(cell(i)); v != "" {
			a.ValuesInTension = append(a.ValuesInTension, v)
		}
	}
	slices.Sort(a.ValuesInTension)

	if ts := cell(cols.Timestamp); ts != "" {
		t, err := time.ParseInLocation(TimestampLayout, ts, loc)
		if err != nil {
			return nil, &apperr.DataIntegrityError{Field: "timestamp", Value: ts, Cause: err}
		}
		a.SubmittedTime = t
	}

	if sd := cell(cols.StartDate); sd != "" {
		t, err := time.ParseInLocation(DateLayout, sd, loc)
		if err != nil {
			return nil, &apperr.DataIntegrityError{Field: "start date", Value: sd, Cause: err}
		}
		a.StartDate = &t
	}

	return a, nil
}

var githubPrefixes = []string{
	"https://github.com/",
	"http://github.com/",
	"https://www.github.com/",
	"http://www.github.com/",
	"www.github.com/",
	"github.com/",
}

// ParseGitHubGitLab normalizes the profile the applicant entered into an
// "@handle". GitLab URLs typed into the GitHub field come back as the
// second value.
func ParseGitHubGitLab(s string) (github, gitlab string) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", ""
	}

	if strings.Contains(s, "https://gitlab.com") {
		handle := strings.TrimPrefix(s, "https://gitlab.com/")
		handle = strings.TrimSuffix(strings.TrimPrefix(handle, "@"), "/")
		return "", "@" + handle
	}

	handle := s
	for _, p := range githubPrefixes {
		handle = strings.TrimPrefix(handle, p)
	}
	handle = strings.TrimPrefix(handle, "@")
	handle = strings.ReplaceAll(handle, "github.com", "")
	handle = strings.Trim(handle, "/")
	github = strings.TrimSpace("@" + handle)

	if github == "@" || github == "@n/a" || strings.Contains(github, "linkedin.com") {
		return "", ""
	}
	return github, ""
}

var linkedinPrefixes = []string{
	"https://linkedin.com/",
	"https://www.linkedin.com/",
	"http://linkedin.com/",
	"http://www.linkedin.com/",
	"www.linkedin.com/",
	"linkedin.com/",
}

// NormalizeLinkedIn rewrites any form of profile link to
// https://linkedin.com/<path>.
func NormalizeLinkedIn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "n/a" {
		return ""
	}
	for _, p := range linkedinPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	return "https://linkedin.com/" + strings.TrimSpace(s)
}

var canonicalInterests = map[string]string{
	"product security engineer":           "Product Security Engineer",
	"security engineer":                   "Product Security Engineer",
	"software engineer - security":        "Product Security Engineer",
	"software engineer: web":              "Software Engineer: Web",
	"software engineer: embedded systems": "Software Engineer: Embedded Systems",
	"software engineer: control plane":    "Software Engineer: Control Plane",
	"hardware engineer":                   "Hardware Engineer",
}

// ParseInterestedIn splits the comma separated list of job descriptions
// and maps known spellings to one name.
func ParseInterestedIn(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if c, ok := canonicalInterests[strings.ToLower(p)]; ok {
			p = c
		}
		out = append(out, p)
	}
	return out
}

package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

type fakeTable struct {
	records  map[string]Record
	formulas []string
	deleted  []string
	next     int
	filter   func(formula string, rec Record) bool
}

func newFakeTable() *fakeTable {
	return &fakeTable{records: make(map[string]Record)}
}

func (t *fakeTable) Get(_ context.Context, id string) (*Record, error) {
	rec, ok := t.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &rec, nil
}

func (t *fakeTable) Filter(_ context.Context, formula string) ([]Record, error) {
	t.formulas = append(t.formulas, formula)
	var out []Record
	for _, rec := range t.records {
		if t.filter == nil || t.filter(formula, rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (t *fakeTable) Upsert(_ context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		t.next++
		rec.ID = fmt.Sprintf("rec%d", t.next)
	}
	t.records[rec.ID] = rec
	return rec, nil
}

func (t *fakeTable) Delete(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(t.records, id)
		t.deleted = append(t.deleted, id)
	}
	return nil
}

// byRecordID matches the OR(RECORD_ID() = '...') formulas of byIDs.
func byRecordID(formula string, rec Record) bool {
	return strings.Contains(formula, "'"+rec.ID+"'")
}

func TestEncodeApplicant_FlattensNestedColumns(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a := &types.Applicant{
		ID:                7,
		WorkspaceRecordID: "recA",
		Name:              "Ada Lovelace",
		Email:             "ada@example.com",
		SheetID:           "sheet-1",
		Status:            status.GivingOffer,
		StartDate:         &start,
		Scorers:           []string{"eng@example.com"},
		Answers:           types.Answers{WhyUs: "mission"},
		Scoring:           types.Scoring{Yes: 2},
		Offer:             types.Envelope{ID: "env-1", Status: types.EnvelopeStatusSent},
	}

	fields, err := encodeApplicant(a)
	require.NoError(t, err)

	assert.NotContains(t, fields, "id")
	assert.NotContains(t, fields, "workspace_record_id")
	assert.NotContains(t, fields, "answers")
	assert.NotContains(t, fields, "offer")
	assert.Equal(t, "Giving offer", fields["status"])
	assert.Equal(t, "2026-03-02", fields["start_date"])
	assert.Equal(t, "mission", fields["question_why_us"])
	assert.EqualValues(t, 2, fields["scoring_yes_count"])
	assert.Equal(t, "env-1", fields["offer_envelope_id"])
	assert.Equal(t, "sent", fields["offer_envelope_status"])
	assert.Equal(t, []map[string]string{{"email": "eng@example.com"}}, fields["scorers"])
}

func TestEncodeApplicant_TruncatesLongText(t *testing.T) {
	a := &types.Applicant{Email: "a@example.com", ResumeContents: strings.Repeat("x", maxCellLength+10)}

	fields, err := encodeApplicant(a)
	require.NoError(t, err)
	assert.Len(t, fields["resume_contents"], maxCellLength)
}

func TestDecodeApplicant_ReadsWorkspaceRecord(t *testing.T) {
	rec := Record{
		ID: "recB",
		Fields: map[string]any{
			"name":                             "Grace Hopper",
			"email":                            "grace@example.com",
			"sheet_id":                         "sheet-1",
			"status":                           "Onboarding",
			"start_date":                       "2026-04-06",
			"question_proud_of":                "compilers",
			"work_samples":                     "https://example.com",
			"scoring_no_count":                 float64(1),
			"agreements_envelope_id":           "env-2",
			"agreements_envelope_status":       "completed",
			"scorers":                          []any{map[string]any{"id": "usr1", "email": "eng@example.com"}},
			"interviews":                       []any{"recI1", "recI2"},
			"criminal_background_check_status": "clear",
			"Created":                          "ignored",
		},
	}

	a, err := decodeApplicant(rec)
	require.NoError(t, err)

	assert.Equal(t, "recB", a.WorkspaceRecordID)
	assert.Equal(t, status.Onboarding, a.Status)
	require.NotNil(t, a.StartDate)
	assert.Equal(t, "2026-04-06", a.StartDate.Format(time.DateOnly))
	assert.Equal(t, "compilers", a.Answers.ProudOf)
	assert.Equal(t, "https://example.com", a.Answers.WorkSamples)
	assert.Equal(t, 1, a.Scoring.No)
	assert.Equal(t, "env-2", a.Agreements.ID)
	assert.True(t, a.Agreements.Completed())
	assert.Equal(t, []string{"eng@example.com"}, a.Scorers)
	assert.Equal(t, []string{"recI1", "recI2"}, a.Interviews)
	assert.Equal(t, "clear", a.CriminalBackgroundCheckStatus)
}

func TestDecodeApplicant_UnknownStatusFallsBackToRaw(t *testing.T) {
	a, err := decodeApplicant(Record{ID: "recC", Fields: map[string]any{
		"email":  "c@example.com",
		"status": "Declined: no materials",
	}})
	require.NoError(t, err)
	assert.Equal(t, status.Declined, a.Status)
}

func TestDecodeReview_SingleCollaborator(t *testing.T) {
	r, err := decodeReview(Record{ID: "recR", Fields: map[string]any{
		"applicant_email": "a@example.com",
		"reviewer":        map[string]any{"email": "rev@example.com", "name": "Rev"},
		"evaluation":      "Yes",
	}})
	require.NoError(t, err)
	assert.Equal(t, "recR", r.ID)
	assert.Equal(t, "rev@example.com", r.Reviewer)
	assert.Equal(t, "Yes", r.Evaluation)
}

func TestStore_UpsertApplicantRecordsID(t *testing.T) {
	applicants := newFakeTable()
	s := NewStore(applicants, newFakeTable(), newFakeTable(), nil)
	a := &types.Applicant{Name: "Ada", Email: "ada@example.com", SheetID: "s"}

	require.NoError(t, s.UpsertApplicant(context.Background(), a))
	assert.Equal(t, "rec1", a.WorkspaceRecordID)

	a.Status = status.NextSteps
	require.NoError(t, s.UpsertApplicant(context.Background(), a))
	assert.Len(t, applicants.records, 1)
	assert.Equal(t, "Next steps", applicants.records["rec1"].Fields["status"])
}

func TestStore_GetApplicant(t *testing.T) {
	applicants := newFakeTable()
	applicants.records["rec9"] = Record{ID: "rec9", Fields: map[string]any{
		"email": "o'neil@example.com", "sheet_id": "s", "status": "Next steps",
	}}
	s := NewStore(applicants, newFakeTable(), newFakeTable(), nil)

	a, err := s.GetApplicant(context.Background(), "O'Neil@example.com", "s")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "rec9", a.WorkspaceRecordID)
	assert.Equal(t, `AND(LOWER({email}) = 'o\'neil@example.com', {sheet_id} = 's')`, applicants.formulas[0])
}

func TestStore_GetApplicantMissing(t *testing.T) {
	applicants := newFakeTable()
	applicants.filter = func(string, Record) bool { return false }
	s := NewStore(applicants, newFakeTable(), newFakeTable(), nil)

	a, err := s.GetApplicant(context.Background(), "x@example.com", "s")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestStore_InterviewsOrderedByStart(t *testing.T) {
	interviews := newFakeTable()
	interviews.filter = byRecordID
	interviews.records["recI1"] = Record{ID: "recI1", Fields: map[string]any{
		"start_time": "2026-03-05T17:00:00.000Z", "end_time": "2026-03-05T18:00:00.000Z",
	}}
	interviews.records["recI2"] = Record{ID: "recI2", Fields: map[string]any{
		"start_time":   "2026-03-02T17:00:00.000Z",
		"end_time":     "2026-03-02T18:00:00.000Z",
		"interviewers": []any{map[string]any{"email": "eng@example.com"}},
	}}
	interviews.records["recOther"] = Record{ID: "recOther", Fields: map[string]any{
		"start_time": "2026-01-01T17:00:00.000Z", "end_time": "2026-01-01T18:00:00.000Z",
	}}
	s := NewStore(newFakeTable(), interviews, newFakeTable(), nil)

	got, err := s.Interviews(context.Background(), []string{"recI1", "recI2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "recI2", got[0].ID)
	assert.Equal(t, []string{"eng@example.com"}, got[0].Interviewers)
	assert.Equal(t, "recI1", got[1].ID)
}

func TestStore_NoIDsNoLookup(t *testing.T) {
	reviews := newFakeTable()
	s := NewStore(newFakeTable(), newFakeTable(), reviews, nil)

	got, err := s.Reviews(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, reviews.formulas)
}

func TestStore_DeleteReviews(t *testing.T) {
	reviews := newFakeTable()
	reviews.records["recR1"] = Record{ID: "recR1"}
	reviews.records["recR2"] = Record{ID: "recR2"}
	s := NewStore(newFakeTable(), newFakeTable(), reviews, nil)

	require.NoError(t, s.DeleteReviews(context.Background(), []string{"recR1"}))
	assert.Equal(t, []string{"recR1"}, reviews.deleted)
	assert.Len(t, reviews.records, 1)
}

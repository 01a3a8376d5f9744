// Package workspace mirrors applicants into the shared hiring workspace,
// an Airtable base, and reads back what people edit there: scorers,
// interviews and reviews.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mehanizm/airtable"

	"github.com/jonathan/hiring-agent/internal/types"
)

// Table names of the hiring base.
const (
	ApplicantsTable = "Applicants"
	InterviewsTable = "Interviews"
	ReviewsTable    = "Reviews"
)

// Store reads and writes the hiring workspace.
type Store struct {
	applicants Table
	interviews Table
	reviews    Table
	logger     *slog.Logger
}

// NewStore creates a Store over the three tables.
func NewStore(applicants, interviews, reviews Table, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{applicants: applicants, interviews: interviews, reviews: reviews, logger: logger}
}

// NewAirtableStore opens the hiring base with an API key.
func NewAirtableStore(apiKey, baseID string, logger *slog.Logger) *Store {
	client := airtable.NewClient(apiKey)
	return NewStore(
		NewAirtableTable(client, baseID, ApplicantsTable),
		NewAirtableTable(client, baseID, InterviewsTable),
		NewAirtableTable(client, baseID, ReviewsTable),
		logger,
	)
}

// GetApplicant returns the workspace copy of an applicant, or nil.
func (s *Store) GetApplicant(ctx context.Context, email, sheetID string) (*types.Applicant, error) {
	formula := fmt.Sprintf("AND(LOWER({email}) = '%s', {sheet_id} = '%s')",
		quote(strings.ToLower(email)), quote(sheetID))
	recs, err := s.applicants.Filter(ctx, formula)
	if err != nil {
		return nil, fmt.Errorf("failed to find applicant %s: %w", email, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	if len(recs) > 1 {
		s.logger.Warn("duplicate workspace records for applicant", "email", email, "sheet_id", sheetID, "count", len(recs))
	}
	return decodeApplicant(recs[0])
}

// GetApplicantByRecordID returns the applicant behind a workspace record.
func (s *Store) GetApplicantByRecordID(ctx context.Context, id string) (*types.Applicant, error) {
	rec, err := s.applicants.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant record %s: %w", id, err)
	}
	return decodeApplicant(*rec)
}

// UpsertApplicant writes a and records the workspace id on it.
func (s *Store) UpsertApplicant(ctx context.Context, a *types.Applicant) error {
	fields, err := encodeApplicant(a)
	if err != nil {
		return err
	}
	saved, err := s.applicants.Upsert(ctx, Record{ID: a.WorkspaceRecordID, Fields: fields})
	if err != nil {
		return fmt.Errorf("failed to save applicant %s: %w", a.Email, err)
	}
	a.WorkspaceRecordID = saved.ID
	return nil
}

// Interviews returns the linked interviews ordered by start.
func (s *Store) Interviews(ctx context.Context, ids []string) ([]types.Interview, error) {
	recs, err := s.byIDs(ctx, s.interviews, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get interviews: %w", err)
	}
	out := make([]types.Interview, 0, len(recs))
	for _, rec := range recs {
		iv, err := decodeInterview(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Reviews returns the linked reviews.
func (s *Store) Reviews(ctx context.Context, ids []string) ([]types.Review, error) {
	recs, err := s.byIDs(ctx, s.reviews, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	out := make([]types.Review, 0, len(recs))
	for _, rec := range recs {
		r, err := decodeReview(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteReviews removes consumed reviews.
func (s *Store) DeleteReviews(ctx context.Context, ids []string) error {
	if err := s.reviews.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}

// byIDs fetches records with one filtered listing.
func (s *Store) byIDs(ctx context.Context, t Table, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	conds := make([]string, len(ids))
	for i, id := range ids {
		conds[i] = fmt.Sprintf("RECORD_ID() = '%s'", quote(id))
	}
	return t.Filter(ctx, "OR("+strings.Join(conds, ", ")+")")
}

// quote escapes a string literal of an Airtable formula.
func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

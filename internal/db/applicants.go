package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// -----------------------------------------------------------------------------
// Applicant Methods
// -----------------------------------------------------------------------------

// The full record lives in data; the other columns are kept for lookups.
const applicantColumns = `id, data`

// GetApplicant retrieves an applicant by email and sheet. It returns nil
// when the applicant has not been stored yet.
func (db *DB) GetApplicant(ctx context.Context, email, sheetID string) (*types.Applicant, error) {
	a, err := scanApplicant(db.pool.QueryRow(ctx,
		`SELECT `+applicantColumns+` FROM applicants WHERE email = $1 AND sheet_id = $2`,
		strings.ToLower(email), sheetID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant %s: %w", email, err)
	}
	return a, nil
}

// GetApplicantByEnvelopeID finds the applicant holding an offer or
// agreements envelope.
func (db *DB) GetApplicantByEnvelopeID(ctx context.Context, envelopeID string) (*types.Applicant, error) {
	a, err := scanApplicant(db.pool.QueryRow(ctx,
		`SELECT `+applicantColumns+` FROM applicants
		 WHERE offer_envelope_id = $1 OR agreements_envelope_id = $1
		 ORDER BY id LIMIT 1`,
		envelopeID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant for envelope %s: %w", envelopeID, err)
	}
	return a, nil
}

// UpsertApplicant creates or updates an applicant, keyed on email and sheet.
// The stored id is written back to a.
func (db *DB) UpsertApplicant(ctx context.Context, a *types.Applicant) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal applicant: %w", err)
	}

	var id int64
	err = db.pool.QueryRow(ctx,
		`INSERT INTO applicants (email, sheet_id, name, role, status, start_date,
		                         offer_envelope_id, agreements_envelope_id, workspace_record_id, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (email, sheet_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     role = EXCLUDED.role,
		     status = EXCLUDED.status,
		     start_date = EXCLUDED.start_date,
		     offer_envelope_id = EXCLUDED.offer_envelope_id,
		     agreements_envelope_id = EXCLUDED.agreements_envelope_id,
		     workspace_record_id = COALESCE(EXCLUDED.workspace_record_id, applicants.workspace_record_id),
		     data = EXCLUDED.data,
		     updated_at = NOW()
		 RETURNING id`,
		strings.ToLower(a.Email), a.SheetID, a.Name, a.Role, a.Status.String(), a.StartDate,
		nullable(a.Offer.ID), nullable(a.Agreements.ID), nullable(a.WorkspaceRecordID), data,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert applicant %s: %w", a.Email, err)
	}
	a.ID = id
	return nil
}

// ListApplicants retrieves applicants matching filter, oldest first.
func (db *DB) ListApplicants(ctx context.Context, filter types.ApplicantFilter) ([]*types.Applicant, error) {
	query, args := applicantQuery(filter)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	defer rows.Close()

	var out []*types.Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return out, nil
}

// ListApplicantsByStatus retrieves every applicant in st.
func (db *DB) ListApplicantsByStatus(ctx context.Context, st status.Status) ([]*types.Applicant, error) {
	return db.ListApplicants(ctx, types.ApplicantFilter{Statuses: []status.Status{st}})
}

// applicantQuery builds the listing query for filter.
func applicantQuery(filter types.ApplicantFilter) (string, []any) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.SheetID != "" {
		query += fmt.Sprintf(" AND sheet_id = $%d", argNum)
		args = append(args, filter.SheetID)
		argNum++
	}
	if filter.Email != "" {
		query += fmt.Sprintf(" AND email = $%d", argNum)
		args = append(args, strings.ToLower(filter.Email))
		argNum++
	}
	if len(filter.Statuses) > 0 {
		labels := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			labels[i] = st.String()
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", argNum)
		args = append(args, labels)
	}

	query += " ORDER BY id ASC"
	return query, args
}

func scanApplicant(row pgx.Row) (*types.Applicant, error) {
	var (
		id   int64
		data []byte
	)
	if err := row.Scan(&id, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a := &types.Applicant{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applicant %d: %w", id, err)
	}
	a.ID = id
	return a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

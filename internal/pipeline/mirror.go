package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Database is everything kept in the relational store.
type Database interface {
	Store
	ListApplicantsByStatus(ctx context.Context, st status.Status) ([]*types.Applicant, error)
	GetApplicantByEnvelopeID(ctx context.Context, envelopeID string) (*types.Applicant, error)
	GetEmployeeByRecoveryEmail(ctx context.Context, email string) (*types.Employee, error)
	UpdateEmployee(ctx context.Context, e *types.Employee) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Mirror is the store handed to the side-effect services. Reads come from
// the database; applicant writes go to the database and then the
// workspace, so both copies see envelope and background check progress.
type Mirror struct {
	Database
	workspace Workspace
}

// NewMirror creates a Mirror.
func NewMirror(db Database, workspace Workspace) *Mirror {
	return &Mirror{Database: db, workspace: workspace}
}

// UpsertApplicant writes a to both stores.
func (m *Mirror) UpsertApplicant(ctx context.Context, a *types.Applicant) error {
	recordID := a.WorkspaceRecordID
	if err := m.Database.UpsertApplicant(ctx, a); err != nil {
		return err
	}
	if err := m.workspace.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save workspace applicant %s: %w", a.Email, err)
	}
	if recordID == "" && a.WorkspaceRecordID != "" {
		return m.Database.UpsertApplicant(ctx, a)
	}
	return nil
}

// DeleteReviews removes consumed reviews from both stores.
func (m *Mirror) DeleteReviews(ctx context.Context, ids []string) error {
	if err := m.workspace.DeleteReviews(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete workspace reviews: %w", err)
	}
	return m.Database.DeleteReviews(ctx, ids)
}

// Package webhook routes provider and workspace notifications to the same
// code paths the scheduled passes use.
package webhook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/backgroundcheck"
	"github.com/jonathan/hiring-agent/internal/checkr"
	"github.com/jonathan/hiring-agent/internal/docusign"
	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/lock"
	"github.com/jonathan/hiring-agent/internal/pipeline"
	"github.com/jonathan/hiring-agent/internal/schemas"
	"github.com/jonathan/hiring-agent/internal/sheets"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Store finds applicants by envelope.
type Store interface {
	GetApplicant(ctx context.Context, email, sheetID string) (*types.Applicant, error)
	GetApplicantByEnvelopeID(ctx context.Context, envelopeID string) (*types.Applicant, error)
}

// Workspace finds applicants by workspace record.
type Workspace interface {
	GetApplicantByRecordID(ctx context.Context, id string) (*types.Applicant, error)
}

// Envelopes applies envelope state.
type Envelopes interface {
	Sync(ctx context.Context, a *types.Applicant, k envelope.Kind) error
	Apply(ctx context.Context, a *types.Applicant, k envelope.Kind, env *envelope.Envelope) error
}

// Reports applies background check reports.
type Reports interface {
	ApplyReport(ctx context.Context, r *backgroundcheck.Report) error
}

// Refresher reconciles one applicant.
type Refresher interface {
	RefreshOne(ctx context.Context, parsed *types.Applicant) (*types.Applicant, error)
	RowOptions(s pipeline.Sheet) sheets.RowOptions
	SheetByID(id string) (pipeline.Sheet, bool)
}

// Deps are the collaborators of a Dispatcher. Envelopes and Reports may be
// nil when the provider is not configured.
type Deps struct {
	Store     Store
	Workspace Workspace
	Envelopes Envelopes
	Reports   Reports
	Refresher Refresher
	Locker    lock.Locker
}

// Dispatcher handles one notification at a time. Every payload is
// validated against its schema before it is decoded.
type Dispatcher struct {
	store     Store
	workspace Workspace
	envelopes Envelopes
	reports   Reports
	refresher Refresher
	locker    lock.Locker
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(deps Deps, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	return &Dispatcher{
		store:     deps.Store,
		workspace: deps.Workspace,
		envelopes: deps.Envelopes,
		reports:   deps.Reports,
		refresher: deps.Refresher,
		locker:    deps.Locker,
		logger:    logger,
	}
}

// Handle validates payload as event and applies it. An applicant or sheet
// that is not known is a NotFoundError.
func (d *Dispatcher) Handle(ctx context.Context, event string, payload []byte) error {
	switch event {
	case schemas.EnvelopeEvent, schemas.BackgroundCheckEvent, schemas.WorkspaceRecordEvent, schemas.SheetRowEvent:
	default:
		return &apperr.NotFoundError{Kind: "webhook", Key: event}
	}
	if err := schemas.Validate(event, payload); err != nil {
		return err
	}

	switch event {
	case schemas.EnvelopeEvent:
		return d.envelope(ctx, payload)
	case schemas.BackgroundCheckEvent:
		return d.backgroundCheck(ctx, payload)
	case schemas.WorkspaceRecordEvent:
		return d.workspaceRecord(ctx, payload)
	default:
		return d.sheetRow(ctx, payload)
	}
}

func (d *Dispatcher) envelope(ctx context.Context, payload []byte) error {
	if d.envelopes == nil {
		return &apperr.ConfigurationError{Message: "no e-signature provider configured"}
	}
	env, err := docusign.ParseEvent(payload)
	if err != nil {
		return err
	}

	found, err := d.store.GetApplicantByEnvelopeID(ctx, env.ID)
	if err != nil {
		return fmt.Errorf("failed to find applicant for envelope %s: %w", env.ID, err)
	}
	if found == nil {
		return &apperr.NotFoundError{Kind: "envelope", Key: env.ID}
	}

	release, err := d.locker.Lock(ctx, found.Key())
	if err != nil {
		return fmt.Errorf("failed to lock applicant %s: %w", found.Email, err)
	}
	defer release()

	a, err := d.store.GetApplicant(ctx, found.Email, found.SheetID)
	if err != nil {
		return fmt.Errorf("failed to reload applicant %s: %w", found.Email, err)
	}
	if a == nil {
		return &apperr.NotFoundError{Kind: "applicant", Key: found.Email}
	}

	k := envelope.KindAgreements
	if a.Offer.ID == env.ID {
		k = envelope.KindOffer
	}
	d.logger.Info("envelope event", "email", a.Email, "kind", k.String(), "envelope_id", env.ID, "status", env.Status)

	if env.Status == "" {
		return d.envelopes.Sync(ctx, a, k)
	}
	return d.envelopes.Apply(ctx, a, k, env)
}

func (d *Dispatcher) backgroundCheck(ctx context.Context, payload []byte) error {
	if d.reports == nil {
		return &apperr.ConfigurationError{Message: "no background check provider configured"}
	}
	typ, report, err := checkr.ParseEvent(payload)
	if err != nil {
		return err
	}
	if report == nil {
		d.logger.Debug("ignoring background check event", "type", typ)
		return nil
	}
	d.logger.Info("background check event", "type", typ, "report_id", report.ID, "status", report.Status)
	return d.reports.ApplyReport(ctx, report)
}

// Package pipeline drives applicants through reconciliation, status
// derivation, extraction, persistence and the downstream side effects.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/geocode"
	"github.com/jonathan/hiring-agent/internal/lock"
	"github.com/jonathan/hiring-agent/internal/phone"
	"github.com/jonathan/hiring-agent/internal/sheets"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Store is the relational copy of every applicant.
type Store interface {
	GetApplicant(ctx context.Context, email, sheetID string) (*types.Applicant, error)
	UpsertApplicant(ctx context.Context, a *types.Applicant) error
	ListApplicants(ctx context.Context, filter types.ApplicantFilter) ([]*types.Applicant, error)
	DeleteReviews(ctx context.Context, ids []string) error
}

// Workspace is the shared table people edit by hand.
type Workspace interface {
	GetApplicant(ctx context.Context, email, sheetID string) (*types.Applicant, error)
	UpsertApplicant(ctx context.Context, a *types.Applicant) error
	Interviews(ctx context.Context, ids []string) ([]types.Interview, error)
	Reviews(ctx context.Context, ids []string) ([]types.Review, error)
	DeleteReviews(ctx context.Context, ids []string) error
}

// Extractor turns a file reference into text.
type Extractor interface {
	Extract(ctx context.Context, ref string) (string, error)
}

// Notifier announces status changes.
type Notifier interface {
	StatusChanged(ctx context.Context, a *types.Applicant) error
}

// Envelopes moves the offer and agreements envelopes forward.
type Envelopes interface {
	Sync(ctx context.Context, a *types.Applicant, k envelope.Kind) error
}

// Onboarding keeps the onboarding issue of a new hire current.
type Onboarding interface {
	Sync(ctx context.Context, a *types.Applicant) error
}

// RunRecorder keeps a history of refresh passes.
type RunRecorder interface {
	CreateRun(ctx context.Context, kind string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, processed, failed int) error
}

// Sheet is one role's form response spreadsheet.
type Sheet struct {
	Role      string
	SheetID   string
	CompanyID int
}

// Deps are the collaborators of a Refresher. Extractor, Geocoder,
// Envelopes, Onboarding and Runs may be nil.
type Deps struct {
	Store      Store
	Workspace  Workspace
	Sheets     sheets.Source
	Extractor  Extractor
	Geocoder   geocode.Geocoder
	Notifier   Notifier
	Envelopes  Envelopes
	Onboarding Onboarding
	Locker     lock.Locker
	Runs       RunRecorder
}

// Options configures a Refresher.
type Options struct {
	Company    string
	Sheets     []Sheet
	Range      string
	Location   *time.Location
	Heuristics []phone.Heuristic

	// WriteBackStatus writes derived statuses into the spreadsheet's status
	// column.
	WriteBackStatus bool

	Now func() time.Time
}

// Refresher reconciles applicants one at a time.
type Refresher struct {
	store      Store
	workspace  Workspace
	sheets     sheets.Source
	extractor  Extractor
	geocoder   geocode.Geocoder
	notifier   Notifier
	envelopes  Envelopes
	onboarding Onboarding
	locker     lock.Locker
	runs       RunRecorder
	opts       Options
	logger     *slog.Logger
}

// New creates a Refresher.
func New(deps Deps, opts Options, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	if deps.Geocoder == nil {
		deps.Geocoder = geocode.Nop{}
	}
	if opts.Location == nil {
		opts.Location = time.FixedZone("UTC-8", -8*60*60)
	}
	if opts.Range == "" {
		opts.Range = sheets.DefaultRange
	}
	if opts.Heuristics == nil {
		opts.Heuristics = phone.DefaultHeuristics
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Refresher{
		store:      deps.Store,
		workspace:  deps.Workspace,
		sheets:     deps.Sheets,
		extractor:  deps.Extractor,
		geocoder:   deps.Geocoder,
		notifier:   deps.Notifier,
		envelopes:  deps.Envelopes,
		onboarding: deps.Onboarding,
		locker:     deps.Locker,
		runs:       deps.Runs,
		opts:       opts,
		logger:     logger,
	}
}

// RowOptions returns what parsing a row of s needs.
func (r *Refresher) RowOptions(s Sheet) sheets.RowOptions {
	return sheets.RowOptions{
		SheetID:    s.SheetID,
		Role:       s.Role,
		CompanyID:  s.CompanyID,
		Location:   r.opts.Location,
		Heuristics: r.opts.Heuristics,
	}
}

// SheetByID returns the configured sheet with id.
func (r *Refresher) SheetByID(id string) (Sheet, bool) {
	for _, s := range r.opts.Sheets {
		if s.SheetID == id {
			return s, true
		}
	}
	return Sheet{}, false
}

func (r *Refresher) now() time.Time {
	return r.opts.Now().In(r.opts.Location)
}

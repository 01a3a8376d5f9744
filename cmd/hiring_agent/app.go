package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"

	"github.com/jonathan/hiring-agent/internal/backgroundcheck"
	"github.com/jonathan/hiring-agent/internal/checkr"
	"github.com/jonathan/hiring-agent/internal/config"
	"github.com/jonathan/hiring-agent/internal/db"
	"github.com/jonathan/hiring-agent/internal/docusign"
	"github.com/jonathan/hiring-agent/internal/drive"
	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/extraction"
	"github.com/jonathan/hiring-agent/internal/geocode"
	"github.com/jonathan/hiring-agent/internal/lock"
	"github.com/jonathan/hiring-agent/internal/notify"
	"github.com/jonathan/hiring-agent/internal/onboarding"
	"github.com/jonathan/hiring-agent/internal/pipeline"
	"github.com/jonathan/hiring-agent/internal/sheets"
	"github.com/jonathan/hiring-agent/internal/webhook"
	"github.com/jonathan/hiring-agent/internal/workspace"
)

// app holds every wired service of one process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db         *db.DB
	workspace  *workspace.Store
	mirror     *pipeline.Mirror
	drive      *drive.Client
	extractor  *extraction.Extractor
	envelopes  *envelope.Orchestrator
	checks     *backgroundcheck.Service
	onboarding *onboarding.Service
	refresher  *pipeline.Refresher
	locker     lock.Locker

	closers []func()
}

// appOptions overrides parts of the wiring.
type appOptions struct {
	// Source replaces the Google Sheets source.
	Source sheets.Source
	// Sheets replaces the role sheets from the config.
	Sheets []pipeline.Sheet
	// WriteBackStatus writes derived statuses into the status column.
	WriteBackStatus bool
}

// newApp connects to every configured service. The database and the
// workspace are required; the e-signature, background check, chat, issue
// tracker and geocoding services are wired only when their credentials
// are present.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions, logger *slog.Logger) (_ *app, err error) {
	if err := cfg.Secrets.Require("DATABASE_URL", "AIRTABLE_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.AirtableBaseID == "" {
		return nil, fmt.Errorf("airtable_base_id is required")
	}

	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = db.Connect(ctx, cfg.Secrets.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.db.Close)

	a.workspace = workspace.NewAirtableStore(cfg.Secrets.AirtableAPIKey, cfg.AirtableBaseID, logger.With("component", "workspace"))
	a.mirror = pipeline.NewMirror(a.db, a.workspace)

	if cfg.Secrets.RedisURL != "" {
		client, err := lock.Dial(ctx, cfg.Secrets.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.locker = lock.NewRedis(client, lock.DefaultTTL, logger.With("component", "lock"))
	} else {
		a.locker = lock.NewLocal()
	}

	var googleOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	a.drive, err = drive.New(ctx, googleOpts...)
	if err != nil {
		return nil, err
	}

	source := opts.Source
	if source == nil {
		source, err = sheets.NewGoogleSource(ctx, googleOpts...)
		if err != nil {
			return nil, err
		}
	}

	extractOpts := extraction.DefaultOptions()
	extractOpts.MaxConcurrent = cfg.MaxConcurrentExtractions
	a.extractor = extraction.New(a.drive, nil, extractOpts, logger.With("component", "extraction"))

	var geocoder geocode.Geocoder = geocode.Nop{}
	if cfg.Secrets.GoogleMapsAPIKey != "" {
		g, err := geocode.NewGoogle(cfg.Secrets.GoogleMapsAPIKey, logger.With("component", "geocode"))
		if err != nil {
			return nil, fmt.Errorf("failed to create geocoder: %w", err)
		}
		geocoder = g
	}

	var poster notify.Poster
	if cfg.Secrets.SlackToken != "" {
		poster = notify.NewSlackPoster(cfg.Secrets.SlackToken)
	} else {
		logger.Warn("SLACK_TOKEN not set, notifications are only logged")
	}
	notifier := notify.New(poster, cfg.SlackChannel, logger.With("component", "notify"))

	if cfg.Secrets.CheckrAPIKey != "" {
		provider, err := checkr.New(cfg.CheckrBaseURL, cfg.Secrets.CheckrAPIKey, logger.With("component", "checkr"))
		if err != nil {
			return nil, err
		}
		a.checks = backgroundcheck.New(provider, a.mirror, notifier, logger.With("component", "backgroundcheck"))
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if cfg.DocuSign.IntegrationID != "" && cfg.Secrets.DocuSignPrivateKey != "" {
		provider, err := docusign.New(docusign.Config{
			BaseURL:           cfg.DocuSign.BaseURL,
			AuthURL:           cfg.DocuSign.AuthURL,
			AccountID:         cfg.DocuSign.AccountID,
			IntegrationID:     cfg.DocuSign.IntegrationID,
			UserID:            cfg.DocuSign.UserID,
			PrivateKeyPEM:     []byte(cfg.Secrets.DocuSignPrivateKey),
			RequestsPerSecond: cfg.DocuSign.RequestsPerSecond,
		}, logger.With("component", "docusign"))
		if err != nil {
			return nil, err
		}
		deps := envelope.Deps{
			Provider: provider,
			Filer:    a.drive,
			Store:    a.mirror,
			Notifier: notifier,
			Locker:   a.locker,
		}
		if a.checks != nil {
			deps.Checks = a.checks
		}
		a.envelopes = envelope.NewOrchestrator(deps, envelope.Config{
			Company:            cfg.Company,
			Officer:            cfg.Officer,
			HR:                 cfg.HR,
			OfferTemplate:      cfg.DocuSign.OfferTemplate,
			AgreementsTemplate: cfg.DocuSign.AgreementsTemplate,
			DriveName:          cfg.DriveName,
			Location:           loc,
		}, logger.With("component", "envelope"))
	} else {
		logger.Warn("docusign not configured, envelopes are not sent")
	}

	if cfg.IssueRepo != "" {
		owner, repo, _ := strings.Cut(cfg.IssueRepo, "/")
		tracker := onboarding.NewGitHubTracker(nil, cfg.Secrets.GitHubToken, owner, repo)
		a.onboarding = onboarding.New(tracker, a.db, onboarding.Config{
			Assignee: cfg.IssueAssignee,
			Groups:   cfg.IssueGroups,
		}, logger.With("component", "onboarding"))
	}

	deps := pipeline.Deps{
		Store:     a.db,
		Workspace: a.workspace,
		Sheets:    source,
		Extractor: a.extractor,
		Geocoder:  geocoder,
		Notifier:  notifier,
		Locker:    a.locker,
		Runs:      a.db,
	}
	if a.envelopes != nil {
		deps.Envelopes = a.envelopes
	}
	if a.onboarding != nil {
		deps.Onboarding = a.onboarding
	}

	sheetList := opts.Sheets
	if sheetList == nil {
		sheetList = sheetsFromRoles(cfg.Roles)
	}
	a.refresher = pipeline.New(deps, pipeline.Options{
		Company:         cfg.Company,
		Sheets:          sheetList,
		Range:           cfg.SheetRange,
		Location:        loc,
		Heuristics:      cfg.PhoneHeuristics,
		WriteBackStatus: opts.WriteBackStatus,
	}, logger.With("component", "pipeline"))

	return a, nil
}

// dispatcher routes webhooks into the wired services.
func (a *app) dispatcher() *webhook.Dispatcher {
	deps := webhook.Deps{
		Store:     a.db,
		Workspace: a.workspace,
		Refresher: a.refresher,
		Locker:    a.locker,
	}
	if a.envelopes != nil {
		deps.Envelopes = a.envelopes
	}
	if a.checks != nil {
		deps.Reports = a.checks
	}
	return webhook.New(deps, a.logger.With("component", "webhook"))
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func sheetsFromRoles(roles []config.Role) []pipeline.Sheet {
	out := make([]pipeline.Sheet, 0, len(roles))
	for _, r := range roles {
		out = append(out, pipeline.Sheet{Role: r.Name, SheetID: r.SheetID, CompanyID: r.CompanyID})
	}
	return out
}

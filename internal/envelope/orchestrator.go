package envelope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/lock"
	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Orchestrator creates envelopes for applicants being given an offer and
// follows them until they are signed.
type Orchestrator struct {
	provider Provider
	filer    Filer
	store    Store
	notifier Notifier
	checks   BackgroundChecker
	locker   lock.Locker
	cfg      Config
	logger   *slog.Logger

	mu        sync.Mutex
	templates map[Kind]string
}

// Deps are the collaborators of an Orchestrator. Checks may be nil, in
// which case no background check is requested on a signed offer.
type Deps struct {
	Provider Provider
	Filer    Filer
	Store    Store
	Notifier Notifier
	Checks   BackgroundChecker
	Locker   lock.Locker
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	if cfg.Location == nil {
		cfg.Location = time.FixedZone("UTC-8", -8*60*60)
	}
	return &Orchestrator{
		provider:  deps.Provider,
		filer:     deps.Filer,
		store:     deps.Store,
		notifier:  deps.Notifier,
		checks:    deps.Checks,
		locker:    deps.Locker,
		cfg:       cfg,
		logger:    logger,
		templates: make(map[Kind]string),
	}
}

// TemplateID resolves the provider template for k by name. A missing
// template is a ConfigurationError and stops the run.
func (o *Orchestrator) TemplateID(ctx context.Context, k Kind) (string, error) {
	o.mu.Lock()
	id, ok := o.templates[k]
	o.mu.Unlock()
	if ok {
		return id, nil
	}

	name := o.cfg.template(k)
	if name == "" {
		return "", &apperr.ConfigurationError{Message: fmt.Sprintf("no %s template configured", k)}
	}

	templates, err := o.provider.ListTemplates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list templates: %w", err)
	}
	for _, t := range templates {
		if t.Name == name && t.ID != "" {
			id = t.ID
			break
		}
	}
	if id == "" {
		return "", &apperr.ConfigurationError{Message: fmt.Sprintf("%s template %q not found", k, name)}
	}

	o.mu.Lock()
	o.templates[k] = id
	o.mu.Unlock()
	return id, nil
}

// Sync moves one envelope of a forward. An applicant who has just been
// given an offer gets a new envelope; otherwise the envelope on file is
// fetched and applied.
func (o *Orchestrator) Sync(ctx context.Context, a *types.Applicant, k Kind) error {
	if !a.Status.IsOfferStage() {
		return nil
	}

	rec := k.record(a)
	if rec.ID == "" {
		if a.Status != status.GivingOffer {
			return nil
		}
		return o.create(ctx, a, k)
	}

	env, err := o.provider.GetEnvelope(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to get %s envelope %s: %w", k, rec.ID, err)
	}
	return o.Apply(ctx, a, k, env)
}

func (o *Orchestrator) create(ctx context.Context, a *types.Applicant, k Kind) error {
	templateID, err := o.TemplateID(ctx, k)
	if err != nil {
		return err
	}

	release, err := o.locker.Lock(ctx, lockKey(a, k))
	if err != nil {
		return fmt.Errorf("failed to lock %s envelope for %s: %w", k, a.Email, err)
	}
	defer release()

	// Another process may have sent the envelope since a was read.
	current, err := o.store.GetApplicant(ctx, a.Email, a.SheetID)
	if err != nil {
		return fmt.Errorf("failed to reload applicant %s: %w", a.Email, err)
	}
	if current != nil {
		if got := k.record(current); got.ID != "" {
			*k.record(a) = *got
			return nil
		}
		if current.Status != status.GivingOffer && current.Status != a.Status {
			return nil
		}
	}

	o.logger.Info("sending envelope", "email", a.Email, "kind", k.String())
	env, err := o.provider.CreateEnvelope(ctx, Request{
		TemplateID:   templateID,
		EmailSubject: o.cfg.subject(k),
		Status:       types.EnvelopeStatusSent,
		Recipients:   o.cfg.Recipients(k, a),
	})
	if err != nil {
		return fmt.Errorf("failed to create %s envelope for %s: %w", k, a.Email, err)
	}

	rec := k.record(a)
	rec.ID = env.ID
	rec.Status = env.Status
	if env.CreatedAt != nil {
		created := *env.CreatedAt
		rec.CreatedAt = &created
	}

	if err := o.store.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save %s envelope for %s: %w", k, a.Email, err)
	}
	o.notifyEnvelope(ctx, a, k)
	return nil
}

// Apply records an observed envelope state on a. It is the common path of
// polling and provider webhooks, so observing the same state twice has no
// further effect.
func (o *Orchestrator) Apply(ctx context.Context, a *types.Applicant, k Kind, env *Envelope) error {
	rec := k.record(a)
	prev := *rec
	changed := prev.Status != env.Status

	rec.Status = env.Status
	if env.CreatedAt != nil {
		created := *env.CreatedAt
		rec.CreatedAt = &created
	}

	if env.Status != types.EnvelopeStatusCompleted || prev.Completed() {
		if env.CompletedAt != nil && env.Status == types.EnvelopeStatusCompleted {
			completed := *env.CompletedAt
			rec.CompletedAt = &completed
		}
		if err := o.store.UpsertApplicant(ctx, a); err != nil {
			return fmt.Errorf("failed to save %s envelope for %s: %w", k, a.Email, err)
		}
		if changed {
			o.notifyEnvelope(ctx, a, k)
		}
		return nil
	}

	if env.CompletedAt != nil {
		completed := *env.CompletedAt
		rec.CompletedAt = &completed
	}
	return o.complete(ctx, a, k, env, prev)
}

// complete runs the one-time work of a newly signed envelope. Until that
// work has succeeded the envelope is saved as not yet completed, so the
// next pass tries again.
func (o *Orchestrator) complete(ctx context.Context, a *types.Applicant, k Kind, env *Envelope, prev types.Envelope) error {
	log := o.logger.With("email", a.Email, "kind", k.String(), "envelope_id", env.ID)
	rec := k.record(a)
	signed := *rec

	if k == KindOffer && a.Status == status.GivingOffer {
		a.Status = status.Onboarding
		*rec = pending(signed, prev)
		err := o.store.UpsertApplicant(ctx, a)
		*rec = signed
		if err != nil {
			return fmt.Errorf("failed to save onboarding status for %s: %w", a.Email, err)
		}
		log.Info("offer signed, applicant is onboarding")
		o.notify(ctx, a, o.notifier.StatusChanged)
	}

	var errs []error
	if k == KindOffer && a.CriminalBackgroundCheckStatus == "" && o.checks != nil {
		if err := o.checks.Request(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("failed to request background check for %s: %w", a.Email, err))
		}
	}

	if err := o.fileDocuments(ctx, a, k, env); err != nil {
		errs = append(errs, fmt.Errorf("failed to file %s documents for %s: %w", k, a.Email, err))
	}

	startDateChanged := false
	if k == KindOffer {
		var err error
		startDateChanged, err = o.applyOfferForm(ctx, a, env.ID)
		if err != nil {
			return err
		}
	}

	if len(errs) > 0 {
		*rec = pending(signed, prev)
	}
	if err := o.store.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save %s envelope for %s: %w", k, a.Email, err)
	}
	if startDateChanged {
		o.notify(ctx, a, o.notifier.StartDateChanged)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	o.notifyEnvelope(ctx, a, k)
	return nil
}

// pending is the signed envelope as it is stored before its completion
// work is done.
func pending(signed, prev types.Envelope) types.Envelope {
	signed.Status = prev.Status
	signed.CompletedAt = prev.CompletedAt
	return signed
}

func (o *Orchestrator) notifyEnvelope(ctx context.Context, a *types.Applicant, k Kind) {
	if k == KindAgreements {
		o.notify(ctx, a, o.notifier.AgreementsStatusChanged)
		return
	}
	o.notify(ctx, a, o.notifier.OfferStatusChanged)
}

// notify logs a failed post instead of failing the applicant.
func (o *Orchestrator) notify(ctx context.Context, a *types.Applicant, fn func(context.Context, *types.Applicant) error) {
	if err := fn(ctx, a); err != nil {
		o.logger.Warn("failed to send notification", "email", a.Email, "error", err)
	}
}

func lockKey(a *types.Applicant, k Kind) string {
	return fmt.Sprintf("envelope:%d:%s", k, a.Key())
}

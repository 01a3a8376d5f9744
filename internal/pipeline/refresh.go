package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/reconcile"
	"github.com/jonathan/hiring-agent/internal/segment"
	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// RefreshOne reconciles one applicant against the database and the
// workspace, persists the result and runs the side effects. parsed is the
// freshly read view: a spreadsheet row or a workspace record.
func (r *Refresher) RefreshOne(ctx context.Context, parsed *types.Applicant) (*types.Applicant, error) {
	release, err := r.locker.Lock(ctx, parsed.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to lock applicant %s: %w", parsed.Email, err)
	}
	defer release()

	log := r.logger.With("email", parsed.Email, "sheet_id", parsed.SheetID)

	existing, err := r.store.GetApplicant(ctx, parsed.Email, parsed.SheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant %s: %w", parsed.Email, err)
	}
	shared, err := r.workspace.GetApplicant(ctx, parsed.Email, parsed.SheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace applicant %s: %w", parsed.Email, err)
	}

	a := reconcile.Reconcile(
		reconcile.NewSnapshot(reconcile.Sheet, parsed),
		reconcile.NewSnapshot(reconcile.Database, existing),
		reconcile.NewSnapshot(reconcile.Workspace, shared),
	)

	from := a.Status
	if existing != nil {
		from = existing.Status
		a.ID = existing.ID
	}

	r.geocode(ctx, a)

	if err := r.applyInterviews(ctx, a); err != nil {
		return nil, err
	}

	a.Status = status.Derive(a.Status, len(a.Interviews), a.StartDate, r.now())
	if existing != nil {
		a.Status = status.Gate(existing.Status, a.Status)
	}
	transition := status.Transition{From: from, To: a.Status}

	if r.extractor != nil && reconcile.NeedsExtraction(a, r.now()) {
		if err := r.extract(ctx, a); err != nil {
			return nil, err
		}
	}

	consumed, err := r.applyReviews(ctx, a)
	if err != nil {
		return nil, err
	}

	if err := r.persist(ctx, a); err != nil {
		return nil, err
	}
	if len(consumed) > 0 {
		if err := r.deleteReviews(ctx, consumed); err != nil {
			return nil, err
		}
		log.Info("consumed reviews", "count", len(consumed))
	}

	if transition.Changed() {
		log.Info("status changed", "from", transition.From.String(), "to", transition.To.String())
		if r.notifier != nil {
			if err := r.notifier.StatusChanged(ctx, a); err != nil {
				log.Warn("failed to send status notification", "error", err)
			}
		}
	}

	if err := r.sideEffects(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// persist writes a to the database and then to the workspace, which needs
// the database id to exist first. A newly created workspace record id is
// saved back to the database.
func (r *Refresher) persist(ctx context.Context, a *types.Applicant) error {
	recordID := a.WorkspaceRecordID
	if err := r.store.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save applicant %s: %w", a.Email, err)
	}
	if err := r.workspace.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save workspace applicant %s: %w", a.Email, err)
	}
	if recordID == "" && a.WorkspaceRecordID != "" {
		if err := r.store.UpsertApplicant(ctx, a); err != nil {
			return fmt.Errorf("failed to save workspace record id for %s: %w", a.Email, err)
		}
	}
	return nil
}

func (r *Refresher) geocode(ctx context.Context, a *types.Applicant) {
	if a.Location == "" || a.Latitude != 0 || a.Longitude != 0 {
		return
	}
	a.Latitude, a.Longitude = r.geocoder.Geocode(ctx, a.Location)
}

func (r *Refresher) applyInterviews(ctx context.Context, a *types.Applicant) error {
	if len(a.Interviews) == 0 {
		return nil
	}
	interviews, err := r.workspace.Interviews(ctx, a.Interviews)
	if err != nil {
		return fmt.Errorf("failed to get interviews for %s: %w", a.Email, err)
	}
	started, completed := reconcile.InterviewWindow(interviews)
	if started != nil {
		a.InterviewsStarted = started
	}
	if completed != nil {
		a.InterviewsCompleted = completed
	}
	return nil
}

// applyReviews folds the linked reviews into the counters and unlinks the
// ones that are consumed.
func (r *Refresher) applyReviews(ctx context.Context, a *types.Applicant) ([]string, error) {
	var reviews []types.Review
	if len(a.LinkToReviews) > 0 {
		var err error
		reviews, err = r.workspace.Reviews(ctx, a.LinkToReviews)
		if err != nil {
			return nil, fmt.Errorf("failed to get reviews for %s: %w", a.Email, err)
		}
	}

	consumed := reconcile.ApplyReviews(a, reviews)
	if len(consumed) > 0 {
		a.LinkToReviews = slices.DeleteFunc(slices.Clone(a.LinkToReviews), func(id string) bool {
			return slices.Contains(consumed, id)
		})
	}
	return consumed, nil
}

func (r *Refresher) deleteReviews(ctx context.Context, ids []string) error {
	if err := r.workspace.DeleteReviews(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete workspace reviews: %w", err)
	}
	if err := r.store.DeleteReviews(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}

// extract fetches the resume and the materials side by side. A document
// that cannot be fetched or converted keeps the text already on file.
func (r *Refresher) extract(ctx context.Context, a *types.Applicant) error {
	var resume, materials string

	g, gctx := errgroup.WithContext(ctx)
	if a.ResumeURL != "" {
		g.Go(func() error {
			text, err := r.extractOne(gctx, a, "resume", a.ResumeURL)
			resume = text
			return err
		})
	}
	if a.MaterialsURL != "" {
		g.Go(func() error {
			text, err := r.extractOne(gctx, a, "materials", a.MaterialsURL)
			materials = text
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if resume != "" {
		a.ResumeContents = resume
	}
	if materials != "" {
		a.MaterialsContents = materials
		a.Answers = segment.ExtractAnswers(materials, r.opts.Company)
	}
	return nil
}

// extractOne only fails for a canceled context.
func (r *Refresher) extractOne(ctx context.Context, a *types.Applicant, what, ref string) (string, error) {
	text, err := r.extractor.Extract(ctx, ref)
	if err == nil {
		return text, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	var fe *apperr.FormatError
	if errors.As(err, &fe) {
		r.logger.Info("document format not supported", "email", a.Email, "document", what, "error", err)
	} else {
		r.logger.Warn("failed to extract document", "email", a.Email, "document", what, "error", err)
	}
	return "", nil
}

// sideEffects drives the envelopes and the onboarding issue. A failure
// does not stop the others; a configuration error returns at once.
func (r *Refresher) sideEffects(ctx context.Context, a *types.Applicant) error {
	var errs []error
	if r.envelopes != nil {
		for _, k := range envelope.Kinds {
			if err := r.envelopes.Sync(ctx, a, k); err != nil {
				if apperr.IsFatal(err) {
					return err
				}
				errs = append(errs, err)
			}
		}
	}
	if r.onboarding != nil {
		if err := r.onboarding.Sync(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync onboarding issue: %w", err))
		}
	}
	return errors.Join(errs...)
}

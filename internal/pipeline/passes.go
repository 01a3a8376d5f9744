package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/sheets"
	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Kinds of refresh passes, as recorded in the run history.
const (
	PassSheets    = "sheets"
	PassReviews   = "reviews"
	PassEnvelopes = "envelopes"
)

// Result counts what a pass did.
type Result struct {
	RunID     uuid.UUID
	Processed int
	Failed    int
}

// Refresh reads every configured sheet and refreshes each applicant on it.
// Errors for one applicant are logged and the pass continues; a
// configuration error stops it.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	return r.run(ctx, PassSheets, func(ctx context.Context, res *Result) error {
		for _, s := range r.opts.Sheets {
			if err := r.refreshSheet(ctx, s, res); err != nil {
				return err
			}
		}
		return nil
	})
}

// RefreshSheet refreshes the applicants of one sheet.
func (r *Refresher) RefreshSheet(ctx context.Context, s Sheet) (Result, error) {
	return r.run(ctx, PassSheets, func(ctx context.Context, res *Result) error {
		return r.refreshSheet(ctx, s, res)
	})
}

func (r *Refresher) refreshSheet(ctx context.Context, s Sheet, res *Result) error {
	rows, cols, err := sheets.ReadApplicants(ctx, r.sheets, r.opts.Range, r.RowOptions(s), r.logger)
	if err != nil {
		return err
	}
	r.logger.Info("refreshing sheet", "sheet_id", s.SheetID, "role", s.Role, "rows", len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row.Err != nil {
			res.Failed++
			continue
		}
		a, err := r.RefreshOne(ctx, row.Applicant)
		if fatal := r.account(res, row.Applicant, err); fatal != nil {
			return fatal
		}
		if a != nil && r.opts.WriteBackStatus {
			r.writeBackStatus(ctx, s, cols, row, a)
		}
	}
	return nil
}

// writeBackStatus puts a derived status into the sheet so the next read
// agrees with it. Free text that already maps to the status is kept.
func (r *Refresher) writeBackStatus(ctx context.Context, s Sheet, cols sheets.Columns, row sheets.Row, a *types.Applicant) {
	if cols.Status < 0 || status.FromRaw(row.Applicant.RawStatus) == a.Status {
		return
	}
	ref := sheets.CellRef(sheets.SheetName(r.opts.Range), cols.Status, row.Index)
	if err := r.sheets.WriteCell(ctx, s.SheetID, ref, a.Status.String()); err != nil {
		r.logger.Warn("failed to write status to sheet", "email", a.Email, "cell", ref, "error", err)
	}
}

// Reviews folds reviews into every applicant that has some linked.
func (r *Refresher) Reviews(ctx context.Context) (Result, error) {
	return r.run(ctx, PassReviews, func(ctx context.Context, res *Result) error {
		applicants, err := r.store.ListApplicants(ctx, types.ApplicantFilter{})
		if err != nil {
			return err
		}
		for _, stored := range applicants {
			if err := ctx.Err(); err != nil {
				return err
			}
			if fatal := r.account(res, stored, r.reviewOne(ctx, stored)); fatal != nil {
				return fatal
			}
		}
		return nil
	})
}

func (r *Refresher) reviewOne(ctx context.Context, stored *types.Applicant) error {
	release, err := r.locker.Lock(ctx, stored.Key())
	if err != nil {
		return fmt.Errorf("failed to lock applicant %s: %w", stored.Email, err)
	}
	defer release()

	// Reviews are linked in the workspace, so its links are the current ones.
	a := stored.Clone()
	shared, err := r.workspace.GetApplicant(ctx, a.Email, a.SheetID)
	if err != nil {
		return fmt.Errorf("failed to get workspace applicant %s: %w", a.Email, err)
	}
	if shared != nil {
		a.LinkToReviews = shared.LinkToReviews
		a.Scorers = shared.Scorers
		if a.WorkspaceRecordID == "" {
			a.WorkspaceRecordID = shared.WorkspaceRecordID
		}
	}
	if len(a.LinkToReviews) == 0 && (!a.Status.ZeroesScores() || a.Scoring.IsZero()) {
		return nil
	}

	consumed, err := r.applyReviews(ctx, a)
	if err != nil {
		return err
	}
	if err := r.persist(ctx, a); err != nil {
		return err
	}
	if len(consumed) > 0 {
		return r.deleteReviews(ctx, consumed)
	}
	return nil
}

// Envelopes polls the envelopes of every applicant in an offer stage.
func (r *Refresher) Envelopes(ctx context.Context) (Result, error) {
	return r.run(ctx, PassEnvelopes, func(ctx context.Context, res *Result) error {
		if r.envelopes == nil {
			return &apperr.ConfigurationError{Message: "no e-signature provider configured"}
		}
		applicants, err := r.store.ListApplicants(ctx, types.ApplicantFilter{
			Statuses: []status.Status{status.GivingOffer, status.Onboarding, status.Hired},
		})
		if err != nil {
			return err
		}
		for _, a := range applicants {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Signed and filed envelopes need nothing more.
			if a.Offer.Completed() && a.Agreements.Completed() {
				continue
			}
			if fatal := r.account(res, a, r.syncEnvelopes(ctx, a)); fatal != nil {
				return fatal
			}
		}
		return nil
	})
}

func (r *Refresher) syncEnvelopes(ctx context.Context, a *types.Applicant) error {
	release, err := r.locker.Lock(ctx, a.Key())
	if err != nil {
		return fmt.Errorf("failed to lock applicant %s: %w", a.Email, err)
	}
	defer release()

	var errs []error
	for _, k := range envelope.Kinds {
		if err := r.envelopes.Sync(ctx, a, k); err != nil {
			if apperr.IsFatal(err) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// account records the outcome for one applicant. Only fatal errors are
// returned.
func (r *Refresher) account(res *Result, a *types.Applicant, err error) error {
	res.Processed++
	if err == nil {
		return nil
	}
	if apperr.IsFatal(err) || errors.Is(err, context.Canceled) {
		return err
	}
	res.Failed++
	r.logger.Error("failed to refresh applicant", "email", a.Email, "sheet_id", a.SheetID, "error", err)
	return nil
}

// run executes a pass under a run id, recorded when a RunRecorder is set.
func (r *Refresher) run(ctx context.Context, kind string, fn func(context.Context, *Result) error) (Result, error) {
	res := Result{RunID: uuid.New()}
	if r.runs != nil {
		id, err := r.runs.CreateRun(ctx, kind)
		if err != nil {
			r.logger.Warn("failed to record run", "kind", kind, "error", err)
		} else {
			res.RunID = id
		}
	}

	log := r.logger.With("run_id", res.RunID.String(), "pass", kind)
	log.Info("starting pass")
	err := fn(ctx, &res)

	runStatus := "completed"
	if err != nil {
		runStatus = "failed"
		log.Error("pass aborted", "processed", res.Processed, "failed", res.Failed, "error", err)
	} else {
		log.Info("pass finished", "processed", res.Processed, "failed", res.Failed)
	}
	if r.runs != nil {
		if cerr := r.runs.CompleteRun(context.WithoutCancel(ctx), res.RunID, runStatus, res.Processed, res.Failed); cerr != nil {
			log.Warn("failed to complete run", "error", cerr)
		}
	}
	return res, err
}

package reconcile

import (
	"slices"
	"time"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Reconcile merges the three views of one applicant. parsed is the freshly
// read spreadsheet row and must not be nil; db and ws are nil on first
// sighting. The result is a new record and none of the snapshots change.
func Reconcile(parsed, db, ws *Snapshot) *types.Applicant {
	out := parsed.Applicant()
	existing := db.view()
	workspace := ws.view()

	for _, r := range Rules {
		apply(r, out, existing, workspace)
	}

	if out.WorkspaceRecordID == "" && workspace != nil {
		out.WorkspaceRecordID = workspace.WorkspaceRecordID
	}

	out.Scorers = withoutCompleted(out.Scorers, out.ScorersCompleted)
	return out
}

func apply(r Rule, out, db, ws *types.Applicant) {
	switch r.Policy {
	case PreferExisting:
		if db != nil && !r.empty(db) {
			r.copy(out, db)
		}

	case SortedSet:
		if db != nil && !r.empty(db) {
			r.copy(out, db)
		}
		if r.sort != nil {
			r.sort(out)
		}

	case PreferExistingIfFreshEmpty:
		if db != nil && r.empty(out) && !r.empty(db) {
			r.copy(out, db)
		}

	case PreferWorkspace:
		switch {
		case ws != nil:
			r.copy(out, ws)
		case db != nil:
			r.copy(out, db)
		}

	case PreferExistingIfScored:
		if db != nil && len(db.Scorers) > 0 {
			r.copy(out, db)
		}

	case StatusGate:
		if db != nil {
			out.Status = status.Gate(db.Status, out.Status)
		}
	}
}

// withoutCompleted builds a new scorer list without anyone who has already
// submitted a review.
func withoutCompleted(scorers, completed []string) []string {
	if len(scorers) == 0 {
		return scorers
	}
	out := make([]string, 0, len(scorers))
	for _, s := range scorers {
		if !slices.Contains(completed, s) {
			out = append(out, s)
		}
	}
	return out
}

// Extraction is only worth running on recent applications.
const (
	freshWindow      = 48 * time.Hour
	incompleteWindow = 20 * 24 * time.Hour
)

// NeedsExtraction reports whether the materials and resume of a should be
// fetched and segmented again: always for the first two days, and up to
// twenty days while the last question is still unanswered. Declined
// applicants are never extracted.
func NeedsExtraction(a *types.Applicant, now time.Time) bool {
	if a.Status == status.Declined {
		return false
	}
	age := now.Sub(a.SubmittedTime)
	if age < freshWindow {
		return true
	}
	return age < incompleteWindow && a.Answers.WhyUs == ""
}

// InterviewWindow returns the start of the first interview and, when there
// is more than one, the end of the last.
func InterviewWindow(interviews []types.Interview) (started, completed *time.Time) {
	if len(interviews) == 0 {
		return nil, nil
	}
	sorted := slices.Clone(interviews)
	slices.SortStableFunc(sorted, func(a, b types.Interview) int {
		return a.Start.Compare(b.Start)
	})

	first := sorted[0].Start
	started = &first
	if len(sorted) > 1 {
		last := sorted[len(sorted)-1].End
		completed = &last
	}
	return started, completed
}

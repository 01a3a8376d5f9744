package status

import "time"

// Derive applies the automatic transitions in order and returns the
// resulting status. It never moves an applicant out of a state a person
// set, other than the two rules below.
//
// Known gap: an employee who was hired and has since left still derives
// Hired from Onboarding once the start date has passed. There is no signal
// for departures here, so the case is left unresolved.
func Derive(current Status, interviews int, startDate *time.Time, today time.Time) Status {
	next := current

	if interviews > 1 && (next == NextSteps || next == NeedsToBeTriaged) {
		next = Interviewing
	}

	if (next == Onboarding || next == GivingOffer) && startDate != nil && !dateAfter(*startDate, today) {
		next = Hired
	}

	return next
}

// Gate keeps Onboarding when a re-read of the spreadsheet would take the
// applicant back to GivingOffer. Signing the offer is not reflected in the
// spreadsheet.
func Gate(stored, derived Status) Status {
	if stored == Onboarding && derived == GivingOffer {
		return Onboarding
	}
	return derived
}

// Transition records a status change observed during reconciliation.
type Transition struct {
	From Status
	To   Status
}

// Changed reports whether the transition moves the applicant.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// IsOfferStage reports whether envelopes are relevant to the applicant.
func (s Status) IsOfferStage() bool {
	switch s {
	case GivingOffer, Onboarding, Hired:
		return true
	default:
		return false
	}
}

// ZeroesScores reports whether review counters must be hidden for s.
func (s Status) ZeroesScores() bool {
	switch s {
	case Onboarding, Hired:
		return true
	default:
		return false
	}
}

// dateAfter compares calendar dates in the location of b.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}

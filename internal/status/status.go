// Package status implements the applicant hiring status and the automatic
// transitions derived from interview counts and start dates.
//
//	NeedsToBeTriaged ──┐
//	                   ├──(more than one interview)──▶ Interviewing
//	NextSteps ─────────┘
//
//	GivingOffer ──┐
//	              ├──(start date reached)──▶ Hired
//	Onboarding ───┘
//
// Declined, Deferred, GivingOffer and Contractor are only ever set by a
// person in the workspace. The envelope orchestrator moves GivingOffer to
// Onboarding once the offer is signed.
package status

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an applicant.
type Status int

const (
	NeedsToBeTriaged Status = iota
	NextSteps
	Interviewing
	Declined
	Deferred
	GivingOffer
	Onboarding
	Hired
	Contractor
)

// All lists every status in display order.
var All = []Status{
	NeedsToBeTriaged,
	NextSteps,
	Interviewing,
	Declined,
	Deferred,
	GivingOffer,
	Onboarding,
	Hired,
	Contractor,
}

// String returns the label used in the spreadsheet, the workspace and the
// database.
func (s Status) String() string {
	switch s {
	case NeedsToBeTriaged:
		return "Needs to be triaged"
	case NextSteps:
		return "Next steps"
	case Interviewing:
		return "Interviewing"
	case Declined:
		return "Declined"
	case Deferred:
		return "Deferred"
	case GivingOffer:
		return "Giving offer"
	case Onboarding:
		return "Onboarding"
	case Hired:
		return "Hired"
	case Contractor:
		return "Contractor"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Parse converts a stored label back into a Status.
func Parse(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, st := range All {
		if strings.ToLower(st.String()) == needle {
			return st, nil
		}
	}
	return NeedsToBeTriaged, fmt.Errorf("unknown applicant status %q", s)
}

// rawPrefixes maps the free text people type into the spreadsheet status
// column to a Status. Order matters: "next steps" must win over anything
// that merely mentions an offer later in the note.
var rawPrefixes = []struct {
	prefix string
	status Status
}{
	{"next steps", NextSteps},
	{"interviewing", Interviewing},
	{"declined", Declined},
	{"deferred", Deferred},
	{"giving offer", GivingOffer},
	{"onboarding", Onboarding},
	{"hired", Hired},
	{"contractor", Contractor},
	{"consultant", Contractor},
	{"needs to be triaged", NeedsToBeTriaged},
}

// FromRaw maps the spreadsheet's free-text status (for example
// "Declined: did not do materials") to a Status. Unrecognized or empty text
// means the application still needs triage.
func FromRaw(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range rawPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.status
		}
	}
	return NeedsToBeTriaged
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

package reconcile

import (
	"slices"
	"time"

	"github.com/jonathan/hiring-agent/internal/types"
)

// Policy decides which snapshot a field is taken from. Fields without a
// rule keep the freshly parsed value.
type Policy int

const (
	// PreferExisting keeps the database value when it is set. These fields
	// come from slow or one-way processes and must survive a re-read.
	PreferExisting Policy = iota
	// PreferWorkspace takes the workspace value, falling back to the
	// database when there is no workspace record. People edit these fields
	// directly in the workspace.
	PreferWorkspace
	// PreferExistingIfFreshEmpty keeps the database value only when the
	// parsed row has none.
	PreferExistingIfFreshEmpty
	// StatusGate stops the spreadsheet from undoing a signed offer.
	StatusGate
	// SortedSet behaves like PreferExisting, then sorts.
	SortedSet
	// PreferExistingIfScored keeps the database value once scorers have
	// been assigned.
	PreferExistingIfScored
)

func (p Policy) String() string {
	switch p {
	case PreferExisting:
		return "prefer-existing"
	case PreferWorkspace:
		return "prefer-workspace"
	case PreferExistingIfFreshEmpty:
		return "prefer-existing-if-fresh-empty"
	case StatusGate:
		return "status-gate"
	case SortedSet:
		return "sorted-set"
	case PreferExistingIfScored:
		return "prefer-existing-if-scored"
	default:
		return "unknown"
	}
}

// Rule binds one applicant field to a Policy.
type Rule struct {
	Field  string
	Policy Policy

	empty func(a *types.Applicant) bool
	copy  func(dst, src *types.Applicant)
	sort  func(a *types.Applicant)
}

func stringRule(field string, p Policy, f func(a *types.Applicant) *string) Rule {
	return Rule{
		Field:  field,
		Policy: p,
		empty:  func(a *types.Applicant) bool { return *f(a) == "" },
		copy:   func(dst, src *types.Applicant) { *f(dst) = *f(src) },
	}
}

func timeRule(field string, p Policy, f func(a *types.Applicant) **time.Time) Rule {
	return Rule{
		Field:  field,
		Policy: p,
		empty:  func(a *types.Applicant) bool { return *f(a) == nil },
		copy: func(dst, src *types.Applicant) {
			if t := *f(src); t != nil {
				v := *t
				*f(dst) = &v
				return
			}
			*f(dst) = nil
		},
	}
}

func listRule(field string, p Policy, f func(a *types.Applicant) *[]string) Rule {
	return Rule{
		Field:  field,
		Policy: p,
		empty:  func(a *types.Applicant) bool { return len(*f(a)) == 0 },
		copy:   func(dst, src *types.Applicant) { *f(dst) = slices.Clone(*f(src)) },
		sort:   func(a *types.Applicant) { slices.Sort(*f(a)) },
	}
}

// Rules is the precedence table applied by Reconcile, in order.
var Rules = []Rule{
	{
		Field:  "id",
		Policy: PreferExisting,
		empty:  func(a *types.Applicant) bool { return a.ID == 0 },
		copy:   func(dst, src *types.Applicant) { dst.ID = src.ID },
	},
	stringRule("workspace_record_id", PreferExisting, func(a *types.Applicant) *string { return &a.WorkspaceRecordID }),
	{
		Field:  "company_id",
		Policy: PreferExisting,
		empty:  func(a *types.Applicant) bool { return a.CompanyID == 0 },
		copy:   func(dst, src *types.Applicant) { dst.CompanyID = src.CompanyID },
	},

	{Field: "status", Policy: StatusGate},

	timeRule("rejection_sent_date_time", PreferExisting, func(a *types.Applicant) **time.Time { return &a.RejectionSentTime }),
	timeRule("interviews_started", PreferExisting, func(a *types.Applicant) **time.Time { return &a.InterviewsStarted }),
	timeRule("interviews_completed", PreferExisting, func(a *types.Applicant) **time.Time { return &a.InterviewsCompleted }),
	timeRule("start_date", PreferExistingIfFreshEmpty, func(a *types.Applicant) **time.Time { return &a.StartDate }),

	stringRule("country_code", PreferExisting, func(a *types.Applicant) *string { return &a.CountryCode }),
	{
		Field:  "latitude,longitude",
		Policy: PreferExisting,
		empty:  func(a *types.Applicant) bool { return a.Latitude == 0 && a.Longitude == 0 },
		copy: func(dst, src *types.Applicant) {
			dst.Latitude, dst.Longitude = src.Latitude, src.Longitude
		},
	},
	stringRule("interview_packet", PreferExisting, func(a *types.Applicant) *string { return &a.InterviewPacket }),

	stringRule("resume_contents", PreferExisting, func(a *types.Applicant) *string { return &a.ResumeContents }),
	stringRule("materials_contents", PreferExisting, func(a *types.Applicant) *string { return &a.MaterialsContents }),
	stringRule("work_samples", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.WorkSamples }),
	stringRule("writing_samples", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.WritingSamples }),
	stringRule("analysis_samples", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.AnalysisSamples }),
	stringRule("presentation_samples", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.PresentationSamples }),
	stringRule("exploratory_samples", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.ExploratorySamples }),
	stringRule("question_technically_challenging", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.TechnicallyChallenging }),
	stringRule("question_proud_of", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.ProudOf }),
	stringRule("question_happiest", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.Happiest }),
	stringRule("question_unhappiest", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.Unhappiest }),
	stringRule("question_value_reflected", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.ValueReflected }),
	stringRule("question_value_violated", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.ValueViolated }),
	stringRule("question_values_in_tension", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.ValuesInTension }),
	stringRule("question_why_us", PreferExisting, func(a *types.Applicant) *string { return &a.Answers.WhyUs }),

	stringRule("criminal_background_check_status", PreferExisting, func(a *types.Applicant) *string { return &a.CriminalBackgroundCheckStatus }),
	stringRule("motor_vehicle_background_check_status", PreferExisting, func(a *types.Applicant) *string { return &a.MotorVehicleBackgroundCheckStatus }),

	stringRule("docusign_envelope_id", PreferExisting, func(a *types.Applicant) *string { return &a.Offer.ID }),
	stringRule("docusign_envelope_status", PreferExisting, func(a *types.Applicant) *string { return &a.Offer.Status }),
	timeRule("offer_created", PreferExisting, func(a *types.Applicant) **time.Time { return &a.Offer.CreatedAt }),
	timeRule("offer_completed", PreferExisting, func(a *types.Applicant) **time.Time { return &a.Offer.CompletedAt }),
	stringRule("docusign_piia_envelope_id", PreferExisting, func(a *types.Applicant) *string { return &a.Agreements.ID }),
	stringRule("docusign_piia_envelope_status", PreferExisting, func(a *types.Applicant) *string { return &a.Agreements.Status }),
	timeRule("piia_envelope_created", PreferExisting, func(a *types.Applicant) **time.Time { return &a.Agreements.CreatedAt }),
	timeRule("piia_envelope_completed", PreferExisting, func(a *types.Applicant) **time.Time { return &a.Agreements.CompletedAt }),

	stringRule("value_reflected", SortedSet, func(a *types.Applicant) *string { return &a.ValueReflected }),
	stringRule("value_violated", SortedSet, func(a *types.Applicant) *string { return &a.ValueViolated }),
	listRule("values_in_tension", SortedSet, func(a *types.Applicant) *[]string { return &a.ValuesInTension }),

	listRule("scorers", PreferWorkspace, func(a *types.Applicant) *[]string { return &a.Scorers }),
	listRule("interviews", PreferWorkspace, func(a *types.Applicant) *[]string { return &a.Interviews }),
	listRule("link_to_reviews", PreferWorkspace, func(a *types.Applicant) *[]string { return &a.LinkToReviews }),

	// Database only: reviews are folded in by the pipeline, not typed into
	// the workspace.
	listRule("scorers_completed", PreferExisting, func(a *types.Applicant) *[]string { return &a.ScorersCompleted }),

	stringRule("scoring_form_id", PreferExistingIfScored, func(a *types.Applicant) *string { return &a.ScoringFormID }),
	stringRule("scoring_form_url", PreferExistingIfScored, func(a *types.Applicant) *string { return &a.ScoringFormURL }),
	stringRule("scoring_form_responses_url", PreferExistingIfScored, func(a *types.Applicant) *string { return &a.ScoringFormResponsesURL }),
	{
		Field:  "scoring",
		Policy: PreferExistingIfScored,
		empty:  func(a *types.Applicant) bool { return a.Scoring.IsZero() },
		copy:   func(dst, src *types.Applicant) { dst.Scoring = src.Scoring },
	},
}

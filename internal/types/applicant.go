package types

import (
	"slices"
	"strings"
	"time"

	"github.com/jonathan/hiring-agent/internal/status"
)

// Applicant is the canonical hiring-pipeline record for one candidate and
// one role. Email and SheetID together identify it.
type Applicant struct {
	ID                int64  `json:"id,omitempty"`
	WorkspaceRecordID string `json:"workspace_record_id,omitempty"`

	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	SheetID string `json:"sheet_id"`

	Status    status.Status `json:"status"`
	RawStatus string        `json:"raw_status,omitempty"`

	SubmittedTime       time.Time  `json:"submitted_time"`
	RejectionSentTime   *time.Time `json:"rejection_sent_date_time,omitempty"`
	InterviewsStarted   *time.Time `json:"interviews_started,omitempty"`
	InterviewsCompleted *time.Time `json:"interviews_completed,omitempty"`
	StartDate           *time.Time `json:"start_date,omitempty"`

	Phone       string  `json:"phone,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Location    string  `json:"location,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`

	GitHub       string   `json:"github,omitempty"`
	GitLab       string   `json:"gitlab,omitempty"`
	LinkedIn     string   `json:"linkedin,omitempty"`
	Portfolio    string   `json:"portfolio,omitempty"`
	Website      string   `json:"website,omitempty"`
	ResumeURL    string   `json:"resume,omitempty"`
	MaterialsURL string   `json:"materials,omitempty"`
	InterestedIn []string `json:"interested_in,omitempty"`

	ResumeContents    string  `json:"resume_contents,omitempty"`
	MaterialsContents string  `json:"materials_contents,omitempty"`
	Answers           Answers `json:"answers"`

	ValueReflected  string   `json:"value_reflected,omitempty"`
	ValueViolated   string   `json:"value_violated,omitempty"`
	ValuesInTension []string `json:"values_in_tension,omitempty"`

	Scoring                 Scoring  `json:"scoring"`
	Scorers                 []string `json:"scorers,omitempty"`
	ScorersCompleted        []string `json:"scorers_completed,omitempty"`
	ScoringFormID           string   `json:"scoring_form_id,omitempty"`
	ScoringFormURL          string   `json:"scoring_form_url,omitempty"`
	ScoringFormResponsesURL string   `json:"scoring_form_responses_url,omitempty"`

	Interviews      []string `json:"interviews,omitempty"`
	LinkToReviews   []string `json:"link_to_reviews,omitempty"`
	InterviewPacket string   `json:"interview_packet,omitempty"`

	CriminalBackgroundCheckStatus     string `json:"criminal_background_check_status,omitempty"`
	MotorVehicleBackgroundCheckStatus string `json:"motor_vehicle_background_check_status,omitempty"`

	Offer      Envelope `json:"offer"`
	Agreements Envelope `json:"agreements"`

	SentEmailReceived bool `json:"sent_email_received"`
	SentEmailFollowUp bool `json:"sent_email_follow_up"`

	CompanyID int `json:"company_id,omitempty"`
}

// Key is the unique identity of the applicant across all sources.
func (a *Applicant) Key() string {
	return strings.ToLower(a.Email) + "|" + a.SheetID
}

// Clone returns a deep copy so snapshots can be treated as immutable.
func (a *Applicant) Clone() *Applicant {
	if a == nil {
		return nil
	}
	c := *a
	c.RejectionSentTime = cloneTime(a.RejectionSentTime)
	c.InterviewsStarted = cloneTime(a.InterviewsStarted)
	c.InterviewsCompleted = cloneTime(a.InterviewsCompleted)
	c.StartDate = cloneTime(a.StartDate)
	c.InterestedIn = slices.Clone(a.InterestedIn)
	c.ValuesInTension = slices.Clone(a.ValuesInTension)
	c.Scorers = slices.Clone(a.Scorers)
	c.ScorersCompleted = slices.Clone(a.ScorersCompleted)
	c.Interviews = slices.Clone(a.Interviews)
	c.LinkToReviews = slices.Clone(a.LinkToReviews)
	c.Offer = a.Offer.clone()
	c.Agreements = a.Agreements.clone()
	return &c
}

// FirstName returns the first whitespace separated word of the name.
func (a *Applicant) FirstName() string {
	fields := strings.Fields(a.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// LastName returns everything after the first name.
func (a *Applicant) LastName() string {
	fields := strings.Fields(a.Name)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// Answers holds the segments extracted from the candidate materials.
type Answers struct {
	WorkSamples         string `json:"work_samples,omitempty"`
	WritingSamples      string `json:"writing_samples,omitempty"`
	AnalysisSamples     string `json:"analysis_samples,omitempty"`
	PresentationSamples string `json:"presentation_samples,omitempty"`
	ExploratorySamples  string `json:"exploratory_samples,omitempty"`

	TechnicallyChallenging string `json:"question_technically_challenging,omitempty"`
	ProudOf                string `json:"question_proud_of,omitempty"`
	Happiest               string `json:"question_happiest,omitempty"`
	Unhappiest             string `json:"question_unhappiest,omitempty"`
	ValueReflected         string `json:"question_value_reflected,omitempty"`
	ValueViolated          string `json:"question_value_violated,omitempty"`
	ValuesInTension        string `json:"question_values_in_tension,omitempty"`
	WhyUs                  string `json:"question_why_us,omitempty"`
}

// Scoring holds the counters folded in from reviews.
type Scoring struct {
	Evaluations            int `json:"scoring_evaluations_count"`
	EnthusiasticYes        int `json:"scoring_enthusiastic_yes_count"`
	Yes                    int `json:"scoring_yes_count"`
	Pass                   int `json:"scoring_pass_count"`
	No                     int `json:"scoring_no_count"`
	NotApplicable          int `json:"scoring_not_applicable_count"`
	InsufficientExperience int `json:"scoring_insufficient_experience_count"`
	InapplicableExperience int `json:"scoring_inapplicable_experience_count"`
	JobFunctionYetNeeded   int `json:"scoring_job_function_yet_needed_count"`
	UnderwhelmingMaterials int `json:"scoring_underwhelming_materials_count"`
}

// IsZero reports whether every counter is zero.
func (s Scoring) IsZero() bool {
	return s == Scoring{}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ApplicantFilter narrows a listing. Zero fields match everything.
type ApplicantFilter struct {
	SheetID  string
	Email    string
	Statuses []status.Status
}

// Match reports whether a passes the filter.
func (f ApplicantFilter) Match(a *Applicant) bool {
	if f.SheetID != "" && a.SheetID != f.SheetID {
		return false
	}
	if f.Email != "" && !strings.EqualFold(a.Email, f.Email) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	return true
}

package types

import (
	"time"
)

// Interview is a scheduled interview linked to an applicant in the
// workspace.
type Interview struct {
	ID           string    `json:"id"`
	Start        time.Time `json:"start_time"`
	End          time.Time `json:"end_time"`
	Interviewers []string  `json:"interviewers,omitempty"`
}

// Review is one reviewer's evaluation of one applicant. Reviews are folded
// into the applicant's counters and then deleted.
type Review struct {
	ID              string   `json:"id"`
	ApplicantEmail  string   `json:"applicant_email"`
	Reviewer        string   `json:"reviewer"`
	Evaluation      string   `json:"evaluation"`
	ValueReflected  string   `json:"value_reflected,omitempty"`
	ValueViolated   string   `json:"value_violated,omitempty"`
	ValuesInTension []string `json:"values_in_tension,omitempty"`
}

// Employee is the HR record seeded from the signed offer.
type Employee struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	RecoveryEmail string     `json:"recovery_email"`
	Street        string     `json:"home_address_street_1,omitempty"`
	City          string     `json:"home_address_city,omitempty"`
	State         string     `json:"home_address_state,omitempty"`
	Zipcode       string     `json:"home_address_zipcode,omitempty"`
	Country       string     `json:"home_address_country,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
}

// HasAddress reports whether HR has already filled in a home address.
func (e *Employee) HasAddress() bool {
	return e.Street != ""
}

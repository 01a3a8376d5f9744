// Package phone normalizes the free-form phone numbers applicants type into
// the application form.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no heuristic matches the applicant's location.
const DefaultRegion = "US"

// Heuristic picks a region for a number from the applicant's free-text
// location. When Prefix is set the cleaned number must also start with it.
type Heuristic struct {
	Region    string   `json:"region" yaml:"region" validate:"required,len=2"`
	Locations []string `json:"locations" yaml:"locations" validate:"required,min=1"`
	Prefix    string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Matches reports whether the heuristic applies.
func (h Heuristic) Matches(location, number string) bool {
	loc := strings.ToLower(location)
	for _, l := range h.Locations {
		if strings.Contains(loc, strings.ToLower(l)) {
			return h.Prefix == "" || strings.HasPrefix(number, h.Prefix)
		}
	}
	return false
}

// DefaultHeuristics mirrors the locations seen in past applications.
var DefaultHeuristics = []Heuristic{
	{Region: "GB", Locations: []string{"uk", "london", "ipswich", "united kingdom", "england"}, Prefix: "44"},
	{Region: "CZ", Locations: []string{"czech republic", "prague"}, Prefix: "420"},
	{Region: "TR", Locations: []string{"turkey"}, Prefix: "90"},
	{Region: "SE", Locations: []string{"sweden"}, Prefix: "46"},
	{Region: "IN", Locations: []string{"mumbai", "india", "bangalore"}, Prefix: "91"},
	{Region: "BR", Locations: []string{"brazil"}},
	{Region: "BE", Locations: []string{"belgium"}},
	{Region: "RO", Locations: []string{"romania"}, Prefix: "40"},
	{Region: "NG", Locations: []string{"nigeria"}},
	{Region: "AT", Locations: []string{"austria"}},
	{Region: "AU", Locations: []string{"australia"}, Prefix: "61"},
	{Region: "LK", Locations: []string{"sri lanka"}, Prefix: "94"},
	{Region: "SI", Locations: []string{"slovenia"}, Prefix: "386"},
	{Region: "FR", Locations: []string{"france"}, Prefix: "33"},
	{Region: "NL", Locations: []string{"netherlands"}, Prefix: "31"},
	{Region: "TW", Locations: []string{"taiwan"}},
	{Region: "NZ", Locations: []string{"new zealand"}},
	{Region: "IT", Locations: []string{"maragno", "italy"}},
	{Region: "KE", Locations: []string{"nairobi", "kenya"}},
	{Region: "AE", Locations: []string{"dubai"}},
	{Region: "PL", Locations: []string{"poland"}},
	{Region: "PT", Locations: []string{"portugal"}},
	{Region: "DE", Locations: []string{"berlin", "germany"}},
	{Region: "BJ", Locations: []string{"benin"}, Prefix: "229"},
	{Region: "IL", Locations: []string{"israel"}},
	{Region: "ES", Locations: []string{"spain"}},
}

var stripper = strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")

// Clean removes the separators people type into phone numbers.
func Clean(raw string) string {
	return stripper.Replace(raw)
}

// Region returns the region for the cleaned number, first heuristic wins.
func Region(location, cleaned string, heuristics []Heuristic) string {
	for _, h := range heuristics {
		if h.Matches(location, cleaned) {
			return strings.ToUpper(h.Region)
		}
	}
	return DefaultRegion
}

// Normalize formats raw in international notation and returns it with the
// lower-case region code. Numbers that cannot be parsed are returned cleaned
// but otherwise untouched.
func Normalize(raw, location string, heuristics []Heuristic) (formatted, countryCode string) {
	cleaned := Clean(raw)
	region := Region(location, cleaned, heuristics)
	countryCode = strings.ToLower(region)
	if cleaned == "" {
		return "", countryCode
	}

	num, err := phonenumbers.Parse(cleaned, region)
	if err != nil {
		return cleaned, countryCode
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), countryCode
}

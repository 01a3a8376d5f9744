package envelope

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Names of the offer form fields the applicant fills in.
const (
	FieldStreet     = "Applicant's Street Address"
	FieldCity       = "Applicant's City"
	FieldState      = "Applicant's State"
	FieldPostalCode = "Applicant's Postal Code"
	FieldCountry    = "Applicant's Country"
	FieldStartDate  = "Start Date"
)

const formDateLayout = "01/02/2006"

// OfferForm is what the applicant typed into the signed offer.
type OfferForm struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	StartDate  *time.Time
}

// ParseOfferForm reads the offer fields. A start date that is not
// MM/DD/YYYY is a DataIntegrityError.
func ParseOfferForm(fields []FormField, loc *time.Location) (OfferForm, error) {
	var f OfferForm
	for _, fd := range fields {
		v := strings.TrimSpace(fd.Value)
		switch fd.Name {
		case FieldStreet:
			f.Street = v
		case FieldCity:
			f.City = v
		case FieldState:
			f.State = StateAbbreviation(v)
		case FieldPostalCode:
			f.PostalCode = v
		case FieldCountry:
			f.Country = v
		case FieldStartDate:
			if v == "" {
				continue
			}
			t, err := time.ParseInLocation(formDateLayout, v, loc)
			if err != nil {
				return OfferForm{}, &apperr.DataIntegrityError{Field: "start date", Value: v, Cause: err}
			}
			f.StartDate = &t
		}
	}
	return f, nil
}

// applyOfferForm seeds the new hire's employee record and the applicant's
// start date from the signed offer. HR maintains the employee record after
// that, so an address already on file is never overwritten.
func (o *Orchestrator) applyOfferForm(ctx context.Context, a *types.Applicant, envelopeID string) (startDateChanged bool, err error) {
	fields, err := o.provider.GetFormData(ctx, envelopeID)
	if err != nil {
		return false, fmt.Errorf("failed to get form data for envelope %s: %w", envelopeID, err)
	}
	form, err := ParseOfferForm(fields, o.cfg.Location)
	if err != nil {
		return false, err
	}

	employee, err := o.store.GetEmployeeByRecoveryEmail(ctx, a.Email)
	if err != nil {
		return false, fmt.Errorf("failed to get employee for %s: %w", a.Email, err)
	}
	if employee != nil && seedEmployee(employee, form) {
		if err := o.store.UpdateEmployee(ctx, employee); err != nil {
			return false, fmt.Errorf("failed to update employee %s: %w", employee.Username, err)
		}
		o.logger.Info("seeded employee from signed offer", "email", a.Email, "employee", employee.Username)
	}

	if form.StartDate != nil {
		startDateChanged = a.StartDate == nil || !a.StartDate.Equal(*form.StartDate)
		sd := *form.StartDate
		a.StartDate = &sd
	}
	return startDateChanged, nil
}

func seedEmployee(e *types.Employee, form OfferForm) bool {
	changed := false
	if !e.HasAddress() {
		e.Street = form.Street
		e.City = form.City
		e.State = form.State
		e.Zipcode = form.PostalCode
		e.Country = form.Country
		changed = true
	}
	if e.StartDate == nil && form.StartDate != nil {
		sd := *form.StartDate
		e.StartDate = &sd
		changed = true
	}
	return changed
}

var stateAbbreviations = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY", "puerto rico": "PR",
}

// StateAbbreviation maps a US state name to its postal code. Anything else,
// including an abbreviation, is returned trimmed.
func StateAbbreviation(s string) string {
	s = strings.TrimSpace(s)
	if abbr, ok := stateAbbreviations[strings.ToLower(s)]; ok {
		return abbr
	}
	return s
}

package envelope

import (
	"fmt"
	"time"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Signer is a person on the company side of every envelope.
type Signer struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Email string `json:"email" yaml:"email" validate:"required,email"`
}

// Config names the templates and the people that sign with the applicant.
type Config struct {
	Company string

	// Officer fills in the offer and countersigns the agreements. HR
	// receives both once signed.
	Officer Signer
	HR      Signer

	OfferTemplate      string
	AgreementsTemplate string
	OfferSubject       string
	AgreementsSubject  string

	// DriveName is the shared drive that holds a folder per hire.
	DriveName string

	// Location is the zone of dates typed into the envelope forms.
	Location *time.Location
}

func (c Config) template(k Kind) string {
	if k == KindAgreements {
		return c.AgreementsTemplate
	}
	return c.OfferTemplate
}

func (c Config) subject(k Kind) string {
	if k == KindAgreements {
		if c.AgreementsSubject != "" {
			return c.AgreementsSubject
		}
		return fmt.Sprintf("%s Employee Agreements", c.Company)
	}
	if c.OfferSubject != "" {
		return c.OfferSubject
	}
	return fmt.Sprintf("%s Offer Letter", c.Company)
}

// Recipients builds the signing order for k. The officer always fills in
// the template first and HR always receives the result last.
func (c Config) Recipients(k Kind, a *types.Applicant) []Recipient {
	officer := Recipient{
		RoleName:     "CEO",
		Name:         c.Officer.Name,
		Email:        c.Officer.Email,
		RoutingOrder: 1,
	}
	applicant := Recipient{
		RoleName:     "Applicant",
		Name:         a.Name,
		Email:        a.Email,
		RoutingOrder: 2,
		EmailSubject: c.subject(k),
	}
	hr := Recipient{
		RoleName: "HR",
		Name:     c.HR.Name,
		Email:    c.HR.Email,
	}

	if k == KindOffer {
		officer.EmailSubject = fmt.Sprintf("Complete the offer letter for %s", a.Name)
		officer.EmailBody = fmt.Sprintf("The status for the applicant, %s, has been changed to `%s`. "+
			"Complete the offer letter and it will be sent to %s at %s to sign.",
			a.Name, status.GivingOffer, a.Name, a.Email)
		applicant.EmailBody = fmt.Sprintf("We are very excited to offer you a position at %s!", c.Company)
		hr.RoutingOrder = 3
		hr.EmailSubject = fmt.Sprintf("%s Offer Letter Signed", c.Company)
		hr.EmailBody = "Attached is a newly signed offer letter, please set up benefits. Thank you!"
		return []Recipient{officer, applicant, hr}
	}

	officer.EmailSubject = fmt.Sprintf("Complete the employee agreements for %s", a.Name)
	officer.EmailBody = fmt.Sprintf("The status for the applicant, %s, has been changed to `%s`. "+
		"Complete the employee agreements and they will be sent to %s at %s to sign.",
		a.Name, status.GivingOffer, a.Name, a.Email)
	applicant.EmailBody = "Here are the PIIA (Employee Proprietary Information and Invention Agreement) " +
		"and Mediation documents. They are separate from the offer letter and need to be returned " +
		"by your start date."
	countersign := Recipient{
		RoleName:     "CEO (2)",
		Name:         c.Officer.Name,
		Email:        c.Officer.Email,
		RoutingOrder: 3,
		EmailSubject: fmt.Sprintf("Sign the PIIA agreements for %s", a.Name),
		EmailBody:    "This is the last step before we send to HR.",
	}
	hr.RoutingOrder = 4
	hr.EmailSubject = fmt.Sprintf("%s Employee Agreements Signed", c.Company)
	hr.EmailBody = "Attached are newly signed employee agreements. Thank you!"
	return []Recipient{officer, applicant, countersign, hr}
}

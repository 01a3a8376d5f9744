package envelope

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/hiring-agent/internal/types"
)

const pdfMime = "application/pdf"

// DocumentName is the file name a signed document is filed under.
func DocumentName(k Kind, applicantName, document string) string {
	switch {
	case strings.Contains(document, "Offer Letter"):
		return fmt.Sprintf("%s - Offer.pdf", applicantName)
	case strings.Contains(document, "Summary"):
		if k == KindAgreements {
			return fmt.Sprintf("%s - Employee Agreements - DocuSign Summary.pdf", applicantName)
		}
		return fmt.Sprintf("%s - Offer - DocuSign Summary.pdf", applicantName)
	case strings.Contains(document, "Employee Mediation"), strings.Contains(document, "Employee_Mediation"):
		return fmt.Sprintf("%s - Mediation Agreement.pdf", applicantName)
	case strings.Contains(document, "Employee Proprietary"), strings.Contains(document, "Employee_Proprietary"):
		return fmt.Sprintf("%s - PIIA.pdf", applicantName)
	default:
		return fmt.Sprintf("%s - %s.pdf", applicantName, document)
	}
}

// fileDocuments uploads every document of env into the applicant's folder.
// A document that fails is logged and skipped; the failures are returned
// together once the rest are filed.
func (o *Orchestrator) fileDocuments(ctx context.Context, a *types.Applicant, k Kind, env *Envelope) error {
	if len(env.Documents) == 0 {
		return nil
	}

	folderID, err := o.filer.EnsureFolder(ctx, o.cfg.DriveName, a.Name)
	if err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", a.Name, err)
	}

	var errs []error
	for _, doc := range env.Documents {
		name := DocumentName(k, a.Name, doc.Name)
		if err := o.fileDocument(ctx, folderID, name, env.ID, doc); err != nil {
			o.logger.Error("failed to file document",
				"email", a.Email, "envelope_id", env.ID, "document", doc.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		o.logger.Info("filed signed document", "email", a.Email, "file", name)
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) fileDocument(ctx context.Context, folderID, name, envelopeID string, doc Document) error {
	data := doc.PDF
	if len(data) == 0 {
		var err error
		data, err = o.provider.GetDocument(ctx, envelopeID, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to download document: %w", err)
		}
	}
	if err := o.filer.Upload(ctx, folderID, name, pdfMime, data); err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}
	return nil
}

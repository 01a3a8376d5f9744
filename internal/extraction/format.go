package extraction

import "strings"

// Format is the converter a file is routed to.
type Format int

const (
	FormatOther Format = iota
	FormatPDF
	FormatHTML
	FormatNative
	FormatArchive
	FormatRTF
	FormatWordDoc
	FormatUnsupported
)

var unsupportedSuffixes = []string{".pptx", ".jpg", ".jpeg", ".png", ".gif", ".heic"}

// Classify picks the converter for a file from its mime type and name, in
// precedence order: PDF, HTML, native document, archive, unsupported, then
// the generic converters.
func Classify(name, mimeType string) Format {
	lower := strings.ToLower(name)
	switch {
	case mimeType == MimePDF || strings.HasSuffix(lower, ".pdf"):
		return FormatPDF
	case mimeType == MimeHTML || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		return FormatHTML
	case mimeType == MimeNativeDocument:
		return FormatNative
	case ArchiveKind(name) != "":
		return FormatArchive
	case strings.HasSuffix(lower, ".rtf"):
		return FormatRTF
	case strings.HasSuffix(lower, ".doc"):
		return FormatWordDoc
	}
	for _, s := range unsupportedSuffixes {
		if strings.HasSuffix(lower, s) {
			return FormatUnsupported
		}
	}
	return FormatOther
}

// ArchiveKind returns "7z", "tar.gz", "tar" or "zip" for archive names and
// "" otherwise.
func ArchiveKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".7z"):
		return "7z"
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return "tar.gz"
	case strings.HasSuffix(lower, ".tar"):
		return "tar"
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	default:
		return ""
	}
}

var materialsSuffixes = []string{
	"responses.pdf",
	"Oxide Candidate Materials.pdf",
	".pdf.pdf",
	"OxideQuestions.pdf",
	"oxide-computer-candidate-materials.pdf",
	"Questionnaire.pdf",
	"questionnaire.md",
	"Questionairre.pdf",
	"Operations Manager.pdf",
	"README.md",
}

// IsMaterials reports whether an archive member looks like the candidate
// materials document rather than an attachment such as a code sample.
func IsMaterials(name string) bool {
	for _, s := range materialsSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	if strings.HasPrefix(name, "Oxide Candidate Materials") && strings.HasSuffix(name, ".pdf") {
		return true
	}
	return strings.Contains(name, "Oxide_Candidate_Materials") && strings.HasSuffix(name, ".pdf")
}

package sheets

import (
	"sort"
	"strconv"
	"strings"
)

// Columns holds the index of each application form column, -1 when the
// sheet does not have it.
type Columns struct {
	Timestamp         int
	Name              int
	Email             int
	Location          int
	Phone             int
	GitHub            int
	Portfolio         int
	Website           int
	LinkedIn          int
	Resume            int
	Materials         int
	Status            int
	ValueReflected    int
	ValueViolated     int
	ValueInTension1   int
	ValueInTension2   int
	SentEmailReceived int
	SentEmailFollowUp int
	StartDate         int
	InterestedIn      int
}

// DetectColumns locates columns in the header row by case-insensitive
// substring. When several headers match, the rightmost wins.
func DetectColumns(header []string) Columns {
	c := Columns{
		Timestamp: -1, Name: -1, Email: -1, Location: -1, Phone: -1,
		GitHub: -1, Portfolio: -1, Website: -1, LinkedIn: -1, Resume: -1,
		Materials: -1, Status: -1, ValueReflected: -1, ValueViolated: -1,
		ValueInTension1: -1, ValueInTension2: -1, SentEmailReceived: -1,
		SentEmailFollowUp: -1, StartDate: -1, InterestedIn: -1,
	}

	needles := []struct {
		needle string
		index  *int
	}{
		{"timestamp", &c.Timestamp},
		{"name", &c.Name},
		{"email address", &c.Email},
		{"location", &c.Location},
		{"phone", &c.Phone},
		{"github", &c.GitHub},
		{"portfolio url", &c.Portfolio},
		{"website", &c.Website},
		{"linkedin profile url", &c.LinkedIn},
		{"resume", &c.Resume},
		{"materials", &c.Materials},
		{"status", &c.Status},
		{"value reflected", &c.ValueReflected},
		{"value violated", &c.ValueViolated},
		{"value in tension [1", &c.ValueInTension1},
		{"value in tension [2", &c.ValueInTension2},
		{"sent email that we received their application", &c.SentEmailReceived},
		{"have sent follow up email", &c.SentEmailFollowUp},
		{"start date", &c.StartDate},
		{"job descriptions are you interested in", &c.InterestedIn},
	}

	for i, h := range header {
		lower := strings.ToLower(h)
		for _, n := range needles {
			if strings.Contains(lower, n.needle) {
				*n.index = i
			}
		}
	}
	return c
}

// FromNamedValues flattens a form-submission event (header to values) into
// a header row and a data row.
func FromNamedValues(values map[string][]string) (header, row []string) {
	for k := range values {
		header = append(header, k)
	}
	sort.Strings(header)
	row = make([]string, len(header))
	for i, k := range header {
		if v := values[k]; len(v) > 0 {
			row[i] = v[0]
		}
	}
	return header, row
}

// ColumnLetter converts a zero-based column index to A1 notation.
func ColumnLetter(index int) string {
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// CellRef returns the A1 reference of a zero-based column and row.
func CellRef(sheetName string, col, row int) string {
	ref := ColumnLetter(col) + strconv.Itoa(row+1)
	if sheetName == "" {
		return ref
	}
	return sheetName + "!" + ref
}

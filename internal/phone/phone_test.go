package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "14155552671", Clean("+1 (415) 555-2671"))
}

func TestRegion(t *testing.T) {
	tests := []struct {
		location string
		number   string
		want     string
	}{
		{"London, UK", "447911123456", "GB"},
		{"London, UK", "14155552671", "US"}, // prefix must match too
		{"Prague, Czech Republic", "420601123456", "CZ"},
		{"Berlin", "4915112345678", "DE"},
		{"San Francisco, CA", "4155552671", "US"},
		{"", "", "US"},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, Region(tt.location, tt.number, DefaultHeuristics))
		})
	}
}

func TestNormalize_US(t *testing.T) {
	formatted, cc := Normalize("(415) 555-2671", "Oakland, CA", DefaultHeuristics)

	assert.Equal(t, "+1 415-555-2671", formatted)
	assert.Equal(t, "us", cc)
}

func TestNormalize_Empty(t *testing.T) {
	formatted, cc := Normalize("", "Sweden", DefaultHeuristics)

	assert.Equal(t, "", formatted)
	assert.Equal(t, "us", cc)
}

func TestNormalize_Unparseable(t *testing.T) {
	formatted, _ := Normalize("n/a", "", DefaultHeuristics)
	assert.Equal(t, "n/a", formatted)
}

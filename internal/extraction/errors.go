package extraction

import (
	"fmt"
	"unicode/utf8"
)

// ErrorKind distinguishes storage failures from converter failures.
type ErrorKind int

const (
	KindFetch ErrorKind = iota + 1
	KindConversion
)

func (k ErrorKind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindConversion:
		return "conversion"
	default:
		return "unknown"
	}
}

// Error is returned when a document cannot be fetched or converted.
// Conversion errors carry the converter output for diagnostics.
type Error struct {
	Kind    ErrorKind
	File    string
	Message string
	Stdout  string
	Stderr  string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s: %s", e.Kind, e.File, e.Message)
	if e.Stderr != "" {
		msg += ": " + truncate(e.Stderr, 512)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "...(truncated)"
}

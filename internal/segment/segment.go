// Package segment slices free-form candidate materials into named answers
// using ordered, line-wrap tolerant boundary patterns.
package segment

import (
	"regexp"
	"strings"
	"sync"
)

// Boundary marks the start of one labeled segment.
type Boundary struct {
	Label   string
	Pattern *regexp.Regexp
}

// Span locates one segment within the source text. Head is the boundary
// match, and Body runs from the end of Head up to the next boundary match
// (or to the end of the text for the last one).
type Span struct {
	Label     string
	HeadStart int
	HeadEnd   int
	BodyEnd   int
	Matched   bool
}

// Body returns the raw segment text.
func (s Span) Body(text string) string {
	if !s.Matched {
		return ""
	}
	return text[s.HeadEnd:s.BodyEnd]
}

// Slice scans text once, left to right, locating each boundary after the
// previous one. A segment runs from the end of its boundary to the start of
// the next boundary that matched. When the following boundary is missing
// the segment is unmatched, except for the last one which runs to the end
// of text.
func Slice(text string, boundaries []Boundary) []Span {
	spans := make([]Span, len(boundaries))
	cursor := 0
	for i, b := range boundaries {
		spans[i].Label = b.Label
		loc := locate(b.Pattern, text[cursor:])
		if loc == nil {
			continue
		}
		spans[i].HeadStart = cursor + loc[0]
		spans[i].HeadEnd = cursor + loc[1]
		spans[i].Matched = true
		cursor = spans[i].HeadEnd
	}

	for i := range spans {
		if !spans[i].Matched {
			continue
		}
		if i == len(spans)-1 {
			spans[i].BodyEnd = len(text)
			continue
		}
		if !spans[i+1].Matched {
			spans[i].Matched = false
			continue
		}
		spans[i].BodyEnd = spans[i+1].HeadStart
	}
	return spans
}

// Segment returns the cleaned text of every labeled segment. Boundaries
// that do not match yield an empty string.
func Segment(text string, boundaries []Boundary) map[string]string {
	out := make(map[string]string, len(boundaries))
	for _, span := range Slice(text, boundaries) {
		out[span.Label] = Clean(span.Body(text))
	}
	return out
}

// Candidate is one way a field has been delimited by some version of the
// form. A nil End means the field runs to the end of the text.
type Candidate struct {
	Start *regexp.Regexp
	End   *regexp.Regexp
}

// Field is a named segment with its candidates in fallback order.
type Field struct {
	Label      string
	Candidates []Candidate
}

// Between returns the raw text strictly between the first match of start
// and the first match of end that follows it.
func Between(text string, start, end *regexp.Regexp) (string, bool) {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if end == nil {
		return rest, true
	}
	stop := locate(end, rest)
	if stop == nil {
		return "", false
	}
	return rest[:stop[0]], true
}

// Extract tries each candidate in order and returns the first non-empty
// cleaned result.
func Extract(text string, field Field) string {
	for _, c := range field.Candidates {
		raw, ok := Between(text, c.Start, c.End)
		if !ok {
			continue
		}
		if s := Clean(raw); s != "" {
			return s
		}
	}
	return ""
}

// ExtractAll runs Extract for each field.
func ExtractAll(text string, fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Label] = Extract(text, f)
	}
	return out
}

var anchored sync.Map // *regexp.Regexp -> *regexp.Regexp

// locate returns the first match of re in text with its start moved as far
// right as possible while still ending at the same offset. Prompts begin
// with a single letter followed by a wildcard, so the leftmost match can
// start inside the preceding answer.
func locate(re *regexp.Regexp, text string) []int {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	v, ok := anchored.Load(re)
	if !ok {
		v, _ = anchored.LoadOrStore(re, regexp.MustCompile(`^(?s:.*?)(?:`+re.String()+`)$`))
	}
	// suffix matches text[s:end] iff some match starting at or after s ends
	// at end, so the last such s is the tightest start.
	suffix := v.(*regexp.Regexp)
	lo, hi := loc[0], loc[1]-1
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if suffix.MatchString(text[mid:loc[1]]) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return []int{lo, loc[1]}
}

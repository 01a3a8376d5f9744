package workspace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Airtable long text cells hold at most this many characters.
const maxCellLength = 100000

// Nested applicant objects become top-level columns: answers and scoring
// keep their own names, envelopes are prefixed.
var (
	inlined  = []string{"answers", "scoring"}
	prefixed = []string{"offer", "agreements"}
)

// Columns that the workspace does not hold for an applicant.
var skipped = map[string]bool{
	"id":                  true,
	"workspace_record_id": true,
}

// Columns holding collaborators; they are read back as emails.
var collaborators = map[string]bool{
	"scorers":           true,
	"scorers_completed": true,
	"reviewer":          true,
	"interviewers":      true,
}

// Date-only columns, returned by Airtable as YYYY-MM-DD.
var dateColumns = map[string]bool{
	"start_date": true,
}

// encodeApplicant flattens a into workspace columns.
func encodeApplicant(a *types.Applicant) (map[string]any, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode applicant: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("failed to encode applicant: %w", err)
	}

	fields := make(map[string]any, len(nested))
	for key, v := range nested {
		if skipped[key] {
			continue
		}
		switch {
		case contains(inlined, key):
			for k, sub := range asMap(v) {
				fields[k] = sub
			}
		case contains(prefixed, key):
			for k, sub := range asMap(v) {
				fields[key+"_"+k] = sub
			}
		case collaborators[key]:
			fields[key] = encodeCollaborators(v)
		default:
			fields[key] = v
		}
	}
	for key, v := range fields {
		if s, ok := v.(string); ok && len(s) > maxCellLength {
			fields[key] = s[:maxCellLength]
		}
	}
	if a.StartDate != nil {
		fields["start_date"] = a.StartDate.Format(time.DateOnly)
	}
	return fields, nil
}

// decodeApplicant reads a workspace record back into an applicant.
func decodeApplicant(rec Record) (*types.Applicant, error) {
	fields := normalize(rec.Fields)
	nested := make(map[string]any, len(fields))
	for _, key := range inlined {
		nested[key] = map[string]any{}
	}
	for _, key := range prefixed {
		nested[key] = map[string]any{}
	}

	for key, v := range fields {
		if skipped[key] {
			continue
		}
		if p, sub, ok := splitPrefixed(key); ok {
			nested[p].(map[string]any)[sub] = v
			continue
		}
		if strings.HasPrefix(key, "question_") || strings.HasSuffix(key, "_samples") {
			nested["answers"].(map[string]any)[key] = v
			continue
		}
		if strings.HasPrefix(key, "scoring_") && strings.HasSuffix(key, "_count") {
			nested["scoring"].(map[string]any)[key] = v
			continue
		}
		nested[key] = v
	}
	if raw, ok := nested["status"].(string); ok {
		if _, err := status.Parse(raw); err != nil {
			nested["status"] = status.FromRaw(raw).String()
		}
	}

	data, err := json.Marshal(nested)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
	}
	a := &types.Applicant{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
	}
	a.WorkspaceRecordID = rec.ID
	return a, nil
}

func decodeInterview(rec Record) (types.Interview, error) {
	var iv types.Interview
	if err := decodeInto(rec, &iv); err != nil {
		return types.Interview{}, err
	}
	iv.ID = rec.ID
	return iv, nil
}

func decodeReview(rec Record) (types.Review, error) {
	var r types.Review
	if err := decodeInto(rec, &r); err != nil {
		return types.Review{}, err
	}
	r.ID = rec.ID
	return r, nil
}

func decodeInto(rec Record, out any) error {
	data, err := json.Marshal(normalize(rec.Fields))
	if err != nil {
		return fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
	}
	return nil
}

// normalize turns collaborator objects into emails and date-only cells
// into timestamps.
func normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, v := range in {
		switch {
		case collaborators[key]:
			out[key] = decodeCollaborators(v)
		case dateColumns[key]:
			if s, ok := v.(string); ok && len(s) == len(time.DateOnly) {
				if t, err := time.Parse(time.DateOnly, s); err == nil {
					v = t.Format(time.RFC3339)
				}
			}
			out[key] = v
		default:
			out[key] = v
		}
	}
	return out
}

func encodeCollaborators(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]map[string]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, map[string]string{"email": s})
		}
	}
	return out
}

// decodeCollaborators accepts a single collaborator, a list of them, or
// plain strings.
func decodeCollaborators(v any) any {
	switch c := v.(type) {
	case map[string]any:
		email, _ := c["email"].(string)
		return email
	case []any:
		out := make([]string, 0, len(c))
		for _, item := range c {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				if email, ok := it["email"].(string); ok && email != "" {
					out = append(out, email)
				}
			}
		}
		return out
	default:
		return v
	}
}

func splitPrefixed(key string) (prefix, sub string, ok bool) {
	for _, p := range prefixed {
		if rest, found := strings.CutPrefix(key, p+"_"); found {
			return p, rest, true
		}
	}
	return "", "", false
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

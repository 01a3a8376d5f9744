// Package reconcile merges the spreadsheet, database and workspace views of
// an applicant into one record.
package reconcile

import "github.com/jonathan/hiring-agent/internal/types"

// Source identifies where a snapshot was read from.
type Source int

const (
	Sheet Source = iota
	Database
	Workspace
)

func (s Source) String() string {
	switch s {
	case Sheet:
		return "sheet"
	case Database:
		return "database"
	case Workspace:
		return "workspace"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of an applicant from one source.
type Snapshot struct {
	Source    Source
	applicant *types.Applicant
}

// NewSnapshot captures a copy of a, so later changes to a do not leak
// into the merge.
func NewSnapshot(src Source, a *types.Applicant) *Snapshot {
	if a == nil {
		return nil
	}
	return &Snapshot{Source: src, applicant: a.Clone()}
}

// Applicant returns a copy of the captured record.
func (s *Snapshot) Applicant() *types.Applicant {
	if s == nil {
		return nil
	}
	return s.applicant.Clone()
}

func (s *Snapshot) view() *types.Applicant {
	if s == nil {
		return nil
	}
	return s.applicant
}

// Package apperr defines the error taxonomy shared by the reconciliation
// pipeline, its collaborators and the webhook handlers.
package apperr

import (
	"errors"
	"fmt"
)

// TransientIOError wraps a network or provider failure that the next
// scheduled pass is expected to recover from.
type TransientIOError struct {
	Op    string
	Cause error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("transient I/O error: %s: %v", e.Op, e.Cause)
}

func (e *TransientIOError) Unwrap() error {
	return e.Cause
}

// NotFoundError marks an expected absence, such as the first sighting of an
// applicant with no database row yet.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// FormatError is returned for documents whose format cannot be converted.
type FormatError struct {
	Name    string
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s: %s", e.Name, e.Message)
}

// DataIntegrityError reports a malformed value from an upstream provider.
// The update of the affected applicant is abandoned.
type DataIntegrityError struct {
	Field string
	Value string
	Cause error
}

func (e *DataIntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Cause
}

// ConfigurationError is fatal for a whole run: a missing template,
// credential or mapping.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err should abort the current run instead of
// being logged against a single applicant.
func IsFatal(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransient reports whether err is a TransientIOError.
func IsTransient(err error) bool {
	var te *TransientIOError
	return errors.As(err, &te)
}

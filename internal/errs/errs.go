// Package errs holds the error taxonomy shared by the masking engine and its
// collaborators. Every concrete error unwraps to one of the category
// sentinels so callers can branch with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

// Category sentinels.
var (
	// ErrConfiguration aborts a run before any alignment work starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation rejects a single hit.
	ErrValidation = errors.New("validation error")
	// ErrAlignment skips a single (subject, query) pair.
	ErrAlignment = errors.New("alignment error")
	// ErrStorage is fatal for the affected reference only.
	ErrStorage = errors.New("storage error")
)

// Hit validation causes.
var (
	ErrOutOfBounds      = errors.New("hit outside of sequence borders")
	ErrIdentityMismatch = errors.New("hit subject id does not match sequence name")
)

// ConfigurationError reports a duplicate name or an invalid setting.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
	}
	return "configuration: " + e.Message
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// Duplicate returns the error raised when a name is used twice.
func Duplicate(kind, name string) *ConfigurationError {
	return &ConfigurationError{Field: kind, Message: fmt.Sprintf("name %q is duplicated", name)}
}

// ValidationError rejects one hit. Cause is ErrOutOfBounds or ErrIdentityMismatch.
type ValidationError struct {
	SubjectID string
	Sequence  string
	Start     int
	End       int
	Cause     error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Cause, ErrIdentityMismatch):
		return fmt.Sprintf("invalid hit: subject %q does not match sequence %q", e.SubjectID, e.Sequence)
	default:
		return fmt.Sprintf("invalid hit on %s [%d,%d): %v", e.Sequence, e.Start, e.End, e.Cause)
	}
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Cause} }

// AlignmentError is a failed or timed out aligner call for one pair.
type AlignmentError struct {
	Query   string
	Subject string
	Timeout bool
	Err     error
}

func (e *AlignmentError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("align %s against %s: timed out", e.Query, e.Subject)
	}
	return fmt.Sprintf("align %s against %s: %v", e.Query, e.Subject, e.Err)
}

func (e *AlignmentError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAlignment, e.Err}
	}
	return []error{ErrAlignment}
}

// StorageError is an unreadable or unwritable sequence file.
type StorageError struct {
	Op   string // "read", "write", "mkdir", ...
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStorage, e.Err}
	}
	return []error{ErrStorage}
}

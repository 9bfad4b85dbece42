package errors

import (
	"errors"
	"fmt"
)

// RepoError is the structured error type for repoman.
// It carries enough context for logging, per-document failure reporting,
// and deciding whether an indexing batch may continue.
type RepoError struct {
	// Code is the unique error code (e.g., "ERR_301_STORE_BUSY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Store, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Path is the document path the error relates to, if any.
	Path string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *RepoError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RepoError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works with sentinel RepoErrors.
func (e *RepoError) Is(target error) bool {
	if t, ok := target.(*RepoError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithPath attaches the document path the error relates to.
// Returns the error for chaining.
func (e *RepoError) WithPath(path string) *RepoError {
	e.Path = path
	return e
}

// New creates a RepoError with the given code and message.
// Category, severity, and the retryable flag are derived from the code.
func New(code string, message string, cause error) *RepoError {
	return &RepoError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RepoError from an existing error.
func Wrap(code string, err error) *RepoError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IsFatal reports whether err must abort the whole operation rather than
// a single document. Only schema absence and friends qualify.
func IsFatal(err error) bool {
	var re *RepoError
	if errors.As(err, &re) {
		return re.Severity == SeverityFatal
	}
	return false
}

// IsRetryable reports whether the failed operation may be retried.
func IsRetryable(err error) bool {
	var re *RepoError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// CodeOf returns the error code of err, or ErrCodeInternal for plain errors.
func CodeOf(err error) string {
	var re *RepoError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrCodeInternal
}

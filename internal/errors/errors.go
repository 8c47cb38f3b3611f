package errors

import (
	stderrors "errors"
	"fmt"
)

// PolicyError is the structured error type for polisearch.
// It provides context for error handling, logging, and user presentation.
type PolicyError struct {
	// Code is the unique error code (e.g., "ERR_201_NO_TEXT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Input, Backend, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PolicyError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with PolicyError.
func (e *PolicyError) Is(target error) bool {
	if t, ok := target.(*PolicyError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PolicyError) WithDetail(key, value string) *PolicyError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new PolicyError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PolicyError {
	return &PolicyError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a PolicyError from an existing error.
// The error's message becomes the PolicyError message.
func Wrap(code string, err error) *PolicyError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NoTextError reports a document upload with no extractable text.
// Recoverable by re-uploading a readable document.
func NoTextError() *PolicyError {
	return New(ErrCodeNoText, "no extractable text", nil)
}

// EmptyCorpusError reports that the clause corpus produced no indexable terms.
func EmptyCorpusError(cause error) *PolicyError {
	return New(ErrCodeEmptyCorpus, "no extractable text: corpus is empty", cause)
}

// BackendUnavailableError reports that a dense embedding backend could not
// initialize. The engine recovers by degrading to the sparse backend, so this
// error is usually logged rather than surfaced.
func BackendUnavailableError(name string, cause error) *PolicyError {
	return New(ErrCodeBackendUnavailable,
		fmt.Sprintf("embedding backend %q unavailable", name), cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PolicyError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *PolicyError {
	return New(ErrCodeInvalidInput, message, cause)
}

// StorageError creates a document-store error.
func StorageError(message string, cause error) *PolicyError {
	return New(ErrCodeStoreOpen, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *PolicyError {
	return New(ErrCodeInternal, message, cause)
}

// IsInput reports whether err is an input error ("no extractable text" family).
func IsInput(err error) bool {
	return GetCategory(err) == CategoryInput
}

// IsNotFound reports whether err is a document-not-found error.
func IsNotFound(err error) bool {
	return GetCode(err) == ErrCodeDocumentNotFound || GetCode(err) == ErrCodeFileNotFound
}

// IsBackendUnavailable reports whether err is a backend availability error.
func IsBackendUnavailable(err error) bool {
	return GetCode(err) == ErrCodeBackendUnavailable
}

// IsRetryable checks if an error is retryable.
// Returns true if the error chain contains a PolicyError with Retryable set.
func IsRetryable(err error) bool {
	var pe *PolicyError
	if stderrors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCode extracts the error code from a PolicyError anywhere in the chain.
// Returns empty string if no PolicyError is present.
func GetCode(err error) string {
	var pe *PolicyError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// GetCategory extracts the category from a PolicyError anywhere in the chain.
// Returns empty string if no PolicyError is present.
func GetCategory(err error) Category {
	var pe *PolicyError
	if stderrors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// Package errors provides structured error handling for polisearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Input errors (documents, pages, extracted text)
//   - 3XX: Backend errors (embedding providers, reasoning service)
//   - 4XX: Validation errors
//   - 5XX: Storage errors
//   - 6XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryInput indicates document input errors (empty uploads, unreadable text).
	CategoryInput Category = "INPUT"
	// CategoryBackend indicates embedding or reasoning backend errors.
	CategoryBackend Category = "BACKEND"
	// CategoryValidation indicates caller-supplied value errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryStorage indicates document store and snapshot errors.
	CategoryStorage Category = "STORAGE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Input errors (200-299)
	ErrCodeNoText         = "ERR_201_NO_TEXT"
	ErrCodeEmptyCorpus    = "ERR_202_EMPTY_CORPUS"
	ErrCodeFileNotFound   = "ERR_203_FILE_NOT_FOUND"
	ErrCodeFileUnreadable = "ERR_204_FILE_UNREADABLE"

	// Backend errors (300-399)
	ErrCodeBackendUnavailable = "ERR_301_BACKEND_UNAVAILABLE"
	ErrCodeEmbeddingFailed    = "ERR_302_EMBEDDING_FAILED"
	ErrCodeAnalyzerFailed     = "ERR_303_ANALYZER_FAILED"
	ErrCodeDecisionMalformed  = "ERR_304_DECISION_MALFORMED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeDuplicateVector   = "ERR_403_DUPLICATE_VECTOR"

	// Storage errors (500-599)
	ErrCodeStoreOpen        = "ERR_501_STORE_OPEN"
	ErrCodeDocumentNotFound = "ERR_502_DOCUMENT_NOT_FOUND"
	ErrCodeSnapshotCorrupt  = "ERR_503_SNAPSHOT_CORRUPT"
	ErrCodeStoreLocked      = "ERR_504_STORE_LOCKED"

	// Internal errors (600-699)
	ErrCodeInternal    = "ERR_601_INTERNAL"
	ErrCodeIndexFailed = "ERR_602_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryInput
	case '3':
		return CategoryBackend
	case '4':
		return CategoryValidation
	case '5':
		return CategoryStorage
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Backend codes carry warning severity because the pipeline degrades
// to the sparse backend rather than failing.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSnapshotCorrupt, ErrCodeStoreOpen:
		return SeverityFatal
	}

	if categoryFromCode(code) == CategoryBackend {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Only live network calls against embedding or reasoning backends qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeBackendUnavailable, ErrCodeEmbeddingFailed, ErrCodeAnalyzerFailed:
		return true
	default:
		return false
	}
}

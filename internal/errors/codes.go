// Package errors provides structured error handling for repoman.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and extraction errors
//   - 3XX: Store errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file I/O and extraction errors.
	CategoryIO Category = "IO"
	// CategoryStore indicates database errors.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, the operation must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the batch can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO and extraction errors (200-299)
	ErrCodeFileNotFound  = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileUnread    = "ERR_202_FILE_UNREADABLE"
	ErrCodeFileDecode    = "ERR_203_FILE_UNDECODABLE"
	ErrCodeFileCorrupt   = "ERR_204_FILE_CORRUPT"
	ErrCodeLinkMarkup    = "ERR_205_LINK_MARKUP"
	ErrCodeExtractFailed = "ERR_206_EXTRACT_FAILED"

	// Store errors (300-399)
	ErrCodeStoreBusy     = "ERR_301_STORE_BUSY"
	ErrCodeStoreUpsert   = "ERR_302_STORE_UPSERT"
	ErrCodeSchemaMissing = "ERR_303_SCHEMA_MISSING"
	ErrCodeStoreLocked   = "ERR_304_INDEX_LOCK_HELD"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidSort  = "ERR_402_INVALID_SORT_ORDER"
	ErrCodeInvalidPath  = "ERR_403_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryStore
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from an error code.
// Schema absence is the only fatal condition at the operation level;
// everything else is a per-document error.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSchemaMissing, ErrCodeConfigInvalid, ErrCodeStoreLocked:
		return SeverityFatal
	case ErrCodeLinkMarkup:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether an operation failing with this code
// may be retried.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreBusy
}

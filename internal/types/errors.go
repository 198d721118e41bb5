package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants. All components MUST use these constants
// instead of hardcoded strings.
// Configuration failures use config.ConfigError instead: they abort before
// any network or ledger activity and map to exit code 2 at the CLI.
const (
	// Per-offering validation — recoverable: skip the offering, continue.
	ErrCodeOfferingMissingField ErrorCode = "offering_missing_field"
	ErrCodeOfferingInvalidDate  ErrorCode = "offering_invalid_date"

	// Ledger — fatal: proceeding with an empty ledger would re-send
	// every previously delivered invite.
	ErrCodeLedgerCorruptState ErrorCode = "ledger_corrupt_state"

	// Upstream — fatal to the run.
	ErrCodeUpstreamContacts ErrorCode = "upstream_contacts_unavailable"
	ErrCodeUpstreamSMTP     ErrorCode = "upstream_smtp_unavailable"
	ErrCodeUpstreamScrape   ErrorCode = "upstream_scrape_failed"
)

// Recoverable reports whether an error with this code is handled by
// skipping the current offering rather than aborting the run.
func (c ErrorCode) Recoverable() bool {
	switch c {
	case ErrCodeOfferingMissingField, ErrCodeOfferingInvalidDate:
		return true
	default:
		return false
	}
}

// AppError is the standard application error type used throughout the
// notifier. All domain errors should be expressed as AppError to enable
// consistent error classification and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error. This is the standard constructor for domain
// errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// Claim flow errors derived from the claim taxonomy.
	ErrCodeDataFetch         ErrorCode = "DATA_FETCH_ERROR"
	ErrCodeIneligible        ErrorCode = "INELIGIBLE"
	ErrCodeReceiptResolution ErrorCode = "RECEIPT_RESOLUTION_ERROR"
	ErrCodeSigning           ErrorCode = "SIGNING_ERROR"
	ErrCodeWallet            ErrorCode = "WALLET_ERROR"
	ErrCodeCampaignInactive  ErrorCode = "CAMPAIGN_INACTIVE"
	ErrCodeCampaignNotFound  ErrorCode = "CAMPAIGN_NOT_FOUND"

	// Session errors.
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATE_TRANSITION"

	// External collaborators.
	ErrCodeExternalAPI ErrorCode = "EXTERNAL_API_ERROR"
	ErrCodeCacheError  ErrorCode = "CACHE_ERROR"
)

// AppError is a typed application error carried through handlers to the
// error-handling middleware, which maps codes onto HTTP statuses.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error is any "not found" class.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeCampaignNotFound || e.Code == ErrCodeSessionNotFound
}

// IsUserFacing reports whether the error reflects user input or state rather
// than a system fault. Ineligibility is an answer, not a failure.
func (e *AppError) IsUserFacing() bool {
	switch e.Code {
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeIneligible,
		ErrCodeCampaignInactive, ErrCodeInvalidTransition, ErrCodeWallet:
		return true
	}
	return false
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// NewMissingParamsError lists every missing field, not just the first.
func NewMissingParamsError(fields []string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Missing required parameters: %s", strings.Join(fields, ", "))).
		WithDetail("missing", fields)
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewCampaignNotFoundError(id string) *AppError {
	return New(ErrCodeCampaignNotFound, fmt.Sprintf("Campaign not found: %s", id)).
		WithDetail("campaign_id", id)
}

func NewSessionNotFoundError(id string) *AppError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("Claim session not found: %s", id)).
		WithDetail("session_id", id)
}

// NewFeedUnavailableError marks the social feed as unreachable or malformed.
// This is surfaced to the caller and retryable, never treated as ineligible.
func NewFeedUnavailableError(err error) *AppError {
	return Wrap(err, ErrCodeDataFetch, "Social feed unavailable")
}

func NewDirectoryError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDataFetch, fmt.Sprintf("Campaign directory request failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewReceiptResolutionError(txHash string, err error) *AppError {
	return Wrap(err, ErrCodeReceiptResolution, "Campaign creation event not resolvable from receipt").
		WithDetail("tx_hash", txHash)
}

func NewSigningError(err error) *AppError {
	return Wrap(err, ErrCodeSigning, "Failed to issue claim signature")
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError casts err to AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}

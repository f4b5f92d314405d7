// Package errors provides custom error types for the Stipend API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Student errors.
var (
	ErrStudentNotFound = &AppError{Code: "STUDENT_NOT_FOUND", Message: "Student not found", StatusCode: http.StatusNotFound}
	ErrStudentExists   = &AppError{Code: "STUDENT_EXISTS", Message: "Student account already exists", StatusCode: http.StatusConflict}
)

// Expense errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Expense category not found", StatusCode: http.StatusNotFound}
)

// Investment errors.
var (
	ErrInvestmentNotFound = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment account not found", StatusCode: http.StatusNotFound}
	ErrInvestmentExists   = &AppError{Code: "INVESTMENT_EXISTS", Message: "Investment account already exists", StatusCode: http.StatusConflict}
	ErrInsufficientFunds  = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Withdrawal exceeds investment balance", StatusCode: http.StatusBadRequest}
	// ErrInconsistentLedger signals that an investment balance failed to
	// reconcile with its transaction log.
	ErrInconsistentLedger = &AppError{Code: "INCONSISTENT_LEDGER", Message: "Investment ledger failed consistency check", StatusCode: http.StatusInternalServerError}
)

// Alert errors.
var (
	ErrAlertNotFound = &AppError{Code: "ALERT_NOT_FOUND", Message: "Alert not found", StatusCode: http.StatusNotFound}
)

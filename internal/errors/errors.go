// Package errors categorizes service errors and maps them to HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/coin-ledger/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAuthorization ErrorCategory = "authorization"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryDatabase      ErrorCategory = "database"
	CategoryCache         ErrorCategory = "cache"
	CategorySystem        ErrorCategory = "system"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to the wire error body
func (e *CategorizedError) ToServiceError() types.ServiceError {
	return types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(tier types.UserTier, limit float64) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded, please try again later",
		Details: map[string]interface{}{
			"tier":  tier,
			"limit": limit,
		},
	}
}

var codeCategories = map[string]struct {
	category ErrorCategory
	status   int
}{
	types.CodeInvalidInput:         {CategoryValidation, http.StatusBadRequest},
	types.CodeInvalidAddressFormat: {CategoryValidation, http.StatusBadRequest},
	types.CodeUserNotFound:         {CategoryNotFound, http.StatusNotFound},
	types.CodePortfolioNotFound:    {CategoryNotFound, http.StatusNotFound},
	types.CodeTokenNotFound:        {CategoryNotFound, http.StatusNotFound},
	types.CodeHoldingNotFound:      {CategoryNotFound, http.StatusNotFound},
	types.CodeTransactionNotFound:  {CategoryNotFound, http.StatusNotFound},
	types.CodeAlertNotFound:        {CategoryNotFound, http.StatusNotFound},
	types.CodeConflict:             {CategoryConflict, http.StatusConflict},
	types.CodeUnauthorized:         {CategoryAuthorization, http.StatusUnauthorized},
	types.CodeForbidden:            {CategoryAuthorization, http.StatusForbidden},
}

// Categorize categorizes an existing error.
// Wrapped ServiceErrors keep their code; anything unknown becomes an internal error.
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if stderrors.As(err, &svcErr) {
		if c, ok := codeCategories[svcErr.Code]; ok {
			return &CategorizedError{
				Category:   c.category,
				StatusCode: c.status,
				Code:       svcErr.Code,
				Message:    svcErr.Message,
				Details:    svcErr.Details,
			}
		}
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	return NewInternalError("an internal error occurred", err)
}

// IsNotFound reports whether err categorizes as a not-found error
func IsNotFound(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryNotFound
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

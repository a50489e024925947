package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/coin-ledger/internal/errors"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	writeError(w, statusCode, types.ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func writeError(w http.ResponseWriter, statusCode int, svcErr types.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: svcErr})
}

// respondServiceError maps a service error to its status and code. Anything
// but a client error is logged and answered with a generic message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)
	if !apperrors.IsUserError(catErr) {
		logging.FromContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"category": catErr.Category,
		}).Error("request failed")
		respondError(w, catErr.StatusCode, ErrCodeInternalError, "An internal error occurred", nil)
		return
	}
	writeError(w, catErr.StatusCode, catErr.ToServiceError())
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// requireUserID reads X-User-ID, answering 401 when it is missing
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User ID required", nil)
		return "", false
	}
	return userID, true
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Common error codes
const (
	ErrCodeInvalidInput  = types.CodeInvalidInput
	ErrCodeUnauthorized  = types.CodeUnauthorized
	ErrCodeInternalError = "INTERNAL_ERROR"
)

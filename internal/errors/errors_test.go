package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/coin-ledger/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		category ErrorCategory
	}{
		{"holding not found", types.NewNotFound(types.CodeHoldingNotFound, "holding", "h1"), http.StatusNotFound, CategoryNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", types.NewNotFound(types.CodeTransactionNotFound, "transaction", "t1")), http.StatusNotFound, CategoryNotFound},
		{"invalid input", types.NewInvalidInput("amount", "must be positive"), http.StatusBadRequest, CategoryValidation},
		{"bad wallet", &types.ServiceError{Code: types.CodeInvalidAddressFormat, Message: "bad"}, http.StatusBadRequest, CategoryValidation},
		{"unknown code", &types.ServiceError{Code: "WEIRD", Message: "weird"}, http.StatusInternalServerError, CategorySystem},
		{"plain error", fmt.Errorf("connection refused"), http.StatusInternalServerError, CategorySystem},
		{"database", NewDatabaseError("insert transaction", fmt.Errorf("x")), http.StatusInternalServerError, CategoryDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Categorize(tt.err)
			assert.Equal(t, tt.status, c.StatusCode)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.status >= 400 && tt.status < 500, IsUserError(tt.err))
		})
	}

	assert.Nil(t, Categorize(nil))
}

func TestPredicates(t *testing.T) {
	nf := types.NewNotFound(types.CodeAlertNotFound, "alert", "a1")
	assert.True(t, IsNotFound(nf))
	assert.True(t, IsUserError(nf))
	assert.False(t, IsUserError(fmt.Errorf("boom")))
	assert.False(t, IsUserError(nil))
}

func TestToServiceError(t *testing.T) {
	svcErr := NewDatabaseError("commit transaction", fmt.Errorf("conn reset")).ToServiceError()
	assert.Equal(t, "DATABASE_ERROR", svcErr.Code)
	assert.Equal(t, "database error during commit transaction", svcErr.Message)
	assert.Equal(t, "commit transaction", svcErr.Details["operation"])
}

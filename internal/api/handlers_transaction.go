package api

import (
	"net/http"
	"time"

	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/types"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// handleCreateTransaction handles POST /api/portfolios/{id}/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		TokenID         string                `json:"tokenId"`
		Type            types.TransactionType `json:"type"`
		Amount          decimal.Decimal       `json:"amount"`
		Price           decimal.Decimal       `json:"price"`
		TransactionDate *time.Time            `json:"transactionDate,omitempty"`
		Notes           *string               `json:"notes,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := s.services.Ledger.CreateTransaction(r.Context(), &service.CreateTransactionInput{
		UserID:          userID,
		PortfolioID:     mux.Vars(r)["id"],
		TokenID:         req.TokenID,
		Type:            req.Type,
		Amount:          req.Amount,
		Price:           req.Price,
		TransactionDate: req.TransactionDate,
		Notes:           req.Notes,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// handleListTransactions handles GET /api/holdings/{id}/transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	txs, err := s.services.Ledger.ListTransactions(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// handleGetTransaction handles GET /api/transactions/{id}
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tx, err := s.services.Ledger.GetTransaction(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}

// handleDeleteTransaction handles DELETE /api/transactions/{id}. The response
// carries the holding as rebuilt from the remaining history.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	transactionID := mux.Vars(r)["id"]
	holding, err := s.services.Ledger.DeleteTransaction(r.Context(), userID, transactionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"transactionId": transactionID,
		"holding":       holding,
	})
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// handleListHoldings handles GET /api/portfolios/{id}/holdings
func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	holdings, err := s.services.Holdings.ListByPortfolio(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// handleRefreshPrices handles POST /api/portfolios/{id}/holdings/refresh
func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	portfolioID := mux.Vars(r)["id"]
	if _, err := s.services.Portfolios.GetPortfolio(r.Context(), portfolioID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	holdings, err := s.services.Holdings.RefreshPrices(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// handleGetHolding handles GET /api/holdings/{id}
func (s *Server) handleGetHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	holding, err := s.services.Holdings.Get(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

// handleUpdatePrice handles PUT /api/holdings/{id}/price
func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPrice *decimal.Decimal `json:"currentPrice"`
	}
	if err := parseJSONBody(r, &req); err != nil || req.CurrentPrice == nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "currentPrice is required", nil)
		return
	}

	holdingID := mux.Vars(r)["id"]
	if _, err := s.services.Holdings.Get(r.Context(), holdingID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	holding, err := s.services.Holdings.UpdatePrice(r.Context(), holdingID, *req.CurrentPrice)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

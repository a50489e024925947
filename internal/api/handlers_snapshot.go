package api

import (
	"net/http"

	"github.com/coin-ledger/internal/types"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const insufficientHistoryMessage = "not enough history for the requested period"

// performanceResponse wraps a performance result. Data is null when the
// history does not cover the period.
type performanceResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (types.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return types.Period1M, true
	}
	period, err := types.ParsePeriod(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "period must be one of 1D, 1W, 1M, 3M, 6M, 1Y, ALL", nil)
		return "", false
	}
	return period, true
}

// handleRecordPortfolioSnapshot handles POST /api/portfolios/{id}/snapshots
func (s *Server) handleRecordPortfolioSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		TotalValue    decimal.Decimal `json:"totalValue"`
		TotalInvested decimal.Decimal `json:"totalInvested"`
		Timeframe     types.Timeframe `json:"timeframe,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	portfolioID := mux.Vars(r)["id"]
	if _, err := s.services.Portfolios.GetPortfolio(r.Context(), portfolioID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	value, err := s.services.Snapshots.RecordTodayValue(r.Context(), portfolioID, userID, req.TotalValue, req.TotalInvested, req.Timeframe)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, value)
}

// handleGetSnapshots handles GET /api/portfolios/{id}/snapshots
func (s *Server) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	from, err := parseDate(query.Get("dateFrom"))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "dateFrom must be YYYY-MM-DD or RFC 3339", nil)
		return
	}
	to, err := parseDate(query.Get("dateTo"))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "dateTo must be YYYY-MM-DD or RFC 3339", nil)
		return
	}

	portfolioID := mux.Vars(r)["id"]
	values, err := s.services.Snapshots.GetHistory(r.Context(), portfolioID, userID, from, to, types.Timeframe(query.Get("timeframe")))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolioId": portfolioID,
		"snapshots":   values,
		"count":       len(values),
	})
}

// handlePortfolioPerformance handles GET /api/portfolios/{id}/performance
func (s *Server) handlePortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	portfolioID := mux.Vars(r)["id"]
	if _, err := s.services.Portfolios.GetPortfolio(r.Context(), portfolioID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	perf, err := s.services.Snapshots.CalculatePerformance(r.Context(), portfolioID, period)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if perf == nil {
		respondJSON(w, http.StatusOK, performanceResponse{Message: insufficientHistoryMessage})
		return
	}

	respondJSON(w, http.StatusOK, performanceResponse{Data: perf})
}

// handleRecordTokenSnapshot handles POST /api/holdings/{id}/snapshots
func (s *Server) handleRecordTokenSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity      decimal.Decimal `json:"quantity"`
		Price         decimal.Decimal `json:"price"`
		TotalValue    decimal.Decimal `json:"totalValue"`
		TotalInvested decimal.Decimal `json:"totalInvested"`
		Timeframe     types.Timeframe `json:"timeframe,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	holdingID := mux.Vars(r)["id"]
	if _, err := s.services.Holdings.Get(r.Context(), holdingID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	value, err := s.services.Snapshots.RecordTokenTodayValue(r.Context(), holdingID, userID,
		req.Quantity, req.Price, req.TotalValue, req.TotalInvested, req.Timeframe)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, value)
}

// handleTokenPerformance handles GET /api/holdings/{id}/performance
func (s *Server) handleTokenPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	holdingID := mux.Vars(r)["id"]
	if _, err := s.services.Holdings.Get(r.Context(), holdingID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	perf, err := s.services.Snapshots.CalculateTokenPerformance(r.Context(), holdingID, period)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if perf == nil {
		respondJSON(w, http.StatusOK, performanceResponse{Message: insufficientHistoryMessage})
		return
	}

	respondJSON(w, http.StatusOK, performanceResponse{Data: perf})
}

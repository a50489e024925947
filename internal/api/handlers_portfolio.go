package api

import (
	"net/http"

	"github.com/coin-ledger/internal/service"
	"github.com/gorilla/mux"
)

// handleCreatePortfolio handles POST /api/portfolios - Create portfolio
func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string   `json:"name"`
		Description *string  `json:"description,omitempty"`
		Wallets     []string `json:"wallets"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	portfolio, err := s.services.Portfolios.CreatePortfolio(r.Context(), &service.CreatePortfolioInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Wallets:     req.Wallets,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, portfolio)
}

// handleListPortfolios handles GET /api/portfolios
func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	portfolios, err := s.services.Portfolios.ListPortfolios(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolios": portfolios,
		"count":      len(portfolios),
	})
}

// handleGetPortfolio handles GET /api/portfolios/{id}
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	portfolio, err := s.services.Portfolios.GetPortfolio(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// handleUpdatePortfolio handles PUT /api/portfolios/{id}
func (s *Server) handleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        *string  `json:"name,omitempty"`
		Description *string  `json:"description,omitempty"`
		Wallets     []string `json:"wallets,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	portfolio, err := s.services.Portfolios.UpdatePortfolio(r.Context(), &service.UpdatePortfolioInput{
		PortfolioID: mux.Vars(r)["id"],
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Wallets:     req.Wallets,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// handleDeletePortfolio handles DELETE /api/portfolios/{id}
func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	portfolioID := mux.Vars(r)["id"]
	if err := s.services.Portfolios.DeletePortfolio(r.Context(), portfolioID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"portfolioId": portfolioID,
	})
}

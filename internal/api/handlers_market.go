package api

import (
	"net/http"

	"github.com/coin-ledger/internal/service"
	"github.com/gorilla/mux"
)

// handleCreateToken handles POST /api/tokens
func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req service.CreateTokenInput
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	token, err := s.services.Markets.CreateToken(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, token)
}

// handleListTokens handles GET /api/tokens
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	tokens, err := s.services.Markets.ListTokens(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// handleGetToken handles GET /api/tokens/{id}
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	token, err := s.services.Markets.GetToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// handleRecordMarketData handles POST /api/tokens/{id}/market-data
func (s *Server) handleRecordMarketData(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req service.RecordMarketDataInput
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	req.TokenID = mux.Vars(r)["id"]

	md, err := s.services.Markets.RecordMarketData(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, md)
}

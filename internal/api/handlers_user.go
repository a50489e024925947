package api

import (
	"net/http"

	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/types"
	"github.com/gorilla/mux"
)

// handleCreateUser handles POST /api/users - Create a new user
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string         `json:"email"`
		Tier  types.UserTier `json:"tier"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := s.services.Portfolios.CreateUser(r.Context(), &service.CreateUserInput{
		Email: req.Email,
		Tier:  req.Tier,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// handleGetUser handles GET /api/users/{id} - Get user by ID. Users can only
// read themselves.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	userID := mux.Vars(r)["id"]
	if userID != callerID {
		respondError(w, http.StatusNotFound, types.CodeUserNotFound, "user not found: "+userID, nil)
		return
	}

	user, err := s.services.Portfolios.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

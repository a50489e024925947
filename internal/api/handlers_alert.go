package api

import (
	"net/http"

	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/types"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// handleCreateAlert handles POST /api/alerts
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		TokenID   string          `json:"tokenId"`
		AlertType types.AlertType `json:"alertType"`
		Threshold decimal.Decimal `json:"threshold"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	alert, err := s.services.Alerts.CreateAlert(r.Context(), &service.CreateAlertInput{
		UserID:    userID,
		TokenID:   req.TokenID,
		AlertType: req.AlertType,
		Threshold: req.Threshold,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, alert)
}

// handleListAlerts handles GET /api/alerts
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	alerts, err := s.services.Alerts.ListAlerts(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// handleDisableAlert handles POST /api/alerts/{id}/disable
func (s *Server) handleDisableAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	alert, err := s.services.Alerts.DisableAlert(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

// handleDeleteAlert handles DELETE /api/alerts/{id}
func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	alertID := mux.Vars(r)["id"]
	if err := s.services.Alerts.DeleteAlert(r.Context(), alertID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alertId": alertID,
	})
}

// handleCheckAlerts handles POST /api/alerts/check - runs one evaluation pass
// on demand
func (s *Server) handleCheckAlerts(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	summary, err := s.services.Alerts.CheckAllAlerts(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleAlertStream handles GET /ws/alerts. Browsers cannot set headers on a
// websocket handshake, so the user may also come from the userId query
// parameter.
func (s *Server) handleAlertStream(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if userID == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User ID required", nil)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.hub.AddClient(conn, userID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.RemoveClient(conn)
			return
		}
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coin-ledger/internal/ledger"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// AlertService manages alerts and checks them against market data
type AlertService struct {
	alertRepo  AlertRepository
	tokenRepo  TokenRepository
	marketRepo MarketDataRepository
	publisher  AlertPublisher
	now        func() time.Time
}

// NewAlertService creates a new alert service. publisher may be nil.
func NewAlertService(
	alertRepo AlertRepository,
	tokenRepo TokenRepository,
	marketRepo MarketDataRepository,
	publisher AlertPublisher,
) *AlertService {
	return &AlertService{
		alertRepo:  alertRepo,
		tokenRepo:  tokenRepo,
		marketRepo: marketRepo,
		publisher:  publisher,
		now:        time.Now,
	}
}

// CreateAlertInput represents input for creating an alert
type CreateAlertInput struct {
	UserID    string          `json:"userId"`
	TokenID   string          `json:"tokenId"`
	AlertType types.AlertType `json:"alertType"`
	Threshold decimal.Decimal `json:"threshold"`
}

// CheckSummary is the result of one CheckAllAlerts run
type CheckSummary struct {
	Checked   int                      `json:"checked"`
	Triggered int                      `json:"triggered"`
	Results   []ledger.AlertEvaluation `json:"results"`
}

// CreateAlert creates an active alert on an existing token
func (s *AlertService) CreateAlert(ctx context.Context, input *CreateAlertInput) (*models.Alert, error) {
	if !input.AlertType.Valid() {
		return nil, types.NewInvalidInput("alertType", fmt.Sprintf("unsupported alert type: %s", input.AlertType))
	}
	if input.Threshold.IsNegative() {
		return nil, types.NewInvalidInput("threshold", "must not be negative")
	}
	if _, err := s.tokenRepo.GetByID(ctx, input.TokenID); err != nil {
		return nil, err
	}

	alert := &models.Alert{
		UserID:    input.UserID,
		TokenID:   input.TokenID,
		AlertType: input.AlertType,
		Threshold: input.Threshold,
		Status:    types.AlertStatusActive,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// ListAlerts returns a user's alerts
func (s *AlertService) ListAlerts(ctx context.Context, userID string) ([]*models.Alert, error) {
	alerts, err := s.alertRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	return alerts, nil
}

// DisableAlert stops an alert from being checked
func (s *AlertService) DisableAlert(ctx context.Context, alertID, userID string) (*models.Alert, error) {
	if err := s.alertRepo.UpdateStatus(ctx, alertID, userID, types.AlertStatusDisabled); err != nil {
		return nil, err
	}
	return s.alertRepo.GetByIDAndUser(ctx, alertID, userID)
}

// DeleteAlert removes an alert
func (s *AlertService) DeleteAlert(ctx context.Context, alertID, userID string) error {
	return s.alertRepo.DeleteByIDAndUser(ctx, alertID, userID)
}

// CheckAllAlerts evaluates every active alert that has not notified yet
// against the latest market data of its token. A crossing alert is marked
// triggered exactly once and a notification is published for it.
func (s *AlertService) CheckAllAlerts(ctx context.Context) (*CheckSummary, error) {
	log := logging.FromContext(ctx)

	alerts, err := s.alertRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	summary := &CheckSummary{Results: make([]ledger.AlertEvaluation, 0, len(alerts))}
	marketData := make(map[string]*models.MarketData)

	for _, alert := range alerts {
		md, seen := marketData[alert.TokenID]
		if !seen {
			md, err = s.marketRepo.Latest(ctx, alert.TokenID)
			if err != nil {
				return summary, fmt.Errorf("failed to load market data for token %s: %w", alert.TokenID, err)
			}
			marketData[alert.TokenID] = md
		}

		eval := ledger.EvaluateAlert(alert, md)
		summary.Checked++

		if eval.Triggered {
			at := s.now().UTC()
			marked, err := s.alertRepo.MarkTriggered(ctx, alert.ID, at)
			if err != nil {
				return summary, fmt.Errorf("failed to mark alert %s: %w", alert.ID, err)
			}
			if marked {
				summary.Triggered++
				s.publish(ctx, alert, eval, at)
			} else {
				eval.Triggered = false
				eval.Message = "alert already triggered"
			}
		}

		summary.Results = append(summary.Results, eval)
	}

	log.WithFields(map[string]interface{}{
		"checked":   summary.Checked,
		"triggered": summary.Triggered,
	}).Info("alert check complete")
	return summary, nil
}

func (s *AlertService) publish(ctx context.Context, alert *models.Alert, eval ledger.AlertEvaluation, at time.Time) {
	if s.publisher == nil {
		return
	}
	n := &models.AlertNotification{
		AlertID:      alert.ID,
		UserID:       alert.UserID,
		TokenID:      alert.TokenID,
		AlertType:    alert.AlertType,
		Threshold:    alert.Threshold,
		CurrentValue: eval.CurrentValue,
		Message:      eval.Message,
		TriggeredAt:  at,
	}
	if err := s.publisher.PublishAlert(ctx, n); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("alert_id", alert.ID).Warn("failed to publish alert notification")
	}
}

package ledger

import (
	"fmt"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// AlertEvaluation is the outcome of checking one alert against market data
type AlertEvaluation struct {
	AlertID      string           `json:"alertId"`
	Triggered    bool             `json:"triggered"`
	CurrentValue *decimal.Decimal `json:"currentValue,omitempty"`
	Message      string           `json:"message"`
}

// EvaluateAlert checks an alert's threshold against the latest market data.
// A nil market snapshot is reported as not triggered.
func EvaluateAlert(alert *models.Alert, md *models.MarketData) AlertEvaluation {
	result := AlertEvaluation{AlertID: alert.ID}

	if md == nil {
		result.Message = "no market data available for token"
		return result
	}

	var metric decimal.Decimal
	var triggered bool

	switch alert.AlertType {
	case types.AlertPriceAbove:
		metric = md.Price
		triggered = metric.GreaterThanOrEqual(alert.Threshold)
	case types.AlertPriceBelow:
		metric = md.Price
		triggered = metric.LessThanOrEqual(alert.Threshold)
	case types.AlertPercentChange:
		// direction-agnostic
		metric = md.PriceChange24h
		triggered = metric.Abs().GreaterThanOrEqual(alert.Threshold)
	case types.AlertVolumeAbove:
		metric = md.Volume24h
		triggered = metric.GreaterThanOrEqual(alert.Threshold)
	case types.AlertMarketCapAbove:
		metric = md.MarketCap
		triggered = metric.GreaterThanOrEqual(alert.Threshold)
	default:
		result.Message = fmt.Sprintf("unsupported alert type: %s", alert.AlertType)
		return result
	}

	result.CurrentValue = &metric
	result.Triggered = triggered
	if triggered {
		result.Message = fmt.Sprintf("%s threshold %s reached (current %s)", alert.AlertType, alert.Threshold.String(), metric.String())
	} else {
		result.Message = fmt.Sprintf("%s threshold %s not reached (current %s)", alert.AlertType, alert.Threshold.String(), metric.String())
	}
	return result
}

package models

import (
	"time"

	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Alert is a threshold condition on a token's market data.
// It moves from active to triggered once and is never re-armed automatically.
type Alert struct {
	ID               string            `json:"id" db:"id"`
	UserID           string            `json:"userId" db:"user_id"`
	TokenID          string            `json:"tokenId" db:"token_id"`
	AlertType        types.AlertType   `json:"alertType" db:"alert_type"`
	Threshold        decimal.Decimal   `json:"threshold" db:"threshold"`
	Status           types.AlertStatus `json:"status" db:"status"`
	NotificationSent bool              `json:"notificationSent" db:"notification_sent"`
	LastTriggeredAt  *time.Time        `json:"lastTriggeredAt,omitempty" db:"last_triggered_at"`
	CreatedAt        time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" db:"updated_at"`
}

// MarketData is a point-in-time market snapshot for a token
type MarketData struct {
	ID             string          `json:"id" db:"id"`
	TokenID        string          `json:"tokenId" db:"token_id"`
	Price          decimal.Decimal `json:"price" db:"price"`
	PriceChange24h decimal.Decimal `json:"priceChange24h" db:"price_change_24h"`
	Volume24h      decimal.Decimal `json:"volume24h" db:"volume_24h"`
	MarketCap      decimal.Decimal `json:"marketCap" db:"market_cap"`
	RecordedAt     time.Time       `json:"recordedAt" db:"recorded_at"`
}

// AlertNotification is published once when an alert triggers
type AlertNotification struct {
	AlertID      string           `json:"alertId"`
	UserID       string           `json:"userId"`
	TokenID      string           `json:"tokenId"`
	AlertType    types.AlertType  `json:"alertType"`
	Threshold    decimal.Decimal  `json:"threshold"`
	CurrentValue *decimal.Decimal `json:"currentValue,omitempty"`
	Message      string           `json:"message"`
	TriggeredAt  time.Time        `json:"triggeredAt"`
}

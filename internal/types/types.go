// Package types provides common type definitions for the coin ledger.
package types

import (
	"fmt"
	"time"
)

// UserTier represents the service tier level
type UserTier string

const (
	// TierFree represents the free service tier with limited history retention
	TierFree UserTier = "free"
	// TierPaid represents the paid service tier with unlimited retention
	TierPaid UserTier = "paid"
)

// TransactionType represents the side of a manual trade
type TransactionType string

const (
	// TransactionBuy increases the holding amount and re-weights the average cost
	TransactionBuy TransactionType = "buy"
	// TransactionSell decreases the holding amount, average cost unchanged
	TransactionSell TransactionType = "sell"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionSell
}

// Timeframe is the bucket a historical value row belongs to
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// Valid reports whether tf is a known timeframe
func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}

// AlertType represents the metric an alert watches
type AlertType string

const (
	AlertPriceAbove     AlertType = "price_above"
	AlertPriceBelow     AlertType = "price_below"
	AlertPercentChange  AlertType = "percent_change"
	AlertVolumeAbove    AlertType = "volume_above"
	AlertMarketCapAbove AlertType = "market_cap_above"
)

// Valid reports whether t is a known alert type
func (t AlertType) Valid() bool {
	switch t {
	case AlertPriceAbove, AlertPriceBelow, AlertPercentChange, AlertVolumeAbove, AlertMarketCapAbove:
		return true
	}
	return false
}

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusTriggered AlertStatus = "triggered"
	AlertStatusDisabled  AlertStatus = "disabled"
)

// Period is a performance window such as 1D or 1Y
type Period string

const (
	Period1D  Period = "1D"
	Period1W  Period = "1W"
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	PeriodAll Period = "ALL"
)

// ParsePeriod parses a period string, returning an error for unknown values
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Period1D, Period1W, Period1M, Period3M, Period6M, Period1Y, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// StartFrom returns the start of the period relative to now.
// PeriodAll has no fixed start and returns the zero time.
func (p Period) StartFrom(now time.Time) time.Time {
	switch p {
	case Period1D:
		return now.AddDate(0, 0, -1)
	case Period1W:
		return now.AddDate(0, 0, -7)
	case Period1M:
		return now.AddDate(0, -1, 0)
	case Period3M:
		return now.AddDate(0, -3, 0)
	case Period6M:
		return now.AddDate(0, -6, 0)
	case Period1Y:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Error codes returned by the services
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidAddressFormat = "INVALID_ADDRESS_FORMAT"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodePortfolioNotFound    = "PORTFOLIO_NOT_FOUND"
	CodeTokenNotFound        = "TOKEN_NOT_FOUND"
	CodeHoldingNotFound      = "HOLDING_NOT_FOUND"
	CodeTransactionNotFound  = "TRANSACTION_NOT_FOUND"
	CodeAlertNotFound        = "ALERT_NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
)

// NewNotFound builds a not-found ServiceError for the given code and id
func NewNotFound(code, resource, id string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"id": id,
		},
	}
}

// NewInvalidInput builds an INVALID_INPUT ServiceError for a single field
func NewInvalidInput(field, reason string) *ServiceError {
	return &ServiceError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

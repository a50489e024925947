package models

import (
	"time"

	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// PortfolioHistoricalValue is one dated valuation of a portfolio.
// At most one row exists per (portfolio, date, timeframe).
type PortfolioHistoricalValue struct {
	ID                   string          `json:"id" db:"id"`
	PortfolioID          string          `json:"portfolioId" db:"portfolio_id"`
	UserID               string          `json:"userId" db:"user_id"`
	Date                 time.Time       `json:"date" db:"date"`
	Timeframe            types.Timeframe `json:"timeframe" db:"timeframe"`
	TotalValue           decimal.Decimal `json:"totalValue" db:"total_value"`
	TotalInvested        decimal.Decimal `json:"totalInvested" db:"total_invested"`
	ProfitLoss           decimal.Decimal `json:"profitLoss" db:"profit_loss"`
	ProfitLossPercentage decimal.Decimal `json:"profitLossPercentage" db:"profit_loss_percentage"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

// TokenHistoricalValue is one dated valuation of a holding
type TokenHistoricalValue struct {
	ID                   string          `json:"id" db:"id"`
	HoldingID            string          `json:"holdingId" db:"portfolio_token_id"`
	UserID               string          `json:"userId" db:"user_id"`
	Date                 time.Time       `json:"date" db:"date"`
	Timeframe            types.Timeframe `json:"timeframe" db:"timeframe"`
	Quantity             decimal.Decimal `json:"quantity" db:"quantity"`
	Price                decimal.Decimal `json:"price" db:"price"`
	TotalValue           decimal.Decimal `json:"totalValue" db:"total_value"`
	TotalInvested        decimal.Decimal `json:"totalInvested" db:"total_invested"`
	ProfitLoss           decimal.Decimal `json:"profitLoss" db:"profit_loss"`
	ProfitLossPercentage decimal.Decimal `json:"profitLossPercentage" db:"profit_loss_percentage"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the aggregate position of one token within one portfolio.
// Amount never goes below zero.
type Holding struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"userId" db:"user_id"`
	PortfolioID     string          `json:"portfolioId" db:"portfolio_id"`
	TokenID         string          `json:"tokenId" db:"token_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	AverageBuyPrice decimal.Decimal `json:"averageBuyPrice" db:"average_buy_price"`
	TotalInvested   decimal.Decimal `json:"totalInvested" db:"total_invested"`
	CurrentPrice    decimal.Decimal `json:"currentPrice" db:"current_price"`
	TotalValue      decimal.Decimal `json:"totalValue" db:"total_value"`
	ProfitLoss      decimal.Decimal `json:"profitLoss" db:"profit_loss"`
	BuyCount        int             `json:"buyCount" db:"buy_count"`
	SellCount       int             `json:"sellCount" db:"sell_count"`
	LastTradeDate   *time.Time      `json:"lastTradeDate,omitempty" db:"last_trade_date"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

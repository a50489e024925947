package models

import (
	"time"

	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable buy or sell recorded against a holding
type Transaction struct {
	ID              string                `json:"id" db:"id"`
	UserID          string                `json:"userId" db:"user_id"`
	PortfolioID     string                `json:"portfolioId" db:"portfolio_id"`
	HoldingID       string                `json:"holdingId" db:"portfolio_token_id"`
	Type            types.TransactionType `json:"type" db:"type"`
	Amount          decimal.Decimal       `json:"amount" db:"amount"`
	Price           decimal.Decimal       `json:"price" db:"price"`
	TotalValue      decimal.Decimal       `json:"totalValue" db:"total_value"`
	TransactionDate time.Time             `json:"transactionDate" db:"transaction_date"`
	IsManual        bool                  `json:"isManual" db:"is_manual"`
	Notes           *string               `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time             `json:"createdAt" db:"created_at"`
}

// Package models provides data models for the coin ledger.
package models

import (
	"time"

	"github.com/coin-ledger/internal/types"
)

// User represents an account that owns portfolios
type User struct {
	ID        string         `json:"id" db:"id"`
	Email     string         `json:"email" db:"email"`
	Tier      types.UserTier `json:"tier" db:"tier"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

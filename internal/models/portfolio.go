package models

import (
	"time"
)

// Portfolio groups holdings and linked wallets for one user
type Portfolio struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Wallets     []string  `json:"wallets" db:"wallets"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Token is a tradable asset, optionally backed by an on-chain contract
type Token struct {
	ID              string    `json:"id" db:"id"`
	Symbol          string    `json:"symbol" db:"symbol"`
	Name            string    `json:"name" db:"name"`
	Chain           string    `json:"chain" db:"chain"`
	ContractAddress *string   `json:"contractAddress,omitempty" db:"contract_address"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

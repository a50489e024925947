package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TokenRepository handles token persistence
type TokenRepository struct {
	db *PostgresDB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *PostgresDB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, symbol, name, chain, contract_address, created_at`

// Create inserts a token
func (r *TokenRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now().UTC()

	query := `INSERT INTO tokens (` + tokenColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		token.ID,
		token.Symbol,
		token.Name,
		token.Chain,
		token.ContractAddress,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by ID
func (r *TokenRepository) GetByID(ctx context.Context, id string) (*models.Token, error) {
	var t models.Token
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id).Scan(
		&t.ID, &t.Symbol, &t.Name, &t.Chain, &t.ContractAddress, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodeTokenNotFound, "token", id)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

// List returns all tokens ordered by chain and symbol
func (r *TokenRepository) List(ctx context.Context) ([]*models.Token, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `SELECT `+tokenColumns+` FROM tokens ORDER BY chain, symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Name, &t.Chain, &t.ContractAddress, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}
	return tokens, nil
}

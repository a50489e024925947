package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MarketDataRepository stores market data points per token
type MarketDataRepository struct {
	db *PostgresDB
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(db *PostgresDB) *MarketDataRepository {
	return &MarketDataRepository{db: db}
}

// Insert appends a market data point
func (r *MarketDataRepository) Insert(ctx context.Context, md *models.MarketData) error {
	if md.ID == "" {
		md.ID = uuid.New().String()
	}
	if md.RecordedAt.IsZero() {
		md.RecordedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO market_data (id, token_id, price, price_change_24h, volume_24h, market_cap, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.conn(ctx).Exec(ctx, query,
		md.ID,
		md.TokenID,
		md.Price,
		md.PriceChange24h,
		md.Volume24h,
		md.MarketCap,
		md.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert market data: %w", err)
	}
	return nil
}

// Latest returns the newest point for a token, or nil if none was recorded
func (r *MarketDataRepository) Latest(ctx context.Context, tokenID string) (*models.MarketData, error) {
	query := `
		SELECT id, token_id, price, price_change_24h, volume_24h, market_cap, recorded_at
		FROM market_data
		WHERE token_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var md models.MarketData
	err := r.db.conn(ctx).QueryRow(ctx, query, tokenID).Scan(
		&md.ID,
		&md.TokenID,
		&md.Price,
		&md.PriceChange24h,
		&md.Volume24h,
		&md.MarketCap,
		&md.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}
	return &md, nil
}

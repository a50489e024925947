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

// HistoricalValueRepository stores dated portfolio and holding valuations.
// Both tables hold at most one row per (owner, date, timeframe).
type HistoricalValueRepository struct {
	db *PostgresDB
}

// NewHistoricalValueRepository creates a new historical value repository
func NewHistoricalValueRepository(db *PostgresDB) *HistoricalValueRepository {
	return &HistoricalValueRepository{db: db}
}

const portfolioValueColumns = `id, portfolio_id, user_id, date, timeframe, total_value, total_invested,
	profit_loss, profit_loss_percentage, created_at, updated_at`

const tokenValueColumns = `id, portfolio_token_id, user_id, date, timeframe, quantity, price, total_value,
	total_invested, profit_loss, profit_loss_percentage, created_at, updated_at`

// UpsertPortfolioValue inserts the row for (portfolio, date, timeframe) or
// overwrites its values if it already exists. The stored id and created_at are
// written back into v.
func (r *HistoricalValueRepository) UpsertPortfolioValue(ctx context.Context, v *models.PortfolioHistoricalValue) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO portfolio_historical_values (` + portfolioValueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (portfolio_id, date, timeframe)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			total_value = EXCLUDED.total_value,
			total_invested = EXCLUDED.total_invested,
			profit_loss = EXCLUDED.profit_loss,
			profit_loss_percentage = EXCLUDED.profit_loss_percentage,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		v.ID,
		v.PortfolioID,
		v.UserID,
		v.Date,
		v.Timeframe,
		v.TotalValue,
		v.TotalInvested,
		v.ProfitLoss,
		v.ProfitLossPercentage,
		now,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio value: %w", err)
	}
	return nil
}

// UpsertTokenValue is UpsertPortfolioValue for holding-level rows
func (r *HistoricalValueRepository) UpsertTokenValue(ctx context.Context, v *models.TokenHistoricalValue) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO token_historical_values (` + tokenValueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (portfolio_token_id, date, timeframe)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			total_value = EXCLUDED.total_value,
			total_invested = EXCLUDED.total_invested,
			profit_loss = EXCLUDED.profit_loss,
			profit_loss_percentage = EXCLUDED.profit_loss_percentage,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		v.ID,
		v.HoldingID,
		v.UserID,
		v.Date,
		v.Timeframe,
		v.Quantity,
		v.Price,
		v.TotalValue,
		v.TotalInvested,
		v.ProfitLoss,
		v.ProfitLossPercentage,
		now,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert token value: %w", err)
	}
	return nil
}

// LatestPortfolioValue returns the most recent row, or nil if there is none
func (r *HistoricalValueRepository) LatestPortfolioValue(ctx context.Context, portfolioID string, tf types.Timeframe) (*models.PortfolioHistoricalValue, error) {
	query := `SELECT ` + portfolioValueColumns + ` FROM portfolio_historical_values
		WHERE portfolio_id = $1 AND timeframe = $2 ORDER BY date DESC LIMIT 1`
	return r.onePortfolioValue(ctx, query, portfolioID, tf)
}

// EarliestPortfolioValue returns the oldest row, or nil if there is none
func (r *HistoricalValueRepository) EarliestPortfolioValue(ctx context.Context, portfolioID string, tf types.Timeframe) (*models.PortfolioHistoricalValue, error) {
	query := `SELECT ` + portfolioValueColumns + ` FROM portfolio_historical_values
		WHERE portfolio_id = $1 AND timeframe = $2 ORDER BY date ASC LIMIT 1`
	return r.onePortfolioValue(ctx, query, portfolioID, tf)
}

// PortfolioValueOnOrBefore returns the row dated exactly at date, else the
// nearest earlier one, or nil if none exists
func (r *HistoricalValueRepository) PortfolioValueOnOrBefore(ctx context.Context, portfolioID string, tf types.Timeframe, date time.Time) (*models.PortfolioHistoricalValue, error) {
	query := `SELECT ` + portfolioValueColumns + ` FROM portfolio_historical_values
		WHERE portfolio_id = $1 AND timeframe = $2 AND date <= $3 ORDER BY date DESC LIMIT 1`
	return r.onePortfolioValue(ctx, query, portfolioID, tf, date)
}

// PortfolioValuesBetween returns rows with from <= date <= to, oldest first
func (r *HistoricalValueRepository) PortfolioValuesBetween(ctx context.Context, portfolioID string, tf types.Timeframe, from, to time.Time) ([]*models.PortfolioHistoricalValue, error) {
	query := `SELECT ` + portfolioValueColumns + ` FROM portfolio_historical_values
		WHERE portfolio_id = $1 AND timeframe = $2 AND date >= $3 AND date <= $4 ORDER BY date ASC`

	rows, err := r.db.conn(ctx).Query(ctx, query, portfolioID, tf, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio values: %w", err)
	}
	defer rows.Close()

	var values []*models.PortfolioHistoricalValue
	for rows.Next() {
		v, err := scanPortfolioValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio values: %w", err)
	}
	return values, nil
}

// LatestTokenValue returns the most recent holding row, or nil if there is none
func (r *HistoricalValueRepository) LatestTokenValue(ctx context.Context, holdingID string, tf types.Timeframe) (*models.TokenHistoricalValue, error) {
	query := `SELECT ` + tokenValueColumns + ` FROM token_historical_values
		WHERE portfolio_token_id = $1 AND timeframe = $2 ORDER BY date DESC LIMIT 1`
	return r.oneTokenValue(ctx, query, holdingID, tf)
}

// EarliestTokenValue returns the oldest holding row, or nil if there is none
func (r *HistoricalValueRepository) EarliestTokenValue(ctx context.Context, holdingID string, tf types.Timeframe) (*models.TokenHistoricalValue, error) {
	query := `SELECT ` + tokenValueColumns + ` FROM token_historical_values
		WHERE portfolio_token_id = $1 AND timeframe = $2 ORDER BY date ASC LIMIT 1`
	return r.oneTokenValue(ctx, query, holdingID, tf)
}

// TokenValueOnOrBefore returns the holding row at date or the nearest earlier one
func (r *HistoricalValueRepository) TokenValueOnOrBefore(ctx context.Context, holdingID string, tf types.Timeframe, date time.Time) (*models.TokenHistoricalValue, error) {
	query := `SELECT ` + tokenValueColumns + ` FROM token_historical_values
		WHERE portfolio_token_id = $1 AND timeframe = $2 AND date <= $3 ORDER BY date DESC LIMIT 1`
	return r.oneTokenValue(ctx, query, holdingID, tf, date)
}

// TokenValuesBetween returns holding rows with from <= date <= to, oldest first
func (r *HistoricalValueRepository) TokenValuesBetween(ctx context.Context, holdingID string, tf types.Timeframe, from, to time.Time) ([]*models.TokenHistoricalValue, error) {
	query := `SELECT ` + tokenValueColumns + ` FROM token_historical_values
		WHERE portfolio_token_id = $1 AND timeframe = $2 AND date >= $3 AND date <= $4 ORDER BY date ASC`

	rows, err := r.db.conn(ctx).Query(ctx, query, holdingID, tf, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query token values: %w", err)
	}
	defer rows.Close()

	var values []*models.TokenHistoricalValue
	for rows.Next() {
		v, err := scanTokenValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token values: %w", err)
	}
	return values, nil
}

// DeleteOlderThanForTier removes rows dated before cutoff that belong to
// users of the given tier. It returns the number of rows removed.
func (r *HistoricalValueRepository) DeleteOlderThanForTier(ctx context.Context, tier types.UserTier, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"portfolio_historical_values", "token_historical_values"} {
		query := fmt.Sprintf(`
			DELETE FROM %s h
			USING users u
			WHERE h.user_id = u.id AND u.tier = $1 AND h.date < $2
		`, table)

		result, err := r.db.conn(ctx).Exec(ctx, query, tier, cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		total += result.RowsAffected()
	}
	return total, nil
}

func (r *HistoricalValueRepository) onePortfolioValue(ctx context.Context, query string, args ...any) (*models.PortfolioHistoricalValue, error) {
	v, err := scanPortfolioValue(r.db.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portfolio value: %w", err)
	}
	return v, nil
}

func (r *HistoricalValueRepository) oneTokenValue(ctx context.Context, query string, args ...any) (*models.TokenHistoricalValue, error) {
	v, err := scanTokenValue(r.db.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token value: %w", err)
	}
	return v, nil
}

func scanPortfolioValue(row pgx.Row) (*models.PortfolioHistoricalValue, error) {
	var v models.PortfolioHistoricalValue
	err := row.Scan(
		&v.ID,
		&v.PortfolioID,
		&v.UserID,
		&v.Date,
		&v.Timeframe,
		&v.TotalValue,
		&v.TotalInvested,
		&v.ProfitLoss,
		&v.ProfitLossPercentage,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scanTokenValue(row pgx.Row) (*models.TokenHistoricalValue, error) {
	var v models.TokenHistoricalValue
	err := row.Scan(
		&v.ID,
		&v.HoldingID,
		&v.UserID,
		&v.Date,
		&v.Timeframe,
		&v.Quantity,
		&v.Price,
		&v.TotalValue,
		&v.TotalInvested,
		&v.ProfitLoss,
		&v.ProfitLossPercentage,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

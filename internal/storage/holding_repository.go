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

// HoldingRepository persists per-portfolio token holdings
type HoldingRepository struct {
	db *PostgresDB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *PostgresDB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

const holdingColumns = `id, user_id, portfolio_id, token_id, amount, average_buy_price, total_invested,
	current_price, total_value, profit_loss, buy_count, sell_count, last_trade_date, created_at, updated_at`

// GetOrCreate returns the holding for (portfolioID, tokenID), inserting an
// empty one if none exists. Concurrent callers converge on the same row.
func (r *HoldingRepository) GetOrCreate(ctx context.Context, userID, portfolioID, tokenID string) (*models.Holding, error) {
	now := time.Now().UTC()
	insert := `
		INSERT INTO portfolio_tokens (id, user_id, portfolio_id, token_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (portfolio_id, token_id) DO NOTHING
	`
	if _, err := r.db.conn(ctx).Exec(ctx, insert, uuid.New().String(), userID, portfolioID, tokenID, now); err != nil {
		return nil, fmt.Errorf("failed to create holding: %w", err)
	}

	query := `SELECT ` + holdingColumns + ` FROM portfolio_tokens WHERE portfolio_id = $1 AND token_id = $2`
	h, err := scanHolding(r.db.conn(ctx).QueryRow(ctx, query, portfolioID, tokenID))
	if err != nil {
		return nil, fmt.Errorf("failed to load holding: %w", err)
	}
	return h, nil
}

// GetByID retrieves a holding
func (r *HoldingRepository) GetByID(ctx context.Context, id string) (*models.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM portfolio_tokens WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate loads a holding and locks its row until the surrounding
// transaction ends. It must be called inside PostgresDB.WithTx.
func (r *HoldingRepository) GetForUpdate(ctx context.Context, id string) (*models.Holding, error) {
	if !inTx(ctx) {
		return nil, fmt.Errorf("GetForUpdate requires a transaction")
	}
	query := `SELECT ` + holdingColumns + ` FROM portfolio_tokens WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *HoldingRepository) getOne(ctx context.Context, query, id string) (*models.Holding, error) {
	h, err := scanHolding(r.db.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodeHoldingNotFound, "holding", id)
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// Update persists the aggregate fields of a holding
func (r *HoldingRepository) Update(ctx context.Context, h *models.Holding) error {
	h.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE portfolio_tokens SET
			amount = $1,
			average_buy_price = $2,
			total_invested = $3,
			current_price = $4,
			total_value = $5,
			profit_loss = $6,
			buy_count = $7,
			sell_count = $8,
			last_trade_date = $9,
			updated_at = $10
		WHERE id = $11
	`

	result, err := r.db.conn(ctx).Exec(ctx, query,
		h.Amount,
		h.AverageBuyPrice,
		h.TotalInvested,
		h.CurrentPrice,
		h.TotalValue,
		h.ProfitLoss,
		h.BuyCount,
		h.SellCount,
		h.LastTradeDate,
		h.UpdatedAt,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodeHoldingNotFound, "holding", h.ID)
	}
	return nil
}

// ListByPortfolio returns the holdings of one portfolio
func (r *HoldingRepository) ListByPortfolio(ctx context.Context, portfolioID string) ([]*models.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM portfolio_tokens WHERE portfolio_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.conn(ctx).Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

func scanHolding(row pgx.Row) (*models.Holding, error) {
	var h models.Holding
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.PortfolioID,
		&h.TokenID,
		&h.Amount,
		&h.AverageBuyPrice,
		&h.TotalInvested,
		&h.CurrentPrice,
		&h.TotalValue,
		&h.ProfitLoss,
		&h.BuyCount,
		&h.SellCount,
		&h.LastTradeDate,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

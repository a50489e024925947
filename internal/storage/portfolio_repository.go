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

// PortfolioRepository handles portfolio data persistence
type PortfolioRepository struct {
	db *PostgresDB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *PostgresDB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

const portfolioColumns = `id, user_id, name, description, wallets, created_at, updated_at`

// Create creates a new portfolio
func (r *PortfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	if portfolio.ID == "" {
		portfolio.ID = uuid.New().String()
	}
	if portfolio.Wallets == nil {
		portfolio.Wallets = []string{}
	}

	now := time.Now().UTC()
	portfolio.CreatedAt = now
	portfolio.UpdatedAt = now

	query := `
		INSERT INTO portfolios (` + portfolioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		portfolio.ID,
		portfolio.UserID,
		portfolio.Name,
		portfolio.Description,
		portfolio.Wallets,
		portfolio.CreatedAt,
		portfolio.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	return nil
}

// GetByID retrieves a portfolio by ID
func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1`

	portfolio, err := scanPortfolio(r.db.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodePortfolioNotFound, "portfolio", id)
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return portfolio, nil
}

// GetByIDAndUser retrieves a portfolio by ID and verifies ownership.
// A portfolio owned by someone else reads as not found.
func (r *PortfolioRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1 AND user_id = $2`

	portfolio, err := scanPortfolio(r.db.conn(ctx).QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodePortfolioNotFound, "portfolio", id)
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return portfolio, nil
}

// Update updates name, description and wallets
func (r *PortfolioRepository) Update(ctx context.Context, portfolio *models.Portfolio) error {
	if portfolio.Wallets == nil {
		portfolio.Wallets = []string{}
	}
	portfolio.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE portfolios
		SET name = $1, description = $2, wallets = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`

	result, err := r.db.conn(ctx).Exec(ctx, query,
		portfolio.Name,
		portfolio.Description,
		portfolio.Wallets,
		portfolio.UpdatedAt,
		portfolio.ID,
		portfolio.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodePortfolioNotFound, "portfolio", portfolio.ID)
	}

	return nil
}

// DeleteByIDAndUser deletes a portfolio owned by userID
func (r *PortfolioRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	result, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM portfolios WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodePortfolioNotFound, "portfolio", id)
	}
	return nil
}

// ListByUser retrieves all portfolios for a user
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListAll retrieves every portfolio, oldest first
func (r *PortfolioRepository) ListAll(ctx context.Context) ([]*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios ORDER BY created_at ASC`
	return r.list(ctx, query)
}

func (r *PortfolioRepository) list(ctx context.Context, query string, args ...any) ([]*models.Portfolio, error) {
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*models.Portfolio
	for rows.Next() {
		portfolio, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, portfolio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

func scanPortfolio(row pgx.Row) (*models.Portfolio, error) {
	var p models.Portfolio
	var wallets []string
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &wallets, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = []string{}
	}
	p.Wallets = wallets
	return &p, nil
}

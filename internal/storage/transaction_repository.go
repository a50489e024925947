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

// TransactionRepository handles ledger transaction persistence
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, portfolio_id, portfolio_token_id, type, amount, price, total_value,
	transaction_date, is_manual, notes, created_at`

// Create inserts a transaction row
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.PortfolioID,
		tx.HoldingID,
		tx.Type,
		tx.Amount,
		tx.Price,
		tx.TotalValue,
		tx.TransactionDate,
		tx.IsManual,
		tx.Notes,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetByIDAndUser retrieves a transaction owned by userID
func (r *TransactionRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`

	tx, err := scanTransaction(r.db.conn(ctx).QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodeTransactionNotFound, "transaction", id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// Delete removes a transaction row
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodeTransactionNotFound, "transaction", id)
	}
	return nil
}

// ListByHolding returns a holding's transactions in replay order
func (r *TransactionRepository) ListByHolding(ctx context.Context, holdingID string) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE portfolio_token_id = $1
		ORDER BY transaction_date ASC, created_at ASC
	`

	rows, err := r.db.conn(ctx).Query(ctx, query, holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.PortfolioID,
		&tx.HoldingID,
		&tx.Type,
		&tx.Amount,
		&tx.Price,
		&tx.TotalValue,
		&tx.TransactionDate,
		&tx.IsManual,
		&tx.Notes,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

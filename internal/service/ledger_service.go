package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/coin-ledger/internal/errors"
	"github.com/coin-ledger/internal/ledger"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// LedgerService records and removes buy/sell transactions and keeps the
// holding aggregates consistent with them
type LedgerService struct {
	txm           TxManager
	holdingRepo   HoldingRepository
	txRepo        TransactionRepository
	portfolioRepo PortfolioRepository
	tokenRepo     TokenRepository
	cache         PerformanceCache
	now           func() time.Time
}

// NewLedgerService creates a new ledger service. cache may be nil.
func NewLedgerService(
	txm TxManager,
	holdingRepo HoldingRepository,
	txRepo TransactionRepository,
	portfolioRepo PortfolioRepository,
	tokenRepo TokenRepository,
	cache PerformanceCache,
) *LedgerService {
	return &LedgerService{
		txm:           txm,
		holdingRepo:   holdingRepo,
		txRepo:        txRepo,
		portfolioRepo: portfolioRepo,
		tokenRepo:     tokenRepo,
		cache:         cache,
		now:           time.Now,
	}
}

// CreateTransactionInput represents a manual buy or sell
type CreateTransactionInput struct {
	UserID          string                `json:"userId"`
	PortfolioID     string                `json:"portfolioId"`
	TokenID         string                `json:"tokenId"`
	Type            types.TransactionType `json:"type"`
	Amount          decimal.Decimal       `json:"amount"`
	Price           decimal.Decimal       `json:"price"`
	TransactionDate *time.Time            `json:"transactionDate,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
}

// TransactionResult is a stored transaction with the holding it updated
type TransactionResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Holding     *models.Holding     `json:"holding"`
}

func (in *CreateTransactionInput) validate() error {
	if !in.Type.Valid() {
		return types.NewInvalidInput("type", "must be buy or sell")
	}
	if !in.Amount.IsPositive() {
		return types.NewInvalidInput("amount", "must be greater than zero")
	}
	if !in.Price.IsPositive() {
		return types.NewInvalidInput("price", "must be greater than zero")
	}
	if strings.TrimSpace(in.TokenID) == "" {
		return types.NewInvalidInput("tokenId", "is required")
	}
	return nil
}

// CreateTransaction stores a transaction and folds it into its holding in one
// database transaction. The holding row is locked for the duration so
// concurrent writers to the same holding apply one after the other.
func (s *LedgerService) CreateTransaction(ctx context.Context, input *CreateTransactionInput) (*TransactionResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.portfolioRepo.GetByIDAndUser(ctx, input.PortfolioID, input.UserID); err != nil {
		return nil, err
	}
	if _, err := s.tokenRepo.GetByID(ctx, input.TokenID); err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if input.TransactionDate != nil {
		date = input.TransactionDate.UTC()
	}

	var result TransactionResult
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		h, err := s.holdingRepo.GetOrCreate(ctx, input.UserID, input.PortfolioID, input.TokenID)
		if err != nil {
			return err
		}
		h, err = s.holdingRepo.GetForUpdate(ctx, h.ID)
		if err != nil {
			return err
		}

		tx := &models.Transaction{
			UserID:          input.UserID,
			PortfolioID:     input.PortfolioID,
			HoldingID:       h.ID,
			Type:            input.Type,
			Amount:          input.Amount,
			Price:           input.Price,
			TotalValue:      input.Amount.Mul(input.Price),
			TransactionDate: date,
			IsManual:        true,
			Notes:           input.Notes,
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return err
		}

		ledger.ApplyTrade(h, ledger.TradeFromTransaction(tx))
		if err := s.holdingRepo.Update(ctx, h); err != nil {
			return err
		}

		result = TransactionResult{Transaction: tx, Holding: h}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"transaction_id": result.Transaction.ID,
		"holding_id":     result.Holding.ID,
		"type":           result.Transaction.Type,
	}).Info("transaction recorded")

	invalidatePerformance(ctx, s.cache, input.PortfolioID, result.Holding.ID)
	return &result, nil
}

// DeleteTransaction removes a transaction and rebuilds its holding by
// replaying every remaining transaction from scratch. If the holding no
// longer exists the deletion still commits. The returned holding is nil in
// that case.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) (*models.Holding, error) {
	var (
		holding     *models.Holding
		portfolioID string
	)

	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		tx, err := s.txRepo.GetByIDAndUser(ctx, transactionID, userID)
		if err != nil {
			return err
		}
		portfolioID = tx.PortfolioID

		if err := s.txRepo.Delete(ctx, tx.ID); err != nil {
			return err
		}

		h, err := s.holdingRepo.GetForUpdate(ctx, tx.HoldingID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil
			}
			return err
		}

		remaining, err := s.txRepo.ListByHolding(ctx, h.ID)
		if err != nil {
			return err
		}

		ledger.Replay(h, remaining)
		if err := s.holdingRepo.Update(ctx, h); err != nil {
			return err
		}
		holding = h
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}

	holdingID := ""
	if holding != nil {
		holdingID = holding.ID
	}
	invalidatePerformance(ctx, s.cache, portfolioID, holdingID)
	return holding, nil
}

// GetTransaction returns a transaction owned by userID
func (s *LedgerService) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	return s.txRepo.GetByIDAndUser(ctx, transactionID, userID)
}

// ListTransactions returns a holding's transactions in replay order
func (s *LedgerService) ListTransactions(ctx context.Context, userID, holdingID string) ([]*models.Transaction, error) {
	h, err := s.holdingRepo.GetByID(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if h.UserID != userID {
		return nil, types.NewNotFound(types.CodeHoldingNotFound, "holding", holdingID)
	}

	txs, err := s.txRepo.ListByHolding(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	return txs, nil
}

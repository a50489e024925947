package service

import (
	"context"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
)

// Repository interfaces for dependency injection

// TxManager runs fn inside one database transaction. Repositories called with
// the context passed to fn take part in that transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// PortfolioRepository interface for portfolio data operations
type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *models.Portfolio) error
	GetByID(ctx context.Context, id string) (*models.Portfolio, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Portfolio, error)
	Update(ctx context.Context, portfolio *models.Portfolio) error
	DeleteByIDAndUser(ctx context.Context, id, userID string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Portfolio, error)
	ListAll(ctx context.Context) ([]*models.Portfolio, error)
}

// TokenRepository interface for token data operations
type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	GetByID(ctx context.Context, id string) (*models.Token, error)
	List(ctx context.Context) ([]*models.Token, error)
}

// HoldingRepository interface for holding data operations
type HoldingRepository interface {
	GetOrCreate(ctx context.Context, userID, portfolioID, tokenID string) (*models.Holding, error)
	GetByID(ctx context.Context, id string) (*models.Holding, error)
	GetForUpdate(ctx context.Context, id string) (*models.Holding, error)
	Update(ctx context.Context, h *models.Holding) error
	ListByPortfolio(ctx context.Context, portfolioID string) ([]*models.Holding, error)
}

// TransactionRepository interface for ledger transaction operations
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
	ListByHolding(ctx context.Context, holdingID string) ([]*models.Transaction, error)
}

// HistoricalValueRepository interface for snapshot storage.
// Single-row lookups return nil, nil when nothing matches.
type HistoricalValueRepository interface {
	UpsertPortfolioValue(ctx context.Context, v *models.PortfolioHistoricalValue) error
	LatestPortfolioValue(ctx context.Context, portfolioID string, tf types.Timeframe) (*models.PortfolioHistoricalValue, error)
	EarliestPortfolioValue(ctx context.Context, portfolioID string, tf types.Timeframe) (*models.PortfolioHistoricalValue, error)
	PortfolioValueOnOrBefore(ctx context.Context, portfolioID string, tf types.Timeframe, date time.Time) (*models.PortfolioHistoricalValue, error)
	PortfolioValuesBetween(ctx context.Context, portfolioID string, tf types.Timeframe, from, to time.Time) ([]*models.PortfolioHistoricalValue, error)

	UpsertTokenValue(ctx context.Context, v *models.TokenHistoricalValue) error
	LatestTokenValue(ctx context.Context, holdingID string, tf types.Timeframe) (*models.TokenHistoricalValue, error)
	EarliestTokenValue(ctx context.Context, holdingID string, tf types.Timeframe) (*models.TokenHistoricalValue, error)
	TokenValueOnOrBefore(ctx context.Context, holdingID string, tf types.Timeframe, date time.Time) (*models.TokenHistoricalValue, error)
	TokenValuesBetween(ctx context.Context, holdingID string, tf types.Timeframe, from, to time.Time) ([]*models.TokenHistoricalValue, error)

	DeleteOlderThanForTier(ctx context.Context, tier types.UserTier, cutoff time.Time) (int64, error)
}

// AlertRepository interface for alert data operations
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Alert, error)
	ListPending(ctx context.Context) ([]*models.Alert, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id, userID string, status types.AlertStatus) error
	DeleteByIDAndUser(ctx context.Context, id, userID string) error
}

// MarketDataRepository interface for market data operations.
// Latest returns nil, nil when the token has no data.
type MarketDataRepository interface {
	Insert(ctx context.Context, md *models.MarketData) error
	Latest(ctx context.Context, tokenID string) (*models.MarketData, error)
}

// PerformanceCache caches computed performance results
type PerformanceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	InvalidatePortfolio(ctx context.Context, portfolioID string) error
	InvalidateHolding(ctx context.Context, holdingID string) error
}

// AlertPublisher delivers triggered alert notifications
type AlertPublisher interface {
	PublishAlert(ctx context.Context, n *models.AlertNotification) error
}

package service

import (
	"context"
	"fmt"

	"github.com/coin-ledger/internal/ledger"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// HoldingService reads holdings and keeps their market valuation current
type HoldingService struct {
	txm           TxManager
	holdingRepo   HoldingRepository
	portfolioRepo PortfolioRepository
	marketRepo    MarketDataRepository
	cache         PerformanceCache
}

// NewHoldingService creates a new holding service. cache may be nil.
func NewHoldingService(
	txm TxManager,
	holdingRepo HoldingRepository,
	portfolioRepo PortfolioRepository,
	marketRepo MarketDataRepository,
	cache PerformanceCache,
) *HoldingService {
	return &HoldingService{
		txm:           txm,
		holdingRepo:   holdingRepo,
		portfolioRepo: portfolioRepo,
		marketRepo:    marketRepo,
		cache:         cache,
	}
}

// GetOrCreate returns the holding of tokenID in portfolioID, creating an empty
// one when the portfolio has never held the token
func (s *HoldingService) GetOrCreate(ctx context.Context, userID, portfolioID, tokenID string) (*models.Holding, error) {
	return s.holdingRepo.GetOrCreate(ctx, userID, portfolioID, tokenID)
}

// Get returns a holding owned by userID
func (s *HoldingService) Get(ctx context.Context, holdingID, userID string) (*models.Holding, error) {
	h, err := s.holdingRepo.GetByID(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if h.UserID != userID {
		return nil, types.NewNotFound(types.CodeHoldingNotFound, "holding", holdingID)
	}
	return h, nil
}

// ListByPortfolio returns the holdings of a portfolio owned by userID
func (s *HoldingService) ListByPortfolio(ctx context.Context, portfolioID, userID string) ([]*models.Holding, error) {
	if _, err := s.portfolioRepo.GetByIDAndUser(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	holdings, err := s.holdingRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []*models.Holding{}
	}
	return holdings, nil
}

// UpdatePrice revalues a holding at currentPrice. Amount and average buy
// price are left as they are.
func (s *HoldingService) UpdatePrice(ctx context.Context, holdingID string, currentPrice decimal.Decimal) (*models.Holding, error) {
	if currentPrice.IsNegative() {
		return nil, types.NewInvalidInput("currentPrice", "must not be negative")
	}

	h, err := s.revalue(ctx, holdingID, currentPrice)
	if err != nil {
		return nil, err
	}

	invalidatePerformance(ctx, s.cache, h.PortfolioID, h.ID)
	return h, nil
}

// revalue reprices the locked row so trades committed since the caller last
// read the holding are kept
func (s *HoldingService) revalue(ctx context.Context, holdingID string, price decimal.Decimal) (*models.Holding, error) {
	var h *models.Holding
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		h, err = s.holdingRepo.GetForUpdate(ctx, holdingID)
		if err != nil {
			return err
		}
		ledger.Revalue(h, price)
		if err := s.holdingRepo.Update(ctx, h); err != nil {
			return fmt.Errorf("failed to update holding price: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// RefreshPrices revalues every holding of a portfolio at the latest market
// price of its token. Holdings without market data keep their price.
func (s *HoldingService) RefreshPrices(ctx context.Context, portfolioID string) ([]*models.Holding, error) {
	holdings, err := s.holdingRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.MarketData)
	for i, h := range holdings {
		md, seen := latest[h.TokenID]
		if !seen {
			md, err = s.marketRepo.Latest(ctx, h.TokenID)
			if err != nil {
				return nil, fmt.Errorf("failed to load market data for token %s: %w", h.TokenID, err)
			}
			latest[h.TokenID] = md
		}
		if md == nil {
			logging.FromContext(ctx).WithFields(map[string]interface{}{
				"holding_id": h.ID,
				"token_id":   h.TokenID,
			}).Debug("no market data, price left unchanged")
			continue
		}

		fresh, err := s.revalue(ctx, h.ID, md.Price)
		if err != nil {
			return nil, fmt.Errorf("failed to update holding %s: %w", h.ID, err)
		}
		holdings[i] = fresh
		invalidatePerformance(ctx, s.cache, "", h.ID)
	}

	invalidatePerformance(ctx, s.cache, portfolioID, "")
	if holdings == nil {
		holdings = []*models.Holding{}
	}
	return holdings, nil
}

// RefreshSummary reports the outcome of a RefreshAll run
type RefreshSummary struct {
	Portfolios int `json:"portfolios"`
	Holdings   int `json:"holdings"`
	Failed     int `json:"failed"`
}

// RefreshAll revalues the holdings of every portfolio at the latest market
// price. A failing portfolio is logged and counted.
func (s *HoldingService) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	portfolios, err := s.portfolioRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	summary := &RefreshSummary{Portfolios: len(portfolios)}
	for _, p := range portfolios {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		holdings, err := s.RefreshPrices(ctx, p.ID)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithField("portfolio_id", p.ID).Error("price refresh failed")
			summary.Failed++
			continue
		}
		summary.Holdings += len(holdings)
	}
	return summary, nil
}

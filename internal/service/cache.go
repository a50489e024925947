package service

import (
	"context"

	"github.com/coin-ledger/internal/logging"
)

// invalidatePerformance drops cached performance for a portfolio and one of
// its holdings. Cache failures never fail the write that caused them.
func invalidatePerformance(ctx context.Context, cache PerformanceCache, portfolioID, holdingID string) {
	if cache == nil {
		return
	}
	if portfolioID != "" {
		if err := cache.InvalidatePortfolio(ctx, portfolioID); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("portfolio_id", portfolioID).Warn("failed to invalidate performance cache")
		}
	}
	if holdingID != "" {
		if err := cache.InvalidateHolding(ctx, holdingID); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("holding_id", holdingID).Warn("failed to invalidate performance cache")
		}
	}
}

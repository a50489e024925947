package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coin-ledger/internal/ledger"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/storage"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// defaultHistoryWindow is used when a history query has no start date
const defaultHistoryWindow = 30 * 24 * time.Hour

// SnapshotService records dated portfolio and holding valuations and derives
// performance over a period from them
type SnapshotService struct {
	historyRepo       HistoricalValueRepository
	portfolioRepo     PortfolioRepository
	holdingSvc        *HoldingService
	cache             PerformanceCache
	freeRetentionDays int
	now               func() time.Time

	// concurrent misses on the same cache key share one computation
	flight singleflight.Group
}

// NewSnapshotService creates a new snapshot service. cache may be nil.
// freeRetentionDays <= 0 disables pruning.
func NewSnapshotService(
	historyRepo HistoricalValueRepository,
	portfolioRepo PortfolioRepository,
	holdingSvc *HoldingService,
	cache PerformanceCache,
	freeRetentionDays int,
) *SnapshotService {
	return &SnapshotService{
		historyRepo:       historyRepo,
		portfolioRepo:     portfolioRepo,
		holdingSvc:        holdingSvc,
		cache:             cache,
		freeRetentionDays: freeRetentionDays,
		now:               time.Now,
	}
}

// PortfolioPerformance is the change of a portfolio's value over a period
type PortfolioPerformance struct {
	PortfolioID string       `json:"portfolioId"`
	Period      types.Period `json:"period"`
	ledger.Performance
	Historical []*models.PortfolioHistoricalValue `json:"historical"`
}

// TokenPerformance is the change of a holding's value and price over a period
type TokenPerformance struct {
	HoldingID string       `json:"holdingId"`
	Period    types.Period `json:"period"`
	ledger.Performance
	Historical []*models.TokenHistoricalValue `json:"historical"`
}

// CaptureSummary reports the outcome of a CaptureAll run
type CaptureSummary struct {
	Portfolios int `json:"portfolios"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
}

func resolveTimeframe(tf types.Timeframe) (types.Timeframe, error) {
	if tf == "" {
		return types.TimeframeDaily, nil
	}
	if !tf.Valid() {
		return "", types.NewInvalidInput("timeframe", "must be daily, weekly or monthly")
	}
	return tf, nil
}

// RecordTodayValue stores today's valuation of a portfolio. Repeated calls on
// the same UTC day overwrite the same row. timeframe defaults to daily.
func (s *SnapshotService) RecordTodayValue(
	ctx context.Context,
	portfolioID, userID string,
	totalValue, totalInvested decimal.Decimal,
	timeframe types.Timeframe,
) (*models.PortfolioHistoricalValue, error) {
	tf, err := resolveTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	pl, pct := ledger.ProfitLoss(totalValue, totalInvested)
	v := &models.PortfolioHistoricalValue{
		PortfolioID:          portfolioID,
		UserID:               userID,
		Date:                 types.StartOfDay(s.now()),
		Timeframe:            tf,
		TotalValue:           totalValue,
		TotalInvested:        totalInvested,
		ProfitLoss:           pl,
		ProfitLossPercentage: pct,
	}
	if err := s.historyRepo.UpsertPortfolioValue(ctx, v); err != nil {
		return nil, err
	}

	invalidatePerformance(ctx, s.cache, portfolioID, "")
	return v, nil
}

// RecordTokenTodayValue stores today's valuation of a holding, including the
// quantity and price at the time of the snapshot
func (s *SnapshotService) RecordTokenTodayValue(
	ctx context.Context,
	holdingID, userID string,
	quantity, price, totalValue, totalInvested decimal.Decimal,
	timeframe types.Timeframe,
) (*models.TokenHistoricalValue, error) {
	tf, err := resolveTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	pl, pct := ledger.ProfitLoss(totalValue, totalInvested)
	v := &models.TokenHistoricalValue{
		HoldingID:            holdingID,
		UserID:               userID,
		Date:                 types.StartOfDay(s.now()),
		Timeframe:            tf,
		Quantity:             quantity,
		Price:                price,
		TotalValue:           totalValue,
		TotalInvested:        totalInvested,
		ProfitLoss:           pl,
		ProfitLossPercentage: pct,
	}
	if err := s.historyRepo.UpsertTokenValue(ctx, v); err != nil {
		return nil, err
	}

	invalidatePerformance(ctx, s.cache, "", holdingID)
	return v, nil
}

// periodStart resolves the requested start date of a window. ok is false when
// there is no history to anchor an ALL window.
func (s *SnapshotService) periodStart(period types.Period, earliest func() (time.Time, bool, error)) (time.Time, bool, error) {
	if period == types.PeriodAll {
		return earliest()
	}
	return types.StartOfDay(period.StartFrom(s.now().UTC())), true, nil
}

// CalculatePerformance compares the latest portfolio snapshot with the one at
// the start of period, or the nearest one before it. It returns nil when the
// history does not reach back far enough.
func (s *SnapshotService) CalculatePerformance(ctx context.Context, portfolioID string, period types.Period) (*PortfolioPerformance, error) {
	key := storage.PerformanceKey(portfolioID, period)
	var cached PortfolioPerformance
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computePerformance(ctx, key, portfolioID, period)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PortfolioPerformance), nil
}

// shared runs fn once for all concurrent callers of key. fn does not see the
// cancellation of whichever caller started it; each caller stops waiting when
// its own context ends.
func (s *SnapshotService) shared(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SnapshotService) computePerformance(ctx context.Context, key, portfolioID string, period types.Period) (*PortfolioPerformance, error) {
	tf := types.TimeframeDaily
	end, err := s.historyRepo.LatestPortfolioValue(ctx, portfolioID, tf)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if end == nil {
		return nil, nil
	}

	startDate, ok, err := s.periodStart(period, func() (time.Time, bool, error) {
		first, err := s.historyRepo.EarliestPortfolioValue(ctx, portfolioID, tf)
		if err != nil || first == nil {
			return time.Time{}, false, err
		}
		return first.Date, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve period start: %w", err)
	}
	if !ok {
		return nil, nil
	}

	start, err := s.historyRepo.PortfolioValueOnOrBefore(ctx, portfolioID, tf, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load start snapshot: %w", err)
	}
	if start == nil {
		return nil, nil
	}

	historical, err := s.historyRepo.PortfolioValuesBetween(ctx, portfolioID, tf, start.Date, end.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if historical == nil {
		historical = []*models.PortfolioHistoricalValue{}
	}

	perf := &PortfolioPerformance{
		PortfolioID: portfolioID,
		Period:      period,
		Performance: ledger.Compare(
			ledger.Point{Date: start.Date, Value: start.TotalValue},
			ledger.Point{Date: end.Date, Value: end.TotalValue},
			false,
		),
		Historical: historical,
	}
	s.cacheSet(ctx, key, perf)
	return perf, nil
}

// CalculateTokenPerformance is CalculatePerformance for one holding. It also
// reports the price change between the two boundary snapshots.
func (s *SnapshotService) CalculateTokenPerformance(ctx context.Context, holdingID string, period types.Period) (*TokenPerformance, error) {
	key := storage.TokenPerformanceKey(holdingID, period)
	var cached TokenPerformance
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeTokenPerformance(ctx, key, holdingID, period)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TokenPerformance), nil
}

func (s *SnapshotService) computeTokenPerformance(ctx context.Context, key, holdingID string, period types.Period) (*TokenPerformance, error) {
	tf := types.TimeframeDaily
	end, err := s.historyRepo.LatestTokenValue(ctx, holdingID, tf)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if end == nil {
		return nil, nil
	}

	startDate, ok, err := s.periodStart(period, func() (time.Time, bool, error) {
		first, err := s.historyRepo.EarliestTokenValue(ctx, holdingID, tf)
		if err != nil || first == nil {
			return time.Time{}, false, err
		}
		return first.Date, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve period start: %w", err)
	}
	if !ok {
		return nil, nil
	}

	start, err := s.historyRepo.TokenValueOnOrBefore(ctx, holdingID, tf, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load start snapshot: %w", err)
	}
	if start == nil {
		return nil, nil
	}

	historical, err := s.historyRepo.TokenValuesBetween(ctx, holdingID, tf, start.Date, end.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if historical == nil {
		historical = []*models.TokenHistoricalValue{}
	}

	perf := &TokenPerformance{
		HoldingID: holdingID,
		Period:    period,
		Performance: ledger.Compare(
			ledger.Point{Date: start.Date, Value: start.TotalValue, Price: start.Price},
			ledger.Point{Date: end.Date, Value: end.TotalValue, Price: end.Price},
			true,
		),
		Historical: historical,
	}
	s.cacheSet(ctx, key, perf)
	return perf, nil
}

// GetHistory returns a portfolio's snapshots between from and to, oldest
// first. A zero to means today and a zero from means 30 days before to.
func (s *SnapshotService) GetHistory(
	ctx context.Context,
	portfolioID, userID string,
	from, to time.Time,
	timeframe types.Timeframe,
) ([]*models.PortfolioHistoricalValue, error) {
	tf, err := resolveTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	if _, err := s.portfolioRepo.GetByIDAndUser(ctx, portfolioID, userID); err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = s.now()
	}
	to = types.StartOfDay(to)
	if from.IsZero() {
		from = to.Add(-defaultHistoryWindow)
	}
	from = types.StartOfDay(from)
	if from.After(to) {
		return nil, types.NewInvalidInput("dateFrom", "must not be after dateTo")
	}

	values, err := s.historyRepo.PortfolioValuesBetween(ctx, portfolioID, tf, from, to)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []*models.PortfolioHistoricalValue{}
	}
	return values, nil
}

// CapturePortfolio refreshes a portfolio's holding prices, then records a
// daily snapshot for each holding and for the portfolio as a whole
func (s *SnapshotService) CapturePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	holdings, err := s.holdingSvc.RefreshPrices(ctx, portfolio.ID)
	if err != nil {
		return fmt.Errorf("failed to refresh prices: %w", err)
	}

	totalValue := decimal.Zero
	totalInvested := decimal.Zero
	for _, h := range holdings {
		if _, err := s.RecordTokenTodayValue(ctx, h.ID, h.UserID, h.Amount, h.CurrentPrice, h.TotalValue, h.TotalInvested, types.TimeframeDaily); err != nil {
			return fmt.Errorf("failed to record holding %s: %w", h.ID, err)
		}
		totalValue = totalValue.Add(h.TotalValue)
		totalInvested = totalInvested.Add(h.TotalInvested)
	}

	if _, err := s.RecordTodayValue(ctx, portfolio.ID, portfolio.UserID, totalValue, totalInvested, types.TimeframeDaily); err != nil {
		return fmt.Errorf("failed to record portfolio: %w", err)
	}
	return nil
}

// CaptureAll snapshots every portfolio. A failing portfolio is logged and
// counted and does not stop the run.
func (s *SnapshotService) CaptureAll(ctx context.Context) (*CaptureSummary, error) {
	log := logging.FromContext(ctx)

	portfolios, err := s.portfolioRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	summary := &CaptureSummary{Portfolios: len(portfolios)}
	for _, p := range portfolios {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.CapturePortfolio(ctx, p); err != nil {
			log.WithError(err).WithField("portfolio_id", p.ID).Error("snapshot capture failed")
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}

	log.WithFields(map[string]interface{}{
		"portfolios": summary.Portfolios,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
	}).Info("snapshot capture complete")
	return summary, nil
}

// ApplyRetentionPolicy deletes free-tier snapshots older than the retention
// window. Paid-tier history is kept indefinitely.
func (s *SnapshotService) ApplyRetentionPolicy(ctx context.Context) (int64, error) {
	if s.freeRetentionDays <= 0 {
		return 0, nil
	}
	cutoff := types.StartOfDay(s.now()).AddDate(0, 0, -s.freeRetentionDays)

	deleted, err := s.historyRepo.DeleteOlderThanForTier(ctx, types.TierFree, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("failed to apply retention policy: %w", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"cutoff":  cutoff.Format("2006-01-02"),
		"deleted": deleted,
	}).Info("retention policy applied")
	return deleted, nil
}

func (s *SnapshotService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).Warn("performance cache read failed")
		return false
	}
	return found
}

func (s *SnapshotService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).Warn("performance cache write failed")
	}
}

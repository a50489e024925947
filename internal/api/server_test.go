package api

import (
	"context"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/realtime"
	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Mock services for testing. Unset funcs return canned values.

type mockPortfolioService struct {
	getFunc    func(ctx context.Context, portfolioID, userID string) (*models.Portfolio, error)
	createFunc func(ctx context.Context, input *service.CreatePortfolioInput) (*models.Portfolio, error)
	deleteFunc func(ctx context.Context, portfolioID, userID string) error
}

func (m *mockPortfolioService) CreateUser(ctx context.Context, input *service.CreateUserInput) (*models.User, error) {
	return &models.User{ID: "user-123", Email: input.Email, Tier: types.TierFree}, nil
}

func (m *mockPortfolioService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, Email: "user@example.com", Tier: types.TierFree}, nil
}

func (m *mockPortfolioService) CreatePortfolio(ctx context.Context, input *service.CreatePortfolioInput) (*models.Portfolio, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return &models.Portfolio{ID: "portfolio-123", UserID: input.UserID, Name: input.Name, Wallets: input.Wallets}, nil
}

func (m *mockPortfolioService) GetPortfolio(ctx context.Context, portfolioID, userID string) (*models.Portfolio, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, portfolioID, userID)
	}
	return &models.Portfolio{ID: portfolioID, UserID: userID, Name: "main"}, nil
}

func (m *mockPortfolioService) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	return []*models.Portfolio{}, nil
}

func (m *mockPortfolioService) UpdatePortfolio(ctx context.Context, input *service.UpdatePortfolioInput) (*models.Portfolio, error) {
	return &models.Portfolio{ID: input.PortfolioID, UserID: input.UserID, Name: *input.Name}, nil
}

func (m *mockPortfolioService) DeletePortfolio(ctx context.Context, portfolioID, userID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, portfolioID, userID)
	}
	return nil
}

type mockMarketService struct {
	recorded *service.RecordMarketDataInput
}

func (m *mockMarketService) CreateToken(ctx context.Context, input *service.CreateTokenInput) (*models.Token, error) {
	return &models.Token{ID: "token-1", Symbol: input.Symbol, Name: input.Name, Chain: input.Chain}, nil
}

func (m *mockMarketService) GetToken(ctx context.Context, tokenID string) (*models.Token, error) {
	return nil, types.NewNotFound(types.CodeTokenNotFound, "token", tokenID)
}

func (m *mockMarketService) ListTokens(ctx context.Context) ([]*models.Token, error) {
	return []*models.Token{{ID: "token-1", Symbol: "ETH"}}, nil
}

func (m *mockMarketService) RecordMarketData(ctx context.Context, input *service.RecordMarketDataInput) (*models.MarketData, error) {
	m.recorded = input
	return &models.MarketData{ID: "md-1", TokenID: input.TokenID, Price: input.Price}, nil
}

type mockHoldingService struct {
	getFunc      func(ctx context.Context, holdingID, userID string) (*models.Holding, error)
	updatedPrice *decimal.Decimal
	refreshed    string
}

func (m *mockHoldingService) Get(ctx context.Context, holdingID, userID string) (*models.Holding, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, holdingID, userID)
	}
	return &models.Holding{ID: holdingID, UserID: userID}, nil
}

func (m *mockHoldingService) ListByPortfolio(ctx context.Context, portfolioID, userID string) ([]*models.Holding, error) {
	return []*models.Holding{{ID: "holding-1", PortfolioID: portfolioID}}, nil
}

func (m *mockHoldingService) UpdatePrice(ctx context.Context, holdingID string, currentPrice decimal.Decimal) (*models.Holding, error) {
	m.updatedPrice = &currentPrice
	return &models.Holding{ID: holdingID, CurrentPrice: currentPrice}, nil
}

func (m *mockHoldingService) RefreshPrices(ctx context.Context, portfolioID string) ([]*models.Holding, error) {
	m.refreshed = portfolioID
	return []*models.Holding{}, nil
}

type mockLedgerService struct {
	createFunc func(ctx context.Context, input *service.CreateTransactionInput) (*service.TransactionResult, error)
	deleteFunc func(ctx context.Context, userID, transactionID string) (*models.Holding, error)
}

func (m *mockLedgerService) CreateTransaction(ctx context.Context, input *service.CreateTransactionInput) (*service.TransactionResult, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return &service.TransactionResult{
		Transaction: &models.Transaction{ID: "tx-1", PortfolioID: input.PortfolioID, Type: input.Type, Amount: input.Amount, Price: input.Price},
		Holding:     &models.Holding{ID: "holding-1", Amount: input.Amount},
	}, nil
}

func (m *mockLedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) (*models.Holding, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, transactionID)
	}
	return &models.Holding{ID: "holding-1", Amount: decimal.NewFromInt(10)}, nil
}

func (m *mockLedgerService) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	return &models.Transaction{ID: transactionID, UserID: userID}, nil
}

func (m *mockLedgerService) ListTransactions(ctx context.Context, userID, holdingID string) ([]*models.Transaction, error) {
	return []*models.Transaction{}, nil
}

type mockSnapshotService struct {
	performance      *service.PortfolioPerformance
	tokenPerformance *service.TokenPerformance
	tokenCalls       int
	historyFrom      time.Time
	historyTo        time.Time
}

func (m *mockSnapshotService) RecordTodayValue(ctx context.Context, portfolioID, userID string, totalValue, totalInvested decimal.Decimal, timeframe types.Timeframe) (*models.PortfolioHistoricalValue, error) {
	return &models.PortfolioHistoricalValue{ID: "pv-1", PortfolioID: portfolioID, TotalValue: totalValue, TotalInvested: totalInvested}, nil
}

func (m *mockSnapshotService) RecordTokenTodayValue(ctx context.Context, holdingID, userID string, quantity, price, totalValue, totalInvested decimal.Decimal, timeframe types.Timeframe) (*models.TokenHistoricalValue, error) {
	return &models.TokenHistoricalValue{ID: "tv-1", HoldingID: holdingID, Quantity: quantity, Price: price}, nil
}

func (m *mockSnapshotService) GetHistory(ctx context.Context, portfolioID, userID string, from, to time.Time, timeframe types.Timeframe) ([]*models.PortfolioHistoricalValue, error) {
	m.historyFrom, m.historyTo = from, to
	return []*models.PortfolioHistoricalValue{}, nil
}

func (m *mockSnapshotService) CalculatePerformance(ctx context.Context, portfolioID string, period types.Period) (*service.PortfolioPerformance, error) {
	return m.performance, nil
}

func (m *mockSnapshotService) CalculateTokenPerformance(ctx context.Context, holdingID string, period types.Period) (*service.TokenPerformance, error) {
	m.tokenCalls++
	return m.tokenPerformance, nil
}

type mockAlertService struct {
	checkErr error
}

func (m *mockAlertService) CreateAlert(ctx context.Context, input *service.CreateAlertInput) (*models.Alert, error) {
	return &models.Alert{ID: "alert-1", UserID: input.UserID, TokenID: input.TokenID, AlertType: input.AlertType, Threshold: input.Threshold, Status: types.AlertStatusActive}, nil
}

func (m *mockAlertService) ListAlerts(ctx context.Context, userID string) ([]*models.Alert, error) {
	return []*models.Alert{}, nil
}

func (m *mockAlertService) DisableAlert(ctx context.Context, alertID, userID string) (*models.Alert, error) {
	return &models.Alert{ID: alertID, UserID: userID, Status: types.AlertStatusDisabled}, nil
}

func (m *mockAlertService) DeleteAlert(ctx context.Context, alertID, userID string) error {
	return types.NewNotFound(types.CodeAlertNotFound, "alert", alertID)
}

func (m *mockAlertService) CheckAllAlerts(ctx context.Context) (*service.CheckSummary, error) {
	if m.checkErr != nil {
		return nil, m.checkErr
	}
	return &service.CheckSummary{Checked: 2, Triggered: 1}, nil
}

type testMocks struct {
	portfolios *mockPortfolioService
	markets    *mockMarketService
	holdings   *mockHoldingService
	ledger     *mockLedgerService
	snapshots  *mockSnapshotService
	alerts     *mockAlertService
	hub        *realtime.Hub
}

func createTestServer() (*Server, *testMocks) {
	return createTestServerWithRPS(1000)
}

func createTestServerWithRPS(rps int) (*Server, *testMocks) {
	config := &ServerConfig{
		Host:         "localhost",
		Port:         "8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		FreeTierRPS:  rps,
		PaidTierRPS:  rps * 10,
	}

	mocks := &testMocks{
		portfolios: &mockPortfolioService{},
		markets:    &mockMarketService{},
		holdings:   &mockHoldingService{},
		ledger:     &mockLedgerService{},
		snapshots:  &mockSnapshotService{},
		alerts:     &mockAlertService{},
		hub:        realtime.NewHub(),
	}

	server := NewServer(config, Services{
		Portfolios: mocks.portfolios,
		Markets:    mocks.markets,
		Holdings:   mocks.holdings,
		Ledger:     mocks.ledger,
		Snapshots:  mocks.snapshots,
		Alerts:     mocks.alerts,
	}, mocks.hub)
	return server, mocks
}

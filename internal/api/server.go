// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/realtime"
	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/types"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Service interfaces for dependency injection and testing

// PortfolioServiceInterface defines user and portfolio operations
type PortfolioServiceInterface interface {
	CreateUser(ctx context.Context, input *service.CreateUserInput) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CreatePortfolio(ctx context.Context, input *service.CreatePortfolioInput) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, portfolioID, userID string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, input *service.UpdatePortfolioInput) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, portfolioID, userID string) error
}

// MarketServiceInterface defines token and market data operations
type MarketServiceInterface interface {
	CreateToken(ctx context.Context, input *service.CreateTokenInput) (*models.Token, error)
	GetToken(ctx context.Context, tokenID string) (*models.Token, error)
	ListTokens(ctx context.Context) ([]*models.Token, error)
	RecordMarketData(ctx context.Context, input *service.RecordMarketDataInput) (*models.MarketData, error)
}

// HoldingServiceInterface defines holding operations
type HoldingServiceInterface interface {
	Get(ctx context.Context, holdingID, userID string) (*models.Holding, error)
	ListByPortfolio(ctx context.Context, portfolioID, userID string) ([]*models.Holding, error)
	UpdatePrice(ctx context.Context, holdingID string, currentPrice decimal.Decimal) (*models.Holding, error)
	RefreshPrices(ctx context.Context, portfolioID string) ([]*models.Holding, error)
}

// LedgerServiceInterface defines transaction operations
type LedgerServiceInterface interface {
	CreateTransaction(ctx context.Context, input *service.CreateTransactionInput) (*service.TransactionResult, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) (*models.Holding, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID, holdingID string) ([]*models.Transaction, error)
}

// SnapshotServiceInterface defines historical value operations
type SnapshotServiceInterface interface {
	RecordTodayValue(ctx context.Context, portfolioID, userID string, totalValue, totalInvested decimal.Decimal, timeframe types.Timeframe) (*models.PortfolioHistoricalValue, error)
	RecordTokenTodayValue(ctx context.Context, holdingID, userID string, quantity, price, totalValue, totalInvested decimal.Decimal, timeframe types.Timeframe) (*models.TokenHistoricalValue, error)
	GetHistory(ctx context.Context, portfolioID, userID string, from, to time.Time, timeframe types.Timeframe) ([]*models.PortfolioHistoricalValue, error)
	CalculatePerformance(ctx context.Context, portfolioID string, period types.Period) (*service.PortfolioPerformance, error)
	CalculateTokenPerformance(ctx context.Context, holdingID string, period types.Period) (*service.TokenPerformance, error)
}

// AlertServiceInterface defines alert operations
type AlertServiceInterface interface {
	CreateAlert(ctx context.Context, input *service.CreateAlertInput) (*models.Alert, error)
	ListAlerts(ctx context.Context, userID string) ([]*models.Alert, error)
	DisableAlert(ctx context.Context, alertID, userID string) (*models.Alert, error)
	DeleteAlert(ctx context.Context, alertID, userID string) error
	CheckAllAlerts(ctx context.Context) (*service.CheckSummary, error)
}

// Services groups the services the API delegates to
type Services struct {
	Portfolios PortfolioServiceInterface
	Markets    MarketServiceInterface
	Holdings   HoldingServiceInterface
	Ledger     LedgerServiceInterface
	Snapshots  SnapshotServiceInterface
	Alerts     AlertServiceInterface
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	services   Services
	hub        *realtime.Hub
	upgrader   websocket.Upgrader
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	FreeTierRPS     int // requests per second for free tier
	PaidTierRPS     int // requests per second for paid tier
}

// NewServer creates a new API server instance. hub may be nil, in which case
// the websocket alert stream is not served.
func NewServer(config *ServerConfig, services Services, hub *realtime.Hub) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		services: services,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		config: config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.FreeTierRPS, s.config.PaidTierRPS)

	// order matters
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods("GET")

	// Portfolios
	api.HandleFunc("/portfolios", s.handleCreatePortfolio).Methods("POST")
	api.HandleFunc("/portfolios", s.handleListPortfolios).Methods("GET")
	api.HandleFunc("/portfolios/{id}", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/portfolios/{id}", s.handleUpdatePortfolio).Methods("PUT")
	api.HandleFunc("/portfolios/{id}", s.handleDeletePortfolio).Methods("DELETE")

	// Tokens and market data
	api.HandleFunc("/tokens", s.handleCreateToken).Methods("POST")
	api.HandleFunc("/tokens", s.handleListTokens).Methods("GET")
	api.HandleFunc("/tokens/{id}", s.handleGetToken).Methods("GET")
	api.HandleFunc("/tokens/{id}/market-data", s.handleRecordMarketData).Methods("POST")

	// Holdings
	api.HandleFunc("/portfolios/{id}/holdings", s.handleListHoldings).Methods("GET")
	api.HandleFunc("/portfolios/{id}/holdings/refresh", s.handleRefreshPrices).Methods("POST")
	api.HandleFunc("/holdings/{id}", s.handleGetHolding).Methods("GET")
	api.HandleFunc("/holdings/{id}/price", s.handleUpdatePrice).Methods("PUT")

	// Transactions
	api.HandleFunc("/portfolios/{id}/transactions", s.handleCreateTransaction).Methods("POST")
	api.HandleFunc("/holdings/{id}/transactions", s.handleListTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods("GET")
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods("DELETE")

	// Snapshots and performance
	api.HandleFunc("/portfolios/{id}/snapshots", s.handleRecordPortfolioSnapshot).Methods("POST")
	api.HandleFunc("/portfolios/{id}/snapshots", s.handleGetSnapshots).Methods("GET")
	api.HandleFunc("/portfolios/{id}/performance", s.handlePortfolioPerformance).Methods("GET")
	api.HandleFunc("/holdings/{id}/snapshots", s.handleRecordTokenSnapshot).Methods("POST")
	api.HandleFunc("/holdings/{id}/performance", s.handleTokenPerformance).Methods("GET")

	// Alerts
	api.HandleFunc("/alerts", s.handleCreateAlert).Methods("POST")
	api.HandleFunc("/alerts", s.handleListAlerts).Methods("GET")
	api.HandleFunc("/alerts/check", s.handleCheckAlerts).Methods("POST")
	api.HandleFunc("/alerts/{id}/disable", s.handleDisableAlert).Methods("POST")
	api.HandleFunc("/alerts/{id}", s.handleDeleteAlert).Methods("DELETE")

	if s.hub != nil {
		s.router.HandleFunc("/ws/alerts", s.handleAlertStream).Methods("GET")
	}

	// preflight requests need a matching route for the CORS middleware to run
	s.router.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "coin-ledger",
	})
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("shutting down API server")
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

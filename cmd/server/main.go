// Package main provides the API server entry point for the coin ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coin-ledger/internal/api"
	"github.com/coin-ledger/internal/config"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/notify"
	"github.com/coin-ledger/internal/realtime"
	"github.com/coin-ledger/internal/retry"
	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/storage"
)

func main() {
	fmt.Println("Coin Ledger API Server")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := retry.Connect(ctx, nil, "postgres", func() (*storage.PostgresDB, error) {
		return storage.NewPostgresDB(&cfg.Database.Postgres)
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	if err := storage.RunMigrations(cfg.Database.Postgres.URL(), "migrations/postgres"); err != nil {
		logger.WithError(err).Fatal("Failed to apply migrations")
	}

	redis, err := retry.Connect(ctx, nil, "redis", func() (*storage.RedisCache, error) {
		return storage.NewRedisCache(&cfg.Database.Redis)
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	userRepo := storage.NewUserRepository(postgres)
	portfolioRepo := storage.NewPortfolioRepository(postgres)
	tokenRepo := storage.NewTokenRepository(postgres)
	marketRepo := storage.NewMarketDataRepository(postgres)
	holdingRepo := storage.NewHoldingRepository(postgres)
	txRepo := storage.NewTransactionRepository(postgres)
	historyRepo := storage.NewHistoricalValueRepository(postgres)
	alertRepo := storage.NewAlertRepository(postgres)

	cache := storage.NewCacheService(redis, cfg.Cache.TTL)

	holdingService := service.NewHoldingService(postgres, holdingRepo, portfolioRepo, marketRepo, cache)
	services := api.Services{
		Portfolios: service.NewPortfolioService(userRepo, portfolioRepo),
		Markets:    service.NewMarketService(tokenRepo, marketRepo),
		Holdings:   holdingService,
		Ledger:     service.NewLedgerService(postgres, holdingRepo, txRepo, portfolioRepo, tokenRepo, cache),
		Snapshots:  service.NewSnapshotService(historyRepo, portfolioRepo, holdingService, cache, cfg.Retention.FreeTierDays),
		Alerts:     service.NewAlertService(alertRepo, tokenRepo, marketRepo, notify.NewPublisher(redis.Client())),
	}

	// alerts triggered by the worker arrive over Redis and fan out to sockets
	hub := realtime.NewHub()
	notifications, err := notify.NewSubscriber(redis.Client()).Start(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to subscribe to alert notifications")
	}
	go hub.Relay(ctx, notifications)

	server := api.NewServer(&api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		FreeTierRPS:     cfg.RateLimit.FreeTier,
		PaidTierRPS:     cfg.RateLimit.PaidTier,
	}, services, hub)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started")

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// Package main provides the background worker that runs the periodic alert,
// price, snapshot and retention jobs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coin-ledger/internal/config"
	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/notify"
	"github.com/coin-ledger/internal/retry"
	"github.com/coin-ledger/internal/scheduler"
	"github.com/coin-ledger/internal/service"
	"github.com/coin-ledger/internal/storage"
)

const jobTimeout = 10 * time.Minute

func main() {
	fmt.Println("Coin Ledger Worker")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger().WithField("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := retry.Connect(ctx, nil, "postgres", func() (*storage.PostgresDB, error) {
		return storage.NewPostgresDB(&cfg.Database.Postgres)
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := retry.Connect(ctx, nil, "redis", func() (*storage.RedisCache, error) {
		return storage.NewRedisCache(&cfg.Database.Redis)
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	portfolioRepo := storage.NewPortfolioRepository(postgres)
	tokenRepo := storage.NewTokenRepository(postgres)
	marketRepo := storage.NewMarketDataRepository(postgres)
	holdingRepo := storage.NewHoldingRepository(postgres)
	historyRepo := storage.NewHistoricalValueRepository(postgres)
	alertRepo := storage.NewAlertRepository(postgres)

	cache := storage.NewCacheService(redis, cfg.Cache.TTL)
	holdingService := service.NewHoldingService(postgres, holdingRepo, portfolioRepo, marketRepo, cache)
	snapshotService := service.NewSnapshotService(historyRepo, portfolioRepo, holdingService, cache, cfg.Retention.FreeTierDays)
	alertService := service.NewAlertService(alertRepo, tokenRepo, marketRepo, notify.NewPublisher(redis.Client()))

	sched := scheduler.New(ctx, jobTimeout)

	jobs := []struct {
		name string
		spec string
		job  scheduler.Job
	}{
		{"alerts", cfg.Schedule.Alerts, func(ctx context.Context) error {
			summary, err := alertService.CheckAllAlerts(ctx)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).WithFields(map[string]interface{}{
				"checked":   summary.Checked,
				"triggered": summary.Triggered,
			}).Info("Alert check completed")
			return nil
		}},
		{"prices", cfg.Schedule.Prices, func(ctx context.Context) error {
			summary, err := holdingService.RefreshAll(ctx)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).WithFields(map[string]interface{}{
				"portfolios": summary.Portfolios,
				"holdings":   summary.Holdings,
				"failed":     summary.Failed,
			}).Info("Price refresh completed")
			return nil
		}},
		{"snapshots", cfg.Schedule.Snapshots, func(ctx context.Context) error {
			summary, err := snapshotService.CaptureAll(ctx)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).WithFields(map[string]interface{}{
				"portfolios": summary.Portfolios,
				"succeeded":  summary.Succeeded,
				"failed":     summary.Failed,
			}).Info("Snapshot capture completed")
			return nil
		}},
		{"retention", cfg.Schedule.Retention, func(ctx context.Context) error {
			removed, err := snapshotService.ApplyRetentionPolicy(ctx)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).WithField("removed", removed).Info("Retention policy applied")
			return nil
		}},
	}

	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, j.job); err != nil {
			logger.WithError(err).WithField("job", j.name).Fatal("Failed to schedule job")
		}
		logger.WithFields(map[string]interface{}{
			"job":      j.name,
			"schedule": j.spec,
		}).Info("Job scheduled")
	}

	sched.Start()
	logger.Info("Worker started")

	// a snapshot on startup covers days the worker was down
	if err := sched.RunNow("snapshots"); err != nil {
		logger.WithError(err).Warn("Initial snapshot capture failed")
	}

	<-ctx.Done()
	logger.Info("Shutting down worker...")
	sched.Stop()

	for _, st := range sched.Stats() {
		logger.WithFields(map[string]interface{}{
			"job":        st.Name,
			"runs":       st.Runs,
			"failures":   st.Failures,
			"last_run":   st.LastRun,
			"last_error": st.LastError,
		}).Info("Job stats")
	}

	logger.Info("Worker exited")
}

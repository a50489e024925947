// Package retry runs an operation with exponential backoff. It is used for
// startup connectivity (Postgres, Redis), never inside ledger writes.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/coin-ledger/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // total attempts including the first
	InitialDelay time.Duration // delay before the second attempt
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig waits 1s, 2s, 4s, 8s between five attempts
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Result describes how an operation finished
type Result struct {
	Attempts      int           `json:"attempts"`
	Success       bool          `json:"success"`
	TotalDuration time.Duration `json:"totalDuration"`
	LastError     error         `json:"lastError,omitempty"`
}

// Func is an operation that can be retried. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// WithExponentialBackoff calls fn until it succeeds, the attempts run out or
// ctx is done
func WithExponentialBackoff(ctx context.Context, cfg *Config, name string, fn Func) *Result {
	log := logging.FromContext(ctx).WithField("operation", name)
	start := time.Now()
	result := &Result{}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt

		err := fn(ctx, attempt)
		if err == nil {
			result.Success = true
			result.LastError = nil
			result.TotalDuration = time.Since(start)
			if attempt > 1 {
				log.WithField("attempts", attempt).Info("operation succeeded after retry")
			}
			return result
		}
		result.LastError = err

		if attempt == cfg.MaxAttempts {
			log.WithError(err).WithField("attempts", attempt).Error("operation failed after max attempts")
			break
		}

		delay := Delay(cfg, attempt)
		log.WithError(err).WithFields(map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": cfg.MaxAttempts,
			"delay":        delay.String(),
		}).Warn("operation failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

// Delay returns the wait after the given failed attempt:
// InitialDelay × Multiplier^(attempt−1), capped at MaxDelay
func Delay(cfg *Config, attempt int) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	return time.Duration(d)
}

// Do is WithExponentialBackoff returning an error
func Do(ctx context.Context, cfg *Config, name string, fn Func) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	result := WithExponentialBackoff(ctx, cfg, name, fn)
	if !result.Success {
		return fmt.Errorf("%s failed after %d attempts: %w", name, result.Attempts, result.LastError)
	}
	return nil
}

// Connect retries a constructor such as storage.NewPostgresDB and returns
// its value once it succeeds
func Connect[T any](ctx context.Context, cfg *Config, name string, open func() (T, error)) (T, error) {
	var value T
	err := Do(ctx, cfg, name, func(ctx context.Context, attempt int) error {
		v, err := open()
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	return value, err
}

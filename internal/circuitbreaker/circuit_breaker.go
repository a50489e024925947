// Package circuitbreaker stops calls to a failing dependency for a cooldown
// period so callers fail fast instead of waiting on timeouts.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coin-ledger/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means calls are allowed
	StateClosed State = "closed"
	// StateOpen means calls are rejected until the cooldown elapses
	StateOpen State = "open"
	// StateHalfOpen means a limited number of trial calls are allowed
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrTooManyRequests is returned when the half-open trial budget is used up
var ErrTooManyRequests = errors.New("too many requests in half-open state")

// Config configures a circuit breaker
type Config struct {
	Name string
	// MaxFailures consecutive failures open the circuit
	MaxFailures int
	// Cooldown is how long the circuit stays open before probing
	Cooldown time.Duration
	// HalfOpenMaxCalls successful trial calls close the circuit again
	HalfOpenMaxCalls int
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxFailures:      5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Stats is a snapshot of a circuit breaker
type Stats struct {
	Name             string    `json:"name"`
	State            State     `json:"state"`
	ConsecutiveFails int       `json:"consecutiveFails"`
	TotalFailures    int       `json:"totalFailures"`
	Rejected         int       `json:"rejected"`
	LastStateChange  time.Time `json:"lastStateChange"`
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	cfg Config
	now func() time.Time

	mu               sync.Mutex
	state            State
	consecutiveFails int
	totalFailures    int
	rejected         int
	halfOpenCalls    int
	halfOpenOK       int
	lastStateChange  time.Time
}

// NewCircuitBreaker creates a closed circuit breaker. A nil config means the
// default for an unnamed dependency.
func NewCircuitBreaker(cfg *Config) *CircuitBreaker {
	if cfg == nil {
		cfg = DefaultConfig("default")
	}
	c := *cfg
	if c.MaxFailures <= 0 {
		c.MaxFailures = 1
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	return &CircuitBreaker{
		cfg:             c,
		now:             time.Now,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn unless the circuit is open. Context cancellation by the
// caller is not counted as a dependency failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		cb.release()
		return err
	}

	cb.afterRequest(ctx, err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastStateChange) < cb.cfg.Cooldown {
			cb.rejected++
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenCalls = 1
		return nil

	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.cfg.HalfOpenMaxCalls {
			cb.rejected++
			return ErrTooManyRequests
		}
		cb.halfOpenCalls++
		return nil
	}
	return nil
}

// release gives back a half-open slot for a call that did not count
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.halfOpenCalls > 0 {
		cb.halfOpenCalls--
	}
}

func (cb *CircuitBreaker) afterRequest(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.consecutiveFails = 0
		if cb.state == StateHalfOpen {
			cb.halfOpenOK++
			if cb.halfOpenOK >= cb.cfg.HalfOpenMaxCalls {
				cb.setState(StateClosed)
				logging.FromContext(ctx).WithField("circuit_breaker", cb.cfg.Name).Info("circuit breaker closed")
			}
		}
		return
	}

	cb.consecutiveFails++
	cb.totalFailures++
	if cb.state == StateHalfOpen || cb.consecutiveFails >= cb.cfg.MaxFailures {
		if cb.state != StateOpen {
			logging.FromContext(ctx).WithError(err).WithFields(map[string]interface{}{
				"circuit_breaker": cb.cfg.Name,
				"failures":        cb.consecutiveFails,
				"cooldown":        cb.cfg.Cooldown.String(),
			}).Warn("circuit breaker opened")
		}
		cb.setState(StateOpen)
	}
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(state State) {
	cb.state = state
	cb.lastStateChange = cb.now()
	cb.halfOpenCalls = 0
	cb.halfOpenOK = 0
}

// GetState returns the current state. An open circuit whose cooldown has
// elapsed still reports open until the next call tries it.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns a snapshot of the breaker's counters
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		Name:             cb.cfg.Name,
		State:            cb.state,
		ConsecutiveFails: cb.consecutiveFails,
		TotalFailures:    cb.totalFailures,
		Rejected:         cb.rejected,
		LastStateChange:  cb.lastStateChange,
	}
}

// Reset closes the circuit and clears the failure streak
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFails = 0
	cb.setState(StateClosed)
}

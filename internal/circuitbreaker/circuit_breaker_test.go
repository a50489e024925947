package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int) (*CircuitBreaker, *clock) {
	clk := &clock{t: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(&Config{Name: "test", MaxFailures: maxFailures, Cooldown: 10 * time.Second, HalfOpenMaxCalls: 1})
	cb.now = clk.now
	return cb, clk
}

func fail() error    { return errDown }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	}
	require.NoError(t, cb.Execute(ctx, succeed), "a success resets the streak")
	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	}
	assert.Equal(t, StateClosed, cb.GetState())

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, 1, cb.GetStats().Rejected)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, clk := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.Equal(t, StateOpen, cb.GetState())

	clk.advance(11 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Execute(ctx, fail)
	clk.advance(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.GetState(), "a failed trial call reopens the circuit")
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenLimit(t *testing.T) {
	cb, clk := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clk.advance(11 * time.Second)

	err := cb.Execute(ctx, func() error {
		assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrTooManyRequests)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_CanceledCallsDoNotCount(t *testing.T) {
	cb, _ := newTestBreaker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, cb.Execute(ctx, func() error { return ctx.Err() }), context.Canceled)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Zero(t, cb.GetStats().TotalFailures)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1)
	_ = cb.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, cb.Execute(context.Background(), succeed))
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(nil)
	assert.Equal(t, "default", cb.GetStats().Name)

	cb = NewCircuitBreaker(&Config{Name: "zero"})
	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.GetState(), "MaxFailures below one is treated as one")
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_RejectsBadSpecAndDuplicates(t *testing.T) {
	s := New(context.Background(), 0)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("alerts", "0 * * * * *", noop))
	assert.Error(t, s.Add("alerts", "0 * * * * *", noop))
	assert.Error(t, s.Add("broken", "every minute", noop))
	assert.Error(t, s.Add("five-fields", "* * * * *", noop), "specs carry a seconds field")
}

func TestRunNow_RecordsStats(t *testing.T) {
	s := New(context.Background(), time.Second)
	fail := true
	require.NoError(t, s.Add("snapshots", "0 5 0 * * *", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		if fail {
			return errors.New("postgres unavailable")
		}
		return nil
	}))

	assert.Error(t, s.RunNow("snapshots"))
	fail = false
	require.NoError(t, s.RunNow("snapshots"))
	assert.Error(t, s.RunNow("missing"))

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "snapshots", stats[0].Name)
	assert.Equal(t, 2, stats[0].Runs)
	assert.Equal(t, 1, stats[0].Failures)
	assert.Empty(t, stats[0].LastError)
	assert.False(t, stats[0].LastRun.IsZero())
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := New(context.Background(), 0)
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "* * * * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	assert.False(t, s.Stats()[0].NextRun.IsZero())
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := New(context.Background(), 0)
	var after atomic.Bool
	require.NoError(t, s.Add("panics", "* * * * * *", func(context.Context) error {
		defer after.Store(true)
		panic("boom")
	}))

	s.Start()
	require.Eventually(t, after.Load, 3*time.Second, 20*time.Millisecond)
	s.Stop()
}

// Package scheduler runs the worker's periodic jobs on cron specs with a
// seconds field. A job that is still running when its next tick fires is
// skipped, and a panicking job is recovered and logged.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coin-ledger/internal/logging"
	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// JobStats reports the history of one registered job
type JobStats struct {
	Name         string        `json:"name"`
	Spec         string        `json:"spec"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	LastRun      time.Time     `json:"lastRun,omitempty"`
	LastDuration time.Duration `json:"lastDuration"`
	LastError    string        `json:"lastError,omitempty"`
	NextRun      time.Time     `json:"nextRun,omitempty"`
}

type entry struct {
	id    cron.EntryID
	job   Job
	stats JobStats
}

// Scheduler wraps a robfig/cron instance
type Scheduler struct {
	cron    *cron.Cron
	baseCtx context.Context
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a scheduler. Jobs receive baseCtx, bounded by timeout when it
// is positive.
func New(baseCtx context.Context, timeout time.Duration) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	logger := cronLogger{log: logging.FromContext(baseCtx)}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		baseCtx: baseCtx,
		timeout: timeout,
		jobs:    make(map[string]*entry),
	}
}

// Add registers job under a unique name
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	e := &entry{job: job, stats: JobStats{Name: name, Spec: spec}}
	id, err := s.cron.AddFunc(spec, func() { s.run(e) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	e.id = id
	s.jobs[name] = e
	return nil
}

// RunNow runs a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return s.run(e)
}

func (s *Scheduler) run(e *entry) error {
	ctx := s.baseCtx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := logging.FromContext(ctx).WithField("job", e.stats.Name)
	ctx = logging.WithLogger(ctx, log)

	start := time.Now()
	err := e.job(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	e.stats.Runs++
	e.stats.LastRun = start.UTC()
	e.stats.LastDuration = elapsed
	e.stats.LastError = ""
	if err != nil {
		e.stats.Failures++
		e.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.WithError(err).WithField("duration", elapsed.String()).Error("job failed")
		return err
	}
	log.WithField("duration", elapsed.String()).Info("job finished")
	return nil
}

// Stats returns every job's stats ordered by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStats, 0, len(s.jobs))
	for _, e := range s.jobs {
		st := e.stats
		st.NextRun = s.cron.Entry(e.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins running jobs on their schedules in the background
func (s *Scheduler) Start() {
	logging.FromContext(s.baseCtx).WithField("jobs", len(s.jobs)).Info("scheduler started")
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs to return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logging.FromContext(s.baseCtx).Info("scheduler stopped")
}

// cronLogger adapts the service logger to cron.Logger
type cronLogger struct {
	log *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(pairs(keysAndValues)).Error(msg)
}

func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}

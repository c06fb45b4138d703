// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/metrics"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

const jobCloseExpired = "close_expired"

// ExpiryCloser deactivates competitions whose end date has passed.
type ExpiryCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// Scheduler owns the cron runner. Jobs never overlap with themselves.
type Scheduler struct {
	cron    *cron.Cron
	closer  ExpiryCloser
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	running bool
}

// New registers the expired-competition sweep on spec, e.g. "@every 1m".
func New(closer ExpiryCloser, spec string, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		closer:  closer,
		timeout: timeout,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunCloseExpired(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	slog.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts the runner and waits for a job in flight, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		slog.Info("Scheduler stopped")
	case <-ctx.Done():
		slog.Warn("Scheduler stop timed out with a job still running")
	}
}

// RunCloseExpired performs one sweep. It only ever deactivates; draws stay manual.
func (s *Scheduler) RunCloseExpired(ctx context.Context) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	closed, err := s.closer.CloseExpired(ctx, s.now())
	metrics.RecordJobRun(jobCloseExpired, err == nil)
	if err != nil {
		slog.Error("Expired competition sweep failed", "closed", closed, "error", err)
		return closed, err
	}
	if closed > 0 {
		slog.Info("Expired competitions closed", "closed", closed, "duration", time.Since(start))
	}
	return closed, nil
}

// Package scheduler polls the ledger for due recurring plans and executes
// them. A single goroutine runs the poll loop so passes never overlap; the
// optimistic claim inside plan execution keeps multiple processes safe.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/logger"
	"hodltrack/internal/models"

	"go.uber.org/zap"
)

// DefaultInterval is how often the scheduler polls for due plans.
const DefaultInterval = time.Hour

// PlanStore lists the plans whose next execution has come due.
type PlanStore interface {
	DuePlans(now time.Time) ([]models.RecurringPlan, error)
}

// PlanExecutor runs a single due plan. The plan service implements both
// interfaces.
type PlanExecutor interface {
	Execute(ctx context.Context, plan *models.RecurringPlan, now time.Time) (*models.Transaction, error)
}

// PlanError records a single plan failure within a poll pass.
type PlanError struct {
	PlanID string
	Err    error
}

// RunResult summarizes one poll pass.
type RunResult struct {
	Due      int
	Executed int
	Skipped  int
	Errors   []PlanError
	Duration time.Duration
}

// Scheduler drives recurring plan execution on a fixed interval.
type Scheduler struct {
	store    PlanStore
	executor PlanExecutor
	interval time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a scheduler polling at the given interval. A non-positive
// interval falls back to DefaultInterval; a nil logger falls back to the
// shared one.
func New(store PlanStore, executor PlanExecutor, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Named("scheduler")
	}
	return &Scheduler{
		store:    store,
		executor: executor,
		interval: interval,
		log:      log,
	}
}

// Start launches the poll loop. The first pass runs immediately, then every
// interval. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
	s.log.Infow("scheduler started", "interval", s.interval)
}

// Stop halts the poll loop and waits for an in-flight pass to finish, or
// until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.log.Infow("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Scheduler) poll() {
	result := s.RunOnce(context.Background(), time.Now().UTC())
	if len(result.Errors) > 0 {
		s.log.Warnw("poll pass finished with failures",
			"due", result.Due,
			"executed", result.Executed,
			"skipped", result.Skipped,
			"failed", len(result.Errors),
			"duration", result.Duration,
		)
		return
	}
	if result.Due > 0 {
		s.log.Infow("poll pass finished",
			"due", result.Due,
			"executed", result.Executed,
			"skipped", result.Skipped,
			"duration", result.Duration,
		)
	}
}

// RunOnce performs a single poll pass at the given instant. Each due plan is
// executed independently: a failure or panic in one plan is recorded and the
// pass moves on to the next. Plans claimed by a concurrent run or already
// completed count as skipped, not failed.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) *RunResult {
	started := time.Now()
	result := &RunResult{}

	due, err := s.store.DuePlans(now)
	if err != nil {
		s.log.Errorw("due plan query failed", "error", err)
		result.Errors = append(result.Errors, PlanError{Err: err})
		result.Duration = time.Since(started)
		return result
	}
	result.Due = len(due)

	for i := range due {
		plan := due[i]
		err := s.executeOne(ctx, &plan, now)
		switch {
		case err == nil:
			result.Executed++
		case errors.Is(err, apperrors.ErrPlanClaimed):
			result.Skipped++
			s.log.Debugw("plan already claimed", "plan_id", plan.ID)
		case errors.Is(err, apperrors.ErrPlanCompleted):
			result.Skipped++
			s.log.Infow("plan completed, paused", "plan_id", plan.ID, "name", plan.Name)
		default:
			result.Errors = append(result.Errors, PlanError{PlanID: plan.ID, Err: err})
			s.log.Errorw("plan execution failed", "plan_id", plan.ID, "name", plan.Name, "error", err)
		}
	}

	result.Duration = time.Since(started)
	return result
}

// executeOne runs a single plan, converting a panic into an error so one
// broken plan cannot take down the whole pass.
func (s *Scheduler) executeOne(ctx context.Context, plan *models.RecurringPlan, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plan execution panicked: %v", r)
		}
	}()
	_, err = s.executor.Execute(ctx, plan, now)
	return err
}

// Package scheduler runs the periodic maintenance jobs of the progress service
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultJobTimeout = 30 * time.Second

// CacheRefresher reloads cached course content
type CacheRefresher interface {
	// Refresh reloads the cached lists using "token" as bearer token for the content repository
	Refresh(ctx context.Context, token string) error
}

// SessionSweeper evicts idle progress sessions
type SessionSweeper interface {
	// Sweep drops idle sessions and returns how many were dropped
	Sweep() int
}

// Scheduler manages the cron jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler, jobs are added with the Add* methods and run after Start
func NewScheduler(logger *zap.Logger) *Scheduler {
	cronLogger := &zapCronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
	}
}

// AddCacheRefresh schedules a membership cache refresh with the standard cron expression "spec"
func (s *Scheduler) AddCacheRefresh(spec string, refresher CacheRefresher, token string) error {
	return s.add("cache refresh", spec, &cacheRefreshJob{
		refresher: refresher,
		token:     token,
		timeout:   defaultJobTimeout,
		logger:    s.logger,
	})
}

// AddSessionSweep schedules the eviction of idle sessions with the standard cron expression "spec"
func (s *Scheduler) AddSessionSweep(spec string, sweeper SessionSweeper) error {
	return s.add("session sweep", spec, &sessionSweepJob{sweeper: sweeper, logger: s.logger})
}

func (s *Scheduler) add(name, spec string, job cron.Job) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
	}
	s.cron.Schedule(schedule, job)
	s.logger.Info("Job scheduled", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs until "ctx" is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}

type cacheRefreshJob struct {
	refresher CacheRefresher
	token     string
	timeout   time.Duration
	logger    *zap.Logger
}

// Run refreshes the cache, failures are logged and retried on the next tick
func (j *cacheRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.refresher.Refresh(ctx, j.token); err != nil {
		j.logger.Error("Failed to refresh membership cache", zap.Error(err))
	}
}

type sessionSweepJob struct {
	sweeper SessionSweeper
	logger  *zap.Logger
}

func (j *sessionSweepJob) Run() {
	if n := j.sweeper.Sweep(); n > 0 {
		j.logger.Debug("Idle sessions evicted", zap.Int("count", n))
	}
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/metrics"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
)

// LogRetentionSweeperConfig holds configuration for the log retention sweeper
type LogRetentionSweeperConfig struct {
	MaxAge      time.Duration // Terminal chains older than this are deleted
	Interval    time.Duration // Time to sleep between sweep cycles
	MaxAttempts int           // A failed head at this attempt is terminal
	RetryWindow time.Duration // Bound on retrying a failed delete
}

// logRetentionSweeper implements the Sweeper interface for delivery log retention
type logRetentionSweeper struct {
	config    *LogRetentionSweeperConfig
	store     store.DeliveryLogStore
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewLogRetentionSweeper creates a new log retention sweeper
func NewLogRetentionSweeper(
	config *LogRetentionSweeperConfig,
	st store.DeliveryLogStore,
	clock adapter.Clock,
) Sweeper {
	return &logRetentionSweeper{
		config:    config,
		store:     st,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *logRetentionSweeper) Name() string {
	return "log-retention-sweeper"
}

// Start runs a sweep immediately, then one every interval
func (s *logRetentionSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting log retention sweeper",
		zap.Duration("max_age", s.config.MaxAge),
		zap.Duration("interval", s.config.Interval),
		zap.Int("max_attempts", s.config.MaxAttempts),
	)

	for {
		if err := s.runSweepCycle(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
		}

		if !s.sleep(ctx, s.config.Interval) {
			logger.InfoCtx(ctx, "Log retention sweeper stopping")
			return nil
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *logRetentionSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping log retention sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Log retention sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Log retention sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle deletes terminal chains older than the cutoff
func (s *logRetentionSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()
	cutoff := startTime.Add(-s.config.MaxAge)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = s.config.RetryWindow
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	var deleted int64
	operation := func() error {
		n, err := s.store.DeleteTerminalChainsBefore(ctx, cutoff, s.config.MaxAttempts)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Delivery log cleanup failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return fmt.Errorf("failed to delete expired delivery logs after %d attempts: %w", attemptCount+1, err)
	}

	metrics.LogsDeleted.Add(float64(deleted))
	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted_rows", deleted),
		zap.Duration("duration", s.clock.Since(startTime)),
	)

	return nil
}

// sleep waits for duration, returning false when interrupted by ctx or Stop
func (s *logRetentionSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}

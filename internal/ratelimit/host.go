package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
)

// ErrLimiterClosed is returned by Wait after Close
var ErrLimiterClosed = errors.New("host limiter is closed")

// HostLimiter throttles outbound deliveries per target host
//
//go:generate mockgen -source=host.go -destination=../mocks/host_limiter.go -package=mocks -mock_names=HostLimiter=MockHostLimiter
type HostLimiter interface {
	// Wait blocks until a token for host is available, ctx is done, or the configured max wait elapses
	Wait(ctx context.Context, host string) error

	// Close stops the health monitor. The Redis client is owned by the caller.
	Close()
}

type hostLimiter struct {
	config             config.HostRateLimitConfig
	redis              adapter.RedisClient
	distributedLimiter adapter.RedisRateLimiter
	clock              adapter.Clock

	mu    sync.Mutex
	hosts map[string]*hostState

	redisAvailable atomic.Bool
	closed         atomic.Bool
	stopCh         chan struct{}
	closeOnce      sync.Once
}

// hostState holds the local limiters for one host
type hostState struct {
	localLimiter     *rate.Limiter
	preFilterLimiter *rate.Limiter
}

// NewHostLimiter creates a per-host limiter. With a nil Redis client only local limiters are used.
func NewHostLimiter(cfg config.HostRateLimitConfig, rc adapter.RedisClient, clock adapter.Clock) (HostLimiter, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l := &hostLimiter{
		config: cfg,
		redis:  rc,
		clock:  clock,
		hosts:  make(map[string]*hostState),
		stopCh: make(chan struct{}),
	}

	if rc == nil {
		logger.Info("Host rate limiter running without Redis, using local limiters",
			zap.Int("requests_per_second", cfg.RequestsPerSecond))
		return l, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisAvailable := true
	if err := rc.Ping(ctx).Err(); err != nil {
		redisAvailable = false
		if !cfg.EnableLocalFallback {
			return nil, fmt.Errorf("redis unavailable and fallback disabled: %w", err)
		}
		logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
	}

	l.distributedLimiter = rc.NewRateLimiter()
	l.redisAvailable.Store(redisAvailable)

	go l.monitorRedisHealth()

	logger.Info("Host rate limiter initialized",
		zap.Int("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", cfg.Burst),
		zap.Bool("local_fallback", cfg.EnableLocalFallback),
	)

	return l, nil
}

// state returns the limiters for host, creating them on first use
func (l *hostLimiter) state(host string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.hosts[host]
	if !ok {
		localRPS := float64(l.config.RequestsPerSecond)
		if l.redis != nil {
			// Fallback rate is reduced since other instances share the host
			localRPS = max(localRPS*l.config.LocalFallbackMultiplier, 1.0)
		}
		s = &hostState{
			localLimiter:     rate.NewLimiter(rate.Limit(localRPS), l.config.Burst),
			preFilterLimiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst),
		}
		l.hosts[host] = s
	}
	return s
}

func (l *hostLimiter) Wait(ctx context.Context, host string) error {
	if l.closed.Load() {
		return ErrLimiterClosed
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.config.MaxWait)
	defer cancel()

	s := l.state(host)

	if l.redis == nil {
		return s.localLimiter.Wait(waitCtx)
	}

	for {
		select {
		case <-waitCtx.Done():
			return waitCtx.Err()
		default:
		}

		if l.redisAvailable.Load() {
			allowed, retryAfter, err := l.tryDistributedLimit(waitCtx, host, s)
			switch {
			case err != nil:
				if waitCtx.Err() != nil {
					return waitCtx.Err()
				}
				l.redisAvailable.Store(false)
				if !l.config.EnableLocalFallback {
					return fmt.Errorf("redis rate limiter unavailable: %w", err)
				}
				logger.Warn("Redis rate limiter error, falling back to local",
					zap.String("host", host),
					zap.Error(err),
				)
			case allowed:
				return nil
			case retryAfter > 0:
				// 50-150% of retryAfter spreads out competing workers
				jitter := time.Duration(float64(retryAfter) * (0.5 + rand.Float64())) //nolint:gosec,G404
				select {
				case <-waitCtx.Done():
					return waitCtx.Err()
				case <-l.clock.After(jitter):
					continue
				}
			}
		}

		if !l.redisAvailable.Load() && l.config.EnableLocalFallback {
			return s.localLimiter.Wait(waitCtx)
		}

		select {
		case <-waitCtx.Done():
			return waitCtx.Err()
		case <-l.clock.After(100 * time.Millisecond):
		}
	}
}

// tryDistributedLimit returns (allowed, retryAfter, error)
func (l *hostLimiter) tryDistributedLimit(ctx context.Context, host string, s *hostState) (bool, time.Duration, error) {
	if l.distributedLimiter == nil {
		return false, 0, fmt.Errorf("distributed limiter not available")
	}

	// Local pre-filter keeps Redis traffic proportional to the allowed rate
	if err := s.preFilterLimiter.Wait(ctx); err != nil {
		return false, 0, err
	}

	limit := redis_rate.Limit{
		Rate:   l.config.RequestsPerSecond,
		Burst:  l.config.Burst,
		Period: time.Second,
	}
	res, err := l.distributedLimiter.Allow(ctx, l.config.RedisKeyPrefix+host, limit)
	if err != nil {
		return false, 0, err
	}

	if res.Allowed == 0 {
		logger.Debug("Host rate limit reached, waiting",
			zap.String("host", host),
			zap.Duration("retry_after", res.RetryAfter),
		)
		return false, res.RetryAfter, nil
	}

	return true, 0, nil
}

// monitorRedisHealth periodically pings Redis and restores the distributed path when it recovers
func (l *hostLimiter) monitorRedisHealth() {
	ticker := l.clock.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.redis.Ping(ctx).Err()
		cancel()

		available := err == nil
		if !l.redisAvailable.Swap(available) && available {
			logger.Info("Redis connection restored")
		}
	}
}

func (l *hostLimiter) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.stopCh)
	})
}

// validateConfig validates and sets defaults for the configuration
func validateConfig(cfg *config.HostRateLimitConfig) error {
	if cfg.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerSecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 30 * time.Second
	}
	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = "ff:webhook:host:"
	}
	if cfg.LocalFallbackMultiplier <= 0 {
		cfg.LocalFallbackMultiplier = 0.5
	}
	return nil
}

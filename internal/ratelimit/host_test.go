package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/mocks"
	"github.com/feral-file/ff-webhook-dispatcher/internal/ratelimit"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testLimiterMocks contains all the mocks needed for testing the host limiter
type testLimiterMocks struct {
	ctrl             *gomock.Controller
	redisClient      *mocks.MockRedisClient
	redisRateLimiter *mocks.MockRedisRateLimiter
	clock            *mocks.MockClock
}

func setupTestLimiter(t *testing.T) *testLimiterMocks {
	ctrl := gomock.NewController(t)
	return &testLimiterMocks{
		ctrl:             ctrl,
		redisClient:      mocks.NewMockRedisClient(ctrl),
		redisRateLimiter: mocks.NewMockRedisRateLimiter(ctrl),
		clock:            mocks.NewMockClock(ctrl),
	}
}

func testConfig() config.HostRateLimitConfig {
	return config.HostRateLimitConfig{
		Enabled:                 true,
		RequestsPerSecond:       10,
		Burst:                   20,
		MaxWait:                 time.Second,
		RedisKeyPrefix:          "test:host:",
		EnableLocalFallback:     true,
		LocalFallbackMultiplier: 0.5,
	}
}

// newLimiterWithRedis creates a limiter with a mocked Redis client
func newLimiterWithRedis(t *testing.T, tm *testLimiterMocks, cfg config.HostRateLimitConfig, redisAvailable bool) ratelimit.HostLimiter {
	statusCmd := redis.NewStatusCmd(context.Background())
	if redisAvailable {
		statusCmd.SetVal("PONG")
	} else {
		statusCmd.SetErr(errors.New("connection refused"))
	}
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(statusCmd)
	tm.redisClient.EXPECT().NewRateLimiter().Return(tm.redisRateLimiter)

	ticker := time.NewTicker(10 * time.Second)
	t.Cleanup(ticker.Stop)
	tm.clock.EXPECT().NewTicker(10 * time.Second).Return(ticker)

	limiter, err := ratelimit.NewHostLimiter(cfg, tm.redisClient, tm.clock)
	require.NoError(t, err)

	// Give the health monitor time to start
	time.Sleep(15 * time.Millisecond)
	t.Cleanup(limiter.Close)

	return limiter
}

func TestNewHostLimiter_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0

	_, err := ratelimit.NewHostLimiter(cfg, nil, adapter.NewClock())
	assert.Error(t, err)
}

func TestNewHostLimiter_RedisUnavailable_FallbackDisabled(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.ctrl.Finish()

	cfg := testConfig()
	cfg.EnableLocalFallback = false

	statusCmd := redis.NewStatusCmd(context.Background())
	statusCmd.SetErr(errors.New("connection refused"))
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(statusCmd)

	_, err := ratelimit.NewHostLimiter(cfg, tm.redisClient, tm.clock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback disabled")
}

func TestHostLimiter_LocalOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 1
	cfg.Burst = 1
	cfg.MaxWait = 20 * time.Millisecond

	limiter, err := ratelimit.NewHostLimiter(cfg, nil, adapter.NewClock())
	require.NoError(t, err)
	defer limiter.Close()

	ctx := context.Background()
	require.NoError(t, limiter.Wait(ctx, "a.example.com"))

	// Burst exhausted, the next token is a second away
	assert.Error(t, limiter.Wait(ctx, "a.example.com"))

	// Other hosts have their own budget
	assert.NoError(t, limiter.Wait(ctx, "b.example.com"))
}

func TestHostLimiter_Distributed_Allowed(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.ctrl.Finish()

	limiter := newLimiterWithRedis(t, tm, testConfig(), true)

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "test:host:example.com", redis_rate.Limit{Rate: 10, Burst: 20, Period: time.Second}).
		Return(&redis_rate.Result{Allowed: 1, Remaining: 19}, nil)

	assert.NoError(t, limiter.Wait(context.Background(), "example.com"))
}

func TestHostLimiter_Distributed_RetryAfter(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.ctrl.Finish()

	limiter := newLimiterWithRedis(t, tm, testConfig(), true)

	gomock.InOrder(
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:host:example.com", gomock.Any()).
			Return(&redis_rate.Result{Allowed: 0, RetryAfter: 50 * time.Millisecond}, nil),
		tm.clock.EXPECT().
			After(gomock.Any()).
			DoAndReturn(func(d time.Duration) <-chan time.Time {
				assert.GreaterOrEqual(t, d, 25*time.Millisecond)
				assert.LessOrEqual(t, d, 75*time.Millisecond)
				ch := make(chan time.Time, 1)
				ch <- time.Now()
				return ch
			}),
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:host:example.com", gomock.Any()).
			Return(&redis_rate.Result{Allowed: 1}, nil),
	)

	assert.NoError(t, limiter.Wait(context.Background(), "example.com"))
}

func TestHostLimiter_RedisFailure_FallbackToLocal(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.ctrl.Finish()

	limiter := newLimiterWithRedis(t, tm, testConfig(), true)

	// Only the first call reaches Redis; afterwards the local limiter is used until the monitor sees Redis again
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "test:host:example.com", gomock.Any()).
		Return(nil, errors.New("redis connection error")).
		Times(1)

	ctx := context.Background()
	assert.NoError(t, limiter.Wait(ctx, "example.com"))
	assert.NoError(t, limiter.Wait(ctx, "example.com"))
}

func TestHostLimiter_RedisUnavailableAtStart(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.ctrl.Finish()

	limiter := newLimiterWithRedis(t, tm, testConfig(), false)

	// Allow must not be called while Redis is marked unavailable
	assert.NoError(t, limiter.Wait(context.Background(), "example.com"))
}

func TestHostLimiter_RedisFailure_NoFallback(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.ctrl.Finish()

	cfg := testConfig()
	cfg.EnableLocalFallback = false
	limiter := newLimiterWithRedis(t, tm, cfg, true)

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis connection error"))

	err := limiter.Wait(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis rate limiter unavailable")
}

func TestHostLimiter_ContextCanceled(t *testing.T) {
	limiter, err := ratelimit.NewHostLimiter(testConfig(), nil, adapter.NewClock())
	require.NoError(t, err)
	defer limiter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, limiter.Wait(ctx, "example.com"))
}

func TestHostLimiter_Closed(t *testing.T) {
	limiter, err := ratelimit.NewHostLimiter(testConfig(), nil, adapter.NewClock())
	require.NoError(t, err)

	limiter.Close()
	limiter.Close()

	assert.ErrorIs(t, limiter.Wait(context.Background(), "example.com"), ratelimit.ErrLimiterClosed)
}

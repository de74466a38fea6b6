package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/cache"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/mocks"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

func testConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:   true,
		TTL:       5 * time.Minute,
		KeyPrefix: "test:subscription:",
	}
}

func testSubscription() *schema.Subscription {
	secret := "s3cret"
	return &schema.Subscription{
		ID:         7,
		TargetURL:  "https://receiver.example.com/hook",
		SecretKey:  &secret,
		EventTypes: []string{"order.created", "order.paid"},
		IsActive:   true,
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSubscriptionCache_SetThenGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	rc := mocks.NewMockRedisClient(ctrl)
	c := cache.NewSubscriptionCache(testConfig(), rc, adapter.NewJSON())
	ctx := context.Background()
	sub := testSubscription()

	var stored []byte
	rc.EXPECT().
		Set(gomock.Any(), "test:subscription:7", gomock.Any(), 5*time.Minute).
		DoAndReturn(func(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
			stored = value.([]byte)
			cmd := redis.NewStatusCmd(ctx)
			cmd.SetVal("OK")
			return cmd
		})
	require.NoError(t, c.Set(ctx, sub))

	rc.EXPECT().
		Get(gomock.Any(), "test:subscription:7").
		DoAndReturn(func(ctx context.Context, key string) *redis.StringCmd {
			cmd := redis.NewStringCmd(ctx)
			cmd.SetVal(string(stored))
			return cmd
		})

	got, err := c.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sub.ID, got.ID)
	assert.Equal(t, sub.TargetURL, got.TargetURL)
	assert.Equal(t, *sub.SecretKey, *got.SecretKey)
	assert.Equal(t, []string(sub.EventTypes), []string(got.EventTypes))
	assert.True(t, got.CreatedAt.Equal(sub.CreatedAt))
}

func TestSubscriptionCache_Miss(t *testing.T) {
	ctrl := gomock.NewController(t)
	rc := mocks.NewMockRedisClient(ctrl)
	c := cache.NewSubscriptionCache(testConfig(), rc, adapter.NewJSON())

	cmd := redis.NewStringCmd(context.Background())
	cmd.SetErr(redis.Nil)
	rc.EXPECT().Get(gomock.Any(), "test:subscription:9").Return(cmd)

	got, err := c.Get(context.Background(), 9)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSubscriptionCache_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("redis get error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rc := mocks.NewMockRedisClient(ctrl)
		c := cache.NewSubscriptionCache(testConfig(), rc, adapter.NewJSON())

		cmd := redis.NewStringCmd(ctx)
		cmd.SetErr(errors.New("connection refused"))
		rc.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cmd)

		_, err := c.Get(ctx, 1)
		assert.ErrorContains(t, err, "failed to get cached subscription")
	})

	t.Run("corrupt entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rc := mocks.NewMockRedisClient(ctrl)
		jsonAdapter := mocks.NewMockJSON(ctrl)
		c := cache.NewSubscriptionCache(testConfig(), rc, jsonAdapter)

		cmd := redis.NewStringCmd(ctx)
		cmd.SetVal("{")
		rc.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cmd)
		jsonAdapter.EXPECT().Unmarshal([]byte("{"), gomock.Any()).Return(errors.New("unexpected end of JSON input"))

		_, err := c.Get(ctx, 1)
		assert.ErrorContains(t, err, "failed to decode cached subscription")
	})

	t.Run("marshal error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rc := mocks.NewMockRedisClient(ctrl)
		jsonAdapter := mocks.NewMockJSON(ctrl)
		c := cache.NewSubscriptionCache(testConfig(), rc, jsonAdapter)

		jsonAdapter.EXPECT().Marshal(gomock.Any()).Return(nil, errors.New("unsupported value"))

		err := c.Set(ctx, testSubscription())
		assert.ErrorContains(t, err, "failed to encode subscription")
	})

	t.Run("redis set error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rc := mocks.NewMockRedisClient(ctrl)
		c := cache.NewSubscriptionCache(testConfig(), rc, adapter.NewJSON())

		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(errors.New("READONLY"))
		rc.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(cmd)

		err := c.Set(ctx, testSubscription())
		assert.ErrorContains(t, err, "failed to cache subscription")
	})
}

func TestSubscriptionCache_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	rc := mocks.NewMockRedisClient(ctrl)
	c := cache.NewSubscriptionCache(testConfig(), rc, adapter.NewJSON())

	cmd := redis.NewIntCmd(context.Background())
	cmd.SetVal(1)
	rc.EXPECT().Del(gomock.Any(), "test:subscription:7").Return(cmd)

	assert.NoError(t, c.Invalidate(context.Background(), 7))
}

func TestSubscriptionCache_DefaultTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	rc := mocks.NewMockRedisClient(ctrl)
	c := cache.NewSubscriptionCache(config.CacheConfig{KeyPrefix: "p:"}, rc, adapter.NewJSON())

	cmd := redis.NewStatusCmd(context.Background())
	cmd.SetVal("OK")
	rc.EXPECT().Set(gomock.Any(), "p:7", gomock.Any(), 10*time.Minute).Return(cmd)

	assert.NoError(t, c.Set(context.Background(), testSubscription()))
}

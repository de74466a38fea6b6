package retry_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-webhook-dispatcher/internal/retry"
)

func TestPolicy_ShouldRetry(t *testing.T) {
	p := retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Minute}

	assert.True(t, p.ShouldRetry(1))
	assert.True(t, p.ShouldRetry(2))
	assert.False(t, p.ShouldRetry(3))
	assert.False(t, p.ShouldRetry(4))

	single := retry.Policy{MaxAttempts: 1, BaseDelay: time.Second, MaxDelay: time.Minute}
	assert.False(t, single.ShouldRetry(1))
}

func TestPolicy_NextDelay(t *testing.T) {
	t.Run("doubles without jitter", func(t *testing.T) {
		p := retry.Policy{MaxAttempts: 10, BaseDelay: 10 * time.Second, MaxDelay: 15 * time.Minute}

		assert.Equal(t, 10*time.Second, p.NextDelay(1))
		assert.Equal(t, 20*time.Second, p.NextDelay(2))
		assert.Equal(t, 40*time.Second, p.NextDelay(3))
		assert.Equal(t, 80*time.Second, p.NextDelay(4))
	})

	t.Run("capped at max delay", func(t *testing.T) {
		p := retry.Policy{MaxAttempts: 20, BaseDelay: 10 * time.Second, MaxDelay: time.Minute}

		assert.Equal(t, time.Minute, p.NextDelay(4))
		assert.Equal(t, time.Minute, p.NextDelay(15))
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		p := retry.Policy{MaxAttempts: 10, BaseDelay: 10 * time.Second, MaxDelay: time.Hour, Jitter: 0.2}

		for i := 0; i < 200; i++ {
			d := p.NextDelay(2)
			assert.GreaterOrEqual(t, d, 16*time.Second)
			assert.LessOrEqual(t, d, 24*time.Second)
		}
	})

	t.Run("jitter never exceeds the cap", func(t *testing.T) {
		p := retry.Policy{MaxAttempts: 10, BaseDelay: 10 * time.Second, MaxDelay: 30 * time.Second, Jitter: 0.5}

		for i := 0; i < 200; i++ {
			assert.LessOrEqual(t, p.NextDelay(5), 30*time.Second)
		}
	})

	t.Run("attempt below one is treated as one", func(t *testing.T) {
		p := retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Minute}
		assert.Equal(t, time.Second, p.NextDelay(0))
	})
}

func TestPolicy_DelayWithRetryAfter(t *testing.T) {
	p := retry.Policy{MaxAttempts: 5, BaseDelay: 10 * time.Second, MaxDelay: 2 * time.Minute}

	assert.Equal(t, 10*time.Second, p.DelayWithRetryAfter(1, 0))
	assert.Equal(t, 10*time.Second, p.DelayWithRetryAfter(1, 5*time.Second), "shorter hint is ignored")
	assert.Equal(t, 90*time.Second, p.DelayWithRetryAfter(1, 90*time.Second))
	assert.Equal(t, 2*time.Minute, p.DelayWithRetryAfter(1, time.Hour), "hint is capped")
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 120*time.Second, retry.ParseRetryAfter("120", now))
	assert.Equal(t, 3*time.Second, retry.ParseRetryAfter(" 3 ", now))
	assert.Zero(t, retry.ParseRetryAfter("", now))
	assert.Zero(t, retry.ParseRetryAfter("0", now))
	assert.Zero(t, retry.ParseRetryAfter("-5", now))
	assert.Zero(t, retry.ParseRetryAfter("soon", now))

	date := now.Add(90 * time.Second).Format(http.TimeFormat)
	assert.Equal(t, 90*time.Second, retry.ParseRetryAfter(date, now))

	past := now.Add(-time.Minute).Format(http.TimeFormat)
	assert.Zero(t, retry.ParseRetryAfter(past, now))
}

package retry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy decides whether a failed attempt is retried and after how long
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the randomization factor applied to each delay, in [0, 1)
	Jitter float64
}

// ShouldRetry reports whether a chain whose attempt-th attempt failed gets another attempt
func (p Policy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// NextDelay returns the wait before the attempt following a failed attempt (1-based):
// BaseDelay * 2^(attempt-1), capped at MaxDelay and randomized by ±Jitter.
func (p Policy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: p.Jitter,
		Multiplier:          2,
		MaxInterval:         p.MaxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}

	// Randomization can push a capped interval past the cap
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// DelayWithRetryAfter raises the computed delay to the receiver's Retry-After hint, never beyond MaxDelay
func (p Policy) DelayWithRetryAfter(attempt int, retryAfter time.Duration) time.Duration {
	d := p.NextDelay(attempt)
	if retryAfter > d {
		d = retryAfter
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// ParseRetryAfter parses a Retry-After header value given as delay seconds or an HTTP date.
// Returns 0 when the value is absent, malformed, or in the past.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

package retry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/retry"
)

// recorder collects fired ids
type recorder struct {
	mu    sync.Mutex
	fired []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 100)}
}

func (r *recorder) fire(id string) {
	r.mu.Lock()
	r.fired = append(r.fired, id)
	r.mu.Unlock()
	r.ch <- id
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d fires, got %d", n, i)
		}
	}
}

func TestScheduler_FiresInDueOrder(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)
	s.Start(context.Background())
	defer s.Stop()

	now := clock.Now()
	s.Schedule("late", now.Add(60*time.Millisecond))
	s.Schedule("early", now.Add(20*time.Millisecond))
	s.Schedule("overdue", now.Add(-time.Second))

	rec.wait(t, 3)
	assert.Equal(t, []string{"overdue", "early", "late"}, rec.ids())
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_DoesNotFireEarly(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)
	s.Start(context.Background())
	defer s.Stop()

	start := clock.Now()
	s.Schedule("a", start.Add(80*time.Millisecond))
	rec.wait(t, 1)

	assert.GreaterOrEqual(t, clock.Since(start), 80*time.Millisecond)
}

func TestScheduler_Cancel(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)
	s.Start(context.Background())
	defer s.Stop()

	now := clock.Now()
	s.Schedule("cancelled", now.Add(30*time.Millisecond))
	s.Schedule("kept", now.Add(60*time.Millisecond))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Cancel("cancelled"))
	assert.False(t, s.Cancel("cancelled"))

	rec.wait(t, 1)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{"kept"}, rec.ids())
}

func TestScheduler_Reschedule(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)
	s.Start(context.Background())
	defer s.Stop()

	now := clock.Now()
	s.Schedule("a", now.Add(time.Hour))
	s.Schedule("a", now.Add(10*time.Millisecond))
	assert.Equal(t, 1, s.Len())

	rec.wait(t, 1)
	assert.Equal(t, []string{"a"}, rec.ids())
}

func TestScheduler_ScheduledBeforeStart(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)

	s.Schedule("a", clock.Now())
	s.Start(context.Background())
	defer s.Stop()

	rec.wait(t, 1)
}

func TestScheduler_Stop(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)
	s.Start(context.Background())

	s.Schedule("a", clock.Now().Add(50*time.Millisecond))
	s.Stop()
	s.Stop()

	// Schedules after Stop are ignored
	s.Schedule("b", clock.Now())

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.ids())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := retry.NewScheduler(adapter.NewClock(), func(string) {})
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Stop blocked without Start")
	}
}

func TestScheduler_ContextCancel(t *testing.T) {
	rec := newRecorder()
	clock := adapter.NewClock()
	s := retry.NewScheduler(clock, rec.fire)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	s.Schedule("a", clock.Now().Add(20*time.Millisecond))
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.ids())

	s.Stop()
}

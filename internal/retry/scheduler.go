package retry

import (
	"context"
	"sync"
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
)

// FireFunc is called from the timer loop for each chain whose retry is due. It must not block.
type FireFunc func(webhookID string)

// Scheduler re-enqueues chains when their retry delay elapses.
// A single goroutine waits on the earliest due time; no goroutine is parked per chain.
type Scheduler struct {
	clock adapter.Clock
	fire  FireFunc

	mu      sync.Mutex
	queue   *delayQueue
	wake    chan struct{}
	started bool
	stopped bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler calling fire for due chains
func NewScheduler(clock adapter.Clock, fire FireFunc) *Scheduler {
	return &Scheduler{
		clock: clock,
		fire:  fire,
		queue: newDelayQueue(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Start runs the timer loop until ctx is done or Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx)
}

// Schedule queues webhookID to fire at due, replacing any earlier schedule for it
func (s *Scheduler) Schedule(webhookID string, due time.Time) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue.push(webhookID, due)
	s.mu.Unlock()

	s.signal()
}

// Cancel removes webhookID from the queue, reporting whether it was queued
func (s *Scheduler) Cancel(webhookID string) bool {
	s.mu.Lock()
	removed := s.queue.remove(webhookID)
	s.mu.Unlock()

	if removed {
		s.signal()
	}
	return removed
}

// Len returns the number of chains waiting for their retry
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Stop ends the timer loop and waits for it to exit. Queued entries are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-s.done
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	const idle = time.Hour
	timer := s.clock.NewTimer(idle)
	defer timer.Stop()

	for {
		s.mu.Lock()
		due := s.queue.popDue(s.clock.Now())
		next, ok := s.queue.peek()
		s.mu.Unlock()

		for _, id := range due {
			s.fire(id)
		}

		wait := idle
		if ok {
			wait = max(next.Sub(s.clock.Now()), 0)
		}
		if !timer.Stop() {
			select {
			case <-timer.C():
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timer.C():
		}
	}
}

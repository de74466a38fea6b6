package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/dispatcher"
	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/matcher"
	"github.com/feral-file/ff-webhook-dispatcher/internal/metrics"
	"github.com/feral-file/ff-webhook-dispatcher/internal/retry"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

const (
	// InterruptedMessage is recorded on attempts found pending at startup
	InterruptedMessage = "delivery interrupted before completion"

	// queueFullRetryDelay is how long a chain waits when the worker queue is full
	queueFullRetryDelay = time.Second
)

// Engine runs delivery chains: it matches events, dispatches attempts on a worker pool and
// schedules retries until each chain succeeds or exhausts its attempts.
//
//go:generate mockgen -source=engine.go -destination=../mocks/engine.go -package=mocks -mock_names=Engine=MockEngine
type Engine interface {
	// Start starts the retry timer loop and resumes chains left unfinished by a previous run
	Start(ctx context.Context) error

	// Publish starts one chain per active subscription matching the event. A subscription that
	// already has a chain for the event id keeps it; its view is returned instead of a new chain.
	Publish(ctx context.Context, event domain.Event) ([]domain.DeliveryChain, error)

	// Deliver starts a chain to one subscription. The subscription must be active and
	// its filter must contain the event type.
	Deliver(ctx context.Context, subscription *schema.Subscription, event domain.Event) (*domain.DeliveryChain, error)

	// ChainState returns the state of a live chain
	ChainState(webhookID string) (*domain.DeliveryChain, bool)

	// Stop stops scheduling retries and waits for in-flight attempts until ctx is done.
	// Chains waiting for a retry stay durable and resume on the next Start.
	Stop(ctx context.Context) error
}

// Observer is called once when a chain leaves the engine, with its final view
type Observer func(chain domain.DeliveryChain)

// Option configures an engine
type Option func(*engine)

// WithObserver registers fn to be called when a chain finishes or is abandoned
func WithObserver(fn Observer) Option {
	return func(e *engine) {
		e.observer = fn
	}
}

type engine struct {
	config     config.DispatcherConfig
	store      store.Store
	matcher    matcher.Matcher
	dispatcher dispatcher.Dispatcher
	clock      adapter.Clock
	policy     retry.Policy
	scheduler  *retry.Scheduler
	chains     *registry
	observer   Observer

	pool     pond.Pool
	hostMu   sync.Mutex
	hostPool map[string]pond.Pool

	runCtx    context.Context
	cancelRun context.CancelFunc
	started   atomic.Bool
	stopped   atomic.Bool
}

// New creates a delivery engine
func New(
	cfg config.DispatcherConfig,
	st store.Store,
	m matcher.Matcher,
	d dispatcher.Dispatcher,
	clock adapter.Clock,
	opts ...Option,
) Engine {
	if cfg.MaxConcurrentPerHost <= 0 {
		cfg.MaxConcurrentPerHost = cfg.WorkerPoolSize
	}

	e := &engine{
		config:     cfg,
		store:      st,
		matcher:    m,
		dispatcher: d,
		clock:      clock,
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    cfg.MaxDelay,
			Jitter:      cfg.Jitter,
		},
		chains:   newRegistry(),
		hostPool: make(map[string]pond.Pool),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.runCtx, e.cancelRun = context.WithCancel(context.Background())
	e.scheduler = retry.NewScheduler(clock, e.onRetryDue)
	e.pool = pond.NewPool(
		cfg.WorkerPoolSize,
		pond.WithQueueSize(cfg.QueueSize),
		pond.WithNonBlocking(true),
	)

	return e
}

func (e *engine) Start(ctx context.Context) error {
	if e.stopped.Load() {
		return domain.ErrEngineStopped
	}
	if !e.started.CompareAndSwap(false, true) {
		return nil
	}

	e.scheduler.Start(e.runCtx)

	logger.InfoCtx(ctx, "Delivery engine started",
		zap.Int("workers", e.config.WorkerPoolSize),
		zap.Int("maxConcurrentPerHost", e.config.MaxConcurrentPerHost),
		zap.Int("maxAttempts", e.config.MaxAttempts))

	return e.resumeUnfinished(ctx)
}

func (e *engine) Publish(ctx context.Context, event domain.Event) ([]domain.DeliveryChain, error) {
	if e.stopped.Load() {
		return nil, domain.ErrEngineStopped
	}
	event = e.normalizeEvent(event)

	subs, err := e.matcher.Match(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to match event: %w", err)
	}
	if len(subs) == 0 {
		logger.InfoCtx(ctx, "Event published",
			zap.String("eventID", event.ID),
			zap.String("eventType", event.Type),
			zap.Int("chains", 0))
		return []domain.DeliveryChain{}, nil
	}

	// A redelivered event reuses the chains it already started
	heads, err := e.store.GetChainHeadsByEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chains of event: %w", err)
	}
	started := make(map[uint64]*schema.DeliveryLog, len(heads))
	for _, head := range heads {
		started[head.SubscriptionID] = head
	}

	views := make([]domain.DeliveryChain, 0, len(subs))
	var duplicates int
	for _, sub := range subs {
		if head, ok := started[sub.ID]; ok {
			views = append(views, e.recordedView(head))
			duplicates++
			continue
		}

		c, created, err := e.startChain(sub, event)
		if err != nil {
			return nil, err
		}
		if !created {
			duplicates++
		}
		views = append(views, c.snapshot())
	}

	logger.InfoCtx(ctx, "Event published",
		zap.String("eventID", event.ID),
		zap.String("eventType", event.Type),
		zap.Int("chains", len(views)),
		zap.Int("duplicates", duplicates))

	return views, nil
}

func (e *engine) Deliver(ctx context.Context, sub *schema.Subscription, event domain.Event) (*domain.DeliveryChain, error) {
	if e.stopped.Load() {
		return nil, domain.ErrEngineStopped
	}
	if !sub.IsActive {
		return nil, domain.NewValidationError("subscription", "is not active")
	}
	if !domain.MatchesEventType(sub.EventTypes, event.Type) {
		return nil, domain.NewValidationError("event_type", "is not in the subscription's event types")
	}

	event = e.normalizeEvent(event)
	c, _, err := e.startChain(sub, event)
	if err != nil {
		return nil, err
	}
	view := c.snapshot()

	logger.InfoCtx(ctx, "Event ingested for subscription",
		zap.Uint64("subscriptionID", sub.ID),
		zap.String("eventID", event.ID),
		zap.String("webhookID", c.webhookID))

	return &view, nil
}

func (e *engine) ChainState(webhookID string) (*domain.DeliveryChain, bool) {
	c, ok := e.chains.get(webhookID)
	if !ok {
		return nil, false
	}
	view := c.snapshot()
	return &view, true
}

func (e *engine) Stop(ctx context.Context) error {
	if !e.stopped.CompareAndSwap(false, true) {
		return nil
	}

	e.scheduler.Stop()
	metrics.RetryQueueDepth.Set(0)

	done := make(chan struct{})
	go func() {
		defer close(done)

		e.hostMu.Lock()
		pools := make([]pond.Pool, 0, len(e.hostPool))
		for _, p := range e.hostPool {
			pools = append(pools, p)
		}
		e.hostMu.Unlock()

		for _, p := range pools {
			p.StopAndWait()
		}
		e.pool.StopAndWait()
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		// Abort in-flight calls; their results are still recorded
		e.cancelRun()
		<-done
		err = ctx.Err()
	}
	e.cancelRun()

	logger.InfoCtx(ctx, "Delivery engine stopped",
		zap.Int("liveChains", e.chains.len()),
		zap.Uint64("completedTasks", e.pool.CompletedTasks()))

	return err
}

func (e *engine) normalizeEvent(event domain.Event) domain.Event {
	now := e.clock.Now()
	if event.ID == "" {
		event.ID = ulid.MustNewDefault(now).String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now
	}
	return event
}

// startChain registers a chain for sub and submits its first attempt. When the event already
// has a live chain to sub, that chain is returned with created false.
func (e *engine) startChain(sub *schema.Subscription, event domain.Event) (*chain, bool, error) {
	c := &chain{
		webhookID:    ulid.MustNewDefault(e.clock.Now()).String(),
		subscription: sub,
		eventID:      event.ID,
		eventType:    event.Type,
		payload:      event.Payload,
		state:        domain.ChainStateScheduled,
	}

	live, added := e.chains.add(c)
	if !added {
		return live, false, nil
	}
	if !e.enqueue(c) {
		e.chains.remove(c)
		return nil, false, domain.ErrEngineStopped
	}
	return c, true, nil
}

// recordedView describes a chain known only from its latest delivery log row
func (e *engine) recordedView(head *schema.DeliveryLog) domain.DeliveryChain {
	if c, ok := e.chains.get(head.WebhookID); ok {
		return c.snapshot()
	}

	view := domain.DeliveryChain{
		WebhookID:      head.WebhookID,
		SubscriptionID: head.SubscriptionID,
		EventID:        head.EventID,
		EventType:      head.EventType,
		Attempt:        head.AttemptNumber,
	}
	switch {
	case head.Status == schema.DeliveryStatusSuccess:
		view.State = domain.ChainStateSuccess
	case head.Status == schema.DeliveryStatusPending:
		view.State = domain.ChainStateInFlight
	case e.policy.ShouldRetry(head.AttemptNumber):
		view.State = domain.ChainStateRetryPending
	default:
		view.State = domain.ChainStateExhausted
	}
	return view
}

// enqueue submits the chain's next attempt to the pool of its target host.
// It reports false when the engine is stopping and the attempt was not accepted.
func (e *engine) enqueue(c *chain) bool {
	if e.stopped.Load() {
		return false
	}
	c.setState(domain.ChainStateScheduled, nil)

	p := e.hostPoolFor(c.subscription.TargetURL)
	if p == nil {
		return false
	}

	err := p.Go(func() {
		e.runAttempt(c)
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, pond.ErrQueueFull):
		due := e.clock.Now().Add(queueFullRetryDelay)
		logger.Warn("Worker queue full, delaying delivery",
			zap.String("webhookID", c.webhookID),
			zap.Duration("delay", queueFullRetryDelay))
		c.setState(domain.ChainStateRetryPending, &due)
		e.scheduler.Schedule(c.webhookID, due)
		return true
	default:
		// Pool stopped: the durable log lets the next start resume the chain
		logger.Debug("Delivery not submitted, engine stopping",
			zap.String("webhookID", c.webhookID),
			zap.Error(err))
		return false
	}
}

func (e *engine) hostPoolFor(targetURL string) pond.Pool {
	host := targetURL
	if u, err := url.Parse(targetURL); err == nil {
		host = u.Host
	}

	e.hostMu.Lock()
	defer e.hostMu.Unlock()

	if e.stopped.Load() {
		return nil
	}
	p, ok := e.hostPool[host]
	if !ok {
		p = e.pool.NewSubpool(
			e.config.MaxConcurrentPerHost,
			pond.WithQueueSize(e.config.QueueSize),
			pond.WithNonBlocking(true),
		)
		e.hostPool[host] = p
	}
	return p
}

// onRetryDue runs on the scheduler loop and must not block
func (e *engine) onRetryDue(webhookID string) {
	metrics.RetryQueueDepth.Set(float64(e.scheduler.Len()))

	c, ok := e.chains.get(webhookID)
	if !ok {
		return
	}
	e.enqueue(c)
}

func (e *engine) runAttempt(c *chain) {
	attempt := c.begin()
	ctx := logger.WithFields(e.runCtx,
		zap.String("webhookID", c.webhookID),
		zap.String("eventID", c.eventID),
		zap.Uint64("subscriptionID", c.subscription.ID))

	outcome, err := e.dispatcher.Attempt(ctx, dispatcher.Request{
		Subscription:  c.subscription,
		WebhookID:     c.webhookID,
		AttemptNumber: attempt,
		EventID:       c.eventID,
		EventType:     c.eventType,
		Payload:       c.payload,
	})
	if err != nil {
		if attempt == 1 && errors.Is(err, domain.ErrAttemptConflict) {
			// Another chain already delivers this event to the subscription
			logger.InfoCtx(ctx, "Dropping duplicate delivery chain", zap.Error(err))
			metrics.WebhookChains.WithLabelValues("duplicate").Inc()
			e.finish(c)
			return
		}
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record delivery attempt, abandoning chain: %w", err),
			zap.Int("attempt", attempt))
		metrics.WebhookChains.WithLabelValues("abandoned").Inc()
		e.finish(c)
		return
	}

	if outcome.Success() {
		e.scheduler.Cancel(c.webhookID)
		c.setState(domain.ChainStateSuccess, nil)
		metrics.WebhookChains.WithLabelValues(string(domain.ChainStateSuccess)).Inc()
		e.finish(c)
		return
	}

	e.afterFailure(ctx, c, attempt, outcome.RetryAfter)
}

// afterFailure schedules the next attempt or marks the chain exhausted
func (e *engine) afterFailure(ctx context.Context, c *chain, attempt int, retryAfter time.Duration) {
	if !e.policy.ShouldRetry(attempt) {
		c.setState(domain.ChainStateExhausted, nil)
		logger.WarnCtx(ctx, "Delivery chain exhausted",
			zap.Error(&domain.ExhaustionError{WebhookID: c.webhookID, Attempts: attempt}))
		metrics.WebhookChains.WithLabelValues(string(domain.ChainStateExhausted)).Inc()
		e.finish(c)
		return
	}

	delay := e.policy.DelayWithRetryAfter(attempt, retryAfter)
	due := e.clock.Now().Add(delay)
	e.scheduleRetry(c, due)

	logger.InfoCtx(ctx, "Delivery retry scheduled",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay))
}

func (e *engine) scheduleRetry(c *chain, due time.Time) {
	c.setState(domain.ChainStateRetryPending, &due)
	e.scheduler.Schedule(c.webhookID, due)
	metrics.RetryQueueDepth.Set(float64(e.scheduler.Len()))
}

func (e *engine) finish(c *chain) {
	e.chains.remove(c)
	if e.observer != nil {
		e.observer(c.snapshot())
	}
}

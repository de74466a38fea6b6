package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/errors"
	"github.com/feral-file/ff-webhook-dispatcher/internal/cache"
	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/engine"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// Executor is the interface for the API executor.
// Every error it returns is an *apierrors.APIError.
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// CreateSubscription validates and persists a subscription
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// ListSubscriptions returns all subscriptions in creation order
	ListSubscriptions(ctx context.Context) ([]dto.SubscriptionResponse, error)

	// GetSubscription returns a single subscription
	GetSubscription(ctx context.Context, id uint64) (*dto.SubscriptionResponse, error)

	// ToggleSubscription sets is_active; setting the current value is a no-op
	ToggleSubscription(ctx context.Context, id uint64, active bool) (*dto.SubscriptionResponse, error)

	// ListDeliveryLogs returns a subscription's delivery logs, oldest first
	ListDeliveryLogs(ctx context.Context, subscriptionID uint64, limit int) ([]dto.DeliveryLogResponse, error)

	// GetWebhookStatus returns the state of one delivery chain
	GetWebhookStatus(ctx context.Context, webhookID string) (*dto.WebhookStatusResponse, error)

	// PublishEvent fans an event out to every matching active subscription
	PublishEvent(ctx context.Context, req dto.PublishEventRequest) (*dto.PublishEventResponse, error)

	// Ingest starts one delivery chain for an explicitly targeted subscription
	Ingest(ctx context.Context, subscriptionID uint64, eventType string, payload json.RawMessage) (*dto.IngestResponse, error)
}

type executor struct {
	store       store.Store
	cache       cache.SubscriptionCache
	engine      engine.Engine
	maxAttempts int
	clock       adapter.Clock
}

// NewExecutor creates the executor. subCache may be nil.
func NewExecutor(st store.Store, subCache cache.SubscriptionCache, eng engine.Engine, maxAttempts int, clock adapter.Clock) Executor {
	return &executor{
		store:       st,
		cache:       subCache,
		engine:      eng,
		maxAttempts: maxAttempts,
		clock:       clock,
	}
}

func (e *executor) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	sub, err := e.store.CreateSubscription(ctx, store.CreateSubscriptionInput{
		TargetURL:  strings.TrimSpace(req.TargetURL),
		SecretKey:  req.SecretKey,
		EventTypes: req.EventTypes,
		IsActive:   isActive,
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, apierrors.NewValidationError(err.Error())
		}
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to create subscription: %v", err))
	}

	logger.InfoCtx(ctx, "Subscription created",
		zap.Uint64("subscriptionID", sub.ID),
		zap.String("targetURL", sub.TargetURL),
		zap.Strings("eventTypes", []string(sub.EventTypes)),
	)

	return dto.MapSubscriptionToDTO(sub), nil
}

func (e *executor) ListSubscriptions(ctx context.Context) ([]dto.SubscriptionResponse, error) {
	subs, err := e.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list subscriptions: %v", err))
	}
	return dto.MapSubscriptionsToDTO(subs), nil
}

func (e *executor) GetSubscription(ctx context.Context, id uint64) (*dto.SubscriptionResponse, error) {
	sub, err := e.getSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.MapSubscriptionToDTO(sub), nil
}

func (e *executor) ToggleSubscription(ctx context.Context, id uint64, active bool) (*dto.SubscriptionResponse, error) {
	sub, changed, err := e.store.SetSubscriptionActive(ctx, id, active)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return nil, apierrors.NewNotFoundError("Subscription not found", err.Error())
		}
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to update subscription: %v", err))
	}

	if changed {
		e.invalidate(ctx, id)
		logger.InfoCtx(ctx, "Subscription toggled",
			zap.Uint64("subscriptionID", id),
			zap.Bool("isActive", active),
		)
	}

	return dto.MapSubscriptionToDTO(sub), nil
}

func (e *executor) ListDeliveryLogs(ctx context.Context, subscriptionID uint64, limit int) ([]dto.DeliveryLogResponse, error) {
	if _, err := e.getSubscription(ctx, subscriptionID); err != nil {
		return nil, err
	}

	logs, err := e.store.ListDeliveryLogsBySubscription(ctx, subscriptionID, limit)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list delivery logs: %v", err))
	}
	return dto.MapDeliveryLogsToDTO(logs), nil
}

func (e *executor) GetWebhookStatus(ctx context.Context, webhookID string) (*dto.WebhookStatusResponse, error) {
	logs, err := e.store.ListDeliveryLogsByWebhookID(ctx, webhookID)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get delivery logs: %v", err))
	}

	live, ok := e.engine.ChainState(webhookID)
	if !ok && len(logs) == 0 {
		return nil, apierrors.NewNotFoundError("Webhook not found", webhookID)
	}

	resp := &dto.WebhookStatusResponse{WebhookID: webhookID}
	if len(logs) > 0 {
		last := logs[len(logs)-1]
		lastAt := last.Timestamp.UTC()
		resp.SubscriptionID = last.SubscriptionID
		resp.EventID = last.EventID
		resp.EventType = last.EventType
		resp.Attempts = last.AttemptNumber
		resp.LastAttemptAt = &lastAt
		resp.LastHTTPStatus = last.HTTPStatus
		resp.LastError = last.ErrorMessage
		resp.State = e.stateFromLog(last)
	}

	if ok {
		resp.SubscriptionID = live.SubscriptionID
		resp.EventID = live.EventID
		resp.EventType = live.EventType
		resp.State = live.State
		resp.Attempts = live.Attempt
		resp.NextAttemptAt = live.NextAttemptAt
	}

	return resp, nil
}

// stateFromLog derives a chain state from its latest row once the chain is no longer live
func (e *executor) stateFromLog(last *schema.DeliveryLog) domain.ChainState {
	switch last.Status {
	case schema.DeliveryStatusSuccess:
		return domain.ChainStateSuccess
	case schema.DeliveryStatusPending:
		return domain.ChainStateInFlight
	default:
		if last.AttemptNumber >= e.maxAttempts {
			return domain.ChainStateExhausted
		}
		return domain.ChainStateRetryPending
	}
}

func (e *executor) PublishEvent(ctx context.Context, req dto.PublishEventRequest) (*dto.PublishEventResponse, error) {
	event := domain.Event{
		ID:      req.EventID,
		Type:    strings.TrimSpace(req.EventType),
		Payload: req.Payload,
	}
	if req.OccurredAt != nil {
		event.OccurredAt = *req.OccurredAt
	}
	if !event.Valid() {
		return nil, apierrors.NewValidationError("event_type is required, payload must be valid JSON and event_id at most 64 characters")
	}
	if event.ID == "" {
		event.ID = ulid.MustNewDefault(e.clock.Now()).String()
	}

	chains, err := e.engine.Publish(ctx, event)
	if err != nil {
		return nil, mapEngineError(err, "Failed to publish event")
	}

	resp := &dto.PublishEventResponse{
		EventID:    event.ID,
		WebhookIDs: make([]string, 0, len(chains)),
	}
	for _, c := range chains {
		resp.WebhookIDs = append(resp.WebhookIDs, c.WebhookID)
	}

	return resp, nil
}

func (e *executor) Ingest(ctx context.Context, subscriptionID uint64, eventType string, payload json.RawMessage) (*dto.IngestResponse, error) {
	event := domain.Event{
		Type:    strings.TrimSpace(eventType),
		Payload: payload,
	}
	if !event.Valid() {
		return nil, apierrors.NewValidationError("event type header is required and body must be valid JSON")
	}

	// The active flag gates new chains, so it is read from the store and never from the cache
	sub, err := e.loadSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	chain, err := e.engine.Deliver(ctx, sub, event)
	if err != nil {
		return nil, mapEngineError(err, "Failed to accept event")
	}

	return &dto.IngestResponse{
		Status:    "accepted",
		WebhookID: chain.WebhookID,
		Message:   "Event accepted for delivery",
	}, nil
}

// getSubscription reads through the cache when one is configured. Cached rows may lag a toggle
// by up to the cache TTL, so they only serve reads.
func (e *executor) getSubscription(ctx context.Context, id uint64) (*schema.Subscription, error) {
	if e.cache != nil {
		sub, err := e.cache.Get(ctx, id)
		if err != nil {
			logger.WarnCtx(ctx, "Subscription cache read failed", zap.Error(err), zap.Uint64("subscriptionID", id))
		} else if sub != nil {
			return sub, nil
		}
	}

	sub, err := e.loadSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, sub); err != nil {
			logger.WarnCtx(ctx, "Subscription cache write failed", zap.Error(err), zap.Uint64("subscriptionID", id))
		}
	}

	return sub, nil
}

// loadSubscription reads a subscription from the store
func (e *executor) loadSubscription(ctx context.Context, id uint64) (*schema.Subscription, error) {
	sub, err := e.store.GetSubscriptionByID(ctx, id)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get subscription: %v", err))
	}
	if sub == nil {
		return nil, apierrors.NewNotFoundError("Subscription not found", domain.NewNotFoundError("subscription", id).Error())
	}
	return sub, nil
}

func (e *executor) invalidate(ctx context.Context, id uint64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, id); err != nil {
		logger.WarnCtx(ctx, "Subscription cache invalidation failed", zap.Error(err), zap.Uint64("subscriptionID", id))
	}
}

func mapEngineError(err error, message string) *apierrors.APIError {
	switch {
	case domain.IsValidationError(err):
		return apierrors.NewValidationError(err.Error())
	case errors.Is(err, domain.ErrEngineStopped):
		return apierrors.NewServiceError("Delivery engine is shutting down")
	default:
		return apierrors.NewDatabaseError(fmt.Sprintf("%s: %v", message, err))
	}
}

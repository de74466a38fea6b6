package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/metrics"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// resumeUnfinished resumes chains whose latest attempt is pending or failed below max attempts.
// A pending head was interrupted mid-call: it is closed as failed before the chain continues.
func (e *engine) resumeUnfinished(ctx context.Context) error {
	heads, err := e.store.GetUnfinishedChainHeads(ctx, e.config.MaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to load unfinished delivery chains: %w", err)
	}
	if len(heads) == 0 {
		return nil
	}

	subs := make(map[uint64]*schema.Subscription)
	var resumed, exhausted int

	for _, head := range heads {
		sub, ok := subs[head.SubscriptionID]
		if !ok {
			sub, err = e.store.GetSubscriptionByID(ctx, head.SubscriptionID)
			if err != nil {
				return fmt.Errorf("failed to load subscription %d: %w", head.SubscriptionID, err)
			}
			subs[head.SubscriptionID] = sub
		}
		if sub == nil {
			logger.WarnCtx(ctx, "Skipping chain of unknown subscription",
				zap.String("webhookID", head.WebhookID),
				zap.Uint64("subscriptionID", head.SubscriptionID))
			continue
		}

		if head.Status == schema.DeliveryStatusPending {
			closed, err := e.closeInterrupted(ctx, head)
			if err != nil {
				return err
			}
			if !closed {
				continue
			}
		}

		if !e.policy.ShouldRetry(head.AttemptNumber) {
			logger.WarnCtx(ctx, "Delivery chain exhausted",
				zap.Error(&domain.ExhaustionError{WebhookID: head.WebhookID, Attempts: head.AttemptNumber}))
			metrics.WebhookChains.WithLabelValues(string(domain.ChainStateExhausted)).Inc()
			exhausted++
			continue
		}

		c := &chain{
			webhookID:    head.WebhookID,
			subscription: sub,
			eventID:      head.EventID,
			eventType:    head.EventType,
			payload:      []byte(head.Payload),
			attempt:      head.AttemptNumber,
		}
		if _, added := e.chains.add(c); !added {
			continue
		}

		// Due relative to the failed attempt; overdue retries fire immediately
		due := head.Timestamp.Add(e.policy.NextDelay(head.AttemptNumber))
		if now := e.clock.Now(); due.Before(now) {
			due = now
		}
		e.scheduleRetry(c, due)
		resumed++
	}

	logger.InfoCtx(ctx, "Recovered unfinished delivery chains",
		zap.Int("resumed", resumed),
		zap.Int("exhausted", exhausted))

	return nil
}

// closeInterrupted marks a pending head as failed. It reports false when the row was completed
// by someone else in the meantime.
func (e *engine) closeInterrupted(ctx context.Context, head *schema.DeliveryLog) (bool, error) {
	msg := InterruptedMessage
	_, err := e.store.CompleteAttempt(ctx, store.CompleteAttemptInput{
		WebhookID:     head.WebhookID,
		AttemptNumber: head.AttemptNumber,
		Status:        schema.DeliveryStatusFailed,
		ErrorMessage:  &msg,
		CompletedAt:   e.clock.Now(),
	})
	if errors.Is(err, domain.ErrAttemptNotPending) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to close interrupted attempt of %s: %w", head.WebhookID, err)
	}

	logger.InfoCtx(ctx, "Closed interrupted delivery attempt",
		zap.String("webhookID", head.WebhookID),
		zap.Int("attempt", head.AttemptNumber))
	return true, nil
}

package matcher

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// Matcher selects the subscriptions an event must be delivered to
//
//go:generate mockgen -source=matcher.go -destination=../mocks/matcher.go -package=mocks -mock_names=Matcher=MockMatcher
type Matcher interface {
	// Match returns every active subscription whose event type filter contains the event type.
	// The result is taken from a single snapshot of the store read at call time.
	Match(ctx context.Context, event domain.Event) ([]*schema.Subscription, error)
}

type matcher struct {
	subscriptions store.SubscriptionStore
}

// New creates a matcher backed by the subscription store
func New(subscriptions store.SubscriptionStore) Matcher {
	return &matcher{subscriptions: subscriptions}
}

func (m *matcher) Match(ctx context.Context, event domain.Event) ([]*schema.Subscription, error) {
	if event.Type == "" {
		return nil, nil
	}

	candidates, err := m.subscriptions.ListActiveSubscriptionsByEventType(ctx, event.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for %s: %w", event.Type, err)
	}

	return Filter(candidates, event.Type), nil
}

// Filter keeps the active subscriptions whose filter contains eventType, preserving order.
// Store queries already narrow by type; this keeps the exact membership rule in one place.
func Filter(subs []*schema.Subscription, eventType string) []*schema.Subscription {
	var matched []*schema.Subscription
	for _, sub := range subs {
		if sub.IsActive && domain.MatchesEventType(sub.EventTypes, eventType) {
			matched = append(matched, sub)
		}
	}
	return matched
}

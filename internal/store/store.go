package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// CreateSubscriptionInput is the input for creating a subscription
type CreateSubscriptionInput struct {
	TargetURL  string
	SecretKey  *string
	EventTypes []string
	IsActive   bool
}

// BeginAttemptInput describes the pending row written before an outbound call
type BeginAttemptInput struct {
	WebhookID      string
	SubscriptionID uint64
	AttemptNumber  int
	EventID        string
	EventType      string
	TargetURL      string
	Payload        json.RawMessage
	Timestamp      time.Time
}

// CompleteAttemptInput moves a pending row to success or failed
type CompleteAttemptInput struct {
	WebhookID     string
	AttemptNumber int
	Status        schema.DeliveryStatus
	HTTPStatus    *int
	ErrorMessage  *string
	ResponseBody  *string
	LatencyMs     *int64
	CompletedAt   time.Time
}

// SubscriptionStore is the durable registry of subscriptions. Subscriptions are never deleted.
type SubscriptionStore interface {
	// CreateSubscription validates and persists a subscription.
	// Returns a *domain.ValidationError for a malformed target URL or event type list.
	CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*schema.Subscription, error)
	// GetSubscriptionByID returns nil, nil when the id is unknown
	GetSubscriptionByID(ctx context.Context, id uint64) (*schema.Subscription, error)
	// ListSubscriptions returns all subscriptions in creation order
	ListSubscriptions(ctx context.Context) ([]*schema.Subscription, error)
	// ListActiveSubscriptionsByEventType returns a snapshot of the active subscriptions whose
	// event types contain eventType, in creation order
	ListActiveSubscriptionsByEventType(ctx context.Context, eventType string) ([]*schema.Subscription, error)
	// SetSubscriptionActive sets is_active. It is a no-op when the value is unchanged; changed reports
	// whether a write happened. Returns a *domain.NotFoundError when the id is unknown.
	SetSubscriptionActive(ctx context.Context, id uint64, active bool) (sub *schema.Subscription, changed bool, err error)
}

// DeliveryLogStore is the append-mostly audit trail of delivery attempts
type DeliveryLogStore interface {
	// BeginAttempt appends the pending row for an attempt.
	// Fails with domain.ErrAttemptConflict when the attempt would create a gap, a second pending row,
	// a row after a successful attempt, or a second chain for the same event and subscription.
	BeginAttempt(ctx context.Context, input BeginAttemptInput) (*schema.DeliveryLog, error)
	// CompleteAttempt transitions a pending row to success or failed.
	// Fails with domain.ErrAttemptNotPending when the row is missing or already complete.
	CompleteAttempt(ctx context.Context, input CompleteAttemptInput) (*schema.DeliveryLog, error)
	// ListDeliveryLogsBySubscription returns logs ordered by timestamp ascending (ties by id).
	// A positive limit keeps only the most recent rows, still in ascending order.
	ListDeliveryLogsBySubscription(ctx context.Context, subscriptionID uint64, limit int) ([]*schema.DeliveryLog, error)
	// ListDeliveryLogsByWebhookID returns one chain ordered by attempt number
	ListDeliveryLogsByWebhookID(ctx context.Context, webhookID string) ([]*schema.DeliveryLog, error)
	// GetChainHeadsByEventID returns the latest row of every chain started for an event
	GetChainHeadsByEventID(ctx context.Context, eventID string) ([]*schema.DeliveryLog, error)
	// GetUnfinishedChainHeads returns the latest row of every chain that is pending or failed
	// below maxAttempts
	GetUnfinishedChainHeads(ctx context.Context, maxAttempts int) ([]*schema.DeliveryLog, error)
	// DeleteTerminalChainsBefore deletes whole chains whose latest row is terminal and older than cutoff.
	// Returns the number of rows removed.
	DeleteTerminalChainsBefore(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error)
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	SubscriptionStore
	DeliveryLogStore
}

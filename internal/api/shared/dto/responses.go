package dto

import (
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
)

// PublishEventResponse represents the response for publishing an event
type PublishEventResponse struct {
	EventID    string   `json:"event_id"`
	WebhookIDs []string `json:"webhook_ids"`
}

// IngestResponse represents the response for a targeted ingest
type IngestResponse struct {
	Status    string `json:"status"`
	WebhookID string `json:"webhook_id"`
	Message   string `json:"message"`
}

// WebhookStatusResponse is the state of one delivery chain
type WebhookStatusResponse struct {
	WebhookID      string            `json:"webhook_id"`
	SubscriptionID uint64            `json:"subscription_id"`
	EventID        string            `json:"event_id"`
	EventType      string            `json:"event_type"`
	State          domain.ChainState `json:"state"`
	Attempts       int               `json:"attempts"`
	LastAttemptAt  *time.Time        `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int              `json:"last_http_status,omitempty"`
	LastError      *string           `json:"last_error,omitempty"`
	NextAttemptAt  *time.Time        `json:"next_attempt_at,omitempty"`
}

package dto

import (
	"encoding/json"
	"time"
)

// CreateSubscriptionRequest represents the request body for POST /subscriptions/
type CreateSubscriptionRequest struct {
	TargetURL  string   `json:"target_url"`
	SecretKey  *string  `json:"secret_key,omitempty"`
	EventTypes []string `json:"event_types"`
	IsActive   *bool    `json:"is_active,omitempty"` // defaults to true
}

// ToggleSubscriptionRequest represents the request body for PUT /subscriptions/:id
type ToggleSubscriptionRequest struct {
	IsActive *bool `json:"is_active"`
}

// PublishEventRequest represents the request body for POST /events and NATS intake
type PublishEventRequest struct {
	EventID    string          `json:"event_id,omitempty"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
}

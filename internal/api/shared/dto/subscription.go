package dto

import (
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// SubscriptionResponse is the public view of a subscription. The secret itself is never returned.
type SubscriptionResponse struct {
	ID         uint64    `json:"id"`
	TargetURL  string    `json:"target_url"`
	HasSecret  bool      `json:"has_secret"`
	EventTypes []string  `json:"event_types"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MapSubscriptionToDTO maps a subscription row to its response
func MapSubscriptionToDTO(sub *schema.Subscription) *SubscriptionResponse {
	eventTypes := []string(sub.EventTypes)
	if eventTypes == nil {
		eventTypes = []string{}
	}
	return &SubscriptionResponse{
		ID:         sub.ID,
		TargetURL:  sub.TargetURL,
		HasSecret:  sub.HasSecret(),
		EventTypes: eventTypes,
		IsActive:   sub.IsActive,
		CreatedAt:  sub.CreatedAt.UTC(),
		UpdatedAt:  sub.UpdatedAt.UTC(),
	}
}

// MapSubscriptionsToDTO maps a list of subscriptions, never returning nil
func MapSubscriptionsToDTO(subs []*schema.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, *MapSubscriptionToDTO(sub))
	}
	return out
}

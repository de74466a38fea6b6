package domain

import (
	"encoding/json"
	"time"
)

// MaxEventIDLength bounds caller supplied event ids
const MaxEventIDLength = 64

// Event is an inbound occurrence that fans out to matching subscriptions.
// It is never persisted on its own; only the delivery logs it spawns are.
type Event struct {
	// ID identifies the event (ULID). Generated on receipt when empty.
	// An event id gets at most one delivery chain per subscription.
	ID string `json:"event_id"`
	// Type is matched against subscription event_types by exact membership
	Type string `json:"event_type"`
	// Payload is the JSON body delivered to each receiver, byte for byte
	Payload json.RawMessage `json:"payload"`
	// OccurredAt defaults to the receipt time
	OccurredAt time.Time `json:"occurred_at"`
}

// Valid reports whether the event carries the fields required for dispatch
func (e *Event) Valid() bool {
	if e.Type == "" || len(e.ID) > MaxEventIDLength {
		return false
	}
	return len(e.Payload) > 0 && json.Valid(e.Payload)
}

// ChainState is the state of a delivery chain in the retry state machine
type ChainState string

const (
	// ChainStateScheduled means the next attempt is queued for a worker
	ChainStateScheduled ChainState = "scheduled"
	// ChainStateInFlight means an attempt is currently running
	ChainStateInFlight ChainState = "in_flight"
	// ChainStateRetryPending means the last attempt failed and a retry timer is armed
	ChainStateRetryPending ChainState = "retry_pending"
	// ChainStateSuccess is terminal: an attempt got a 2xx response
	ChainStateSuccess ChainState = "success"
	// ChainStateExhausted is terminal: max attempts were used without success
	ChainStateExhausted ChainState = "exhausted"
)

// Terminal reports whether no further attempts can follow this state
func (s ChainState) Terminal() bool {
	return s == ChainStateSuccess || s == ChainStateExhausted
}

// DeliveryChain is a point-in-time view of one event delivered to one subscription
type DeliveryChain struct {
	WebhookID      string     `json:"webhook_id"`
	SubscriptionID uint64     `json:"subscription_id"`
	EventID        string     `json:"event_id"`
	EventType      string     `json:"event_type"`
	State          ChainState `json:"state"`
	Attempt        int        `json:"attempt"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
}

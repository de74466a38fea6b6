package engine

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// chain is the live state of one delivery chain. attempt is the number of the last attempt started.
type chain struct {
	webhookID    string
	subscription *schema.Subscription
	eventID      string
	eventType    string
	payload      json.RawMessage

	mu            sync.Mutex
	state         domain.ChainState
	attempt       int
	nextAttemptAt *time.Time
}

func (c *chain) snapshot() domain.DeliveryChain {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := domain.DeliveryChain{
		WebhookID:      c.webhookID,
		SubscriptionID: c.subscription.ID,
		EventID:        c.eventID,
		EventType:      c.eventType,
		State:          c.state,
		Attempt:        c.attempt,
	}
	if c.nextAttemptAt != nil {
		t := *c.nextAttemptAt
		view.NextAttemptAt = &t
	}
	return view
}

// begin moves the chain in flight and returns the attempt number to send
func (c *chain) begin() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempt++
	c.state = domain.ChainStateInFlight
	c.nextAttemptAt = nil
	return c.attempt
}

func (c *chain) setState(state domain.ChainState, next *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.nextAttemptAt = next
}

// eventKey identifies the single chain an event may have per subscription
type eventKey struct {
	eventID        string
	subscriptionID uint64
}

func (c *chain) key() eventKey {
	return eventKey{eventID: c.eventID, subscriptionID: c.subscription.ID}
}

// registry indexes live chains by webhook id and by event and subscription
type registry struct {
	mu      sync.RWMutex
	chains  map[string]*chain
	byEvent map[eventKey]*chain
}

func newRegistry() *registry {
	return &registry{
		chains:  make(map[string]*chain),
		byEvent: make(map[eventKey]*chain),
	}
}

// add registers c. When its event already has a live chain to the same subscription,
// that chain is returned and c is not added.
func (r *registry) add(c *chain) (*chain, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if live, ok := r.byEvent[c.key()]; ok {
		return live, false
	}
	r.chains[c.webhookID] = c
	r.byEvent[c.key()] = c
	return c, true
}

func (r *registry) get(webhookID string) (*chain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chains[webhookID]
	return c, ok
}

func (r *registry) remove(c *chain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chains[c.webhookID] != c {
		return
	}
	delete(r.chains, c.webhookID)
	delete(r.byEvent, c.key())
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains)
}

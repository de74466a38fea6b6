package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// memoryStore is an in-memory Store used by tests and when no database is configured.
// The maps are guarded by mu for lookup and insert only; each subscription and each chain
// carries its own mutex so writes are serialized per key.
type memoryStore struct {
	mu            sync.RWMutex
	subscriptions map[uint64]*subscriptionEntry
	subOrder      []uint64
	chains        map[string]*chainEntry
	chainsBySub   map[uint64][]string
	eventChains   map[eventChainKey]string

	nextSubID atomic.Uint64
	nextLogID atomic.Uint64
}

type subscriptionEntry struct {
	mu  sync.Mutex
	sub schema.Subscription
}

type eventChainKey struct {
	eventID        string
	subscriptionID uint64
}

type chainEntry struct {
	mu   sync.Mutex
	rows []*schema.DeliveryLog
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		subscriptions: make(map[uint64]*subscriptionEntry),
		chains:        make(map[string]*chainEntry),
		chainsBySub:   make(map[uint64][]string),
		eventChains:   make(map[eventChainKey]string),
	}
}

func cloneSubscription(s *schema.Subscription) *schema.Subscription {
	c := *s
	c.EventTypes = slices.Clone(s.EventTypes)
	if s.SecretKey != nil {
		secret := *s.SecretKey
		c.SecretKey = &secret
	}
	return &c
}

func cloneLog(l *schema.DeliveryLog) *schema.DeliveryLog {
	c := *l
	return &c
}

func (m *memoryStore) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*schema.Subscription, error) {
	sub, err := newSubscription(input, time.Now())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub.ID = m.nextSubID.Add(1)
	m.subscriptions[sub.ID] = &subscriptionEntry{sub: *sub}
	m.subOrder = append(m.subOrder, sub.ID)

	return cloneSubscription(sub), nil
}

func (m *memoryStore) subscriptionEntry(id uint64) *subscriptionEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subscriptions[id]
}

func (m *memoryStore) GetSubscriptionByID(ctx context.Context, id uint64) (*schema.Subscription, error) {
	entry := m.subscriptionEntry(id)
	if entry == nil {
		return nil, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneSubscription(&entry.sub), nil
}

func (m *memoryStore) listSubscriptions(activeOnly bool) []*schema.Subscription {
	m.mu.RLock()
	entries := make([]*subscriptionEntry, 0, len(m.subOrder))
	for _, id := range m.subOrder {
		entries = append(entries, m.subscriptions[id])
	}
	m.mu.RUnlock()

	subs := make([]*schema.Subscription, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if !activeOnly || entry.sub.IsActive {
			subs = append(subs, cloneSubscription(&entry.sub))
		}
		entry.mu.Unlock()
	}
	return subs
}

func (m *memoryStore) ListSubscriptions(ctx context.Context) ([]*schema.Subscription, error) {
	return m.listSubscriptions(false), nil
}

func (m *memoryStore) ListActiveSubscriptionsByEventType(ctx context.Context, eventType string) ([]*schema.Subscription, error) {
	var matched []*schema.Subscription
	for _, sub := range m.listSubscriptions(true) {
		if domain.MatchesEventType(sub.EventTypes, eventType) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

func (m *memoryStore) SetSubscriptionActive(ctx context.Context, id uint64, active bool) (*schema.Subscription, bool, error) {
	entry := m.subscriptionEntry(id)
	if entry == nil {
		return nil, false, domain.NewNotFoundError("subscription", id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.sub.IsActive == active {
		return cloneSubscription(&entry.sub), false, nil
	}

	entry.sub.IsActive = active
	entry.sub.UpdatedAt = time.Now()
	return cloneSubscription(&entry.sub), true, nil
}

// chainEntry returns the entry for a chain, creating it when create is set
func (m *memoryStore) chainEntry(webhookID string, subscriptionID uint64, create bool) *chainEntry {
	m.mu.RLock()
	entry := m.chains[webhookID]
	m.mu.RUnlock()
	if entry != nil || !create {
		return entry
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry = m.chains[webhookID]; entry == nil {
		entry = &chainEntry{}
		m.chains[webhookID] = entry
		m.chainsBySub[subscriptionID] = append(m.chainsBySub[subscriptionID], webhookID)
	}
	return entry
}

func (m *memoryStore) BeginAttempt(ctx context.Context, input BeginAttemptInput) (*schema.DeliveryLog, error) {
	if m.subscriptionEntry(input.SubscriptionID) == nil {
		return nil, fmt.Errorf("failed to create delivery log: %w", domain.NewNotFoundError("subscription", input.SubscriptionID))
	}

	if input.AttemptNumber == 1 && !m.claimEvent(input) {
		return nil, fmt.Errorf("%w: event %s already has a chain for subscription %d",
			domain.ErrAttemptConflict, input.EventID, input.SubscriptionID)
	}

	entry := m.chainEntry(input.WebhookID, input.SubscriptionID, true)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	var head *schema.DeliveryLog
	if n := len(entry.rows); n > 0 {
		head = entry.rows[n-1]
	}
	if err := checkNextAttempt(head, input.AttemptNumber); err != nil {
		return nil, err
	}

	row := newPendingLog(input)
	row.ID = m.nextLogID.Add(1)
	entry.rows = append(entry.rows, row)

	return cloneLog(row), nil
}

// claimEvent records the chain as the only one of its event and subscription
func (m *memoryStore) claimEvent(input BeginAttemptInput) bool {
	key := eventChainKey{eventID: input.EventID, subscriptionID: input.SubscriptionID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.eventChains[key]; ok && owner != input.WebhookID {
		return false
	}
	m.eventChains[key] = input.WebhookID
	return true
}

func (m *memoryStore) CompleteAttempt(ctx context.Context, input CompleteAttemptInput) (*schema.DeliveryLog, error) {
	entry := m.chainEntry(input.WebhookID, 0, false)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s attempt %d", domain.ErrAttemptNotPending, input.WebhookID, input.AttemptNumber)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	idx := input.AttemptNumber - 1
	if idx < 0 || idx >= len(entry.rows) {
		return nil, fmt.Errorf("%w: %s attempt %d", domain.ErrAttemptNotPending, input.WebhookID, input.AttemptNumber)
	}

	row := entry.rows[idx]
	if row.Status != schema.DeliveryStatusPending {
		return nil, fmt.Errorf("%w: %s attempt %d is %s", domain.ErrAttemptNotPending, input.WebhookID, input.AttemptNumber, row.Status)
	}

	updated := cloneLog(row)
	applyCompletion(updated, input)
	entry.rows[idx] = updated

	return cloneLog(updated), nil
}

func (m *memoryStore) ListDeliveryLogsBySubscription(ctx context.Context, subscriptionID uint64, limit int) ([]*schema.DeliveryLog, error) {
	m.mu.RLock()
	entries := make([]*chainEntry, 0, len(m.chainsBySub[subscriptionID]))
	for _, webhookID := range m.chainsBySub[subscriptionID] {
		entries = append(entries, m.chains[webhookID])
	}
	m.mu.RUnlock()

	var logs []*schema.DeliveryLog
	for _, entry := range entries {
		entry.mu.Lock()
		for _, row := range entry.rows {
			logs = append(logs, cloneLog(row))
		}
		entry.mu.Unlock()
	}

	slices.SortFunc(logs, func(a, b *schema.DeliveryLog) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	if logs == nil {
		logs = []*schema.DeliveryLog{}
	}
	return logs, nil
}

func (m *memoryStore) ListDeliveryLogsByWebhookID(ctx context.Context, webhookID string) ([]*schema.DeliveryLog, error) {
	entry := m.chainEntry(webhookID, 0, false)
	if entry == nil {
		return []*schema.DeliveryLog{}, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	logs := make([]*schema.DeliveryLog, 0, len(entry.rows))
	for _, row := range entry.rows {
		logs = append(logs, cloneLog(row))
	}
	return logs, nil
}

func (m *memoryStore) GetChainHeadsByEventID(ctx context.Context, eventID string) ([]*schema.DeliveryLog, error) {
	var heads []*schema.DeliveryLog
	for _, entry := range m.chainEntries() {
		entry.mu.Lock()
		if n := len(entry.rows); n > 0 && entry.rows[n-1].EventID == eventID {
			heads = append(heads, cloneLog(entry.rows[n-1]))
		}
		entry.mu.Unlock()
	}

	slices.SortFunc(heads, func(a, b *schema.DeliveryLog) int {
		return cmp.Compare(a.WebhookID, b.WebhookID)
	})
	return heads, nil
}

// chainEntries returns a snapshot of all chain entries
func (m *memoryStore) chainEntries() map[string]*chainEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make(map[string]*chainEntry, len(m.chains))
	for id, entry := range m.chains {
		entries[id] = entry
	}
	return entries
}

func (m *memoryStore) GetUnfinishedChainHeads(ctx context.Context, maxAttempts int) ([]*schema.DeliveryLog, error) {
	var heads []*schema.DeliveryLog
	for _, entry := range m.chainEntries() {
		entry.mu.Lock()
		if n := len(entry.rows); n > 0 {
			head := entry.rows[n-1]
			if !isTerminalHead(head, maxAttempts) {
				heads = append(heads, cloneLog(head))
			}
		}
		entry.mu.Unlock()
	}

	slices.SortFunc(heads, func(a, b *schema.DeliveryLog) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return heads, nil
}

func (m *memoryStore) DeleteTerminalChainsBefore(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for webhookID, entry := range m.chains {
		entry.mu.Lock()
		n := len(entry.rows)
		if n == 0 {
			entry.mu.Unlock()
			continue
		}
		head := entry.rows[n-1]
		if !isTerminalHead(head, maxAttempts) || !head.Timestamp.Before(cutoff) {
			entry.mu.Unlock()
			continue
		}
		subscriptionID := head.SubscriptionID
		deleted += int64(n)
		entry.rows = nil
		entry.mu.Unlock()

		delete(m.chains, webhookID)
		delete(m.eventChains, eventChainKey{eventID: head.EventID, subscriptionID: subscriptionID})
		m.chainsBySub[subscriptionID] = slices.DeleteFunc(m.chainsBySub[subscriptionID], func(id string) bool {
			return id == webhookID
		})
	}

	return deleted, nil
}

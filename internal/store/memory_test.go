package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryStore runs all store tests against the in-memory store
func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStoreConcurrentBeginAttempt(t *testing.T) {
	testConcurrentBeginAttempt(t, NewMemoryStore())
}

func testConcurrentBeginAttempt(t *testing.T, store Store) {
	ctx := context.Background()
	sub := createTestSubscription(t, store, "order.created")
	webhookID := "01HV0000000000000000000003"

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.BeginAttempt(ctx, buildBeginInput(sub, webhookID, 1, baseTime))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one writer may start the chain")

	logs, err := store.ListDeliveryLogsByWebhookID(ctx, webhookID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

package bridge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/bridge"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/dispatcher"
	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/engine"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/matcher"
	mockspkg "github.com/feral-file/ff-webhook-dispatcher/internal/mocks"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/webhook"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testBridgeMocks contains all the mocks needed for testing the bridge
type testBridgeMocks struct {
	ctrl      *gomock.Controller
	natsJS    *mockspkg.MockNatsJetStream
	natsConn  *mockspkg.MockNatsConn
	jetStream *mockspkg.MockJetStream
	engine    *mockspkg.MockEngine
	json      *mockspkg.MockJSON
}

func setupTestBridge(t *testing.T) *testBridgeMocks {
	ctrl := gomock.NewController(t)

	return &testBridgeMocks{
		ctrl:      ctrl,
		natsJS:    mockspkg.NewMockNatsJetStream(ctrl),
		natsConn:  mockspkg.NewMockNatsConn(ctrl),
		jetStream: mockspkg.NewMockJetStream(ctrl),
		engine:    mockspkg.NewMockEngine(ctrl),
		json:      mockspkg.NewMockJSON(ctrl),
	}
}

func testConfig() bridge.Config {
	return bridge.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "WEBHOOK_EVENTS",
		ConsumerName:   "webhook-dispatcher",
		Subject:        "webhooks.events.>",
		MaxReconnects:  10,
		ReconnectWait:  time.Second,
		ConnectionName: "test-bridge",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
	}
}

func newBridge(t *testing.T, mocks *testBridgeMocks, jsonAdapter adapter.JSON) bridge.Bridge {
	t.Helper()
	mocks.natsJS.
		EXPECT().
		Connect(testConfig().URL, gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testConfig(), mocks.natsJS, mocks.engine, jsonAdapter)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func TestBridge_NewBridge_ConnectError(t *testing.T) {
	mocks := setupTestBridge(t)

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, assert.AnError)

	b, err := bridge.NewBridge(testConfig(), mocks.natsJS, mocks.engine, mocks.json)
	assert.Error(t, err)
	assert.Nil(t, b)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestBridge_Run_CreateConsumerError(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, mocks.json)
	cfg := testConfig()

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(),
			cfg.StreamName,
			jetstream.ConsumerConfig{
				Durable:       cfg.ConsumerName,
				AckPolicy:     jetstream.AckExplicitPolicy,
				AckWait:       cfg.AckWaitTimeout,
				MaxDeliver:    cfg.MaxDeliver,
				FilterSubject: cfg.Subject,
			}).
		Return(nil, errors.New("stream not found"))

	err := b.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create/update consumer")
}

func TestBridge_Run_ConsumerInfoError(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, mocks.json)

	consumer := mockspkg.NewMockNatsConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(nil, errors.New("info failed"))
	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err := b.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get consumer info")
}

func TestBridge_Run_ConsumeError(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, mocks.json)

	consumer := mockspkg.NewMockNatsConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: "webhook-dispatcher"}, nil)
	consumer.EXPECT().
		Consume(gomock.Any()).
		Return(nil, errors.New("consume failed"))
	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err := b.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create subscription")
}

// runWithMessages starts the bridge and feeds msgs through the consumer handler
func runWithMessages(t *testing.T, mocks *testBridgeMocks, b bridge.Bridge, msgs ...adapter.Message) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	consumer := mockspkg.NewMockNatsConsumer(mocks.ctrl)
	consumeContext := mockspkg.NewMockConsumeContext(mocks.ctrl)
	consumeContext.EXPECT().Stop().AnyTimes()

	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: "webhook-dispatcher"}, nil)
	consumer.EXPECT().
		Consume(gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			go func() {
				for _, msg := range msgs {
					handler(msg)
				}
			}()
			return consumeContext, nil
		})
	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Run(ctx)
	}()
	return cancel, errChan
}

func message(ctrl *gomock.Controller, data string) *mockspkg.MockJetStreamMessage {
	msg := mockspkg.NewMockJetStreamMessage(ctrl)
	msg.EXPECT().Data().Return([]byte(data)).AnyTimes()
	msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil).AnyTimes()
	return msg
}

// redelivery returns a message as JetStream hands it out on its nth delivery
func redelivery(ctrl *gomock.Controller, data string, streamSeq, n uint64) *mockspkg.MockJetStreamMessage {
	msg := mockspkg.NewMockJetStreamMessage(ctrl)
	msg.EXPECT().Data().Return([]byte(data)).AnyTimes()
	msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{
		Sequence:     jetstream.SequencePair{Consumer: n, Stream: streamSeq},
		NumDelivered: n,
		Stream:       "WEBHOOK_EVENTS",
	}, nil).AnyTimes()
	return msg
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
	}
}

func TestBridge_HandleMessage_PublishAndAck(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, adapter.NewJSON())

	acked := make(chan struct{})
	msg := message(mocks.ctrl, `{"event_id":"evt-1","event_type":"order.created","payload":{"order_id":42}}`)
	msg.EXPECT().Ack().DoAndReturn(func() error {
		close(acked)
		return nil
	})

	mocks.engine.
		EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, event domain.Event) ([]domain.DeliveryChain, error) {
			assert.Equal(t, "evt-1", event.ID)
			assert.Equal(t, "order.created", event.Type)
			assert.JSONEq(t, `{"order_id":42}`, string(event.Payload))
			return []domain.DeliveryChain{{WebhookID: "01HV0000000000000000000001"}}, nil
		})

	cancel, errChan := runWithMessages(t, mocks, b, msg)
	waitSignal(t, acked)
	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
}

func TestBridge_HandleMessage_EventIDFromStreamSequence(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, adapter.NewJSON())

	acked := make(chan struct{})
	msg := redelivery(mocks.ctrl, `{"event_type":"order.created","payload":{"order_id":42}}`, 17, 1)
	msg.EXPECT().Ack().DoAndReturn(func() error {
		close(acked)
		return nil
	})

	mocks.engine.
		EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, event domain.Event) ([]domain.DeliveryChain, error) {
			assert.Equal(t, "nats-17", event.ID)
			return nil, nil
		})

	cancel, errChan := runWithMessages(t, mocks, b, msg)
	waitSignal(t, acked)
	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
}

func TestBridge_RedeliveredMessageIsDeliveredOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	st := store.NewMemoryStore()
	sub, err := st.CreateSubscription(ctx, store.CreateSubscriptionInput{
		TargetURL:  srv.URL,
		EventTypes: []string{"order.created"},
		IsActive:   true,
	})
	require.NoError(t, err)

	cfg := config.DispatcherConfig{
		MaxAttempts:          3,
		BaseDelay:            10 * time.Millisecond,
		MaxDelay:             40 * time.Millisecond,
		HTTPTimeout:          time.Second,
		WorkerPoolSize:       4,
		QueueSize:            100,
		StoreRetryMaxElapsed: 50 * time.Millisecond,
	}
	clock := adapter.NewClock()
	finished := make(chan domain.DeliveryChain, 8)
	d := dispatcher.New(cfg, st, adapter.NewHTTPClient(cfg.HTTPTimeout), webhook.NewSigner(), nil, clock)
	eng := engine.New(cfg, st, matcher.New(st), d, clock, engine.WithObserver(func(c domain.DeliveryChain) {
		finished <- c
	}))
	require.NoError(t, eng.Start(ctx))
	defer func() { _ = eng.Stop(ctx) }()

	mocks := setupTestBridge(t)
	mocks.natsJS.
		EXPECT().
		Connect(testConfig().URL, gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)
	b, err := bridge.NewBridge(testConfig(), mocks.natsJS, eng, adapter.NewJSON())
	require.NoError(t, err)

	// The same stream message handed out again after its ack was lost
	data := `{"event_type":"order.created","payload":{"order_id":42}}`
	acked := make(chan struct{}, 2)
	first := redelivery(mocks.ctrl, data, 5, 1)
	second := redelivery(mocks.ctrl, data, 5, 2)
	for _, msg := range []*mockspkg.MockJetStreamMessage{first, second} {
		msg.EXPECT().Ack().DoAndReturn(func() error {
			acked <- struct{}{}
			return nil
		})
	}

	cancel, errChan := runWithMessages(t, mocks, b, first, second)
	for i := 0; i < 2; i++ {
		select {
		case <-acked:
		case <-time.After(5 * time.Second):
			t.Fatal("Test timed out")
		}
	}

	select {
	case c := <-finished:
		assert.Equal(t, domain.ChainStateSuccess, c.State)
		assert.Equal(t, "nats-5", c.EventID)
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
	}
	select {
	case c := <-finished:
		t.Fatalf("unexpected second chain %s", c.WebhookID)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
	assert.Equal(t, int32(1), calls.Load())

	logs, err := st.ListDeliveryLogsBySubscription(ctx, sub.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "nats-5", logs[0].EventID)
}

func TestBridge_HandleMessage_MalformedIsTerminated(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, adapter.NewJSON())

	terminated := make(chan struct{}, 2)
	notJSON := message(mocks.ctrl, `not json`)
	notJSON.EXPECT().Term().DoAndReturn(func() error {
		terminated <- struct{}{}
		return nil
	})
	noType := message(mocks.ctrl, `{"payload":{"a":1}}`)
	noType.EXPECT().Term().DoAndReturn(func() error {
		terminated <- struct{}{}
		return nil
	})

	cancel, errChan := runWithMessages(t, mocks, b, notJSON, noType)
	for i := 0; i < 2; i++ {
		select {
		case <-terminated:
		case <-time.After(5 * time.Second):
			t.Fatal("Test timed out")
		}
	}
	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
}

func TestBridge_HandleMessage_PublishErrorNaks(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, adapter.NewJSON())

	naked := make(chan struct{})
	msg := message(mocks.ctrl, `{"event_type":"order.created","payload":{"order_id":42}}`)
	msg.EXPECT().Nak().DoAndReturn(func() error {
		close(naked)
		return nil
	})

	mocks.engine.
		EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("failed to match event: db down"))

	cancel, errChan := runWithMessages(t, mocks, b, msg)
	waitSignal(t, naked)
	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
}

func TestBridge_HandleMessage_UsesJSONAdapter(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, mocks.json)

	terminated := make(chan struct{})
	msg := message(mocks.ctrl, `{}`)
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(terminated)
		return nil
	})
	mocks.json.
		EXPECT().
		Unmarshal([]byte(`{}`), gomock.Any()).
		Return(errors.New("decode failed"))

	cancel, errChan := runWithMessages(t, mocks, b, msg)
	waitSignal(t, terminated)
	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
}

func TestBridge_Close(t *testing.T) {
	mocks := setupTestBridge(t)
	b := newBridge(t, mocks, mocks.json)

	mocks.natsConn.
		EXPECT().
		Close()

	b.Close()
}

package dispatcher_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/dispatcher"
	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/mocks"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
	"github.com/feral-file/ff-webhook-dispatcher/internal/webhook"
)

const testWebhookID = "01HV0000000000000000000001"

var testPayload = json.RawMessage(`{"order_id":42,"total":"9.99"}`)

func testConfig() config.DispatcherConfig {
	return config.DispatcherConfig{
		MaxAttempts:          3,
		BaseDelay:            10 * time.Millisecond,
		MaxDelay:             100 * time.Millisecond,
		HTTPTimeout:          200 * time.Millisecond,
		WorkerPoolSize:       4,
		StoreRetryMaxElapsed: 50 * time.Millisecond,
	}
}

type testEnv struct {
	store      store.Store
	dispatcher dispatcher.Dispatcher
}

func newTestEnv(t *testing.T, limiter func(*gomock.Controller) *mocks.MockHostLimiter) *testEnv {
	t.Helper()
	cfg := testConfig()

	s := store.NewMemoryStore()
	var hl *mocks.MockHostLimiter
	if limiter != nil {
		hl = limiter(gomock.NewController(t))
	}

	env := &testEnv{store: s}
	if hl != nil {
		env.dispatcher = dispatcher.New(cfg, s, adapter.NewHTTPClient(cfg.HTTPTimeout), webhook.NewSigner(), hl, adapter.NewClock())
	} else {
		env.dispatcher = dispatcher.New(cfg, s, adapter.NewHTTPClient(cfg.HTTPTimeout), webhook.NewSigner(), nil, adapter.NewClock())
	}
	return env
}

func (e *testEnv) subscription(t *testing.T, targetURL string, secret *string) *schema.Subscription {
	t.Helper()
	sub, err := e.store.CreateSubscription(context.Background(), store.CreateSubscriptionInput{
		TargetURL:  targetURL,
		SecretKey:  secret,
		EventTypes: []string{"order.created"},
		IsActive:   true,
	})
	require.NoError(t, err)
	return sub
}

func request(sub *schema.Subscription, attempt int) dispatcher.Request {
	return dispatcher.Request{
		Subscription:  sub,
		WebhookID:     testWebhookID,
		AttemptNumber: attempt,
		EventID:       "01HV00000000000000000000EV",
		EventType:     "order.created",
		Payload:       testPayload,
	}
}

func TestAttempt_Success(t *testing.T) {
	var received http.Header
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	secret := "s3cret"
	sub := env.subscription(t, srv.URL+"/hook", &secret)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.True(t, outcome.Success())
	assert.Nil(t, outcome.Err)
	require.NotNil(t, outcome.Log)
	assert.Equal(t, schema.DeliveryStatusSuccess, outcome.Log.Status)
	require.NotNil(t, outcome.Log.HTTPStatus)
	assert.Equal(t, http.StatusOK, *outcome.Log.HTTPStatus)
	require.NotNil(t, outcome.Log.ResponseBody)
	assert.Equal(t, `{"ok":true}`, *outcome.Log.ResponseBody)
	assert.NotNil(t, outcome.Log.LatencyMs)
	assert.NotNil(t, outcome.Log.CompletedAt)

	// Body is delivered byte for byte and signed as sent
	assert.Equal(t, []byte(testPayload), body)
	assert.Equal(t, webhook.ContentTypeJSON, received.Get(webhook.HeaderContentType))
	assert.Equal(t, webhook.DefaultUserAgent, received.Get(webhook.HeaderUserAgent))
	assert.Equal(t, testWebhookID, received.Get(webhook.HeaderWebhookID))
	assert.Equal(t, "order.created", received.Get(webhook.HeaderEventType))
	assert.Equal(t, "1", received.Get(webhook.HeaderAttempt))
	assert.True(t, webhook.Verify(secret, body, received.Get(webhook.HeaderSignature)))

	// The timestamp header is bound to the body by the v2 signature
	ts, err := strconv.ParseInt(received.Get(webhook.HeaderTimestamp), 10, 64)
	require.NoError(t, err)
	signatureV2 := received.Get(webhook.HeaderSignatureV2)
	assert.True(t, webhook.VerifyTimestamped(secret, ts, "01HV00000000000000000000EV", body, signatureV2))
	assert.False(t, webhook.VerifyTimestamped(secret, ts+300, "01HV00000000000000000000EV", body, signatureV2))
}

func TestAttempt_NoSecretNoSignature(t *testing.T) {
	var signature atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature.Store(r.Header.Get(webhook.HeaderSignature) + r.Header.Get(webhook.HeaderSignatureV2))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)
	assert.True(t, outcome.Success())
	assert.Equal(t, "", signature.Load())
	assert.Nil(t, outcome.Log.ResponseBody)
}

func TestAttempt_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)

	assert.False(t, outcome.Success())
	require.NotNil(t, outcome.Err)
	require.NotNil(t, outcome.Err.StatusCode)
	assert.Equal(t, http.StatusInternalServerError, *outcome.Err.StatusCode)
	assert.Equal(t, schema.DeliveryStatusFailed, outcome.Log.Status)
	require.NotNil(t, outcome.Log.ErrorMessage)
	assert.Equal(t, "HTTP 500", *outcome.Log.ErrorMessage)
	assert.Equal(t, "boom", *outcome.Log.ResponseBody)
	assert.Zero(t, outcome.RetryAfter)
}

func TestAttempt_RedirectIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://elsewhere.example.com/", http.StatusFound)
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)
	assert.False(t, outcome.Success())
	assert.Equal(t, http.StatusFound, *outcome.Log.HTTPStatus)
}

func TestAttempt_RetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		header   string
		expected time.Duration
	}{
		{name: "429 with seconds", status: http.StatusTooManyRequests, header: "7", expected: 7 * time.Second},
		{name: "503 with seconds", status: http.StatusServiceUnavailable, header: "120", expected: 120 * time.Second},
		{name: "429 without header", status: http.StatusTooManyRequests, header: "", expected: 0},
		{name: "500 ignores header", status: http.StatusInternalServerError, header: "30", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			env := newTestEnv(t, nil)
			sub := env.subscription(t, srv.URL, nil)

			outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
			require.NoError(t, err)
			assert.False(t, outcome.Success())
			assert.Equal(t, tt.expected, outcome.RetryAfter)
		})
	}
}

func TestAttempt_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)

	assert.False(t, outcome.Success())
	assert.True(t, outcome.Err.Timeout)
	assert.Nil(t, outcome.Err.StatusCode)
	assert.Nil(t, outcome.Log.HTTPStatus)
	assert.Equal(t, schema.DeliveryStatusFailed, outcome.Log.Status)
	require.NotNil(t, outcome.Log.ErrorMessage)
	assert.Contains(t, *outcome.Log.ErrorMessage, "timed out")
}

func TestAttempt_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, target, nil)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)

	assert.False(t, outcome.Success())
	assert.False(t, outcome.Err.Timeout)
	assert.Nil(t, outcome.Log.HTTPStatus)
	assert.NotNil(t, outcome.Log.ErrorMessage)
}

func TestAttempt_ResponseBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", 3*webhook.MaxResponseBodyBytes)))
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)

	outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
	require.NoError(t, err)
	require.NotNil(t, outcome.Log.ResponseBody)
	assert.Len(t, *outcome.Log.ResponseBody, webhook.MaxResponseBodyBytes)
}

func TestAttempt_ChainSequence(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)
	ctx := context.Background()

	first, err := env.dispatcher.Attempt(ctx, request(sub, 1))
	require.NoError(t, err)
	assert.False(t, first.Success())

	second, err := env.dispatcher.Attempt(ctx, request(sub, 2))
	require.NoError(t, err)
	assert.True(t, second.Success())

	logs, err := env.store.ListDeliveryLogsByWebhookID(ctx, testWebhookID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 1, logs[0].AttemptNumber)
	assert.Equal(t, schema.DeliveryStatusFailed, logs[0].Status)
	assert.Equal(t, 2, logs[1].AttemptNumber)
	assert.Equal(t, schema.DeliveryStatusSuccess, logs[1].Status)
}

func TestAttempt_GapIsRejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := newTestEnv(t, nil)
	sub := env.subscription(t, srv.URL, nil)

	_, err := env.dispatcher.Attempt(context.Background(), request(sub, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAttemptConflict))
	assert.Equal(t, int32(0), calls.Load(), "no request may go out without a pending row")
}

func TestAttempt_StoreFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().
		BeginAttempt(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset")).
		MinTimes(1)

	cfg := testConfig()
	d := dispatcher.New(cfg, mockStore, adapter.NewHTTPClient(cfg.HTTPTimeout), webhook.NewSigner(), nil, adapter.NewClock())

	sub := &schema.Subscription{ID: 1, TargetURL: srv.URL, IsActive: true}
	outcome, err := d.Attempt(context.Background(), request(sub, 1))
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, int32(0), calls.Load())
}

func TestAttempt_CompletionStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().
		BeginAttempt(gomock.Any(), gomock.Any()).
		Return(&schema.DeliveryLog{ID: 1, Status: schema.DeliveryStatusPending}, nil)
	mockStore.EXPECT().
		CompleteAttempt(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("disk full")).
		MinTimes(1)

	cfg := testConfig()
	d := dispatcher.New(cfg, mockStore, adapter.NewHTTPClient(cfg.HTTPTimeout), webhook.NewSigner(), nil, adapter.NewClock())

	sub := &schema.Subscription{ID: 1, TargetURL: srv.URL, IsActive: true}
	_, err := d.Attempt(context.Background(), request(sub, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record attempt result")
}

func TestAttempt_HostRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	t.Run("waits on the target host", func(t *testing.T) {
		env := newTestEnv(t, func(ctrl *gomock.Controller) *mocks.MockHostLimiter {
			l := mocks.NewMockHostLimiter(ctrl)
			l.EXPECT().Wait(gomock.Any(), u.Host).Return(nil)
			return l
		})
		sub := env.subscription(t, srv.URL, nil)

		outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
		require.NoError(t, err)
		assert.True(t, outcome.Success())
	})

	t.Run("max wait exceeded still sends", func(t *testing.T) {
		env := newTestEnv(t, func(ctrl *gomock.Controller) *mocks.MockHostLimiter {
			l := mocks.NewMockHostLimiter(ctrl)
			l.EXPECT().Wait(gomock.Any(), u.Host).Return(context.DeadlineExceeded)
			return l
		})
		sub := env.subscription(t, srv.URL, nil)

		outcome, err := env.dispatcher.Attempt(context.Background(), request(sub, 1))
		require.NoError(t, err)
		assert.True(t, outcome.Success())
	})

	t.Run("canceled context writes nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		env := newTestEnv(t, func(ctrl *gomock.Controller) *mocks.MockHostLimiter {
			l := mocks.NewMockHostLimiter(ctrl)
			l.EXPECT().Wait(gomock.Any(), u.Host).DoAndReturn(func(ctx context.Context, host string) error {
				cancel()
				return ctx.Err()
			})
			return l
		})
		sub := env.subscription(t, srv.URL, nil)

		_, err := env.dispatcher.Attempt(ctx, request(sub, 1))
		require.ErrorIs(t, err, context.Canceled)

		logs, err := env.store.ListDeliveryLogsByWebhookID(context.Background(), testWebhookID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

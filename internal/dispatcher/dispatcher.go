package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/metrics"
	"github.com/feral-file/ff-webhook-dispatcher/internal/ratelimit"
	"github.com/feral-file/ff-webhook-dispatcher/internal/retry"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
	"github.com/feral-file/ff-webhook-dispatcher/internal/webhook"
)

// Request describes one delivery attempt of a chain
type Request struct {
	Subscription  *schema.Subscription
	WebhookID     string
	AttemptNumber int
	EventID       string
	EventType     string
	Payload       json.RawMessage
}

// Outcome is the recorded result of an attempt
type Outcome struct {
	// Log is the completed delivery log row
	Log *schema.DeliveryLog
	// RetryAfter is the receiver's Retry-After hint on 429 and 503 responses
	RetryAfter time.Duration
	// Err is nil when the receiver answered 2xx
	Err *domain.DeliveryError
}

// Success reports whether the attempt got a 2xx response
func (o *Outcome) Success() bool {
	return o.Err == nil
}

// Dispatcher performs single delivery attempts and records them in the delivery log
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	// Attempt writes the pending row, sends the request and completes the row.
	// Receiver failures are reported on the outcome. A returned error means the attempt
	// could not be recorded, and the chain must not continue.
	Attempt(ctx context.Context, req Request) (*Outcome, error)
}

type dispatcher struct {
	config     config.DispatcherConfig
	logs       store.DeliveryLogStore
	httpClient adapter.HTTPClient
	signer     webhook.Signer
	limiter    ratelimit.HostLimiter
	clock      adapter.Clock
}

// New creates a dispatcher. limiter may be nil to disable per-host rate limiting.
func New(
	cfg config.DispatcherConfig,
	logs store.DeliveryLogStore,
	httpClient adapter.HTTPClient,
	signer webhook.Signer,
	limiter ratelimit.HostLimiter,
	clock adapter.Clock,
) Dispatcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = webhook.DefaultUserAgent
	}
	if cfg.StoreRetryMaxElapsed <= 0 {
		cfg.StoreRetryMaxElapsed = 30 * time.Second
	}
	return &dispatcher{
		config:     cfg,
		logs:       logs,
		httpClient: httpClient,
		signer:     signer,
		limiter:    limiter,
		clock:      clock,
	}
}

func (d *dispatcher) Attempt(ctx context.Context, req Request) (*Outcome, error) {
	sub := req.Subscription
	ctx = logger.WithFields(ctx,
		zap.String("webhookID", req.WebhookID),
		zap.Uint64("subscriptionID", sub.ID),
		zap.Int("attempt", req.AttemptNumber),
	)

	if err := d.waitForHost(ctx, sub.TargetURL); err != nil {
		return nil, err
	}

	startedAt := d.clock.Now()
	err := d.withStoreRetry(ctx, "begin_attempt", func() error {
		_, err := d.logs.BeginAttempt(ctx, store.BeginAttemptInput{
			WebhookID:      req.WebhookID,
			SubscriptionID: sub.ID,
			AttemptNumber:  req.AttemptNumber,
			EventID:        req.EventID,
			EventType:      req.EventType,
			TargetURL:      sub.TargetURL,
			Payload:        req.Payload,
			Timestamp:      startedAt,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record pending attempt: %w", err)
	}

	outcome, completion := d.send(ctx, req, startedAt)

	// The result must be recorded even when the caller is shutting down
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.StoreRetryMaxElapsed)
	defer cancel()

	var log *schema.DeliveryLog
	err = d.withStoreRetry(storeCtx, "complete_attempt", func() error {
		var err error
		log, err = d.logs.CompleteAttempt(storeCtx, completion)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt result: %w", err)
	}
	outcome.Log = log

	status := string(completion.Status)
	metrics.ObserveAttempt(req.EventType, status, time.Duration(*completion.LatencyMs)*time.Millisecond)

	if outcome.Success() {
		logger.InfoCtx(ctx, "Webhook delivered", zap.Intp("httpStatus", completion.HTTPStatus))
	} else {
		logger.WarnCtx(ctx, "Webhook delivery attempt failed", zap.Error(outcome.Err))
	}

	return outcome, nil
}

// send performs the outbound call and classifies the result
func (d *dispatcher) send(ctx context.Context, req Request, startedAt time.Time) (*Outcome, store.CompleteAttemptInput) {
	sub := req.Subscription
	body := []byte(req.Payload)

	headers := map[string]string{
		webhook.HeaderContentType: webhook.ContentTypeJSON,
		webhook.HeaderUserAgent:   d.config.UserAgent,
		webhook.HeaderWebhookID:   req.WebhookID,
		webhook.HeaderEventID:     req.EventID,
		webhook.HeaderEventType:   req.EventType,
		webhook.HeaderAttempt:     strconv.Itoa(req.AttemptNumber),
		webhook.HeaderTimestamp:   strconv.FormatInt(startedAt.Unix(), 10),
	}
	if sub.HasSecret() {
		headers[webhook.HeaderSignature] = d.signer.Sign(*sub.SecretKey, body)
		headers[webhook.HeaderSignatureV2] = d.signer.SignTimestamped(*sub.SecretKey, startedAt.Unix(), req.EventID, body)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.config.HTTPTimeout)
	defer cancel()

	outcome := &Outcome{}
	completion := store.CompleteAttemptInput{
		WebhookID:     req.WebhookID,
		AttemptNumber: req.AttemptNumber,
	}

	resp, err := d.httpClient.PostWithHeadersNoRetry(callCtx, sub.TargetURL, headers, bytes.NewReader(body))
	latency := d.clock.Since(startedAt).Milliseconds()
	completion.LatencyMs = &latency

	if err != nil {
		outcome.Err = &domain.DeliveryError{Timeout: isTimeout(err), Err: err}
		completion.Status = schema.DeliveryStatusFailed
		completion.ErrorMessage = errorMessage(outcome.Err)
		completion.CompletedAt = d.clock.Now()
		return outcome, completion
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.WarnCtx(ctx, "failed to close response body", zap.Error(err))
		}
	}()

	// Never read more than the stored prefix
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, webhook.MaxResponseBodyBytes))
	if err != nil {
		logger.WarnCtx(ctx, "failed to read webhook response body", zap.Error(err))
	}

	statusCode := resp.StatusCode
	completion.HTTPStatus = &statusCode
	if len(respBody) > 0 {
		completion.ResponseBody = sanitizeBody(respBody)
	}
	completion.CompletedAt = d.clock.Now()

	if statusCode >= 200 && statusCode < 300 {
		completion.Status = schema.DeliveryStatusSuccess
		return outcome, completion
	}

	outcome.Err = &domain.DeliveryError{StatusCode: &statusCode}
	completion.Status = schema.DeliveryStatusFailed
	completion.ErrorMessage = errorMessage(outcome.Err)
	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable {
		outcome.RetryAfter = retry.ParseRetryAfter(resp.Header.Get("Retry-After"), d.clock.Now())
	}

	return outcome, completion
}

// waitForHost applies the per-host rate limit. Running past the limiter's max wait only
// logs; the attempt goes out anyway so a slow limiter never stalls a chain forever.
func (d *dispatcher) waitForHost(ctx context.Context, targetURL string) error {
	if d.limiter == nil {
		return nil
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return nil
	}

	if err := d.limiter.Wait(ctx, u.Host); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WarnCtx(ctx, "Host rate limit wait failed, sending anyway",
			zap.String("host", u.Host),
			zap.Error(err))
	}
	return nil
}

// withStoreRetry retries transient store failures with exponential backoff.
// Chain conflicts and validation failures are permanent.
func (d *dispatcher) withStoreRetry(ctx context.Context, operation string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = d.config.StoreRetryMaxElapsed
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrAttemptConflict) ||
			errors.Is(err, domain.ErrAttemptNotPending) ||
			domain.IsValidationError(err) ||
			domain.IsNotFoundError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var retries int
	notify := func(err error, next time.Duration) {
		retries++
		logger.WarnCtx(ctx, "Delivery log write failed, retrying",
			zap.String("operation", operation),
			zap.Error(err),
			zap.Int("retry", retries),
			zap.Duration("next_retry_in", next),
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		metrics.StoreErrors.WithLabelValues(operation).Inc()
		return err
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func errorMessage(err error) *string {
	msg := err.Error()
	return &msg
}

// sanitizeBody makes a response prefix safe for a text column
func sanitizeBody(b []byte) *string {
	s := strings.ToValidUTF8(string(b), "�")
	s = strings.ReplaceAll(s, "\x00", "")
	return &s
}

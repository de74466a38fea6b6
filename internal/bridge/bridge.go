package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/engine"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
)

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Bridge consumes events from NATS JetStream and publishes them to the delivery engine
type Bridge interface {
	// Run consumes until ctx is done
	Run(ctx context.Context) error
	// Close closes the NATS connection
	Close()
}

type bridge struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	engine engine.Engine
	json   adapter.JSON
	config Config
}

// NewBridge connects to NATS and creates a bridge feeding eng
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	eng engine.Engine,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(fmt.Errorf("disconnected from NATS: %w", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:     nc,
		js:     js,
		engine: eng,
		json:   jsonAdapter,
		config: cfg,
	}, nil
}

func (b *bridge) Run(ctx context.Context) error {
	logger.Info("Starting event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
		zap.String("subject", b.config.Subject))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: b.config.Subject,
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming events")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down event bridge")
			return ctx.Err()
		case msg := <-msgChan:
			go b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage publishes one event. Undecodable events are terminated, publish failures redelivered.
// Redeliveries carry the same event id, so the engine never starts a second chain for them.
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var deliveryCount, streamSeq uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		deliveryCount = metadata.NumDelivered
		streamSeq = metadata.Sequence.Stream
	}

	var event domain.Event
	if err := b.json.Unmarshal(msg.Data(), &event); err != nil || !event.Valid() {
		if err == nil {
			err = errors.New("event_type and a JSON payload are required")
		}
		logger.Error(fmt.Errorf("failed to decode event: %w", err), zap.Uint64("deliveryCount", deliveryCount))
		if err := msg.Term(); err != nil {
			logger.Error(fmt.Errorf("failed to terminate message: %w", err))
		}
		return
	}

	if event.ID == "" && streamSeq > 0 {
		event.ID = fmt.Sprintf("nats-%d", streamSeq)
	}

	chains, err := b.engine.Publish(ctx, event)
	if err != nil {
		logger.Error(fmt.Errorf("failed to publish event: %w", err),
			zap.String("eventID", event.ID),
			zap.String("eventType", event.Type),
			zap.Uint64("deliveryCount", deliveryCount))
		if err := msg.Nak(); err != nil {
			logger.Error(fmt.Errorf("failed to NAK message: %w", err))
		}
		return
	}

	logger.Info("Event received from stream",
		zap.String("eventID", event.ID),
		zap.String("eventType", event.Type),
		zap.Int("chains", len(chains)),
		zap.Uint64("deliveryCount", deliveryCount))

	if err := msg.Ack(); err != nil {
		logger.Error(fmt.Errorf("failed to ACK message: %w", err))
	}
}

func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/api/server"
	"github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/executor"
	"github.com/feral-file/ff-webhook-dispatcher/internal/bridge"
	"github.com/feral-file/ff-webhook-dispatcher/internal/cache"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/dispatcher"
	"github.com/feral-file/ff-webhook-dispatcher/internal/engine"
	"github.com/feral-file/ff-webhook-dispatcher/internal/logger"
	"github.com/feral-file/ff-webhook-dispatcher/internal/matcher"
	"github.com/feral-file/ff-webhook-dispatcher/internal/metrics"
	"github.com/feral-file/ff-webhook-dispatcher/internal/ratelimit"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store"
	"github.com/feral-file/ff-webhook-dispatcher/internal/webhook"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "webhook-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Webhook Dispatcher")

	metrics.RegisterDefault()

	// Initialize store
	var dataStore store.Store
	if cfg.Database.Host == "" {
		logger.WarnCtx(ctx, "Database host not configured, using in-memory store")
		dataStore = store.NewMemoryStore()
	} else {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
		}

		// Configure connection pool
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)
		dataStore = store.NewPGStore(db)
	}

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	httpClient := adapter.NewHTTPClient(cfg.Dispatcher.HTTPTimeout)

	var redisClient adapter.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error(fmt.Errorf("failed to close redis client: %w", err))
			}
		}()
		logger.InfoCtx(ctx, "Redis client created", zap.String("addr", cfg.Redis.Addr))
	}

	// Per-host rate limiting
	var hostLimiter ratelimit.HostLimiter
	if cfg.RateLimit.Enabled {
		hostLimiter, err = ratelimit.NewHostLimiter(cfg.RateLimit, redisClient, clock)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create host rate limiter", zap.Error(err))
		}
		defer hostLimiter.Close()
	}

	// Subscription cache
	var subCache cache.SubscriptionCache
	if cfg.Cache.Enabled {
		if redisClient == nil {
			logger.FatalCtx(ctx, "Subscription cache requires redis.addr")
		}
		subCache = cache.NewSubscriptionCache(cfg.Cache, redisClient, jsonAdapter)
	}

	// Delivery engine
	d := dispatcher.New(cfg.Dispatcher, dataStore, httpClient, webhook.NewSigner(), hostLimiter, clock)
	eng := engine.New(cfg.Dispatcher, dataStore, matcher.New(dataStore), d, clock)
	if err := eng.Start(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to start delivery engine", zap.Error(err))
	}

	exec := executor.NewExecutor(dataStore, subCache, eng, cfg.Dispatcher.MaxAttempts, clock)

	// Create and start server
	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowOrigins: cfg.CORS.AllowOrigins,
	}, exec)

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Optional NATS JetStream intake
	if cfg.NATS.URL != "" {
		eventBridge, err := bridge.NewBridge(
			bridge.Config{
				URL:            cfg.NATS.URL,
				StreamName:     cfg.NATS.StreamName,
				ConsumerName:   cfg.NATS.ConsumerName,
				Subject:        cfg.NATS.Subject,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: cfg.NATS.ConnectionName,
				AckWaitTimeout: cfg.NATS.AckWait,
				MaxDeliver:     cfg.NATS.MaxDeliver,
			},
			adapter.NewNatsJetStream(),
			eng,
			jsonAdapter,
		)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create event bridge", zap.Error(err))
		}
		defer eventBridge.Close()
		logger.InfoCtx(ctx, "Event bridge created", zap.String("stream", cfg.NATS.StreamName), zap.String("consumer", cfg.NATS.ConsumerName))

		go func() {
			if err := eventBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("event bridge: %w", err)
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "api"))
	}
	cancel()

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Dispatcher.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	// Pending retries stay in the delivery log and resume on next start
	if err := eng.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, fmt.Errorf("delivery engine did not drain: %w", err))
	}

	logger.Info("Webhook dispatcher stopped")
}

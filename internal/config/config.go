package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by the services
const EnvPrefix = "FF_WEBHOOK"

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration for event intake. Intake is disabled when URL is empty.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	Subject        string        `mapstructure:"subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// RedisConfig holds Redis connection configuration. Redis is optional; empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// CORSConfig holds the origins allowed to call the API from a browser
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DispatcherConfig holds the delivery and retry settings
type DispatcherConfig struct {
	MaxAttempts          int           `mapstructure:"max_attempts"`
	BaseDelay            time.Duration `mapstructure:"base_delay"`
	MaxDelay             time.Duration `mapstructure:"max_delay"`
	Jitter               float64       `mapstructure:"jitter"` // randomization factor in [0, 1)
	HTTPTimeout          time.Duration `mapstructure:"http_timeout"`
	UserAgent            string        `mapstructure:"user_agent"`
	WorkerPoolSize       int           `mapstructure:"worker_pool_size"`
	QueueSize            int           `mapstructure:"queue_size"`
	MaxConcurrentPerHost int           `mapstructure:"max_concurrent_per_host"`
	StoreRetryMaxElapsed time.Duration `mapstructure:"store_retry_max_elapsed"` // bound on retrying a failed log write
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
}

// Validate checks the dispatcher settings
func (c *DispatcherConfig) Validate() error {
	switch {
	case c.MaxAttempts < 1:
		return errors.New("dispatcher.max_attempts must be at least 1")
	case c.BaseDelay <= 0:
		return errors.New("dispatcher.base_delay must be positive")
	case c.MaxDelay < c.BaseDelay:
		return errors.New("dispatcher.max_delay must not be less than dispatcher.base_delay")
	case c.Jitter < 0 || c.Jitter >= 1:
		return errors.New("dispatcher.jitter must be in [0, 1)")
	case c.HTTPTimeout <= 0:
		return errors.New("dispatcher.http_timeout must be positive")
	case c.WorkerPoolSize < 1:
		return errors.New("dispatcher.worker_pool_size must be at least 1")
	}
	return nil
}

// HostRateLimitConfig holds the per target host rate limit
type HostRateLimitConfig struct {
	Enabled                 bool          `mapstructure:"enabled"`
	RequestsPerSecond       int           `mapstructure:"requests_per_second"`
	Burst                   int           `mapstructure:"burst"`
	MaxWait                 time.Duration `mapstructure:"max_wait"`
	RedisKeyPrefix          string        `mapstructure:"redis_key_prefix"`
	EnableLocalFallback     bool          `mapstructure:"enable_local_fallback"`
	LocalFallbackMultiplier float64       `mapstructure:"local_fallback_multiplier"`
}

// CacheConfig holds the subscription cache settings. The cache needs Redis.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// RetentionConfig holds the delivery log retention settings. MaxAge 0 disables the sweeper.
type RetentionConfig struct {
	MaxAge   time.Duration `mapstructure:"max_age"`
	Interval time.Duration `mapstructure:"interval"`
}

// APIConfig holds configuration for the API server and delivery engine
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig        `mapstructure:"server"`
	CORS       CORSConfig          `mapstructure:"cors"`
	Database   DatabaseConfig      `mapstructure:"database"`
	Dispatcher DispatcherConfig    `mapstructure:"dispatcher"`
	RateLimit  HostRateLimitConfig `mapstructure:"rate_limit"`
	Redis      RedisConfig         `mapstructure:"redis"`
	Cache      CacheConfig         `mapstructure:"cache"`
	NATS       NATSConfig          `mapstructure:"nats"`
}

// SweeperConfig holds configuration for the sweeper program.
// dispatcher.max_attempts must match the API so exhausted chains are recognized.
type SweeperConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

// setDispatcherDefaults sets the delivery defaults shared by both services
func setDispatcherDefaults(v *viper.Viper) {
	v.SetDefault("dispatcher.max_attempts", 5)
	v.SetDefault("dispatcher.base_delay", "10s")
	v.SetDefault("dispatcher.max_delay", "15m")
	v.SetDefault("dispatcher.jitter", 0.2)
	v.SetDefault("dispatcher.http_timeout", "10s")
	v.SetDefault("dispatcher.user_agent", "ff-webhook-dispatcher/1.0")
	v.SetDefault("dispatcher.worker_pool_size", 50)
	v.SetDefault("dispatcher.queue_size", 10000)
	v.SetDefault("dispatcher.max_concurrent_per_host", 10)
	v.SetDefault("dispatcher.store_retry_max_elapsed", "30s")
	v.SetDefault("dispatcher.shutdown_timeout", "30s")
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	setDispatcherDefaults(v)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.max_wait", "30s")
	v.SetDefault("rate_limit.redis_key_prefix", "ff:webhook:host:")
	v.SetDefault("rate_limit.enable_local_fallback", true)
	v.SetDefault("rate_limit.local_fallback_multiplier", 0.5)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.key_prefix", "ff:webhook:subscription:")
	v.SetDefault("nats.stream_name", "WEBHOOK_EVENTS")
	v.SetDefault("nats.consumer_name", "webhook-dispatcher")
	v.SetDefault("nats.subject", "webhooks.events.>")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "webhook-dispatcher")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Dispatcher.Validate(); err != nil {
		return nil, err
	}
	if cfg.Cache.Enabled && cfg.Redis.Addr == "" {
		return nil, errors.New("cache.enabled requires redis.addr")
	}

	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	setDispatcherDefaults(v)
	v.SetDefault("retention.max_age", "72h")
	v.SetDefault("retention.interval", "12h")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Dispatcher.MaxAttempts < 1 {
		return nil, errors.New("dispatcher.max_attempts must be at least 1")
	}
	if cfg.Retention.MaxAge < 0 {
		return nil, errors.New("retention.max_age must not be negative")
	}
	if cfg.Retention.MaxAge > 0 && cfg.Retention.Interval <= 0 {
		return nil, errors.New("retention.interval must be positive")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search order: current directory, service directory (cmd/api/, cmd/sweeper/), config directory
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"cors.allow_origins",
		// Dispatcher
		"dispatcher.max_attempts",
		"dispatcher.base_delay",
		"dispatcher.max_delay",
		"dispatcher.jitter",
		"dispatcher.http_timeout",
		"dispatcher.user_agent",
		"dispatcher.worker_pool_size",
		"dispatcher.queue_size",
		"dispatcher.max_concurrent_per_host",
		"dispatcher.store_retry_max_elapsed",
		"dispatcher.shutdown_timeout",
		// Rate limit
		"rate_limit.enabled",
		"rate_limit.requests_per_second",
		"rate_limit.burst",
		"rate_limit.max_wait",
		"rate_limit.redis_key_prefix",
		"rate_limit.enable_local_fallback",
		"rate_limit.local_fallback_multiplier",
		// Redis & cache
		"redis.addr",
		"redis.password",
		"redis.db",
		"cache.enabled",
		"cache.ttl",
		"cache.key_prefix",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.subject",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Retention
		"retention.max_age",
		"retention.interval",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

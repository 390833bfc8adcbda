// Package config - agent configuration management.
//
// Uses Viper for:
// - optional YAML config file
// - environment variables (exact names, no prefix; devices are provisioned
//   through plain env files)
// - defaults
//
// Precedence (highest to lowest):
// 1. Environment variables
// 2. Config file
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// ============================================
// Main Configuration
// ============================================

// Config is the root configuration of the agent.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Device    DeviceConfig    `mapstructure:"device"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Store     StoreConfig     `mapstructure:"store"`
	Retention RetentionConfig `mapstructure:"retention"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// AppConfig identifies the build and the environment.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, production, test
}

// IsDevelopment reports whether the agent runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the agent runs in production mode.
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DeviceConfig holds the provisioned device identity and credentials.
type DeviceConfig struct {
	ID      string `mapstructure:"id"`       // provisioned device UUID
	HMACKey string `mapstructure:"hmac_key"` // offline-signature key
	Token   string `mapstructure:"token"`    // bearer JWT for server calls
}

// OpsConfig configures the localhost ops API.
type OpsConfig struct {
	Addr           string   `mapstructure:"addr"` // host:port; empty host means all interfaces
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LocalToken     string   `mapstructure:"local_token"` // arms the remote-access guard when set
}

// Host splits the listen host out of Addr.
func (c OpsConfig) Host() string {
	host, _, ok := strings.Cut(c.Addr, ":")
	if !ok {
		return c.Addr
	}
	return host
}

// Port splits the listen port out of Addr.
func (c OpsConfig) Port() string {
	_, port, ok := strings.Cut(c.Addr, ":")
	if !ok {
		return "8480"
	}
	return port
}

// SyncConfig tunes the replay path towards the server.
type SyncConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	WSURL       string `mapstructure:"ws_url"` // derived from BaseURL when empty
	BatchSize   int    `mapstructure:"batch_size"`
	HeartbeatMS int    `mapstructure:"heartbeat_ms"`
	MaxInFlight int    `mapstructure:"max_in_flight"`
}

// Heartbeat returns the dispatch interval as a duration.
func (c SyncConfig) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMS) * time.Millisecond
}

// PushURL returns the websocket endpoint, deriving it from the base URL
// when no explicit one was configured.
func (c SyncConfig) PushURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	ws := c.BaseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimSuffix(ws, "/") + "/api/v1/ws/devices"
}

// StoreConfig locates the local SQLite store.
type StoreConfig struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

// BusyTimeout returns the writer-lock wait as a duration.
func (c StoreConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// RetentionConfig sets the purge windows of the retention sweeper.
type RetentionConfig struct {
	QueueHours   int `mapstructure:"queue_hours"`   // completed queue items
	PendingHours int `mapstructure:"pending_hours"` // synced pending transactions
}

// QueueTTL returns the completed-item retention window.
func (c RetentionConfig) QueueTTL() time.Duration {
	return time.Duration(c.QueueHours) * time.Hour
}

// PendingTTL returns the synced-pending retention window.
func (c RetentionConfig) PendingTTL() time.Duration {
	return time.Duration(c.PendingHours) * time.Hour
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// SentryConfig configures error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// ============================================
// Configuration Loading
// ============================================

// Load reads configuration from an optional YAML file plus environment
// variables. configPath is the directory to search; pass "" for env-only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults installs the values the agent ships with.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "festivals-pos")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	// Ops API defaults: loopback is implied by the auth guard, not the bind
	// address, so kiosk setups can open the port without a rebuild.
	v.SetDefault("ops.addr", ":8480")
	v.SetDefault("ops.allowed_origins", []string{"*"})

	// Sync defaults
	v.SetDefault("sync.base_url", "http://localhost:8080")
	v.SetDefault("sync.batch_size", 20)
	v.SetDefault("sync.heartbeat_ms", 15000)
	v.SetDefault("sync.max_in_flight", 4)

	// Store defaults
	v.SetDefault("store.path", "festivals-pos.db")
	v.SetDefault("store.busy_timeout_ms", 5000)

	// Retention defaults
	v.SetDefault("retention.queue_hours", 24)
	v.SetDefault("retention.pending_hours", 168)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// bindEnvVars binds the exact environment names devices are provisioned
// with. No prefix: these names are shared with the provisioning tooling.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("device.hmac_key", "HMAC_DEVICE_KEY")
	_ = v.BindEnv("device.id", "DEVICE_ID")
	_ = v.BindEnv("device.token", "DEVICE_TOKEN")

	_ = v.BindEnv("sync.base_url", "SYNC_BASE_URL")
	_ = v.BindEnv("sync.ws_url", "SYNC_WS_URL")
	_ = v.BindEnv("sync.batch_size", "SYNC_BATCH_SIZE")
	_ = v.BindEnv("sync.heartbeat_ms", "SYNC_HEARTBEAT_MS")
	_ = v.BindEnv("sync.max_in_flight", "SYNC_MAX_IN_FLIGHT")

	_ = v.BindEnv("store.path", "STORE_PATH")
	_ = v.BindEnv("ops.addr", "OPS_ADDR")
	_ = v.BindEnv("ops.local_token", "OPS_LOCAL_TOKEN")

	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")
	_ = v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	_ = v.BindEnv("tracing.otlp_endpoint", "OTLP_ENDPOINT")

	_ = v.BindEnv("retention.queue_hours", "QUEUE_RETENTION_H")
	_ = v.BindEnv("retention.pending_hours", "PENDING_RETENTION_H")

	_ = v.BindEnv("app.environment", "ENVIRONMENT", "ENV")
	_ = v.BindEnv("app.version", "APP_VERSION")
}

// ============================================
// Validation
// ============================================

// Validate checks that the configuration can run a device.
func (c *Config) Validate() error {
	if c.Device.HMACKey == "" {
		return fmt.Errorf("HMAC_DEVICE_KEY is required")
	}
	if c.Device.ID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if _, err := uuid.Parse(c.Device.ID); err != nil {
		return fmt.Errorf("DEVICE_ID must be a UUID: %w", err)
	}
	if c.Sync.BaseURL == "" {
		return fmt.Errorf("SYNC_BASE_URL is required")
	}
	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be at least 1")
	}
	if c.Sync.HeartbeatMS < 100 {
		return fmt.Errorf("SYNC_HEARTBEAT_MS must be at least 100")
	}
	if c.Sync.MaxInFlight < 1 {
		return fmt.Errorf("SYNC_MAX_IN_FLIGHT must be at least 1")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required")
	}
	if c.Retention.QueueHours < 1 || c.Retention.PendingHours < 1 {
		return fmt.Errorf("retention windows must be at least one hour")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

// ============================================
// Presets
// ============================================

// Development returns a runnable development configuration.
func Development() *Config {
	return &Config{
		App:       AppConfig{Name: "festivals-pos", Version: "dev", Environment: "development"},
		Device:    DeviceConfig{ID: "6a1f6f88-5f0a-4a6e-9c57-0b2a4f1d9e11", HMACKey: "dev-hmac-key"},
		Ops:       OpsConfig{Addr: ":8480", AllowedOrigins: []string{"*"}},
		Sync:      SyncConfig{BaseURL: "http://localhost:8080", BatchSize: 20, HeartbeatMS: 15000, MaxInFlight: 4},
		Store:     StoreConfig{Path: "festivals-pos.db", BusyTimeoutMS: 5000},
		Retention: RetentionConfig{QueueHours: 24, PendingHours: 168},
		Log:       LogConfig{Level: "debug", Format: "text"},
		Tracing:   TracingConfig{OTLPEndpoint: "localhost:4318", SampleRatio: 1.0},
	}
}

// Test returns a configuration for tests: in-memory store, fast heartbeat,
// quiet logs.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Store.Path = ":memory:"
	cfg.Sync.HeartbeatMS = 100
	cfg.Log.Level = "error"
	return cfg
}

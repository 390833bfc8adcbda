package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// provisioned sets the two mandatory env vars so Load can succeed.
func provisioned(t *testing.T) {
	t.Helper()
	t.Setenv("HMAC_DEVICE_KEY", "test-hmac-key")
	t.Setenv("DEVICE_ID", "6a1f6f88-5f0a-4a6e-9c57-0b2a4f1d9e11")
}

func TestLoad_Defaults(t *testing.T) {
	provisioned(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "festivals-pos", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, ":8480", cfg.Ops.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Sync.BaseURL)
	assert.Equal(t, 20, cfg.Sync.BatchSize)
	assert.Equal(t, 15*time.Second, cfg.Sync.Heartbeat())
	assert.Equal(t, 4, cfg.Sync.MaxInFlight)
	assert.Equal(t, "festivals-pos.db", cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Store.BusyTimeout())
	assert.Equal(t, 24*time.Hour, cfg.Retention.QueueTTL())
	assert.Equal(t, 168*time.Hour, cfg.Retention.PendingTTL())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	provisioned(t)
	t.Setenv("SYNC_BASE_URL", "https://api.festival.example")
	t.Setenv("SYNC_BATCH_SIZE", "50")
	t.Setenv("SYNC_HEARTBEAT_MS", "5000")
	t.Setenv("STORE_PATH", "/var/lib/posd/store.db")
	t.Setenv("OPS_ADDR", "127.0.0.1:9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("QUEUE_RETENTION_H", "48")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.festival.example", cfg.Sync.BaseURL)
	assert.Equal(t, 50, cfg.Sync.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Sync.Heartbeat())
	assert.Equal(t, "/var/lib/posd/store.db", cfg.Store.Path)
	assert.Equal(t, "127.0.0.1", cfg.Ops.Host())
	assert.Equal(t, "9000", cfg.Ops.Port())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 48*time.Hour, cfg.Retention.QueueTTL())
}

func TestLoad_MissingProvisioning(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing hmac key",
			env:  map[string]string{"DEVICE_ID": "6a1f6f88-5f0a-4a6e-9c57-0b2a4f1d9e11"},
			want: "HMAC_DEVICE_KEY",
		},
		{
			name: "missing device id",
			env:  map[string]string{"HMAC_DEVICE_KEY": "key"},
			want: "DEVICE_ID",
		},
		{
			name: "device id not a uuid",
			env:  map[string]string{"HMAC_DEVICE_KEY": "key", "DEVICE_ID": "till-7"},
			want: "DEVICE_ID must be a UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.Sync.BatchSize = 0 }},
		{"heartbeat too fast", func(c *Config) { c.Sync.HeartbeatMS = 10 }},
		{"zero in flight", func(c *Config) { c.Sync.MaxInFlight = 0 }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"zero retention", func(c *Config) { c.Retention.QueueHours = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Development()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSyncConfig_PushURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SyncConfig
		want string
	}{
		{
			name: "explicit ws url wins",
			cfg:  SyncConfig{BaseURL: "https://api.example", WSURL: "wss://push.example/ws"},
			want: "wss://push.example/ws",
		},
		{
			name: "derived from https",
			cfg:  SyncConfig{BaseURL: "https://api.festival.example"},
			want: "wss://api.festival.example/api/v1/ws/devices",
		},
		{
			name: "derived from http",
			cfg:  SyncConfig{BaseURL: "http://localhost:8080"},
			want: "ws://localhost:8080/api/v1/ws/devices",
		},
		{
			name: "trailing slash trimmed",
			cfg:  SyncConfig{BaseURL: "http://localhost:8080/"},
			want: "ws://localhost:8080/api/v1/ws/devices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.PushURL())
		})
	}
}

func TestPresets(t *testing.T) {
	dev := Development()
	require.NoError(t, dev.Validate())
	assert.True(t, dev.App.IsDevelopment())

	test := Test()
	require.NoError(t, test.Validate())
	assert.Equal(t, ":memory:", test.Store.Path)
	assert.Equal(t, 100*time.Millisecond, test.Sync.Heartbeat())
}

func TestAppConfig_EnvironmentPredicates(t *testing.T) {
	assert.True(t, AppConfig{Environment: "development"}.IsDevelopment())
	assert.False(t, AppConfig{Environment: "production"}.IsDevelopment())
	assert.True(t, AppConfig{Environment: "production"}.IsProduction())
	assert.False(t, AppConfig{Environment: ""}.IsProduction())
}

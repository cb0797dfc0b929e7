package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000, cfg.HTTP.Port)
	assert.Equal(t, 100, cfg.WebSocket.WriteBufferSize)
	assert.Equal(t, 1024, cfg.Room.EventQueueSize)
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil http", func(c *Config) { c.HTTP = nil }},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"bad http read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
		{"nil websocket", func(c *Config) { c.WebSocket = nil }},
		{"bad ping interval", func(c *Config) { c.WebSocket.PingInterval = -time.Second }},
		{"bad write buffer", func(c *Config) { c.WebSocket.WriteBufferSize = 0 }},
		{"nil room", func(c *Config) { c.Room = nil }},
		{"bad queue size", func(c *Config) { c.Room.EventQueueSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SLIDECAST_HTTP_PORT", "9999")
	t.Setenv("SLIDECAST_HTTP_HOST", "127.0.0.1")
	t.Setenv("SLIDECAST_WEBSOCKET_PING_INTERVAL", "5s")
	t.Setenv("SLIDECAST_ROOM_EVENT_QUEUE_SIZE", "64")

	cfg := LoadFromEnv()
	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 5*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 64, cfg.Room.EventQueueSize)
}

func TestLoadFromEnvIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("SLIDECAST_HTTP_PORT", "not-a-number")
	t.Setenv("SLIDECAST_WEBSOCKET_READ_TIMEOUT", "eleven")

	cfg := LoadFromEnv()
	assert.Equal(t, DefaultConfig().HTTP.Port, cfg.HTTP.Port)
	assert.Equal(t, DefaultConfig().WebSocket.ReadTimeout, cfg.WebSocket.ReadTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"http": {"port": 8123, "read_timeout": "15s"},
		"websocket": {"write_buffer_size": 32, "ping_interval": "10s"},
		"room": {"event_queue_size": 512}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 32, cfg.WebSocket.WriteBufferSize)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 512, cfg.Room.EventQueueSize)
	// Untouched sections keep defaults.
	assert.Equal(t, DefaultConfig().HTTP.Host, cfg.HTTP.Host)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadConfigWithPrecedence(t *testing.T) {
	t.Setenv("SLIDECAST_HTTP_PORT", "9001")

	// No file: environment wins over defaults.
	cfg := LoadConfigWithPrecedence("")
	assert.Equal(t, 9001, cfg.HTTP.Port)

	// File present: file wins.
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http": {"port": 9002}}`), 0o644))
	cfg = LoadConfigWithPrecedence(path)
	assert.Equal(t, 9002, cfg.HTTP.Port)

	// Broken file is ignored; environment still applies.
	cfg = LoadConfigWithPrecedence(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 9001, cfg.HTTP.Port)
}

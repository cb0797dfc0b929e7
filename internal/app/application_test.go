package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidecast/internal/config"
)

func TestNewApplicationWithDefaults(t *testing.T) {
	application, err := NewApplication(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", application.GetAddr())
}

func TestNewApplicationRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Port = -1

	_, err := NewApplication(cfg)
	assert.Error(t, err)
}

func TestNewApplicationUsesConfiguredAddress(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = 8080

	application, err := NewApplication(cfg)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", application.GetAddr())
}

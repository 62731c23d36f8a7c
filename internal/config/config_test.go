package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		assert.Equal(t, "0.0.0.0", cfg.ServerHost)
		assert.Equal(t, 8080, cfg.ServerPort)
		assert.Equal(t, "postgres", cfg.DBDriver)
		assert.Equal(t, 25, cfg.DBMaxOpenConnections)
		assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
		assert.Equal(t, 3, cfg.DBRetryMaxAttempts)
		assert.Equal(t, 5*time.Minute, cfg.ResolveCacheTTL)
		assert.Equal(t, time.Minute, cfg.VerifyCacheTTL)
		assert.Equal(t, 30*time.Second, cfg.RevocationRefreshInterval)
		assert.Equal(t, 5*time.Minute, cfg.ApprovalDefaultTimeout)
		assert.Equal(t, "mcpf", cfg.MetricsNamespace)
		assert.True(t, cfg.MetricsEnabled)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("RESOLVE_CACHE_TTL_SECONDS", "10")
		t.Setenv("APPROVAL_DEFAULT_TIMEOUT_SECONDS", "60")

		cfg := Load()

		assert.Equal(t, 9090, cfg.ServerPort)
		assert.Equal(t, "mysql", cfg.DBDriver)
		assert.Equal(t, 10*time.Second, cfg.ResolveCacheTTL)
		assert.Equal(t, time.Minute, cfg.ApprovalDefaultTimeout)
	})
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}

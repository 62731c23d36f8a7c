package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient error then succeeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return driver.ErrBadConn
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-transient error surfaces immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("constraint violation")
		err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausted retries wrap as unavailable", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return driver.ErrBadConn
		})
		assert.ErrorIs(t, err, driver.ErrBadConn)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Equal(t, 3, calls)
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, cfg, func(ctx context.Context) error {
			return driver.ErrBadConn
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"pq connection exception", &pq.Error{Code: "08006"}, true},
		{"pq serialization failure", &pq.Error{Code: "40001"}, true},
		{"pq unique violation", &pq.Error{Code: "23505"}, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql syntax error", &mysql.MySQLError{Number: 1064}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

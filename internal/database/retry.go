package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// RetryConfig bounds the retry loop for transient backing-store errors.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig is used when no explicit retry configuration is provided.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
}

// WithRetry runs fn, retrying transient errors with exponential backoff.
// Non-transient errors (not found, constraint violations, malformed input)
// surface immediately. After MaxAttempts transient failures the error is
// wrapped as ErrUnavailable so callers can tell "store unreachable" apart
// from "record absent".
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg = DefaultRetryConfig
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return apperrors.Wrap(ctx.Err(), "retry cancelled")
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, lastErr)
}

// RetryValue runs fn under WithRetry for calls that return a value.
func RetryValue[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var value T
	err := WithRetry(ctx, cfg, func(ctx context.Context) error {
		var fnErr error
		value, fnErr = fn(ctx)
		return fnErr
	})
	return value, err
}

// IsTransient reports whether an error is worth retrying: connection drops,
// timeouts, driver "bad connection" states, and serialization failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 (connection exception), 40001 (serialization failure),
		// 40P01 (deadlock detected), 57P03 (cannot connect now).
		code := string(pqErr.Code)
		return strings.HasPrefix(code, "08") || code == "40001" || code == "40P01" || code == "57P03"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1205 (lock wait timeout), 1213 (deadlock), 2006/2013 (server gone/lost).
		switch myErr.Number {
		case 1205, 1213, 2006, 2013:
			return true
		}
	}

	return false
}

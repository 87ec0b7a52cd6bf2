package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Health is the database part of the /health answer
type Health struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	OpenConns    int           `json:"open_connections"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
}

func (db *DB) HealthCheck(ctx context.Context) Health {
	start := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.PingContext(pingCtx)

	stats := db.Stats()
	h := Health{
		Status:       "healthy",
		ResponseTime: time.Since(start),
		OpenConns:    stats.OpenConnections,
		InUse:        stats.InUse,
		Idle:         stats.Idle,
		WaitCount:    stats.WaitCount,
	}
	if err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
		slog.Error("Database health check failed", "error", err)
	}

	return h
}

// ValidateConnectionPool warns about pool settings that will starve
// concurrent checkouts. Each checkout holds one connection for its whole
// transaction.
func (db *DB) ValidateConnectionPool(cfg Config) error {
	if cfg.MaxOpenConns <= 0 {
		return nil
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		return fmt.Errorf("max idle connections (%d) exceed max open connections (%d)", cfg.MaxIdleConns, cfg.MaxOpenConns)
	}
	if cfg.MaxOpenConns < 10 {
		return fmt.Errorf("max open connections (%d) is below 10, concurrent checkouts will queue", cfg.MaxOpenConns)
	}
	return nil
}

// Retry runs op up to attempts times while it fails with a connection
// exception or a serialization failure, backing off linearly.
func Retry(ctx context.Context, attempts int, op func() error) error {
	const backoffDelay = 100 * time.Millisecond

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil || !isRetryableError(err) {
			return err
		}

		if attempt < attempts {
			slog.Warn("Database operation failed, retrying",
				"attempt", attempt, "max_retries", attempts, "error", err)
			select {
			case <-ctx.Done():
				return err
			case <-time.After(time.Duration(attempt) * backoffDelay):
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exception, 40001 is serialization_failure.
		return pqErr.Code.Class() == "08" || pqErr.Code == "40001"
	}

	errStr := err.Error()
	for _, retryable := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"driver: bad connection",
	} {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sourcescan/sourcescan/internal/config"
)

// Probe outcome status values.
const (
	ProbeSuccess = "success"
	ProbeError   = "error"
)

// ProbeResult reports the outcome of a connection probe.
type ProbeResult struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Probe opens a short-lived connection, executes a trivial round-trip query,
// and closes the connection on every exit path. All connection-level
// failures (auth rejection, unreachable host, timeout, malformed DSN) are
// captured in the result rather than returned as an error.
func Probe(ctx context.Context, cfg config.ConnectionConfig, timeout time.Duration) ProbeResult {
	if timeout <= 0 {
		timeout = config.DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return probeFailure(err)
	}
	dsn, err := handler.BuildDSN(cfg)
	if err != nil {
		return probeFailure(err)
	}

	pool, err := sql.Open(handler.DriverName(), dsn)
	if err != nil {
		return probeFailure(fmt.Errorf("open connection: %w", err))
	}
	defer pool.Close()

	if err := pool.PingContext(ctx); err != nil {
		return probeFailure(fmt.Errorf("ping: %w", err))
	}

	var one int
	if err := pool.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return probeFailure(fmt.Errorf("round-trip query: %w", err))
	}

	return ProbeResult{
		Status:    ProbeSuccess,
		Message:   "database connection successful",
		Timestamp: time.Now().UTC(),
	}
}

// ProbePool runs the round-trip check against an already open pool. Used by
// tests and by callers that manage their own connection lifetime.
func ProbePool(ctx context.Context, pool *sql.DB, timeout time.Duration) ProbeResult {
	if timeout <= 0 {
		timeout = config.DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		return probeFailure(fmt.Errorf("ping: %w", err))
	}
	var one int
	if err := pool.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return probeFailure(fmt.Errorf("round-trip query: %w", err))
	}
	return ProbeResult{
		Status:    ProbeSuccess,
		Message:   "database connection successful",
		Timestamp: time.Now().UTC(),
	}
}

func probeFailure(err error) ProbeResult {
	return ProbeResult{
		Status:    ProbeError,
		Message:   fmt.Sprintf("database connection failed: %v", err),
		Timestamp: time.Now().UTC(),
	}
}

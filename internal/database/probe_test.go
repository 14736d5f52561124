package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sourcescan/sourcescan/internal/config"
)

func TestProbePool_Success(t *testing.T) {
	pool, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	defer pool.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?"}).AddRow(1))

	result := ProbePool(context.Background(), pool, time.Second)
	if result.Status != ProbeSuccess {
		t.Errorf("ProbePool() status = %s, want %s (message: %s)", result.Status, ProbeSuccess, result.Message)
	}
	if result.Message != "database connection successful" {
		t.Errorf("ProbePool() message = %q", result.Message)
	}
	if result.Timestamp.IsZero() {
		t.Error("ProbePool() returned zero timestamp")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProbePool_PingFailure(t *testing.T) {
	pool, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	defer pool.Close()

	mock.ExpectPing().WillReturnError(errors.New("pq: password authentication failed"))

	result := ProbePool(context.Background(), pool, time.Second)
	if result.Status != ProbeError {
		t.Errorf("ProbePool() status = %s, want %s", result.Status, ProbeError)
	}
	if !strings.Contains(result.Message, "database connection failed") {
		t.Errorf("ProbePool() message = %q, want connection failure text", result.Message)
	}
	if !strings.Contains(result.Message, "password authentication failed") {
		t.Errorf("ProbePool() message = %q, want driver error preserved", result.Message)
	}
}

func TestProbePool_QueryFailure(t *testing.T) {
	pool, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	defer pool.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection reset"))

	result := ProbePool(context.Background(), pool, time.Second)
	if result.Status != ProbeError {
		t.Errorf("ProbePool() status = %s, want %s", result.Status, ProbeError)
	}
}

// Probe captures pre-I/O failures (unknown dialect, invalid config) in the
// result instead of returning an error.
func TestProbe_UnsupportedDialect(t *testing.T) {
	result := Probe(context.Background(), config.ConnectionConfig{Dialect: "oracle"}, time.Second)
	if result.Status != ProbeError {
		t.Errorf("Probe() status = %s, want %s", result.Status, ProbeError)
	}
	if !strings.Contains(result.Message, "unsupported dialect") {
		t.Errorf("Probe() message = %q, want unsupported dialect text", result.Message)
	}
}

func TestProbe_InvalidConfig(t *testing.T) {
	mu.Lock()
	_, registered := dialectHandlers["probe_testdialect"]
	mu.Unlock()
	if !registered {
		RegisterDialectHandler("probe_testdialect", &mockDialectHandler{
			buildDSNFn: func(cfg config.ConnectionConfig) (string, error) {
				return "", errors.New("invalid connection config: missing host")
			},
		})
	}

	result := Probe(context.Background(), config.ConnectionConfig{Dialect: "probe_testdialect"}, time.Second)
	if result.Status != ProbeError {
		t.Errorf("Probe() status = %s, want %s", result.Status, ProbeError)
	}
	if !strings.Contains(result.Message, "missing host") {
		t.Errorf("Probe() message = %q, want config error text", result.Message)
	}
}

package database

import "errors"

// Sentinel errors for connection-config validation. Both are returned
// before any I/O is attempted.
var (
	// ErrUnsupportedDialect is returned for a dialect identifier outside
	// the recognized set (postgresql, mysql, sqlite, mssql).
	ErrUnsupportedDialect = errors.New("unsupported dialect")

	// ErrInvalidConfig is returned when a dialect-required connection
	// field is missing or empty.
	ErrInvalidConfig = errors.New("invalid connection config")
)

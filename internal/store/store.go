// Package store provides the key-value document store that holds learner
// progress. Each driver persists opaque JSON documents under string keys.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("document not found")

//go:embed migrations
var migrations embed.FS

// KV is a dumb byte store keyed by string.
type KV interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the underlying connection.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config selects and configures a driver.
type Config struct {
	Driver string
	// DSN is a file path or URI for sqlite, a connection string for
	// postgres and an address or redis:// URL for redis.
	DSN string
	// Prefix namespaces redis keys.
	Prefix string
}

// Open connects to the configured driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve DB path: %w", err)
			}
			dsn = p
		}
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case DriverRedis:
		return OpenRedis(ctx, cfg.DSN, cfg.Prefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
}

// DefaultDBPath resolves the database file path in priority order:
// 1. FLAGZ_DB environment variable
// 2. $XDG_DATA_HOME/flagz/flagz.db
// 3. ~/.local/share/flagz/flagz.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("FLAGZ_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "flagz", "flagz.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

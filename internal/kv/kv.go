package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"seasontrack/internal/config"
	"seasontrack/internal/logging"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store closed")

// Store reads and writes whole values by key.
type Store interface {
	// Get returns the value for key. found is false when the key was never
	// written or has been deleted.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Backend names the implementation ("sqlite", "file", "memory").
	Backend() string
	Close() error
}

// Locker is implemented by stores whose data can be shared with other
// processes. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// CorruptMover is implemented by stores whose whole container, not just one
// value, can become unreadable. MoveCorrupt renames the container aside so
// the next Set starts an empty one, and returns where it went. It returns an
// empty path when the container is readable again.
type CorruptMover interface {
	MoveCorrupt(ctx context.Context, at time.Time) (backup string, err error)
}

// Options carries settings shared by the file-backed stores.
type Options struct {
	// LockPath is the advisory lock file. Empty disables cross-process locking.
	LockPath string
	// LockTimeout bounds Lock. Zero waits until ctx is done.
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// Open constructs the backend selected by cfg.Storage.Backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, errors.New("kv: config is required")
	}
	opts := Options{
		LockPath:    cfg.LockPath(),
		LockTimeout: time.Duration(cfg.Storage.LockTimeoutSeconds) * time.Second,
		Logger:      logger,
	}
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.Storage.Path, opts)
	case config.BackendFile:
		return OpenFile(cfg.Storage.Path, opts)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unsupported backend %q", cfg.Storage.Backend)
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func componentLogger(logger *slog.Logger, backend string) *slog.Logger {
	return logging.NewComponentLogger(logger, "kv").With(logging.String(logging.FieldBackend, backend))
}

package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// ErrLockTimeout is returned when another process holds the storage lock for
// longer than the configured timeout.
var ErrLockTimeout = errors.New("timed out waiting for storage lock")

type fileLock struct {
	path    string
	timeout time.Duration
}

func newFileLock(path string, timeout time.Duration) *fileLock {
	if path == "" {
		return nil
	}
	return &fileLock{path: path, timeout: timeout}
}

// Lock acquires an exclusive flock on the lock file. Each call uses its own
// descriptor, so two holders in the same process also exclude each other.
func (l *fileLock) Lock(ctx context.Context) (func() error, error) {
	if l == nil {
		return func() error { return nil }, nil
	}
	ctx = ensureContext(ctx)
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	lock := flock.New(l.path)
	ok, err := lock.TryLockContext(waitCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, l.path)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, l.path)
	}
	return lock.Unlock, nil
}

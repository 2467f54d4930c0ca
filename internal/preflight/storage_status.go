package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"

	"seasontrack/internal/config"
	"seasontrack/internal/kv"
	"seasontrack/internal/watchlist"
)

// StorageSnapshot is a read-only snapshot of the persisted watch list.
type StorageSnapshot struct {
	Backend string
	Path    string
	Exists  bool
	Records int
	Watched int
	// Corrupt holds the decode failure when the stored value is unreadable.
	Corrupt error
	// Err holds a failure to open or read the backend.
	Err error
}

// InspectStorage inspects the configured backend without writing to it. Missing
// storage files are reported rather than created.
func InspectStorage(ctx context.Context, cfg *config.Config) StorageSnapshot {
	if cfg == nil {
		return StorageSnapshot{Err: errors.New("config is required")}
	}
	snap := StorageSnapshot{Backend: cfg.Storage.Backend, Path: cfg.Storage.Path}
	if cfg.Storage.Backend == config.BackendMemory {
		return snap
	}

	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		if !os.IsNotExist(err) {
			snap.Err = fmt.Errorf("stat: %w", err)
		}
		return snap
	}
	snap.Exists = true

	backend, err := kv.Open(cfg, nil)
	if err != nil {
		snap.Err = err
		return snap
	}
	defer backend.Close()

	raw, found, err := backend.Get(ctx, cfg.Storage.Key)
	if errors.Is(err, kv.ErrCorruptDocument) {
		snap.Corrupt = err
		return snap
	}
	if err != nil {
		snap.Err = err
		return snap
	}
	if !found {
		return snap
	}
	list, err := watchlist.Decode(raw)
	if err != nil {
		snap.Corrupt = err
		return snap
	}
	snap.Records = len(list)
	snap.Watched = list.WatchedCount()
	return snap
}

// Location renders the backend and path for status output.
func (p StorageSnapshot) Location() string {
	if p.Path == "" {
		return p.Backend
	}
	return fmt.Sprintf("%s %s", p.Backend, p.Path)
}

// Summary renders the record counts for status UIs.
func (p StorageSnapshot) Summary() string {
	if p.Backend == config.BackendMemory {
		return "in-memory; nothing persisted"
	}
	if p.Records == 0 {
		return "no records"
	}
	return fmt.Sprintf("%d records, %d watched", p.Records, p.Watched)
}

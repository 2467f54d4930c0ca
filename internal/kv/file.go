package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"seasontrack/internal/fileutil"
	"seasontrack/internal/logging"
)

// ErrCorruptDocument means the backing file exists but is not a JSON object
// of string values. The file is left untouched until MoveCorrupt.
var ErrCorruptDocument = errors.New("kv document is not valid JSON")

// FileStore keeps every key in one JSON object on disk. Each Set rewrites the
// whole document through a temp file and rename so readers never observe a
// partial write.
type FileStore struct {
	path   string
	lock   *fileLock
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// OpenFile returns a store backed by the JSON document at path. The file is
// created lazily on the first Set.
func OpenFile(path string, opts Options) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("kv: file backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{
		path:   path,
		lock:   newFileLock(opts.LockPath, opts.LockTimeout),
		logger: componentLogger(opts.Logger, "file"),
	}, nil
}

// Path returns the backing document path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false, ErrClosed
	}
	doc, err := f.load()
	if err != nil {
		return nil, false, err
	}
	value, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (f *FileStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	doc, err := f.load()
	if err != nil {
		return err
	}
	doc[key] = string(value)
	if err := f.save(doc); err != nil {
		return fmt.Errorf("persist %s: %w", f.path, err)
	}
	f.logger.Debug("stored value",
		logging.String(logging.FieldStorageKey, key),
		logging.Int("bytes", len(value)))
	return nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	if err := f.save(doc); err != nil {
		return fmt.Errorf("persist %s: %w", f.path, err)
	}
	return nil
}

// Lock holds the cross-process storage lock.
func (f *FileStore) Lock(ctx context.Context) (func() error, error) {
	return f.lock.Lock(ctx)
}

// MoveCorrupt renames an unreadable document to <path>.corrupt.<unix>.
// Callers hold Lock so another process cannot write in between.
func (f *FileStore) MoveCorrupt(_ context.Context, at time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", ErrClosed
	}
	if _, err := f.load(); err == nil || !errors.Is(err, ErrCorruptDocument) {
		return "", err
	}
	backup := fmt.Sprintf("%s.corrupt.%d", f.path, at.Unix())
	if err := os.Rename(f.path, backup); err != nil {
		return "", fmt.Errorf("move corrupt document: %w", err)
	}
	f.logger.Warn("moved unreadable document aside",
		logging.String("backup_path", backup),
		logging.String(logging.FieldEventType, "kv_document_corrupt"),
		logging.String(logging.FieldErrorHint, "inspect the backup to recover old entries"))
	return backup, nil
}

func (f *FileStore) Backend() string { return "file" }

func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, f.path, err)
	}
	if doc == nil {
		doc = make(map[string]string)
	}
	return doc, nil
}

func (f *FileStore) save(doc map[string]string) error {
	// encoding/json sorts map keys, so output is deterministic.
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if err := fileutil.WriteFileAtomic(f.path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	return nil
}

package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"seasontrack/internal/kv"
	"seasontrack/internal/logging"
)

// DefaultKey is the storage key holding the watch list.
const DefaultKey = "@seasontrack:watchlist"

// CorruptPolicy selects what LoadAll and mutations do when the stored value
// cannot be decoded.
type CorruptPolicy int

const (
	// CorruptReset logs a warning and treats the list as empty. The first
	// mutation copies the unreadable value to a backup key before replacing it.
	CorruptReset CorruptPolicy = iota
	// CorruptFail returns a CorruptDataError until the value is repaired.
	CorruptFail
)

// ParseCorruptPolicy maps the config spelling ("reset", "fail") to a policy.
func ParseCorruptPolicy(value string) (CorruptPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "reset":
		return CorruptReset, nil
	case "fail":
		return CorruptFail, nil
	default:
		return CorruptReset, fmt.Errorf("unknown corrupt policy %q", value)
	}
}

// Store is the single owner of the persisted watch list.
type Store struct {
	backend kv.Store
	key     string
	policy  CorruptPolicy
	newID   func() string
	now     func() time.Time
	logger  *slog.Logger

	mu sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key = strings.TrimSpace(key); key != "" {
			s.key = key
		}
	}
}

// WithCorruptPolicy selects the corrupt data policy.
func WithCorruptPolicy(policy CorruptPolicy) Option {
	return func(s *Store) { s.policy = policy }
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces the clock used to name corrupt value backups.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New returns a Store persisting to backend.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		policy:  CorruptReset,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "watchlist").
		With(logging.String(logging.FieldStorageKey, s.key))
	return s
}

// Key returns the storage key the list is persisted under.
func (s *Store) Key() string { return s.key }

// LoadAll returns the current list. A missing value is an empty list.
func (s *Store) LoadAll(ctx context.Context) (WatchList, error) {
	ctx = logging.WithOperation(ctx, "load")
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return list.Clone(), nil
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (SeasonRecord, error) {
	id, err := normalizeID(id)
	if err != nil {
		return SeasonRecord{}, err
	}
	ctx = logging.WithRecordID(logging.WithOperation(ctx, "get"), id)
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _, err := s.load(ctx)
	if err != nil {
		return SeasonRecord{}, err
	}
	idx := list.IndexOf(id)
	if idx < 0 {
		return SeasonRecord{}, &NotFoundError{ID: id}
	}
	return list[idx], nil
}

// Add validates the input, appends a new unwatched record with a fresh id,
// and returns it.
func (s *Store) Add(ctx context.Context, name, totalSeasonCount string) (SeasonRecord, error) {
	name, count, err := validateFields(name, totalSeasonCount)
	if err != nil {
		return SeasonRecord{}, err
	}
	ctx = logging.WithOperation(ctx, "add")

	var created SeasonRecord
	_, err = s.mutate(ctx, func(list WatchList) (WatchList, bool, error) {
		id := s.newID()
		for list.IndexOf(id) >= 0 {
			id = s.newID()
		}
		created = SeasonRecord{ID: id, Name: name, TotalSeasonCount: count}
		return append(list, created), true, nil
	})
	if err != nil {
		return SeasonRecord{}, err
	}
	s.logger.InfoContext(logging.WithRecordID(ctx, created.ID), "record added",
		logging.String("name", created.Name),
		logging.Int("total_season_count", created.TotalSeasonCount))
	return created, nil
}

// Update replaces the name and season count of the record with id, keeping
// its id and watched flag.
func (s *Store) Update(ctx context.Context, id, name, totalSeasonCount string) (WatchList, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	name, count, err := validateFields(name, totalSeasonCount)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRecordID(logging.WithOperation(ctx, "update"), id)

	list, err := s.mutate(ctx, func(list WatchList) (WatchList, bool, error) {
		idx := list.IndexOf(id)
		if idx < 0 {
			return nil, false, &NotFoundError{ID: id}
		}
		rec := &list[idx]
		if rec.Name == name && rec.TotalSeasonCount == count {
			return list, false, nil
		}
		rec.Name = name
		rec.TotalSeasonCount = count
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "record updated",
		logging.String("name", name),
		logging.Int("total_season_count", count))
	return list, nil
}

// ToggleWatched flips the watched flag of the record with id.
func (s *Store) ToggleWatched(ctx context.Context, id string) (WatchList, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRecordID(logging.WithOperation(ctx, "toggle"), id)

	var watched bool
	list, err := s.mutate(ctx, func(list WatchList) (WatchList, bool, error) {
		idx := list.IndexOf(id)
		if idx < 0 {
			return nil, false, &NotFoundError{ID: id}
		}
		list[idx].IsWatched = !list[idx].IsWatched
		watched = list[idx].IsWatched
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "record toggled", logging.Bool("watched", watched))
	return list, nil
}

// Remove drops the record with id. An absent id leaves the list unchanged and
// is not an error.
func (s *Store) Remove(ctx context.Context, id string) (WatchList, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRecordID(logging.WithOperation(ctx, "remove"), id)

	var removed bool
	list, err := s.mutate(ctx, func(list WatchList) (WatchList, bool, error) {
		kept := list[:0]
		for _, rec := range list {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		removed = len(kept) != len(list)
		return kept, removed, nil
	})
	if err != nil {
		return nil, err
	}
	if removed {
		s.logger.InfoContext(ctx, "record removed")
	} else {
		s.logger.DebugContext(ctx, "remove skipped; record absent")
	}
	return list, nil
}

func validateFields(name, totalSeasonCount string) (string, int, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return "", 0, err
	}
	count, err := ParseSeasonCount(totalSeasonCount)
	if err != nil {
		return "", 0, err
	}
	return normalized, count, nil
}

// mutate runs one read-modify-write cycle. fn receives a private copy of the
// list and reports whether it changed; unchanged lists are not written back.
func (s *Store) mutate(ctx context.Context, fn func(WatchList) (WatchList, bool, error)) (WatchList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locker, ok := s.backend.(kv.Locker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return nil, &StorageError{Op: "lock", Err: err}
		}
		defer func() {
			if err := unlock(); err != nil {
				logging.WarnWithContext(ctx, s.logger, "failed to release storage lock", "storage_unlock_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "remove the stale lock file if later commands time out"))
			}
		}()
	}

	list, corrupt, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	next, changed, err := fn(list.Clone())
	if err != nil {
		return nil, err
	}
	if !changed {
		return list, nil
	}

	if corrupt != nil {
		if err := s.preserveCorrupt(ctx, corrupt); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// corruption describes stored data that could not be read under CorruptReset.
type corruption struct {
	// raw is the undecodable value stored under the key.
	raw []byte
	// document is set when the backend container itself is unreadable, so
	// no value could be fetched at all.
	document bool
}

// load reads and decodes the stored list. Under CorruptReset unreadable data
// yields an empty list plus a corruption, so a later write can preserve the
// old data first.
func (s *Store) load(ctx context.Context) (WatchList, *corruption, error) {
	raw, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrCorruptDocument) {
			return s.handleCorrupt(ctx, &corruption{document: true}, err)
		}
		return nil, nil, &StorageError{Op: "read", Err: err}
	}
	if !found {
		return WatchList{}, nil, nil
	}

	list, decodeErr := Decode(raw)
	if decodeErr != nil {
		return s.handleCorrupt(ctx, &corruption{raw: raw}, decodeErr)
	}
	s.logger.DebugContext(ctx, "loaded watch list", logging.Int("record_count", len(list)))
	return list, nil, nil
}

func (s *Store) handleCorrupt(ctx context.Context, c *corruption, cause error) (WatchList, *corruption, error) {
	if s.policy == CorruptFail {
		logging.ErrorWithContext(ctx, s.logger, "stored watch list is unreadable", "watchlist_corrupt",
			logging.Error(cause),
			logging.Int("bytes", len(c.raw)),
			logging.Bool("document", c.document),
			logging.String(logging.FieldErrorHint, "repair the stored value or set storage.corrupt_policy = \"reset\""))
		return nil, nil, &CorruptDataError{Key: s.key, Err: cause}
	}
	logging.WarnWithContext(ctx, s.logger, "stored watch list is unreadable; treating it as empty", "watchlist_corrupt",
		logging.Error(cause),
		logging.Int("bytes", len(c.raw)),
		logging.Bool("document", c.document),
		logging.String(logging.FieldErrorHint, "the unreadable data is backed up before the next change"),
		logging.String(logging.FieldImpact, "previously tracked series are hidden until restored"))
	return WatchList{}, c, nil
}

// preserveCorrupt copies an undecodable value to a backup key, or moves an
// unreadable container aside, before the first write replaces it.
func (s *Store) preserveCorrupt(ctx context.Context, c *corruption) error {
	if !c.document {
		return s.backupCorrupt(ctx, c.raw)
	}
	mover, ok := s.backend.(kv.CorruptMover)
	if !ok {
		return &StorageError{Op: "backup", Err: fmt.Errorf("%s backend cannot move unreadable data aside", s.backend.Backend())}
	}
	backup, err := mover.MoveCorrupt(ctx, s.now())
	if err != nil {
		return &StorageError{Op: "backup", Err: err}
	}
	if backup != "" {
		logging.WarnWithContext(ctx, s.logger, "moved unreadable storage aside", "watchlist_corrupt_backup",
			logging.String("backup_path", backup),
			logging.String(logging.FieldErrorHint, "inspect the backup file to recover old entries"),
			logging.String(logging.FieldImpact, "a new storage file is started with the changed list"))
	}
	return nil
}

func (s *Store) backupCorrupt(ctx context.Context, raw []byte) error {
	backupKey := s.BackupKey(s.now())
	if err := s.backend.Set(ctx, backupKey, raw); err != nil {
		return &StorageError{Op: "backup", Err: err}
	}
	logging.WarnWithContext(ctx, s.logger, "backed up unreadable watch list", "watchlist_corrupt_backup",
		logging.String("backup_key", backupKey),
		logging.Int("bytes", len(raw)),
		logging.String(logging.FieldErrorHint, "inspect the backup key to recover old entries"),
		logging.String(logging.FieldImpact, "the stored watch list is replaced by the new version"))
	return nil
}

func (s *Store) save(ctx context.Context, list WatchList) error {
	data, err := Encode(list)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

// BackupKey returns the key a corrupt value would be copied to at t.
func (s *Store) BackupKey(t time.Time) string {
	return fmt.Sprintf("%s.corrupt.%d", s.key, t.Unix())
}

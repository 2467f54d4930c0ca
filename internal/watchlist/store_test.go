package watchlist_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"seasontrack/internal/config"
	"seasontrack/internal/kv"
	"seasontrack/internal/testsupport"
	"seasontrack/internal/watchlist"
)

func storedValue(t *testing.T, backend kv.Store, key string) string {
	t.Helper()
	raw, found, err := backend.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("backend.Get: %v", err)
	}
	if !found {
		return ""
	}
	return string(raw)
}

func TestLoadAllEmptyWhenNothingStored(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	list, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestWatchListScenario(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendSQLite, config.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			store := testsupport.MustOpenStore(t, testsupport.NewConfig(t, testsupport.WithBackend(backend)))

			bb := testsupport.AddRecord(t, store, "Breaking Bad", "5")
			wire := testsupport.AddRecord(t, store, "The Wire", "5")

			list, err := store.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			want := watchlist.WatchList{
				{ID: bb.ID, Name: "Breaking Bad", TotalSeasonCount: 5},
				{ID: wire.ID, Name: "The Wire", TotalSeasonCount: 5},
			}
			assertList(t, list, want)

			if _, err := store.ToggleWatched(ctx, wire.ID); err != nil {
				t.Fatalf("ToggleWatched: %v", err)
			}
			list, _ = store.LoadAll(ctx)
			want[1].IsWatched = true
			assertList(t, list, want)

			if _, err := store.Remove(ctx, bb.ID); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			list, _ = store.LoadAll(ctx)
			assertList(t, list, watchlist.WatchList{{ID: wire.ID, Name: "The Wire", TotalSeasonCount: 5, IsWatched: true}})
		})
	}
}

func assertList(t *testing.T, got, want watchlist.WatchList) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("list length %d, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		before, _ := store.LoadAll(ctx)
		rec := testsupport.AddRecord(t, store, fmt.Sprintf("Show %d", i), "3")
		if rec.IsWatched {
			t.Fatal("new records must start unwatched")
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate id %q", rec.ID)
		}
		seen[rec.ID] = true

		after, _ := store.LoadAll(ctx)
		if len(after) != len(before)+1 {
			t.Fatalf("expected exactly one new record, got %d -> %d", len(before), len(after))
		}
		if after[len(after)-1] != rec {
			t.Fatalf("new record not appended last: %#v", after[len(after)-1])
		}
	}
}

func TestAddRegeneratesCollidingID(t *testing.T) {
	ids := []string{"fixed", "fixed", "second"}
	next := 0
	store := watchlist.New(kv.NewMemory(), watchlist.WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))

	first, err := store.Add(context.Background(), "A", "1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := store.Add(context.Background(), "B", "1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID != "fixed" || second.ID != "second" {
		t.Fatalf("unexpected ids %q, %q", first.ID, second.ID)
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	backend := testsupport.MustOpenBackend(t, cfg)
	store := watchlist.New(backend)
	existing, err := store.Add(ctx, "Existing", "2")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	before := storedValue(t, backend, store.Key())

	cases := []struct {
		name, seasons, field string
	}{
		{"", "3", "name"},
		{"   ", "3", "name"},
		{"Show", "", "totalSeasonCount"},
		{"Show", "three", "totalSeasonCount"},
		{"Show", "0", "totalSeasonCount"},
		{"Show", "-2", "totalSeasonCount"},
		{"Show", "2.5", "totalSeasonCount"},
		{"Show", "1001", "totalSeasonCount"},
		{strings.Repeat("x", watchlist.MaxNameLength+1), "1", "name"},
	}
	for _, tc := range cases {
		_, err := store.Add(ctx, tc.name, tc.seasons)
		var verr *watchlist.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Add(%q, %q): expected ValidationError, got %v", tc.name, tc.seasons, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("Add(%q, %q): field %q, want %q", tc.name, tc.seasons, verr.Field, tc.field)
		}
		if !errors.Is(err, watchlist.ErrValidation) || watchlist.Kind(err) != watchlist.KindValidation {
			t.Fatalf("ValidationError should classify as validation: %v", err)
		}
	}

	if after := storedValue(t, backend, store.Key()); after != before {
		t.Fatalf("failed adds changed stored list:\nbefore %s\nafter  %s", before, after)
	}
	list, _ := store.LoadAll(ctx)
	assertList(t, list, watchlist.WatchList{existing})
}

func TestAddNormalizesInput(t *testing.T) {
	store := watchlist.New(kv.NewMemory())
	// "e" followed by a combining acute accent normalizes to a single rune.
	rec, err := store.Add(context.Background(), "  Cafe\u0301 Society ", " 04 ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec.Name != "Caf\u00e9 Society" {
		t.Fatalf("name not normalized: %q", rec.Name)
	}
	if rec.TotalSeasonCount != 4 {
		t.Fatalf("count not parsed: %d", rec.TotalSeasonCount)
	}
}

func TestUpdateChangesOnlyNameAndCount(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := testsupport.AddRecord(t, store, "Old Name", "2")
	other := testsupport.AddRecord(t, store, "Other", "1")
	if _, err := store.ToggleWatched(ctx, rec.ID); err != nil {
		t.Fatalf("ToggleWatched: %v", err)
	}

	list, err := store.Update(ctx, rec.ID, "NewName", "5")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := watchlist.WatchList{
		{ID: rec.ID, Name: "NewName", TotalSeasonCount: 5, IsWatched: true},
		other,
	}
	assertList(t, list, want)

	loaded, _ := store.LoadAll(ctx)
	assertList(t, loaded, want)
}

func TestUpdateMissingRecord(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	backend := testsupport.MustOpenBackend(t, cfg)
	store := watchlist.New(backend)
	testsupport.AddRecord(t, store, "Keep", "1")
	before := storedValue(t, backend, store.Key())

	_, err := store.Update(ctx, "missing-id", "NewName", "5")
	var nf *watchlist.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "missing-id" {
		t.Fatalf("expected NotFoundError for missing-id, got %v", err)
	}
	if watchlist.Kind(err) != watchlist.KindNotFound || !errors.Is(err, watchlist.ErrNotFound) {
		t.Fatalf("unexpected classification for %v", err)
	}
	if after := storedValue(t, backend, store.Key()); after != before {
		t.Fatalf("failed update changed stored list")
	}
}

func TestUpdateValidatesBeforeLookup(t *testing.T) {
	store := watchlist.New(kv.NewMemory())
	rec, _ := store.Add(context.Background(), "Show", "1")
	if _, err := store.Update(context.Background(), rec.ID, "", "2"); !errors.Is(err, watchlist.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := store.Update(context.Background(), " ", "Show", "2"); !errors.Is(err, watchlist.ErrValidation) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}

func TestToggleWatchedIsInvolution(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := testsupport.AddRecord(t, store, "Show", "3")

	list, err := store.ToggleWatched(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ToggleWatched: %v", err)
	}
	if !list[0].IsWatched {
		t.Fatal("first toggle should mark watched")
	}
	list, err = store.ToggleWatched(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ToggleWatched: %v", err)
	}
	if list[0] != rec {
		t.Fatalf("double toggle should restore record, got %#v", list[0])
	}

	if _, err := store.ToggleWatched(ctx, "missing"); !errors.Is(err, watchlist.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	backend := testsupport.MustOpenBackend(t, cfg)
	store := watchlist.New(backend)
	a := testsupport.AddRecord(t, store, "A", "1")
	b := testsupport.AddRecord(t, store, "B", "2")

	list, err := store.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	assertList(t, list, watchlist.WatchList{b})

	before := storedValue(t, backend, store.Key())
	list, err = store.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("Remove of absent id should succeed: %v", err)
	}
	assertList(t, list, watchlist.WatchList{b})
	if after := storedValue(t, backend, store.Key()); after != before {
		t.Fatal("no-op remove should not change stored value")
	}
}

func TestGet(t *testing.T) {
	store := watchlist.New(kv.NewMemory())
	rec, _ := store.Add(context.Background(), "Show", "2")

	got, err := store.Get(context.Background(), rec.ID)
	if err != nil || got != rec {
		t.Fatalf("Get = %#v, %v", got, err)
	}
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, watchlist.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReturnedListsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := watchlist.New(kv.NewMemory())
	testsupport.AddRecord(t, store, "Show", "2")

	list, _ := store.LoadAll(ctx)
	list[0].Name = "mutated"
	again, _ := store.LoadAll(ctx)
	if again[0].Name != "Show" {
		t.Fatalf("caller mutation leaked into store: %q", again[0].Name)
	}
}

func TestPersistsAcrossStores(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendSQLite))
	first := testsupport.MustOpenStore(t, cfg)
	rec := testsupport.AddRecord(t, first, "Show", "2")

	second := testsupport.MustOpenStore(t, cfg)
	got, err := second.Get(ctx, rec.ID)
	if err != nil || got != rec {
		t.Fatalf("record not visible to second store: %#v, %v", got, err)
	}
}

func TestConcurrentMutationsLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	toggled := testsupport.AddRecord(t, store, "Toggled", "1")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Add(ctx, fmt.Sprintf("Show %d", i), "1"); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.ToggleWatched(ctx, toggled.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent operation failed: %v", err)
	}

	list, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(list) != workers+1 {
		t.Fatalf("expected %d records, got %d", workers+1, len(list))
	}
	// An even number of toggles returns the flag to its original value.
	if list[0].IsWatched {
		t.Fatal("lost toggle update: expected unwatched after an even number of toggles")
	}
}

func TestSeparateStoresShareLock(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	second := testsupport.MustOpenStore(t, cfg)

	const perStore = 10
	var wg sync.WaitGroup
	for _, store := range []*watchlist.Store{first, second} {
		wg.Add(1)
		go func(store *watchlist.Store) {
			defer wg.Done()
			for i := 0; i < perStore; i++ {
				if _, err := store.Add(ctx, fmt.Sprintf("Show %d", i), "1"); err != nil {
					t.Errorf("Add: %v", err)
					return
				}
			}
		}(store)
	}
	wg.Wait()

	list, err := first.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(list) != 2*perStore {
		t.Fatalf("expected %d records across both stores, got %d", 2*perStore, len(list))
	}
}

func TestCorruptValueResetPolicy(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	clock := time.Unix(1700000000, 0)
	store := watchlist.New(backend, watchlist.WithClock(func() time.Time { return clock }))
	if err := backend.Set(ctx, store.Key(), []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	list, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("reset policy should not fail LoadAll: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}
	if got := storedValue(t, backend, store.Key()); got != "{not json" {
		t.Fatalf("LoadAll must not overwrite the corrupt value, got %q", got)
	}

	rec, err := store.Add(ctx, "Fresh", "1")
	if err != nil {
		t.Fatalf("Add after corrupt value: %v", err)
	}
	if got := storedValue(t, backend, store.BackupKey(clock)); got != "{not json" {
		t.Fatalf("expected corrupt value backed up, got %q", got)
	}
	list, _ = store.LoadAll(ctx)
	assertList(t, list, watchlist.WatchList{rec})
}

func TestCorruptValueFailPolicy(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := watchlist.New(backend, watchlist.WithCorruptPolicy(watchlist.CorruptFail))
	if err := backend.Set(ctx, store.Key(), []byte(`[{"id":"a","name":"","totalNoSeason":1}]`)); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	_, err := store.LoadAll(ctx)
	var corrupt *watchlist.CorruptDataError
	if !errors.As(err, &corrupt) || corrupt.Key != store.Key() {
		t.Fatalf("expected CorruptDataError, got %v", err)
	}
	if _, err := store.Add(ctx, "Show", "1"); !errors.Is(err, watchlist.ErrCorruptData) {
		t.Fatalf("mutations must fail too, got %v", err)
	}
	if got := storedValue(t, backend, store.Key()); !strings.Contains(got, `"name":""`) {
		t.Fatalf("fail policy must leave the stored value alone, got %q", got)
	}
}

func writeGarbledDocument(t *testing.T, cfg *config.Config) {
	t.Helper()
	if err := os.WriteFile(cfg.Storage.Path, []byte("{garbled"), 0o644); err != nil {
		t.Fatalf("write garbled document: %v", err)
	}
}

func TestCorruptFileDocumentResetPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	backend := testsupport.MustOpenBackend(t, cfg)
	writeGarbledDocument(t, cfg)
	clock := time.Unix(1700000000, 0)
	store := watchlist.New(backend, watchlist.WithClock(func() time.Time { return clock }))

	list, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("reset policy should not fail LoadAll: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}

	rec, err := store.Add(ctx, "Fresh", "2")
	if err != nil {
		t.Fatalf("Add over garbled document: %v", err)
	}
	data, err := os.ReadFile(cfg.Storage.Path + ".corrupt.1700000000")
	if err != nil || string(data) != "{garbled" {
		t.Fatalf("garbled document not preserved: %q, %v", data, err)
	}
	list, err = store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll after reset: %v", err)
	}
	assertList(t, list, watchlist.WatchList{rec})
}

func TestCorruptFileDocumentFailPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	backend := testsupport.MustOpenBackend(t, cfg)
	writeGarbledDocument(t, cfg)
	store := watchlist.New(backend, watchlist.WithCorruptPolicy(watchlist.CorruptFail))

	if _, err := store.LoadAll(ctx); watchlist.Kind(err) != watchlist.KindCorrupt {
		t.Fatalf("expected corrupt kind, got %v", err)
	}
	if _, err := store.Add(ctx, "Show", "1"); !errors.Is(err, watchlist.ErrCorruptData) || !errors.Is(err, kv.ErrCorruptDocument) {
		t.Fatalf("expected CorruptDataError wrapping the document error, got %v", err)
	}
	data, _ := os.ReadFile(cfg.Storage.Path)
	if string(data) != "{garbled" {
		t.Fatalf("fail policy must leave the document alone, got %q", data)
	}
}

func TestCorruptDocumentWithoutMover(t *testing.T) {
	ctx := context.Background()
	store := watchlist.New(failingBackend{Store: kv.NewMemory(), getErr: kv.ErrCorruptDocument})

	if list, err := store.LoadAll(ctx); err != nil || len(list) != 0 {
		t.Fatalf("reset policy should report an empty list, got %#v, %v", list, err)
	}
	_, err := store.Add(ctx, "Show", "1")
	var serr *watchlist.StorageError
	if !errors.As(err, &serr) || serr.Op != "backup" {
		t.Fatalf("expected backup StorageError when data cannot be moved aside, got %v", err)
	}
}

type failingBackend struct {
	kv.Store
	getErr error
	setErr error
}

func (f failingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f failingBackend) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	ioErr := errors.New("disk on fire")

	readFail := watchlist.New(failingBackend{Store: kv.NewMemory(), getErr: ioErr})
	_, err := readFail.LoadAll(ctx)
	var serr *watchlist.StorageError
	if !errors.As(err, &serr) || serr.Op != "read" || !errors.Is(err, ioErr) {
		t.Fatalf("expected read StorageError wrapping cause, got %v", err)
	}

	writeFail := watchlist.New(failingBackend{Store: kv.NewMemory(), setErr: ioErr})
	_, err = writeFail.Add(ctx, "Show", "1")
	if !errors.As(err, &serr) || serr.Op != "write" || watchlist.Kind(err) != watchlist.KindStorage {
		t.Fatalf("expected write StorageError, got %v", err)
	}
	list, err := writeFail.LoadAll(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("failed write must leave list unchanged, got %#v, %v", list, err)
	}
}

func TestParseCorruptPolicy(t *testing.T) {
	cases := map[string]watchlist.CorruptPolicy{
		"":       watchlist.CorruptReset,
		"reset":  watchlist.CorruptReset,
		" FAIL ": watchlist.CorruptFail,
	}
	for in, want := range cases {
		got, err := watchlist.ParseCorruptPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseCorruptPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := watchlist.ParseCorruptPolicy("ignore"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

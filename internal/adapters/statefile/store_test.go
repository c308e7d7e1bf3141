package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type testDoc struct {
	Counter int      `json:"counter"`
	Tags    []string `json:"tags"`
}

func newTestStore(t *testing.T, timeout time.Duration) *Store[testDoc] {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "doc.json"), timeout, func() testDoc {
		return testDoc{}
	})
}

func TestUpdateThenRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	got, err := store.Update(ctx, func(d *testDoc) error {
		d.Counter = 3
		d.Tags = append(d.Tags, "a")
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Counter != 3 {
		t.Errorf("Update() returned Counter = %d, want 3", got.Counter)
	}

	read, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if read.Counter != 3 || len(read.Tags) != 1 {
		t.Errorf("Read() = %+v, want persisted document", read)
	}
}

func TestReadMissingFileReturnsDefaults(t *testing.T) {
	store := newTestStore(t, 0)

	doc, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Counter != 0 || doc.Tags != nil {
		t.Errorf("Read() on missing file = %+v, want default shape", doc)
	}
}

func TestCorruptedFileFallsBackAndSelfHeals(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	if err := os.WriteFile(store.Path(), []byte("{garbage"), 0o644); err != nil {
		t.Fatalf("failed to corrupt file: %v", err)
	}

	doc, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Counter != 0 {
		t.Errorf("corrupted file should yield defaults, got %+v", doc)
	}

	// Next write self-heals the file
	if _, err := store.Update(ctx, func(d *testDoc) error {
		d.Counter = 1
		return nil
	}); err != nil {
		t.Fatalf("Update() after corruption error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("failed to read healed file: %v", err)
	}
	var healed testDoc
	if err := json.Unmarshal(data, &healed); err != nil {
		t.Fatalf("healed file does not parse: %v", err)
	}
	if healed.Counter != 1 {
		t.Errorf("healed Counter = %d, want 1", healed.Counter)
	}
}

func TestUpdateErrorAbortsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	if _, err := store.Update(ctx, func(d *testDoc) error {
		d.Counter = 9
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	wantErr := errors.New("no thanks")
	if _, err := store.Update(ctx, func(d *testDoc) error {
		d.Counter = 99
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("Update() error = %v, want propagated fn error", err)
	}

	doc, _ := store.Read(ctx)
	if doc.Counter != 9 {
		t.Errorf("Counter = %d, want 9 (aborted update must not write)", doc.Counter)
	}
}

// Two overlapping updates never interleave bytes: the final file is valid
// JSON and all increments land.
func TestConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 5*time.Second)

	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if _, err := store.Update(ctx, func(d *testDoc) error {
					d.Counter++
					return nil
				}); err != nil {
					t.Errorf("concurrent Update() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("failed to read final file: %v", err)
	}
	var doc testDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("final file is not valid JSON: %v", err)
	}
	if doc.Counter != writers*perWriter {
		t.Errorf("Counter = %d, want %d (lost update)", doc.Counter, writers*perWriter)
	}
}

func TestLockTimeout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	holder := NewStore(path, time.Second, func() testDoc { return testDoc{} })
	waiter := NewStore(path, 50*time.Millisecond, func() testDoc { return testDoc{} })

	unlock, err := holder.acquireLock(ctx)
	if err != nil {
		t.Fatalf("acquireLock() error = %v", err)
	}
	defer unlock()

	_, err = waiter.Update(ctx, func(d *testDoc) error {
		d.Counter = 1
		return nil
	})
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("Update() under held lock error = %v, want ErrLockTimeout", err)
	}

	// The blocked write was not silently applied
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("state file exists after timed-out update")
	}
}

func TestUpdateRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newTestStore(t, time.Second)
	if _, err := store.Update(ctx, func(d *testDoc) error { return nil }); err == nil {
		t.Error("Update() with cancelled context expected error")
	}
}

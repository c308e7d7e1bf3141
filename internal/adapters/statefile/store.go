// Package statefile contains the file-backed state store: every mutation
// is an exclusive-lock read-modify-write cycle finished by an atomic
// rename, so a reader never observes a partially-written file and
// overlapping invocations never interleave bytes.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLockTimeout is returned when the exclusive lock cannot be acquired
// within the configured timeout. The caller's intended write is never
// silently discarded; surface as "state busy, retry."
var ErrLockTimeout = errors.New("state file busy")

// DefaultLockTimeout bounds lock acquisition when no timeout is given.
const DefaultLockTimeout = 3 * time.Second

// lockPollInterval is the wait between non-blocking flock attempts.
const lockPollInterval = 10 * time.Millisecond

// Store is a generic primitive for one named JSON state file.
type Store[T any] struct {
	path        string
	lockTimeout time.Duration
	defaults    func() T
}

// NewStore creates a store for path. defaults supplies the well-defined
// shape used when the file is missing or corrupted; the next successful
// write persists it, self-healing the file.
func NewStore[T any](path string, lockTimeout time.Duration, defaults func() T) *Store[T] {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store[T]{path: path, lockTimeout: lockTimeout, defaults: defaults}
}

// Path returns the state file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Read loads the current document without holding the lock. Acceptable
// only for pure read-only callers that tolerate eventual consistency
// (status displays); mutators must go through Update.
func (s *Store[T]) Read(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		return s.defaults(), err
	}
	return s.decodeOrDefault(), nil
}

// Update acquires the exclusive lock, applies fn to the freshly-decoded
// document, and atomically replaces the file. An error from fn aborts
// without writing. Returns the persisted document.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) error) (T, error) {
	var zero T

	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return zero, err
	}
	defer unlock()

	doc := s.decodeOrDefault()
	if err := fn(&doc); err != nil {
		return zero, err
	}

	if err := s.replace(doc); err != nil {
		return zero, err
	}
	return doc, nil
}

// acquireLock takes an exclusive flock on <path>.lock, polling
// non-blocking until the timeout elapses.
func (s *Store[T]) acquireLock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			lockFile.Close()
			return nil, err
		}

		err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) && !errors.Is(err, syscall.EAGAIN) {
			lockFile.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", s.path, err)
		}
		if time.Since(start) >= s.lockTimeout {
			lockFile.Close()
			return nil, fmt.Errorf("%w: %s not acquired after %s", ErrLockTimeout, s.path, s.lockTimeout)
		}
		time.Sleep(lockPollInterval)
	}

	return func() {
		syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) //nolint:errcheck
		lockFile.Close()
	}, nil
}

// decodeOrDefault reads and parses the state file, falling back to the
// default shape on any read or parse failure.
func (s *Store[T]) decodeOrDefault() T {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.defaults()
	}

	doc := s.defaults()
	if err := json.Unmarshal(data, &doc); err != nil {
		return s.defaults()
	}
	return doc
}

// replace writes doc to a temp file in the same directory and renames it
// over the target.
func (s *Store[T]) replace(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%s.tmp-*", filepath.Base(s.path)))
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

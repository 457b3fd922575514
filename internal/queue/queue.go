package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bashhack/hookbak/internal/constants"
	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/lock"
	"github.com/bashhack/hookbak/internal/logger"
)

// LockSuffix is appended to the queue path to form its lock file.
const LockSuffix = constants.QueueLockSuffix

// ChangeSet is the ordered, duplicate-free list of paths awaiting a commit.
type ChangeSet struct {
	Entries []string
}

// Len returns the number of pending paths.
func (c ChangeSet) Len() int {
	return len(c.Entries)
}

// IsEmpty reports whether nothing is pending.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Contains reports whether path is pending.
func (c ChangeSet) Contains(path string) bool {
	return slices.Contains(c.Entries, path)
}

// Config configures a Store.
type Config struct {
	// Path is the queue file location.
	Path string

	// LockTimeout bounds how long a mutation waits for the advisory lock
	// before falling back to an unlocked read-modify-write.
	LockTimeout time.Duration
}

// Store persists a ChangeSet as a JSON array of strings in a single file.
// Readers never see a partial write: every write lands in a temporary file
// in the same directory which is then renamed over the queue.
type Store struct {
	path        string
	lockTimeout time.Duration
	logger      logger.Logger
}

// New creates a Store. A nil logger discards diagnostics.
func New(cfg Config, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		path:        cfg.Path,
		lockTimeout: cfg.LockTimeout,
		logger:      log,
	}
}

// Path returns the queue file location.
func (s *Store) Path() string {
	return s.path
}

// LockPath returns the advisory lock file guarding the queue.
func (s *Store) LockPath() string {
	return s.path + LockSuffix
}

// Record appends path to the queue unless it is already present.
// An empty path is a successful no-op. A missing or corrupt queue file is
// treated as empty and replaced.
func (s *Store) Record(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	return s.mutate(ctx, "record", func(entries []string) ([]string, bool) {
		if slices.Contains(entries, path) {
			return entries, false
		}
		return append(entries, path), true
	})
}

// Drain returns a snapshot of the queue without modifying it.
func (s *Store) Drain(ctx context.Context) (ChangeSet, error) {
	if err := ctx.Err(); err != nil {
		return ChangeSet{}, err
	}

	entries, err := s.load()
	if err != nil && !errors.Is(err, errors.ErrQueueCorrupt) {
		return ChangeSet{}, err
	}
	return ChangeSet{Entries: entries}, nil
}

// Clear replaces the queue with an empty list.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func([]string) ([]string, bool) {
		return []string{}, true
	})
}

// Acknowledge removes the given paths from the queue, keeping anything
// recorded after the caller's snapshot was taken.
func (s *Store) Acknowledge(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	done := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		done[p] = struct{}{}
	}

	return s.mutate(ctx, "acknowledge", func(entries []string) ([]string, bool) {
		kept := make([]string, 0, len(entries))
		for _, e := range entries {
			if _, ok := done[e]; !ok {
				kept = append(kept, e)
			}
		}
		return kept, true
	})
}

// mutate runs one read-modify-write cycle under the queue lock. If the lock
// cannot be taken in time the cycle still runs, unlocked, and a concurrent
// writer may lose an entry.
func (s *Store) mutate(ctx context.Context, op string, fn func([]string) ([]string, bool)) error {
	l := lock.New(s.LockPath(), s.lockTimeout)
	if err := l.Acquire(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warning("Queue %s proceeding without lock: %v", op, err)
	} else {
		defer func() {
			if err := l.Release(); err != nil {
				s.logger.Warning("Failed to release queue lock: %v", err)
			}
		}()
	}

	entries, err := s.load()
	corrupt := errors.Is(err, errors.ErrQueueCorrupt)
	if err != nil && !corrupt {
		return err
	}

	updated, changed := fn(entries)
	if !changed && !corrupt {
		return nil
	}
	return s.write(updated)
}

// load reads the queue. A missing file yields an empty list. Content that is
// not a JSON array of strings yields an empty list and an error wrapping
// ErrQueueCorrupt, which callers treat as recoverable.
func (s *Store) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return []string{}, errors.NewQueueError(s.path, "read", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []string{}, nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warning("Queue file %s is corrupt, treating it as empty: %v", s.path, err)
		return []string{}, errors.NewQueueError(s.path, "decode",
			errors.Errorf("%w: %v", errors.ErrQueueCorrupt, err))
	}

	return normalize(raw), nil
}

// write atomically replaces the queue file with entries.
func (s *Store) write(entries []string) error {
	if entries == nil {
		entries = []string{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewQueueError(s.path, "encode", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewQueueError(s.path, "mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.NewQueueError(s.path, "write", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.NewQueueError(s.path, "write", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.NewQueueError(s.path, "sync", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewQueueError(s.path, "write", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.NewQueueError(s.path, "chmod", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.NewQueueError(s.path, "rename", err)
	}

	syncDir(dir)
	return nil
}

// normalize drops blank and repeated entries from a hand-edited file,
// keeping the first occurrence.
func normalize(raw []string) []string {
	entries := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, e := range raw {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		entries = append(entries, e)
	}
	return entries
}

// syncDir makes the rename durable. Failures are ignored: some filesystems
// do not support fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

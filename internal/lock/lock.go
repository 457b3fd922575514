package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"

	hookbakErrors "github.com/bashhack/hookbak/internal/errors"
)

const (
	// initialRetryInterval is the first wait between lock attempts.
	initialRetryInterval = 10 * time.Millisecond

	// maxRetryInterval caps the wait between lock attempts.
	maxRetryInterval = 200 * time.Millisecond
)

// Locker is an advisory, exclusive lock on a single file. The lock is held
// on an open file description, so it is released by the kernel if the
// process dies and never goes stale.
type Locker struct {
	path    string
	timeout time.Duration
	fl      *flock.Flock
}

// New creates a Locker for path. Acquire waits at most timeout for the lock;
// a zero timeout makes Acquire behave like TryAcquire.
func New(path string, timeout time.Duration) *Locker {
	return &Locker{
		path:    path,
		timeout: timeout,
		fl:      flock.New(path),
	}
}

// Path returns the lock file path.
func (l *Locker) Path() string {
	return l.path
}

// Locked reports whether this Locker currently holds the lock.
func (l *Locker) Locked() bool {
	return l.fl.Locked()
}

// TryAcquire takes the lock without waiting. It returns an error wrapping
// ErrLockBusy if another holder has it.
func (l *Locker) TryAcquire() error {
	if err := l.ensureDir(); err != nil {
		return err
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return hookbakErrors.NewLockError(l.path,
			hookbakErrors.Wrap(hookbakErrors.ErrLockAcquisitionFailure, err.Error()))
	}
	if !locked {
		return hookbakErrors.NewLockError(l.path, hookbakErrors.ErrLockBusy)
	}
	return nil
}

// Acquire takes the lock, retrying with exponential backoff until the
// configured timeout elapses or ctx is done. On timeout the returned error
// wraps ErrLockAcquisitionFailure.
func (l *Locker) Acquire(ctx context.Context) error {
	if l.timeout <= 0 {
		return l.TryAcquire()
	}

	if err := l.ensureDir(); err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryInterval
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = l.timeout

	start := time.Now()
	attempt := func() error {
		locked, err := l.fl.TryLock()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !locked {
			return hookbakErrors.ErrLockBusy
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(b, ctx)); err != nil {
		if hookbakErrors.Is(err, hookbakErrors.ErrLockBusy) {
			return hookbakErrors.NewLockError(l.path,
				hookbakErrors.Wrap(hookbakErrors.ErrLockAcquisitionFailure,
					fmt.Sprintf("still held after %v", time.Since(start).Round(time.Millisecond))))
		}
		return hookbakErrors.NewLockError(l.path,
			hookbakErrors.Wrap(hookbakErrors.ErrLockAcquisitionFailure, err.Error()))
	}
	return nil
}

// Release releases the lock. It is safe to call when the lock is not held.
// The lock file itself is left in place; removing it would let a waiter
// lock an unlinked inode while a newcomer locks a fresh one.
func (l *Locker) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return hookbakErrors.NewLockError(l.path, hookbakErrors.Wrap(err, "failed to release lock"))
	}
	return nil
}

func (l *Locker) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return hookbakErrors.NewLockError(l.path, hookbakErrors.Wrap(err, "failed to create lock directory"))
	}
	return nil
}

// Package lock provides advisory file locks for hookbak.
//
// Record and flush invocations are separate processes that share one queue
// file. A Locker serializes their read-modify-write cycles with flock(2)
// through github.com/gofrs/flock, retrying with exponential backoff up to a
// bounded timeout.
//
// # Usage
//
//	l := lock.New("/repo/.hookbak/queue.json.lock", 2*time.Second)
//	if err := l.Acquire(ctx); err != nil {
//	    // errors.Is(err, errors.ErrLockAcquisitionFailure)
//	}
//	defer l.Release()
//
// TryAcquire never waits and reports errors.ErrLockBusy when the lock is held,
// which the flush path uses to guarantee a single flush per project.
//
// # Stale Locks
//
// Locks belong to an open file description and vanish with the process, so
// there is no PID bookkeeping or stale-lock recovery. Lock files are never
// deleted.
//
// # Thread Safety
//
// A single Locker must not be shared between goroutines. Separate Lockers on
// the same path exclude each other, within one process or across processes.
package lock

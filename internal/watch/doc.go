// Package watch records file changes observed directly on disk.
//
// It is an additional record source for hosts that cannot run hooks: every
// write, create, remove or rename below the project root is queued exactly
// as the record hook would queue it. The .git directory, hookbak's control
// directory and hookbak's own files are never recorded.
//
// With a flush interval set, the watcher also flushes the queue
// periodically. Repeated identical flush failures stop the watcher once they
// exceed the configured retry limit.
package watch

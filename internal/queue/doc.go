// Package queue persists the set of file paths an agent has edited since the
// last checkpoint commit.
//
// The queue is a single JSON array of strings. Entries keep their first-seen
// order and never repeat. Every mutation is a read-modify-write cycle guarded
// by an advisory lock on "<queue>.lock"; the new content is written to a
// temporary file and renamed into place, so a reader sees either the old or
// the new list and never a partial one.
//
// A missing queue is empty. A queue that does not parse as a JSON array of
// strings is logged and also treated as empty; the next mutation replaces it.
//
// # Usage
//
//	store := queue.New(queue.Config{Path: path, LockTimeout: 2 * time.Second}, log)
//
//	_ = store.Record(ctx, "internal/app.go")
//
//	cs, _ := store.Drain(ctx)
//	// ... commit cs.Entries ...
//	_ = store.Acknowledge(ctx, cs.Entries)
//
// Acknowledge removes only the paths it is given, so anything recorded while
// a commit was in progress stays queued for the next one.
package queue

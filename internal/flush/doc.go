// Package flush converts the pending queue into a single checkpoint commit.
//
// A flush attempt moves through Idle, Draining, Staging and Committing and
// ends in either Cleared or LeftPending. It takes a snapshot of the queue,
// stages each path in order, writes one commit and then acknowledges exactly
// the snapshot, so paths recorded while the commit was being made stay
// queued.
//
// A path that fails to stage never aborts the batch. The failure is
// classified from the file's state on disk: a missing path or a path git
// rejected is retried with "git add -A", which records deletions; an
// unreadable path is skipped. Every queued base name appears in the commit
// message, with skipped ones marked "(not staged)".
//
// Only one flush runs per queue at a time. A second caller gets OutcomeBusy
// instead of waiting.
//
// # Usage
//
//	coord := flush.NewCoordinator(store, git.NewClient(root), log)
//	res := coord.Flush(ctx)
//	if res.Outcome == flush.OutcomeFailed {
//	    log.Warning("flush %s left %d path(s) pending: %v", res.ID, len(res.Entries), res.Err)
//	}
package flush

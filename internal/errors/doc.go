// Package errors provides error handling utilities for hookbak.
//
// It defines the sentinel errors used across the application together with
// typed errors (GitError, LockError, ConfigError, QueueError) that carry the
// context of the failed operation while remaining compatible with errors.Is
// and errors.As.
//
// # Usage
//
//	if err != nil {
//	    return errors.Wrap(err, "failed to open queue")
//	}
//
//	if errors.Is(err, errors.ErrGitOperationFailed) {
//	    // a git command exited non-zero
//	}
//
// # Recoverability
//
// None of the errors in this package are fatal to a hook invocation. The
// command layer logs them and exits successfully so the host workflow is
// never interrupted.
package errors

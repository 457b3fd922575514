// Package hookbak turns a coding agent's file edits into checkpoint commits.
//
// The agent's host runs hookbak as short-lived hook processes. Each edit is
// appended to a small JSON queue; a later flush stages every queued path and
// writes one commit that names them all. Record and flush never talk to each
// other directly: the queue file, guarded by an advisory lock, is the only
// shared state, so it survives crashes, restarts and concurrent hooks.
//
// # Quick Start
//
// Register the hooks with the agent host, for example:
//
//	PostToolUse  (Edit|Write|NotebookEdit)  ->  hookbak record
//	Stop                                    ->  hookbak flush
//	SessionStart                            ->  hookbak context
//
// Between hooks, inspect or discard the queue by hand:
//
//	hookbak status
//	hookbak clear
//
// Or skip the host entirely and let hookbak watch the project on disk:
//
//	hookbak watch --flush-interval 2m
//
// # What a Checkpoint Looks Like
//
//	hookbak: checkpoint of 3 agent edit(s)
//
//	Files:
//	- main.go
//	- README.md
//	- old.txt (not staged)
//
//	Change-Source: hookbak
//
// Paths that could not be staged stay listed and are marked. Pre-commit
// hooks are skipped so a checkpoint can never re-enter the agent's own hooks.
//
// # Module Structure
//
//   - cmd/hookbak: Command-line interface and hook entry points
//   - internal/queue: Durable, de-duplicated queue of pending paths
//   - internal/flush: Queue-to-commit coordinator
//   - internal/git: Git CLI collaborator and staging fault classification
//   - internal/hook: Host event decoding and session context output
//   - internal/watch: Filesystem watcher record source
//   - internal/config: Layered configuration
//   - internal/lock: Advisory file locks
//   - internal/logger: Diagnostic log and user messages
//   - internal/errors: Error handling utilities
//   - internal/constants: File names and commit message text
//
// # Implementation Notes
//
// hookbak uses the command-line Git executable rather than a Go Git library
// so that every repository configuration git understands works unchanged.
// Commands are executed through an interface that is replaced in tests.
//
// Hook entry points always exit 0. Faults are written to
// .hookbak/hookbak.log instead of interrupting the agent.
package hookbak

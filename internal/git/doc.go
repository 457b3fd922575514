// Package git provides the version-control operations hookbak needs.
//
// hookbak uses the command-line git executable rather than a Go git library so
// that it behaves exactly like the user's own git, including their
// configuration, attributes and index. Commands are executed through the
// CommandExecutor interface, which can be replaced for testing.
//
// # Core Components
//
//   - Client: stage, deletion-aware stage, commit and inspection helpers for one work tree
//   - CommandExecutor: interface for executing git commands
//   - FaultKind / ClassifyStageFault: explains why staging a path failed
//
// # Usage
//
//	client := git.NewClient("/path/to/repo")
//
//	if err := client.Stage(ctx, "main.go"); err != nil {
//	    kind := git.ClassifyStageFault(client.RepoPath(), "main.go", err)
//	    if kind.RetryWithDeletions() {
//	        err = client.StageWithDeletions(ctx, "main.go")
//	    }
//	}
//
//	if err := client.Commit(ctx, message); err != nil {
//	    // leave the queue pending
//	}
//
// # Error Handling
//
// Failed commands return *errors.GitError wrapping errors.ErrGitOperationFailed
// and the underlying *exec.ExitError, so both errors.Is and exit-code checks
// work on the same value.
//
// # Commit Hooks
//
// Commit always passes --no-verify. hookbak itself usually runs from an agent
// hook, and local pre-commit hooks may invoke the same agent tooling again.
package git

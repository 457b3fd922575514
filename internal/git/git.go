package git

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bashhack/hookbak/internal/errors"
)

// Client runs the git operations hookbak needs against a single work tree.
// Every command is run as "git -C <repo> ..." through a CommandExecutor so
// tests can substitute the process boundary.
type Client struct {
	repoPath string
	executor CommandExecutor
}

// NewClient creates a Client for repoPath using the real git binary.
func NewClient(repoPath string) *Client {
	return NewClientWithExecutor(repoPath, NewExecExecutor())
}

// NewClientWithExecutor creates a Client with a custom executor.
func NewClientWithExecutor(repoPath string, executor CommandExecutor) *Client {
	return &Client{
		repoPath: repoPath,
		executor: executor,
	}
}

// RepoPath returns the work tree the client operates on.
func (c *Client) RepoPath() string {
	return c.repoPath
}

// IsRepository reports whether the client's path is inside a git work tree.
// If git exits with code 128 the path is not a repository and (false, nil)
// is returned. Other failures (git missing, permissions) return the error.
func (c *Client) IsRepository(ctx context.Context) (bool, error) {
	if err := c.run(ctx, "rev-parse", "--is-inside-work-tree"); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stage adds a single path to the index.
func (c *Client) Stage(ctx context.Context, path string) error {
	return c.run(ctx, "add", "--", path)
}

// StageWithDeletions adds a single path to the index, recording its removal
// when it no longer exists in the work tree.
func (c *Client) StageWithDeletions(ctx context.Context, path string) error {
	return c.run(ctx, "add", "-A", "--", path)
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges(ctx context.Context) (bool, error) {
	err := c.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}

	// --quiet exits 1 when there are differences.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// Commit records the index as a new commit with the given message.
// Local pre-commit and commit-msg hooks are always bypassed so a commit
// made from inside an agent hook cannot re-trigger the agent's own hooks.
func (c *Client) Commit(ctx context.Context, message string) error {
	cmd := c.command(ctx, "commit", "--no-verify", "-F", "-")
	cmd.Stdin = strings.NewReader(message)
	return c.executor.Execute(ctx, cmd)
}

// HeadCommit returns the full hash of HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	output, err := c.output(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// LastCommitSubject returns the subject line of HEAD.
func (c *Client) LastCommitSubject(ctx context.Context) (string, error) {
	output, err := c.output(ctx, "log", "-1", "--pretty=format:%s")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// run executes a git command in the repository directory.
func (c *Client) run(ctx context.Context, args ...string) error {
	return c.executor.Execute(ctx, c.command(ctx, args...))
}

// output executes a git command and returns its output.
func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	return c.executor.ExecuteWithOutput(ctx, c.command(ctx, args...))
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	baseArgs := []string{"-C", c.repoPath}
	cmd := exec.CommandContext(ctx, "git", append(baseArgs, args...)...)
	cmd.Dir = c.repoPath
	return cmd
}

// FaultKind classifies why staging a path failed.
type FaultKind int

const (
	// FaultNone means staging succeeded.
	FaultNone FaultKind = iota

	// FaultMissing means the path no longer exists in the work tree,
	// usually because the agent deleted or renamed it.
	FaultMissing

	// FaultPermission means the path exists but cannot be read.
	FaultPermission

	// FaultRejected means git refused the path for another reason, such as
	// the path being ignored or lying outside the repository.
	FaultRejected
)

// String returns a short label used in logs and commit messages.
func (k FaultKind) String() string {
	switch k {
	case FaultNone:
		return "none"
	case FaultMissing:
		return "missing"
	case FaultPermission:
		return "permission"
	case FaultRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RetryWithDeletions reports whether the deletion-aware stage mode may
// succeed where a plain add failed.
func (k FaultKind) RetryWithDeletions() bool {
	return k == FaultMissing || k == FaultRejected
}

// ClassifyStageFault inspects the work tree to explain a failed Stage call.
// The git error text is not parsed; the file's state on disk decides.
func ClassifyStageFault(repoPath, path string, stageErr error) FaultKind {
	if stageErr == nil {
		return FaultNone
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(repoPath, path)
	}

	info, err := os.Lstat(full)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return FaultMissing
	case errors.Is(err, fs.ErrPermission):
		return FaultPermission
	case err != nil:
		return FaultRejected
	}

	if info.Mode().IsRegular() {
		f, openErr := os.Open(full)
		if errors.Is(openErr, fs.ErrPermission) {
			return FaultPermission
		}
		if f != nil {
			_ = f.Close()
		}
	}

	return FaultRejected
}

package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bashhack/hookbak/internal/errors"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// Execute runs a command and returns an error if it fails
	Execute(ctx context.Context, cmd *exec.Cmd) error

	// ExecuteWithOutput runs a command and returns its standard output
	ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error)
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct{}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// Execute implements CommandExecutor.Execute
func (e *ExecExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	_, err := e.run(ctx, cmd)
	return err
}

// ExecuteWithOutput implements CommandExecutor.ExecuteWithOutput
func (e *ExecExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	return e.run(ctx, cmd)
}

func (e *ExecExecutor) run(ctx context.Context, cmd *exec.Cmd) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	if cmd.Stdout == nil {
		cmd.Stdout = &stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		operation, args := splitGitArgs(cmd.Args)

		// Keep the *exec.ExitError in the chain so callers can inspect the exit code.
		wrappedErr := fmt.Errorf("%w: %w", errors.ErrGitOperationFailed, err)
		return "", errors.NewGitError(operation, args, wrappedErr, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// splitGitArgs extracts the git subcommand and its arguments from a command
// line, skipping the executable and any leading "-C <dir>" option.
func splitGitArgs(argv []string) (string, []string) {
	if len(argv) == 0 {
		return "", nil
	}

	rest := argv[1:]
	for len(rest) >= 2 && rest[0] == "-C" {
		rest = rest[2:]
	}
	if len(rest) == 0 {
		return argv[0], nil
	}
	return rest[0], rest[1:]
}

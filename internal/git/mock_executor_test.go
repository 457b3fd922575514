package git

import (
	"context"
	"io"
	"os/exec"
	"strings"
)

// MockCommandExecutor is a mock of the CommandExecutor interface
// that doesn't actually execute anything but just records calls.
type MockCommandExecutor struct {
	Output              string
	Commands            []*exec.Cmd
	Stdins              []string
	ExecuteFn           func(ctx context.Context, cmd *exec.Cmd) error
	ExecuteWithOutputFn func(ctx context.Context, cmd *exec.Cmd) (string, error)
}

// Execute implements the CommandExecutor interface
func (m *MockCommandExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	m.record(cmd)

	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil
}

// ExecuteWithOutput implements the CommandExecutor interface
func (m *MockCommandExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	m.record(cmd)

	if m.ExecuteWithOutputFn != nil {
		return m.ExecuteWithOutputFn(ctx, cmd)
	}
	return m.Output, nil
}

func (m *MockCommandExecutor) record(cmd *exec.Cmd) {
	m.Commands = append(m.Commands, cmd)

	stdin := ""
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		stdin = string(data)
	}
	m.Stdins = append(m.Stdins, stdin)
}

// gitArgs returns the git arguments after "-C <repo>".
func gitArgs(cmd *exec.Cmd) string {
	op, args := splitGitArgs(cmd.Args)
	return strings.Join(append([]string{op}, args...), " ")
}

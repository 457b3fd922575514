package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bashhack/hookbak/internal/config"
	"github.com/bashhack/hookbak/internal/flush"
	"github.com/bashhack/hookbak/internal/queue"
)

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	mu sync.Mutex

	InfoCalled          bool
	WarningCalled       bool
	ErrorCalled         bool
	InfoToUserCalled    bool
	WarningToUserCalled bool
	SuccessCalled       bool
	StatusCalled        bool
	CloseCalled         bool
	CloseErr            error
	Messages            []string
}

func (m *MockLogger) record(flag *bool, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*flag = true
	m.Messages = append(m.Messages, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalled, format, args...)
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalled, format, args...)
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalled, format, args...)
}

func (m *MockLogger) InfoToUser(format string, args ...interface{}) {
	m.record(&m.InfoToUserCalled, format, args...)
}

func (m *MockLogger) WarningToUser(format string, args ...interface{}) {
	m.record(&m.WarningToUserCalled, format, args...)
}

func (m *MockLogger) Success(format string, args ...interface{}) {
	m.record(&m.SuccessCalled, format, args...)
}

func (m *MockLogger) StatusMessage(format string, args ...interface{}) {
	m.record(&m.StatusCalled, format, args...)
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return m.CloseErr
}

// Logged reports whether any message contains s.
func (m *MockLogger) Logged(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.Messages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// MockFlusher returns a fixed result, or panics when Panic is set.
type MockFlusher struct {
	Result flush.Result
	Panic  bool
	Calls  int
}

func (m *MockFlusher) Flush(context.Context) flush.Result {
	m.Calls++
	if m.Panic {
		panic("flusher exploded")
	}
	return m.Result
}

// MockRepository answers repository checks without git.
type MockRepository struct {
	IsRepo      bool
	IsRepoErr   error
	Subject     string
	SubjectErr  error
	CheckCalled bool
}

func (m *MockRepository) IsRepository(context.Context) (bool, error) {
	m.CheckCalled = true
	return m.IsRepo, m.IsRepoErr
}

func (m *MockRepository) LastCommitSubject(context.Context) (string, error) {
	return m.Subject, m.SubjectErr
}

// failingQueue fails every operation.
type failingQueue struct {
	err error
}

func (q failingQueue) Path() string                                   { return "/nonexistent/queue.json" }
func (q failingQueue) Record(context.Context, string) error           { return q.err }
func (q failingQueue) Drain(context.Context) (queue.ChangeSet, error) { return queue.ChangeSet{}, q.err }
func (q failingQueue) Clear(context.Context) error                    { return q.err }
func (q failingQueue) Acknowledge(context.Context, []string) error    { return q.err }

// testEnv holds one App wired to in-memory streams.
type testEnv struct {
	app     *App
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	project string
}

// clearEnv isolates a test from the caller's environment.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"CLAUDE_PROJECT_DIR",
		"HOOKBAK_PROJECT_DIR",
		"HOOKBAK_CONFIG_FILE",
		"HOOKBAK_QUEUE_FILE",
		"HOOKBAK_LOG_FILE",
		"HOOKBAK_DEBUG",
		"HOOKBAK_VERBOSE",
		"HOOKBAK_LOCK_TIMEOUT",
		"HOOKBAK_FLUSH_INTERVAL",
		"HOOKBAK_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

// newTestEnv creates an App for project with stdin as the hook event.
// Dependencies left nil in opts are built by Initialize.
func newTestEnv(t *testing.T, project, stdin string, opts AppOptions) *testEnv {
	t.Helper()

	var stdout, stderr bytes.Buffer
	opts.VersionInfo = config.VersionInfo{Version: "test-version", Commit: "test-commit", Date: "test-date"}
	opts.Stdin = strings.NewReader(stdin)
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	opts.Exit = func(int) {}
	if opts.ExecLookPath == nil {
		opts.ExecLookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	}

	return &testEnv{
		app:     NewApp(opts),
		stdout:  &stdout,
		stderr:  &stderr,
		project: project,
	}
}

// execute runs the root command with args against the env's project.
func (e *testEnv) execute(ctx context.Context, args ...string) error {
	cmd := newRootCommand(e.app)
	cmd.SetArgs(append(args, "--project-dir", e.project))
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)
	return cmd.ExecuteContext(ctx)
}

// pendingPaths reads the project's default queue.
func pendingPaths(t *testing.T, project string) []string {
	t.Helper()

	store := queue.New(queue.Config{Path: filepath.Join(project, ".hookbak", "queue.json")}, nil)
	cs, err := store.Drain(context.Background())
	require.NoError(t, err)
	return cs.Entries
}

func editEvent(path string) string {
	return fmt.Sprintf(`{"session_id":"s1","hook_event_name":"PostToolUse","tool_name":"Edit","tool_input":{"file_path":%q}}`, path)
}

func setupRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	gitRun(t, dir, "init", "-q")
	gitRun(t, dir, "config", "user.email", "test@example.com")
	gitRun(t, dir, "config", "user.name", "Test User")
	gitRun(t, dir, "config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".hookbak/\n"), 0o644))
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-q", "-m", "Initial commit")
	return dir
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()

	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLog(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestNewWithoutLogFile(t *testing.T) {
	logger := New(Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	assert.Empty(t, logger.LogFile())
	assert.NoError(t, logger.Close())
}

func TestNewCreatesLogDirectory(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "dir", "hookbak.log")

	logger := New(Options{LogFile: logFile, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	defer func() { _ = logger.Close() }()

	_, err := os.Stat(logFile)
	require.NoError(t, err)
	assert.Equal(t, logFile, logger.LogFile())
}

func TestFileLogLevels(t *testing.T) {
	t.Run("debug records info", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "debug.log")
		logger := New(Options{LogFile: logFile, Debug: true, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

		logger.Info("queued %s", "main.go")
		logger.Warning("lock wait exceeded")
		logger.Error("commit failed")
		require.NoError(t, logger.Close())

		content := readLog(t, logFile)
		assert.Contains(t, content, "queued main.go")
		assert.Contains(t, content, "lock wait exceeded")
		assert.Contains(t, content, "commit failed")
		assert.Contains(t, content, "pid=")
	})

	t.Run("default keeps warnings and errors only", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "default.log")
		logger := New(Options{LogFile: logFile, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

		logger.Info("should not appear")
		logger.Warning("corrupt queue file")
		logger.Error("stage failed")
		require.NoError(t, logger.Close())

		content := readLog(t, logFile)
		assert.NotContains(t, content, "should not appear")
		assert.Contains(t, content, "corrupt queue file")
		assert.Contains(t, content, "stage failed")
	})
}

func TestLogFileIsAppendOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "append.log")

	first := New(Options{LogFile: logFile, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	first.Warning("first invocation")
	require.NoError(t, first.Close())

	second := New(Options{LogFile: logFile, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	second.Warning("second invocation")
	require.NoError(t, second.Close())

	content := readLog(t, logFile)
	assert.Contains(t, content, "first invocation")
	assert.Contains(t, content, "second invocation")
	assert.Contains(t, content, "time=")
}

func TestUnopenableLogFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	stderr := &bytes.Buffer{}

	// A directory cannot be opened for appending.
	logger := New(Options{LogFile: dir, Stdout: &bytes.Buffer{}, Stderr: stderr})

	assert.Empty(t, logger.LogFile())
	assert.Contains(t, stderr.String(), "Failed to open log file")

	logger.Warning("still usable")
	assert.NoError(t, logger.Close())
}

func TestUserMessages(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "user.log")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	logger := New(Options{LogFile: logFile, Debug: true, Stdout: stdout, Stderr: stderr})
	defer func() { _ = logger.Close() }()

	t.Run("InfoToUser", func(t *testing.T) {
		stdout.Reset()
		logger.InfoToUser("Pending edits: %d", 2)
		assert.Contains(t, stdout.String(), "ℹ️")
		assert.Contains(t, stdout.String(), "Pending edits: 2")
		assert.Contains(t, readLog(t, logFile), "Pending edits: 2")
	})

	t.Run("Success", func(t *testing.T) {
		stdout.Reset()
		logger.Success("Committed %s", "abc123")
		assert.Contains(t, stdout.String(), "✅ Committed abc123")
	})

	t.Run("WarningToUser", func(t *testing.T) {
		stdout.Reset()
		logger.WarningToUser("Queue left pending")
		assert.Contains(t, stdout.String(), "⚠️  Queue left pending")
	})

	t.Run("Error goes to stderr", func(t *testing.T) {
		stdout.Reset()
		stderr.Reset()
		logger.Error("boom")
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "❌ boom")
	})

	t.Run("StatusMessage is not logged", func(t *testing.T) {
		stdout.Reset()
		logger.StatusMessage("plain status line")
		assert.Equal(t, "plain status line\n", stdout.String())
		assert.NotContains(t, readLog(t, logFile), "plain status line")
	})
}

func TestVerboseWarnings(t *testing.T) {
	quietOut := &bytes.Buffer{}
	quiet := New(Options{Stdout: quietOut, Stderr: &bytes.Buffer{}})
	quiet.Warning("hidden")
	assert.Empty(t, quietOut.String())

	verboseOut := &bytes.Buffer{}
	verbose := New(Options{Verbose: true, Stdout: verboseOut, Stderr: &bytes.Buffer{}})
	verbose.Warning("shown")
	assert.Contains(t, verboseOut.String(), "shown")
}

func TestSetStreams(t *testing.T) {
	logger := Nop()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	logger.SetStdout(stdout)
	logger.SetStderr(stderr)

	logger.InfoToUser("to stdout")
	logger.Error("to stderr")

	assert.Contains(t, stdout.String(), "to stdout")
	assert.Contains(t, stderr.String(), "to stderr")
}

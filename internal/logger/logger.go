package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Logger defines the common logging interface used throughout the application.
// It separates internal diagnostics, which go to the append-only log file,
// from user-facing messages, which go to the configured output streams.
type Logger interface {
	// Info logs an informational message to the log file.
	// It is dropped unless debug logging is enabled.
	Info(format string, args ...interface{})

	// Warning logs a warning message to the log file.
	// The message is echoed to the user only in verbose mode.
	Warning(format string, args ...interface{})

	// Error logs an error message to the log file and always echoes it
	// to the error stream.
	Error(format string, args ...interface{})

	// InfoToUser logs an informational message intended for users.
	InfoToUser(format string, args ...interface{})

	// WarningToUser logs a warning message intended for users.
	WarningToUser(format string, args ...interface{})

	// Success logs a success message to the user.
	Success(format string, args ...interface{})

	// StatusMessage prints a status line to the user without logging it.
	StatusMessage(format string, args ...interface{})

	// Close flushes and closes the log file, if any.
	Close() error
}

// Options configures a DefaultLogger.
type Options struct {
	// LogFile is the path of the append-only diagnostic log.
	// An empty path disables file logging.
	LogFile string

	// Debug lowers the file log level to include Info messages.
	Debug bool

	// Verbose echoes internal warnings to the user stream.
	Verbose bool

	// Stdout receives user-facing messages. Hook commands point this at
	// stderr so that stdout stays reserved for host-parsed output.
	Stdout io.Writer

	// Stderr receives error messages.
	Stderr io.Writer
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	debug   bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a DefaultLogger from opts. A log file that cannot be opened
// is reported on stderr and file logging is disabled; it never fails.
func New(opts Options) *DefaultLogger {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	l := &DefaultLogger{
		debug:   opts.Debug,
		logFile: opts.LogFile,
		verbose: opts.Verbose,
		stdout:  stdout,
		stderr:  stderr,
	}

	if opts.LogFile == "" {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, handlerOpts))
		return l
	}

	if logDir := filepath.Dir(opts.LogFile); logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			_, _ = fmt.Fprintf(stderr, "⚠️ Failed to create log directory: %v\n", err)
		}
	}

	f, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "⚠️ Failed to open log file: %v, file logging disabled\n", err)
		l.logger = slog.New(slog.NewTextHandler(io.Discard, handlerOpts))
		return l
	}

	l.file = f
	l.enabled = true
	l.logger = slog.New(slog.NewTextHandler(f, handlerOpts)).With("pid", os.Getpid())
	return l
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() *DefaultLogger {
	return New(Options{Stdout: io.Discard, Stderr: io.Discard})
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	l.logger.Info(fmt.Sprintf(format, args...))
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Info(msg)
	}

	_, _ = fmt.Fprintf(l.stdout, "ℹ️  %s\n", msg)
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Info(msg)
	}

	_, _ = fmt.Fprintf(l.stdout, "✅ %s\n", msg)
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	if l.verbose {
		_, _ = fmt.Fprintf(l.stdout, "⚠️  %s\n", msg)
	}
}

// WarningToUser logs a warning message to both file and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	_, _ = fmt.Fprintf(l.stdout, "⚠️  %s\n", msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Error(msg)
	}

	_, _ = fmt.Fprintf(l.stderr, "❌ %s\n", msg)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	// Sync ensures any buffered data is flushed to disk before closing
	if err := l.file.Sync(); err != nil {
		return err
	}
	err := l.file.Close()
	l.file = nil
	l.enabled = false
	return err
}

// LogFile returns the path of the diagnostic log, or "" when file logging is off.
func (l *DefaultLogger) LogFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return ""
	}
	return l.logFile
}

// SetStdout sets a custom writer for user-facing stdout messages only.
// NOTE: This does not affect where structured log messages from slog are directed.
func (l *DefaultLogger) SetStdout(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = w
}

// SetStderr sets a custom writer for user-facing stderr messages only.
// NOTE: This does not affect where structured log messages from slog are directed.
func (l *DefaultLogger) SetStderr(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = w
}

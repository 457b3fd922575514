package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bashhack/hookbak/internal/config"
	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/flush"
	"github.com/bashhack/hookbak/internal/git"
	"github.com/bashhack/hookbak/internal/hook"
	"github.com/bashhack/hookbak/internal/logger"
	"github.com/bashhack/hookbak/internal/queue"
)

// Queue is the pending-path store shared by every command.
type Queue interface {
	Path() string
	Record(ctx context.Context, path string) error
	Drain(ctx context.Context) (queue.ChangeSet, error)
	Clear(ctx context.Context) error
	Acknowledge(ctx context.Context, paths []string) error
}

// Flusher turns the queue into a checkpoint commit.
type Flusher interface {
	Flush(ctx context.Context) flush.Result
}

// Repository answers questions about the project's git repository.
type Repository interface {
	IsRepository(ctx context.Context) (bool, error)
	LastCommitSubject(ctx context.Context) (string, error)
}

// AppOptions contains app configuration and dependencies.
// Any nil dependency is created during Initialize.
type AppOptions struct {
	// Config holds the application settings (optional). When nil, Initialize
	// loads it from the config file, the environment and the command flags.
	Config *config.Config

	// VersionInfo is attached to a loaded Config.
	VersionInfo config.VersionInfo

	// Logger provides logging functionality (optional).
	Logger logger.Logger

	// Queue stores pending paths (optional).
	Queue Queue

	// Flusher commits the queue (optional).
	Flusher Flusher

	// Repository inspects the project repository (optional).
	Repository Repository

	// I/O dependencies

	// Stdin carries the host's hook event (optional, defaults to os.Stdin).
	Stdin io.Reader

	// Stdout is reserved for host-parsed output in hook commands and for
	// tables in operator commands (optional, defaults to os.Stdout).
	Stdout io.Writer

	// Stderr receives user-facing messages from hook commands and errors
	// (optional, defaults to os.Stderr).
	Stderr io.Writer

	// System dependencies

	// Exit terminates the process (optional, defaults to os.Exit).
	Exit func(code int)

	// ExecLookPath is used to find the git executable (optional, defaults to exec.LookPath).
	ExecLookPath func(file string) (string, error)
}

// App is the main hookbak application. Every command initializes it from
// the parsed flags, runs, and closes it.
type App struct {
	Config      *config.Config
	VersionInfo config.VersionInfo
	Logger      logger.Logger
	Queue       Queue
	Flusher     Flusher
	Repository  Repository

	// I/O streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	exit         func(code int)
	execLookPath func(file string) (string, error)
}

// NewDefaultApp creates an App with standard dependencies.
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	return NewApp(AppOptions{
		VersionInfo:  versionInfo,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		ExecLookPath: exec.LookPath,
	})
}

// NewApp creates an App with custom dependencies specified in opts.
func NewApp(opts AppOptions) *App {
	app := &App{
		Config:       opts.Config,
		VersionInfo:  opts.VersionInfo,
		Logger:       opts.Logger,
		Queue:        opts.Queue,
		Flusher:      opts.Flusher,
		Repository:   opts.Repository,
		Stdin:        opts.Stdin,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
	}

	// Set defaults for nil dependencies
	if app.Stdin == nil {
		app.Stdin = os.Stdin
	}
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.VersionInfo == (config.VersionInfo{}) {
		app.VersionInfo = config.New().VersionInfo
	}

	return app
}

// Initialize sets up components not provided during construction. flags
// are the parsed command flags; userOut receives user-facing messages.
func (a *App) Initialize(flags *pflag.FlagSet, userOut io.Writer) error {
	if a.Config == nil {
		cfg, err := config.Load(viper.New(), flags)
		if err != nil {
			return err
		}
		a.Config = cfg
	} else if err := a.Config.Finalize(); err != nil {
		// Finalize already returns a properly wrapped error
		if errors.Is(err, errors.ErrInvalidConfiguration) {
			return err
		}
		return errors.Wrap(errors.ErrInvalidConfiguration, err.Error())
	}
	a.Config.VersionInfo = a.VersionInfo

	if a.Logger == nil {
		a.Logger = logger.New(logger.Options{
			LogFile: a.Config.LogFile,
			Debug:   a.Config.Debug,
			Verbose: a.Config.Verbose,
			Stdout:  userOut,
			Stderr:  a.Stderr,
		})
	}

	if a.Queue == nil {
		a.Queue = queue.New(queue.Config{
			Path:        a.Config.QueueFile,
			LockTimeout: a.Config.LockTimeout,
		}, a.Logger)
	}

	var client *git.Client
	if a.Repository == nil || a.Flusher == nil {
		client = git.NewClient(a.Config.ProjectDir)
	}
	if a.Repository == nil {
		a.Repository = client
	}
	if a.Flusher == nil {
		a.Flusher = flush.NewCoordinator(a.Queue, client, a.Logger)
	}

	return nil
}

// Close releases resources held by the App
func (a *App) Close() error {
	if a.Logger == nil {
		return nil
	}
	if err := a.Logger.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
		return err
	}
	return nil
}

// run initializes the app, runs fn and closes the app again.
func (a *App) run(ctx context.Context, flags *pflag.FlagSet, userOut io.Writer, fn func(context.Context) error) error {
	if err := a.Initialize(flags, userOut); err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(ctx)
}

// runHook runs a host hook entry point. Hooks always succeed from the
// host's point of view: faults, and even panics, go to the diagnostic log
// and the process exits 0. User-facing messages go to stderr so stdout
// carries only what the host parses.
func (a *App) runHook(ctx context.Context, flags *pflag.FlagSet, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%s hook panicked: %v\n%s", name, r, debug.Stack())
			if a.Logger != nil {
				a.Logger.Warning("%s", msg)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "⚠️  hookbak %s\n", msg)
			}
		}
	}()

	if err := a.Initialize(flags, a.Stderr); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "⚠️  hookbak %s: %v\n", name, err)
		return
	}
	defer func() {
		_ = a.Close()
	}()

	if err := fn(ctx); err != nil {
		a.Logger.Warning("%s hook failed: %v", name, err)
	}
}

// requireRepository verifies git is installed and the project is a work tree.
func (a *App) requireRepository(ctx context.Context) error {
	if _, err := a.execLookPath("git"); err != nil {
		return errors.Wrap(errors.ErrGitOperationFailed, "git is not found in PATH")
	}

	isRepo, err := a.Repository.IsRepository(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrGitOperationFailed, err.Error())
	}
	if !isRepo {
		return errors.Wrapf(errors.ErrNotGitRepository, "%s", a.Config.ProjectDir)
	}
	return nil
}

// record queues the path named by the hook event on stdin. An event with no
// path is a silent no-op.
func (a *App) record(ctx context.Context) (bool, error) {
	in, err := hook.ReadStdin(a.Stdin)
	if err != nil {
		return false, err
	}

	path := in.ProjectPath(a.Config.ProjectDir)
	if path == "" {
		a.Logger.Info("Hook event (%s) names no file, nothing to record", in.ToolName)
		return false, nil
	}

	if err := a.Queue.Record(ctx, path); err != nil {
		return false, err
	}
	a.Logger.Info("Recorded %s", path)
	return true, nil
}

// flush runs one flush attempt and reports its outcome. Only a failed
// attempt, or a commit whose queue could not be cleared, returns an error.
func (a *App) flush(ctx context.Context) (flush.Result, error) {
	if err := a.requireRepository(ctx); err != nil {
		return flush.Result{Outcome: flush.OutcomeFailed, Err: err}, err
	}

	res := a.Flusher.Flush(ctx)
	switch res.Outcome {
	case flush.OutcomeCommitted:
		a.Logger.Info("[%s] Checkpoint %s: %d path(s), %d not staged", res.ID, res.CommitHash, len(res.Entries), len(res.Unstaged()))
		if a.Config.Verbose {
			a.Logger.Success("Checkpoint commit of %d agent edit(s)", len(res.Entries))
		}
		if res.State == flush.StateLeftPending {
			return res, res.Err
		}
	case flush.OutcomeFailed:
		return res, res.Err
	case flush.OutcomeNothingToCommit:
		a.Logger.Info("[%s] %d queued path(s) had no changes to commit", res.ID, len(res.Entries))
	case flush.OutcomeBusy:
		a.Logger.Info("[%s] Flush already in progress", res.ID)
	default:
		a.Logger.Info("[%s] Nothing to flush", res.ID)
	}
	return res, nil
}

// contextSummary describes pending edits for the session-start hook.
func (a *App) contextSummary(ctx context.Context) (string, error) {
	in, err := hook.ReadStdin(a.Stdin)
	if err != nil {
		// The event only feeds the log; the summary does not depend on it.
		a.Logger.Warning("Ignoring unreadable session event: %v", err)
	}
	a.Logger.Info("Session context requested (source=%q, session=%q)", in.Source, in.SessionID)

	cs, err := a.Queue.Drain(ctx)
	if err != nil {
		return "", err
	}

	last, err := a.Repository.LastCommitSubject(ctx)
	if err != nil {
		a.Logger.Info("No last commit available: %v", err)
		last = ""
	}
	return hook.Summarize(cs, last), nil
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "hookbak %s (%s) built on %s\n",
		a.VersionInfo.Version,
		a.VersionInfo.Commit,
		a.VersionInfo.Date)
}

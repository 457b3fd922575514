package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bashhack/hookbak/internal/constants"
	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/flush"
	"github.com/bashhack/hookbak/internal/logger"
)

// Recorder queues a path relative to the project root.
type Recorder interface {
	Record(ctx context.Context, path string) error
}

// Flusher runs one flush attempt.
type Flusher interface {
	Flush(ctx context.Context) flush.Result
}

// Config configures a Watcher.
type Config struct {
	// Root is the project directory to watch.
	Root string

	// Ignore lists top-level directory names under Root that are never
	// watched or recorded. .git and the control directory are always ignored.
	Ignore []string

	// Exclude lists files hookbak itself writes, such as the queue and the
	// log. Their lock and temporary siblings are excluded too.
	Exclude []string

	// FlushInterval between flush attempts. Zero disables periodic flushing.
	FlushInterval time.Duration

	// MaxRetries is how many consecutive identical flush errors are
	// tolerated before Run gives up. Zero means unlimited.
	MaxRetries int
}

// Stats summarizes a watch session.
type Stats struct {
	Recorded int
	Flushes  int
	Commits  int
	Started  time.Time
}

// Watcher records file changes observed on disk and optionally flushes the
// queue on a fixed interval.
type Watcher struct {
	config   Config
	recorder Recorder
	flusher  Flusher
	logger   logger.Logger
	ignore   map[string]struct{}

	mu    sync.Mutex
	stats Stats
}

// New creates a Watcher. flusher may be nil when FlushInterval is zero.
func New(config Config, recorder Recorder, flusher Flusher, log logger.Logger) *Watcher {
	if log == nil {
		log = logger.Nop()
	}

	ignore := map[string]struct{}{
		".git":               {},
		constants.ControlDir: {},
	}
	for _, name := range config.Ignore {
		if name = strings.Trim(filepath.Clean(name), string(filepath.Separator)); name != "" && name != "." {
			ignore[name] = struct{}{}
		}
	}

	return &Watcher{
		config:   config,
		recorder: recorder,
		flusher:  flusher,
		logger:   log,
		ignore:   ignore,
	}
}

// Stats returns a snapshot of the session counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches until ctx is cancelled or the flush loop exceeds MaxRetries.
// It returns ctx.Err() on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to start file watcher")
	}
	defer func() {
		_ = fsw.Close()
	}()

	if err := w.addTree(fsw, w.config.Root); err != nil {
		return err
	}

	w.mu.Lock()
	w.stats.Started = time.Now()
	w.mu.Unlock()

	var tick <-chan time.Time
	if w.config.FlushInterval > 0 && w.flusher != nil {
		ticker := time.NewTicker(w.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Track consecutive errors for potential bail-out
	errorState := struct {
		consecutiveErrors int
		lastErrorMsg      string
	}{}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Received cancellation signal, shutting down gracefully...")
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warning("File watcher error: %v", err)

		case <-tick:
			opErr := w.tryOperation(&errorState, func() error {
				return w.flushOnce(ctx)
			})

			// If the operation hit max retries, bubble up the fatal error
			if opErr != nil && w.config.MaxRetries > 0 && errorState.consecutiveErrors > w.config.MaxRetries {
				return opErr
			}
		}
	}
}

// tryOperation runs operation and tracks repeated identical failures.
func (w *Watcher) tryOperation(
	errorState *struct {
		consecutiveErrors int
		lastErrorMsg      string
	},
	operation func() error,
) error {
	err := operation()
	if err != nil {
		w.logger.Error("Error in flush cycle: %v", err)

		currentErrorMsg := err.Error()
		if currentErrorMsg == errorState.lastErrorMsg {
			errorState.consecutiveErrors++
		} else {
			errorState.consecutiveErrors = 1
			errorState.lastErrorMsg = currentErrorMsg
		}

		// Using '>' instead of '>=' to ensure MaxRetries = 1 allows one retry attempt
		if w.config.MaxRetries > 0 && errorState.consecutiveErrors > w.config.MaxRetries {
			w.logger.WarningToUser("Too many consecutive errors (same error %d times in a row). Stopping watch.", errorState.consecutiveErrors)
			return errors.Wrap(errors.ErrGitOperationFailed,
				fmt.Sprintf("maximum retries (%d) exceeded with error: %v", w.config.MaxRetries, err))
		}
		return err
	}

	// Reset consecutive errors on success
	errorState.consecutiveErrors = 0
	errorState.lastErrorMsg = ""
	return nil
}

func (w *Watcher) flushOnce(ctx context.Context) error {
	res := w.flusher.Flush(ctx)

	w.mu.Lock()
	w.stats.Flushes++
	if res.Outcome == flush.OutcomeCommitted {
		w.stats.Commits++
	}
	w.mu.Unlock()

	switch res.Outcome {
	case flush.OutcomeCommitted:
		w.logger.Success("Checkpoint %s: %d file(s)", shortHash(res.CommitHash), len(res.Entries))
	case flush.OutcomeFailed:
		return res.Err
	}
	return nil
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				w.logger.Warning("Failed to watch %s: %v", rel, err)
			}
			w.recordTree(ctx, event.Name)
			return
		}
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.record(ctx, rel)
	}
}

func (w *Watcher) record(ctx context.Context, rel string) {
	if err := w.recorder.Record(ctx, rel); err != nil {
		w.logger.Warning("Failed to record %s: %v", rel, err)
		return
	}

	w.mu.Lock()
	w.stats.Recorded++
	w.mu.Unlock()
	w.logger.Info("Recorded %s", rel)
}

// recordTree records every regular file below dir, for directories that
// appear with content already inside them.
func (w *Watcher) recordTree(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, ok := w.relative(path)
		if !ok {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			w.record(ctx, rel)
		}
		return nil
	})
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return errors.Wrapf(err, "failed to watch %s", dir)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.config.Root {
			if _, ok := w.relative(path); !ok {
				return filepath.SkipDir
			}
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warning("Failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// relative returns path relative to the root, or false when the path lies
// outside the root or under an ignored directory.
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	top, _, _ := strings.Cut(rel, string(filepath.Separator))
	if _, ignored := w.ignore[top]; ignored {
		return "", false
	}
	if w.excluded(path) {
		return "", false
	}
	return rel, true
}

// excluded matches queue.json, queue.json.lock, queue.json.flush.lock and
// .queue.json.123.tmp for an excluded queue.json. Other siblings such as
// queue.json.bak are not excluded.
func (w *Watcher) excluded(path string) bool {
	dir, base := filepath.Split(filepath.Clean(path))
	for _, e := range w.config.Exclude {
		eDir, eBase := filepath.Split(filepath.Clean(e))
		if eBase == "" || filepath.Clean(dir) != filepath.Clean(eDir) {
			continue
		}
		switch base {
		case eBase, eBase + constants.QueueLockSuffix, eBase + constants.FlushLockSuffix:
			return true
		}
		if rest, ok := strings.CutPrefix(base, "."+eBase+"."); ok && strings.HasSuffix(rest, ".tmp") {
			return true
		}
	}
	return false
}

// PrintSummary prints a summary of the watch session
func (w *Watcher) PrintSummary() {
	stats := w.Stats()

	duration := time.Duration(0)
	if !stats.Started.IsZero() {
		duration = time.Since(stats.Started)
	}
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	w.logger.StatusMessage("")
	w.logger.StatusMessage("---------------------------------------------")
	w.logger.StatusMessage("hookbak watch summary")
	w.logger.StatusMessage("---------------------------------------------")
	w.logger.StatusMessage("Paths recorded: %d", stats.Recorded)
	w.logger.StatusMessage("Flush attempts: %d", stats.Flushes)
	w.logger.StatusMessage("Checkpoint commits: %d", stats.Commits)
	w.logger.StatusMessage("Session duration: %dh %dm %ds", hours, minutes, seconds)
	w.logger.StatusMessage("---------------------------------------------")
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

package flush

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bashhack/hookbak/internal/constants"
	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/git"
	"github.com/bashhack/hookbak/internal/lock"
	"github.com/bashhack/hookbak/internal/logger"
	"github.com/bashhack/hookbak/internal/queue"
)

// VCS is the version-control collaborator used by a flush.
// *git.Client satisfies it.
type VCS interface {
	RepoPath() string
	Stage(ctx context.Context, path string) error
	StageWithDeletions(ctx context.Context, path string) error
	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	HeadCommit(ctx context.Context) (string, error)
}

// Queue is the subset of *queue.Store a flush needs.
type Queue interface {
	Path() string
	Drain(ctx context.Context) (queue.ChangeSet, error)
	Acknowledge(ctx context.Context, paths []string) error
}

// Outcome is the discriminated result of one flush attempt.
type Outcome int

const (
	// OutcomeNoOp means the queue was empty and nothing was touched.
	OutcomeNoOp Outcome = iota

	// OutcomeCommitted means one commit was created and the batch acknowledged.
	OutcomeCommitted

	// OutcomeFailed means the batch is still pending; Result.Err says why.
	OutcomeFailed

	// OutcomeBusy means another flush held the flush lock.
	OutcomeBusy

	// OutcomeNothingToCommit means every entry was processed but the index
	// did not differ from HEAD, so the batch was acknowledged without a commit.
	OutcomeNothingToCommit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoOp:
		return "noop"
	case OutcomeCommitted:
		return "committed"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	case OutcomeNothingToCommit:
		return "nothing-to-commit"
	default:
		return "unknown"
	}
}

// State is the last phase a flush attempt reached.
type State int

const (
	StateIdle State = iota
	StateDraining
	StateStaging
	StateCommitting
	StateCleared
	StateLeftPending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateStaging:
		return "staging"
	case StateCommitting:
		return "committing"
	case StateCleared:
		return "cleared"
	case StateLeftPending:
		return "left-pending"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens in this attempt.
func (s State) Terminal() bool {
	return s == StateCleared || s == StateLeftPending
}

// StageFault records a path whose first staging attempt failed.
type StageFault struct {
	Path string
	Kind git.FaultKind
	Err  error

	// Recovered is true when the deletion-aware fallback staged the path.
	Recovered bool
}

// Result describes one flush attempt.
type Result struct {
	ID         string
	Outcome    Outcome
	State      State
	Entries    []string
	Staged     []string
	Faults     []StageFault
	CommitHash string
	Err        error
	Duration   time.Duration
}

// Unstaged returns the entries that could not be staged at all.
func (r Result) Unstaged() []string {
	var paths []string
	for _, f := range r.Faults {
		if !f.Recovered {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// Classifier explains a failed stage call. git.ClassifyStageFault is the default.
type Classifier func(repoPath, path string, err error) git.FaultKind

// Coordinator turns the pending queue into one checkpoint commit.
type Coordinator struct {
	queue    Queue
	vcs      VCS
	logger   logger.Logger
	classify Classifier
	now      func() time.Time
}

// NewCoordinator creates a Coordinator. A nil logger discards diagnostics.
func NewCoordinator(q Queue, vcs VCS, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		queue:    q,
		vcs:      vcs,
		logger:   log,
		classify: git.ClassifyStageFault,
		now:      time.Now,
	}
}

// SetClassifier replaces the staging fault classifier.
func (c *Coordinator) SetClassifier(fn Classifier) {
	if fn != nil {
		c.classify = fn
	}
}

// FlushLockPath returns the lock file that keeps flushes single-flight.
func (c *Coordinator) FlushLockPath() string {
	return c.queue.Path() + constants.FlushLockSuffix
}

// Flush runs one attempt. Failures are reported through Result.Outcome and
// Result.Err, never as a separate error.
func (c *Coordinator) Flush(ctx context.Context) (res Result) {
	start := c.now()
	res = Result{ID: uuid.NewString(), State: StateIdle}
	defer func() {
		res.Duration = c.now().Sub(start)
	}()

	fl := lock.New(c.FlushLockPath(), 0)
	if err := fl.TryAcquire(); err != nil {
		if errors.Is(err, errors.ErrLockBusy) {
			c.logger.Info("[%s] Another flush is running, skipping", res.ID)
			res.Outcome = OutcomeBusy
			return res
		}
		c.logger.Warning("[%s] Flush lock unavailable, continuing without it: %v", res.ID, err)
	} else {
		defer func() {
			if err := fl.Release(); err != nil {
				c.logger.Warning("[%s] Failed to release flush lock: %v", res.ID, err)
			}
		}()
	}

	c.run(ctx, &res)
	return res
}

func (c *Coordinator) run(ctx context.Context, res *Result) {
	res.State = StateDraining
	cs, err := c.queue.Drain(ctx)
	if err != nil {
		c.fail(res, errors.Wrap(err, "failed to read queue"))
		return
	}
	if cs.IsEmpty() {
		// Nothing pending is already the cleared state.
		res.Outcome = OutcomeNoOp
		res.State = StateCleared
		c.logger.Info("[%s] Queue empty, nothing to flush", res.ID)
		return
	}
	res.Entries = cs.Entries

	res.State = StateStaging
	c.logger.Info("[%s] Staging %d queued path(s)", res.ID, len(cs.Entries))
	for _, path := range cs.Entries {
		if err := ctx.Err(); err != nil {
			c.fail(res, err)
			return
		}
		c.stage(ctx, res, path)
	}

	res.State = StateCommitting
	staged, err := c.vcs.HasStagedChanges(ctx)
	switch {
	case err != nil:
		// Let the commit itself decide.
		c.logger.Warning("[%s] Could not inspect index: %v", res.ID, err)
	case !staged && len(res.Unstaged()) > 0:
		// A clean index says nothing about paths git never accepted.
		c.fail(res, errors.Wrapf(errors.ErrNothingStaged,
			"%d of %d path(s) could not be staged", len(res.Unstaged()), len(cs.Entries)))
		return
	case !staged:
		res.Outcome = OutcomeNothingToCommit
		res.Err = errors.ErrNothingStaged
		c.logger.Warning("[%s] Nothing staged for %d queued path(s), dropping them", res.ID, len(cs.Entries))
		c.acknowledge(ctx, res)
		return
	}

	message := BuildMessage(res.Entries, res.Unstaged())
	if err := c.vcs.Commit(ctx, message); err != nil {
		c.fail(res, err)
		return
	}

	res.Outcome = OutcomeCommitted
	if hash, err := c.vcs.HeadCommit(ctx); err == nil {
		res.CommitHash = hash
	} else {
		c.logger.Warning("[%s] Committed but could not read HEAD: %v", res.ID, err)
	}
	c.logger.Info("[%s] Committed %d path(s) as %s", res.ID, len(res.Entries), shortHash(res.CommitHash))

	c.acknowledge(ctx, res)
}

// stage adds one path, falling back to the deletion-aware mode when the
// failure suggests it can help. A path that cannot be staged is skipped.
func (c *Coordinator) stage(ctx context.Context, res *Result, path string) {
	err := c.vcs.Stage(ctx, path)
	if err == nil {
		res.Staged = append(res.Staged, path)
		return
	}

	fault := StageFault{
		Path: path,
		Kind: c.classify(c.vcs.RepoPath(), path, err),
		Err:  err,
	}

	if fault.Kind.RetryWithDeletions() {
		if retryErr := c.vcs.StageWithDeletions(ctx, path); retryErr == nil {
			fault.Recovered = true
			res.Staged = append(res.Staged, path)
			c.logger.Info("[%s] Staged %s with deletions after %s fault", res.ID, path, fault.Kind)
		} else {
			fault.Err = errors.Join(err, retryErr)
		}
	}

	if !fault.Recovered {
		c.logger.Warning("[%s] Skipping %s (%s): %v", res.ID, path, fault.Kind, fault.Err)
	}
	res.Faults = append(res.Faults, fault)
}

// acknowledge removes the committed batch from the queue. A failure here
// leaves entries that the next flush will find already committed; staging
// them again is harmless.
func (c *Coordinator) acknowledge(ctx context.Context, res *Result) {
	if err := c.queue.Acknowledge(ctx, res.Entries); err != nil {
		c.logger.Error("[%s] Failed to clear flushed entries: %v", res.ID, err)
		res.State = StateLeftPending
		if res.Err == nil {
			res.Err = err
		}
		return
	}
	res.State = StateCleared
}

func (c *Coordinator) fail(res *Result, err error) {
	res.Outcome = OutcomeFailed
	res.State = StateLeftPending
	res.Err = err
	c.logger.Warning("[%s] Flush failed, %d path(s) left pending: %v", res.ID, len(res.Entries), err)
}

// BuildMessage renders the checkpoint commit message for entries. Paths in
// unstaged are marked as such.
func BuildMessage(entries, unstaged []string) string {
	skipped := make(map[string]struct{}, len(unstaged))
	for _, p := range unstaged {
		skipped[p] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, constants.CommitHeaderFormat, len(entries))
	b.WriteString("\n\n")
	b.WriteString(constants.FilesHeading)
	b.WriteString("\n")
	for _, p := range entries {
		b.WriteString("- ")
		b.WriteString(filepath.Base(p))
		if _, ok := skipped[p]; ok {
			b.WriteString(constants.NotStagedMarker)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(constants.Trailer())
	b.WriteString("\n")
	return b.String()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

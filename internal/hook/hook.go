package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/queue"
)

const (
	// MaxInputBytes caps how much of a hook event is read from stdin.
	MaxInputBytes = 1 << 20

	// SessionStartEvent is the host event name the context entry point answers.
	SessionStartEvent = "SessionStart"

	// maxSummaryPaths limits how many pending paths the context summary lists.
	maxSummaryPaths = 10
)

// Input is the JSON object the host writes to a hook's stdin. Only the
// fields hookbak uses are decoded.
type Input struct {
	SessionID     string          `json:"session_id"`
	HookEventName string          `json:"hook_event_name"`
	Source        string          `json:"source"`
	CWD           string          `json:"cwd"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input"`
	TopFilePath   string          `json:"file_path"`
}

// toolInput holds the path-bearing fields of the edit tools.
type toolInput struct {
	FilePath     string `json:"file_path"`
	NotebookPath string `json:"notebook_path"`
	Path         string `json:"path"`
}

// FilePath returns the edited path named by the event, or "" when the
// event carries none. tool_input.file_path wins over notebook_path and path;
// a top-level file_path is the last resort.
func (in Input) FilePath() string {
	var ti toolInput
	if len(in.ToolInput) > 0 && json.Unmarshal(in.ToolInput, &ti) == nil {
		for _, p := range []string{ti.FilePath, ti.NotebookPath, ti.Path} {
			if p = strings.TrimSpace(p); p != "" {
				return p
			}
		}
	}
	return strings.TrimSpace(in.TopFilePath)
}

// ProjectPath returns the edited path normalized against the project root.
// A relative path is taken relative to the event's cwd when one is given,
// and to root otherwise.
func (in Input) ProjectPath(root string) string {
	path := in.FilePath()
	if path == "" || filepath.IsAbs(path) || in.CWD == "" {
		return NormalizePath(root, path)
	}

	cwd := in.CWD
	if !filepath.IsAbs(cwd) {
		cwd = filepath.Join(root, cwd)
	}
	return NormalizePath(root, filepath.Join(cwd, path))
}

// ReadInput decodes a single hook event from r. Empty input is a valid,
// empty event. Anything that is not a JSON object returns an error wrapping
// ErrInvalidHookInput.
func ReadInput(r io.Reader) (Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return Input{}, errors.Wrap(err, "failed to read hook input")
	}
	if len(data) > MaxInputBytes {
		return Input{}, errors.Wrapf(errors.ErrInvalidHookInput, "input exceeds %d bytes", MaxInputBytes)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Input{}, nil
	}
	if data[0] != '{' {
		return Input{}, errors.Wrap(errors.ErrInvalidHookInput, "expected a JSON object")
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, errors.Errorf("%w: %v", errors.ErrInvalidHookInput, err)
	}
	return in, nil
}

// ReadStdin reads the hook event from r unless r is an interactive
// terminal, in which case the event is empty and nothing blocks.
func ReadStdin(r io.Reader) (Input, error) {
	if IsTerminal(r) {
		return Input{}, nil
	}
	return ReadInput(r)
}

// IsTerminal reports whether r is a terminal.
func IsTerminal(r any) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NormalizePath cleans path and expresses it relative to root when it lies
// inside root. Paths outside root stay absolute. A relative path is taken
// to be relative to root already.
func NormalizePath(root, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	path = filepath.Clean(path)

	if rel, ok := within(root, path); ok {
		return rel
	}

	// Host and project may disagree on symlinked prefixes such as
	// /var -> /private/var.
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return path
	}
	if rel, ok := within(resolvedRoot, path); ok {
		return rel
	}
	if resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		if rel, ok := within(resolvedRoot, filepath.Join(resolvedDir, filepath.Base(path))); ok {
			return rel
		}
	}
	return path
}

func within(root, path string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// HookSpecificOutput is the event-scoped part of ContextOutput.
type HookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// ContextOutput is the single JSON object the context entry point prints.
type ContextOutput struct {
	Summary            string             `json:"summary"`
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// NewContextOutput wraps summary for the SessionStart event.
func NewContextOutput(summary string) ContextOutput {
	return ContextOutput{
		Summary: summary,
		HookSpecificOutput: HookSpecificOutput{
			HookEventName:     SessionStartEvent,
			AdditionalContext: summary,
		},
	}
}

// Write prints o as one line of JSON.
func (o ContextOutput) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(o)
}

// Summarize describes the pending queue in one or two sentences.
// lastCommit is the subject of HEAD and may be empty.
func Summarize(cs queue.ChangeSet, lastCommit string) string {
	var b strings.Builder

	if cs.IsEmpty() {
		b.WriteString("hookbak: no agent edits are waiting for a checkpoint commit.")
	} else {
		shown := cs.Entries
		if len(shown) > maxSummaryPaths {
			shown = shown[:maxSummaryPaths]
		}
		fmt.Fprintf(&b, "hookbak: %d agent edit(s) waiting for a checkpoint commit: %s",
			cs.Len(), strings.Join(shown, ", "))
		if extra := cs.Len() - len(shown); extra > 0 {
			fmt.Fprintf(&b, " (+%d more)", extra)
		}
		b.WriteString(".")
	}

	if lastCommit = strings.TrimSpace(lastCommit); lastCommit != "" {
		fmt.Fprintf(&b, " Last commit: %s.", strings.TrimSuffix(lastCommit, "."))
	}
	return b.String()
}

// UnavailableSummary is printed when the queue or repository cannot be read.
const UnavailableSummary = "hookbak: pending edit status is unavailable."

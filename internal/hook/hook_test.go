package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/queue"
)

func TestReadInputFilePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "edit tool",
			input: `{"tool_name":"Edit","tool_input":{"file_path":"/repo/a.go","old_string":"x"}}`,
			want:  "/repo/a.go",
		},
		{
			name:  "notebook tool",
			input: `{"tool_name":"NotebookEdit","tool_input":{"notebook_path":"/repo/n.ipynb"}}`,
			want:  "/repo/n.ipynb",
		},
		{
			name:  "generic path",
			input: `{"tool_input":{"path":"/repo/p.txt"}}`,
			want:  "/repo/p.txt",
		},
		{
			name:  "file_path wins over path",
			input: `{"tool_input":{"path":"/repo/p.txt","file_path":"/repo/f.txt"}}`,
			want:  "/repo/f.txt",
		},
		{
			name:  "top-level file_path",
			input: `{"file_path":"/repo/top.go"}`,
			want:  "/repo/top.go",
		},
		{
			name:  "tool_input is not an object",
			input: `{"tool_input":"ls -la","file_path":"/repo/top.go"}`,
			want:  "/repo/top.go",
		},
		{
			name:  "no path",
			input: `{"tool_name":"Bash","tool_input":{"command":"ls"}}`,
			want:  "",
		},
		{
			name:  "blank path",
			input: `{"tool_input":{"file_path":"   "}}`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ReadInput(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.FilePath())
		})
	}
}

func TestReadInputSessionFields(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{"session_id":"abc","hook_event_name":"SessionStart","source":"resume","cwd":"/repo"}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", in.SessionID)
	assert.Equal(t, "SessionStart", in.HookEventName)
	assert.Equal(t, "resume", in.Source)
	assert.Equal(t, "/repo", in.CWD)
}

func TestReadInputEmpty(t *testing.T) {
	for _, s := range []string{"", "  \n\t"} {
		in, err := ReadInput(strings.NewReader(s))
		require.NoError(t, err)
		assert.Empty(t, in.FilePath())
	}
}

func TestReadInputMalformed(t *testing.T) {
	for _, s := range []string{`{"tool_input":`, `[1,2,3]`, `"just a string"`, `not json`, `{"file_path": 12}`} {
		_, err := ReadInput(strings.NewReader(s))
		require.Error(t, err, "input %q", s)
		assert.ErrorIs(t, err, errors.ErrInvalidHookInput, "input %q", s)
	}
}

func TestReadInputTooLarge(t *testing.T) {
	payload := fmt.Sprintf(`{"file_path":"/repo/a.go","pad":"%s"}`, strings.Repeat("x", MaxInputBytes))

	_, err := ReadInput(strings.NewReader(payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidHookInput)
}

func TestReadStdinFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	_, err = w.WriteString(`{"tool_input":{"file_path":"/repo/a.go"}}`)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	defer func() { _ = r.Close() }()

	assert.False(t, IsTerminal(r))

	in, err := ReadStdin(r)
	require.NoError(t, err)
	assert.Equal(t, "/repo/a.go", in.FilePath())
}

func TestIsTerminalNonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.False(t, IsTerminal(nil))
}

func TestNormalizePath(t *testing.T) {
	root := filepath.FromSlash("/work/project")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"inside root", "/work/project/src/a.go", filepath.FromSlash("src/a.go")},
		{"unclean inside root", "/work/project/src/../lib/./b.go", filepath.FromSlash("lib/b.go")},
		{"outside root", "/etc/hosts", filepath.FromSlash("/etc/hosts")},
		{"sibling with shared prefix", "/work/project-other/a.go", filepath.FromSlash("/work/project-other/a.go")},
		{"relative", "src//a.go", filepath.FromSlash("src/a.go")},
		{"empty", "", ""},
		{"whitespace", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(root, tt.path))
		})
	}
}

func TestInputProjectPath(t *testing.T) {
	root := filepath.FromSlash("/work/project")

	tests := []struct {
		name string
		cwd  string
		path string
		want string
	}{
		{"relative without cwd", "", "a.go", "a.go"},
		{"relative to subdirectory cwd", "/work/project/src", "a.go", filepath.FromSlash("src/a.go")},
		{"relative climbing out of cwd", "/work/project/src", "../docs/b.md", filepath.FromSlash("docs/b.md")},
		{"relative cwd", "pkg", "c.go", filepath.FromSlash("pkg/c.go")},
		{"cwd outside root", "/tmp/scratch", "d.go", filepath.FromSlash("/tmp/scratch/d.go")},
		{"absolute ignores cwd", "/work/project/src", "/work/project/e.go", "e.go"},
		{"no path", "/work/project/src", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{CWD: filepath.FromSlash(tt.cwd), TopFilePath: filepath.FromSlash(tt.path)}
			assert.Equal(t, tt.want, in.ProjectPath(root))
		})
	}
}

func TestNormalizePathThroughSymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "src"), 0o755))

	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)

	// The host reports the resolved path while the project root is the link.
	got := NormalizePath(link, filepath.Join(resolved, "src", "a.go"))
	assert.Equal(t, filepath.Join("src", "a.go"), got)
}

func TestContextOutputShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewContextOutput("2 edits <pending> & more").Write(&buf))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one line")
	assert.Contains(t, out, "<pending> & more", "HTML is not escaped")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2 edits <pending> & more", decoded["summary"])

	specific, ok := decoded["hookSpecificOutput"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SessionStart", specific["hookEventName"])
	assert.Equal(t, "2 edits <pending> & more", specific["additionalContext"])
}

func TestSummarize(t *testing.T) {
	t.Run("empty queue", func(t *testing.T) {
		s := Summarize(queue.ChangeSet{}, "")
		assert.Equal(t, "hookbak: no agent edits are waiting for a checkpoint commit.", s)
	})

	t.Run("with last commit", func(t *testing.T) {
		s := Summarize(queue.ChangeSet{}, "hookbak: checkpoint of 2 agent edit(s)")
		assert.Contains(t, s, "Last commit: hookbak: checkpoint of 2 agent edit(s).")
	})

	t.Run("pending entries", func(t *testing.T) {
		s := Summarize(queue.ChangeSet{Entries: []string{"a.go", "b.go"}}, "")
		assert.Equal(t, "hookbak: 2 agent edit(s) waiting for a checkpoint commit: a.go, b.go.", s)
	})

	t.Run("long list is truncated", func(t *testing.T) {
		var entries []string
		for i := range 13 {
			entries = append(entries, fmt.Sprintf("f%d.go", i))
		}
		s := Summarize(queue.ChangeSet{Entries: entries}, "")
		assert.Contains(t, s, "13 agent edit(s)")
		assert.Contains(t, s, "f9.go")
		assert.NotContains(t, s, "f10.go")
		assert.Contains(t, s, "(+3 more)")
	})
}

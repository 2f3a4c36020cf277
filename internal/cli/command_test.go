package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/linestat/internal/config"
	"github.com/idelchi/linestat/internal/linestat"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := New("1.2.3").Command()

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestPositionalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.c":     "1\n2\n3\n",
		"b.h":     "",
		"c.txt":   "ignored\n",
		"sub/d.c": "nested\n",
	})

	out, _, err := execute(t, dir)
	require.NoError(t, err)

	assert.Contains(t, out, DefaultTitle)
	assert.Contains(t, out, ".c: 1 file, 3 lines")
	assert.Contains(t, out, ".h: 1 file, 0 lines")
	assert.Contains(t, out, "TOTAL: 2 files, 3 lines")
	assert.NotContains(t, out, "c.txt")
	assert.NotContains(t, out, "d.c")
}

func TestPositionalDirectoryJSONWithFlags(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.py":       "1\n",
		"pkg/b.py":   "1\n2\n",
		"pkg/b.c":    "1\n",
		"skip/c.py":  "1\n",
		"pkg/x/y.py": "1\n",
	})

	out, _, err := execute(t, "-o", "json", "-x", "py", "--depth=-1", "-e", "skip/", "-t", "Python", dir)
	require.NoError(t, err)

	var stats linestat.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))

	assert.Equal(t, "Python", stats.Title)
	assert.Equal(t, int64(3), stats.FileCount)
	assert.Equal(t, int64(4), stats.TotalLines)
	assert.Equal(t, map[string]linestat.ExtStat{".py": {Count: 3, Lines: 4}}, stats.ExtStats)
}

func TestMissingDirectoryStillSucceeds(t *testing.T) {
	out, _, err := execute(t, filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Contains(t, out, "(not found)")
	assert.Contains(t, out, "TOTAL: 0 files, 0 lines")
}

func TestWatchWithoutExistingDirectories(t *testing.T) {
	absent := filepath.Join(t.TempDir(), "absent")
	done := make(chan struct{})

	var (
		out, errOut string
		err         error
	)

	go func() {
		defer close(done)

		out, errOut, err = execute(t, "--watch", absent)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch blocked with nothing to watch")
	}

	require.NoError(t, err)
	assert.Contains(t, out, "(not found)")
	assert.Contains(t, errOut, "No existing directories to watch")
	assert.NotContains(t, errOut, "press Ctrl+C")
}

func TestBuiltInDefaults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"components/hardwareone/HardwareOne.cpp": "1\n2\n",
		"components/hardwareone/sensors.h":       "1\n",
		"main/hardwareone-idf.cpp":               "1\n2\n3\n",
		"randomscripts/count_lines.py":           "1\n2\n3\n4\n",
		"randomscripts/notes.md":                 "ignored\n",
	})
	t.Chdir(root)

	out, _, err := execute(t)
	require.NoError(t, err)

	assert.Contains(t, out, config.DefaultTitle)
	assert.Contains(t, out, "[ components/hardwareone ]  (2 files, 3 lines)")
	assert.Contains(t, out, "[ main ]  (1 file, 3 lines)")
	assert.Contains(t, out, "[ randomscripts ]  (1 file, 4 lines)")
	assert.Contains(t, out, "GRAND TOTAL: 4 files, 10 lines")
}

func TestBuiltInDefaultsEmptyTree(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "GRAND TOTAL: 0 files, 0 lines")
}

func TestConfigFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.go":      "1\n2\n",
		"src/a_test.go": "1\n",
		"docs/r.md":     "1\n2\n3\n",
	})

	cfgPath := filepath.Join(t.TempDir(), "linestat.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
root: `+root+`
title: Project
output: markdown
excludes: ['_test\.go$']
targets:
  - dir: src
    extensions: [.go]
  - dir: docs
    label: documentation
    extensions: [.md]
`), 0o644))

	out, _, err := execute(t, "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "# Project\n")
	assert.Contains(t, out, "## documentation\n")
	assert.Contains(t, out, "| a.go | .go | 2 |")
	assert.NotContains(t, out, "a_test.go")
	assert.Contains(t, out, "**Grand total:** 2 files, 5 lines")

	// flags override the file
	out, _, err = execute(t, "--config", cfgPath, "--output", "table", "--ext", ".md")
	require.NoError(t, err)
	assert.Contains(t, out, "GRAND TOTAL: 1 file, 3 lines")
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t, "--init")
	require.NoError(t, err)

	assert.Contains(t, out, `- dir: "components/hardwareone"`)
	assert.Contains(t, out, "extensions: [.cpp, .h, .c, .py]")
}

func TestDebugOutputGoesToStderr(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.c": "1\n"})

	out, errOut, err := execute(t, "--debug", dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "[debug]: root:")
	assert.NotContains(t, out, "[debug]")
}

func TestInvalidInvocations(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown output", args: []string{"-o", "xml", dir}, wantErr: "invalid output format"},
		{name: "unknown layout", args: []string{"--layout", "grid", dir}, wantErr: "invalid layout"},
		{name: "bad depth", args: []string{"--depth=-2", dir}, wantErr: "depth"},
		{name: "bad exclude", args: []string{"-e", "(", dir}, wantErr: "compiling exclusion pattern"},
		{name: "missing explicit config", args: []string{"-c", filepath.Join(dir, "nope.yaml")}, wantErr: "config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliasChainSource = `Return
  Get l1
With
  cte l1 =
    Get l0
  cte l0 =
    Get t
`

const deadAndDedupSource = `Return
  Union
    Get l0
    Get l1
With
  cte l2 =
    Constant
      - (9)
  cte l1 =
    Filter (#0 = 3)
      Get t
  cte l0 =
    Filter (#0 = 3)
      Get t
`

const deadAndDedupCanonical = `Return
  Union
    Get l0
    Get l0
With
  cte l0 =
    Filter (#0 = 3)
      Get t
`

// writePlanFile writes content under dir and returns the path.
func writePlanFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNormalizeCommand_File(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "chain.plan", aliasChainSource)

	out, _, err := execCommand(t, NewNormalizeCommand(), "", path)
	require.NoError(t, err)

	assert.Equal(t, "Get t\n", out)
}

func TestNormalizeCommand_Stdin(t *testing.T) {
	out, _, err := execCommand(t, NewNormalizeCommand(), deadAndDedupSource)
	require.NoError(t, err)

	assert.Equal(t, deadAndDedupCanonical, out)
}

func TestNormalizeCommand_MultipleFilesKeepArgOrder(t *testing.T) {
	dir := t.TempDir()
	first := writePlanFile(t, dir, "chain.plan", aliasChainSource)
	second := writePlanFile(t, dir, "leaf.plan", "Constant <empty>\n")

	out, _, err := execCommand(t, NewNormalizeCommand(), "", first, second)
	require.NoError(t, err)

	assert.Equal(t, "Get t\nConstant <empty>\n", out)
}

func TestNormalizeCommand_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writePlanFile(t, dir, "dedup.plan", deadAndDedupSource)

	out, _, err := execCommand(t, NewNormalizeCommand(), "", path)
	require.NoError(t, err)

	again := writePlanFile(t, dir, "canonical.plan", out)
	out2, _, err := execCommand(t, NewNormalizeCommand(), "", again)
	require.NoError(t, err)

	assert.Equal(t, out, out2)
}

func TestNormalizeCommand_Check(t *testing.T) {
	dir := t.TempDir()

	t.Run("canonical file passes", func(t *testing.T) {
		path := writePlanFile(t, dir, "clean.plan", "Get t\n")

		out, _, err := execCommand(t, NewNormalizeCommand(), "", "--check", path)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("non-canonical file fails and is listed", func(t *testing.T) {
		path := writePlanFile(t, dir, "messy.plan", aliasChainSource)

		out, _, err := execCommand(t, NewNormalizeCommand(), "", "--check", path)
		require.EqualError(t, err, "1 file(s) not in canonical form")
		assert.Contains(t, out, path)
	})
}

func TestNormalizeCommand_Write(t *testing.T) {
	dir := t.TempDir()
	content := "/*---\nname: demo\n---*/\n" + aliasChainSource
	path := writePlanFile(t, dir, "demo.plan", content)

	out, _, err := execCommand(t, NewNormalizeCommand(), "", "--write", path)
	require.NoError(t, err)
	assert.Contains(t, out, "rewrote "+path)

	// Frontmatter survives, plan text is canonical
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/*---\nname: demo\n---*/\nGet t\n", string(raw))

	// A second pass finds nothing to do
	out, _, err = execCommand(t, NewNormalizeCommand(), "", "--write", path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeCommand_Summary(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "dedup.plan", deadAndDedupSource)

	out, _, err := execCommand(t, NewNormalizeCommand(), "", "--summary", "--check", path)
	require.Error(t, err)

	assert.Contains(t, out, "Iterations")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "3 -> 1")
}

func TestNormalizeCommand_SummaryJSON(t *testing.T) {
	t.Setenv("LEAPPLAN_OUTPUT", "json")
	path := writePlanFile(t, t.TempDir(), "dedup.plan", deadAndDedupSource)

	out, _, err := execCommand(t, NewNormalizeCommand(), "", "--summary", path)
	require.NoError(t, err)

	assert.Contains(t, out, `"input_bindings": 3`)
	assert.Contains(t, out, `"output_bindings": 1`)
	assert.Contains(t, out, `"changed": true`)
}

func TestNormalizeCommand_ParseErrorNamesFile(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "broken.plan", "Nope\n")

	_, _, err := execCommand(t, NewNormalizeCommand(), "", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestNormalizeCommand_FlagConflicts(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "check with write",
			args:    []string{"--check", "--write", "x.plan"},
			wantErr: "--check cannot be combined with --write",
		},
		{
			name:    "write without files",
			args:    []string{"--write"},
			wantErr: "--write requires file arguments",
		},
		{
			name:    "watch without files",
			args:    []string{"--watch"},
			wantErr: "--watch requires file arguments",
		},
		{
			name:    "watch with check",
			args:    []string{"--watch", "--check", "x.plan"},
			wantErr: "--watch cannot be combined with --check",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execCommand(t, NewNormalizeCommand(), "", tt.args...)
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const distinctFixture = `/*---
data:
  t:
    - [3, 10]
    - [3, 20]
    - [4, 30]
---*/
Distinct group_by=(#0)
  Get t
`

func TestEvalCommand_FrontmatterData(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "distinct.plan", distinctFixture)

	out, _, err := execCommand(t, NewEvalCommand(), "", path)
	require.NoError(t, err)

	assert.Contains(t, out, "c0")
	assert.Contains(t, out, "count")
	assert.Contains(t, out, "(2 rows)")
}

func TestEvalCommand_JSONOutput(t *testing.T) {
	t.Setenv("LEAPPLAN_OUTPUT", "json")
	path := writePlanFile(t, t.TempDir(), "distinct.plan", distinctFixture)

	out, _, err := execCommand(t, NewEvalCommand(), "", path)
	require.NoError(t, err)

	var entries []entryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &entries))

	want := []entryJSON{
		{Row: []int64{3}, Count: 1},
		{Row: []int64{4}, Count: 1},
	}
	assert.Equal(t, want, entries)
}

func TestEvalCommand_DataFlagOverridesFrontmatter(t *testing.T) {
	t.Setenv("LEAPPLAN_OUTPUT", "csv")
	dir := t.TempDir()
	path := writePlanFile(t, dir, "passthrough.plan", "/*---\ndata:\n  t:\n    - [1]\n---*/\nGet t\n")
	dataPath := writePlanFile(t, dir, "override.yaml", "t:\n  - [5]\n  - [5]\n")

	out, _, err := execCommand(t, NewEvalCommand(), "", path, "--data", dataPath)
	require.NoError(t, err)

	assert.Equal(t, "c0,count\n5,2\n", out)
}

func TestEvalCommand_NormalizedAgreesWithOriginal(t *testing.T) {
	source := "/*---\ndata:\n  t:\n    - [7]\n---*/\n" + aliasChainSource
	path := writePlanFile(t, t.TempDir(), "chain.plan", source)

	plain, _, err := execCommand(t, NewEvalCommand(), "", path)
	require.NoError(t, err)

	normalized, _, err := execCommand(t, NewEvalCommand(), "", path, "--normalized")
	require.NoError(t, err)

	assert.Equal(t, plain, normalized)
	assert.Contains(t, plain, "7")
}

func TestEvalCommand_Stdin(t *testing.T) {
	t.Setenv("LEAPPLAN_OUTPUT", "csv")

	out, _, err := execCommand(t, NewEvalCommand(), distinctFixture)
	require.NoError(t, err)

	assert.Equal(t, "c0,count\n3,1\n4,1\n", out)
}

func TestEvalCommand_EmptyResult(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "empty.plan", "Constant <empty>\n")

	out, _, err := execCommand(t, NewEvalCommand(), "", path)
	require.NoError(t, err)

	assert.Equal(t, "(0 rows)\n", out)
}

func TestEvalCommand_MarkdownOutput(t *testing.T) {
	t.Setenv("LEAPPLAN_OUTPUT", "markdown")
	path := writePlanFile(t, t.TempDir(), "distinct.plan", distinctFixture)

	out, _, err := execCommand(t, NewEvalCommand(), "", path)
	require.NoError(t, err)

	assert.Contains(t, out, "| c0 | count |")
	assert.Contains(t, out, "| --- | --- |")
	assert.Contains(t, out, "| 3 | 1 |")
}

func TestEvalCommand_MissingCollection(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "orphan.plan", "Get missing\n")

	_, _, err := execCommand(t, NewEvalCommand(), "", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no dataset for collection "missing"`)
	assert.Contains(t, err.Error(), path)
}

func TestEvalCommand_BadDatasetFile(t *testing.T) {
	dir := t.TempDir()
	path := writePlanFile(t, dir, "passthrough.plan", "Get t\n")
	dataPath := writePlanFile(t, dir, "broken.yaml", "t: {not rows}\n")

	_, _, err := execCommand(t, NewEvalCommand(), "", path, "--data", dataPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing dataset")
}

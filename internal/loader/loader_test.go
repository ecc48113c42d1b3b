package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatterAbsent(t *testing.T) {
	content := "Union\n  Get a\n  Get b\n"

	res, err := ExtractFrontmatter(content)
	require.NoError(t, err)

	assert.False(t, res.HasYAML)
	assert.Equal(t, content, res.Plan)
	assert.Empty(t, res.Config.Name)
	assert.Nil(t, res.Config.Data)
}

func TestExtractFrontmatterFull(t *testing.T) {
	content := `/*---
name: reachability
description: transitive closure seed
data:
  edges:
    - [1, 2]
    - [2, 3]
meta:
  ticket: PLAN-17
---*/
Return
  Get l0
With
  cte l0 =
    Get edges
`

	res, err := ExtractFrontmatter(content)
	require.NoError(t, err)

	assert.True(t, res.HasYAML)
	assert.Equal(t, "reachability", res.Config.Name)
	assert.Equal(t, "transitive closure seed", res.Config.Description)
	assert.Equal(t, [][]int64{{1, 2}, {2, 3}}, res.Config.Data["edges"])
	assert.Equal(t, "PLAN-17", res.Config.Meta["ticket"])

	assert.Equal(t, "Return\n  Get l0\nWith\n  cte l0 =\n    Get edges\n", res.Plan)
}

func TestExtractFrontmatterUnknownField(t *testing.T) {
	content := `/*---
name: x
materialized: table
---*/
Get t
`

	_, err := ExtractFrontmatter(content)
	require.Error(t, err)

	var ue *UnknownFieldError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "materialized", ue.Field)
	assert.Contains(t, err.Error(), `"materialized"`)
}

func TestExtractFrontmatterInvalidYAML(t *testing.T) {
	content := `/*---
name: [unclosed
---*/
Get t
`

	_, err := ExtractFrontmatter(content)
	require.Error(t, err)

	var pe *FrontmatterParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "invalid YAML")
}

func TestApplyDefaults(t *testing.T) {
	c := &Frontmatter{}
	c.ApplyDefaults("closure.plan")
	assert.Equal(t, "closure", c.Name)

	c = &Frontmatter{Name: "kept"}
	c.ApplyDefaults("closure.plan")
	assert.Equal(t, "kept", c.Name)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.plan")
	content := `/*---
data:
  t:
    - [7]
---*/
Get t
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fx, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, fx.Path)
	assert.Equal(t, "pair", fx.Config.Name)
	assert.Equal(t, [][]int64{{7}}, fx.Config.Data["t"])
	assert.Equal(t, "Get t\n", fx.Source)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.plan"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fixture")
}

func TestLoadFileStampsErrorsWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.plan")
	content := `/*---
bogus: 1
---*/
Get t
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

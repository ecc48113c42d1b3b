package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommand_SettlesLayout(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "messy.plan", "Constant\n  - ( 1 ,2 )\n\n")

	out, _, err := execCommand(t, NewRenderCommand(), "", path)
	require.NoError(t, err)

	assert.Equal(t, "Constant\n  - (1, 2)\n", out)
}

func TestRenderCommand_DoesNotNormalize(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "chain.plan", aliasChainSource)

	out, _, err := execCommand(t, NewRenderCommand(), "", path)
	require.NoError(t, err)

	// The alias chain survives: render formats, it does not rewrite.
	assert.Equal(t, aliasChainSource, out)
}

func TestRenderCommand_Stdin(t *testing.T) {
	out, _, err := execCommand(t, NewRenderCommand(), "Get   t\n")
	require.NoError(t, err)

	assert.Equal(t, "Get t\n", out)
}

func TestRenderCommand_ParseErrorNamesFile(t *testing.T) {
	path := writePlanFile(t, t.TempDir(), "broken.plan", "With\n")

	_, _, err := execCommand(t, NewRenderCommand(), "", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

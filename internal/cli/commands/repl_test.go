package commands

import (
	"bytes"
	"testing"

	"github.com/leapstack-labs/leapplan/internal/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession builds a repl session with captured output buffers.
func newTestSession(t *testing.T) (*replSession, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	cmd := NewReplCommand()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	return &replSession{cmd: cmd, cfg: getConfig(), data: eval.Dataset{}}, out, errOut
}

func TestReplDispatch_QuitAndHelp(t *testing.T) {
	sess, out, _ := newTestSession(t)

	assert.True(t, sess.dispatch(".quit"))
	assert.True(t, sess.dispatch(".exit"))

	assert.False(t, sess.dispatch(".help"))
	assert.Contains(t, out.String(), ".load")
	assert.Contains(t, out.String(), ".normalize")
}

func TestReplDispatch_UnknownCommand(t *testing.T) {
	sess, _, errOut := newTestSession(t)

	assert.False(t, sess.dispatch(".wat"))
	assert.Contains(t, errOut.String(), "Unknown command: .wat")
}

func TestReplDispatch_RequiresPlan(t *testing.T) {
	sess, _, errOut := newTestSession(t)

	sess.dispatch(".render")
	assert.Contains(t, errOut.String(), "No plan yet")
}

func TestReplSetPlan(t *testing.T) {
	sess, out, errOut := newTestSession(t)

	sess.setPlan("Get t\n")
	assert.Equal(t, "Get t\n", sess.source)
	assert.Contains(t, out.String(), "plan captured (1 lines)")

	// A plan that does not parse is rejected and the old one kept
	sess.setPlan("Nope\n")
	assert.Equal(t, "Get t\n", sess.source)
	assert.Contains(t, errOut.String(), "Error:")
}

func TestReplDispatch_RenderAndNormalize(t *testing.T) {
	sess, out, _ := newTestSession(t)
	sess.source = aliasChainSource

	sess.dispatch(".render")
	assert.Equal(t, aliasChainSource, out.String())

	out.Reset()
	sess.dispatch(".normalize")
	assert.Equal(t, "Get t\n", out.String())
}

func TestReplDispatch_Eval(t *testing.T) {
	sess, out, _ := newTestSession(t)
	sess.source = "Get t\n"
	sess.data = eval.Dataset{"t": {{7}}}

	sess.dispatch(".eval")
	assert.Contains(t, out.String(), "7")
	assert.Contains(t, out.String(), "(1 rows)")
}

func TestReplDispatch_Load(t *testing.T) {
	sess, out, errOut := newTestSession(t)
	path := writePlanFile(t, t.TempDir(), "distinct.plan", distinctFixture)

	sess.dispatch(".load " + path)
	require.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "loaded "+path)
	assert.Equal(t, "Distinct group_by=(#0)\n  Get t\n", sess.source)
	assert.Len(t, sess.data["t"], 3)

	out.Reset()
	sess.dispatch(".eval")
	assert.Contains(t, out.String(), "(2 rows)")
}

func TestReplDispatch_LoadUsage(t *testing.T) {
	sess, _, errOut := newTestSession(t)

	sess.dispatch(".load")
	assert.Contains(t, errOut.String(), "Usage: .load <file>")
}

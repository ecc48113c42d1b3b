package eval_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapplan/internal/eval"
	"github.com/leapstack-labs/leapplan/internal/loader"
	"github.com/leapstack-labs/leapplan/pkg/normalize"
	"github.com/leapstack-labs/leapplan/pkg/parser"
)

// Normalization must not change what a plan computes: every fixture is
// evaluated before and after normalization over its dataset.
func TestNormalizationPreservesSemantics(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.plan"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		fx, err := loader.LoadFile(file)
		require.NoError(t, err)

		t.Run(fx.Config.Name, func(t *testing.T) {
			in, err := parser.Parse(fx.Source)
			require.NoError(t, err)

			out, err := normalize.Normalize(in)
			require.NoError(t, err)

			data := eval.Dataset(fx.Config.Data)
			want, err := eval.Evaluate(in, data)
			require.NoError(t, err)

			got, err := eval.Evaluate(out, data)
			require.NoError(t, err)

			require.True(t, got.Equal(want), "normalized plan computes a different result")
		})
	}
}

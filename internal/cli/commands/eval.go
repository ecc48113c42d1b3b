package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapplan/internal/eval"
	"github.com/leapstack-labs/leapplan/pkg/normalize"
	"github.com/leapstack-labs/leapplan/pkg/parser"
	"github.com/spf13/cobra"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	Data       string
	Normalized bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a plan against a dataset",
		Long: `Evaluate a plan over integer datasets and print the resulting
multiset.

External collections referenced by name are bound from the fixture's
frontmatter data section, overlaid by entries from --data. Counts
follow bag semantics; negative counts can arise under Negate. Reads
stdin when no file is given.`,
		Example: `  # Evaluate with frontmatter data
  leapplan eval plans/report.plan

  # Bind external collections from a separate dataset
  leapplan eval plans/report.plan --data fixtures/prod.yaml

  # Evaluate the canonical form (must agree with the original)
  leapplan eval plans/report.plan --normalized

  # Results as JSON
  leapplan eval plans/report.plan -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runEval(cmd, path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "YAML dataset file binding external collections")
	cmd.Flags().BoolVar(&opts.Normalized, "normalized", false, "Normalize before evaluating")

	return cmd
}

func runEval(cmd *cobra.Command, path string, opts *EvalOptions) error {
	cfg := getConfig()

	fx, err := loadPlan(cmd, path)
	if err != nil {
		return err
	}

	expr, err := parser.Parse(fx.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", fx.Path, err)
	}

	if opts.Normalized {
		nres, err := normalize.NormalizeWithOptions(expr, normalizeOptions(cmd, cfg))
		if err != nil {
			return fmt.Errorf("%s: %w", fx.Path, err)
		}
		expr = nres.Plan
	}

	dataPath := opts.Data
	if dataPath == "" {
		dataPath = cfg.DataPath
	}
	data, err := loadDataset(fx, dataPath)
	if err != nil {
		return err
	}

	result, err := eval.EvaluateWithOptions(expr, data, eval.Options{MaxRounds: cfg.MaxRounds})
	if err != nil {
		return fmt.Errorf("%s: %w", fx.Path, err)
	}

	return renderEntries(cmd.OutOrStdout(), result.Sorted(), cfg.OutputFormat)
}

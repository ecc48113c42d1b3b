package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapplan/pkg/format"
	"github.com/leapstack-labs/leapplan/pkg/parser"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Parse a plan and print its canonical text form",
		Long: `Parse a plan and re-print it in the canonical layout without
normalizing its binding structure.

This settles indentation, spacing, and block ordering, which makes it
useful as a fixture formatter and for checking that a plan parses at
all. Reads stdin when no file is given.`,
		Example: `  # Reformat a fixture
  leapplan render plans/report.plan

  # Format a plan from stdin
  cat plans/report.plan | leapplan render`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runRender(cmd, path)
		},
	}

	return cmd
}

func runRender(cmd *cobra.Command, path string) error {
	fx, err := loadPlan(cmd, path)
	if err != nil {
		return err
	}

	expr, err := parser.Parse(fx.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", fx.Path, err)
	}

	// Render already ends with exactly one newline.
	_, _ = fmt.Fprint(cmd.OutOrStdout(), format.Render(expr))
	return nil
}

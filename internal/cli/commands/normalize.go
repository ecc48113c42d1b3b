package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapplan/internal/loader"
	"github.com/leapstack-labs/leapplan/pkg/format"
	"github.com/leapstack-labs/leapplan/pkg/normalize"
	"github.com/leapstack-labs/leapplan/pkg/parser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	Check   bool
	Write   bool
	Summary bool
	Watch   bool
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand() *cobra.Command {
	opts := &NormalizeOptions{}

	cmd := &cobra.Command{
		Use:   "normalize [files...]",
		Short: "Rewrite plans into canonical binding form",
		Long: `Rewrite the binding structure of plans into canonical form.

Identical bindings are merged, aliases are inlined, unreferenced
bindings are dropped, and scopes are split so that recursion is
declared exactly where plans are mutually recursive. The result is
deterministic: normalizing twice yields the same text.

Multiple files are processed in parallel. Frontmatter blocks are
preserved untouched. Reads stdin when no files are given.`,
		Example: `  # Normalize a fixture to stdout
  leapplan normalize plans/report.plan

  # Rewrite fixtures in place
  leapplan normalize --write plans/*.plan

  # Fail if anything is not canonical (CI)
  leapplan normalize --check plans/*.plan

  # Re-normalize on every change
  leapplan normalize --watch --write plans/*.plan

  # Normalize stdin
  cat plans/report.plan | leapplan normalize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Check && opts.Write {
				return fmt.Errorf("--check cannot be combined with --write")
			}
			if opts.Write && len(args) == 0 {
				return fmt.Errorf("--write requires file arguments")
			}
			if opts.Watch {
				if len(args) == 0 {
					return fmt.Errorf("--watch requires file arguments")
				}
				if opts.Check {
					return fmt.Errorf("--watch cannot be combined with --check")
				}
				return watchNormalize(cmd, args, opts)
			}
			return runNormalize(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "List files that are not canonical and exit non-zero")
	cmd.Flags().BoolVar(&opts.Write, "write", false, "Rewrite files in place instead of printing")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "Print per-file rewrite statistics")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch files and re-normalize on change")

	return cmd
}

// normalizeResult captures one file's pass through the normalizer.
type normalizeResult struct {
	path   string
	header string // raw frontmatter prefix, preserved on rewrite
	input  string // plan text as read
	output string // canonical rendering
	stats  normalize.Stats
}

func runNormalize(cmd *cobra.Command, args []string, opts *NormalizeOptions) error {
	cfg := getConfig()
	nopts := normalizeOptions(cmd, cfg)

	var results []*normalizeResult
	if len(args) == 0 {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		res, err := normalizeSource("<stdin>", string(raw), nopts)
		if err != nil {
			return err
		}
		results = []*normalizeResult{res}
	} else {
		results = make([]*normalizeResult, len(args))
		var g errgroup.Group
		for i, path := range args {
			g.Go(func() error {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				res, err := normalizeSource(path, string(raw), nopts)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	// The check verdict is returned after the summary so statistics
	// still print when CI fails the run.
	var checkErr error

	switch {
	case opts.Check:
		dirty := 0
		for _, r := range results {
			if r.input != r.output {
				dirty++
				_, _ = fmt.Fprintln(out, r.path)
			}
		}
		if dirty > 0 {
			checkErr = fmt.Errorf("%d file(s) not in canonical form", dirty)
		}
	case opts.Write:
		for _, r := range results {
			if r.input == r.output {
				continue
			}
			if err := os.WriteFile(r.path, []byte(r.header+r.output), 0644); err != nil {
				return fmt.Errorf("rewriting %s: %w", r.path, err)
			}
			_, _ = fmt.Fprintf(out, "rewrote %s\n", r.path)
		}
	default:
		for _, r := range results {
			_, _ = fmt.Fprint(out, r.output)
		}
	}

	if opts.Summary {
		if err := renderSummary(out, results, cfg.OutputFormat); err != nil {
			return err
		}
	}
	return checkErr
}

// normalizeSource normalizes one plan text, keeping its frontmatter
// prefix aside for faithful rewriting.
func normalizeSource(path, content string, opts normalize.Options) (*normalizeResult, error) {
	res, err := loader.ExtractFrontmatter(content)
	if err != nil {
		return nil, loader.StampFile(err, path)
	}

	expr, err := parser.Parse(res.Plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	nres, err := normalize.NormalizeWithOptions(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &normalizeResult{
		path:   path,
		header: content[:len(content)-len(res.Plan)],
		input:  res.Plan,
		output: format.Render(nres.Plan),
		stats:  nres.Stats,
	}, nil
}

// summaryRow is the JSON shape of one file's statistics.
type summaryRow struct {
	File            string `json:"file"`
	Iterations      int    `json:"iterations"`
	InputBindings   int    `json:"input_bindings"`
	OutputBindings  int    `json:"output_bindings"`
	Deduped         int    `json:"deduped"`
	AliasesInlined  int    `json:"aliases_inlined"`
	DeadRemoved     int    `json:"dead_removed"`
	Scopes          int    `json:"scopes"`
	RecursiveScopes int    `json:"recursive_scopes"`
	Changed         bool   `json:"changed"`
}

// renderSummary prints per-file rewrite statistics.
func renderSummary(w io.Writer, results []*normalizeResult, outputFormat string) error {
	if outputFormat == "json" {
		rows := make([]summaryRow, 0, len(results))
		for _, r := range results {
			st := r.stats
			rows = append(rows, summaryRow{
				File:            r.path,
				Iterations:      st.Iterations,
				InputBindings:   st.InputBindings,
				OutputBindings:  st.OutputBindings,
				Deduped:         st.Deduped,
				AliasesInlined:  st.AliasesInlined,
				DeadRemoved:     st.DeadRemoved,
				Scopes:          st.Scopes,
				RecursiveScopes: st.RecursiveScopes,
				Changed:         r.input != r.output,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Iterations", "Bindings", "Deduped", "Aliases", "Dead", "Scopes", "Recursive"})
	for _, r := range results {
		st := r.stats
		t.AppendRow(table.Row{
			r.path,
			st.Iterations,
			fmt.Sprintf("%d -> %d", st.InputBindings, st.OutputBindings),
			st.Deduped,
			st.AliasesInlined,
			st.DeadRemoved,
			st.Scopes,
			st.RecursiveScopes,
		})
	}

	switch outputFormat {
	case "csv":
		t.RenderCSV()
	case "md", "markdown":
		t.RenderMarkdown()
	default:
		t.Render()
	}
	return nil
}

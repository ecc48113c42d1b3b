package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapplan/internal/config"
	"github.com/leapstack-labs/leapplan/internal/eval"
	"github.com/leapstack-labs/leapplan/internal/loader"
	"github.com/leapstack-labs/leapplan/pkg/format"
	"github.com/leapstack-labs/leapplan/pkg/normalize"
	"github.com/leapstack-labs/leapplan/pkg/parser"
	"github.com/leapstack-labs/leapplan/pkg/plan"
	"github.com/spf13/cobra"
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive plan workbench",
		Long: `Start an interactive session for entering, normalizing, rendering,
and evaluating plans.

Plans are entered line by line, indentation included, and finished with
a blank line. Dot-commands operate on the most recent plan; .load pulls
a plan and its dataset from a fixture file.`,
		Args: cobra.NoArgs,
		RunE: runRepl,
	}
}

// replSession holds the state of an interactive session.
type replSession struct {
	cmd    *cobra.Command
	cfg    *config.Config
	source string       // current plan text
	data   eval.Dataset // external collections for .eval
}

func runRepl(cmd *cobra.Command, _ []string) error {
	sess := &replSession{
		cmd:  cmd,
		cfg:  getConfig(),
		data: eval.Dataset{},
	}

	historyFile := filepath.Join(os.TempDir(), "leapplan_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "leapplan> ",
		HistoryFile:     historyFile,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize repl: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "LeapPlan REPL")
	_, _ = fmt.Fprintln(out, "Enter a plan (finish with a blank line), or type .help for commands")
	_, _ = fmt.Fprintln(out)

	// REPL loop. Plan lines are kept verbatim because indentation is
	// significant; only the trimmed copy is inspected.
	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("leapplan> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		trimmed := strings.TrimSpace(line)

		// Handle dot-commands
		if strings.HasPrefix(trimmed, ".") {
			if quit := sess.dispatch(trimmed); quit {
				break
			}
			continue
		}

		// A blank line finishes plan entry
		if trimmed == "" {
			if buffer.Len() > 0 {
				sess.setPlan(buffer.String())
				buffer.Reset()
			}
			rl.SetPrompt("leapplan> ")
			continue
		}

		buffer.WriteString(line)
		buffer.WriteString("\n")
		rl.SetPrompt("    ...> ")
	}

	return nil
}

// setPlan makes src the session's current plan if it parses.
func (s *replSession) setPlan(src string) {
	if _, err := parser.Parse(src); err != nil {
		_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	s.source = src
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), "plan captured (%d lines)\n", strings.Count(src, "\n"))
}

// dispatch handles one dot-command line. It reports whether the
// session should end.
func (s *replSession) dispatch(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	out := s.cmd.OutOrStdout()
	errOut := s.cmd.ErrOrStderr()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printReplHelp(out)

	case ".render":
		s.withPlan(func(e plan.Expr) error {
			_, _ = fmt.Fprint(out, format.Render(e))
			return nil
		})

	case ".normalize":
		s.withPlan(func(e plan.Expr) error {
			nres, err := normalize.NormalizeWithOptions(e, normalizeOptions(s.cmd, s.cfg))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(out, format.Render(nres.Plan))
			return nil
		})

	case ".eval":
		s.withPlan(func(e plan.Expr) error {
			result, err := eval.EvaluateWithOptions(e, s.data, eval.Options{MaxRounds: s.cfg.MaxRounds})
			if err != nil {
				return err
			}
			return renderEntries(out, result.Sorted(), s.cfg.OutputFormat)
		})

	case ".load":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .load <file>")
			break
		}
		s.loadFixture(parts[1])

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}

	return false
}

// withPlan parses the current plan and hands it to fn, reporting errors.
func (s *replSession) withPlan(fn func(plan.Expr) error) {
	if s.source == "" {
		_, _ = fmt.Fprintln(s.cmd.ErrOrStderr(), "No plan yet (finish one with a blank line, or .load a file)")
		return
	}
	e, err := parser.Parse(s.source)
	if err == nil {
		err = fn(e)
	}
	if err != nil {
		_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}

// loadFixture replaces the current plan and dataset from a fixture file.
func (s *replSession) loadFixture(path string) {
	fx, err := loader.LoadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	if _, err := parser.Parse(fx.Source); err != nil {
		_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "Error: %s: %v\n", path, err)
		return
	}

	s.source = fx.Source
	s.data = eval.Dataset{}
	for name, rows := range fx.Config.Data {
		s.data[name] = rows
	}
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), "loaded %s (%d collections)\n", path, len(s.data))
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .render         Print the current plan in canonical layout
  .normalize      Print the canonical binding form of the current plan
  .eval           Evaluate the current plan against the loaded dataset
  .load <file>    Load a plan and its dataset from a fixture file
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Plan lines keep their indentation; finish a plan with a blank line
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// replCompleter creates a readline completer for dot-commands.
func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".render"),
		readline.PcItem(".normalize"),
		readline.PcItem(".eval"),
		readline.PcItem(".load"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

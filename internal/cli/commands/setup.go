// Package commands implements the leapplan subcommands.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/leapplan/internal/config"
	"github.com/leapstack-labs/leapplan/internal/eval"
	"github.com/leapstack-labs/leapplan/internal/loader"
	"github.com/leapstack-labs/leapplan/pkg/normalize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables with defaults.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	cfg := &config.Config{
		OutputFormat:  config.DefaultOutput,
		Verbose:       os.Getenv("LEAPPLAN_VERBOSE") == "true",
		MaxIterations: normalize.DefaultMaxIterations,
		MaxRounds:     eval.DefaultMaxRounds,
		DataPath:      os.Getenv("LEAPPLAN_DATA"),
	}
	if v := os.Getenv("LEAPPLAN_OUTPUT"); v != "" {
		cfg.OutputFormat = v
	}
	return cfg
}

// normalizeOptions builds normalizer options from config and the
// command's logger.
func normalizeOptions(cmd *cobra.Command, cfg *config.Config) normalize.Options {
	return normalize.Options{
		MaxIterations: cfg.MaxIterations,
		Logger:        config.GetLogger(cmd.Context()),
	}
}

// loadPlan reads a plan fixture from path, or from stdin when path is
// empty or "-". Frontmatter is honored in both cases.
func loadPlan(cmd *cobra.Command, path string) (*loader.Fixture, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		res, err := loader.ExtractFrontmatter(string(raw))
		if err != nil {
			return nil, loader.StampFile(err, "<stdin>")
		}
		cfg := res.Config
		cfg.ApplyDefaults("stdin")
		return &loader.Fixture{Path: "<stdin>", Config: cfg, Source: res.Plan}, nil
	}
	return loader.LoadFile(path)
}

// loadDataset merges the fixture's frontmatter data with an optional
// external YAML dataset file. File entries win on collision.
func loadDataset(fx *loader.Fixture, dataPath string) (eval.Dataset, error) {
	data := eval.Dataset{}
	for name, rows := range fx.Config.Data {
		data[name] = rows
	}
	if dataPath == "" {
		return data, nil
	}

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	var file map[string][][]int64
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", dataPath, err)
	}
	for name, rows := range file {
		data[name] = rows
	}
	return data, nil
}

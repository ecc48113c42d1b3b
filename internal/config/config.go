// Package config loads leapplan configuration from defaults, an optional
// leapplan.yaml file, LEAPPLAN_ environment variables, and command-line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
)

// Config holds all CLI configuration options.
type Config struct {
	// OutputFormat selects how tabular results are printed: table, json,
	// csv, or markdown.
	OutputFormat string `koanf:"output"`

	// Verbose enables debug-level logging.
	Verbose bool `koanf:"verbose"`

	// MaxIterations caps the rewrite fixpoint per scoped region.
	MaxIterations int `koanf:"max_iterations"`

	// MaxRounds caps recursive-scope iteration during evaluation.
	MaxRounds int `koanf:"max_rounds"`

	// DataPath names a default YAML dataset file for eval and the repl.
	// The --data flag overrides it per invocation.
	DataPath string `koanf:"data"`
}

// Default configuration values.
const (
	DefaultOutput = "table"
)

// outputFormats lists the accepted values for OutputFormat.
var outputFormats = map[string]bool{
	"table":    true,
	"json":     true,
	"csv":      true,
	"md":       true,
	"markdown": true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !outputFormats[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (want table, json, csv, or markdown)", c.OutputFormat)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	return nil
}

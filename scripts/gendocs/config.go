package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Env         string
	Description string
}

// getConfigSchema returns the configuration schema definition.
// This is based on internal/config Config.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "output", Type: "string", Default: "table", Env: "LEAPPLAN_OUTPUT", Description: "Output format: table, json, csv, or markdown"},
		{Name: "verbose", Type: "bool", Default: "false", Env: "LEAPPLAN_VERBOSE", Description: "Enable debug logging on stderr"},
		{Name: "max_iterations", Type: "int", Default: "64", Env: "LEAPPLAN_MAX_ITERATIONS", Description: "Rewrite passes before normalization gives up"},
		{Name: "max_rounds", Type: "int", Default: "1000", Env: "LEAPPLAN_MAX_ROUNDS", Description: "Fixpoint rounds before evaluation gives up"},
		{Name: "data", Type: "string", Default: "-", Env: "LEAPPLAN_DATA", Description: "Dataset file for eval"},
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "---\ntitle: Configuration\n---\n\n")
	fmt.Fprintf(&buf, "<!-- Generated by scripts/gendocs. DO NOT EDIT. -->\n\n")
	fmt.Fprintf(&buf, "# Configuration\n\n")
	fmt.Fprintf(&buf, "LeapPlan is configured via `leapplan.yaml`, found by searching upward\nfrom the working directory.\n\n")

	fmt.Fprintf(&buf, "## Settings\n\n")
	fmt.Fprintf(&buf, "| Field | Type | Default | Environment | Description |\n")
	fmt.Fprintf(&buf, "| --- | --- | --- | --- | --- |\n")
	for _, f := range getConfigSchema() {
		fmt.Fprintf(&buf, "| `%s` | %s | `%s` | `%s` | %s |\n", f.Name, f.Type, f.Default, f.Env, f.Description)
	}
	fmt.Fprintf(&buf, "\n")

	fmt.Fprintf(&buf, "## Precedence\n\n")
	fmt.Fprintf(&buf, "Sources are merged in increasing order of precedence:\n\n")
	fmt.Fprintf(&buf, "1. Built-in defaults\n")
	fmt.Fprintf(&buf, "2. `leapplan.yaml` (or a file named with `--config`)\n")
	fmt.Fprintf(&buf, "3. `LEAPPLAN_` environment variables\n")
	fmt.Fprintf(&buf, "4. Command-line flags\n")

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, buf.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")

	return nil
}

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapplan/internal/cli"
	"github.com/spf13/cobra/doc"
)

// generateCLIDocs generates CLI documentation from Cobra commands.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rootCmd := cli.NewRootCmd()
	// The per-file prepender carries the generated marker instead.
	rootCmd.DisableAutoGenTag = true

	filePrepender := func(filename string) string {
		base := strings.TrimSuffix(filepath.Base(filename), ".md")
		title := strings.ReplaceAll(base, "_", " ")
		return fmt.Sprintf("---\ntitle: %s\n---\n\n<!-- Generated by scripts/gendocs. DO NOT EDIT. -->\n\n", title)
	}
	linkHandler := func(name string) string {
		return name
	}

	if err := doc.GenMarkdownTreeCustom(rootCmd, outDir, filePrepender, linkHandler); err != nil {
		return fmt.Errorf("failed to generate command pages: %w", err)
	}

	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" {
			continue
		}
		log.Printf("  Generated leapplan_%s.md", cmd.Name())
	}

	return nil
}

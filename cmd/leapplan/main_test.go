// Package main provides tests for the leapplan CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapplan/internal/cli"
)

func execRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execRoot(t, "", "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	if !strings.Contains(output, "LeapPlan") {
		t.Errorf("version output should contain 'LeapPlan', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execRoot(t, "", "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"normalize", "render", "eval", "repl", "version"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestNormalizeThroughRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.plan")
	source := "Return\n  Get l0\nWith\n  cte l0 =\n    Get t\n"
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	output, err := execRoot(t, "", "normalize", path)
	if err != nil {
		t.Fatalf("normalize command error = %v", err)
	}

	if output != "Get t\n" {
		t.Errorf("normalize output = %q, want %q", output, "Get t\n")
	}
}

func TestOutputFlagReachesSubcommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.plan")
	source := "Return\n  Get l0\nWith\n  cte l0 =\n    Get t\n"
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	output, err := execRoot(t, "", "normalize", "--summary", "-o", "json", path)
	if err != nil {
		t.Fatalf("normalize command error = %v", err)
	}

	if !strings.Contains(output, `"aliases_inlined": 1`) {
		t.Errorf("summary should report the inlined alias as JSON, got: %s", output)
	}
}

func TestInvalidOutputFlagRejected(t *testing.T) {
	_, err := execRoot(t, "", "-o", "xml", "version")
	if err == nil {
		t.Fatal("expected error for invalid output format")
	}
	if !strings.Contains(err.Error(), "invalid output format") {
		t.Errorf("error = %v, want mention of invalid output format", err)
	}
}

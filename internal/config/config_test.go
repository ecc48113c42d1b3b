package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapplan/internal/eval"
	"github.com/leapstack-labs/leapplan/pkg/normalize"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes content to a leapplan.yaml in dir and returns its path.
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, normalize.DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, eval.DefaultMaxRounds, cfg.MaxRounds)
	assert.Empty(t, cfg.DataPath)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "output: json\nmax_iterations: 16\n")
	t.Chdir(tmpDir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 16, cfg.MaxIterations)
	// Unset keys keep their defaults
	assert.Equal(t, eval.DefaultMaxRounds, cfg.MaxRounds)
	assert.Equal(t, "leapplan.yaml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "output: markdown\n")

	nested := filepath.Join(tmpDir, "plans", "nightly")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, "leapplan.yaml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: fixtures/base.yaml\n"), 0600))
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "fixtures/base.yaml", cfg.DataPath)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "output: json\n")
	t.Chdir(tmpDir)
	t.Setenv("LEAPPLAN_OUTPUT", "csv")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.OutputFormat, "env var should override config file")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "output: json\n")
	t.Chdir(tmpDir)
	t.Setenv("LEAPPLAN_OUTPUT", "csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")
	require.NoError(t, flags.Set("output", "markdown"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat, "flag value should override config file and env var")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("LEAPPLAN_OUTPUT", "csv")

	// Register the flag but don't set it (Changed stays false)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.OutputFormat, "env var should be used when flag is not set")
}

func TestLoadConfig_KebabFlagMapsToSnakeKey(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-iterations", 0, "iteration cap")
	flags.Int("max-rounds", 0, "round cap")
	require.NoError(t, flags.Set("max-iterations", "5"))
	require.NoError(t, flags.Set("max-rounds", "7"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 7, cfg.MaxRounds)
}

func TestLoadConfig_InvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "unknown output format",
			content:   "output: xml\n",
			errSubstr: "invalid output format",
		},
		{
			name:      "zero max_iterations",
			content:   "max_iterations: 0\n",
			errSubstr: "max_iterations must be positive",
		},
		{
			name:      "negative max_rounds",
			content:   "max_rounds: -1\n",
			errSubstr: "max_rounds must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			tmpDir := t.TempDir()
			writeConfigFile(t, tmpDir, tt.content)
			t.Chdir(tmpDir)

			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	for _, format := range []string{"table", "json", "csv", "md", "markdown"} {
		cfg := &Config{OutputFormat: format, MaxIterations: 1, MaxRounds: 1}
		assert.NoError(t, cfg.Validate(), "format %q should be accepted", format)
	}
}

func TestGetCurrentConfig(t *testing.T) {
	ResetConfig()
	assert.Nil(t, GetCurrentConfig())

	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestGetLogger(t *testing.T) {
	// Without a logger in context, a discard logger is returned
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), loggerKey{}, logger)
	assert.Same(t, logger, GetLogger(ctx))
}

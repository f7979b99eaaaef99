package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := NewBuilder().Build()
	require.NoError(t, err)

	require.Equal(t, "parallel", cfg.Mode)
	require.Equal(t, "preferred", cfg.Strategy)
	require.True(t, cfg.Style.Enabled)
	require.Equal(t, "css", cfg.Style.InputDir)
	require.Equal(t, "dist/css", cfg.Style.OutputDir)
	require.True(t, cfg.Script.Minify)
	require.Equal(t, "es2015", cfg.Script.Target)
	require.False(t, cfg.Markup.Enabled)
	require.Equal(t, 300*time.Millisecond, cfg.Watch.DebounceDuration())
	require.Zero(t, cfg.Watch.FullRebuildDuration())
	require.False(t, cfg.Notify.Enabled())
}

func TestPresets(t *testing.T) {
	cfg, err := NewBuilder().WithPreset("production").Build()
	require.NoError(t, err)
	require.True(t, cfg.Clean)
	require.True(t, cfg.Production)
	require.True(t, cfg.Script.Bundle)
	require.False(t, cfg.Style.SourceMaps)
	require.True(t, cfg.Markup.Obfuscate)
	require.Equal(t, "es2015", cfg.Script.Target)

	cfg, err = NewBuilder().WithPreset("Modern").Build()
	require.NoError(t, err)
	require.Equal(t, "esm", cfg.Script.Format)
	require.Equal(t, "modern", cfg.Script.Target)

	cfg, err = NewBuilder().WithPreset("development").Build()
	require.NoError(t, err)
	require.False(t, cfg.Script.Minify)

	_, err = NewBuilder().WithPreset("turbo").Build()
	require.Error(t, err)
	require.Equal(t, foundationerrors.CategoryConfig, foundationerrors.GetCategory(err))
}

func TestLayering_FileOverridesPresetAndOverridesWin(t *testing.T) {
	path := writeConfig(t, "assetpipe.yaml", `
mode: sequential
js:
  target: es2015
  input_dir: src/js
html:
  enabled: true
  obfuscate: false
`)

	cfg, err := NewBuilder().
		WithPreset("production").
		WithFile(path).
		WithOverride(func(c *Config) { c.Script.SourceMaps = false }).
		Build()
	require.NoError(t, err)

	require.Equal(t, "sequential", cfg.Mode)
	require.Equal(t, "es2015", cfg.Script.Target)
	require.Equal(t, "src/js", cfg.Script.InputDir)
	require.Equal(t, "dist/js", cfg.Script.OutputDir, "unspecified fields keep lower layers")
	require.True(t, cfg.Script.Bundle, "preset value survives")
	require.False(t, cfg.Markup.Obfuscate, "file beats preset")
	require.False(t, cfg.Script.SourceMaps, "override beats file")
	require.Equal(t, path, cfg.Source)
}

func TestTOMLFile(t *testing.T) {
	path := writeConfig(t, "assetpipe.toml", `
mode = "sequential"
strategy = "fallback"

[css]
enabled = true
input_dir = "styles"

[watch]
debounce = "150ms"
full_rebuild_interval = "5m"
`)

	cfg, err := NewBuilder().WithFile(path).Build()
	require.NoError(t, err)
	require.Equal(t, "sequential", cfg.Mode)
	require.Equal(t, "fallback", cfg.StageStrategy(cfg.Style.StageConfig))
	require.Equal(t, "styles", cfg.Style.InputDir)
	require.Equal(t, 150*time.Millisecond, cfg.Watch.DebounceDuration())
	require.Equal(t, 5*time.Minute, cfg.Watch.FullRebuildDuration())
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("ASSETPIPE_TEST_OUT", "public/styles")
	path := writeConfig(t, "assetpipe.yml", "css:\n  output_dir: ${ASSETPIPE_TEST_OUT}\n")

	cfg, err := NewBuilder().WithFile(path).Build()
	require.NoError(t, err)
	require.Equal(t, "public/styles", cfg.Style.OutputDir)
}

func TestFileErrors(t *testing.T) {
	_, err := NewBuilder().WithFile(filepath.Join(t.TempDir(), "missing.yaml")).Build()
	require.Error(t, err)

	cfg, err := NewBuilder().WithOptionalFile(filepath.Join(t.TempDir(), "missing.yaml")).Build()
	require.NoError(t, err)
	require.Empty(t, cfg.Source)

	_, err = NewBuilder().WithFile(writeConfig(t, "bad.yaml", "unknown_key: 1\n")).Build()
	require.Error(t, err)

	_, err = NewBuilder().WithFile(writeConfig(t, "cfg.json", "{}")).Build()
	require.Error(t, err)

	cfg, err = NewBuilder().WithFile(writeConfig(t, "empty.yaml", "")).Build()
	require.NoError(t, err)
	require.Equal(t, "parallel", cfg.Mode)
}

func TestValidate(t *testing.T) {
	tests := map[string]Override{
		"mode":             func(c *Config) { c.Mode = "eventually" },
		"strategy":         func(c *Config) { c.Strategy = "fastest" },
		"no stages":        func(c *Config) { c.Style.Enabled, c.Script.Enabled = false, false },
		"target":           func(c *Config) { c.Script.Target = "es3" },
		"format":           func(c *Config) { c.Script.Format = "amd" },
		"pattern":          func(c *Config) { c.Markup.IdentifierPattern = "([" },
		"debounce":         func(c *Config) { c.Watch.Debounce = "-1s" },
		"rebuild interval": func(c *Config) { c.Watch.FullRebuildInterval = "10ms" },
		"metrics path":     func(c *Config) { c.Metrics.Enabled, c.Metrics.Path = true, "metrics" },
		"log level":        func(c *Config) { c.Logging.Level = "chatty" },
	}
	for name, o := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewBuilder().WithOverride(o).Build()
			require.Error(t, err)
			require.Equal(t, foundationerrors.SeverityFatal, foundationerrors.GetSeverity(err))
		})
	}
}

func TestNormalizeLegacyFormat(t *testing.T) {
	cfg, err := NewBuilder().WithOverride(func(c *Config) { c.Script.Format = "ES"; c.Mode = " Sequential " }).Build()
	require.NoError(t, err)
	require.Equal(t, "esm", cfg.Script.Format)
	require.Equal(t, "sequential", cfg.Mode)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetpipe.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := NewBuilder().WithFile(path).Build()
	require.NoError(t, err)
	require.True(t, cfg.Markup.Enabled)
	require.Equal(t, 10*time.Minute, cfg.Watch.FullRebuildDuration())
}

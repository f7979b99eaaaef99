package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/assetpipe/internal/config"
)

// DefaultConfigFile is read when present and no --config is given.
const DefaultConfigFile = "assetpipe.yaml"

// logLevel backs the default logger so the configured level can apply after loading.
var logLevel = new(slog.LevelVar)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (YAML or TOML)" env:"ASSETPIPE_CONFIG"`
	Preset  string           `short:"p" help:"Apply a preset: development, production or modern" env:"ASSETPIPE_PRESET"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Run every enabled stage once"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild changed inputs until interrupted"`
	Clean CleanCmd `cmd:"" help:"Remove generated files from the output directories"`
	Stats StatsCmd `cmd:"" help:"Show file counts and sizes of the output directories"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logLevel.Set(parseLogLevel(c.Verbose, ""))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel resolves the level: --verbose wins, then ASSETPIPE_LOG_LEVEL, then the
// configured level.
func parseLogLevel(verbose bool, configured string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	name := os.Getenv("ASSETPIPE_LOG_LEVEL")
	if name == "" {
		name = configured
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig layers the preset, config file and overrides into a validated Config.
func (c *CLI) loadConfig(overrides ...config.Override) (*config.Config, error) {
	b := config.NewBuilder().WithEnvFile().WithPreset(c.Preset)
	if c.Config != "" {
		b = b.WithFile(c.Config)
	} else {
		b = b.WithOptionalFile(DefaultConfigFile)
	}
	for _, o := range overrides {
		b = b.WithOverride(o)
	}
	cfg, err := b.Build()
	if err != nil {
		return nil, err
	}
	logLevel.Set(parseLogLevel(c.Verbose, cfg.Logging.Level))
	if cfg.Source != "" {
		slog.Debug("Loaded configuration", slog.String("path", cfg.Source))
	}
	return cfg, nil
}

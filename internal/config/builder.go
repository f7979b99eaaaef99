package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Override mutates the configuration after the file layer, typically from CLI flags.
type Override func(cfg *Config)

// Builder layers defaults, preset, file and overrides into a validated Config.
type Builder struct {
	preset    string
	path      string
	optional  bool
	overrides []Override
	loadEnv   bool
}

// NewBuilder returns a Builder producing the built-in defaults.
func NewBuilder() *Builder { return &Builder{} }

// WithPreset applies a named preset on top of the defaults.
func (b *Builder) WithPreset(name string) *Builder {
	b.preset = name
	return b
}

// WithFile reads a YAML (.yaml/.yml) or TOML (.toml) file. A missing file is an error.
func (b *Builder) WithFile(path string) *Builder {
	b.path = path
	b.optional = false
	return b
}

// WithOptionalFile reads the file when it exists.
func (b *Builder) WithOptionalFile(path string) *Builder {
	b.path = path
	b.optional = true
	return b
}

// WithOverride adds an override applied after the file layer, in call order.
func (b *Builder) WithOverride(o Override) *Builder {
	if o != nil {
		b.overrides = append(b.overrides, o)
	}
	return b
}

// WithEnvFile loads .env files before expanding ${VAR} references in the file.
func (b *Builder) WithEnvFile() *Builder {
	b.loadEnv = true
	return b
}

// Build produces the validated configuration.
func (b *Builder) Build() (*Config, error) {
	if b.loadEnv {
		_ = LoadEnvFile()
	}

	cfg := Defaults()
	if b.preset != "" {
		p, err := lookupPreset(b.preset)
		if err != nil {
			return nil, err
		}
		p(cfg)
	}

	if b.path != "" {
		data, err := os.ReadFile(b.path)
		switch {
		case err == nil:
			if err := decode(b.path, []byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, err
			}
			cfg.Source = b.path
		case errors.Is(err, os.ErrNotExist) && b.optional:
		case errors.Is(err, os.ErrNotExist):
			return nil, foundationerrors.ConfigError("configuration file not found").WithContext("path", b.path).Build()
		default:
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot read configuration file").Fatal().WithContext("path", b.path).Build()
		}
	}

	for _, o := range b.overrides {
		o(cfg)
	}
	normalize(cfg)
	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot apply defaults").Fatal().Build()
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unmarshals over the partially filled cfg so unspecified fields keep their values.
func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".yaml", ".yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return foundationerrors.ConfigError("unsupported configuration file type").WithContext("path", path).Build()
	}
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, fmt.Sprintf("cannot parse %s", filepath.Base(path))).Fatal().WithContext("path", path).Build()
	}
	return nil
}

func normalize(cfg *Config) {
	lower := func(s *string) { *s = strings.ToLower(strings.TrimSpace(*s)) }
	lower(&cfg.Mode)
	lower(&cfg.Strategy)
	lower(&cfg.Style.Strategy)
	lower(&cfg.Script.Strategy)
	lower(&cfg.Markup.Strategy)
	lower(&cfg.Script.Target)
	lower(&cfg.Script.Format)
	lower(&cfg.Logging.Level)
	if cfg.Script.Format == "es" {
		cfg.Script.Format = "esm"
	}
}

package config

import (
	"regexp"
	"slices"
	"time"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

var (
	validModes      = []string{"parallel", "sequential", "serial"}
	validStrategies = []string{"preferred", "fallback"}
	validTargets    = []string{"es5", "es2015", "es6", "modern", "esnext"}
	validFormats    = []string{"iife", "esm", "cjs"}
	validLevels     = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration. All failures are configuration errors.
func Validate(cfg *Config) error {
	v := &configurationValidator{cfg: cfg}
	for _, check := range []func() error{
		v.validateGlobal,
		v.validateStages,
		v.validateScript,
		v.validateMarkup,
		v.validateWatch,
		v.validateServices,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	cfg *Config
}

func invalid(field, value, msg string) error {
	return foundationerrors.ConfigError(msg).WithContext("field", field).WithContext("value", value).Build()
}

func oneOf(field, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return invalid(field, value, "unsupported value")
	}
	return nil
}

func (v *configurationValidator) validateGlobal() error {
	if err := oneOf("mode", v.cfg.Mode, validModes); err != nil {
		return err
	}
	if err := oneOf("strategy", v.cfg.Strategy, validStrategies); err != nil {
		return err
	}
	return oneOf("logging.level", v.cfg.Logging.Level, validLevels)
}

func (v *configurationValidator) validateStages() error {
	stages := map[string]StageConfig{
		"css":  v.cfg.Style.StageConfig,
		"js":   v.cfg.Script.StageConfig,
		"html": v.cfg.Markup.StageConfig,
	}
	enabled := 0
	for _, name := range []string{"css", "js", "html"} {
		s := stages[name]
		if !s.Enabled {
			continue
		}
		enabled++
		if s.InputDir == "" {
			return invalid(name+".input_dir", "", "input directory is required")
		}
		if s.OutputDir == "" {
			return invalid(name+".output_dir", "", "output directory is required")
		}
		if s.Strategy != "" {
			if err := oneOf(name+".strategy", s.Strategy, validStrategies); err != nil {
				return err
			}
		}
	}
	if enabled == 0 {
		return foundationerrors.ConfigError("no stages enabled").Build()
	}
	return nil
}

func (v *configurationValidator) validateScript() error {
	if !v.cfg.Script.Enabled {
		return nil
	}
	if err := oneOf("js.target", v.cfg.Script.Target, validTargets); err != nil {
		return err
	}
	return oneOf("js.format", v.cfg.Script.Format, validFormats)
}

func (v *configurationValidator) validateMarkup() error {
	if p := v.cfg.Markup.IdentifierPattern; p != "" {
		if _, err := regexp.Compile(p); err != nil {
			return invalid("html.identifier_pattern", p, "invalid regular expression")
		}
	}
	return nil
}

func (v *configurationValidator) validateWatch() error {
	d, err := time.ParseDuration(v.cfg.Watch.Debounce)
	if err != nil || d <= 0 {
		return invalid("watch.debounce", v.cfg.Watch.Debounce, "debounce must be a positive duration")
	}
	if iv := v.cfg.Watch.FullRebuildInterval; iv != "" {
		d, err := time.ParseDuration(iv)
		if err != nil || d < time.Second {
			return invalid("watch.full_rebuild_interval", iv, "interval must be a duration of at least 1s")
		}
	}
	return nil
}

func (v *configurationValidator) validateServices() error {
	if v.cfg.Metrics.Enabled {
		if v.cfg.Metrics.Listen == "" {
			return invalid("metrics.listen", "", "listen address is required")
		}
		if len(v.cfg.Metrics.Path) == 0 || v.cfg.Metrics.Path[0] != '/' {
			return invalid("metrics.path", v.cfg.Metrics.Path, "path must start with /")
		}
	}
	if v.cfg.Notify.Enabled() && v.cfg.Notify.Subject == "" {
		return invalid("notify.subject", "", "subject is required when nats_url is set")
	}
	return nil
}

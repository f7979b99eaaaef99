package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundationerrors.ConfigError("configuration file already exists (use --force to overwrite)").WithContext("path", path).Build()
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot stat configuration file").Build()
	}

	example := Defaults()
	example.Markup.Enabled = true
	example.Markup.Markdown = true
	example.Watch.FullRebuildInterval = "10m"
	example.Notify.NATSURL = "${ASSETPIPE_NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "cannot render example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot write configuration file").WithContext("path", path).Build()
	}
	return nil
}

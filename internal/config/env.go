package config

import (
	"errors"
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFile loads environment variables from .env or .env.local. Variables already
// present in the process environment are not overwritten.
func LoadEnvFile() error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			slog.Debug("Loaded environment variables", slog.String("file", f))
			return nil
		}
	}
	return errors.New("no .env file found")
}

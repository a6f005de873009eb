package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Environment variables that override configuration values.
const (
	EnvGitBranch = "GIT_BRANCH"
	EnvAutoPush  = "AUTO_PUSH"
)

// loadEnvFile loads environment variables from .env/.env.local files.
// Existing process environment variables are never overwritten.
func loadEnvFile() error {
	var found []string
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			found = append(found, envPath)
		}
	}
	if len(found) == 0 {
		return os.ErrNotExist
	}
	return godotenv.Load(found...)
}

// applyEnvOverrides applies GIT_BRANCH and AUTO_PUSH on top of the file values.
func applyEnvOverrides(cfg *Config) error {
	if branch := strings.TrimSpace(os.Getenv(EnvGitBranch)); branch != "" {
		cfg.Publish.Branch = branch
	}
	if raw := strings.TrimSpace(os.Getenv(EnvAutoPush)); raw != "" {
		auto, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return errors.ValidationError("invalid AUTO_PUSH value").
				WithContext("value", raw).
				Build()
		}
		cfg.Publish.Auto = auto
	}
	return nil
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from .env files so GANYMEDE_*
// overrides can be kept out of shell profiles during development.
//
// Search order (first found wins):
//  1. Explicit paths if provided
//  2. .env in the current directory
//  3. .env in the home directory (~/.env)
//
// This function is idempotent and safe to call multiple times.
// Existing environment variables are NOT overwritten.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if path != "" {
			if err := loadIfExists(path); err != nil {
				return err
			}
		}
	}

	if err := loadIfExists(".env"); err != nil {
		return err
	}

	if home, err := os.UserHomeDir(); err == nil {
		if err := loadIfExists(filepath.Join(home, ".env")); err != nil {
			return err
		}
	}

	return nil
}

// LoadDotEnvForConfig loads .env from the config file's directory in
// addition to the standard locations.
func LoadDotEnvForConfig(configPath string) error {
	if configPath == "" {
		return LoadDotEnv()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return LoadDotEnv()
	}

	return LoadDotEnv(filepath.Join(filepath.Dir(absPath), ".env"))
}

// loadIfExists loads a .env file if it exists.
// Does NOT overwrite existing environment variables.
func loadIfExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // optional file
	}

	if err := godotenv.Load(path); err != nil {
		// Log but don't fail - .env is optional
		slog.Debug("failed to load .env file", "path", path, "error", err)
		return nil
	}

	slog.Debug("loaded environment from .env", "path", path)
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GANYMEDE_SECTION_FIELD (e.g., GANYMEDE_QUOTA_REQUESTS_PER_MINUTE).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format GANYMEDE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Quota overrides
	if val := os.Getenv("GANYMEDE_QUOTA_REQUESTS_PER_MINUTE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.RequestsPerMinute = i
		}
	}
	if val := os.Getenv("GANYMEDE_QUOTA_REQUESTS_PER_HOUR"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.RequestsPerHour = i
		}
	}
	if val := os.Getenv("GANYMEDE_QUOTA_REQUESTS_PER_DAY"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.RequestsPerDay = i
		}
	}
	if val := os.Getenv("GANYMEDE_QUOTA_TOKENS_PER_MINUTE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.TokensPerMinute = i
		}
	}
	if val := os.Getenv("GANYMEDE_QUOTA_TOKENS_PER_HOUR"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.TokensPerHour = i
		}
	}
	if val := os.Getenv("GANYMEDE_QUOTA_TOKENS_PER_DAY"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.TokensPerDay = i
		}
	}
	if val := os.Getenv("GANYMEDE_QUOTA_BURST_LIMIT"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.BurstLimit = &i
		}
	}

	// Session overrides
	if val := os.Getenv("GANYMEDE_SESSIONS_MAX_IDLE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Sessions.MaxIdle = d
		}
	}
	if val := os.Getenv("GANYMEDE_SESSIONS_PRUNE_SCHEDULE"); val != "" {
		cfg.Sessions.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}

package config

import (
	"time"

	"mercator-hq/ganymede/pkg/quota"
)

// Config is the root configuration structure for Ganymede.
// It contains the quota ceilings, session registry settings, and
// telemetry configuration.
type Config struct {
	// Quota contains the default ceilings applied to every session.
	Quota QuotaConfig `yaml:"quota"`

	// Sessions contains session registry settings including per-session
	// overrides and idle pruning.
	Sessions SessionsConfig `yaml:"sessions"`

	// Telemetry contains observability configuration for logging and
	// metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// QuotaConfig contains the ceilings enforced per session.
type QuotaConfig struct {
	// RequestsPerMinute is the request-count ceiling for the minute window.
	// Default: 60
	RequestsPerMinute int64 `yaml:"requests_per_minute"`

	// RequestsPerHour is the request-count ceiling for the hour window.
	// Default: 1000
	RequestsPerHour int64 `yaml:"requests_per_hour"`

	// RequestsPerDay is the request-count ceiling for the day window.
	// Default: 10000
	RequestsPerDay int64 `yaml:"requests_per_day"`

	// TokensPerMinute is the token-sum ceiling for the minute window.
	// Zero means tokens are not limited in the minute window.
	// Default: 32000
	TokensPerMinute int64 `yaml:"tokens_per_minute"`

	// TokensPerHour is the token-sum ceiling for the hour window.
	// Zero means tokens are not limited in the hour window.
	// Default: 500000
	TokensPerHour int64 `yaml:"tokens_per_hour"`

	// TokensPerDay is the token-sum ceiling for the day window.
	// Zero means tokens are not limited in the day window.
	// Default: 2000000
	TokensPerDay int64 `yaml:"tokens_per_day"`

	// BurstLimit caps the burst credit pool for high-priority requests.
	// The stock configuration uses 10; when omitted from an otherwise
	// configured quota section, half the per-minute request ceiling is
	// used. An explicit zero disables burst capacity.
	BurstLimit *int64 `yaml:"burst_limit,omitempty"`
}

// ToLimiter converts the YAML quota section into a limiter configuration.
func (q QuotaConfig) ToLimiter() quota.Config {
	return quota.Config{
		RequestsPerMinute: q.RequestsPerMinute,
		RequestsPerHour:   q.RequestsPerHour,
		RequestsPerDay:    q.RequestsPerDay,
		TokensPerMinute:   q.TokensPerMinute,
		TokensPerHour:     q.TokensPerHour,
		TokensPerDay:      q.TokensPerDay,
		BurstLimit:        q.BurstLimit,
	}
}

// SessionsConfig contains session registry configuration.
type SessionsConfig struct {
	// MaxIdle is how long a session may go without activity before the
	// janitor prunes its limiter.
	// Default: 1h
	MaxIdle time.Duration `yaml:"max_idle"`

	// PruneSchedule is a cron expression controlling when idle sessions
	// are pruned. Empty disables scheduled pruning.
	// Default: "*/10 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// Overrides maps session IDs to session-specific quota ceilings.
	Overrides map[string]QuotaConfig `yaml:"overrides,omitempty"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether quota metrics are collected.
	// Metrics are opt-in; the zero value disables collection.
	Enabled bool `yaml:"enabled"`
}

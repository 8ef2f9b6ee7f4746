package config

import "time"

// Default values for configuration fields.
const (
	// Quota defaults
	DefaultRequestsPerMinute = int64(60)
	DefaultRequestsPerHour   = int64(1000)
	DefaultRequestsPerDay    = int64(10000)
	DefaultTokensPerMinute   = int64(32000)
	DefaultTokensPerHour     = int64(500000)
	DefaultTokensPerDay      = int64(2000000)
	DefaultBurstLimit        = int64(10)

	// Session defaults
	DefaultSessionMaxIdle       = time.Hour
	DefaultSessionPruneSchedule = "*/10 * * * *"

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Quota defaults
	applyQuotaDefaults(&cfg.Quota)

	// Override sections inherit nothing from the defaults; a partial
	// override gets the stock values for its unset fields.
	for session, override := range cfg.Sessions.Overrides {
		applyQuotaDefaults(&override)
		cfg.Sessions.Overrides[session] = override
	}

	// Session defaults
	if cfg.Sessions.MaxIdle == 0 {
		cfg.Sessions.MaxIdle = DefaultSessionMaxIdle
	}
	if cfg.Sessions.PruneSchedule == "" {
		cfg.Sessions.PruneSchedule = DefaultSessionPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
}

// applyQuotaDefaults fills zero-valued ceilings in one quota section.
// Token ceilings are left alone: zero is a meaningful value (unlimited)
// only when the whole section is explicitly configured, so tokens
// default only when the request ceilings were also unset.
func applyQuotaDefaults(q *QuotaConfig) {
	untouched := q.RequestsPerMinute == 0 && q.RequestsPerHour == 0 && q.RequestsPerDay == 0

	if q.RequestsPerMinute == 0 {
		q.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if q.RequestsPerHour == 0 {
		q.RequestsPerHour = DefaultRequestsPerHour
	}
	if q.RequestsPerDay == 0 {
		q.RequestsPerDay = DefaultRequestsPerDay
	}

	if untouched {
		if q.TokensPerMinute == 0 {
			q.TokensPerMinute = DefaultTokensPerMinute
		}
		if q.TokensPerHour == 0 {
			q.TokensPerHour = DefaultTokensPerHour
		}
		if q.TokensPerDay == 0 {
			q.TokensPerDay = DefaultTokensPerDay
		}
		if q.BurstLimit == nil {
			burst := DefaultBurstLimit
			q.BurstLimit = &burst
		}
	}
}

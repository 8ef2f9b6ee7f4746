package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "quota.requests_per_minute").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateQuota("quota", &cfg.Quota)...)

	for session, override := range cfg.Sessions.Overrides {
		prefix := fmt.Sprintf("sessions.overrides.%s", session)
		errs = append(errs, validateQuota(prefix, &override)...)
	}

	errs = append(errs, validateSessions(&cfg.Sessions)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateQuota validates one quota section.
func validateQuota(prefix string, q *QuotaConfig) []FieldError {
	var errs []FieldError

	if q.RequestsPerMinute <= 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".requests_per_minute",
			Message: fmt.Sprintf("must be positive, got %d", q.RequestsPerMinute),
		})
	}
	if q.RequestsPerHour <= 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".requests_per_hour",
			Message: fmt.Sprintf("must be positive, got %d", q.RequestsPerHour),
		})
	}
	if q.RequestsPerDay <= 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".requests_per_day",
			Message: fmt.Sprintf("must be positive, got %d", q.RequestsPerDay),
		})
	}
	if q.TokensPerMinute < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".tokens_per_minute",
			Message: fmt.Sprintf("must be non-negative, got %d", q.TokensPerMinute),
		})
	}
	if q.TokensPerHour < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".tokens_per_hour",
			Message: fmt.Sprintf("must be non-negative, got %d", q.TokensPerHour),
		})
	}
	if q.TokensPerDay < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".tokens_per_day",
			Message: fmt.Sprintf("must be non-negative, got %d", q.TokensPerDay),
		})
	}
	if q.BurstLimit != nil && *q.BurstLimit < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".burst_limit",
			Message: fmt.Sprintf("must be non-negative, got %d", *q.BurstLimit),
		})
	}

	return errs
}

// validateSessions validates the session registry section.
func validateSessions(s *SessionsConfig) []FieldError {
	var errs []FieldError

	if s.MaxIdle < 0 {
		errs = append(errs, FieldError{
			Field:   "sessions.max_idle",
			Message: fmt.Sprintf("must be non-negative, got %v", s.MaxIdle),
		})
	}
	if s.PruneSchedule != "" {
		if _, err := cron.ParseStandard(s.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "sessions.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", s.PruneSchedule, err),
			})
		}
	}

	return errs
}

// validateTelemetry validates the telemetry section.
func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", t.Logging.Level),
		})
	}

	switch t.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", t.Logging.Format),
		})
	}

	return errs
}

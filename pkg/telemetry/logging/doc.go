// Package logging builds structured slog loggers from Ganymede's
// telemetry configuration.
//
// Loggers emit JSON by default for machine ingestion; the text format
// is available for local development. Setup installs the configured
// logger as the process-wide slog default so library packages that log
// through slog.Default pick it up.
package logging

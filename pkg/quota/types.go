package quota

import (
	"errors"
	"fmt"
	"time"
)

// Priority classifies a prospective request for burst handling.
// High-priority requests may be served from the burst credit pool even
// when ordinary window ceilings are exhausted.
type Priority string

const (
	// PriorityLow marks background or prefetch traffic.
	PriorityLow Priority = "low"

	// PriorityNormal marks ordinary interactive traffic.
	PriorityNormal Priority = "normal"

	// PriorityHigh marks traffic eligible for burst credits.
	PriorityHigh Priority = "high"
)

// Window identifies one of the three accounting windows.
type Window string

const (
	// WindowMinute is the 60-second accounting window.
	WindowMinute Window = "minute"

	// WindowHour is the 3600-second accounting window.
	WindowHour Window = "hour"

	// WindowDay is the 86400-second accounting window.
	WindowDay Window = "day"
)

// Duration returns the time span covered by the window.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// LimitType identifies which ceiling a denial was attributed to.
type LimitType string

const (
	// LimitRequests indicates a request-count ceiling was hit.
	LimitRequests LimitType = "requests"

	// LimitTokens indicates a token-sum ceiling was hit.
	LimitTokens LimitType = "tokens"
)

// Config contains the ceilings enforced by a Limiter.
//
// The three request ceilings are required and must be positive. Token
// ceilings are optional; a zero value means tokens are not limited in
// that window. BurstLimit is optional; nil means half the per-minute
// request ceiling (rounded down), and an explicit zero disables burst
// capacity entirely.
type Config struct {
	// RequestsPerMinute is the request-count ceiling for the minute window.
	RequestsPerMinute int64

	// RequestsPerHour is the request-count ceiling for the hour window.
	RequestsPerHour int64

	// RequestsPerDay is the request-count ceiling for the day window.
	RequestsPerDay int64

	// TokensPerMinute is the token-sum ceiling for the minute window (0 = unlimited).
	TokensPerMinute int64

	// TokensPerHour is the token-sum ceiling for the hour window (0 = unlimited).
	TokensPerHour int64

	// TokensPerDay is the token-sum ceiling for the day window (0 = unlimited).
	TokensPerDay int64

	// BurstLimit caps the burst credit pool (nil = RequestsPerMinute/2).
	BurstLimit *int64

	// Clock supplies the current time (nil = system clock).
	// Injectable so tests can simulate window rollovers without sleeping.
	Clock Clock
}

// Validate checks the configuration for constructor-time contract violations.
func (c Config) Validate() error {
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("%w: requests per minute must be positive, got %d", ErrConfigInvalid, c.RequestsPerMinute)
	}
	if c.RequestsPerHour <= 0 {
		return fmt.Errorf("%w: requests per hour must be positive, got %d", ErrConfigInvalid, c.RequestsPerHour)
	}
	if c.RequestsPerDay <= 0 {
		return fmt.Errorf("%w: requests per day must be positive, got %d", ErrConfigInvalid, c.RequestsPerDay)
	}
	if c.TokensPerMinute < 0 || c.TokensPerHour < 0 || c.TokensPerDay < 0 {
		return fmt.Errorf("%w: token ceilings must be non-negative", ErrConfigInvalid)
	}
	if c.BurstLimit != nil && *c.BurstLimit < 0 {
		return fmt.Errorf("%w: burst limit must be non-negative, got %d", ErrConfigInvalid, *c.BurstLimit)
	}
	return nil
}

// effectiveBurstLimit resolves the configured or defaulted burst ceiling.
func (c Config) effectiveBurstLimit() int64 {
	if c.BurstLimit != nil {
		return *c.BurstLimit
	}
	return c.RequestsPerMinute / 2
}

// ConfigUpdate is a partial configuration merge for Limiter.UpdateConfig.
// Nil fields leave the current value unchanged.
type ConfigUpdate struct {
	RequestsPerMinute *int64
	RequestsPerHour   *int64
	RequestsPerDay    *int64
	TokensPerMinute   *int64
	TokensPerHour     *int64
	TokensPerDay      *int64
	BurstLimit        *int64
}

// Request describes a prospective generation request to be checked
// against the configured ceilings.
type Request struct {
	// TokenEstimate is the approximate token cost of the request.
	// Zero is valid for a request being probed but not yet costed.
	TokenEstimate int64

	// Priority determines burst eligibility.
	Priority Priority

	// BypassBurst forces ordinary window evaluation even for
	// high-priority requests.
	BypassBurst bool
}

// Decision is the outcome of a quota check.
//
// A denial is an expected, structured return value rather than an error;
// callers handle it as a normal control-flow branch and back off for
// RetryAfter before retrying.
type Decision struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// ServedByBurst is true when the request was admitted by consuming
	// a burst credit rather than passing ordinary window checks.
	ServedByBurst bool

	// LimitType identifies the violated ceiling (denials only).
	LimitType LimitType

	// Window identifies the violated window (denials only).
	Window Window

	// RetryAfter is the time remaining until the violated window resets
	// (denials only; zero when allowed).
	RetryAfter time.Duration

	// Message is a human-readable description of the denial.
	Message string

	// Usage is a snapshot of the counters at decision time. It is
	// populated on every branch so callers can render usage without a
	// second call.
	Usage Usage
}

// RetryAfterMillis returns RetryAfter in whole milliseconds, floored at 0.
func (d *Decision) RetryAfterMillis() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	return d.RetryAfter.Milliseconds()
}

// WindowUsage holds the consumption recorded in a single window since
// its last reset.
type WindowUsage struct {
	// Requests is the request count since LastReset.
	Requests int64

	// Tokens is the token sum since LastReset.
	Tokens int64

	// LastReset marks the start of the current window.
	LastReset time.Time
}

// Usage is a point-in-time snapshot of all three windows.
type Usage struct {
	Minute WindowUsage
	Hour   WindowUsage
	Day    WindowUsage
}

// Status aggregates the read-only probes into one consistent view,
// computed against a single clock reading.
type Status struct {
	// Limited is true when any request-count ceiling is met or exceeded.
	Limited bool

	// NextAvailable is the time remaining until the first saturated
	// window resets (zero when not limited).
	NextAvailable time.Duration

	// Usage is the current counter snapshot.
	Usage Usage

	// BurstTokens is the number of burst credits currently available.
	BurstTokens int64
}

// Error values for construction and lookup failures.
var (
	// ErrConfigInvalid is returned when a limiter configuration is rejected.
	ErrConfigInvalid = errors.New("invalid quota configuration")

	// ErrSessionUnknown is returned when a manager operation references a
	// session that has no limiter and no configuration.
	ErrSessionUnknown = errors.New("unknown session")
)

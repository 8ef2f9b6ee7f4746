// Package quota provides client-side request and token quota enforcement
// for AI chat sessions.
//
// # Overview
//
// The quota package implements fixed-reset window accounting with a
// replenishing burst credit pool. It supports:
//
//   - Request-count ceilings over minute, hour, and day windows
//   - Token-sum ceilings over the same windows (optional per window)
//   - Burst credits for high-priority traffic (1 credit per 10 seconds)
//   - Structured denials carrying retry timing
//   - Per-session limiter management with idle pruning
//
// # Architecture
//
// The package is organized around a few types:
//
//   - Limiter: single-session enforcement over three windows plus burst
//   - Manager: per-session limiter registry with lazy creation
//   - Janitor: cron-scheduled pruning of idle session limiters
//   - Metrics: Prometheus collectors for check outcomes
//
// # Usage
//
//	limiter, err := quota.NewLimiter(quota.Config{
//	    RequestsPerMinute: 60,
//	    RequestsPerHour:   1000,
//	    RequestsPerDay:    10000,
//	    TokensPerMinute:   32000,
//	})
//	if err != nil {
//	    return err
//	}
//
//	decision := limiter.Check(quota.Request{
//	    TokenEstimate: 1200,
//	    Priority:      quota.PriorityHigh,
//	})
//	if !decision.Allowed {
//	    time.Sleep(decision.RetryAfter)
//	}
//
// # Design
//
// Windows are fixed-reset counters, not true sliding windows: a window's
// counts zero out once its span has fully elapsed, which permits up to
// twice the nominal rate across a boundary. This is the intended
// trade-off for an advisory client-side guard.
//
// Denials are ordinary return values, not errors. The only errors in
// this package are construction-time misconfiguration and unknown
// session lookups.
//
// # Thread Safety
//
// All operations are thread-safe. The Limiter evaluates each check in a
// single critical section so concurrent callers can never both pass a
// check that should have denied the second one. No operation blocks;
// waiting is represented as a returned duration.
package quota

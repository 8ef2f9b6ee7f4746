package quota

import (
	"fmt"
	"sync"
	"time"
)

// Limiter enforces request-count and token-sum ceilings over minute,
// hour, and day windows, with a replenishing burst credit pool for
// high-priority traffic.
//
// All limits are evaluated in a single critical section - the stale
// window reset, ceiling checks, counter increments, and burst
// replenishment are atomic with respect to concurrent callers, so two
// goroutines can never both pass a check that should have denied the
// second one.
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
//	    Priority:      quota.PriorityNormal,
//	})
//	if !decision.Allowed {
//	    // Back off for decision.RetryAfter, surface decision.Message.
//	}
//
// # Thread Safety
//
// Limiter is safe for concurrent use. No operation blocks; waiting is
// represented purely as a returned duration for the caller to act on.
type Limiter struct {
	cfg   Config
	clock Clock

	minute window
	hour   window
	day    window
	burst  burstPool

	mu sync.Mutex
}

// NewLimiter creates a limiter with the given configuration.
//
// Misconfiguration (missing or non-positive request ceilings, negative
// token ceilings or burst limit) is rejected here rather than deferred
// to first use.
func NewLimiter(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	now := clock.Now()
	return &Limiter{
		cfg:    cfg,
		clock:  clock,
		minute: newWindow(time.Minute, now),
		hour:   newWindow(time.Hour, now),
		day:    newWindow(24*time.Hour, now),
		burst:  newBurstPool(cfg.effectiveBurstLimit(), now),
	}, nil
}

// Check evaluates a prospective request against the configured ceilings
// and, when allowed, records its usage.
//
// Evaluation order:
//
//  1. Expired windows are reset so stale counts never cause a false denial.
//  2. High-priority requests (unless BypassBurst) consume a burst credit
//     if one is available; burst traffic may exceed the nominal
//     per-minute ceiling.
//  3. Ordinary ceilings are checked minute -> hour -> day, request count
//     before token sum in each window; the first violation short-circuits
//     into a denial carrying retry timing.
//  4. On allow, usage is recorded in all three windows and the burst
//     pool replenishes.
//
// Negative token estimates are treated as zero.
func (l *Limiter) Check(req Request) *Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.rolloverLocked(now)

	estimate := req.TokenEstimate
	if estimate < 0 {
		estimate = 0
	}

	// Burst path for high-priority traffic.
	if req.Priority == PriorityHigh && !req.BypassBurst && l.burst.consume() {
		l.recordLocked(estimate)
		l.burst.replenish(now)
		return &Decision{
			Allowed:       true,
			ServedByBurst: true,
			Usage:         l.usageLocked(),
		}
	}

	// Ordinary evaluation, minute -> hour -> day.
	checks := []struct {
		win      *window
		name     Window
		requests int64
		tokens   int64
	}{
		{&l.minute, WindowMinute, l.cfg.RequestsPerMinute, l.cfg.TokensPerMinute},
		{&l.hour, WindowHour, l.cfg.RequestsPerHour, l.cfg.TokensPerHour},
		{&l.day, WindowDay, l.cfg.RequestsPerDay, l.cfg.TokensPerDay},
	}

	for _, c := range checks {
		if c.win.requests >= c.requests {
			return l.denyLocked(LimitRequests, c.name, c.win, now)
		}
		if c.tokens > 0 && c.win.tokens+estimate > c.tokens {
			return l.denyLocked(LimitTokens, c.name, c.win, now)
		}
	}

	l.recordLocked(estimate)
	if !req.BypassBurst {
		l.burst.replenish(now)
	}

	return &Decision{
		Allowed: true,
		Usage:   l.usageLocked(),
	}
}

// Usage resets any expired windows and returns a copy of the current
// counters. It never records a request and never denies.
func (l *Limiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked(l.clock.Now())
	return l.usageLocked()
}

// TimeUntilNextRequest returns the time remaining in the first window
// whose request-count ceiling is met or exceeded, or zero if none are
// at capacity.
//
// This read-only probe agrees with what Check would report for a
// zero-token, non-burst request made at the same instant, except that
// it never records a request.
func (l *Limiter) TimeUntilNextRequest() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.rolloverLocked(now)
	return l.timeUntilNextLocked(now)
}

// IsRateLimited reports whether any request-count ceiling is currently
// met or exceeded. Token ceilings are deliberately excluded: the probe
// answers "am I blocked regardless of request size", which only
// request-count limits can guarantee.
func (l *Limiter) IsRateLimited() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked(l.clock.Now())
	return l.isLimitedLocked()
}

// Status returns the limited flag, next availability, usage snapshot,
// and burst credit count, all computed against a single clock reading.
func (l *Limiter) Status() *Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.rolloverLocked(now)

	return &Status{
		Limited:       l.isLimitedLocked(),
		NextAvailable: l.timeUntilNextLocked(now),
		Usage:         l.usageLocked(),
		BurstTokens:   l.burst.credits,
	}
}

// Reset zeroes all counters, restarts every window at now, and refills
// the burst pool to its effective limit.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.minute.reset(now)
	l.hour.reset(now)
	l.day.reset(now)
	l.burst.refill(now)
}

// UpdateConfig merges the provided fields into the configuration.
//
// The merged result is validated before being applied; on error the
// current configuration is unchanged. If the effective burst limit
// shrinks, the credit pool is clamped down immediately - it is never
// raised directly, growth only happens through replenishment.
func (l *Limiter) UpdateConfig(update ConfigUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := l.cfg
	if update.RequestsPerMinute != nil {
		merged.RequestsPerMinute = *update.RequestsPerMinute
	}
	if update.RequestsPerHour != nil {
		merged.RequestsPerHour = *update.RequestsPerHour
	}
	if update.RequestsPerDay != nil {
		merged.RequestsPerDay = *update.RequestsPerDay
	}
	if update.TokensPerMinute != nil {
		merged.TokensPerMinute = *update.TokensPerMinute
	}
	if update.TokensPerHour != nil {
		merged.TokensPerHour = *update.TokensPerHour
	}
	if update.TokensPerDay != nil {
		merged.TokensPerDay = *update.TokensPerDay
	}
	if update.BurstLimit != nil {
		limit := *update.BurstLimit
		merged.BurstLimit = &limit
	}

	if err := merged.Validate(); err != nil {
		return err
	}

	l.cfg = merged
	l.burst.clamp(merged.effectiveBurstLimit())
	return nil
}

// Config returns a copy of the current configuration.
func (l *Limiter) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// BurstTokens returns the number of burst credits currently available.
func (l *Limiter) BurstTokens() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst.credits
}

// rolloverLocked resets any window whose span has fully elapsed.
// Caller must hold the mutex.
func (l *Limiter) rolloverLocked(now time.Time) {
	l.minute.rollover(now)
	l.hour.rollover(now)
	l.day.rollover(now)
}

// recordLocked charges one request and its token estimate to all three
// windows. Caller must hold the mutex.
func (l *Limiter) recordLocked(tokens int64) {
	l.minute.record(tokens)
	l.hour.record(tokens)
	l.day.record(tokens)
}

// usageLocked copies the current counters. Caller must hold the mutex.
func (l *Limiter) usageLocked() Usage {
	return Usage{
		Minute: l.minute.usage(),
		Hour:   l.hour.usage(),
		Day:    l.day.usage(),
	}
}

// isLimitedLocked reports whether any request-count ceiling is met.
// Caller must hold the mutex.
func (l *Limiter) isLimitedLocked() bool {
	return l.minute.requests >= l.cfg.RequestsPerMinute ||
		l.hour.requests >= l.cfg.RequestsPerHour ||
		l.day.requests >= l.cfg.RequestsPerDay
}

// timeUntilNextLocked returns the remaining time in the first saturated
// window, minute -> hour -> day. Caller must hold the mutex.
func (l *Limiter) timeUntilNextLocked(now time.Time) time.Duration {
	if l.minute.requests >= l.cfg.RequestsPerMinute {
		return l.minute.timeToReset(now)
	}
	if l.hour.requests >= l.cfg.RequestsPerHour {
		return l.hour.timeToReset(now)
	}
	if l.day.requests >= l.cfg.RequestsPerDay {
		return l.day.timeToReset(now)
	}
	return 0
}

// denyLocked builds the structured denial for a violated ceiling.
// Caller must hold the mutex.
func (l *Limiter) denyLocked(limitType LimitType, window Window, win *window, now time.Time) *Decision {
	return &Decision{
		Allowed:    false,
		LimitType:  limitType,
		Window:     window,
		RetryAfter: win.timeToReset(now),
		Message:    fmt.Sprintf("%s per %s limit exceeded", limitType, window),
		Usage:      l.usageLocked(),
	}
}

package quota

import "time"

// window tracks request and token consumption over a fixed-reset span.
//
// This is deliberately a fixed-boundary counter, not a true sliding
// window: the whole counter resets once the span has fully elapsed,
// which permits up to twice the nominal rate across a boundary
// crossing. That approximation is acceptable for an advisory
// client-side guard and keeps the bookkeeping O(1).
type window struct {
	span      time.Duration
	requests  int64
	tokens    int64
	lastReset time.Time
}

func newWindow(span time.Duration, now time.Time) window {
	return window{span: span, lastReset: now}
}

// rollover zeroes the counters once the span has fully elapsed.
// Must run before any ceiling check so stale counts never cause a
// false denial.
func (w *window) rollover(now time.Time) {
	if now.Sub(w.lastReset) >= w.span {
		w.requests = 0
		w.tokens = 0
		w.lastReset = now
	}
}

// record charges one request and its token estimate to the window.
func (w *window) record(tokens int64) {
	w.requests++
	w.tokens += tokens
}

// timeToReset returns the time remaining until the window resets,
// floored at zero.
func (w *window) timeToReset(now time.Time) time.Duration {
	remaining := w.span - now.Sub(w.lastReset)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// reset zeroes the window and restarts its span at now.
func (w *window) reset(now time.Time) {
	w.requests = 0
	w.tokens = 0
	w.lastReset = now
}

// usage returns a copy of the window's counters.
func (w *window) usage() WindowUsage {
	return WindowUsage{
		Requests:  w.requests,
		Tokens:    w.tokens,
		LastReset: w.lastReset,
	}
}

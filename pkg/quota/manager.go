package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns one Limiter per session and is the composition-root
// replacement for a hidden process-wide singleton: whoever wires up the
// application constructs a Manager explicitly and passes it down.
//
// # Example
//
//	manager, err := quota.NewManager(quota.ManagerConfig{
//	    Defaults: quota.Config{
//	        RequestsPerMinute: 60,
//	        RequestsPerHour:   1000,
//	        RequestsPerDay:    10000,
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	session := manager.NewSession()
//	decision, _ := manager.Check(ctx, session, quota.Request{TokenEstimate: 800})
type Manager struct {
	defaults  Config
	overrides map[string]Config
	metrics   *Metrics
	clock     Clock

	sessions map[string]*sessionEntry
	mu       sync.RWMutex
}

// sessionEntry pairs a limiter with its last activity time for idle pruning.
type sessionEntry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// ManagerConfig contains configuration for the session manager.
type ManagerConfig struct {
	// Defaults is the limiter configuration applied to sessions without
	// an override.
	Defaults Config

	// Overrides maps session IDs to session-specific configurations.
	Overrides map[string]Config

	// Metrics receives check outcomes when non-nil.
	Metrics *Metrics
}

// NewManager creates a session manager. The default configuration and
// every override are validated eagerly so misconfiguration surfaces at
// startup rather than on first use.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	for session, override := range cfg.Overrides {
		if err := override.Validate(); err != nil {
			return nil, fmt.Errorf("override for session %q: %w", session, err)
		}
	}

	clock := cfg.Defaults.Clock
	if clock == nil {
		clock = SystemClock()
	}

	return &Manager{
		defaults:  cfg.Defaults,
		overrides: cfg.Overrides,
		metrics:   cfg.Metrics,
		clock:     clock,
		sessions:  make(map[string]*sessionEntry),
	}, nil
}

// Check evaluates a request against the session's limiter, creating the
// limiter on first use. The context is accepted for interface symmetry
// with storage-backed checkers; no operation blocks.
func (m *Manager) Check(ctx context.Context, session string, req Request) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := m.getOrCreate(session)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	decision := entry.limiter.Check(req)

	m.mu.Lock()
	entry.lastSeen = m.clock.Now()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordCheck(session, decision)
		m.metrics.UpdateBurstCredits(session, entry.limiter.BurstTokens())
		m.metrics.RecordCheckDuration(time.Since(start).Seconds())
	}

	return decision, nil
}

// NewSession registers a fresh limiter under a generated session ID and
// returns the ID.
func (m *Manager) NewSession() string {
	session := uuid.New().String()

	limiter, _ := NewLimiter(m.defaults) // defaults validated in NewManager

	m.mu.Lock()
	m.sessions[session] = &sessionEntry{limiter: limiter, lastSeen: m.clock.Now()}
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.UpdateActiveSessions(count)
	}
	return session
}

// Usage returns the current counter snapshot for a session.
func (m *Manager) Usage(session string) (Usage, error) {
	m.mu.RLock()
	entry, ok := m.sessions[session]
	m.mu.RUnlock()

	if !ok {
		return Usage{}, fmt.Errorf("%w: %s", ErrSessionUnknown, session)
	}
	return entry.limiter.Usage(), nil
}

// Status returns the aggregated status for a session.
func (m *Manager) Status(session string) (*Status, error) {
	m.mu.RLock()
	entry, ok := m.sessions[session]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionUnknown, session)
	}
	return entry.limiter.Status(), nil
}

// Reset reinitializes a session's counters and burst pool.
func (m *Manager) Reset(session string) error {
	m.mu.RLock()
	entry, ok := m.sessions[session]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionUnknown, session)
	}
	entry.limiter.Reset()
	return nil
}

// ResetAll reinitializes every tracked session.
func (m *Manager) ResetAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.sessions {
		entry.limiter.Reset()
	}
}

// UpdateDefaults merges a partial configuration into the default
// limiter configuration and into every tracked session limiter.
// Session-specific overrides are left untouched.
func (m *Manager) UpdateDefaults(update ConfigUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for session, entry := range m.sessions {
		if _, overridden := m.overrides[session]; overridden {
			continue
		}
		if err := entry.limiter.UpdateConfig(update); err != nil {
			return err
		}
	}

	// Mirror the merge into the defaults used for future sessions.
	probe, err := NewLimiter(m.defaults)
	if err != nil {
		return err
	}
	if err := probe.UpdateConfig(update); err != nil {
		return err
	}
	m.defaults = probe.Config()
	return nil
}

// Remove discards a session's limiter.
func (m *Manager) Remove(session string) {
	m.mu.Lock()
	delete(m.sessions, session)
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.UpdateActiveSessions(count)
	}
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PruneIdle discards sessions that have not checked a request for
// longer than maxIdle. It returns the number of sessions removed.
func (m *Manager) PruneIdle(maxIdle time.Duration) int {
	now := m.clock.Now()

	m.mu.Lock()
	removed := 0
	for session, entry := range m.sessions {
		if now.Sub(entry.lastSeen) > maxIdle {
			delete(m.sessions, session)
			removed++
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil && removed > 0 {
		m.metrics.UpdateActiveSessions(count)
	}
	return removed
}

// getOrCreate returns the session's entry, creating its limiter from
// the override or default configuration on first use.
func (m *Manager) getOrCreate(session string) (*sessionEntry, error) {
	m.mu.RLock()
	entry, ok := m.sessions[session]
	m.mu.RUnlock()
	if ok {
		return entry, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the write lock.
	if entry, ok := m.sessions[session]; ok {
		return entry, nil
	}

	cfg := m.defaults
	if override, ok := m.overrides[session]; ok {
		cfg = override
	}

	limiter, err := NewLimiter(cfg)
	if err != nil {
		return nil, err
	}

	entry = &sessionEntry{limiter: limiter, lastSeen: m.clock.Now()}
	m.sessions[session] = entry

	if m.metrics != nil {
		m.metrics.UpdateActiveSessions(len(m.sessions))
	}
	return entry, nil
}

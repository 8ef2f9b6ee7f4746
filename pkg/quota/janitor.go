package quota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JanitorConfig configures scheduled pruning of idle session limiters.
type JanitorConfig struct {
	// Schedule is a standard cron expression (e.g. "*/10 * * * *" for
	// every 10 minutes). Empty disables the janitor.
	Schedule string

	// MaxIdle is how long a session may go without a check before it is
	// eligible for pruning.
	MaxIdle time.Duration
}

// Janitor prunes idle session limiters on a cron schedule so a
// long-running process does not accumulate limiters for sessions that
// have ended.
type Janitor struct {
	manager *Manager
	config  JanitorConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewJanitor creates a janitor for the given manager.
func NewJanitor(manager *Manager, config JanitorConfig) *Janitor {
	return &Janitor{
		manager: manager,
		config:  config,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "quota.janitor"),
	}
}

// Start begins scheduled pruning based on the cron expression.
//
// If Schedule is empty, the janitor does nothing. The janitor stops
// itself when the context is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil
	}

	if j.config.Schedule == "" {
		j.logger.Info("prune schedule not configured, skipping janitor")
		return nil
	}

	// Validate cron expression
	if _, err := cron.ParseStandard(j.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", j.config.Schedule, err)
	}

	if _, err := j.cron.AddFunc(j.config.Schedule, j.runPruning); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	j.cron.Start()
	j.running = true

	j.logger.Info("quota janitor started",
		"schedule", j.config.Schedule,
		"max_idle", j.config.MaxIdle,
	)

	// Wait for context cancellation in background
	go func() {
		<-ctx.Done()
		j.Stop()
	}()

	return nil
}

// runPruning executes one pruning cycle.
func (j *Janitor) runPruning() {
	removed := j.manager.PruneIdle(j.config.MaxIdle)

	if removed > 0 {
		j.logger.Info("pruned idle sessions",
			"removed", removed,
			"remaining", j.manager.Len(),
		)
	} else {
		j.logger.Debug("pruning cycle completed, no idle sessions")
	}
}

// Stop stops the janitor and waits for any running jobs to complete.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil && j.running {
		ctx := j.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		j.running = false
		j.logger.Info("quota janitor stopped")
	}
}

// IsRunning returns true if the janitor is running.
func (j *Janitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.running
}

// NextRun returns the next scheduled pruning time.
func (j *Janitor) NextRun() *time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron == nil {
		return nil
	}

	entries := j.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

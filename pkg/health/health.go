// Package health monitors the session's persistence channels in the
// background so the UI can show a sync-status indicator.
//
// Each registered check runs in its own goroutine at a configurable interval.
// Checks use failure/success thresholds to avoid flapping: a check must fail
// consecutively failureThreshold times before being marked unhealthy, and
// succeed successThreshold times before being marked healthy again. A flaky
// network therefore does not flicker the indicator on every blip.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Status is the reported state of a single check.
type Status struct {
	Healthy bool
	// Err is the most recent probe error, kept even while the check is
	// still above its failure threshold.
	Err error
}

// checkState holds the configuration and runtime state for a single check.
//
// Concurrency model: run() is called from exactly one goroutine (the ticker).
// The counters are only accessed by run(), so they need no synchronization.
// The healthy flag and lastErr are read by Report from arbitrary goroutines,
// so they use atomic operations.
type checkState struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (c *checkState) status() Status {
	s := Status{Healthy: c.healthy.Load()}
	if p := c.lastErr.Load(); p != nil {
		s.Err = *p
	}
	return s
}

// run executes the check once and updates thresholds accordingly.
// Must be called from a single goroutine.
func (c *checkState) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}
}

// Monitor runs a set of named checks in the background and answers status
// queries from the UI thread.
type Monitor struct {
	// mu protects the check slice and cancel. Only held during registration
	// (before Start) and in Start/Stop. Report snapshots the slice under
	// RLock then releases immediately.
	mu     sync.RWMutex
	checks []*checkState
	cancel context.CancelFunc
}

// NewMonitor creates an empty Monitor. Register checks with AddCheck, then
// call Start.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// AddCheck registers a named check. Checks start healthy until proven
// otherwise, so a fresh session does not flash a failure indicator while the
// first probes are still in flight.
func (m *Monitor) AddCheck(name string, timeout time.Duration, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &checkState{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: 3,
		successThreshold: 1,
	}
	c.healthy.Store(true)
	m.checks = append(m.checks, c)
}

// Start begins running all registered checks at the given interval, each in
// its own goroutine. Each check also runs once immediately.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	checks := make([]*checkState, len(m.checks))
	copy(checks, m.checks)
	m.mu.Unlock()

	for _, c := range checks {
		go runCheck(ctx, c, interval)
	}
}

func runCheck(ctx context.Context, c *checkState, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Healthy reports whether every registered check is currently passing.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	checks := m.checks
	m.mu.RUnlock()

	for _, c := range checks {
		if !c.healthy.Load() {
			return false
		}
	}
	return true
}

// Report returns the current status of every check, keyed by name.
func (m *Monitor) Report() map[string]Status {
	m.mu.RLock()
	checks := make([]*checkState, len(m.checks))
	copy(checks, m.checks)
	m.mu.RUnlock()

	out := make(map[string]Status, len(checks))
	for _, c := range checks {
		out[c.name] = c.status()
	}
	return out
}

// Stop cancels all background check goroutines. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

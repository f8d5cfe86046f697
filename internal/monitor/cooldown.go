package monitor

import (
	"sync"
	"time"
)

// Cooldown tracks the last successful alert per check name and suppresses
// repeats inside the window. Entries are created on the first successful send
// and never pruned; the map is bounded by the number of distinct check names.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// ShouldAlert reports whether an alert for name may be sent: true when no
// success is recorded yet, or when strictly more than the window has elapsed
// since the last one. Exactly-at-window does not yet permit.
func (c *Cooldown) ShouldAlert(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[name]
	if !ok {
		return true
	}
	return c.now().Sub(last) > c.window
}

// RecordSuccess overwrites the stored timestamp unconditionally. Callers must
// only record after the notifier confirmed delivery.
func (c *Cooldown) RecordSuccess(name string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[name] = at
}

// Snapshot returns a copy of the tracked timestamps for status reporting.
func (c *Cooldown) Snapshot() map[string]time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]time.Time, len(c.last))
	for k, v := range c.last {
		out[k] = v
	}
	return out
}

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/tablewatch/internal/check"
	"github.com/hamed0406/tablewatch/internal/notify"
)

type Config struct {
	Interval       time.Duration // time between full passes
	CooldownWindow time.Duration // minimum gap between alerts per check name
	RecoveryDelay  time.Duration // pause after a tick-level failure
	StopTimeout    time.Duration // how long Stop waits for loop exit
}

// Monitor runs every configured check on an interval and alerts on missing
// tables. Exactly one background goroutine runs the loop; Start, Stop, RunOnce
// and Status may be called from other goroutines.
type Monitor struct {
	log      *zap.Logger
	checks   []check.Descriptor
	registry *check.Registry
	notifier notify.Notifier
	cooldown *Cooldown
	interval time.Duration
	recovery time.Duration
	stopWait time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(log *zap.Logger, checks []check.Descriptor, reg *check.Registry, n notify.Notifier, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 300 * time.Second
	}
	if cfg.CooldownWindow <= 0 {
		cfg.CooldownWindow = 3600 * time.Second
	}
	if cfg.RecoveryDelay <= 0 {
		cfg.RecoveryDelay = 10 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	return &Monitor{
		log:      log,
		checks:   checks,
		registry: reg,
		notifier: n,
		cooldown: NewCooldown(cfg.CooldownWindow),
		interval: cfg.Interval,
		recovery: cfg.RecoveryDelay,
		stopWait: cfg.StopTimeout,
		now:      time.Now,
	}
}

// Start launches the background loop. Starting while already running is a
// logged no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.log.Warn("monitor_already_running")
		return
	}
	if len(m.checks) == 0 {
		m.mu.Unlock()
		m.log.Error("monitor_no_checks_configured")
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stop, done := m.stopCh, m.doneCh
	m.mu.Unlock()

	go m.loop(stop, done)
	m.log.Info("monitor_started",
		zap.Duration("interval", m.interval),
		zap.Int("checks", len(m.checks)),
	)
}

// Stop requests loop exit and waits (bounded) for confirmation. Stopping while
// stopped is a logged no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.log.Warn("monitor_not_running")
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	select {
	case <-done:
		m.log.Info("monitor_stopped")
	case <-time.After(m.stopWait):
		m.log.Warn("monitor_stop_timeout", zap.Duration("waited", m.stopWait))
	}
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// loop does a full pass immediately, then one per interval. A stop request is
// honored at the next select, without waiting out the interval.
func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		if !m.safeTick() {
			if !m.pause(stop, m.recovery) {
				return
			}
			continue
		}
		if !m.pause(stop, m.interval) {
			return
		}
	}
}

// pause waits for d unless a stop request arrives first.
func (m *Monitor) pause(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

// safeTick runs one pass and absorbs anything that escapes it. The loop must
// survive transient failures indefinitely.
func (m *Monitor) safeTick() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("monitor_tick_panic", zap.Any("panic", r))
			ok = false
		}
	}()
	m.RunOnce(context.Background())
	return true
}

// RunOnce evaluates every descriptor, in order, exactly once. A failure in one
// descriptor never aborts the rest of the pass.
func (m *Monitor) RunOnce(ctx context.Context) {
	m.log.Debug("monitor_tick", zap.Int("checks", len(m.checks)))
	for i := range m.checks {
		m.evaluate(ctx, m.checks[i])
	}
}

func (m *Monitor) evaluate(ctx context.Context, d check.Descriptor) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("check_panic",
				zap.String("check", d.Name),
				zap.Any("panic", r),
			)
		}
	}()

	chk, ok := m.registry.ForKind(d.Kind)
	if !ok {
		m.log.Error("check_unknown_kind",
			zap.String("check", d.Name),
			zap.String("kind", string(d.Kind)),
		)
		return
	}

	exists, err := chk.Exists(ctx, d.Target, d.Table)
	if err != nil {
		// Fail closed: an undeterminable result alerts like a missing table.
		m.log.Warn("check_error", zap.String("check", d.Name), zap.Error(err))
	}
	if exists {
		m.log.Debug("check_table_present",
			zap.String("check", d.Name),
			zap.String("table", d.Table),
		)
		return
	}

	m.log.Warn("check_table_missing",
		zap.String("check", d.Name),
		zap.String("table", d.Table),
	)

	if !m.cooldown.ShouldAlert(d.Name) {
		m.log.Info("alert_cooldown_active", zap.String("check", d.Name))
		return
	}

	now := m.now()
	subject := fmt.Sprintf("DATABASE ALERT: Table '%s' not found", d.Table)
	body := alertBody(d.Table, chk.Describe(d.Target), now, err)
	if sendErr := m.notifier.Send(ctx, d.Recipient, subject, body); sendErr != nil {
		// No cooldown update: the alert is retried on the next pass.
		m.log.Error("alert_send_failed",
			zap.String("check", d.Name),
			zap.String("recipient", d.Recipient),
			zap.Error(sendErr),
		)
		return
	}
	m.cooldown.RecordSuccess(d.Name, now)
	m.log.Info("alert_sent",
		zap.String("check", d.Name),
		zap.String("recipient", d.Recipient),
	)
}

func alertBody(table, target string, at time.Time, cause error) string {
	b := fmt.Sprintf("ALERT [%s]:\n\nTable '%s' not found in database %s.\n\nPlease check immediately.",
		at.Format("2006-01-02 15:04:05"), table, target)
	if cause != nil {
		b += fmt.Sprintf("\n\nLast check error: %v", cause)
	}
	return b
}

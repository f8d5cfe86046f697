package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/tablewatch/internal/check"
)

// ---- fakes ----

const fakeKind = check.Kind("fake")

type fakeChecker struct {
	mu     sync.Mutex
	exists bool
	err    error
	panics bool
	calls  int
}

func (f *fakeChecker) Exists(ctx context.Context, target, table string) (bool, error) {
	f.mu.Lock()
	f.calls++
	exists, err, panics := f.exists, f.err, f.panics
	f.mu.Unlock()
	if panics {
		panic("checker exploded")
	}
	return exists, err
}

func (f *fakeChecker) Describe(target string) string { return "Fake: " + target }

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []string // recipients, in order
}

func (f *fakeNotifier) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestMonitor(t *testing.T, chk check.TableChecker, n *fakeNotifier, descs []check.Descriptor, cfg Config) *Monitor {
	t.Helper()
	reg := check.NewRegistry()
	reg.Register(fakeKind, chk)
	return New(zap.NewNop(), descs, reg, n, cfg)
}

func desc(name string) check.Descriptor {
	return check.Descriptor{
		Name:      name,
		Kind:      fakeKind,
		Target:    "fake://db",
		Table:     "orders",
		Recipient: "ops@example.com",
	}
}

// ---- tests ----

func TestRunOnce_TablePresent_NoAlert(t *testing.T) {
	nt := &fakeNotifier{}
	m := newTestMonitor(t, &fakeChecker{exists: true}, nt, []check.Descriptor{desc("T1")}, Config{})

	m.RunOnce(context.Background())

	if nt.count() != 0 {
		t.Fatalf("present table must not alert, got %d", nt.count())
	}
	if len(m.cooldown.Snapshot()) != 0 {
		t.Fatal("no cooldown entry expected")
	}
}

func TestRunOnce_TableMissing_AlertsAndRecords(t *testing.T) {
	nt := &fakeNotifier{}
	m := newTestMonitor(t, &fakeChecker{exists: false}, nt, []check.Descriptor{desc("T2")}, Config{})

	m.RunOnce(context.Background())

	if nt.count() != 1 {
		t.Fatalf("want one alert, got %d", nt.count())
	}
	if _, ok := m.cooldown.Snapshot()["T2"]; !ok {
		t.Fatal("cooldown entry missing after successful send")
	}
}

func TestRunOnce_BackendErrorAlertsLikeMissing(t *testing.T) {
	nt := &fakeNotifier{}
	chk := &fakeChecker{exists: false, err: errors.New("connection refused")}
	m := newTestMonitor(t, chk, nt, []check.Descriptor{desc("T2")}, Config{})

	m.RunOnce(context.Background())

	if nt.count() != 1 {
		t.Fatalf("execution error must alert, got %d", nt.count())
	}
}

func TestRunOnce_CooldownSuppressesThenReopens(t *testing.T) {
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	now := base
	nt := &fakeNotifier{}
	m := newTestMonitor(t, &fakeChecker{exists: false}, nt, []check.Descriptor{desc("T2")},
		Config{CooldownWindow: 60 * time.Second})
	m.now = func() time.Time { return now }
	m.cooldown.now = m.now

	ctx := context.Background()

	m.RunOnce(ctx) // t=0
	if nt.count() != 1 {
		t.Fatalf("first tick: want 1 alert, got %d", nt.count())
	}

	now = base.Add(30 * time.Second)
	m.RunOnce(ctx) // still in cooldown
	if nt.count() != 1 {
		t.Fatalf("second tick: cooldown must suppress, got %d", nt.count())
	}

	now = base.Add(61 * time.Second)
	m.RunOnce(ctx) // window strictly elapsed
	if nt.count() != 2 {
		t.Fatalf("third tick: want 2 alerts, got %d", nt.count())
	}
}

func TestRunOnce_AlertCountIsFloorOfElapsedOverWindow(t *testing.T) {
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	now := base
	nt := &fakeNotifier{}
	m := newTestMonitor(t, &fakeChecker{exists: false}, nt, []check.Descriptor{desc("T2")},
		Config{CooldownWindow: 25 * time.Second})
	m.now = func() time.Time { return now }
	m.cooldown.now = m.now

	// 8 ticks 10s apart spanning 70s with a 25s window: alerts at t=0, 30, 60.
	for i := 0; i <= 7; i++ {
		now = base.Add(time.Duration(i) * 10 * time.Second)
		m.RunOnce(context.Background())
	}

	want := 70/25 + 1
	if nt.count() != want {
		t.Fatalf("want %d alerts over 70s, got %d", want, nt.count())
	}
}

func TestRunOnce_NotifierFailure_NoRecord_RetriedNextTick(t *testing.T) {
	nt := &fakeNotifier{err: errors.New("smtp down")}
	chk := &fakeChecker{exists: false}
	m := newTestMonitor(t, chk, nt, []check.Descriptor{desc("T2")}, Config{CooldownWindow: time.Hour})

	m.RunOnce(context.Background())
	if len(m.cooldown.Snapshot()) != 0 {
		t.Fatal("failed send must not record a cooldown timestamp")
	}

	// Notifier recovers; the very next tick may alert even inside the window.
	nt.mu.Lock()
	nt.err = nil
	nt.mu.Unlock()
	m.RunOnce(context.Background())
	if nt.count() != 1 {
		t.Fatalf("retry after failed send: want 1 alert, got %d", nt.count())
	}
}

func TestRunOnce_PanicInOneCheckDoesNotAbortOthers(t *testing.T) {
	bad := &fakeChecker{panics: true}
	good := &fakeChecker{exists: true}
	reg := check.NewRegistry()
	reg.Register(check.Kind("bad"), bad)
	reg.Register(check.Kind("good"), good)

	descs := []check.Descriptor{
		{Name: "A", Kind: "bad", Target: "x", Table: "t", Recipient: "ops@example.com"},
		{Name: "B", Kind: "good", Target: "y", Table: "t", Recipient: "ops@example.com"},
	}
	m := New(zap.NewNop(), descs, reg, &fakeNotifier{}, Config{})

	m.RunOnce(context.Background())

	if good.callCount() != 1 {
		t.Fatal("descriptor after the panicking one was not evaluated")
	}
}

func TestRunOnce_UnknownKindIsSkipped(t *testing.T) {
	nt := &fakeNotifier{}
	m := New(zap.NewNop(), []check.Descriptor{{Name: "A", Kind: "mystery", Table: "t"}},
		check.NewRegistry(), nt, Config{})

	m.RunOnce(context.Background())

	if nt.count() != 0 {
		t.Fatal("unknown kind must not alert")
	}
}

func TestRunOnce_DuplicateNamesShareCooldown(t *testing.T) {
	nt := &fakeNotifier{}
	m := newTestMonitor(t, &fakeChecker{exists: false}, nt,
		[]check.Descriptor{desc("SAME"), desc("SAME")}, Config{CooldownWindow: time.Hour})

	m.RunOnce(context.Background())

	// First occurrence alerts and records; the second sees the shared cooldown.
	if nt.count() != 1 {
		t.Fatalf("duplicate names must share cooldown state, got %d alerts", nt.count())
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	chk := &fakeChecker{exists: true}
	m := newTestMonitor(t, chk, &fakeNotifier{}, []check.Descriptor{desc("T1")},
		Config{Interval: 5 * time.Millisecond})

	if m.Running() {
		t.Fatal("must not be running before Start")
	}
	m.Start()
	if !m.Running() {
		t.Fatal("must be running after Start")
	}
	m.Start() // no-op with warning

	time.Sleep(25 * time.Millisecond)
	if chk.callCount() == 0 {
		t.Fatal("loop did not tick")
	}

	m.Stop()
	if m.Running() {
		t.Fatal("must not be running after Stop")
	}
	m.Stop() // no-op with warning
}

func TestStop_HaltsTicking(t *testing.T) {
	chk := &fakeChecker{exists: true}
	m := newTestMonitor(t, chk, &fakeNotifier{}, []check.Descriptor{desc("T1")},
		Config{Interval: 5 * time.Millisecond})

	m.Start()
	time.Sleep(25 * time.Millisecond)
	m.Stop() // blocks until the loop confirms exit

	n := chk.callCount()
	time.Sleep(25 * time.Millisecond)
	if chk.callCount() != n {
		t.Fatalf("tick after Stop returned: had %d, now %d", n, chk.callCount())
	}
}

func TestStart_WithNoChecksRefuses(t *testing.T) {
	m := New(zap.NewNop(), nil, check.NewRegistry(), &fakeNotifier{}, Config{})
	m.Start()
	if m.Running() {
		t.Fatal("must refuse to start with no checks")
	}
}

func TestStatus_Snapshot(t *testing.T) {
	nt := &fakeNotifier{}
	m := newTestMonitor(t, &fakeChecker{exists: false}, nt, []check.Descriptor{desc("T2")},
		Config{Interval: 300 * time.Second, CooldownWindow: time.Hour})

	st := m.Status()
	if st.Running || st.DescriptorCount != 1 || st.Interval != "5m0s" || st.CooldownWindow != "1h0m0s" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Descriptors[0].Name != "T2" || st.Descriptors[0].Kind != fakeKind || st.Descriptors[0].Table != "orders" {
		t.Fatalf("descriptor status wrong: %+v", st.Descriptors[0])
	}

	m.RunOnce(context.Background())
	st = m.Status()
	if _, ok := st.CooldownState["T2"]; !ok {
		t.Fatal("cooldown state missing from status after alert")
	}
}

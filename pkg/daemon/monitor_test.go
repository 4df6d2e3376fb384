package daemon

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

type proberStep struct {
	snap powerinfo.Snapshot
	err  error
}

// scriptedProber replays a fixed sequence of samples and then holds the last
// one forever.
type scriptedProber struct {
	mu    sync.Mutex
	steps []proberStep
	idx   int
}

func (p *scriptedProber) Sample(_ context.Context) (powerinfo.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.steps[p.idx]
	if p.idx < len(p.steps)-1 {
		p.idx++
	}
	return s.snap, s.err
}

func onAC(pct int) powerinfo.Snapshot {
	return powerinfo.Snapshot{IsBatteryPresent: true, IsACConnected: true, BatteryPercentage: pct}
}

func onBatt(pct int) powerinfo.Snapshot {
	return powerinfo.Snapshot{IsBatteryPresent: true, BatteryPercentage: pct}
}

func newTestMonitor(steps ...proberStep) *Monitor {
	return NewMonitor(&scriptedProber{steps: steps}, 2*time.Millisecond, 20, logrus.New())
}

func collectEvents(t *testing.T, ch <-chan MonitorEvent, want int) []MonitorEvent {
	t.Helper()
	var evs []MonitorEvent
	deadline := time.After(5 * time.Second)
	for len(evs) < want {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed after %d events, want %d", len(evs), want)
			}
			evs = append(evs, ev)
		case <-deadline:
			t.Fatalf("timed out after %d events, want %d", len(evs), want)
		}
	}
	return evs
}

func kindsOf(evs []MonitorEvent) []powerinfo.EventKind {
	kinds := make([]powerinfo.EventKind, 0, len(evs))
	for _, ev := range evs {
		kinds = append(kinds, ev.Event.Kind)
	}
	return kinds
}

func TestMonitorACUnplugReplug(t *testing.T) {
	m := newTestMonitor(
		proberStep{snap: onAC(80)},
		proberStep{snap: onBatt(80)},
		proberStep{snap: onAC(80)},
	)
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	evs := collectEvents(t, ch, 2)
	want := []powerinfo.EventKind{powerinfo.EventACDisconnected, powerinfo.EventACConnected}
	if got := kindsOf(evs); !reflect.DeepEqual(got, want) {
		t.Fatalf("event kinds = %v, want %v", got, want)
	}
	if !evs[0].Snapshot.IsBatteryPresent || evs[0].Snapshot.IsACConnected {
		t.Errorf("disconnect event snapshot = %+v, want on-battery", evs[0].Snapshot)
	}
}

func TestMonitorLowBatteryHysteresis(t *testing.T) {
	m := newTestMonitor(
		proberStep{snap: onAC(25)},
		proberStep{snap: onAC(19)},
		proberStep{snap: onAC(18)},
		proberStep{snap: onAC(21)},
	)
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	evs := collectEvents(t, ch, 5)
	want := []powerinfo.EventKind{
		powerinfo.EventBatteryLow,
		powerinfo.EventStatusUpdate,
		powerinfo.EventStatusUpdate,
		powerinfo.EventBatteryNormal,
		powerinfo.EventStatusUpdate,
	}
	if got := kindsOf(evs); !reflect.DeepEqual(got, want) {
		t.Fatalf("event kinds = %v, want %v", got, want)
	}
	if evs[0].Event.Percentage != 19 {
		t.Errorf("low event percentage = %d, want 19", evs[0].Event.Percentage)
	}
	if evs[3].Event.Percentage != 21 {
		t.Errorf("normal event percentage = %d, want 21", evs[3].Event.Percentage)
	}
}

func TestMonitorInitialSampleAlreadyLow(t *testing.T) {
	m := newTestMonitor(proberStep{snap: onBatt(15)})
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	evs := collectEvents(t, ch, 1)
	if evs[0].Event.Kind != powerinfo.EventBatteryLow {
		t.Fatalf("initial event = %q, want %q", evs[0].Event.Kind, powerinfo.EventBatteryLow)
	}
	if evs[0].Event.Percentage != 15 {
		t.Errorf("initial event percentage = %d, want 15", evs[0].Event.Percentage)
	}
}

func TestMonitorInitialSampleOnBattery(t *testing.T) {
	m := newTestMonitor(proberStep{snap: onBatt(50)})
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	evs := collectEvents(t, ch, 1)
	if evs[0].Event.Kind != powerinfo.EventACDisconnected {
		t.Fatalf("initial event = %q, want %q", evs[0].Event.Kind, powerinfo.EventACDisconnected)
	}
}

func TestMonitorNoBatteryStaysSilent(t *testing.T) {
	m := newTestMonitor(proberStep{snap: powerinfo.Snapshot{
		IsACConnected:     true,
		BatteryPercentage: 100,
	}})
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q on a machine without battery", ev.Event.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	snap, ok := m.LastSnapshot()
	if !ok {
		t.Fatal("LastSnapshot() not recorded")
	}
	if snap.IsBatteryPresent {
		t.Errorf("snapshot battery present = true, want false")
	}
}

func TestMonitorProbeErrorSkipsTick(t *testing.T) {
	m := newTestMonitor(
		proberStep{err: context.DeadlineExceeded},
		proberStep{err: context.DeadlineExceeded},
		proberStep{snap: onAC(80)},
	)
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	// Failed ticks must not produce events or a snapshot; once the probe
	// recovers, the first good sample is treated as the initial one.
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q from failed probes", ev.Event.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	snap, ok := m.LastSnapshot()
	if !ok {
		t.Fatal("LastSnapshot() not recorded after probe recovered")
	}
	if !snap.IsACConnected || snap.BatteryPercentage != 80 {
		t.Errorf("snapshot = %+v, want AC at 80%%", snap)
	}
	if !m.Running() {
		t.Error("monitor stopped after probe errors, want still running")
	}
}

func TestMonitorStartStopRestart(t *testing.T) {
	m := newTestMonitor(proberStep{snap: onAC(80)})

	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := m.Start(); err != ErrMonitorRunning {
		t.Fatalf("second Start() error = %v, want ErrMonitorRunning", err)
	}
	if !m.Running() {
		t.Fatal("Running() = false after Start")
	}

	m.Stop()
	if m.Running() {
		t.Fatal("Running() = true after Stop")
	}

	select {
	case _, ok := <-ch:
		if ok {
			// Drain any buffered event; the channel must close soon after.
			for range ch {
			}
		}
	case <-time.After(time.Second):
		t.Fatal("event channel not closed after Stop")
	}

	ch2, err := m.Start()
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if ch2 == nil {
		t.Fatal("restart returned nil channel")
	}
	m.Stop()
}

// gatedProber blocks its first sample until released, as if the telemetry
// subprocess were sitting on its timeout. Every later sample returns
// immediately.
type gatedProber struct {
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (p *gatedProber) Sample(_ context.Context) (powerinfo.Snapshot, error) {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()

	if first {
		<-p.release
		return onBatt(99), nil
	}
	return onAC(42), nil
}

func (p *gatedProber) sampleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestMonitorRestartDiscardsInFlightTick(t *testing.T) {
	p := &gatedProber{release: make(chan struct{})}
	m := NewMonitor(p, time.Millisecond, 20, logrus.New())

	oldCh, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Wait until the first loop's tick is stuck inside Sample.
	deadline := time.After(5 * time.Second)
	for p.sampleCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first sample never started")
		case <-time.After(time.Millisecond):
		}
	}

	m.Stop()
	newCh, err := m.Start()
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	defer m.Stop()

	// The new loop must take ownership and record its own snapshot.
	for {
		if snap, ok := m.LastSnapshot(); ok && snap.BatteryPercentage == 42 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("new loop never recorded a snapshot")
		case <-time.After(time.Millisecond):
		}
	}

	// Release the old loop's stuck tick. It must exit without publishing
	// events or touching the snapshot.
	close(p.release)

	count := 0
	for range oldCh {
		count++
	}
	if count != 0 {
		t.Errorf("replaced loop published %d events, want 0", count)
	}

	snap, ok := m.LastSnapshot()
	if !ok {
		t.Fatal("LastSnapshot() missing after restart")
	}
	if snap.BatteryPercentage != 42 {
		t.Errorf("snapshot percentage = %d, want the new loop's 42", snap.BatteryPercentage)
	}
	if !m.Running() {
		t.Error("Running() = false, want the restarted loop still running")
	}

	select {
	case ev := <-newCh:
		t.Fatalf("unexpected event %q from the new loop", ev.Event.Kind)
	default:
	}
}

// flipProber toggles AC state on every sample, producing one transition
// event per tick.
type flipProber struct {
	mu sync.Mutex
	ac bool
}

func (p *flipProber) Sample(_ context.Context) (powerinfo.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ac = !p.ac
	return powerinfo.Snapshot{IsBatteryPresent: true, IsACConnected: p.ac, BatteryPercentage: 50}, nil
}

func TestMonitorStopsWhenConsumerGone(t *testing.T) {
	m := NewMonitor(&flipProber{}, time.Millisecond, 20, logrus.New())
	ch, err := m.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Nobody reads ch. The monitor must notice the full buffer and stop.
	deadline := time.After(5 * time.Second)
	for m.Running() {
		select {
		case <-deadline:
			t.Fatal("monitor still running with a full event buffer")
		case <-time.After(5 * time.Millisecond):
		}
	}

	count := 0
	for range ch {
		count++
	}
	if count != eventBufferSize {
		t.Errorf("buffered events = %d, want %d", count, eventBufferSize)
	}
}

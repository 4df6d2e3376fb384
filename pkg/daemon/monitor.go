package daemon

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/metrics"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
	"github.com/powerwatch/powerwatch/pkg/probe"
)

// eventBufferSize bounds the monitor event channel. When the buffer fills up
// the consumer is considered gone and the monitor stops itself.
const eventBufferSize = 100

// ErrMonitorRunning is returned by Start if the monitor is already running.
var ErrMonitorRunning = errors.New("monitor is already running")

// MonitorEvent pairs a classified power event with the snapshot that
// produced it, so consumers never have to re-query the probe.
type MonitorEvent struct {
	Event    powerinfo.Event    `json:"event"`
	Snapshot powerinfo.Snapshot `json:"snapshot"`
}

// Monitor periodically samples the power status, diffs consecutive snapshots
// and emits classified events. The first sample happens immediately on Start,
// subsequent ones every interval.
type Monitor struct {
	log    logrus.FieldLogger
	prober probe.Prober

	recorder *sampleRecorder

	mu        sync.Mutex
	interval  time.Duration
	threshold int
	running   bool
	stopCh    chan struct{}
	last      *powerinfo.Snapshot
}

func NewMonitor(prober probe.Prober, interval time.Duration, threshold int, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		log:       log,
		prober:    prober,
		recorder:  newSampleRecorder(60),
		interval:  interval,
		threshold: threshold,
	}
}

// Start launches the sampling loop and returns the event channel. The
// channel is closed when the loop exits. Interval and threshold are fixed
// for the lifetime of the loop; change them and restart to apply.
func (m *Monitor) Start() (<-chan MonitorEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil, ErrMonitorRunning
	}
	m.running = true
	m.stopCh = make(chan struct{})

	ch := make(chan MonitorEvent, eventBufferSize)
	go m.run(ch, m.stopCh, m.interval, m.threshold)
	return ch, nil
}

// Stop terminates the sampling loop. Safe to call when not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastSnapshot returns the most recent successful sample, if any. It stays
// available while the monitor is paused.
func (m *Monitor) LastSnapshot() (powerinfo.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return powerinfo.Snapshot{}, false
	}
	return *m.last, true
}

func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

func (m *Monitor) Threshold() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// SetInterval takes effect on the next Start.
func (m *Monitor) SetInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
}

// SetThreshold takes effect on the next Start.
func (m *Monitor) SetThreshold(t int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = t
}

// RecentSamples reports how many sampling ticks ran within the last d.
func (m *Monitor) RecentSamples(d time.Duration) int {
	return m.recorder.recentCount(time.Now(), d)
}

// setLast stores the snapshot, but only for the loop that still owns the
// monitor. A tick that straddled a Stop+Start must not clobber the snapshot
// of the loop that replaced it.
func (m *Monitor) setLast(stop chan struct{}, snap powerinfo.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh == stop && m.running {
		m.last = &snap
	}
}

// current reports whether the loop identified by stop is still the active
// one.
func (m *Monitor) current(stop chan struct{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCh == stop && m.running
}

// exit clears the running flag, but only if this loop is still the current
// one. A loop that was already replaced by Stop+Start must not touch the
// state of its successor.
func (m *Monitor) exit(stop chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh == stop && m.running {
		m.running = false
	}
}

func (m *Monitor) run(ch chan<- MonitorEvent, stop chan struct{}, interval time.Duration, threshold int) {
	defer close(ch)

	m.log.WithFields(logrus.Fields{
		"interval":  interval.String(),
		"threshold": threshold,
	}).Debug("monitor loop starts")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev *powerinfo.Snapshot
	var lastLogged powerinfo.Snapshot
	var lastLogTime time.Time

	for {
		metrics.TicksTotal.Inc()

		if gap, ok := m.recorder.gapSince(time.Now()); ok && gap > interval*2 {
			m.log.WithFields(logrus.Fields{
				"gap":      gap.String(),
				"interval": interval.String(),
			}).Info("sampling gap detected, system may have been asleep")
		}
		m.recorder.add(time.Now())

		snap, err := m.prober.Sample(context.Background())
		if err != nil {
			metrics.ProbeErrorsTotal.Inc()
			m.log.Warnf("power status check failed: %v", err)
		} else if !m.current(stop) {
			// Stop (or Stop+Start) won the race while the probe was busy
			// sampling. This loop no longer owns the shared state, so the
			// in-flight tick is discarded instead of publishing events
			// classified with outdated settings.
			m.log.Debug("monitor loop replaced while sampling, discarding tick")
			return
		} else {
			logSample(m.log, snap, interval, &lastLogged, &lastLogTime)

			for _, ev := range classifyTick(prev, snap, threshold) {
				metrics.EventsTotal.WithLabelValues(string(ev.Kind)).Inc()
				select {
				case ch <- MonitorEvent{Event: ev, Snapshot: snap}:
				default:
					m.log.Error("event buffer full, consumer is gone, stopping monitor")
					m.exit(stop)
					return
				}
			}

			metrics.ObserveSnapshot(snap)
			s := snap
			prev = &s
			m.setLast(stop, s)
		}

		select {
		case <-stop:
			m.log.Debug("monitor loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// classifyTick turns one sample into the events to emit. The very first
// sample has no predecessor to diff against, so it only checks whether the
// machine is already in a state worth alerting about.
func classifyTick(prev *powerinfo.Snapshot, cur powerinfo.Snapshot, threshold int) []powerinfo.Event {
	if prev == nil {
		if ev, ok := powerinfo.InitialEvent(cur, threshold); ok {
			return []powerinfo.Event{ev}
		}
		return nil
	}

	evs := powerinfo.Classify(*prev, cur, threshold)
	if cur.ChangedFrom(*prev) {
		evs = append(evs, powerinfo.Event{Kind: powerinfo.EventStatusUpdate})
	}
	return evs
}

// logSample mirrors the sampled state to the logs. Repeats within one tick
// interval are demoted to trace so debug logs stay readable.
func logSample(log logrus.FieldLogger, snap powerinfo.Snapshot, interval time.Duration, lastLogged *powerinfo.Snapshot, lastLogTime *time.Time) {
	fields := logrus.Fields{
		"batteryPresent": snap.IsBatteryPresent,
		"acConnected":    snap.IsACConnected,
		"charging":       snap.IsCharging,
		"batteryCharge":  snap.BatteryPercentage,
	}
	if snap.PowerDrawWatts != nil {
		fields["powerDraw"] = *snap.PowerDrawWatts
	}

	defer func() { *lastLogTime = time.Now() }()

	if time.Since(*lastLogTime) < interval+time.Second && reflect.DeepEqual(*lastLogged, snap) {
		log.WithFields(fields).Trace("monitor loop status")
		return
	}

	log.WithFields(fields).Debug("monitor loop status")
	*lastLogged = snap
}

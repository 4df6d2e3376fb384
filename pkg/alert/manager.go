package alert

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/config"
	"github.com/powerwatch/powerwatch/pkg/events"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

// Test seams, reassigned in unit tests.
var (
	soundBeep  = beeep.Beep
	notifySend = beeep.Notify
)

// soundPattern is the audible signature of one alert identity. Losing AC is
// a single beep; a low battery repeats at a higher pitch so the two are
// tellable apart without looking at the screen.
type soundPattern struct {
	freq  float64
	count int
}

var soundPatterns = map[string]soundPattern{
	PowerDisconnected: {freq: beeep.DefaultFreq, count: 1},
	LowBattery:        {freq: beeep.DefaultFreq * 1.5, count: 3},
}

// Manager owns the set of active alerts. It consumes classified power events,
// decides which alerts to raise or dismiss, and mirrors every change onto the
// event hub so SSE subscribers stay in sync.
type Manager struct {
	log logrus.FieldLogger
	cfg config.Config
	hub *events.EventHub

	mu     sync.Mutex
	active map[string]*Alert
}

func NewManager(cfg config.Config, hub *events.EventHub, log logrus.FieldLogger) *Manager {
	return &Manager{
		log:    log,
		cfg:    cfg,
		hub:    hub,
		active: make(map[string]*Alert),
	}
}

// HandleEvent applies one classified power event. snap is the snapshot the
// event was derived from.
func (m *Manager) HandleEvent(ev powerinfo.Event, snap powerinfo.Snapshot) {
	switch ev.Kind {
	case powerinfo.EventACDisconnected:
		m.log.Infof("AC power disconnected, battery: %d%%", snap.BatteryPercentage)
		m.raise(PowerDisconnected, "Please connect the power adapter", m.cfg.AlertColor(), snap)
		m.playSound(PowerDisconnected)
		m.notify("Power alert", fmt.Sprintf("AC power disconnected, battery at %d%%", snap.BatteryPercentage))

	case powerinfo.EventACConnected:
		m.log.Infof("AC power connected, battery: %d%%", snap.BatteryPercentage)
		if m.cfg.AutoDismissAlerts() {
			m.Dismiss(PowerDisconnected)
		}
		m.notify("Power alert", "AC power connected")

	case powerinfo.EventBatteryLow:
		m.log.Infof("Low battery warning: %d%%", ev.Percentage)
		m.raise(LowBattery, "Battery critically low! Connect a charger", m.cfg.LowBatteryColor(), snap)
		m.playSound(LowBattery)
		m.notify("Low battery", fmt.Sprintf("Battery at %d%%, connect a charger soon", ev.Percentage))

	case powerinfo.EventBatteryNormal:
		m.log.Infof("Battery level normal: %d%%", ev.Percentage)
		m.Dismiss(LowBattery)
		m.notify("Power alert", fmt.Sprintf("Battery level back to normal: %d%%", ev.Percentage))

	case powerinfo.EventStatusUpdate:
		m.refresh(snap)
	}
}

// raise installs or refreshes the alert with the given identity.
func (m *Manager) raise(id, message, color string, snap powerinfo.Snapshot) {
	a := &Alert{
		ID:              id,
		Message:         message,
		BackgroundColor: color,
		TextColor:       defaultTextColor,
		Opacity:         m.cfg.WindowOpacity(),
		AlwaysOnTop:     m.cfg.AlwaysOnTop(),
		ShowBatteryInfo: true,
		Snapshot:        snap,
		RaisedAt:        time.Now().Unix(),
	}

	m.mu.Lock()
	m.active[id] = a
	m.mu.Unlock()

	m.hub.PublishAlert(true, id, message)
}

// refresh updates the snapshot carried by every active alert so open alert
// views keep showing live battery numbers.
func (m *Manager) refresh(snap powerinfo.Snapshot) {
	m.mu.Lock()
	for _, a := range m.active {
		a.Snapshot = snap
	}
	m.mu.Unlock()
}

// Dismiss removes the alert with the given identity. Dismissing an identity
// that is not active is a no-op.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	_, ok := m.active[id]
	if ok {
		delete(m.active, id)
	}
	m.mu.Unlock()

	if ok {
		m.hub.PublishAlert(false, id, "")
	}
}

// DismissAll removes every active alert. Called when monitoring pauses.
func (m *Manager) DismissAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
		delete(m.active, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.hub.PublishAlert(false, id, "")
	}
}

// Active returns the active alerts sorted by identity.
func (m *Manager) Active() []Alert {
	m.mu.Lock()
	out := make([]Alert, 0, len(m.active))
	for _, a := range m.active {
		out = append(out, *a)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TestSound plays the power-disconnected pattern once so users can verify
// their audio setup. Honors the sound toggle the same way real alerts do.
func (m *Manager) TestSound() error {
	return m.playSoundErr(PowerDisconnected)
}

func (m *Manager) playSound(id string) {
	if err := m.playSoundErr(id); err != nil {
		m.log.Warnf("failed to play alert sound: %v", err)
	}
}

func (m *Manager) playSoundErr(id string) error {
	if !m.cfg.SoundEnabled() {
		return nil
	}

	p, ok := soundPatterns[id]
	if !ok {
		p = soundPattern{freq: beeep.DefaultFreq, count: 1}
	}
	for i := 0; i < p.count; i++ {
		if err := soundBeep(p.freq, beeep.DefaultDuration); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) notify(title, message string) {
	if err := notifySend(title, message, ""); err != nil {
		m.log.Debugf("failed to show notification: %v", err)
	}
}

package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

type EventHub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewEventHub() *EventHub { return &EventHub{subs: make(map[chan Event]struct{})} }

func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if !h.closed {
		h.subs[ch] = struct{}{}
	} else {
		close(ch)
	}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Close drops all subscribers. Used on daemon shutdown so SSE streams
// terminate instead of hanging on a silent channel.
func (h *EventHub) Close() {
	h.mu.Lock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *EventHub) Publish(name string, payload any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := Event{Name: name, Data: b}
	h.mu.RLock()
	for ch := range h.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}

// PublishTransition publishes a classified power transition with the snapshot
// it was derived from.
func (h *EventHub) PublishTransition(ev powerinfo.Event, snap powerinfo.Snapshot) {
	h.Publish(PowerTransition, PowerTransitionEvent{
		Kind:       ev.Kind,
		Percentage: ev.Percentage,
		Snapshot:   snap,
		Ts:         time.Now().Unix(),
	})
}

// PublishStatus publishes a routine status refresh.
func (h *EventHub) PublishStatus(snap powerinfo.Snapshot) {
	h.Publish(PowerStatus, PowerStatusEvent{Snapshot: snap, Ts: time.Now().Unix()})
}

// PublishAlert publishes alert lifecycle changes. raised selects between
// alert.raised and alert.dismissed.
func (h *EventHub) PublishAlert(raised bool, id, message string) {
	name := AlertDismissed
	if raised {
		name = AlertRaised
	}
	h.Publish(name, AlertEvent{ID: id, Message: message, Ts: time.Now().Unix()})
}

// PublishMonitorState publishes monitor pause/resume transitions.
func (h *EventHub) PublishMonitorState(running bool) {
	h.Publish(MonitorState, MonitorStateEvent{Running: running, Ts: time.Now().Unix()})
}

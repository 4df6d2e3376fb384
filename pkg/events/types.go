package events

import (
	"encoding/json"

	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

// Event name constants
const (
	PowerTransition = "power.transition"
	PowerStatus     = "power.status"
	AlertRaised     = "alert.raised"
	AlertDismissed  = "alert.dismissed"
	MonitorState    = "monitor.state"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// PowerTransitionEvent is the typed payload for power.transition. It carries
// the classified transition plus the snapshot that triggered it.
type PowerTransitionEvent struct {
	Kind       powerinfo.EventKind `json:"kind"`
	Percentage int                 `json:"percentage,omitempty"`
	Snapshot   powerinfo.Snapshot  `json:"snapshot"`
	Ts         int64               `json:"ts"`
}

// PowerStatusEvent is the typed payload for power.status, published on every
// StatusUpdate tick.
type PowerStatusEvent struct {
	Snapshot powerinfo.Snapshot `json:"snapshot"`
	Ts       int64              `json:"ts"`
}

// AlertEvent is the typed payload for alert.raised and alert.dismissed.
type AlertEvent struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// MonitorStateEvent is the typed payload for monitor.state.
type MonitorStateEvent struct {
	Running bool  `json:"running"`
	Ts      int64 `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.PowerTransitionEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Kind, payload.Percentage)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}

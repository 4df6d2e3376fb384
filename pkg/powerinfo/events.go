package powerinfo

// EventKind identifies a kind of power state transition.
type EventKind string

const (
	// EventACConnected fires when external power is plugged in.
	EventACConnected EventKind = "ACConnected"
	// EventACDisconnected fires when external power is unplugged.
	EventACDisconnected EventKind = "ACDisconnected"
	// EventBatteryLow fires when the battery level crosses at or below the
	// configured threshold.
	EventBatteryLow EventKind = "BatteryLow"
	// EventBatteryNormal fires when the battery level recovers above the
	// configured threshold.
	EventBatteryNormal EventKind = "BatteryNormal"
	// EventStatusUpdate fires when the displayed reading changed without any
	// threshold or AC edge.
	EventStatusUpdate EventKind = "StatusUpdate"
)

// Event is a single classified power transition. Battery events carry the
// percentage observed at the edge; other kinds leave it zero.
type Event struct {
	Kind       EventKind `json:"kind"`
	Percentage int       `json:"percentage,omitempty"`
}

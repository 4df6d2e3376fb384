// Package powerinfo defines the power state snapshot shared between the
// daemon, client, and CLI, and the pure classification of transitions
// between consecutive snapshots.
package powerinfo

// Snapshot is a point-in-time reading of the host power state.
//
// The four base fields are always meaningful. The remaining fields are
// best-effort enrichment and are nil when no telemetry source could supply
// them. Units:
//   - PowerDrawWatts: Watts (always positive, magnitude of draw)
//   - BatteryCapacityMWh: mWh (design capacity)
//   - RemainingTimeMinutes: minutes of runtime left
//   - ChargeRateWatts: Watts (positive when charging, negative when discharging)
type Snapshot struct {
	IsBatteryPresent  bool `json:"is_battery_present"`
	IsACConnected     bool `json:"is_ac_connected"`
	IsCharging        bool `json:"is_charging"`
	BatteryPercentage int  `json:"battery_percentage"`

	PowerDrawWatts       *float64 `json:"power_draw_watts,omitempty"`
	BatteryCapacityMWh   *int     `json:"battery_capacity_mwh,omitempty"`
	RemainingTimeMinutes *int     `json:"remaining_time_minutes,omitempty"`
	ChargeRateWatts      *float64 `json:"charge_rate_watts,omitempty"`
}

// ChangedFrom reports whether the user-visible reading moved between two
// snapshots, i.e. the battery percentage or the measured power draw changed.
// A power draw appearing or disappearing counts as a change.
func (s Snapshot) ChangedFrom(prev Snapshot) bool {
	if s.BatteryPercentage != prev.BatteryPercentage {
		return true
	}
	return !floatPtrEqual(s.PowerDrawWatts, prev.PowerDrawWatts)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

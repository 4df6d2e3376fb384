package telemetry

import (
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

// Estimate derives telemetry analytically from the base snapshot when no
// live source is usable. Charging wattage follows the typical charge curve
// (fast charge below 20%, trickle above 80%); discharge assumes a typical
// laptop load. Remaining runtime is only meaningful while discharging with
// charge left, otherwise it is zero.
func Estimate(base powerinfo.Snapshot) Info {
	var watts float64
	if base.IsCharging {
		switch pct := base.BatteryPercentage; {
		case pct <= 20:
			watts = 25
		case pct <= 80:
			watts = 20
		default:
			watts = 10
		}
	} else {
		watts = defaultDrawWatts
	}

	remaining := 0
	if !base.IsCharging && base.BatteryPercentage > 0 {
		remainingMWh := float64(defaultCapacityMWh) * float64(base.BatteryPercentage) / 100
		remaining = int(remainingMWh / (watts * 1000) * 60)
	}

	return Info{
		PowerDrawWatts:   watts,
		CapacityMWh:      defaultCapacityMWh,
		RemainingMinutes: remaining,
		ChargeRateWatts:  watts,
		Source:           SourceEstimate,
	}
}

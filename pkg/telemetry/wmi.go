package telemetry

// batteryReportQuery asks the management interface for one battery record.
// The output is JSON-ish but not trusted to be well formed: depending on the
// host it may be a single object, an array of objects, or have values
// wrapped in quotes.
const batteryReportQuery = `Get-WmiObject -Class Win32_Battery | Select-Object EstimatedChargeRemaining,DesignCapacity,EstimatedRunTime,DischargeRate | ConvertTo-Json`

const (
	// defaultCapacityMWh is a typical laptop battery design capacity.
	defaultCapacityMWh = 50000
	// defaultDischargeRateMW substitutes for an unreported discharge rate.
	defaultDischargeRateMW = 15000.0
	// defaultRemainingMinutes substitutes for an implausible runtime.
	defaultRemainingMinutes = 240
	// maxPlausibleMinutes is 24h; anything above is firmware nonsense.
	maxPlausibleMinutes = 1440
	// noiseWattsFloor rejects sub-0.1W readings as measurement noise.
	noiseWattsFloor = 0.1
	// defaultDrawWatts is a typical laptop load under normal use.
	defaultDrawWatts = 15.0
)

// parseBatteryReport extracts telemetry from the management interface
// output. Missing or implausible values are replaced with typical-hardware
// defaults. defaulted reports whether the power draw is such a default
// rather than a measured discharge rate; callers use it to decide whether a
// secondary live probe is worth the trouble.
func parseBatteryReport(out string) (info Info, defaulted bool) {
	capacity := defaultCapacityMWh
	if v, ok := extractValue(out, "DesignCapacity"); ok {
		capacity = int(v)
	}

	rate, rateMeasured := extractValue(out, "DischargeRate")
	if !rateMeasured {
		rate = defaultDischargeRateMW
	}

	remaining := defaultRemainingMinutes
	if v, ok := extractValue(out, "EstimatedRunTime"); ok && v >= 0 && v <= maxPlausibleMinutes {
		remaining = int(v)
	}

	watts := defaultDrawWatts
	defaulted = true
	if rateMeasured && rate > 0 {
		if w := rate / 1000; w >= noiseWattsFloor {
			watts = w
			defaulted = false
		}
	}

	return Info{
		PowerDrawWatts:   watts,
		CapacityMWh:      capacity,
		RemainingMinutes: remaining,
		ChargeRateWatts:  rate / 1000,
		Source:           SourceManagement,
	}, defaulted
}

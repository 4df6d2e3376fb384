// Package probe samples the host power state. The base fields (presence,
// AC, charging, percentage) come from the OS battery interface; advanced
// readings are filled in best-effort through the telemetry resolver and
// never fail a sample.
package probe

import (
	"context"
	"errors"
	"math"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/powerinfo"
	"github.com/powerwatch/powerwatch/pkg/telemetry"
	"github.com/powerwatch/powerwatch/pkg/utils/ptr"
)

// ErrUnavailable is returned when the OS refuses to report power status at
// all. The monitor treats it as tick-local: log, skip, try again next tick.
var ErrUnavailable = errors.New("power status unavailable")

// Prober samples the host power state.
type Prober interface {
	Sample(ctx context.Context) (powerinfo.Snapshot, error)
}

// TelemetryResolver fills in advanced readings for a base snapshot.
// *telemetry.Resolver implements it.
type TelemetryResolver interface {
	Resolve(ctx context.Context, base powerinfo.Snapshot) telemetry.Info
}

// Test seam, reassigned in unit tests.
var batteryGetAll = battery.GetAll

// SystemProbe reads the base power state from the OS battery interface and
// enriches it through the telemetry resolver.
type SystemProbe struct {
	log      logrus.FieldLogger
	resolver TelemetryResolver
}

// NewSystemProbe returns a SystemProbe logging through log.
func NewSystemProbe(log logrus.FieldLogger, resolver TelemetryResolver) *SystemProbe {
	return &SystemProbe{
		log:      log,
		resolver: resolver,
	}
}

// Sample queries the OS once. Hosts without a battery report as AC powered
// at 100% with no advanced telemetry. Enrichment runs only when a battery
// is present and degrades internally instead of failing the sample.
func (p *SystemProbe) Sample(ctx context.Context) (powerinfo.Snapshot, error) {
	batteries, err := batteryGetAll()
	if err != nil {
		if _, partial := err.(battery.Errors); !partial {
			return powerinfo.Snapshot{}, pkgerrors.Wrapf(ErrUnavailable, "querying batteries: %v", err)
		}
		// Per-battery errors still leave usable readings.
		p.log.WithError(err).Debug("battery query reported partial errors")
	}

	if len(batteries) == 0 {
		return powerinfo.Snapshot{
			IsBatteryPresent:  false,
			IsACConnected:     true,
			IsCharging:        false,
			BatteryPercentage: 100,
		}, nil
	}

	bat := batteries[0]
	snap := powerinfo.Snapshot{
		IsBatteryPresent: true,
		// The OS reports Discharging only when running on battery power.
		IsACConnected:     bat.State != battery.Discharging,
		IsCharging:        bat.State == battery.Charging,
		BatteryPercentage: percentage(bat),
	}

	info := p.resolver.Resolve(ctx, snap)
	snap.PowerDrawWatts = ptr.To(info.PowerDrawWatts)
	snap.BatteryCapacityMWh = ptr.To(info.CapacityMWh)
	snap.RemainingTimeMinutes = ptr.To(info.RemainingMinutes)

	rate := info.ChargeRateWatts
	if bat.State == battery.Discharging && rate > 0 {
		rate = -rate
	}
	snap.ChargeRateWatts = ptr.To(rate)

	return snap, nil
}

// percentage derives the charge level from the current and full capacities.
// An unreadable full capacity means the level is unknown, which reports as
// 100 rather than alarming anyone with a bogus 0.
func percentage(bat *battery.Battery) int {
	if bat.Full <= 0 {
		return 100
	}
	pct := int(math.Round(bat.Current / bat.Full * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Package telemetry resolves advanced power readings (draw wattage, design
// capacity, remaining runtime, charge rate) that the OS battery API does not
// expose directly. Sources are consulted in a fixed priority order: the
// system management interface, live performance counters, and finally an
// analytic estimate derived from the charge state. Resolution never fails;
// it degrades.
package telemetry

import (
	"context"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/powerwatch/powerwatch/pkg/metrics"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

// Source identifies which layer of the fallback chain produced a reading.
type Source string

const (
	// SourceManagement means the management interface reported a measured
	// discharge rate.
	SourceManagement Source = "management"
	// SourceCounter means the wattage came from a live performance counter
	// while capacity and runtime still came from the management interface.
	SourceCounter Source = "counter"
	// SourceEstimate means everything was derived analytically.
	SourceEstimate Source = "estimate"
)

// Info is the resolved advanced telemetry for one sample. ChargeRateWatts is
// a magnitude here; the probe applies the charge/discharge sign.
type Info struct {
	PowerDrawWatts   float64 `json:"power_draw_watts"`
	CapacityMWh      int     `json:"capacity_mwh"`
	RemainingMinutes int     `json:"remaining_minutes"`
	ChargeRateWatts  float64 `json:"charge_rate_watts"`
	Source           Source  `json:"source"`
}

// Each external query gets this long before it is abandoned and the next
// fallback layer takes over. The energy report probe alone needs 5 seconds
// of sampling.
const commandTimeout = 10 * time.Second

// runCommand executes a single PowerShell command and returns its stdout.
type runCommand func(ctx context.Context, command string) (string, error)

// Resolver answers advanced telemetry queries through the layered fallback
// chain. Safe for use from a single goroutine at a time.
type Resolver struct {
	log logrus.FieldLogger
	run runCommand

	// breaker stops us from spawning a doomed subprocess every tick on
	// hosts where the management interface is missing entirely.
	breaker *gobreaker.CircuitBreaker
}

// NewResolver returns a Resolver logging through log.
func NewResolver(log logrus.FieldLogger) *Resolver {
	return &Resolver{
		log: log,
		run: runPowerShell,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "management-interface",
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"name": name,
					"from": from.String(),
					"to":   to.String(),
				}).Debug("circuit breaker state changed")
			},
		}),
	}
}

// Resolve returns the best available advanced telemetry for the given base
// snapshot. It never fails: when both live sources are unusable the result
// is an analytic estimate.
func (r *Resolver) Resolve(ctx context.Context, base powerinfo.Snapshot) Info {
	if info, ok := r.fromManagement(ctx); ok {
		metrics.TelemetryResolutionsTotal.WithLabelValues(string(info.Source)).Inc()
		return info
	}

	info := Estimate(base)
	r.log.WithFields(logrus.Fields{
		"watts":     info.PowerDrawWatts,
		"remaining": info.RemainingMinutes,
	}).Debug("estimated power telemetry analytically")
	metrics.TelemetryResolutionsTotal.WithLabelValues(string(info.Source)).Inc()
	return info
}

// fromManagement runs the primary structured query and, when that query had
// to default its wattage, the secondary live probes. ok is false when the
// whole management path produced nothing measured and the caller should
// estimate instead.
func (r *Resolver) fromManagement(ctx context.Context) (Info, bool) {
	out, err := r.queryManagement(ctx)
	if err != nil {
		r.log.WithError(err).Debug("management interface query failed")
		return Info{}, false
	}

	info, defaulted := parseBatteryReport(out)
	if !defaulted {
		r.log.WithField("watts", info.PowerDrawWatts).Trace("management interface reported a measured discharge rate")
		return info, true
	}

	// The wattage was a default, not a measurement. Ask the live counters
	// before trusting anything.
	if watts, ok := r.probeLiveWatts(ctx); ok {
		info.PowerDrawWatts = watts
		info.Source = SourceCounter
		return info, true
	}

	return Info{}, false
}

func (r *Resolver) queryManagement(ctx context.Context) (string, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.run(ctx, batteryReportQuery)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// liveWattsProbes are tried in order until one yields a plausible wattage.
var liveWattsProbes = []string{
	`(Get-Counter '\Battery(*)\Battery Discharge Rate' -ErrorAction SilentlyContinue).CounterSamples.CookedValue`,
	`(Get-Counter '\Processor(_Total)\% Processor Time' -ErrorAction SilentlyContinue).CounterSamples.CookedValue`,
	`powercfg /energy /output temp_energy.html /duration 5 2>$null; if($?){Select-String -Path temp_energy.html -Pattern 'Battery.*[0-9]+.*W' | Select-Object -First 1; Remove-Item temp_energy.html -Force 2>$null}`,
}

func (r *Resolver) probeLiveWatts(ctx context.Context) (float64, bool) {
	for i, probe := range liveWattsProbes {
		out, err := r.run(ctx, probe)
		if err != nil {
			r.log.WithError(err).WithField("probe", i+1).Trace("live power probe failed")
			continue
		}

		if watts, ok := scanWatts(out); ok {
			r.log.WithFields(logrus.Fields{
				"probe": i + 1,
				"watts": watts,
			}).Debug("live power probe succeeded")
			return watts, true
		}
	}

	return 0, false
}

func runPowerShell(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "powershell",
		"-WindowStyle", "Hidden",
		"-NoProfile",
		"-NonInteractive",
		"-ExecutionPolicy", "Bypass",
		"-Command", command,
	)

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

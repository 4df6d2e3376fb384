// Package metrics provides Prometheus metrics for the power monitor daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

var (
	// TicksTotal counts monitor sampling ticks, including failed ones.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerwatch_ticks_total",
		Help: "Total number of monitor sampling ticks",
	})

	// ProbeErrorsTotal counts sampling ticks where the power probe failed.
	ProbeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerwatch_probe_errors_total",
		Help: "Total number of failed power status probes",
	})

	// EventsTotal counts classified power events by kind.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerwatch_events_total",
		Help: "Total number of classified power events",
	}, []string{"kind"})

	// TelemetryResolutionsTotal counts telemetry lookups by the source that
	// ultimately answered them.
	TelemetryResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerwatch_telemetry_resolutions_total",
		Help: "Total number of telemetry resolutions by source",
	}, []string{"source"})

	// BatteryPercentage tracks the last sampled battery charge level.
	BatteryPercentage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerwatch_battery_percentage",
		Help: "Last sampled battery charge percentage",
	})

	// PowerDrawWatts tracks the last resolved system power draw.
	PowerDrawWatts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerwatch_power_draw_watts",
		Help: "Last resolved system power draw in watts",
	})

	// ACConnected tracks whether external power was connected at the last
	// sample (1 connected, 0 on battery).
	ACConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerwatch_ac_connected",
		Help: "Whether external power is connected (1) or not (0)",
	})
)

// ObserveSnapshot records the gauges derived from one power snapshot.
func ObserveSnapshot(snap powerinfo.Snapshot) {
	BatteryPercentage.Set(float64(snap.BatteryPercentage))
	if snap.IsACConnected {
		ACConnected.Set(1)
	} else {
		ACConnected.Set(0)
	}
	if snap.PowerDrawWatts != nil {
		PowerDrawWatts.Set(*snap.PowerDrawWatts)
	}
}

package main

import (
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/config"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

type statusJSON struct {
	Power         statusPowerJSON   `json:"power"`
	Monitoring    statusMonitorJSON `json:"monitoring"`
	Alerts        []statusAlertJSON `json:"alerts"`
	Configuration statusConfigJSON  `json:"configuration"`
}

type statusPowerJSON struct {
	BatteryPresent       bool     `json:"batteryPresent"`
	ACConnected          bool     `json:"acConnected"`
	Charging             bool     `json:"charging"`
	CurrentChargePercent int      `json:"currentChargePercent"`
	State                string   `json:"state"`
	PowerDrawWatts       *float64 `json:"powerDrawWatts"`
	ChargeRateWatts      *float64 `json:"chargeRateWatts"`
	DesignCapacityMwh    *int     `json:"designCapacityMwh"`
	RemainingTimeMinutes *int     `json:"remainingTimeMinutes"`
}

type statusMonitorJSON struct {
	Running                bool       `json:"running"`
	CheckIntervalSeconds   int        `json:"checkIntervalSeconds"`
	LowBatteryThresholdPct int        `json:"lowBatteryThresholdPercent"`
	SamplesLastMinute      int        `json:"samplesLastMinute"`
	NextTelemetryRefresh   *time.Time `json:"nextTelemetryRefresh,omitempty"`
}

type statusAlertJSON struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raisedAt"`
}

type statusConfigJSON struct {
	SoundEnabled       bool               `json:"soundEnabled"`
	AutoDismissAlerts  bool               `json:"autoDismissAlerts"`
	AutoStartup        bool               `json:"autoStartup"`
	AllowNonRootAccess bool               `json:"allowNonRootAccess"`
	TelemetrySchedule  statusScheduleJSON `json:"telemetrySchedule"`
}

type statusScheduleJSON struct {
	Enabled bool   `json:"enabled"`
	Cron    string `json:"cron"`
}

// powerStateString returns a camelCase string for the power state.
func powerStateString(snap *powerinfo.Snapshot) string {
	switch {
	case !snap.IsBatteryPresent:
		return "noBattery"
	case snap.IsCharging:
		return "charging"
	case !snap.IsACConnected:
		return "discharging"
	default:
		return "notCharging"
	}
}

func roundWatts(w *float64) *float64 {
	if w == nil {
		return nil
	}
	r := math.Round(*w*10) / 10
	return &r
}

func printStatusJSON(cmd *cobra.Command, data *statusData, cfg *config.File) error {
	snap := data.snapshot
	cron := cfg.TelemetryCron()

	out := statusJSON{
		Power: statusPowerJSON{
			BatteryPresent:       snap.IsBatteryPresent,
			ACConnected:          snap.IsACConnected,
			Charging:             snap.IsCharging,
			CurrentChargePercent: snap.BatteryPercentage,
			State:                powerStateString(snap),
			PowerDrawWatts:       roundWatts(snap.PowerDrawWatts),
			ChargeRateWatts:      roundWatts(snap.ChargeRateWatts),
			DesignCapacityMwh:    snap.BatteryCapacityMWh,
			RemainingTimeMinutes: snap.RemainingTimeMinutes,
		},
		Monitoring: statusMonitorJSON{
			Running:                data.monitor.Running,
			CheckIntervalSeconds:   data.monitor.CheckIntervalSeconds,
			LowBatteryThresholdPct: data.monitor.LowBatteryThreshold,
			SamplesLastMinute:      data.monitor.SamplesLastMinute,
		},
		Alerts: []statusAlertJSON{},
		Configuration: statusConfigJSON{
			SoundEnabled:       cfg.SoundEnabled(),
			AutoDismissAlerts:  cfg.AutoDismissAlerts(),
			AutoStartup:        cfg.AutoStartup(),
			AllowNonRootAccess: cfg.AllowNonRootAccess(),
			TelemetrySchedule: statusScheduleJSON{
				Enabled: cron != "",
				Cron:    cron,
			},
		},
	}

	if data.monitor.NextTelemetryRefresh != "" {
		if next, err := time.Parse(time.RFC3339, data.monitor.NextTelemetryRefresh); err == nil {
			out.Monitoring.NextTelemetryRefresh = &next
		}
	}

	for _, a := range data.alerts {
		out.Alerts = append(out.Alerts, statusAlertJSON{
			ID:       a.ID,
			Message:  a.Message,
			RaisedAt: time.Unix(a.RaisedAt, 0),
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/alert"
	"github.com/powerwatch/powerwatch/pkg/client"
	"github.com/powerwatch/powerwatch/pkg/config"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

type statusData struct {
	snapshot *powerinfo.Snapshot
	monitor  *client.MonitorStatus
	alerts   []alert.Alert
	config   *config.RawFileConfig
}

var apiClient *client.Client

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	snap, err := apiClient.GetSnapshot(false)
	if err != nil {
		return nil, fmt.Errorf("failed to get power snapshot: %w", err)
	}

	st, err := apiClient.GetMonitorStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor status: %w", err)
	}

	active, err := apiClient.GetAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to get active alerts: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		snapshot: snap,
		monitor:  st,
		alerts:   active,
		config:   conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	jsonOutput := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of powerwatch",
		Long:    `Get the power state, monitoring status, active alerts, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Get various info first.
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			conf := config.NewFileFromConfig(data.config, "")

			if jsonOutput {
				return printStatusJSON(cmd, data, conf)
			}

			snap := data.snapshot

			// Power status.
			cmd.Println(bold("Power status:"))

			if !snap.IsBatteryPresent {
				cmd.Println("  Battery present: " + bool2Text(false))
				cmd.Println("    No battery was found, so this host reports as permanently on AC power.")
			} else {
				state := "on AC power"
				switch {
				case snap.IsCharging:
					state = color.GreenString("charging")
				case !snap.IsACConnected:
					state = color.YellowString("on battery")
				}
				cmd.Printf("  Current charge: %s\n", bold("%d%%", snap.BatteryPercentage))
				cmd.Printf("  State: %s\n", bold("%s", state))

				if snap.ChargeRateWatts != nil {
					watts := *snap.ChargeRateWatts
					var rateStr string
					switch {
					case watts > 0:
						rateStr = color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", watts)
					case watts < 0:
						rateStr = color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", watts)
					default:
						rateStr = bold("%+.1f W", watts)
					}
					cmd.Printf("  Charge rate: %s\n", rateStr)
				}
				if snap.PowerDrawWatts != nil {
					cmd.Printf("  Power draw: %s\n", bold("%.1f W", *snap.PowerDrawWatts))
				}
				if snap.BatteryCapacityMWh != nil {
					cmd.Printf("  Design capacity: %s\n", bold("%d mWh", *snap.BatteryCapacityMWh))
				}
				if !snap.IsACConnected && snap.RemainingTimeMinutes != nil && *snap.RemainingTimeMinutes > 0 {
					cmd.Printf("  Estimated runtime: %s\n", bold("~%s", formatMinutes(*snap.RemainingTimeMinutes)))
				}
			}

			cmd.Println()

			// Monitoring.
			cmd.Println(bold("Monitoring:"))
			cmd.Println("  Running: " + bool2Text(data.monitor.Running))
			if !data.monitor.Running {
				cmd.Println("    Monitoring is paused. No alerts will be raised until you run \"powerwatch resume\".")
			}
			cmd.Printf("  Check interval: %s\n", bold("%ds", data.monitor.CheckIntervalSeconds))
			cmd.Printf("  Low battery threshold: %s\n", bold("%d%%", data.monitor.LowBatteryThreshold))
			if data.monitor.NextTelemetryRefresh != "" {
				if next, err := time.Parse(time.RFC3339, data.monitor.NextTelemetryRefresh); err == nil {
					cmd.Printf("  Next telemetry refresh: %s\n", bold("%s", next.Local().Format(time.DateTime)))
				}
			}

			cmd.Println()

			// Alerts.
			cmd.Println(bold("Active alerts:"))
			if len(data.alerts) == 0 {
				cmd.Println("  None.")
			}
			for _, a := range data.alerts {
				cmd.Printf("  %s: %s (raised %s)\n",
					bold("%s", a.ID),
					a.Message,
					time.Unix(a.RaisedAt, 0).Local().Format(time.Kitchen))
			}

			cmd.Println()

			// Config.
			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Alert sound: %s\n", bool2Text(conf.SoundEnabled()))
			cmd.Printf("  Auto dismiss alerts: %s\n", bool2Text(conf.AutoDismissAlerts()))
			cmd.Printf("  Start tray at login: %s\n", bool2Text(conf.AutoStartup()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
			if cron := conf.TelemetryCron(); cron != "" {
				cmd.Printf("  Telemetry refresh schedule: %s\n", bold("%s", cron))
			} else {
				cmd.Printf("  Telemetry refresh schedule: %s\n", bold("disabled"))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func formatMinutes(total int) string {
	if total >= 60 {
		return fmt.Sprintf("%dh %dm", total/60, total%60)
	}
	return fmt.Sprintf("%dm", total)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewThresholdCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "threshold [percentage]",
		Short:   "Set low battery threshold",
		GroupID: gBasic,
		Long: `Set low battery threshold.

This is a percentage from 0 to 100.

When the battery charge drops to or below this percentage while discharging, a low battery alert is raised. The alert clears once the charge rises above the threshold again, so brief fluctuations around the boundary do not flap.

Setting the threshold to 0 effectively disables low battery alerts.

Without an argument, shows the current threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				threshold, err := apiClient.GetLowBatteryThreshold()
				if err != nil {
					return fmt.Errorf("failed to get threshold: %v", err)
				}
				cmd.Printf("Low battery threshold: %d%%\n", threshold)
				return nil
			}

			threshold, err := parseIntArg(args, "threshold")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetLowBatteryThreshold(threshold)
			if err != nil {
				return fmt.Errorf("failed to set threshold: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set low battery threshold to %d%%", threshold)

			return nil
		},
	}
}

func NewIntervalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "interval [seconds]",
		Short:   "Set how often the power state is sampled",
		GroupID: gBasic,
		Long: `Set how often the power state is sampled.

This is a number of seconds from 1 to 3600. Shorter intervals detect unplug events faster at the cost of slightly more CPU wakeups. The default of 10 seconds is a good tradeoff for most machines.

Without an argument, shows the current interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				seconds, err := apiClient.GetCheckInterval()
				if err != nil {
					return fmt.Errorf("failed to get check interval: %v", err)
				}
				cmd.Printf("Check interval: %ds\n", seconds)
				return nil
			}

			seconds, err := parseIntArg(args, "interval")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetCheckInterval(seconds)
			if err != nil {
				return fmt.Errorf("failed to set check interval: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set check interval to %ds", seconds)

			return nil
		},
	}
}

func NewSoundCommand() *cobra.Command {
	return newEnableDisableCommand(
		"sound",
		"Set whether alerts play a sound",
		`Set whether alerts play a sound.

When enabled, raising an alert (power disconnected, low battery) plays the system alert sound in addition to showing a notification. Dismissals are always silent.`,
		func() (string, error) { return apiClient.SetSound(true) },
		func() (string, error) { return apiClient.SetSound(false) },
		func() (bool, error) { return apiClient.GetSound() },
	)
}

func NewAutoDismissCommand() *cobra.Command {
	return newEnableDisableCommand(
		"auto-dismiss",
		"Set whether alerts dismiss themselves when the cause clears",
		`Set whether alerts dismiss themselves when the cause clears.

When enabled, a power disconnected alert is dismissed automatically as soon as AC power is restored. When disabled, the alert stays up until you dismiss it yourself, which is useful if you tend to miss short notifications.

Low battery alerts always dismiss once the charge recovers above the threshold, regardless of this setting.`,
		func() (string, error) { return apiClient.SetAutoDismiss(true) },
		func() (string, error) { return apiClient.SetAutoDismiss(false) },
		func() (bool, error) { return apiClient.GetAutoDismiss() },
	)
}

func NewPauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "pause",
		Short:   "Pause monitoring",
		GroupID: gBasic,
		Long: `Pause monitoring.

Sampling stops and all open alerts are dismissed. The daemon keeps running and still answers queries, it just stops watching for transitions. Use "powerwatch resume" to start monitoring again.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.PauseMonitoring()
			if err != nil {
				return fmt.Errorf("failed to pause monitoring: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewResumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "resume",
		Short:   "Resume monitoring",
		GroupID: gBasic,
		Long: `Resume monitoring.

Sampling restarts with the configured check interval and threshold. The first sample classifies the current state, so if you resume while already unplugged or below the threshold, the matching alert is raised immediately.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.ResumeMonitoring()
			if err != nil {
				return fmt.Errorf("failed to resume monitoring: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewAlertsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alerts",
		Short:   "List or dismiss active alerts",
		GroupID: gBasic,
		Long: `List or dismiss active alerts.

Without a subcommand, lists the alerts the daemon currently has open.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			active, err := apiClient.GetAlerts()
			if err != nil {
				return fmt.Errorf("failed to get active alerts: %v", err)
			}

			if len(active) == 0 {
				cmd.Println("No active alerts.")
				return nil
			}

			for _, a := range active {
				cmd.Printf("  %s: %s (battery %d%%)\n", a.ID, a.Message, a.Snapshot.BatteryPercentage)
			}

			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "dismiss [id]",
			Short: "Dismiss an alert, or all alerts if no id is given",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				id := ""
				if len(args) > 0 {
					id = args[0]
				}

				ret, err := apiClient.DismissAlerts(id)
				if err != nil {
					return fmt.Errorf("failed to dismiss alerts: %v", err)
				}

				if ret != "" {
					logrus.Infof("daemon responded: %s", ret)
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "test-sound",
			Short: "Play the alert sound once to check it works",
			RunE: func(_ *cobra.Command, _ []string) error {
				ret, err := apiClient.TestSound()
				if err != nil {
					return fmt.Errorf("failed to test alert sound: %v", err)
				}

				if ret != "" {
					logrus.Infof("daemon responded: %s", ret)
				}

				return nil
			},
		},
	)

	return cmd
}

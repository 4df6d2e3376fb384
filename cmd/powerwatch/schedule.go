package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule [cron-expression]",
		Aliases: []string{"sch", "sche", "sched"},
		Short:   "Manage the scheduled telemetry refresh",
		Long: `Manage the scheduled telemetry refresh.

Between samples the daemon serves cached telemetry. A schedule forces a full resolution at fixed times, which keeps the cache warm on hosts where live telemetry queries are slow.

The schedule command can be used in multiple ways:
  powerwatch schedule 'minute hour day month weekday' Set schedule with cron expression
  powerwatch schedule disable                         Disable the schedule
  powerwatch schedule show                            Show current schedule`,
		Example: `  powerwatch schedule '*/30 * * * *' (every 30 minutes)
  powerwatch schedule '0 * * * *' (at the start of every hour)
  powerwatch schedule '@hourly' (same thing)`,
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no arguments, show the current schedule
			if len(args) == 0 {
				return runScheduleShow(cmd)
			}
			// Otherwise, treat as a cron expression to set
			return runScheduleSet(cmd, args[0])
		},
	}

	// Add subcommands
	cmd.AddCommand(
		newScheduleDisableCommand(),
		newScheduleShowCommand(),
	)

	return cmd
}

func newScheduleDisableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable the telemetry refresh schedule",
		Long:  "Disable the scheduled telemetry refresh.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleDisable(cmd)
		},
	}
	return cmd
}

func newScheduleShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current telemetry refresh schedule",
		Long:  "Show the current telemetry refresh schedule and the next run time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleShow(cmd)
		},
	}
	return cmd
}

func runScheduleSet(cmd *cobra.Command, cronExpr string) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}

	if _, err := apiClient.SetTelemetryCron(cronExpr); err != nil {
		return err
	}

	cmd.Println("Telemetry refresh scheduled.")
	printNextRun(cmd)
	return nil
}

func runScheduleDisable(cmd *cobra.Command) error {
	if _, err := apiClient.SetTelemetryCron(""); err != nil {
		return err
	}
	cmd.Println("Telemetry refresh schedule disabled.")
	return nil
}

func runScheduleShow(cmd *cobra.Command) error {
	expr, err := apiClient.GetTelemetryCron()
	if err != nil {
		return err
	}

	if expr == "" {
		cmd.Println("Telemetry refresh schedule is not set.")
		return nil
	}

	cmd.Printf("Schedule: %s\n", expr)
	printNextRun(cmd)
	return nil
}

func printNextRun(cmd *cobra.Command) {
	st, err := apiClient.GetMonitorStatus()
	if err != nil || st.NextTelemetryRefresh == "" {
		return
	}
	if next, err := time.Parse(time.RFC3339, st.NextTelemetryRefresh); err == nil {
		cmd.Printf("Next run: %s\n", next.Local().Format(time.DateTime))
	}
}

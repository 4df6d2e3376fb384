package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/telemetry"
)

func NewTelemetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "telemetry",
		GroupID: gAdvanced,
		Short:   "Show resolved advanced power telemetry",
		Long: `Show resolved advanced power telemetry.

Advanced readings (power draw, design capacity, remaining runtime, charge rate) are resolved through a fallback chain: the management interface first, live performance counters second, and an analytic estimate last. The source field tells you which layer answered.

An "estimate" source means the host exposes no measured readings and the numbers are derived from the charge level alone, so take them with a grain of salt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := apiClient.GetTelemetry()
			if err != nil {
				return fmt.Errorf("failed to get power telemetry: %w", err)
			}

			printTelemetry(cmd, info)
			return nil
		},
	}
}

func printTelemetry(cmd *cobra.Command, info *telemetry.Info) {
	source := string(info.Source)
	switch info.Source {
	case telemetry.SourceManagement:
		source = color.GreenString(source)
	case telemetry.SourceCounter:
		source = color.YellowString(source)
	case telemetry.SourceEstimate:
		source = color.RedString(source)
	}

	cmd.Printf("Power draw: %s\n", bold("%.1f W", info.PowerDrawWatts))
	cmd.Printf("Charge rate: %s\n", bold("%.1f W", info.ChargeRateWatts))
	cmd.Printf("Design capacity: %s\n", bold("%d mWh", info.CapacityMWh))
	cmd.Printf("Remaining runtime: %s\n", bold("~%s", formatMinutes(info.RemainingMinutes)))
	cmd.Printf("Source: %s\n", source)
}

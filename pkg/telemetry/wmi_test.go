package telemetry

import (
	"reflect"
	"testing"
)

func TestParseBatteryReport(t *testing.T) {
	tests := []struct {
		name          string
		out           string
		want          Info
		wantDefaulted bool
	}{
		{
			name: "measured discharge rate",
			out:  `{"EstimatedChargeRemaining":76,"DesignCapacity":57720,"EstimatedRunTime":178,"DischargeRate":12500}`,
			want: Info{
				PowerDrawWatts:   12.5,
				CapacityMWh:      57720,
				RemainingMinutes: 178,
				ChargeRateWatts:  12.5,
				Source:           SourceManagement,
			},
		},
		{
			name: "measured rate equal to the default wattage is still a measurement",
			out:  `{"DesignCapacity":57720,"EstimatedRunTime":178,"DischargeRate":15000}`,
			want: Info{
				PowerDrawWatts:   15,
				CapacityMWh:      57720,
				RemainingMinutes: 178,
				ChargeRateWatts:  15,
				Source:           SourceManagement,
			},
		},
		{
			name: "null discharge rate",
			out:  `{"DesignCapacity":57720,"EstimatedRunTime":178,"DischargeRate":null}`,
			want: Info{
				PowerDrawWatts:   15,
				CapacityMWh:      57720,
				RemainingMinutes: 178,
				ChargeRateWatts:  15,
				Source:           SourceManagement,
			},
			wantDefaulted: true,
		},
		{
			name: "empty record",
			out:  `{}`,
			want: Info{
				PowerDrawWatts:   15,
				CapacityMWh:      50000,
				RemainingMinutes: 240,
				ChargeRateWatts:  15,
				Source:           SourceManagement,
			},
			wantDefaulted: true,
		},
		{
			name: "runtime above a day is discarded",
			out:  `{"DesignCapacity":57720,"EstimatedRunTime":71582788,"DischargeRate":12500}`,
			want: Info{
				PowerDrawWatts:   12.5,
				CapacityMWh:      57720,
				RemainingMinutes: 240,
				ChargeRateWatts:  12.5,
				Source:           SourceManagement,
			},
		},
		{
			name: "negative runtime is discarded",
			out:  `{"EstimatedRunTime":-1,"DischargeRate":12500}`,
			want: Info{
				PowerDrawWatts:   12.5,
				CapacityMWh:      50000,
				RemainingMinutes: 240,
				ChargeRateWatts:  12.5,
				Source:           SourceManagement,
			},
		},
		{
			name: "zero runtime is kept",
			out:  `{"EstimatedRunTime":0,"DischargeRate":12500}`,
			want: Info{
				PowerDrawWatts:   12.5,
				CapacityMWh:      50000,
				RemainingMinutes: 0,
				ChargeRateWatts:  12.5,
				Source:           SourceManagement,
			},
		},
		{
			name: "sub-noise rate falls back to the default wattage",
			out:  `{"DischargeRate":50}`,
			want: Info{
				PowerDrawWatts:   15,
				CapacityMWh:      50000,
				RemainingMinutes: 240,
				ChargeRateWatts:  0.05,
				Source:           SourceManagement,
			},
			wantDefaulted: true,
		},
		{
			name: "zero rate falls back to the default wattage",
			out:  `{"DischargeRate":0}`,
			want: Info{
				PowerDrawWatts:   15,
				CapacityMWh:      50000,
				RemainingMinutes: 240,
				ChargeRateWatts:  0,
				Source:           SourceManagement,
			},
			wantDefaulted: true,
		},
		{
			name: "negative rate keeps its sign on the charge rate",
			out:  `{"DischargeRate":-8000}`,
			want: Info{
				PowerDrawWatts:   15,
				CapacityMWh:      50000,
				RemainingMinutes: 240,
				ChargeRateWatts:  -8,
				Source:           SourceManagement,
			},
			wantDefaulted: true,
		},
		{
			name: "array output uses the first battery",
			out:  `[{"DesignCapacity":41000,"DischargeRate":9000},{"DesignCapacity":57720,"DischargeRate":15000}]`,
			want: Info{
				PowerDrawWatts:   9,
				CapacityMWh:      41000,
				RemainingMinutes: 240,
				ChargeRateWatts:  9,
				Source:           SourceManagement,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted := parseBatteryReport(tt.out)
			if defaulted != tt.wantDefaulted {
				t.Fatalf("parseBatteryReport() defaulted = %v, want %v", defaulted, tt.wantDefaulted)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseBatteryReport() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

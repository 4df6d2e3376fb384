package telemetry

import (
	"testing"

	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

func TestEstimate(t *testing.T) {
	type args struct {
		charging bool
		pct      int
	}
	tests := []struct {
		name          string
		args          args
		wantWatts     float64
		wantRemaining int
	}{
		{name: "fast charge at empty", args: args{charging: true, pct: 0}, wantWatts: 25},
		{name: "fast charge at 20", args: args{charging: true, pct: 20}, wantWatts: 25},
		{name: "normal charge at 21", args: args{charging: true, pct: 21}, wantWatts: 20},
		{name: "normal charge at 80", args: args{charging: true, pct: 80}, wantWatts: 20},
		{name: "trickle charge at 81", args: args{charging: true, pct: 81}, wantWatts: 10},
		{name: "trickle charge at full", args: args{charging: true, pct: 100}, wantWatts: 10},
		{name: "discharge at half", args: args{charging: false, pct: 50}, wantWatts: 15, wantRemaining: 100},
		{name: "discharge at full", args: args{charging: false, pct: 100}, wantWatts: 15, wantRemaining: 200},
		{name: "discharge at empty", args: args{charging: false, pct: 0}, wantWatts: 15, wantRemaining: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(powerinfo.Snapshot{
				IsBatteryPresent:  true,
				IsCharging:        tt.args.charging,
				BatteryPercentage: tt.args.pct,
			})
			if got.PowerDrawWatts != tt.wantWatts {
				t.Errorf("Estimate() watts = %v, want %v", got.PowerDrawWatts, tt.wantWatts)
			}
			if got.RemainingMinutes != tt.wantRemaining {
				t.Errorf("Estimate() remaining = %v, want %v", got.RemainingMinutes, tt.wantRemaining)
			}
			if got.CapacityMWh != defaultCapacityMWh {
				t.Errorf("Estimate() capacity = %v, want %v", got.CapacityMWh, defaultCapacityMWh)
			}
			if got.ChargeRateWatts != tt.wantWatts {
				t.Errorf("Estimate() charge rate = %v, want %v", got.ChargeRateWatts, tt.wantWatts)
			}
			if got.Source != SourceEstimate {
				t.Errorf("Estimate() source = %v, want %v", got.Source, SourceEstimate)
			}
		})
	}
}

func TestEstimateStaysPlausible(t *testing.T) {
	for _, charging := range []bool{true, false} {
		for pct := 0; pct <= 100; pct++ {
			got := Estimate(powerinfo.Snapshot{
				IsBatteryPresent:  true,
				IsCharging:        charging,
				BatteryPercentage: pct,
			})
			if got.PowerDrawWatts <= 0 || got.PowerDrawWatts > 200 {
				t.Fatalf("Estimate(charging=%v, pct=%d) watts = %v, out of (0, 200]", charging, pct, got.PowerDrawWatts)
			}
			if got.RemainingMinutes < 0 || got.RemainingMinutes > 1440 {
				t.Fatalf("Estimate(charging=%v, pct=%d) remaining = %v, out of [0, 1440]", charging, pct, got.RemainingMinutes)
			}
		}
	}
}

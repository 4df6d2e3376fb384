package powerinfo

import (
	"reflect"
	"testing"

	"github.com/powerwatch/powerwatch/pkg/utils/ptr"
)

func snap(present, ac, charging bool, pct int) Snapshot {
	return Snapshot{
		IsBatteryPresent:  present,
		IsACConnected:     ac,
		IsCharging:        charging,
		BatteryPercentage: pct,
	}
}

func TestClassify(t *testing.T) {
	type args struct {
		prev      Snapshot
		cur       Snapshot
		threshold int
	}
	tests := []struct {
		name string
		args args
		want []Event
	}{
		{
			name: "ac unplugged",
			args: args{
				prev:      snap(true, true, true, 50),
				cur:       snap(true, false, false, 50),
				threshold: 20,
			},
			want: []Event{{Kind: EventACDisconnected}},
		},
		{
			name: "ac plugged in",
			args: args{
				prev:      snap(true, false, false, 50),
				cur:       snap(true, true, true, 50),
				threshold: 20,
			},
			want: []Event{{Kind: EventACConnected}},
		},
		{
			name: "battery drops below threshold",
			args: args{
				prev:      snap(true, false, false, 25),
				cur:       snap(true, false, false, 15),
				threshold: 20,
			},
			want: []Event{{Kind: EventBatteryLow, Percentage: 15}},
		},
		{
			name: "battery recovers above threshold",
			args: args{
				prev:      snap(true, true, true, 15),
				cur:       snap(true, true, true, 25),
				threshold: 20,
			},
			want: []Event{{Kind: EventBatteryNormal, Percentage: 25}},
		},
		{
			name: "battery lands exactly on threshold",
			args: args{
				prev:      snap(true, false, false, 21),
				cur:       snap(true, false, false, 20),
				threshold: 20,
			},
			want: []Event{{Kind: EventBatteryLow, Percentage: 20}},
		},
		{
			name: "no repeat while staying low",
			args: args{
				prev:      snap(true, false, false, 15),
				cur:       snap(true, false, false, 10),
				threshold: 20,
			},
			want: nil,
		},
		{
			name: "no event while staying normal",
			args: args{
				prev:      snap(true, true, true, 80),
				cur:       snap(true, true, true, 81),
				threshold: 20,
			},
			want: nil,
		},
		{
			name: "identical snapshots",
			args: args{
				prev:      snap(true, false, false, 15),
				cur:       snap(true, false, false, 15),
				threshold: 20,
			},
			want: nil,
		},
		{
			name: "ac edge and battery edge in one tick",
			args: args{
				prev:      snap(true, true, true, 25),
				cur:       snap(true, false, false, 15),
				threshold: 20,
			},
			want: []Event{
				{Kind: EventACDisconnected},
				{Kind: EventBatteryLow, Percentage: 15},
			},
		},
		{
			name: "no battery suppresses battery events",
			args: args{
				prev:      snap(false, true, false, 100),
				cur:       snap(false, true, false, 0),
				threshold: 20,
			},
			want: nil,
		},
		{
			name: "ac edge still reported without battery",
			args: args{
				prev:      snap(false, true, false, 100),
				cur:       snap(false, false, false, 100),
				threshold: 20,
			},
			want: []Event{{Kind: EventACDisconnected}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.args.prev, tt.args.cur, tt.args.threshold); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifySameSnapshotIsEmpty(t *testing.T) {
	states := []Snapshot{
		snap(true, true, true, 100),
		snap(true, false, false, 20),
		snap(true, false, false, 0),
		snap(false, true, false, 100),
	}
	for _, s := range states {
		for _, threshold := range []int{0, 20, 100} {
			if got := Classify(s, s, threshold); len(got) != 0 {
				t.Errorf("Classify(s, s, %d) = %v, want no events", threshold, got)
			}
		}
	}
}

func TestInitialEvent(t *testing.T) {
	type args struct {
		cur       Snapshot
		threshold int
	}
	tests := []struct {
		name   string
		args   args
		want   Event
		wantOK bool
	}{
		{
			name:   "low battery outranks disconnected ac",
			args:   args{cur: snap(true, false, false, 15), threshold: 20},
			want:   Event{Kind: EventBatteryLow, Percentage: 15},
			wantOK: true,
		},
		{
			name:   "low battery even on ac",
			args:   args{cur: snap(true, true, true, 15), threshold: 20},
			want:   Event{Kind: EventBatteryLow, Percentage: 15},
			wantOK: true,
		},
		{
			name:   "on battery power with normal level",
			args:   args{cur: snap(true, false, false, 60), threshold: 20},
			want:   Event{Kind: EventACDisconnected},
			wantOK: true,
		},
		{
			name:   "on ac with normal level",
			args:   args{cur: snap(true, true, true, 60), threshold: 20},
			wantOK: false,
		},
		{
			name:   "no battery",
			args:   args{cur: snap(false, true, false, 100), threshold: 20},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InitialEvent(tt.args.cur, tt.args.threshold)
			if ok != tt.wantOK {
				t.Fatalf("InitialEvent() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InitialEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotChangedFrom(t *testing.T) {
	base := snap(true, false, false, 50)

	same := base
	if base.ChangedFrom(same) {
		t.Errorf("identical snapshots should not be a change")
	}

	pct := base
	pct.BatteryPercentage = 49
	if !pct.ChangedFrom(base) {
		t.Errorf("percentage change should be a change")
	}

	withDraw := base
	withDraw.PowerDrawWatts = ptr.To(12.5)
	if !withDraw.ChangedFrom(base) {
		t.Errorf("power draw appearing should be a change")
	}
	if !base.ChangedFrom(withDraw) {
		t.Errorf("power draw disappearing should be a change")
	}

	sameDraw := base
	sameDraw.PowerDrawWatts = ptr.To(12.5)
	otherDraw := base
	otherDraw.PowerDrawWatts = ptr.To(12.5)
	if sameDraw.ChangedFrom(otherDraw) {
		t.Errorf("equal power draw should not be a change")
	}

	movedDraw := base
	movedDraw.PowerDrawWatts = ptr.To(13.0)
	if !movedDraw.ChangedFrom(sameDraw) {
		t.Errorf("power draw moving should be a change")
	}

	flipped := base
	flipped.IsCharging = true
	if flipped.ChangedFrom(base) {
		t.Errorf("charging flag alone should not be a change")
	}
}

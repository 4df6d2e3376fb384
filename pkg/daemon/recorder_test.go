package daemon

import (
	"testing"
	"time"
)

func TestSampleRecorder_RecentCount(t *testing.T) {
	now := time.Now()

	type fields struct {
		maxRecordCount int
		sampleTimes    []time.Time
	}
	type args struct {
		d time.Duration
	}
	tests := []struct {
		name   string
		fields fields
		args   args
		want   int
	}{
		{
			name: "empty recorder",
			fields: fields{
				maxRecordCount: 10,
			},
			args: args{d: time.Minute},
			want: 0,
		},
		{
			name: "all within window",
			fields: fields{
				maxRecordCount: 10,
				sampleTimes: []time.Time{
					now.Add(-time.Second * 30),
					now.Add(-time.Second * 20),
					now.Add(-time.Second * 10),
				},
			},
			args: args{d: time.Second * 40},
			want: 3,
		},
		{
			name: "old samples excluded",
			fields: fields{
				maxRecordCount: 10,
				sampleTimes: []time.Time{
					now.Add(-time.Second * 70),
					now.Add(-time.Second * 30),
					now.Add(-time.Second * 10),
				},
			},
			args: args{d: time.Second * 50},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &sampleRecorder{
				maxRecordCount: tt.fields.maxRecordCount,
				sampleTimes:    tt.fields.sampleTimes,
			}
			if got := r.recentCount(now, tt.args.d); got != tt.want {
				t.Errorf("recentCount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleRecorder_RollingWindow(t *testing.T) {
	r := newSampleRecorder(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		r.add(base.Add(time.Duration(i) * time.Second))
	}

	if len(r.sampleTimes) != 3 {
		t.Fatalf("recorded samples = %d, want capped at 3", len(r.sampleTimes))
	}

	gap, ok := r.gapSince(base.Add(10 * time.Second))
	if !ok {
		t.Fatal("gapSince() reported no records")
	}
	if gap != 6*time.Second {
		t.Errorf("gapSince() = %v, want 6s from the newest record", gap)
	}
}

func TestSampleRecorder_GapSinceEmpty(t *testing.T) {
	r := newSampleRecorder(3)
	if _, ok := r.gapSince(time.Now()); ok {
		t.Fatal("gapSince() on empty recorder reported a record")
	}
}

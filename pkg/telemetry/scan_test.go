package telemetry

import "testing"

func TestExtractValue(t *testing.T) {
	type args struct {
		s   string
		key string
	}
	tests := []struct {
		name   string
		args   args
		want   float64
		wantOK bool
	}{
		{
			name:   "plain object",
			args:   args{s: `{"DesignCapacity":45000,"DischargeRate":12000}`, key: "DesignCapacity"},
			want:   45000,
			wantOK: true,
		},
		{
			name: "pretty printed output",
			args: args{s: "{\r\n    \"DesignCapacity\":  57720,\r\n    \"EstimatedRunTime\":  178\r\n}", key: "EstimatedRunTime"},
			want:   178,
			wantOK: true,
		},
		{
			name:   "decimal value",
			args:   args{s: `{"DischargeRate":123.45}`, key: "DischargeRate"},
			want:   123.45,
			wantOK: true,
		},
		{
			name:   "negative value",
			args:   args{s: `{"DischargeRate":-2500}`, key: "DischargeRate"},
			want:   -2500,
			wantOK: true,
		},
		{
			name:   "null value",
			args:   args{s: `{"DischargeRate":null,"EstimatedRunTime":178}`, key: "DischargeRate"},
			wantOK: false,
		},
		{
			name:   "missing key",
			args:   args{s: `{"DesignCapacity":45000}`, key: "DischargeRate"},
			wantOK: false,
		},
		{
			name:   "quoted number",
			args:   args{s: `{"DischargeRate":"12000"}`, key: "DischargeRate"},
			want:   12000,
			wantOK: true,
		},
		{
			name:   "array output takes first record",
			args:   args{s: `[{"DischargeRate":9000},{"DischargeRate":15000}]`, key: "DischargeRate"},
			want:   9000,
			wantOK: true,
		},
		{
			name:   "no numeric run after key",
			args:   args{s: `{"DischargeRate":}`, key: "DischargeRate"},
			wantOK: false,
		},
		{
			name:   "garbled numeric run",
			args:   args{s: `{"DischargeRate":1.2.3}`, key: "DischargeRate"},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractValue(tt.args.s, tt.args.key)
			if ok != tt.wantOK {
				t.Fatalf("extractValue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("extractValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanWatts(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		want   float64
		wantOK bool
	}{
		{
			name:   "bare number line",
			out:    "25.5\r\n",
			want:   25.5,
			wantOK: true,
		},
		{
			name:   "skips implausible then accepts",
			out:    "0\n householder \n350\n42.1\n",
			want:   42.1,
			wantOK: true,
		},
		{
			name:   "watt marker line",
			out:    "Battery Discharge Rate: 18.2 W\n",
			want:   18.2,
			wantOK: true,
		},
		{
			name:   "watt marker glued to the number",
			out:    "Power drain measured: 33.7W\n",
			want:   33.7,
			wantOK: true,
		},
		{
			name:   "watt marker but implausible value",
			out:    "Battery drain 350 W\n",
			wantOK: false,
		},
		{
			name:   "negative value rejected",
			out:    "-5\n",
			wantOK: false,
		},
		{
			name:   "zero rejected",
			out:    "0\n0.0\n",
			wantOK: false,
		},
		{
			name:   "empty output",
			out:    "\n\n",
			wantOK: false,
		},
		{
			name:   "no numbers at all",
			out:    "The system could not find the counter.\n",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scanWatts(tt.out)
			if ok != tt.wantOK {
				t.Fatalf("scanWatts() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("scanWatts() = %v, want %v", got, tt.want)
			}
		})
	}
}

package runner

import (
	"testing"
	"time"
)

func TestLimitsValidate(t *testing.T) {
	for _, tc := range []struct {
		name  string
		l     Limits
		field string
	}{
		{name: "zero limits", l: Limits{}},
		{name: "all set", l: Limits{Memory: 1 << 20, CPUTime: time.Second, WallTime: time.Minute}},
		{name: "negative cpu", l: Limits{CPUTime: -time.Second}, field: "cpu_time"},
		{name: "sub-second cpu", l: Limits{CPUTime: 100 * time.Millisecond}, field: "cpu_time"},
		{name: "negative wall", l: Limits{WallTime: -time.Second}, field: "wall_time"},
		{name: "negative grace", l: Limits{GracePeriod: -time.Second}, field: "grace_period"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.l.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tc.field {
				t.Errorf("Validate() field = %q, want %q", ce.Field, tc.field)
			}
		})
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	if got := (Limits{}).WithDefaults().GracePeriod; got != DefaultGracePeriod {
		t.Errorf("WithDefaults() grace = %v, want %v", got, DefaultGracePeriod)
	}
	if got := (Limits{GracePeriod: 5 * time.Second}).WithDefaults().GracePeriod; got != 5*time.Second {
		t.Errorf("WithDefaults() grace = %v, want 5s", got)
	}
}

func TestParseTime(t *testing.T) {
	for _, tc := range []struct {
		str  string
		want time.Duration
		err  bool
	}{
		{str: "90", want: 90 * time.Second},
		{str: "1.5", want: 1500 * time.Millisecond},
		{str: "30s", want: 30 * time.Second},
		{str: "2m", want: 2 * time.Minute},
		{str: "1.5h", want: 90 * time.Minute},
		{str: "", err: true},
		{str: "-5", err: true},
		{str: "-5s", err: true},
		{str: "fast", err: true},
	} {
		got, err := ParseTime(tc.str)
		if tc.err {
			if err == nil {
				t.Errorf("ParseTime(%q) expected error, got %v", tc.str, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTime(%q) unexpected error: %v", tc.str, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTime(%q) = %v, want %v", tc.str, got, tc.want)
		}
	}
}

package model

import "testing"

func TestRateFor(t *testing.T) {
	tests := []struct {
		duration string
		want     float64
	}{
		{DurationHourly, 50},
		{DurationDaily, 500},
		{DurationWeekly, 3000},
		{"UNKNOWN", 50}, // falls back to the hourly rate
		{"", 50},
	}
	for _, tt := range tests {
		if got := RateFor(tt.duration); got != tt.want {
			t.Errorf("RateFor(%q) = %v, want %v", tt.duration, got, tt.want)
		}
	}
}

package utils

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{"same point", 12.9716, 77.5946, 12.9716, 77.5946, 0},
		{"one degree of latitude", 0, 0, 1, 0, 111.19},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111.19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if got != tt.want {
				t.Errorf("HaversineKm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := HaversineKm(12.9716, 77.5946, 13.0827, 80.2707)
	b := HaversineKm(13.0827, 80.2707, 12.9716, 77.5946)
	if a != b {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
	if a <= 0 {
		t.Errorf("expected positive distance, got %v", a)
	}
}

func TestHaversineKmRounded(t *testing.T) {
	d := HaversineKm(12.9716, 77.5946, 13.0827, 80.2707)
	if d*100 != math.Trunc(d*100) {
		t.Errorf("distance %v not rounded to two decimals", d)
	}
}

package model

import (
	"testing"
	"time"
)

func TestInvoiceTotal(t *testing.T) {
	tests := []struct {
		name                        string
		parts, labor, tax, discount float64
		want                        float64
		wantErr                     bool
	}{
		{"plain sum", 100, 200, 30, 0, 330, false},
		{"with discount", 100, 200, 30, 50, 280, false},
		{"discount equals sum", 100, 200, 30, 330, 0, false},
		{"all zero", 0, 0, 0, 0, 0, false},
		{"negative parts", -1, 0, 0, 0, 0, true},
		{"negative labor", 0, -1, 0, 0, 0, true},
		{"negative tax", 0, 0, -1, 0, 0, true},
		{"negative discount", 0, 0, 0, -1, 0, true},
		{"discount exceeds sum", 100, 0, 0, 101, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InvoiceTotal(tt.parts, tt.labor, tt.tax, tt.discount)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InvoiceTotal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("InvoiceTotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	at := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		seq  uint64
		want string
	}{
		{1, "INV-202608-00001"},
		{42, "INV-202608-00042"},
		{99999, "INV-202608-99999"},
		{123456, "INV-202608-123456"}, // overflow keeps the full ordinal
	}
	for _, tt := range tests {
		if got := FormatInvoiceNumber(at, tt.seq); got != tt.want {
			t.Errorf("FormatInvoiceNumber(%d) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

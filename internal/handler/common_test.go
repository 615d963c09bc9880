package handler

import (
	"testing"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

func TestValidUsername(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"john_doe", true},
		{"abc", true},
		{"a1_", true},
		{"ab", false},           // too short
		{"John", false},         // uppercase
		{"john doe", false},     // space
		{"john-doe", false},     // dash
		{"", false},
	}
	for _, tt := range tests {
		if got := validUsername(tt.in); got != tt.want {
			t.Errorf("validUsername(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"someone@gmail.com", true},
		{"someone@yahoo.com", false},
		{"@gmail.com", false},
		{"a@b@gmail.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := validEmail(tt.in); got != tt.want {
			t.Errorf("validEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9876543210", true},
		{"123456789", false},    // 9 digits
		{"12345678901", false},  // 11 digits
		{"98765abcde", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := validPhone(tt.in); got != tt.want {
			t.Errorf("validPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewShowroomViewFacilities(t *testing.T) {
	s := model.Showroom{Facilities: "WiFi, CCTV ,,EV Charging"}
	v := newShowroomView(s)
	want := []string{"WiFi", "CCTV", "EV Charging"}
	if len(v.Facilities) != len(want) {
		t.Fatalf("facilities = %v, want %v", v.Facilities, want)
	}
	for i := range want {
		if v.Facilities[i] != want[i] {
			t.Errorf("facilities[%d] = %q, want %q", i, v.Facilities[i], want[i])
		}
	}
}

func TestBuildInvoiceItems(t *testing.T) {
	items, msg := buildInvoiceItems([]invoiceItemReq{
		{Description: "Brake pads", Quantity: 2, UnitPrice: 450},
		{Description: "Labor", Quantity: 1, UnitPrice: 300},
	})
	if msg != "" {
		t.Fatalf("unexpected validation error %q", msg)
	}
	if items[0].Amount != 900 || items[1].Amount != 300 {
		t.Errorf("amounts = %v, %v; want 900, 300", items[0].Amount, items[1].Amount)
	}

	if _, msg := buildInvoiceItems([]invoiceItemReq{{Description: "", Quantity: 1, UnitPrice: 1}}); msg == "" {
		t.Error("empty description accepted")
	}
	if _, msg := buildInvoiceItems([]invoiceItemReq{{Description: "x", Quantity: 0, UnitPrice: 1}}); msg == "" {
		t.Error("zero quantity accepted")
	}
	if _, msg := buildInvoiceItems([]invoiceItemReq{{Description: "x", Quantity: 1, UnitPrice: -1}}); msg == "" {
		t.Error("negative unit price accepted")
	}
}

package model

import (
	"fmt"
	"testing"
	"time"
)

func TestCashTransactionID(t *testing.T) {
	at := time.Date(2026, time.August, 29, 12, 30, 0, 0, time.UTC)
	got := CashTransactionID(at, 77)
	want := fmt.Sprintf("CASH_%d_77", at.UnixMilli())
	if got != want {
		t.Errorf("CashTransactionID() = %q, want %q", got, want)
	}
}

package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "key-secret"
	good := sign(secret, "order_123", "pay_456")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{"valid", "order_123", "pay_456", good, true},
		{"tampered signature", "order_123", "pay_456", good + "00", false},
		{"wrong order", "order_999", "pay_456", good, false},
		{"wrong payment", "order_123", "pay_999", good, false},
		{"empty signature", "order_123", "pay_456", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(secret, tt.orderID, tt.paymentID, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifySignatureWrongKey(t *testing.T) {
	if VerifySignature("other-secret", "order_123", "pay_456", sign("key-secret", "order_123", "pay_456")) {
		t.Error("signature verified with the wrong key")
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "key-id" || pass != "key-secret" {
			t.Error("missing or wrong basic auth")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":33000,"currency":"INR","receipt":"INV-202608-00001","status":"created"}`))
	}))
	defer srv.Close()

	rz := NewRazorpay("key-id", "key-secret")
	rz.BaseURL = srv.URL

	order, err := rz.CreateOrder(context.Background(), 33000, "INV-202608-00001")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 33000 || order.Currency != "INR" {
		t.Errorf("unexpected order %+v", order)
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rz := NewRazorpay("key-id", "key-secret")
	rz.BaseURL = srv.URL

	if _, err := rz.CreateOrder(context.Background(), 100, "INV-1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestCreateOrderUnreachable(t *testing.T) {
	rz := NewRazorpay("key-id", "key-secret")
	rz.BaseURL = "http://127.0.0.1:1" // nothing listens here

	if _, err := rz.CreateOrder(context.Background(), 100, "INV-1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

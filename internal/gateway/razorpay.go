// Package gateway integrates the Razorpay orders API.  Only two pieces of
// the gateway are used: creating an order sized to an invoice total, and
// verifying the HMAC signature Razorpay's checkout hands back to the
// client after a payment.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable is returned when the gateway cannot be reached or answers
// with a non-2xx status.  Handlers surface it as 502 so the caller can
// retry; no payment row is created in that case.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Order is the subset of Razorpay's order object the service consumes.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`   // smallest currency unit (paise)
	Currency string `json:"currency"` // e.g. "INR"
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// OrderCreator creates gateway orders.  Handlers depend on this interface
// so tests can substitute a stub without network access.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (Order, error)
}

// Razorpay is the production OrderCreator.  KeyID/KeySecret form the basic
// auth pair; KeySecret is also the HMAC key for signature verification.
type Razorpay struct {
	KeyID     string
	KeySecret string
	BaseURL   string // override in tests; defaults to the public API
	Client    *http.Client
}

// NewRazorpay builds a client with a bounded request timeout so a stalled
// gateway cannot hang the request that triggered the call.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		KeyID:     keyID,
		KeySecret: keySecret,
		BaseURL:   "https://api.razorpay.com/v1",
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder asks Razorpay for an order of the given amount.  The receipt
// carries the invoice number for reconciliation on the gateway dashboard.
func (r *Razorpay) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (Order, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	})
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.KeyID, r.KeySecret)

	resp, err := r.Client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Order{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if order.ID == "" {
		return Order{}, fmt.Errorf("%w: empty order id", ErrUnavailable)
	}
	return order, nil
}

// VerifySignature recomputes the checkout signature, HMAC-SHA256 over
// "<orderID>|<paymentID>" keyed with the API secret, and compares it in
// constant time against the value the client presented.
func VerifySignature(keySecret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

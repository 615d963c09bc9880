// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentSettledEvent is published after a payment reaches SUCCESS and its
// invoice and booking are marked PAID.  It carries enough for downstream
// consumers to log, notify, or feed analytics without querying the primary
// database.
type PaymentSettledEvent struct {
	PaymentID     uint64  `json:"payment_id"`
	InvoiceID     uint64  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	BookingID     *uint64 `json:"booking_id,omitempty"`
	UserID        uint64  `json:"user_id"`
	ShowroomID    uint64  `json:"showroom_id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transaction_id"`
	SettledAt     string  `json:"settled_at"`
}

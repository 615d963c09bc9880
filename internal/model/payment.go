package model

import (
	"fmt"
	"time"
)

// Payment status values.
const (
	PaymentPending  = "PENDING"
	PaymentSuccess  = "SUCCESS"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// Payment methods.  Online methods settle through the gateway; CASH settles
// at the counter and is recorded by an employee, admin or the customer.
const (
	MethodRazorpay   = "RAZORPAY"
	MethodUPI        = "UPI"
	MethodCard       = "CARD"
	MethodNetBanking = "NET_BANKING"
	MethodCash       = "CASH"
)

// CashTransactionID builds the synthetic transaction id recorded when a
// pending payment is settled in cash: CASH_<epoch-ms>_<paymentID>.
func CashTransactionID(at time.Time, paymentID uint64) string {
	return fmt.Sprintf("CASH_%d_%d", at.UnixMilli(), paymentID)
}

// Payment is one settlement attempt against an invoice.  This struct
// corresponds to a row in the `payments` table.
//
// Fields:
//  ID               – primary key identifier.
//  InvoiceID        – invoice being settled.
//  BookingID        – booking behind the invoice (nullable for direct invoices).
//  UserID           – paying customer.
//  ShowroomID       – showroom the payment belongs to; scopes employee access.
//  Amount           – amount collected.
//  PaymentMethod    – RAZORPAY, UPI, CARD, NET_BANKING or CASH.
//  GatewayOrderID   – gateway order correlation id (online only).
//  GatewayPaymentID – gateway payment id returned by the client (online only).
//  GatewaySignature – signature presented at verification (online only).
//  TransactionID    – settled transaction reference.
//  Status           – PENDING, SUCCESS, FAILED or REFUNDED.
//  PaymentDate      – when the payment settled (nullable).
//  RefundedDate     – when a refund was issued (nullable).
//  RefundAmount     – refunded amount, zero unless refunded.
//  FailureReason    – free text for failures or cash notes.
//  ReceiptURL       – rendered receipt reference (nullable).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Payment struct {
	ID               uint64     // payments.id
	InvoiceID        uint64     // payments.invoice_id
	BookingID        *uint64    // payments.booking_id (nullable)
	UserID           uint64     // payments.user_id
	ShowroomID       uint64     // payments.showroom_id
	Amount           float64    // payments.amount
	PaymentMethod    string     // payments.payment_method
	GatewayOrderID   *string    // payments.gateway_order_id (nullable)
	GatewayPaymentID *string    // payments.gateway_payment_id (nullable)
	GatewaySignature *string    // payments.gateway_signature (nullable)
	TransactionID    *string    // payments.transaction_id (nullable)
	Status           string     // payments.status
	PaymentDate      *time.Time // payments.payment_date (nullable)
	RefundedDate     *time.Time // payments.refunded_date (nullable)
	RefundAmount     float64    // payments.refund_amount
	FailureReason    *string    // payments.failure_reason (nullable)
	ReceiptURL       *string    // payments.receipt_url (nullable)
	CreatedAt        time.Time  // payments.created_at
	UpdatedAt        time.Time  // payments.updated_at
}

// PaymentAudit is an append-only record of a manual payment status change.
// Rows are written whenever an actor marks a payment as paid or records a
// cash settlement and are never updated afterwards.
//
// Fields:
//  ID             – primary key identifier.
//  PaymentID      – payment whose status changed.
//  InvoiceID      – invoice the payment settles (nullable).
//  Action         – e.g. MARK_AS_PAID, RECORD_CASH_PAYMENT.
//  ActorID        – user who performed the change.
//  ActorRole      – role of the actor at the time.
//  PreviousStatus – payment status before the change.
//  NewStatus      – payment status after the change.
//  Notes          – free-text reason.
//  CreatedAt      – timestamp of creation.
type PaymentAudit struct {
	ID             uint64    // payment_audits.id
	PaymentID      uint64    // payment_audits.payment_id
	InvoiceID      *uint64   // payment_audits.invoice_id (nullable)
	Action         string    // payment_audits.action
	ActorID        uint64    // payment_audits.actor_id
	ActorRole      string    // payment_audits.actor_role
	PreviousStatus string    // payment_audits.previous_status
	NewStatus      string    // payment_audits.new_status
	Notes          *string   // payment_audits.notes (nullable)
	CreatedAt      time.Time // payment_audits.created_at
}

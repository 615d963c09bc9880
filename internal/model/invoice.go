package model

import (
	"errors"
	"fmt"
	"time"
)

// Invoice status values.  An invoice is editable only while GENERATED;
// once it moves to ACCEPTED or PAID it is frozen.
const (
	InvoiceGenerated = "GENERATED"
	InvoiceAccepted  = "ACCEPTED"
	InvoicePaid      = "PAID"
)

var errNegativeCost = errors.New("cost components must not be negative")
var errDiscountTooLarge = errors.New("discount must not exceed parts + labor + tax")

// InvoiceTotal validates the cost components and returns the invoice total.
// All components must be non-negative and the discount may not exceed the
// sum of the other three, so a total can never go below zero.
func InvoiceTotal(partsCost, laborCost, tax, discount float64) (float64, error) {
	if partsCost < 0 || laborCost < 0 || tax < 0 || discount < 0 {
		return 0, errNegativeCost
	}
	sum := partsCost + laborCost + tax
	if discount > sum {
		return 0, errDiscountTooLarge
	}
	return sum - discount, nil
}

// FormatInvoiceNumber renders the external invoice number for a sequence
// ordinal allocated in the given month, e.g. INV-202608-00042.
func FormatInvoiceNumber(at time.Time, seq uint64) string {
	return fmt.Sprintf("INV-%s-%05d", at.Format("200601"), seq)
}

// Invoice is an itemized, totaled bill generated against a booking (or
// directly against a user for walk-in charges, in which case BookingID is
// null).  This struct corresponds to a row in the `invoices` table.
//
// Fields:
//  ID            – primary key identifier.
//  InvoiceNumber – unique external number, INV-YYYYMM-NNNNN.
//  BookingID     – booking being billed (nullable for direct invoices).
//  UserID        – customer being billed.
//  EmployeeID    – employee who generated the invoice.
//  ShowroomID    – showroom the work was performed at.
//  PartsCost     – parts component.
//  LaborCost     – labor component.
//  Tax           – tax component.
//  Discount      – discount, subtracted from the other three.
//  TotalAmount   – PartsCost + LaborCost + Tax - Discount, always.
//  Status        – GENERATED, ACCEPTED or PAID.
//  GeneratedAt   – when the invoice was created.
//  AcceptedAt    – when the customer accepted it (nullable).
//  PDFURL        – rendered document reference (nullable).
//  Notes         – free-text notes.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Invoice struct {
	ID            uint64     // invoices.id
	InvoiceNumber string     // invoices.invoice_number
	BookingID     *uint64    // invoices.booking_id (nullable)
	UserID        uint64     // invoices.user_id
	EmployeeID    uint64     // invoices.employee_id
	ShowroomID    uint64     // invoices.showroom_id
	PartsCost     float64    // invoices.parts_cost
	LaborCost     float64    // invoices.labor_cost
	Tax           float64    // invoices.tax
	Discount      float64    // invoices.discount
	TotalAmount   float64    // invoices.total_amount
	Status        string     // invoices.status
	GeneratedAt   time.Time  // invoices.generated_at
	AcceptedAt    *time.Time // invoices.accepted_at (nullable)
	PDFURL        *string    // invoices.pdf_url (nullable)
	Notes         *string    // invoices.notes (nullable)
	CreatedAt     time.Time  // invoices.created_at
	UpdatedAt     time.Time  // invoices.updated_at
}

// InvoiceItem is one billable line on an invoice.
//
// Fields:
//  ID          – primary key identifier.
//  InvoiceID   – owning invoice.
//  Description – what was billed.
//  Quantity    – number of units.
//  UnitPrice   – price per unit.
//  Amount      – line total.
type InvoiceItem struct {
	ID          uint64  // invoice_items.id
	InvoiceID   uint64  // invoice_items.invoice_id
	Description string  // invoice_items.description
	Quantity    uint32  // invoice_items.quantity
	UnitPrice   float64 // invoice_items.unit_price
	Amount      float64 // invoice_items.amount
}

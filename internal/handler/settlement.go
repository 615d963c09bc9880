package handler

import (
	"context"
	"log"
	"time"

	"github.com/parkplaza/parkplaza-backend/internal/model"
	"github.com/parkplaza/parkplaza-backend/internal/queue"
	"github.com/parkplaza/parkplaza-backend/internal/renderer"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
)

// SettlementNotifier runs the side effects shared by every settlement path
// (online verification, cash recording, mark-as-paid): publishing the
// payment.settled event and rendering the receipt PDF.  Both are strictly
// best-effort; the settlement transaction has already committed and a
// broker or renderer failure only loses the notification or document.
type SettlementNotifier struct {
	Payments  *repository.PaymentRepo
	Invoices  *repository.InvoiceRepo
	Users     *repository.UserRepo
	Showrooms *repository.ShowroomRepo
}

func NewSettlementNotifier(p *repository.PaymentRepo, i *repository.InvoiceRepo,
	u *repository.UserRepo, s *repository.ShowroomRepo) *SettlementNotifier {
	return &SettlementNotifier{Payments: p, Invoices: i, Users: u, Showrooms: s}
}

// AfterSettlement publishes the settlement event and attaches the rendered
// receipt to the payment row.  Failures are logged and swallowed.
func (n *SettlementNotifier) AfterSettlement(p model.Payment, inv model.Invoice) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txn := ""
	if p.TransactionID != nil {
		txn = *p.TransactionID
	}
	settledAt := time.Now().UTC().Format(time.RFC3339)
	if p.PaymentDate != nil {
		settledAt = p.PaymentDate.UTC().Format(time.RFC3339)
	}
	if err := queue.PublishPaymentSettled(ctx, queue.PaymentSettledEvent{
		PaymentID:     p.ID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     p.BookingID,
		UserID:        p.UserID,
		ShowroomID:    p.ShowroomID,
		Amount:        p.Amount,
		Method:        p.PaymentMethod,
		TransactionID: txn,
		SettledAt:     settledAt,
	}); err != nil {
		log.Printf("settlement: publish event for payment %d failed: %v", p.ID, err)
	}

	customer, err := n.Users.GetByID(ctx, p.UserID)
	if err != nil {
		log.Printf("settlement: load customer for payment %d failed: %v", p.ID, err)
		return
	}
	showroom, err := n.Showrooms.GetByID(ctx, p.ShowroomID)
	if err != nil {
		log.Printf("settlement: load showroom for payment %d failed: %v", p.ID, err)
		return
	}
	url, err := renderer.RenderReceiptPDF(p, inv, customer, showroom)
	if err != nil {
		log.Printf("settlement: receipt render for payment %d failed: %v", p.ID, err)
		return
	}
	if err := n.Payments.SetReceiptURL(ctx, p.ID, url); err != nil {
		log.Printf("settlement: store receipt url for payment %d failed: %v", p.ID, err)
	}
}

// AfterInvoice renders the invoice PDF and attaches it to the invoice row.
// Runs after the invoice transaction commits; failures are logged and the
// invoice simply carries no document.
func (n *SettlementNotifier) AfterInvoice(inv model.Invoice, items []model.InvoiceItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customer, err := n.Users.GetByID(ctx, inv.UserID)
	if err != nil {
		log.Printf("invoice: load customer for invoice %d failed: %v", inv.ID, err)
		return
	}
	showroom, err := n.Showrooms.GetByID(ctx, inv.ShowroomID)
	if err != nil {
		log.Printf("invoice: load showroom for invoice %d failed: %v", inv.ID, err)
		return
	}
	url, err := renderer.RenderInvoicePDF(inv, items, customer, showroom)
	if err != nil {
		log.Printf("invoice: render for invoice %d failed: %v", inv.ID, err)
		return
	}
	if err := n.Invoices.SetPDFURL(ctx, inv.ID, url); err != nil {
		log.Printf("invoice: store pdf url for invoice %d failed: %v", inv.ID, err)
	}
}

// markPaymentPaid settles a PENDING payment in cash on behalf of an
// employee or admin and runs the shared side effects.  The audit row records
// who flipped the status.
func markPaymentPaid(ctx context.Context, payments *repository.PaymentRepo, notifier *SettlementNotifier,
	p model.Payment, inv model.Invoice, actorID uint64, actorRole string, notes *string) error {
	audit := model.PaymentAudit{
		PaymentID:      p.ID,
		InvoiceID:      &p.InvoiceID,
		Action:         "MARK_AS_PAID",
		ActorID:        actorID,
		ActorRole:      actorRole,
		PreviousStatus: model.PaymentPending,
		NewStatus:      model.PaymentSuccess,
		Notes:          notes,
	}
	if err := payments.SettleCash(ctx, &p, audit); err != nil {
		return err
	}
	notifier.AfterSettlement(p, inv)
	return nil
}

package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

func TestSettleOnlineCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPaymentRepo(db)

	bookingID := uint64(5)
	p := model.Payment{ID: 7, InvoiceID: 11, BookingID: &bookingID, Status: model.PaymentPending}

	// The payment flip and both cascades must sit inside one transaction.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status='SUCCESS'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE invoices SET status='PAID'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status='PAID'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SettleOnline(context.Background(), &p, "pay_abc", "sig"); err != nil {
		t.Fatalf("SettleOnline: %v", err)
	}
	if p.Status != model.PaymentSuccess {
		t.Errorf("status = %q, want SUCCESS", p.Status)
	}
	if p.TransactionID == nil || *p.TransactionID != "pay_abc" {
		t.Errorf("transaction id = %v, want pay_abc", p.TransactionID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSettleOnlineNotPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPaymentRepo(db)

	p := model.Payment{ID: 7, InvoiceID: 11, Status: model.PaymentSuccess}

	// The guarded update touches nothing, so the whole transaction rolls
	// back without reaching the invoice or booking.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status='SUCCESS'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.SettleOnline(context.Background(), &p, "pay_abc", "sig"); err != ErrInvalidState {
		t.Fatalf("SettleOnline = %v, want ErrInvalidState", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSettleCashWritesAuditInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPaymentRepo(db)

	bookingID := uint64(5)
	p := model.Payment{ID: 7, InvoiceID: 11, BookingID: &bookingID, Status: model.PaymentPending}
	audit := model.PaymentAudit{
		PaymentID:      7,
		Action:         "MARK_AS_PAID",
		ActorID:        2,
		ActorRole:      model.RoleEmployee,
		PreviousStatus: model.PaymentPending,
		NewStatus:      model.PaymentSuccess,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status='SUCCESS', payment_method='CASH'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE invoices SET status='PAID'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status='PAID'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_audits").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.SettleCash(context.Background(), &p, audit); err != nil {
		t.Fatalf("SettleCash: %v", err)
	}
	if p.PaymentMethod != model.MethodCash || p.Status != model.PaymentSuccess {
		t.Errorf("payment = %q/%q, want CASH/SUCCESS", p.PaymentMethod, p.Status)
	}
	if p.TransactionID == nil {
		t.Error("transaction id not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

func TestUpdateFrozenInvoice(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewInvoiceRepo(db)

	inv := model.Invoice{ID: 11, PartsCost: 100, TotalAmount: 100}

	// An accepted invoice fails the guarded update; the transaction rolls
	// back without touching the line items.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET parts_cost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM invoices").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.InvoiceAccepted))
	mock.ExpectRollback()

	err = repo.Update(context.Background(), &inv, []model.InvoiceItem{
		{Description: "Brake pads", Quantity: 1, UnitPrice: 100, Amount: 100},
	})
	if err != ErrInvalidState {
		t.Fatalf("Update = %v, want ErrInvalidState", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateDirectOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewInvoiceRepo(db)

	b := model.Booking{UserID: 3, ShowroomID: 1, CarNumber: "KA01AB1234",
		ServiceType: model.ServiceRepair, Duration: model.DurationHourly,
		EstimatedCost: 1200, Status: model.BookingInvoiced}
	inv := model.Invoice{UserID: 3, EmployeeID: 9, ShowroomID: 1, TotalAmount: 1200}
	p := model.Payment{UserID: 3, ShowroomID: 1, Amount: 1200, PaymentMethod: model.MethodCash}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO counters").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO invoice_items").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	items := []model.InvoiceItem{{Description: "Brake pad change", Quantity: 1, UnitPrice: 1200, Amount: 1200}}
	if err := repo.CreateDirect(context.Background(), &b, &inv, items, &p); err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	if b.ID != 5 {
		t.Errorf("booking id = %d, want 5", b.ID)
	}
	if inv.BookingID == nil || *inv.BookingID != 5 {
		t.Errorf("invoice booking id = %v, want 5", inv.BookingID)
	}
	if !strings.HasPrefix(inv.InvoiceNumber, "INV-") || !strings.HasSuffix(inv.InvoiceNumber, "00042") {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if p.ID != 21 || p.InvoiceID != 11 || p.Status != model.PaymentPending {
		t.Errorf("payment = %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateDirectRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewInvoiceRepo(db)

	b := model.Booking{UserID: 3, ShowroomID: 1, CarNumber: "KA01AB1234",
		ServiceType: model.ServiceRepair, Duration: model.DurationHourly,
		EstimatedCost: 1200, Status: model.BookingInvoiced}
	inv := model.Invoice{UserID: 3, EmployeeID: 9, ShowroomID: 1, TotalAmount: 1200}
	p := model.Payment{UserID: 3, ShowroomID: 1, Amount: 1200, PaymentMethod: model.MethodCash}

	// A failure after the booking insert unwinds the whole flow; no orphan
	// INVOICED booking survives.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO counters").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	if err := repo.CreateDirect(context.Background(), &b, &inv, nil, &p); err == nil {
		t.Fatal("CreateDirect succeeded, want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/repository"
)

var userRowColumns = []string{
	"id", "username", "name", "email", "phone", "password_hash", "role", "showroom_id",
	"address", "is_active", "email_verified", "email_verification_token", "email_verification_expires",
	"password_reset_token", "password_reset_expires", "created_at", "updated_at",
}

var bookingRowColumns = []string{
	"id", "user_id", "showroom_id", "car_number", "car_model", "car_color", "service_type",
	"duration", "estimated_cost", "description", "notes", "status", "booking_date", "created_at", "updated_at",
}

func employeeRow(id, showroomID uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, "mechanic", "Mechanic", "mechanic@gmail.com", "9876543210", "hash",
			"EMPLOYEE", showroomID, nil, true, true, nil, nil, nil, nil, now, now)
}

func bookingRow(id, userID, showroomID uint64, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(bookingRowColumns).
		AddRow(id, userID, showroomID, "KA01AB1234", nil, nil, "REPAIR",
			"DAILY", 500.0, nil, nil, status, now, now, now)
}

// newEmployeeEnv builds an EmployeeHandler over a mocked database.  The
// notifier gets its own silent connection so its best-effort side effects
// never interfere with the expectations under test.
func newEmployeeEnv(t *testing.T) (*EmployeeHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	quiet, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { quiet.Close() })
	notifier := NewSettlementNotifier(
		repository.NewPaymentRepo(quiet), repository.NewInvoiceRepo(quiet),
		repository.NewUserRepo(quiet), repository.NewShowroomRepo(quiet))

	h := NewEmployeeHandler(
		repository.NewUserRepo(db), repository.NewBookingRepo(db),
		repository.NewInvoiceRepo(db), repository.NewPaymentRepo(db), notifier)
	return h, mock
}

func generateInvoiceCtx(t *testing.T, bookingID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	body := `{"parts_cost":500,"labor_cost":300,"tax":50,"discount":0}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bookingID)
	c.Set("user_id", uint64(9))
	c.Set("role", "EMPLOYEE")
	return c, rec
}

func TestGenerateInvoiceFromPendingBooking(t *testing.T) {
	h, mock := newEmployeeEnv(t)

	// A booking can be invoiced straight from PENDING; inspection first is
	// optional.
	mock.ExpectQuery("FROM users WHERE id=").WillReturnRows(employeeRow(9, 1))
	mock.ExpectQuery("FROM bookings WHERE id=").WillReturnRows(bookingRow(5, 3, 1, "PENDING"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO counters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO invoices").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE bookings SET status='INVOICED'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := generateInvoiceCtx(t, "5")
	if err := h.GenerateInvoice(c); err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGenerateInvoiceFromInspectedBooking(t *testing.T) {
	h, mock := newEmployeeEnv(t)

	mock.ExpectQuery("FROM users WHERE id=").WillReturnRows(employeeRow(9, 1))
	mock.ExpectQuery("FROM bookings WHERE id=").WillReturnRows(bookingRow(5, 3, 1, "INSPECTED"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO counters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO invoices").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE bookings SET status='INVOICED'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := generateInvoiceCtx(t, "5")
	if err := h.GenerateInvoice(c); err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGenerateInvoiceSettledBooking(t *testing.T) {
	h, mock := newEmployeeEnv(t)

	tests := []struct {
		name   string
		status string
	}{
		{"already invoiced", "INVOICED"},
		{"already paid", "PAID"},
		{"cancelled", "CANCELLED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery("FROM users WHERE id=").WillReturnRows(employeeRow(9, 1))
			mock.ExpectQuery("FROM bookings WHERE id=").WillReturnRows(bookingRow(5, 3, 1, tt.status))

			c, rec := generateInvoiceCtx(t, "5")
			if err := h.GenerateInvoice(c); err != nil {
				t.Fatalf("GenerateInvoice: %v", err)
			}
			if rec.Code != http.StatusConflict {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
			}
		})
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGenerateInvoiceOtherShowroom(t *testing.T) {
	h, mock := newEmployeeEnv(t)

	mock.ExpectQuery("FROM users WHERE id=").WillReturnRows(employeeRow(9, 1))
	mock.ExpectQuery("FROM bookings WHERE id=").WillReturnRows(bookingRow(5, 3, 2, "PENDING"))

	c, rec := generateInvoiceCtx(t, "5")
	if err := h.GenerateInvoice(c); err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

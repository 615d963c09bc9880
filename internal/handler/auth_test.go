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

// mailerStub counts sends so tests can assert which flows reach the mailer.
type mailerStub struct {
	verifications int
	resets        int
	welcomes      int
}

func (m *mailerStub) SendVerification(to, token string) error { m.verifications++; return nil }
func (m *mailerStub) SendPasswordReset(to, token string) error {
	m.resets++
	return nil
}
func (m *mailerStub) SendEmployeeWelcome(to, username, tempPassword, token string) error {
	m.welcomes++
	return nil
}

func customerRow(id uint64, verified bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, "alice", "Alice", "alice@gmail.com", "9876543210", "hash",
			"USER", nil, nil, true, verified, nil, nil, nil, nil, now, now)
}

func postJSON(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newAuthEnv(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, *mailerStub) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	stub := &mailerStub{}
	h := &AuthHandler{
		Users:  repository.NewUserRepo(db),
		Tokens: repository.NewTokenRepo(db),
		Mail:   stub,
	}
	return h, mock, stub
}

func TestForgotPasswordUnverifiedAccount(t *testing.T) {
	h, mock, stub := newAuthEnv(t)

	// An unverified account gets the uniform acknowledgement but no reset
	// token and no email.  The token write is permitted by the mock so the
	// test fails loudly if the flow ever reaches it.
	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(customerRow(3, false))
	mock.ExpectExec("UPDATE users SET password_reset_token").WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := postJSON(`{"email":"alice@gmail.com"}`)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if stub.resets != 0 {
		t.Errorf("reset emails sent = %d, want 0", stub.resets)
	}
}

func TestForgotPasswordVerifiedAccount(t *testing.T) {
	h, mock, stub := newAuthEnv(t)

	mock.ExpectQuery("FROM users WHERE email=").WillReturnRows(customerRow(3, true))
	mock.ExpectExec("UPDATE users SET password_reset_token").WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := postJSON(`{"email":"alice@gmail.com"}`)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if stub.resets != 1 {
		t.Errorf("reset emails sent = %d, want 1", stub.resets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestForgotPasswordUnknownAccount(t *testing.T) {
	h, mock, stub := newAuthEnv(t)

	mock.ExpectQuery("FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	c, rec := postJSON(`{"email":"nobody@gmail.com"}`)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if stub.resets != 0 {
		t.Errorf("reset emails sent = %d, want 0", stub.resets)
	}
}

func TestLogoutWithoutToken(t *testing.T) {
	h := &AuthHandler{}

	// Logging out with no session token is a no-op success, not an error.
	c, rec := postJSON(`{}`)
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

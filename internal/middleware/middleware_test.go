package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/utils"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func TestJWTAuth(t *testing.T) {
	const secret = "access-secret"
	access, err := utils.NewAccessToken(secret, 42, "USER", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + access.Token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := JWTAuth(secret)(okHandler)
			if err := h(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	access, err := utils.NewAccessToken("secret-a", 42, "USER", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("secret-b")(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestJWTAuthInjectsIdentity(t *testing.T) {
	const secret = "access-secret"
	access, err := utils.NewAccessToken(secret, 42, "EMPLOYEE", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(secret)(func(c echo.Context) error {
		if got := CurrentUserID(c); got != 42 {
			t.Errorf("CurrentUserID = %d, want 42", got)
		}
		if got := CurrentRole(c); got != "EMPLOYEE" {
			t.Errorf("CurrentRole = %q, want EMPLOYEE", got)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       interface{}
		allowed    []string
		wantStatus int
	}{
		{"allowed role", "ADMIN", []string{"ADMIN"}, http.StatusOK},
		{"one of several", "EMPLOYEE", []string{"EMPLOYEE", "ADMIN"}, http.StatusOK},
		{"wrong role", "USER", []string{"ADMIN"}, http.StatusForbidden},
		{"missing role", nil, []string{"ADMIN"}, http.StatusForbidden},
		{"wrong type", 7, []string{"ADMIN"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}

			h := RequireRole(tt.allowed...)(okHandler)
			if err := h(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// Package router wires the HTTP routes to their handlers and middleware.
// Routes are grouped by actor: public, USER, EMPLOYEE, ADMIN.  The JWT
// middleware runs on every authenticated group and RequireRole narrows each
// group to its role; ownership and showroom checks happen inside handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/parkplaza/parkplaza-backend/internal/config"
	"github.com/parkplaza/parkplaza-backend/internal/handler"
	"github.com/parkplaza/parkplaza-backend/internal/middleware"
	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Showroom *handler.ShowroomHandler
	Booking  *handler.BookingHandler
	Invoice  *handler.InvoiceHandler
	Payment  *handler.PaymentHandler
	Employee *handler.EmployeeHandler
	Admin    *handler.AdminHandler
}

// Register mounts all routes on the Echo instance.
func Register(e *echo.Echo, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health)

	// The auth surface is the brute-force target, so it alone gets the
	// fixed-window limiter.
	limiter := middleware.NewFixedWindow(rlCfg, rdb)

	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register-user", h.Auth.RegisterUser)
	auth.POST("/login-user", h.Auth.LoginUser)
	auth.POST("/login-employee", h.Auth.LoginEmployee)
	auth.POST("/login", h.Auth.LoginAdmin)
	auth.GET("/verify-email", h.Auth.VerifyEmail)
	auth.GET("/check-username", h.Auth.CheckUsername)
	auth.POST("/password/forgot", h.Auth.ForgotPassword)
	auth.POST("/password/reset", h.Auth.ResetPassword)
	auth.POST("/refresh-token", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public directory list shown on the registration page.
	e.GET("/v1/showrooms", h.Showroom.List)

	jwt := middleware.JWTAuth(cfg.JWTSecret)

	// Profile is available to every authenticated role.
	profile := e.Group("/v1/profile", jwt)
	profile.GET("", h.Auth.Me)
	profile.PUT("", h.Auth.UpdateProfile)

	user := e.Group("/v1/user", jwt, middleware.RequireRole(model.RoleUser))
	user.GET("/showrooms/nearby", h.Showroom.Nearby)
	user.GET("/showrooms/search", h.Showroom.SearchByCity)
	user.POST("/bookings", h.Booking.Create)
	user.GET("/bookings", h.Booking.ListMine)
	user.GET("/bookings/:id", h.Booking.GetMine)
	user.POST("/bookings/:id/cancel", h.Booking.Cancel)
	user.GET("/invoices", h.Invoice.ListMine)
	user.GET("/invoices/:id", h.Invoice.GetMine)
	user.POST("/invoices/:id/accept", h.Invoice.Accept)
	user.POST("/payments/order", h.Payment.CreateOrder)
	user.POST("/payments/verify", h.Payment.Verify)
	user.GET("/payments/pending", h.Payment.ListPendingMine)
	user.GET("/payments/history", h.Payment.HistoryMine)
	user.GET("/payments/:id", h.Payment.GetMine)

	employee := e.Group("/v1/employee", jwt, middleware.RequireRole(model.RoleEmployee))
	employee.GET("/showrooms/:id/bookings", h.Employee.WorkQueue)
	employee.GET("/bookings/:id", h.Employee.GetBooking)
	employee.POST("/bookings/:id/inspect", h.Employee.Inspect)
	employee.PUT("/bookings/:id/status", h.Employee.UpdateStatus)
	employee.POST("/bookings/:id/invoice/generate", h.Employee.GenerateInvoice)
	employee.POST("/invoice/generate-direct", h.Employee.GenerateDirect)
	employee.GET("/invoices", h.Employee.ListInvoices)
	employee.PUT("/invoices/:id", h.Employee.UpdateInvoice)
	employee.GET("/payments/pending", h.Employee.PendingPayments)
	employee.POST("/payments/:id/mark-paid", h.Employee.MarkPaid)
	employee.GET("/dashboard", h.Employee.Dashboard)

	admin := e.Group("/v1/admin", jwt, middleware.RequireRole(model.RoleAdmin))
	admin.POST("/showrooms", h.Admin.CreateShowroom)
	admin.PUT("/showrooms/:id", h.Admin.UpdateShowroom)
	admin.GET("/showrooms", h.Admin.ListShowrooms)
	admin.POST("/employees", h.Admin.CreateEmployee)
	admin.GET("/employees", h.Admin.ListEmployees)
	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/users/:id/role", h.Admin.UpdateUserRole)
	admin.POST("/invoices", h.Admin.CreateUserInvoice)
	admin.GET("/payments/pending", h.Admin.PendingPayments)
	admin.POST("/payments/:id/mark-paid", h.Admin.MarkPaid)
	admin.GET("/payments/history", h.Admin.PaymentHistory)
	admin.GET("/dashboard", h.Admin.Dashboard)

	// Cash recording is shared by every authenticated role; the handler
	// enforces the per-role scope.
	shared := e.Group("/v1/payments", jwt,
		middleware.RequireRole(model.RoleUser, model.RoleEmployee, model.RoleAdmin))
	shared.POST("/manual", h.Payment.RecordCash)
}

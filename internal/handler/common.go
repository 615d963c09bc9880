// Package handler contains the HTTP handlers for the Park Plaza API.
// Handlers bind request DTOs, call repositories and map sentinel errors to
// HTTP statuses.  Models are never serialized directly; each handler file
// defines view types that strip credential and token material.
package handler

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
	phoneRe    = regexp.MustCompile(`^[0-9]{10}$`)
)

func validUsername(u string) bool { return usernameRe.MatchString(u) }
func validPhone(p string) bool    { return phoneRe.MatchString(p) }

// validEmail enforces the deployment rule that accounts register with a
// Gmail address.
func validEmail(e string) bool {
	return strings.Count(e, "@") == 1 && strings.HasSuffix(e, "@gmail.com") && len(e) > len("@gmail.com")
}

// ----- shared views -----

type userView struct {
	ID            uint64  `json:"id"`
	Username      string  `json:"username"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Role          string  `json:"role"`
	ShowroomID    *uint64 `json:"showroom_id,omitempty"`
	Address       *string `json:"address,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	IsActive      bool    `json:"is_active"`
}

func newUserView(u model.User) userView {
	return userView{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		ShowroomID:    u.ShowroomID,
		Address:       u.Address,
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
	}
}

type showroomView struct {
	ID                uint64   `json:"id"`
	Name              string   `json:"name"`
	Address           string   `json:"address"`
	City              string   `json:"city"`
	Longitude         float64  `json:"longitude"`
	Latitude          float64  `json:"latitude"`
	TotalParkingSlots uint32   `json:"total_parking_slots"`
	AvailableSlots    uint32   `json:"available_slots"`
	Facilities        []string `json:"facilities"`
	PhoneNumber       *string  `json:"phone_number,omitempty"`
	OpenTime          *string  `json:"open_time,omitempty"`
	CloseTime         *string  `json:"close_time,omitempty"`
	IsActive          bool     `json:"is_active"`
	DistanceKm        *float64 `json:"distance_km,omitempty"`
}

func newShowroomView(s model.Showroom) showroomView {
	var facilities []string
	if s.Facilities != "" {
		for _, f := range strings.Split(s.Facilities, ",") {
			if f = strings.TrimSpace(f); f != "" {
				facilities = append(facilities, f)
			}
		}
	}
	return showroomView{
		ID:                s.ID,
		Name:              s.Name,
		Address:           s.Address,
		City:              s.City,
		Longitude:         s.Longitude,
		Latitude:          s.Latitude,
		TotalParkingSlots: s.TotalParkingSlots,
		AvailableSlots:    s.AvailableSlots,
		Facilities:        facilities,
		PhoneNumber:       s.PhoneNumber,
		OpenTime:          s.OpenTime,
		CloseTime:         s.CloseTime,
		IsActive:          s.IsActive,
	}
}

type bookingView struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	ShowroomID    uint64    `json:"showroom_id"`
	CarNumber     string    `json:"car_number"`
	CarModel      *string   `json:"car_model,omitempty"`
	CarColor      *string   `json:"car_color,omitempty"`
	ServiceType   string    `json:"service_type"`
	Duration      string    `json:"duration"`
	EstimatedCost float64   `json:"estimated_cost"`
	Description   *string   `json:"description,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	Status        string    `json:"status"`
	BookingDate   time.Time `json:"booking_date"`
}

func newBookingView(b model.Booking) bookingView {
	return bookingView{
		ID:            b.ID,
		UserID:        b.UserID,
		ShowroomID:    b.ShowroomID,
		CarNumber:     b.CarNumber,
		CarModel:      b.CarModel,
		CarColor:      b.CarColor,
		ServiceType:   b.ServiceType,
		Duration:      b.Duration,
		EstimatedCost: b.EstimatedCost,
		Description:   b.Description,
		Notes:         b.Notes,
		Status:        b.Status,
		BookingDate:   b.BookingDate,
	}
}

func newBookingViews(bs []model.Booking) []bookingView {
	out := make([]bookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBookingView(b))
	}
	return out
}

type invoiceItemView struct {
	Description string  `json:"description"`
	Quantity    uint32  `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

type invoiceView struct {
	ID            uint64            `json:"id"`
	InvoiceNumber string            `json:"invoice_number"`
	BookingID     *uint64           `json:"booking_id,omitempty"`
	UserID        uint64            `json:"user_id"`
	EmployeeID    uint64            `json:"employee_id"`
	ShowroomID    uint64            `json:"showroom_id"`
	PartsCost     float64           `json:"parts_cost"`
	LaborCost     float64           `json:"labor_cost"`
	Tax           float64           `json:"tax"`
	Discount      float64           `json:"discount"`
	TotalAmount   float64           `json:"total_amount"`
	Status        string            `json:"status"`
	GeneratedAt   time.Time         `json:"generated_at"`
	AcceptedAt    *time.Time        `json:"accepted_at,omitempty"`
	PDFURL        *string           `json:"pdf_url,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	Items         []invoiceItemView `json:"items,omitempty"`
}

func newInvoiceView(inv model.Invoice, items []model.InvoiceItem) invoiceView {
	v := invoiceView{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     inv.BookingID,
		UserID:        inv.UserID,
		EmployeeID:    inv.EmployeeID,
		ShowroomID:    inv.ShowroomID,
		PartsCost:     inv.PartsCost,
		LaborCost:     inv.LaborCost,
		Tax:           inv.Tax,
		Discount:      inv.Discount,
		TotalAmount:   inv.TotalAmount,
		Status:        inv.Status,
		GeneratedAt:   inv.GeneratedAt,
		AcceptedAt:    inv.AcceptedAt,
		PDFURL:        inv.PDFURL,
		Notes:         inv.Notes,
	}
	for _, it := range items {
		v.Items = append(v.Items, invoiceItemView{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return v
}

func newInvoiceViews(invs []model.Invoice) []invoiceView {
	out := make([]invoiceView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, newInvoiceView(inv, nil))
	}
	return out
}

type paymentView struct {
	ID               uint64     `json:"id"`
	InvoiceID        uint64     `json:"invoice_id"`
	BookingID        *uint64    `json:"booking_id,omitempty"`
	UserID           uint64     `json:"user_id"`
	ShowroomID       uint64     `json:"showroom_id"`
	Amount           float64    `json:"amount"`
	PaymentMethod    string     `json:"payment_method"`
	GatewayOrderID   *string    `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string    `json:"gateway_payment_id,omitempty"`
	TransactionID    *string    `json:"transaction_id,omitempty"`
	Status           string     `json:"status"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	ReceiptURL       *string    `json:"receipt_url,omitempty"`
}

func newPaymentView(p model.Payment) paymentView {
	return paymentView{
		ID:               p.ID,
		InvoiceID:        p.InvoiceID,
		BookingID:        p.BookingID,
		UserID:           p.UserID,
		ShowroomID:       p.ShowroomID,
		Amount:           p.Amount,
		PaymentMethod:    p.PaymentMethod,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		TransactionID:    p.TransactionID,
		Status:           p.Status,
		PaymentDate:      p.PaymentDate,
		ReceiptURL:       p.ReceiptURL,
	}
}

type auditView struct {
	ID             uint64    `json:"id"`
	PaymentID      uint64    `json:"payment_id"`
	InvoiceID      *uint64   `json:"invoice_id,omitempty"`
	Action         string    `json:"action"`
	ActorID        uint64    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func newAuditViews(as []model.PaymentAudit) []auditView {
	out := make([]auditView, 0, len(as))
	for _, a := range as {
		out = append(out, auditView{
			ID:             a.ID,
			PaymentID:      a.PaymentID,
			InvoiceID:      a.InvoiceID,
			Action:         a.Action,
			ActorID:        a.ActorID,
			ActorRole:      a.ActorRole,
			PreviousStatus: a.PreviousStatus,
			NewStatus:      a.NewStatus,
			Notes:          a.Notes,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}

func newPaymentViews(ps []model.Payment) []paymentView {
	out := make([]paymentView, 0, len(ps))
	for _, p := range ps {
		out = append(out, newPaymentView(p))
	}
	return out
}

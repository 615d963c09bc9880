package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/middleware"
	"github.com/parkplaza/parkplaza-backend/internal/model"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
)

// EmployeeHandler serves the employee endpoints.  Every operation is scoped
// to the employee's assigned showroom: the target resource is loaded first
// and its showroom compared against the assignment before any write.
type EmployeeHandler struct {
	Users    *repository.UserRepo
	Bookings *repository.BookingRepo
	Invoices *repository.InvoiceRepo
	Payments *repository.PaymentRepo
	Notifier *SettlementNotifier
}

func NewEmployeeHandler(u *repository.UserRepo, b *repository.BookingRepo,
	i *repository.InvoiceRepo, p *repository.PaymentRepo, n *SettlementNotifier) *EmployeeHandler {
	return &EmployeeHandler{Users: u, Bookings: b, Invoices: i, Payments: p, Notifier: n}
}

// showroomOf resolves the caller's showroom assignment.  An employee
// without one cannot act at all.
func (h *EmployeeHandler) showroomOf(ctx context.Context, employeeID uint64) (uint64, error) {
	u, err := h.Users.GetByID(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	if u.Role != model.RoleEmployee || u.ShowroomID == nil {
		return 0, repository.ErrForbidden
	}
	return *u.ShowroomID, nil
}

// ----- invoice cost DTOs, shared with the admin handler -----

type invoiceItemReq struct {
	Description string  `json:"description"`
	Quantity    uint32  `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type invoiceCostsReq struct {
	PartsCost float64          `json:"parts_cost"`
	LaborCost float64          `json:"labor_cost"`
	Tax       float64          `json:"tax"`
	Discount  float64          `json:"discount"`
	Notes     string           `json:"notes"`
	Items     []invoiceItemReq `json:"items"`
}

// buildInvoiceItems validates and prices the request line items.
func buildInvoiceItems(reqs []invoiceItemReq) ([]model.InvoiceItem, string) {
	items := make([]model.InvoiceItem, 0, len(reqs))
	for _, it := range reqs {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			return nil, "item description is required"
		}
		if it.Quantity == 0 {
			return nil, "item quantity must be at least 1"
		}
		if it.UnitPrice < 0 {
			return nil, "item unit price must not be negative"
		}
		items = append(items, model.InvoiceItem{
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      float64(it.Quantity) * it.UnitPrice,
		})
	}
	return items, ""
}

// WorkQueue handles GET /v1/employee/showrooms/:id/bookings, the open
// bookings (PENDING and INSPECTED) of the employee's own showroom.
func (h *EmployeeHandler) WorkQueue(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil || showroomID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	list, err := h.Bookings.ListWorkQueue(ctx, showroomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": newBookingViews(list)})
}

// GetBooking handles GET /v1/employee/bookings/:id.
func (h *EmployeeHandler) GetBooking(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.ShowroomID != showroomID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": newBookingView(b)})
}

// Inspect handles POST /v1/employee/bookings/:id/inspect, moving a PENDING
// booking to INSPECTED with the employee's notes.
func (h *EmployeeHandler) Inspect(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Notes = strings.TrimSpace(req.Notes)
	if req.Notes == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notes are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.ShowroomID != showroomID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Bookings.Inspect(ctx, id, req.Notes); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending bookings can be inspected"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "inspect failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking inspected"})
}

// UpdateStatus handles PUT /v1/employee/bookings/:id/status.  Employees may
// move a PENDING booking to INSPECTED (equivalent to Inspect, notes
// optional here) or cancel it on the customer's behalf; the invoiced and
// paid transitions only happen through their own flows.
func (h *EmployeeHandler) UpdateStatus(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if req.Status != model.BookingInspected && req.Status != model.BookingCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be INSPECTED or CANCELLED"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.ShowroomID != showroomID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if req.Status == model.BookingInspected && strings.TrimSpace(req.Notes) != "" {
		err = h.Bookings.Inspect(ctx, id, strings.TrimSpace(req.Notes))
	} else {
		err = h.Bookings.UpdateStatus(ctx, id, model.BookingPending, req.Status)
	}
	if err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending bookings can change status"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking status updated"})
}

// GenerateInvoice handles POST /v1/employee/bookings/:id/invoice/generate.
// A PENDING or INSPECTED booking may be invoiced; the invoice number is
// allocated and the booking moved to INVOICED in the same transaction.
func (h *EmployeeHandler) GenerateInvoice(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req invoiceCostsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	total, err := model.InvoiceTotal(req.PartsCost, req.LaborCost, req.Tax, req.Discount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	items, msg := buildInvoiceItems(req.Items)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.ShowroomID != showroomID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	switch b.Status {
	case model.BookingPending, model.BookingInspected:
		// Invoicing is allowed straight from PENDING; inspection is optional.
	default:
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking can no longer be invoiced"})
	}

	bookingID := b.ID
	inv := model.Invoice{
		BookingID:   &bookingID,
		UserID:      b.UserID,
		EmployeeID:  employeeID,
		ShowroomID:  showroomID,
		PartsCost:   req.PartsCost,
		LaborCost:   req.LaborCost,
		Tax:         req.Tax,
		Discount:    req.Discount,
		TotalAmount: total,
		GeneratedAt: time.Now().UTC(),
	}
	if req.Notes != "" {
		inv.Notes = &req.Notes
	}
	if err := h.Invoices.Create(ctx, &inv, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invoice failed"})
	}

	h.Notifier.AfterInvoice(inv, items)
	return c.JSON(http.StatusCreated, echo.Map{"invoice": newInvoiceView(inv, items)})
}

// GenerateDirect handles POST /v1/employee/invoice/generate-direct, the
// walk-in flow: a synthetic REPAIR booking already at INVOICED, the invoice
// itself and a PENDING cash payment, created in one request.  The customer
// is resolved by username.
func (h *EmployeeHandler) GenerateDirect(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)

	var req struct {
		Username  string `json:"username"`
		CarNumber string `json:"car_number"`
		CarModel  string `json:"car_model"`
		invoiceCostsReq
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.CarNumber = strings.ToUpper(strings.TrimSpace(req.CarNumber))
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
	}
	if req.CarNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "car_number is required"})
	}
	total, err := model.InvoiceTotal(req.PartsCost, req.LaborCost, req.Tax, req.Discount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	items, msg := buildInvoiceItems(req.Items)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	customer, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if customer.Role != model.RoleUser {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username does not belong to a customer"})
	}

	b := model.Booking{
		UserID:        customer.ID,
		ShowroomID:    showroomID,
		CarNumber:     req.CarNumber,
		ServiceType:   model.ServiceRepair,
		Duration:      model.DurationHourly,
		EstimatedCost: total,
		Status:        model.BookingInvoiced,
	}
	if req.CarModel != "" {
		b.CarModel = &req.CarModel
	}
	inv := model.Invoice{
		UserID:      customer.ID,
		EmployeeID:  employeeID,
		ShowroomID:  showroomID,
		PartsCost:   req.PartsCost,
		LaborCost:   req.LaborCost,
		Tax:         req.Tax,
		Discount:    req.Discount,
		TotalAmount: total,
		GeneratedAt: time.Now().UTC(),
	}
	if req.Notes != "" {
		inv.Notes = &req.Notes
	}
	p := model.Payment{
		UserID:        customer.ID,
		ShowroomID:    showroomID,
		Amount:        total,
		PaymentMethod: model.MethodCash,
	}
	// Booking, invoice and payment land in one transaction.
	if err := h.Invoices.CreateDirect(ctx, &b, &inv, items, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invoice failed"})
	}

	h.Notifier.AfterInvoice(inv, items)
	return c.JSON(http.StatusCreated, echo.Map{
		"booking": newBookingView(b),
		"invoice": newInvoiceView(inv, items),
		"payment": newPaymentView(p),
	})
}

// ListInvoices handles GET /v1/employee/invoices, the invoices generated by
// the calling employee.
func (h *EmployeeHandler) ListInvoices(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Invoices.ListByEmployee(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": newInvoiceViews(list)})
}

// UpdateInvoice handles PUT /v1/employee/invoices/:id.  Only GENERATED
// invoices of the employee's showroom can be edited; the total is
// recomputed and revalidated.
func (h *EmployeeHandler) UpdateInvoice(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req invoiceCostsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	total, err := model.InvoiceTotal(req.PartsCost, req.LaborCost, req.Tax, req.Discount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	items, msg := buildInvoiceItems(req.Items)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	inv, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if inv.ShowroomID != showroomID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	inv.PartsCost = req.PartsCost
	inv.LaborCost = req.LaborCost
	inv.Tax = req.Tax
	inv.Discount = req.Discount
	inv.TotalAmount = total
	if req.Notes != "" {
		inv.Notes = &req.Notes
	}
	if err := h.Invoices.Update(ctx, &inv, items); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		case repository.ErrInvalidState:
			return c.JSON(http.StatusConflict, echo.Map{"error": "only generated invoices can be edited"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Notifier.AfterInvoice(inv, items)
	return c.JSON(http.StatusOK, echo.Map{"invoice": newInvoiceView(inv, items)})
}

// PendingPayments handles GET /v1/employee/payments/pending for the
// employee's showroom.
func (h *EmployeeHandler) PendingPayments(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	list, err := h.Payments.ListPendingByShowroom(ctx, showroomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": newPaymentViews(list)})
}

// MarkPaid handles POST /v1/employee/payments/:id/mark-paid, settling a
// PENDING payment of the employee's showroom in cash.
func (h *EmployeeHandler) MarkPaid(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	p, err := h.Payments.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if p.ShowroomID != showroomID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	inv, err := h.Invoices.GetByID(ctx, p.InvoiceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}
	if err := markPaymentPaid(ctx, h.Payments, h.Notifier, p, inv, employeeID, model.RoleEmployee, notes); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark paid failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "payment marked as paid"})
}

// Dashboard handles GET /v1/employee/dashboard: payment counters and open
// work for the employee's showroom.
func (h *EmployeeHandler) Dashboard(c echo.Context) error {
	employeeID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroomID, err := h.showroomOf(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	stats, err := h.Payments.StatsByShowroom(ctx, showroomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	queue, err := h.Bookings.ListWorkQueue(ctx, showroomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showroom_id":   showroomID,
		"payments":      stats,
		"open_bookings": len(queue),
	})
}

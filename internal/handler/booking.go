package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/middleware"
	"github.com/parkplaza/parkplaza-backend/internal/model"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
)

// BookingHandler serves the customer-facing booking endpoints.
type BookingHandler struct {
	Bookings  *repository.BookingRepo
	Showrooms *repository.ShowroomRepo
	Invoices  *repository.InvoiceRepo
}

func NewBookingHandler(b *repository.BookingRepo, s *repository.ShowroomRepo, i *repository.InvoiceRepo) *BookingHandler {
	return &BookingHandler{Bookings: b, Showrooms: s, Invoices: i}
}

type createBookingReq struct {
	ShowroomID  uint64 `json:"showroom_id"`
	CarNumber   string `json:"car_number"`
	CarModel    string `json:"car_model"`
	CarColor    string `json:"car_color"`
	ServiceType string `json:"service_type"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

func validServiceType(t string) bool {
	return t == model.ServiceParking || t == model.ServiceWash || t == model.ServiceRepair
}

func validDuration(d string) bool {
	return d == model.DurationHourly || d == model.DurationDaily || d == model.DurationWeekly
}

// Create handles POST /v1/user/bookings.  The estimated cost comes from the
// fixed rate table; the billable amount is set later by the invoice.
func (h *BookingHandler) Create(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.CarNumber = strings.ToUpper(strings.TrimSpace(req.CarNumber))
	req.ServiceType = strings.ToUpper(strings.TrimSpace(req.ServiceType))
	req.Duration = strings.ToUpper(strings.TrimSpace(req.Duration))

	switch {
	case req.ShowroomID == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showroom_id is required"})
	case req.CarNumber == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "car_number is required"})
	case !validServiceType(req.ServiceType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_type must be PARKING, WASH or REPAIR"})
	case !validDuration(req.Duration):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be HOURLY, DAILY or WEEKLY"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	showroom, err := h.Showrooms.GetByID(ctx, req.ShowroomID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showroom not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !showroom.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showroom is not accepting bookings"})
	}

	b := model.Booking{
		UserID:        userID,
		ShowroomID:    showroom.ID,
		CarNumber:     req.CarNumber,
		ServiceType:   req.ServiceType,
		Duration:      req.Duration,
		EstimatedCost: model.RateFor(req.Duration),
		Status:        model.BookingPending,
	}
	if req.CarModel != "" {
		b.CarModel = &req.CarModel
	}
	if req.CarColor != "" {
		b.CarColor = &req.CarColor
	}
	if req.Description != "" {
		b.Description = &req.Description
	}
	if _, err := h.Bookings.Create(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	created, err := h.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		created = b
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": newBookingView(created)})
}

// ListMine handles GET /v1/user/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": newBookingViews(list)})
}

// GetMine handles GET /v1/user/bookings/:id with an ownership check.
func (h *BookingHandler) GetMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	resp := echo.Map{"booking": newBookingView(b)}
	// Attach the billing invoice once one exists.
	if inv, err := h.Invoices.GetByBooking(ctx, b.ID); err == nil {
		items, _ := h.Invoices.Items(ctx, inv.ID)
		resp["invoice"] = newInvoiceView(inv, items)
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /v1/user/bookings/:id/cancel.  Only the owner may
// cancel, and only while the booking is still PENDING.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Bookings.Cancel(ctx, id); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending bookings can be cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
}

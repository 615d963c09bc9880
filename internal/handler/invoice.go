package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/middleware"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
)

// InvoiceHandler serves the customer-facing invoice endpoints.
type InvoiceHandler struct {
	Invoices *repository.InvoiceRepo
}

func NewInvoiceHandler(i *repository.InvoiceRepo) *InvoiceHandler {
	return &InvoiceHandler{Invoices: i}
}

// ListMine handles GET /v1/user/invoices.
func (h *InvoiceHandler) ListMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Invoices.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": newInvoiceViews(list)})
}

// GetMine handles GET /v1/user/invoices/:id, returning the invoice with its
// line items after an ownership check.
func (h *InvoiceHandler) GetMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if inv.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	items, err := h.Invoices.Items(ctx, inv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoice": newInvoiceView(inv, items)})
}

// Accept handles POST /v1/user/invoices/:id/accept, moving a GENERATED
// invoice to ACCEPTED.
func (h *InvoiceHandler) Accept(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if inv.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Invoices.Accept(ctx, id); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only generated invoices can be accepted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "invoice accepted"})
}

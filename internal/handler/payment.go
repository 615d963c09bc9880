package handler

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/config"
	"github.com/parkplaza/parkplaza-backend/internal/gateway"
	"github.com/parkplaza/parkplaza-backend/internal/middleware"
	"github.com/parkplaza/parkplaza-backend/internal/model"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
)

// PaymentHandler serves the customer-facing payment endpoints plus the
// shared cash-recording endpoint.
type PaymentHandler struct {
	Cfg      config.Config
	Payments *repository.PaymentRepo
	Invoices *repository.InvoiceRepo
	Users    *repository.UserRepo
	Gateway  gateway.OrderCreator
	Notifier *SettlementNotifier
}

func NewPaymentHandler(cfg config.Config, p *repository.PaymentRepo, i *repository.InvoiceRepo,
	u *repository.UserRepo, g gateway.OrderCreator, n *SettlementNotifier) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Payments: p, Invoices: i, Users: u, Gateway: g, Notifier: n}
}

func validOnlineMethod(m string) bool {
	switch m {
	case model.MethodRazorpay, model.MethodUPI, model.MethodCard, model.MethodNetBanking:
		return true
	}
	return false
}

// CreateOrder handles POST /v1/user/payments/order.  A gateway order sized
// to the invoice total is created first; only after the gateway accepts it
// is the PENDING payment row written.  A gateway failure answers 502 and
// leaves nothing behind, so the customer can simply retry.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	var req struct {
		InvoiceID uint64 `json:"invoice_id"`
		Method    string `json:"method"`
	}
	if err := c.Bind(&req); err != nil || req.InvoiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invoice_id is required"})
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = model.MethodRazorpay
	}
	if !validOnlineMethod(method) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be RAZORPAY, UPI, CARD or NET_BANKING"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByID(ctx, req.InvoiceID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if inv.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if inv.Status == model.InvoicePaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invoice is already paid"})
	}

	amountPaise := int64(math.Round(inv.TotalAmount * 100))
	order, err := h.Gateway.CreateOrder(ctx, amountPaise, inv.InvoiceNumber)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable, try again"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	p := model.Payment{
		InvoiceID:      inv.ID,
		BookingID:      inv.BookingID,
		UserID:         inv.UserID,
		ShowroomID:     inv.ShowroomID,
		Amount:         inv.TotalAmount,
		PaymentMethod:  method,
		GatewayOrderID: &order.ID,
	}
	if _, err := h.Payments.CreatePending(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"payment": newPaymentView(p),
		"order": echo.Map{
			"id":       order.ID,
			"amount":   order.Amount,
			"currency": order.Currency,
			"key_id":   h.Cfg.RazorpayKeyID, // checkout needs the public key
		},
	})
}

// Verify handles POST /v1/user/payments/verify.  The checkout signature is
// recomputed server-side; a mismatch leaves the payment PENDING so the
// customer can retry through the gateway.
func (h *PaymentHandler) Verify(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	var req struct {
		PaymentID        uint64 `json:"payment_id"`
		GatewayPaymentID string `json:"gateway_payment_id"`
		GatewaySignature string `json:"gateway_signature"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PaymentID == 0 || req.GatewayPaymentID == "" || req.GatewaySignature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_id, gateway_payment_id and gateway_signature are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if p.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if p.Status != model.PaymentPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not pending"})
	}
	if p.GatewayOrderID == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment has no gateway order"})
	}

	if !gateway.VerifySignature(h.Cfg.RazorpayKeySecret, *p.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature mismatch"})
	}

	if err := h.Payments.SettleOnline(ctx, &p, req.GatewayPaymentID, req.GatewaySignature); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settle failed"})
	}

	inv, err := h.Invoices.GetByID(ctx, p.InvoiceID)
	if err == nil {
		h.Notifier.AfterSettlement(p, inv)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "payment verified", "payment": newPaymentView(p)})
}

// RecordCash handles POST /v1/payments/manual, shared by every role.  A
// customer may record cash against their own invoice; an employee against
// their showroom's invoices; an admin anywhere.  The payment row is written
// directly in SUCCESS with the synthetic cash transaction id.
func (h *PaymentHandler) RecordCash(c echo.Context) error {
	actorID := middleware.CurrentUserID(c)
	actorRole := middleware.CurrentRole(c)

	var req struct {
		InvoiceID uint64  `json:"invoice_id"`
		Amount    float64 `json:"amount"`
		Note      string  `json:"note"`
	}
	if err := c.Bind(&req); err != nil || req.InvoiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invoice_id is required"})
	}
	if req.Amount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must not be negative"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByID(ctx, req.InvoiceID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	switch actorRole {
	case model.RoleUser:
		if inv.UserID != actorID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	case model.RoleEmployee:
		actor, err := h.Users.GetByID(ctx, actorID)
		if err != nil || actor.ShowroomID == nil || *actor.ShowroomID != inv.ShowroomID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	case model.RoleAdmin:
		// unrestricted
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if inv.Status == model.InvoicePaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invoice is already paid"})
	}

	amount := req.Amount
	if amount == 0 {
		amount = inv.TotalAmount
	}

	p := model.Payment{
		InvoiceID:  inv.ID,
		BookingID:  inv.BookingID,
		UserID:     inv.UserID,
		ShowroomID: inv.ShowroomID,
		Amount:     amount,
	}
	audit := model.PaymentAudit{
		InvoiceID:      &inv.ID,
		Action:         "RECORD_CASH_PAYMENT",
		ActorID:        actorID,
		ActorRole:      actorRole,
		PreviousStatus: "NONE",
		NewStatus:      model.PaymentSuccess,
	}
	if req.Note != "" {
		audit.Notes = &req.Note
	}
	if err := h.Payments.RecordCash(ctx, &p, audit); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record cash payment failed"})
	}

	h.Notifier.AfterSettlement(p, inv)
	return c.JSON(http.StatusCreated, echo.Map{"message": "cash payment recorded", "payment": newPaymentView(p)})
}

// ListPendingMine handles GET /v1/user/payments/pending.
func (h *PaymentHandler) ListPendingMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Payments.ListByUser(ctx, userID, model.PaymentPending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": newPaymentViews(list)})
}

// HistoryMine handles GET /v1/user/payments/history.
func (h *PaymentHandler) HistoryMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Payments.ListByUser(ctx, userID, model.PaymentSuccess)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": newPaymentViews(list)})
}

// GetMine handles GET /v1/user/payments/:id, returning the payment with its
// audit trail after an ownership check.
func (h *PaymentHandler) GetMine(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Payments.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if p.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	audits, err := h.Payments.AuditsByPayment(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payment": newPaymentView(p), "audits": newAuditViews(audits)})
}

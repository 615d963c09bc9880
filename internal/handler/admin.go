package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkplaza/parkplaza-backend/internal/config"
	"github.com/parkplaza/parkplaza-backend/internal/mailer"
	"github.com/parkplaza/parkplaza-backend/internal/middleware"
	"github.com/parkplaza/parkplaza-backend/internal/model"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
	"github.com/parkplaza/parkplaza-backend/internal/utils"
)

// AdminHandler serves the admin endpoints: showroom management, employee
// and user administration, and network-wide payment oversight.
type AdminHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Showrooms *repository.ShowroomRepo
	Invoices  *repository.InvoiceRepo
	Payments  *repository.PaymentRepo
	Mail      mailer.Mailer
	Notifier  *SettlementNotifier
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo, s *repository.ShowroomRepo,
	i *repository.InvoiceRepo, p *repository.PaymentRepo, m mailer.Mailer, n *SettlementNotifier) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u, Showrooms: s, Invoices: i, Payments: p, Mail: m, Notifier: n}
}

// ----- showrooms -----

type showroomReq struct {
	Name              string   `json:"name"`
	Address           string   `json:"address"`
	City              string   `json:"city"`
	Longitude         float64  `json:"longitude"`
	Latitude          float64  `json:"latitude"`
	TotalParkingSlots uint32   `json:"total_parking_slots"`
	AvailableSlots    uint32   `json:"available_slots"`
	Facilities        []string `json:"facilities"`
	PhoneNumber       string   `json:"phone_number"`
	OpenTime          string   `json:"open_time"`
	CloseTime         string   `json:"close_time"`
	IsActive          *bool    `json:"is_active"`
}

func (r *showroomReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	switch {
	case r.Name == "":
		return "name is required"
	case r.Address == "":
		return "address is required"
	case r.City == "":
		return "city is required"
	case r.Longitude < -180 || r.Longitude > 180 || r.Latitude < -90 || r.Latitude > 90:
		return "coordinates out of range"
	case r.TotalParkingSlots == 0:
		return "total_parking_slots must be at least 1"
	case r.AvailableSlots > r.TotalParkingSlots:
		return "available_slots cannot exceed total_parking_slots"
	}
	return ""
}

func (r *showroomReq) apply(s *model.Showroom) {
	s.Name = r.Name
	s.Address = r.Address
	s.City = r.City
	s.Longitude = r.Longitude
	s.Latitude = r.Latitude
	s.TotalParkingSlots = r.TotalParkingSlots
	s.AvailableSlots = r.AvailableSlots
	s.Facilities = strings.Join(r.Facilities, ",")
	s.PhoneNumber = nil
	if r.PhoneNumber != "" {
		s.PhoneNumber = &r.PhoneNumber
	}
	s.OpenTime = nil
	if r.OpenTime != "" {
		s.OpenTime = &r.OpenTime
	}
	s.CloseTime = nil
	if r.CloseTime != "" {
		s.CloseTime = &r.CloseTime
	}
	s.IsActive = true
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
}

// CreateShowroom handles POST /v1/admin/showrooms.
func (h *AdminHandler) CreateShowroom(c echo.Context) error {
	var req showroomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	var s model.Showroom
	req.apply(&s)
	if _, err := h.Showrooms.Create(ctx, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create showroom failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"showroom": newShowroomView(s)})
}

// UpdateShowroom handles PUT /v1/admin/showrooms/:id.
func (h *AdminHandler) UpdateShowroom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req showroomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Showrooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showroom not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	req.apply(&s)
	if err := h.Showrooms.Update(ctx, &s); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showroom not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update showroom failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"showroom": newShowroomView(s)})
}

// ListShowrooms handles GET /v1/admin/showrooms, including inactive rows.
func (h *AdminHandler) ListShowrooms(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Showrooms.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]showroomView, 0, len(list))
	for _, s := range list {
		views = append(views, newShowroomView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"showrooms": views})
}

// ----- employees and users -----

// CreateEmployee handles POST /v1/admin/employees.  The account gets a
// generated temporary password mailed together with the verification link;
// when the mail cannot be delivered the account is rolled back.
func (h *AdminHandler) CreateEmployee(c echo.Context) error {
	var req struct {
		Username   string `json:"username"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		ShowroomID uint64 `json:"showroom_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Username == "" {
		// Derive a username from the email local part.
		local := strings.SplitN(req.Email, "@", 2)[0]
		req.Username = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
				return r
			}
			return -1
		}, strings.ToLower(local))
	}
	switch {
	case !validUsername(req.Username):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be 3-30 chars of a-z, 0-9, _"})
	case req.Name == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	case !validEmail(req.Email):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid @gmail.com address is required"})
	case !validPhone(req.Phone):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone must be 10 digits"})
	case req.ShowroomID == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showroom_id is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Showrooms.GetByID(ctx, req.ShowroomID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showroom not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tempPassword, err := utils.TempEmployeePassword()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password generation failed"})
	}
	hash, err := utils.HashPassword(tempPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	rawToken, tokenHash, tokenExp, err := utils.NewMailToken(verifyTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	showroomID := req.ShowroomID
	u := model.User{
		Username:                 req.Username,
		Name:                     req.Name,
		Email:                    req.Email,
		Phone:                    req.Phone,
		PasswordHash:             hash,
		Role:                     model.RoleEmployee,
		ShowroomID:               &showroomID,
		EmailVerificationToken:   &tokenHash,
		EmailVerificationExpires: &tokenExp,
	}
	uid, err := h.Users.Create(ctx, &u)
	if err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create employee failed"})
	}

	if err := h.Mail.SendEmployeeWelcome(u.Email, u.Username, tempPassword, rawToken); err != nil {
		if derr := h.Users.Delete(ctx, uid); derr != nil {
			log.Printf("admin: rollback of employee %d failed: %v", uid, derr)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send welcome email"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "employee created; credentials sent by email",
		"employee": newUserView(u),
	})
}

// ListEmployees handles GET /v1/admin/employees, optionally filtered to one
// showroom with ?showroom_id=.
func (h *AdminHandler) ListEmployees(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw := c.QueryParam("showroom_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom_id"})
		}
		list, err := h.Users.EmployeesByShowroom(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"employees": userViews(list)})
	}

	list, err := h.Users.List(ctx, model.RoleEmployee)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"employees": userViews(list)})
}

func userViews(us []model.User) []userView {
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, newUserView(u))
	}
	return out
}

// ListUsers handles GET /v1/admin/users, optionally filtered with ?role=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	if role != "" && role != model.RoleUser && role != model.RoleEmployee && role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Users.List(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": userViews(list)})
}

// UpdateUserRole handles PUT /v1/admin/users/:id/role.  Promoting to
// EMPLOYEE requires a showroom assignment; any other role clears it.
func (h *AdminHandler) UpdateUserRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Role       string `json:"role"`
		ShowroomID uint64 `json:"showroom_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleUser && role != model.RoleEmployee && role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be USER, EMPLOYEE or ADMIN"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	var showroomID *uint64
	if role == model.RoleEmployee {
		if req.ShowroomID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "showroom_id is required for EMPLOYEE"})
		}
		if _, err := h.Showrooms.GetByID(ctx, req.ShowroomID); err != nil {
			if err == repository.ErrNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "showroom not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		sid := req.ShowroomID
		showroomID = &sid
	}

	if err := h.Users.UpdateRole(ctx, id, role, showroomID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// ----- invoices and payments -----

// CreateUserInvoice handles POST /v1/admin/invoices: an invoice billed
// directly to a customer with no booking behind it.
func (h *AdminHandler) CreateUserInvoice(c echo.Context) error {
	adminID := middleware.CurrentUserID(c)

	var req struct {
		Username   string `json:"username"`
		ShowroomID uint64 `json:"showroom_id"`
		invoiceCostsReq
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
	}
	if req.ShowroomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showroom_id is required"})
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
	if _, err := h.Showrooms.GetByID(ctx, req.ShowroomID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showroom not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	inv := model.Invoice{
		UserID:      customer.ID,
		EmployeeID:  adminID,
		ShowroomID:  req.ShowroomID,
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

// showroomFilter parses the optional ?showroom_id= query parameter; zero
// means the whole network.
func showroomFilter(c echo.Context) (uint64, error) {
	raw := c.QueryParam("showroom_id")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// PendingPayments handles GET /v1/admin/payments/pending.
func (h *AdminHandler) PendingPayments(c echo.Context) error {
	showroomID, err := showroomFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom_id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Payments.ListPendingByShowroom(ctx, showroomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": newPaymentViews(list)})
}

// MarkPaid handles POST /v1/admin/payments/:id/mark-paid.
func (h *AdminHandler) MarkPaid(c echo.Context) error {
	adminID := middleware.CurrentUserID(c)
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

	p, err := h.Payments.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	inv, err := h.Invoices.GetByID(ctx, p.InvoiceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}
	if err := markPaymentPaid(ctx, h.Payments, h.Notifier, p, inv, adminID, model.RoleAdmin, notes); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark paid failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "payment marked as paid"})
}

// PaymentHistory handles GET /v1/admin/payments/history.
func (h *AdminHandler) PaymentHistory(c echo.Context) error {
	showroomID, err := showroomFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom_id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Payments.History(ctx, showroomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": newPaymentViews(list)})
}

// Dashboard handles GET /v1/admin/dashboard: network-wide payment counters
// plus showroom and account totals.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Payments.StatsByShowroom(ctx, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	showrooms, err := h.Showrooms.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	active := 0
	for _, s := range showrooms {
		if s.IsActive {
			active++
		}
	}
	users, err := h.Users.List(ctx, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	byRole := map[string]int{}
	for _, u := range users {
		byRole[u.Role]++
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payments": stats,
		"showrooms": echo.Map{
			"total":  len(showrooms),
			"active": active,
		},
		"accounts": echo.Map{
			"total":     len(users),
			"customers": byRole[model.RoleUser],
			"employees": byRole[model.RoleEmployee],
			"admins":    byRole[model.RoleAdmin],
		},
	})
}

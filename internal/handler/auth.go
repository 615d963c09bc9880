package handler

import (
	"context"
	"log"
	"net/http"
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

// Token lifetimes for the one-shot email tokens.
const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// AuthHandler bundles dependencies for the authentication endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Mail   mailer.Mailer
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, m mailer.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Mail: m}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

type loginReq struct {
	Identifier string `json:"identifier"` // email or username
	Email      string `json:"email"`      // accepted as an alias for identifier
	Password   string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    userView  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// RegisterUser creates a USER account and sends the verification email.  No
// tokens are issued; the account cannot log in until the email is verified.
// When the email cannot be delivered the account is rolled back so the
// address stays free for a retry.
func (h *AuthHandler) RegisterUser(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)

	switch {
	case !validUsername(req.Username):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be 3-30 chars of a-z, 0-9, _"})
	case req.Name == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	case !validEmail(req.Email):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid @gmail.com address is required"})
	case !validPhone(req.Phone):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone must be 10 digits"})
	case len(req.Password) < 8:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	rawToken, tokenHash, tokenExp, err := utils.NewMailToken(verifyTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := model.User{
		Username:                 req.Username,
		Name:                     req.Name,
		Email:                    req.Email,
		Phone:                    req.Phone,
		PasswordHash:             hash,
		Role:                     model.RoleUser,
		EmailVerificationToken:   &tokenHash,
		EmailVerificationExpires: &tokenExp,
	}
	if req.Address != "" {
		u.Address = &req.Address
	}
	uid, err := h.Users.Create(ctx, &u)
	if err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if err := h.Mail.SendVerification(u.Email, rawToken); err != nil {
		// Registration is void without the verification email.
		if derr := h.Users.Delete(ctx, uid); derr != nil {
			log.Printf("auth: rollback of user %d failed: %v", uid, derr)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send verification email"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered; check your email to verify the account",
		"user":    newUserView(u),
	})
}

// LoginUser authenticates a USER account.
func (h *AuthHandler) LoginUser(c echo.Context) error { return h.login(c, model.RoleUser) }

// LoginEmployee authenticates an EMPLOYEE account.
func (h *AuthHandler) LoginEmployee(c echo.Context) error { return h.login(c, model.RoleEmployee) }

// LoginAdmin authenticates an ADMIN account.
func (h *AuthHandler) LoginAdmin(c echo.Context) error { return h.login(c, model.RoleAdmin) }

// login verifies credentials for one role.  Every rejection — unknown
// identifier, wrong password, wrong role, deactivated account — answers
// with the same message so the endpoint cannot be used to enumerate
// accounts.  Unverified email is the one distinguishable failure, and only
// after the password checked out; admins bypass the verification gate.
func (h *AuthHandler) login(c echo.Context, role string) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || u.Role != role || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.EmailVerified && u.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	}

	return h.issueTokens(c, ctx, u, http.StatusOK)
}

// issueTokens mints an access/refresh pair, stores the refresh hash and
// writes the auth response.
func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, u model.User, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, u.Role, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(status, authResp{
		User:    newUserView(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// VerifyEmail consumes a verification token and activates the account.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByVerificationToken(ctx, utils.HashToken(token))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.MarkEmailVerified(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified; you can log in now"})
}

// CheckUsername reports whether a username is free.  Registration forms poll
// this while the user types.
func (h *AuthHandler) CheckUsername(c echo.Context) error {
	username := strings.ToLower(strings.TrimSpace(c.QueryParam("username")))
	if !validUsername(username) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be 3-30 chars of a-z, 0-9, _"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	taken, err := h.Users.UsernameTaken(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"username": username, "available": !taken})
}

// ForgotPassword issues a reset token for the account behind an email.  The
// response never reveals whether the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	accepted := c.JSON(http.StatusOK, echo.Map{
		"message": "if the account exists, a reset email has been sent",
	})

	u, err := h.Users.GetByIdentifier(ctx, req.Email)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("auth: forgot-password lookup failed: %v", err)
		}
		return accepted
	}
	// Reset is gated on a verified address, like login; the body stays
	// uniform so the gate does not leak account state.
	if !u.EmailVerified {
		return accepted
	}
	raw, tokenHash, exp, err := utils.NewMailToken(resetTokenTTL)
	if err != nil {
		log.Printf("auth: reset token generation failed: %v", err)
		return accepted
	}
	if err := h.Users.SetResetToken(ctx, u.ID, tokenHash, exp); err != nil {
		log.Printf("auth: store reset token failed: %v", err)
		return accepted
	}
	if err := h.Mail.SendPasswordReset(u.Email, raw); err != nil {
		log.Printf("auth: reset email to user %d failed: %v", u.ID, err)
	}
	return accepted
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every live session.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByResetToken(ctx, utils.HashToken(req.Token))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	// A reset invalidates every device.
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		log.Printf("auth: revoke sessions after reset for user %d failed: %v", u.ID, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated; log in with the new password"})
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.  Presenting a token whose session row is missing or
// already revoked — while the signature still verifies — means the token
// leaked and was used twice, so every session of that user is cleared.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	uid, err := utils.ParseRefreshToken(h.Cfg.RefreshSecret, req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	oldHash := utils.HashToken(req.RefreshToken)
	row, err := h.Tokens.FindByHash(ctx, oldHash)
	if err != nil {
		if err == repository.ErrNotFound {
			// Signed by us, absent from the store: reuse after cleanup.
			_ = h.Tokens.RevokeAllForUser(ctx, uid)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if row.RevokedAt != nil {
		// Already rotated or logged out; a second presentation is reuse.
		_ = h.Tokens.RevokeAllForUser(ctx, row.UserID)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	u, err := h.Users.GetByID(ctx, row.UserID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, u.Role, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	newHash := utils.HashToken(refresh.Raw)
	if err := h.Tokens.Rotate(ctx, oldHash, newHash); err != nil {
		if err == repository.ErrInvalidState {
			// A concurrent refresh won the rotation; this one is reuse.
			_ = h.Tokens.RevokeAllForUser(ctx, u.ID)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, newHash, refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    newUserView(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Logout revokes the presented refresh token.  With {"all": true} every
// session of the token's owner is revoked instead.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		All          bool   `json:"all"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	// No token presented means no session to revoke; logging out twice is
	// not an error.
	if req.RefreshToken == "" {
		return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.All {
		uid, err := utils.ParseRefreshToken(h.Cfg.RefreshSecret, req.RefreshToken)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "logged out everywhere"})
	}

	if err := h.Tokens.RevokeByHash(ctx, utils.HashToken(req.RefreshToken)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated account's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": newUserView(u)})
}

// UpdateProfile updates the mutable profile fields of the authenticated
// account.  Omitted fields keep their current value; email, username and
// role are immutable here.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone != "" && !validPhone(req.Phone) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone must be 10 digits"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, req.Name, req.Phone, req.Address); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": newUserView(u)})
}

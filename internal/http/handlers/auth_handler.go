package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

type sessionResponse struct {
	User any `json:"user"`
}

// GET /api/auth/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	if u := currentUser(c); u != nil {
		return c.JSON(sessionResponse{User: u})
	}
	return c.JSON(sessionResponse{})
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, sid, err := h.Auth.Register(c.UserContext(), c.Cookies(sessionCookie), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		applog.Security(c, "auth.register.fail", map[string]any{"username": req.Username})
		return err
	}
	setSID(c, sid, h.CookieSecure)
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.register.success", map[string]any{"username": u.Username, "tenant": u.TenantID})
	return c.Status(fiber.StatusCreated).JSON(sessionResponse{User: u})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return services.ErrBadCreds
	}
	u, sid, err := h.Auth.Login(c.UserContext(), c.Cookies(sessionCookie), req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return err
	}
	setSID(c, sid, h.CookieSecure)
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": u.Email})
	return c.JSON(sessionResponse{User: u})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(sessionCookie)
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return err
		}
	}
	expireSID(c, h.CookieSecure)
	applog.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

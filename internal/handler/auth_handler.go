package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/credicambios/internal/auth"
	"github.com/fairyhunter13/credicambios/internal/model"
)

// Authenticator exchanges the admin secret for a bearer token.
type Authenticator interface {
	Login(secret string) (string, time.Time, error)
}

// AuthHandler handles admin login.
type AuthHandler struct {
	auth      Authenticator
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(a Authenticator, v *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: a, validator: v}
}

// Login handles POST /api/admin/login requests.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	token, expiresAt, err := h.auth.Login(req.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			withRequest(log.Warn(), c).Str("ip", c.IP()).Msg("admin login rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}
		logFailure(c, err).Msg("failed to issue admin token")
		return internalError(c)
	}

	withRequest(log.Info(), c).Str("ip", c.IP()).Time("expires_at", expiresAt).Msg("admin logged in")

	return c.JSON(model.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

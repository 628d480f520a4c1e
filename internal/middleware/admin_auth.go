// Package middleware holds the fiber middleware guarding the admin API.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// LocalsAdminClaims is the fiber.Ctx locals key holding verified token claims.
const LocalsAdminClaims = "admin_claims"

// TokenVerifier verifies admin bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*jwt.RegisteredClaims, error)
}

// AdminAuth rejects requests without a valid "Authorization: Bearer <token>" header.
func AdminAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Warn().
				Err(err).
				Str("request_id", c.GetRespHeader("X-Request-ID")).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("rejected admin token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(LocalsAdminClaims, claims)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// formatValidationError converts validator errors to client-facing messages.
// Only the first failing field is reported.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "nationalid":
		return "invalid request: " + field + " must be exactly 8 characters"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "gt":
		return "invalid request: " + field + " must be a positive number"
	default:
		return "invalid request: " + field + " is invalid"
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// withRequest stamps a log event with the request id, method and path.
func withRequest(ev *zerolog.Event, c *fiber.Ctx) *zerolog.Event {
	return ev.
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path())
}

func logFailure(c *fiber.Ctx, err error) *zerolog.Event {
	return withRequest(log.Error().Err(err), c)
}

// queryInt reads a non-negative integer query parameter, returning def when absent.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid request: " + key + " must be a non-negative integer")
	}
	return n, nil
}

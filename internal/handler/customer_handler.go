package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/internal/service"
	appvalidator "github.com/fairyhunter13/credicambios/internal/validator"
)

// CustomerServiceInterface defines the interface for customer business logic.
type CustomerServiceInterface interface {
	Register(ctx context.Context, req *model.RegisterCustomerRequest) (*model.Customer, error)
	GetProfile(ctx context.Context, id string) (*model.CustomerProfile, error)
}

// CustomerHandler handles HTTP requests for customer registration and lookup.
type CustomerHandler struct {
	service   CustomerServiceInterface
	validator *validator.Validate
}

// NewCustomerHandler creates a new CustomerHandler with the given service and validator.
func NewCustomerHandler(svc CustomerServiceInterface, v *validator.Validate) *CustomerHandler {
	return &CustomerHandler{service: svc, validator: v}
}

// RegisterCustomer handles POST /api/cliente requests to register a customer.
func (h *CustomerHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req model.RegisterCustomerRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	customer, err := h.service.Register(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCustomerExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "customer already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return badRequest(c, "invalid request")
		}
		logFailure(c, err).Str("customer_id", req.ID).Msg("failed to register customer")
		return internalError(c)
	}

	withRequest(log.Info(), c).Str("customer_id", customer.ID).Msg("customer registered")

	return c.Status(fiber.StatusCreated).JSON(customer)
}

// GetCustomer handles GET /api/cliente/:id requests to retrieve a customer's
// profile with recent transactions.
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	if !appvalidator.ValidNationalID(id) {
		return badRequest(c, "invalid request: id must be exactly 8 characters")
	}

	profile, err := h.service.GetProfile(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer not found"})
		}
		logFailure(c, err).Str("customer_id", id).Msg("failed to get customer")
		return internalError(c)
	}

	log.Debug().
		Str("customer_id", id).
		Float64("points", profile.Customer.Points).
		Int("transactions", len(profile.Transactions)).
		Msg("customer retrieved")

	return c.JSON(profile)
}

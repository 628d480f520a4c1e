package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/internal/service"
)

// PurchaseServiceInterface defines the interface for recording purchases and redemptions.
type PurchaseServiceInterface interface {
	RecordPurchase(ctx context.Context, req *model.PurchaseRequest) (*model.PurchaseResult, error)
	Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResult, error)
}

// PurchaseHandler handles HTTP requests that move a customer's points balance.
type PurchaseHandler struct {
	service   PurchaseServiceInterface
	validator *validator.Validate
}

// NewPurchaseHandler creates a new PurchaseHandler with the given service and validator.
func NewPurchaseHandler(svc PurchaseServiceInterface, v *validator.Validate) *PurchaseHandler {
	return &PurchaseHandler{service: svc, validator: v}
}

// RecordPurchase handles POST /api/venta requests.
func (h *PurchaseHandler) RecordPurchase(c *fiber.Ctx) error {
	var req model.PurchaseRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	res, err := h.service.RecordPurchase(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer not found"})
		case errors.Is(err, service.ErrInvalidAmount):
			return badRequest(c, "invalid request: amount must be a positive number")
		case errors.Is(err, service.ErrInvalidRequest):
			return badRequest(c, "invalid request")
		}
		logFailure(c, err).Str("customer_id", req.ID).Msg("failed to record purchase")
		return internalError(c)
	}

	withRequest(log.Info(), c).
		Str("customer_id", res.CustomerID).
		Int64("transaction_id", res.TransactionID).
		Float64("amount", res.Amount).
		Float64("points_awarded", res.PointsAwarded).
		Str("tier", res.Tier).
		Msg("purchase recorded")

	return c.Status(fiber.StatusCreated).JSON(res)
}

// Redeem handles POST /api/canje requests.
func (h *PurchaseHandler) Redeem(c *fiber.Ctx) error {
	var req model.RedeemRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	res, err := h.service.Redeem(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer not found"})
		case errors.Is(err, service.ErrInvalidAmount):
			return badRequest(c, "invalid request: amount must be a positive number")
		case errors.Is(err, service.ErrInvalidRequest):
			return badRequest(c, "invalid request")
		}
		logFailure(c, err).Str("customer_id", req.ID).Msg("failed to redeem points")
		return internalError(c)
	}

	withRequest(log.Info(), c).
		Str("customer_id", res.CustomerID).
		Float64("redeemed", res.Redeemed).
		Float64("points", res.Points).
		Msg("points redeemed")

	return c.JSON(res)
}

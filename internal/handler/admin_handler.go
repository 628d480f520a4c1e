package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/internal/service"
	appvalidator "github.com/fairyhunter13/credicambios/internal/validator"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// AdminServiceInterface defines the interface for back-office operations.
type AdminServiceInterface interface {
	ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, error)
	CustomerHistory(ctx context.Context, id string) ([]model.Transaction, error)
	ReportByDescription(ctx context.Context) ([]model.ReportRow, error)
	ReportByBranch(ctx context.Context) ([]model.ReportRow, error)
	RecentOrders(ctx context.Context) ([]model.OrderEvent, error)
	Reset(ctx context.Context) (*model.ResetResult, error)
}

// AdminHandler handles the bearer-protected admin API.
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: svc}
}

// ListCustomers handles GET /api/admin/clientes?limit=&offset=
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil {
		return badRequest(c, err.Error())
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if limit == 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	customers, err := h.service.ListCustomers(c.Context(), model.Page{Limit: limit, Offset: offset})
	if err != nil {
		logFailure(c, err).Msg("failed to list customers")
		return internalError(c)
	}
	return c.JSON(customers)
}

// CustomerHistory handles GET /api/admin/clientes/:id/transacciones
func (h *AdminHandler) CustomerHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	if !appvalidator.ValidNationalID(id) {
		return badRequest(c, "invalid request: id must be exactly 8 characters")
	}

	txns, err := h.service.CustomerHistory(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer not found"})
		}
		logFailure(c, err).Str("customer_id", id).Msg("failed to get customer history")
		return internalError(c)
	}
	return c.JSON(txns)
}

// ReportByDescription handles GET /api/admin/reportes/descripcion
func (h *AdminHandler) ReportByDescription(c *fiber.Ctx) error {
	rows, err := h.service.ReportByDescription(c.Context())
	if err != nil {
		logFailure(c, err).Msg("failed to build description report")
		return internalError(c)
	}
	return c.JSON(rows)
}

// ReportByBranch handles GET /api/admin/reportes/zona
func (h *AdminHandler) ReportByBranch(c *fiber.Ctx) error {
	rows, err := h.service.ReportByBranch(c.Context())
	if err != nil {
		logFailure(c, err).Msg("failed to build branch report")
		return internalError(c)
	}
	return c.JSON(rows)
}

// RecentOrders handles GET /api/admin/pedidos
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	orders, err := h.service.RecentOrders(c.Context())
	if err != nil {
		logFailure(c, err).Msg("failed to get recent orders")
		return internalError(c)
	}
	return c.JSON(orders)
}

// Reset handles POST /api/admin/limpiar-todo
func (h *AdminHandler) Reset(c *fiber.Ctx) error {
	res, err := h.service.Reset(c.Context())
	if err != nil {
		logFailure(c, err).Msg("failed to reset ledger")
		return internalError(c)
	}

	withRequest(log.Warn(), c).
		Int64("transactions_deleted", res.TransactionsDeleted).
		Int64("customers_deleted", res.CustomersDeleted).
		Msg("ledger reset")

	return c.JSON(res)
}

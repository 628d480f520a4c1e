package handler

import "github.com/gofiber/fiber/v2"

// Routes bundles every handler and guard the API needs.
type Routes struct {
	Health    *HealthHandler
	Customers *CustomerHandler
	Purchases *PurchaseHandler
	Auth      *AuthHandler
	Admin     *AdminHandler
	Feed      *FeedHandler

	// AdminGuard protects every /api/admin route except login.
	AdminGuard fiber.Handler
	// LoginLimiter throttles /api/admin/login. Optional.
	LoginLimiter fiber.Handler
}

// Register mounts the public and admin API on app.
func (r Routes) Register(app *fiber.App) {
	app.Get("/", r.Health.Banner)
	app.Get("/health", r.Health.Check)

	api := app.Group("/api")
	api.Get("/cliente/:id", r.Customers.GetCustomer)
	api.Post("/cliente", r.Customers.RegisterCustomer)
	api.Post("/venta", r.Purchases.RecordPurchase)
	api.Post("/canje", r.Purchases.Redeem)

	// Login must be registered before the guarded group; fiber matches in order.
	login := []fiber.Handler{}
	if r.LoginLimiter != nil {
		login = append(login, r.LoginLimiter)
	}
	login = append(login, r.Auth.Login)
	api.Post("/admin/login", login...)

	admin := api.Group("/admin", r.AdminGuard)
	admin.Get("/clientes", r.Admin.ListCustomers)
	admin.Get("/clientes/:id/transacciones", r.Admin.CustomerHistory)
	admin.Get("/reportes/descripcion", r.Admin.ReportByDescription)
	admin.Get("/reportes/zona", r.Admin.ReportByBranch)
	admin.Get("/pedidos", r.Admin.RecentOrders)
	admin.Get("/pedidos/stream", r.Feed.Stream)
	admin.Post("/limpiar-todo", r.Admin.Reset)
}

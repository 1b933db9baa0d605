package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cqms-io/support-center/internal/api/http/handlers"
	"github.com/cqms-io/support-center/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Tickets        *handlers.TicketsHandler
	Support        *handlers.SupportHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	customer := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	customer.Get("/profile", cfg.Profile.GetProfile)
	customer.Put("/profile", cfg.Profile.UpdateProfile)
	customer.Post("/tickets", cfg.Tickets.CreateTicket)
	customer.Get("/tickets", cfg.Tickets.ListTickets)
	customer.Get("/tickets/:id", cfg.Tickets.GetTicket)
	customer.Post("/tickets/:id/review", cfg.Tickets.SubmitReview)
	customer.Post("/tickets/:id/reopen", cfg.Tickets.ReopenTicket)

	support := app.Group("/support", cfg.AuthMiddleware.Handle, auth.RequireSupport())
	support.Get("/tickets", cfg.Support.ListAllTickets)
	support.Patch("/tickets/:id/status", cfg.Support.SetStatus)
	support.Put("/tickets/:id/comment", cfg.Support.SetComment)
	support.Get("/analytics", cfg.Support.GetAnalytics)
}

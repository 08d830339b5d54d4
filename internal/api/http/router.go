package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/escalation-service/internal/api/http/handlers"
	"github.com/spec-kit/escalation-service/internal/auth"
)

// RouteConfig bundles handlers and middleware for registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Agents  *handlers.AgentsHandler
	Tickets *handlers.TicketsHandler
	Auth    *auth.AuthMiddleware
}

// RegisterRoutes wires all endpoints onto the app.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Agents.Register)
	authGroup.Post("/login", cfg.Agents.Login)
	authGroup.Post("/password-reset/request", cfg.Agents.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", cfg.Agents.ConfirmPasswordReset)
	authGroup.Post("/password-change", cfg.Auth.Handle, cfg.Agents.ChangePassword)

	// role checks live in the workflow engine's permission matrix so their
	// precise denial reasons reach the client unmasked
	tickets := app.Group("/tickets", cfg.Auth.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/criticality", cfg.Tickets.AssignCriticality)
	tickets.Post("/:id/escalate", cfg.Tickets.Escalate)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)
	tickets.Post("/:id/logs", cfg.Tickets.AddActionLog)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-service/internal/api/http/handlers"
	"github.com/spec-kit/employee-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Employees      *handlers.EmployeesHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Reads are public; mutations require an
// admin bearer token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	employees := app.Group("/employees")
	employees.Get("/", cfg.Employees.List)
	employees.Get("/:id", cfg.Employees.Get)

	protected := employees.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/", cfg.Employees.Create)
	protected.Patch("/:id", cfg.Employees.Update)
	protected.Delete("/:id", cfg.Employees.Delete)
}

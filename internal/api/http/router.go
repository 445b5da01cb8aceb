package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complykit/request-service/internal/api/http/handlers"
	"github.com/complykit/request-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	Templates      *handlers.TemplatesHandler
	Notifications  *handlers.NotificationsHandler
	Configuration  *handlers.ConfigurationHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	requests := protected.Group("/requests")
	requests.Post("", cfg.Requests.CreateRequest)
	requests.Get("", cfg.Requests.ListRequests)
	requests.Get("/:id", cfg.Requests.GetRequest)
	requests.Patch("/:id", cfg.Requests.UpdateRequest)
	requests.Post("/:id/close", cfg.Requests.CloseRequest)
	requests.Post("/:id/comments", cfg.Requests.AddComment)

	templates := protected.Group("/templates")
	templates.Get("", cfg.Templates.ListTemplates)
	templates.Get("/:id", cfg.Templates.GetTemplate)
	templates.Post("", auth.RequireAdmin(), cfg.Templates.CreateTemplate)

	notifications := protected.Group("/notifications")
	notifications.Get("", cfg.Notifications.ListNotifications)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	protected.Put("/configuration", auth.RequireAdmin(), cfg.Configuration.SetConfiguration)
}

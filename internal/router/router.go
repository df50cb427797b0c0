package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lombahub/lombahub-api/internal/config"
	"github.com/lombahub/lombahub-api/internal/handler"
	"github.com/lombahub/lombahub-api/internal/middleware"
	"github.com/lombahub/lombahub-api/internal/observability"
	"github.com/lombahub/lombahub-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	ContestHandler      *handler.ContestHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	adminOnly := middleware.RequireRole(service.RoleAdmin)

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments, adminOnly)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.ContestHandler != nil {
		contests := api.Group("/contests", jwtMiddleware)
		reconcile := api.Group("/reconcile", jwtMiddleware, adminOnly,
			middleware.RateLimit("reconcile", cfg.SweepRateLimit, time.Minute))
		deps.ContestHandler.Register(contests, reconcile)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/revia-go-api/internal/config"
	"github.com/noah-isme/revia-go-api/internal/handler"
	"github.com/noah-isme/revia-go-api/internal/middleware"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ReviewHandler     *handler.ReviewHandler
	DraftHandler      *handler.DraftHandler
	EvaluationHandler *handler.EvaluationHandler
	JWTMiddleware     fiber.Handler
	SubmitRateLimit   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	submitGuard := deps.SubmitRateLimit
	if submitGuard == nil {
		submitGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	evaluatorOnly := middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleFaculty)

	// Review feed and publication state; the feed is readable by every
	// authenticated role, mutation is evaluator scoped.
	if deps.ReviewHandler != nil {
		reviews := app.Group("/api/v1/reviews", jwtMiddleware)
		deps.ReviewHandler.Register(reviews, evaluatorOnly)
	}

	// Evaluator drafts and the score ledger.
	if deps.DraftHandler != nil {
		evaluation := app.Group("/api/v1", jwtMiddleware, evaluatorOnly)
		deps.DraftHandler.Register(evaluation)

		if deps.EvaluationHandler != nil {
			deps.EvaluationHandler.Register(evaluation, submitGuard)
		}
	}
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gradecore/gradecore-api/internal/config"
	"github.com/gradecore/gradecore-api/internal/handler"
	"github.com/gradecore/gradecore-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CorrectionHandler *handler.CorrectionHandler
	PromptHandler     *handler.PromptHandler
	RubricHandler     *handler.RubricHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.CorrectionHandler != nil {
		corrections := api.Group("/corrections", jwtMiddleware)
		deps.CorrectionHandler.Register(corrections)
	}

	if deps.PromptHandler != nil {
		prompts := api.Group("/prompts", jwtMiddleware)
		deps.PromptHandler.Register(prompts)
	}

	if deps.RubricHandler != nil {
		rubrics := api.Group("/rubrics", jwtMiddleware)
		deps.RubricHandler.Register(rubrics)
	}
}

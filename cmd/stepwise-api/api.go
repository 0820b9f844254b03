// Package main provides the Stepwise API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/dukex/stepwise/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	tracer trace.Tracer,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	stepService := services.NewStep(a.persistence, a.validate, a.tracer, a.logger.With("service", "step"))
	useCaseService := services.NewUseCase(a.persistence, a.validate, a.tracer, a.logger.With("service", "use_case"))
	addonService := services.NewAddon(a.persistence, a.validate, a.tracer, a.logger.With("service", "addon"))
	healthService := services.NewHealth(a.persistence)

	handlers := web.NewAPIHandlers(stepService, useCaseService, addonService, healthService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepwise API")
	})

	s := app.Group("/steps")
	s.Get("/", handlers.GetSteps)
	s.Post("/", handlers.CreateStep)
	s.Post("/resolve", handlers.ResolveSteps)
	s.Get("/by-key/:key", handlers.GetStepByKey)
	s.Get("/:id", handlers.GetStep)
	s.Patch("/:id", handlers.PatchStep)
	s.Delete("/:id", handlers.DeleteStep)
	s.Post("/:id/approve", handlers.ApproveStep)
	s.Post("/:id/reject", handlers.RejectStep)
	s.Get("/:id/comments", handlers.GetStepComments)
	s.Post("/:id/comments", handlers.CreateStepComment)
	s.Get("/:id/history", handlers.GetStepHistory)
	s.Get("/:id/approvals", handlers.GetStepApprovals)

	u := app.Group("/use-cases")
	u.Get("/", handlers.GetUseCases)
	u.Post("/", handlers.CreateUseCase)
	u.Get("/:id", handlers.GetUseCase)
	u.Patch("/:id", handlers.PatchUseCase)
	u.Delete("/:id", handlers.DeleteUseCase)
	u.Get("/:id/resolved", handlers.GetResolvedUseCase)
	u.Patch("/:id/autofill", handlers.AutofillUseCase)

	// Addon endpoints:
	u.Get("/:id/addons", handlers.GetUseCaseAddons)
	u.Post("/:id/addons", handlers.CreateUseCaseAddon)
	u.Get("/:id/addon-targets", handlers.GetAddonTargets)

	ad := app.Group("/addons")
	ad.Get("/:id", handlers.GetAddon)
	ad.Patch("/:id", handlers.PatchAddon)
	ad.Delete("/:id", handlers.DeleteAddon)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/stepwise/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	stepService    *services.Step
	useCaseService *services.UseCase
	addonService   *services.Addon
	healthService  *services.Health
	validator      *validator.Validate
}

func NewAPIHandlers(
	stepService *services.Step,
	useCaseService *services.UseCase,
	addonService *services.Addon,
	healthService *services.Health,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		stepService:    stepService,
		useCaseService: useCaseService,
		addonService:   addonService,
		healthService:  healthService,
		validator:      validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	persistenceCheck, ok := h.healthService.Check(c.Context())

	status := "unhealthy"
	message := "Stepwise API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Stepwise API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence": persistenceCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// page reads the limit and offset query parameters. Absent values are zero
// and the repositories apply their defaults.
func page(c fiber.Ctx) (int, int, error) {
	var limit, offset int

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}

		limit = parsed
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}

		offset = parsed
	}

	return limit, offset, nil
}

func deleted(c fiber.Ctx, ok bool, detail string) error {
	if !ok {
		return notFound(c, detail)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

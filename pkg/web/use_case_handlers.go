package web

import (
	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetUseCases(c fiber.Ctx) error {
	limit, offset, err := page(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	opts := persistence.ListUseCasesOptions{
		Tag:    c.Query("tag"),
		Limit:  limit,
		Offset: offset,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.UseCaseStatus(statusStr)
		opts.Status = &status
	}

	useCases, err := h.useCaseService.List(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"use_cases": useCases,
		"pagination": fiber.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *APIHandlers) CreateUseCase(c fiber.Ctx) error {
	var req CreateUseCaseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	useCase := &models.UseCase{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		StepRefs:    req.StepRefs,
		Status:      req.Status,
		CreatedBy:   req.CreatedBy,
	}

	created, err := h.useCaseService.Create(c.Context(), useCase)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetUseCase(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Use case ID is required")
	}

	useCase, err := h.useCaseService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(useCase)
}

func (h *APIHandlers) GetResolvedUseCase(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Use case ID is required")
	}

	resolved, err := h.useCaseService.GetWithResolvedSteps(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(resolved)
}

func (h *APIHandlers) PatchUseCase(c fiber.Ctx) error {
	return h.patchUseCase(c, false)
}

// AutofillUseCase applies a generated suggestion. The payload shape matches
// PatchUseCase but a status field, if any, is ignored.
func (h *APIHandlers) AutofillUseCase(c fiber.Ctx) error {
	return h.patchUseCase(c, true)
}

func (h *APIHandlers) patchUseCase(c fiber.Ctx, autofill bool) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Use case ID is required")
	}

	var req UpdateUseCaseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var (
		useCase *models.UseCase
		err     error
	)

	if autofill {
		useCase, err = h.useCaseService.ApplyAutofill(c.Context(), id, req.UseCasePatch, req.Editor)
	} else {
		useCase, err = h.useCaseService.Update(c.Context(), id, req.UseCasePatch, req.Editor)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(useCase)
}

func (h *APIHandlers) DeleteUseCase(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Use case ID is required")
	}

	ok, err := h.useCaseService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return deleted(c, ok, "use case not found")
}

package web

import (
	"github.com/dukex/stepwise/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetUseCaseAddons(c fiber.Ctx) error {
	addons, err := h.addonService.ListByBase(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"addons": addons})
}

func (h *APIHandlers) CreateUseCaseAddon(c fiber.Ctx) error {
	baseID := c.Params("id")
	if baseID == "" {
		return badRequest(c, "Use case ID is required")
	}

	var req CreateAddonRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	addon := &models.Addon{
		BaseUseCaseID:  baseID,
		AddonUseCaseID: req.AddonUseCaseID,
		PathName:       req.PathName,
		Description:    req.Description,
		DisplayOrder:   req.DisplayOrder,
		Steps:          req.Steps,
	}

	created, err := h.addonService.Create(c.Context(), addon)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetAddonTargets(c fiber.Ctx) error {
	targets, err := h.addonService.AvailableTargets(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"use_cases": targets})
}

func (h *APIHandlers) GetAddon(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Addon ID is required")
	}

	addon, err := h.addonService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(addon)
}

func (h *APIHandlers) PatchAddon(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Addon ID is required")
	}

	var patch models.AddonPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(patch); err != nil {
		return badRequest(c, err.Error())
	}

	addon, err := h.addonService.Update(c.Context(), id, patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(addon)
}

func (h *APIHandlers) DeleteAddon(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Addon ID is required")
	}

	ok, err := h.addonService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return deleted(c, ok, "addon not found")
}

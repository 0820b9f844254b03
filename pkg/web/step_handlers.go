package web

import (
	"net/url"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetSteps(c fiber.Ctx) error {
	limit, offset, err := page(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	opts := persistence.ListStepsOptions{
		Tag:    c.Query("tag"),
		Limit:  limit,
		Offset: offset,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.StepStatus(statusStr)
		opts.Status = &status
	}

	if categoryStr := c.Query("category"); categoryStr != "" {
		category := models.StepCategory(categoryStr)
		opts.Category = &category
	}

	steps, err := h.stepService.List(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"steps": steps,
		"pagination": fiber.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *APIHandlers) CreateStep(c fiber.Ctx) error {
	var req CreateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step := &models.Step{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Content:     req.Content,
		Tags:        req.Tags,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
	}

	created, err := h.stepService.Create(c.Context(), step)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) ResolveSteps(c fiber.Ctx) error {
	var req ResolveStepsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	resolution, err := h.stepService.Resolve(c.Context(), req.Refs)
	if err != nil {
		return handleServiceError(c, err)
	}

	response := ResolveStepsResponse{
		Steps:   resolution.Steps,
		Missing: resolution.Missing,
	}

	if response.Steps == nil {
		response.Steps = []*models.Step{}
	}

	if response.Missing == nil {
		response.Missing = []string{}
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetStepByKey(c fiber.Ctx) error {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil || key == "" {
		return badRequest(c, "Step key is required")
	}

	step, err := h.stepService.GetByKey(c.Context(), key)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) GetStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Step ID is required")
	}

	step, err := h.stepService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) PatchStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Step ID is required")
	}

	var req UpdateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.Update(c.Context(), id, req.StepPatch, req.Editor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) DeleteStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Step ID is required")
	}

	ok, err := h.stepService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return deleted(c, ok, "step not found")
}

func (h *APIHandlers) ApproveStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Step ID is required")
	}

	var req ApproveStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.Approve(c.Context(), id, req.ApprovedBy, req.UseCaseIDs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) RejectStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Step ID is required")
	}

	var req RejectStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.Reject(c.Context(), id, req.RejectedBy, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) GetStepComments(c fiber.Ctx) error {
	comments, err := h.stepService.Comments(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"comments": comments})
}

func (h *APIHandlers) CreateStepComment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Step ID is required")
	}

	var req CreateCommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	comment, err := h.stepService.AddComment(c.Context(), &models.StepComment{
		StepID: id,
		Author: req.Author,
		Body:   req.Body,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *APIHandlers) GetStepHistory(c fiber.Ctx) error {
	history, err := h.stepService.History(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"history": history})
}

func (h *APIHandlers) GetStepApprovals(c fiber.Ctx) error {
	approvals, err := h.stepService.Approvals(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"approvals": approvals})
}

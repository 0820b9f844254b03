// Package web provides HTTP request and response types for the step composition API.
package web

import "github.com/dukex/stepwise/pkg/models"

// CreateStepRequest represents the request body for creating a new step.
type CreateStepRequest struct {
	Title       string               `json:"title"       validate:"required,max=255"`
	Slug        string               `json:"slug"        validate:"omitempty,max=255"`
	Description string               `json:"description" validate:"required"`
	Content     models.ContentBlocks `json:"content"`
	Tags        []string             `json:"tags"`
	Category    models.StepCategory  `json:"category"    validate:"required"`
	CreatedBy   string               `json:"created_by"  validate:"required"`
}

// UpdateStepRequest represents the request body for updating a step.
// All patch fields are optional; editor identifies who makes the change.
type UpdateStepRequest struct {
	models.StepPatch

	Editor string `json:"editor" validate:"required"`
}

// ResolveStepsRequest represents a batch of step ids or alternate keys to resolve.
type ResolveStepsRequest struct {
	Refs []string `json:"refs" validate:"required"`
}

// ResolveStepsResponse lists the resolved steps in request order and the refs that matched nothing.
type ResolveStepsResponse struct {
	Steps   []*models.Step `json:"steps"`
	Missing []string       `json:"missing"`
}

// ApproveStepRequest represents the request body for approving a step.
type ApproveStepRequest struct {
	ApprovedBy string   `json:"approved_by"  validate:"required"`
	UseCaseIDs []string `json:"use_case_ids" validate:"omitempty,dive,uuid"`
}

// RejectStepRequest represents the request body for rejecting a step.
type RejectStepRequest struct {
	RejectedBy string `json:"rejected_by" validate:"required"`
	Reason     string `json:"reason"`
}

// CreateCommentRequest represents the request body for commenting on a step.
type CreateCommentRequest struct {
	Author string `json:"author" validate:"required"`
	Body   string `json:"body"   validate:"required"`
}

// CreateUseCaseRequest represents the request body for creating a use case.
type CreateUseCaseRequest struct {
	Title       string               `json:"title"       validate:"required,max=255"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Tags        []string             `json:"tags"`
	StepRefs    []string             `json:"step_refs"`
	Status      models.UseCaseStatus `json:"status"`
	CreatedBy   string               `json:"created_by"  validate:"required"`
}

// UpdateUseCaseRequest represents the request body for updating a use case,
// and for applying an autofill payload to one.
type UpdateUseCaseRequest struct {
	models.UseCasePatch

	Editor string `json:"editor" validate:"required"`
}

// CreateAddonRequest represents the request body for attaching an addon to a base use case.
type CreateAddonRequest struct {
	AddonUseCaseID string              `json:"addon_use_case_id" validate:"required,uuid"`
	PathName       string              `json:"path_name"         validate:"required,max=255"`
	Description    string              `json:"description"`
	DisplayOrder   int                 `json:"display_order"     validate:"min=0"`
	Steps          []*models.AddonStep `json:"steps"`
}

// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/google/uuid"
)

// CreateTestStep creates a test Step with default values that can be overridden.
func CreateTestStep(overrides ...func(*models.Step)) *models.Step {
	now := time.Now().UTC()

	step := &models.Step{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Slug:        "install-go",
		Title:       "Install Go",
		Description: "Install the Go toolchain",
		Content: models.ContentBlocks{
			{ID: "b1", Type: models.BlockTypeText, Text: "Download the installer"},
		},
		Tags:         []string{"intro"},
		Category:     models.StepCategorySetup,
		Status:       models.StepStatusReview,
		CreatedBy:    "test-user",
		CreatedAt:    now,
		LastModified: now,
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// WithTitle sets the step title and derives its slug.
func WithTitle(title string) func(*models.Step) {
	return func(s *models.Step) {
		s.Title = title
		s.Slug = models.Slugify(title)
	}
}

// WithStepID sets the step ID.
func WithStepID(id string) func(*models.Step) {
	return func(s *models.Step) {
		s.ID = id
	}
}

// WithStatus sets the step status.
func WithStatus(status models.StepStatus) func(*models.Step) {
	return func(s *models.Step) {
		s.Status = status
	}
}

// WithCategory sets the step category.
func WithCategory(category models.StepCategory) func(*models.Step) {
	return func(s *models.Step) {
		s.Category = category
	}
}

// CreateTestUseCase creates a test use case referencing refs.
func CreateTestUseCase(title string, status models.UseCaseStatus, refs ...string) *models.UseCase {
	now := time.Now().UTC()

	if refs == nil {
		refs = []string{}
	}

	return &models.UseCase{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Title:        title,
		Description:  "A use case for testing",
		Tags:         []string{},
		StepRefs:     refs,
		Status:       status,
		CreatedBy:    "test-user",
		CreatedAt:    now,
		LastModified: now,
	}
}

// CreateTestAddon creates a test addon linking base to target with no steps.
func CreateTestAddon(baseID, targetID, pathName string) *models.Addon {
	now := time.Now().UTC()

	return &models.Addon{
		ID:             uuid.Must(uuid.NewV7()).String(),
		BaseUseCaseID:  baseID,
		AddonUseCaseID: targetID,
		PathName:       pathName,
		Steps:          []*models.AddonStep{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

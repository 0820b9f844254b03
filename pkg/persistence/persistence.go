// Package persistence provides the data storage abstraction for steps, use cases and addons.
package persistence

import (
	"context"

	"github.com/dukex/stepwise/pkg/models"
)

type Persistence interface {
	StepRepository() StepRepository
	UseCaseRepository() UseCaseRepository
	AddonRepository() AddonRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// StepRepository owns steps, their approval workflow and their audit trails.
type StepRepository interface {
	// Create inserts step in review status and records a "created" history entry.
	Create(ctx context.Context, step *models.Step) error
	GetByID(ctx context.Context, id string) (*models.Step, error)

	// GetByAlternateKey returns the best match for key: exact slug, case-insensitive
	// slug, title derived from the slug, then partial match; most recent wins in each tier.
	GetByAlternateKey(ctx context.Context, key string) (*models.Step, error)
	List(ctx context.Context, opts ListStepsOptions) ([]*models.Step, error)

	// ResolveMany resolves identifiers in order. Unresolved identifiers are
	// reported in Resolution.Missing rather than as an error.
	ResolveMany(ctx context.Context, identifiers []models.Identifier) (*models.Resolution, error)

	Update(ctx context.Context, id string, patch models.StepPatch, editor string) (*models.Step, error)
	Approve(ctx context.Context, id, approver string, useCaseIDs []string) (*models.Step, error)
	Reject(ctx context.Context, id, rejector, reason string) (*models.Step, error)

	// Delete hard-deletes the step without touching use cases or addon steps that reference it.
	Delete(ctx context.Context, id string) (bool, error)

	// AddComment appends a comment and resurfaces the step by bumping last_modified.
	AddComment(ctx context.Context, comment *models.StepComment) error
	Comments(ctx context.Context, stepID string) ([]*models.StepComment, error)
	History(ctx context.Context, stepID string) ([]*models.StepHistoryEntry, error)
	Approvals(ctx context.Context, stepID string) ([]*models.StepApproval, error)
}

// UseCaseRepository owns use cases and their ordered step references.
type UseCaseRepository interface {
	Create(ctx context.Context, useCase *models.UseCase) error
	GetByID(ctx context.Context, id string) (*models.UseCase, error)
	List(ctx context.Context, opts ListUseCasesOptions) ([]*models.UseCase, error)
	Update(ctx context.Context, id string, patch models.UseCasePatch, editor string) (*models.UseCase, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AddonRepository owns addons and, exclusively, their addon steps.
type AddonRepository interface {
	// Create validates both use cases, rejects self references and cycles,
	// and inserts the addon with its steps in one transaction.
	Create(ctx context.Context, addon *models.Addon) (*models.Addon, error)
	GetByID(ctx context.Context, id string) (*models.Addon, error)
	ListByBase(ctx context.Context, baseUseCaseID string) ([]*models.Addon, error)

	// Update applies metadata sparsely; a present step list replaces the existing one.
	Update(ctx context.Context, id string, patch models.AddonPatch) (*models.Addon, error)
	Delete(ctx context.Context, id string) (bool, error)

	// AvailableTargets lists approved use cases that could become addons of baseUseCaseID.
	AvailableTargets(ctx context.Context, baseUseCaseID string) ([]*models.UseCase, error)
}

// ListStepsOptions filters and pages step listings.
type ListStepsOptions struct {
	Status   *models.StepStatus
	Category *models.StepCategory
	Tag      string
	Limit    int
	Offset   int
}

// ListUseCasesOptions filters and pages use case listings.
type ListUseCasesOptions struct {
	Status *models.UseCaseStatus
	Tag    string
	Limit  int
	Offset int
}

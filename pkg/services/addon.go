package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/otelhelper"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Addon handles composition of use cases through addons.
type Addon struct {
	instrumentation

	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewAddon creates a new addon service.
func NewAddon(persistence persistence.Persistence, validate *validator.Validate, tracer trace.Tracer, logger *slog.Logger) *Addon {
	return &Addon{
		instrumentation: instrumentation{tracer: tracer, logger: logger},
		persistence:     persistence,
		validate:        validate,
	}
}

// Create attaches addon to its base use case. Self references, cycles and
// duplicates are rejected by the repository inside the creating transaction.
func (a *Addon) Create(ctx context.Context, addon *models.Addon) (*models.Addon, error) {
	const op = "addon.create"

	ctx, span := a.start(ctx, op,
		attribute.String(otelhelper.BaseUseCaseKey, addon.BaseUseCaseID),
		attribute.String(otelhelper.AddonUseCaseKey, addon.AddonUseCaseID),
	)
	defer span.End()

	err := a.validate.Struct(addon)
	if err != nil {
		return nil, a.fail(ctx, span, op, fromValidator(op, err))
	}

	err = prepareAddonSteps(op, addon.Steps)
	if err != nil {
		return nil, a.fail(ctx, span, op, err)
	}

	created, err := a.persistence.AddonRepository().Create(ctx, addon)
	if err != nil {
		return nil, a.fail(ctx, span, op, err,
			"base_use_case_id", addon.BaseUseCaseID,
			"addon_use_case_id", addon.AddonUseCaseID,
		)
	}

	span.SetAttributes(attribute.String(otelhelper.AddonIDKey, created.ID))
	a.logger.InfoContext(ctx, "addon created",
		"addon_id", created.ID,
		"base_use_case_id", created.BaseUseCaseID,
		"addon_use_case_id", created.AddonUseCaseID,
		"steps", len(created.Steps),
	)

	return created, nil
}

func (a *Addon) Get(ctx context.Context, id string) (*models.Addon, error) {
	const op = "addon.get"

	ctx, span := a.start(ctx, op, attribute.String(otelhelper.AddonIDKey, id))
	defer span.End()

	addon, err := a.persistence.AddonRepository().GetByID(ctx, id)
	if err != nil {
		return nil, a.fail(ctx, span, op, err, "addon_id", id)
	}

	return addon, nil
}

func (a *Addon) ListByBase(ctx context.Context, baseUseCaseID string) ([]*models.Addon, error) {
	const op = "addon.list_by_base"

	ctx, span := a.start(ctx, op, attribute.String(otelhelper.BaseUseCaseKey, baseUseCaseID))
	defer span.End()

	addons, err := a.persistence.AddonRepository().ListByBase(ctx, baseUseCaseID)
	if err != nil {
		return nil, a.fail(ctx, span, op, err, "base_use_case_id", baseUseCaseID)
	}

	return addons, nil
}

// Update changes addon metadata; a step list in patch replaces the current one.
func (a *Addon) Update(ctx context.Context, id string, patch models.AddonPatch) (*models.Addon, error) {
	const op = "addon.update"

	ctx, span := a.start(ctx, op, attribute.String(otelhelper.AddonIDKey, id))
	defer span.End()

	if patch.IsEmpty() {
		return nil, a.fail(ctx, span, op, NewValidationError(op, "EMPTY_PATCH", "no fields to update", ErrInvalidRequest))
	}

	err := a.validate.Struct(patch)
	if err != nil {
		return nil, a.fail(ctx, span, op, fromValidator(op, err))
	}

	if patch.Steps != nil {
		err = a.validate.Var(*patch.Steps, "dive")
		if err != nil {
			return nil, a.fail(ctx, span, op, fromValidator(op, err))
		}

		err = prepareAddonSteps(op, *patch.Steps)
		if err != nil {
			return nil, a.fail(ctx, span, op, err)
		}
	}

	addon, err := a.persistence.AddonRepository().Update(ctx, id, patch)
	if err != nil {
		return nil, a.fail(ctx, span, op, err, "addon_id", id)
	}

	a.logger.InfoContext(ctx, "addon updated", "addon_id", id, "steps_replaced", patch.Steps != nil)

	return addon, nil
}

func (a *Addon) Delete(ctx context.Context, id string) (bool, error) {
	const op = "addon.delete"

	ctx, span := a.start(ctx, op, attribute.String(otelhelper.AddonIDKey, id))
	defer span.End()

	deleted, err := a.persistence.AddonRepository().Delete(ctx, id)
	if err != nil {
		return false, a.fail(ctx, span, op, fmt.Errorf("failed to delete addon: %w", err), "addon_id", id)
	}

	if deleted {
		a.logger.InfoContext(ctx, "addon deleted", "addon_id", id)
	}

	return deleted, nil
}

// AvailableTargets lists the use cases that may still be attached to baseUseCaseID.
func (a *Addon) AvailableTargets(ctx context.Context, baseUseCaseID string) ([]*models.UseCase, error) {
	const op = "addon.available_targets"

	ctx, span := a.start(ctx, op, attribute.String(otelhelper.BaseUseCaseKey, baseUseCaseID))
	defer span.End()

	targets, err := a.persistence.AddonRepository().AvailableTargets(ctx, baseUseCaseID)
	if err != nil {
		return nil, a.fail(ctx, span, op, err, "base_use_case_id", baseUseCaseID)
	}

	return targets, nil
}

// prepareAddonSteps checks the shape of every addon step and validates inline content.
func prepareAddonSteps(op string, steps []*models.AddonStep) error {
	for i, step := range steps {
		if step == nil {
			return NewValidationError(op, "INVALID_ADDON_STEP", fmt.Sprintf("step %d is empty", i), ErrInvalidAddonStep)
		}

		err := step.Validate()
		if err != nil {
			return NewValidationError(op, "INVALID_ADDON_STEP", fmt.Sprintf("step %d: %v", i, err), ErrInvalidAddonStep)
		}

		if step.CustomContent != nil {
			err = prepareContent(step.CustomContent)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}

	return nil
}

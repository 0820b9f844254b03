package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/otelhelper"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UseCase handles use case business operations, including resolving a use
// case's step references for display.
type UseCase struct {
	instrumentation

	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewUseCase creates a new use case service.
func NewUseCase(persistence persistence.Persistence, validate *validator.Validate, tracer trace.Tracer, logger *slog.Logger) *UseCase {
	return &UseCase{
		instrumentation: instrumentation{tracer: tracer, logger: logger},
		persistence:     persistence,
		validate:        validate,
	}
}

func (u *UseCase) Create(ctx context.Context, useCase *models.UseCase) (*models.UseCase, error) {
	const op = "use_case.create"

	ctx, span := u.start(ctx, op)
	defer span.End()

	err := u.validate.Struct(useCase)
	if err != nil {
		return nil, u.fail(ctx, span, op, fromValidator(op, err))
	}

	if useCase.Status != "" && !useCase.Status.IsValid() {
		return nil, u.fail(ctx, span, op, invalidUseCaseStatus(op, useCase.Status))
	}

	err = u.persistence.UseCaseRepository().Create(ctx, useCase)
	if err != nil {
		return nil, u.fail(ctx, span, op, fmt.Errorf("failed to create use case: %w", err))
	}

	span.SetAttributes(attribute.String(otelhelper.UseCaseIDKey, useCase.ID))
	u.logger.InfoContext(ctx, "use case created", "use_case_id", useCase.ID, "created_by", useCase.CreatedBy)

	return useCase, nil
}

func (u *UseCase) Get(ctx context.Context, id string) (*models.UseCase, error) {
	const op = "use_case.get"

	ctx, span := u.start(ctx, op, attribute.String(otelhelper.UseCaseIDKey, id))
	defer span.End()

	useCase, err := u.persistence.UseCaseRepository().GetByID(ctx, id)
	if err != nil {
		return nil, u.fail(ctx, span, op, err, "use_case_id", id)
	}

	return useCase, nil
}

func (u *UseCase) List(ctx context.Context, opts persistence.ListUseCasesOptions) ([]*models.UseCase, error) {
	const op = "use_case.list"

	ctx, span := u.start(ctx, op)
	defer span.End()

	if opts.Status != nil && !opts.Status.IsValid() {
		return nil, u.fail(ctx, span, op, invalidUseCaseStatus(op, *opts.Status))
	}

	useCases, err := u.persistence.UseCaseRepository().List(ctx, opts)
	if err != nil {
		return nil, u.fail(ctx, span, op, fmt.Errorf("failed to list use cases: %w", err))
	}

	return useCases, nil
}

// Update applies patch as editor. Status changes must follow the use case lifecycle.
func (u *UseCase) Update(ctx context.Context, id string, patch models.UseCasePatch, editor string) (*models.UseCase, error) {
	return u.update(ctx, "use_case.update", id, patch, editor)
}

// ApplyAutofill applies field values produced by an autofill source as an
// edit by editor. Autofill never moves a use case through its lifecycle, so
// a status in the payload is dropped.
func (u *UseCase) ApplyAutofill(ctx context.Context, id string, patch models.UseCasePatch, editor string) (*models.UseCase, error) {
	if patch.Status != nil {
		u.logger.InfoContext(ctx, "ignoring status in autofill payload", "use_case_id", id, "status", *patch.Status)

		patch.Status = nil
	}

	return u.update(ctx, "use_case.autofill", id, patch, editor)
}

func (u *UseCase) update(ctx context.Context, op, id string, patch models.UseCasePatch, editor string) (*models.UseCase, error) {
	ctx, span := u.start(ctx, op,
		attribute.String(otelhelper.UseCaseIDKey, id),
		attribute.String(otelhelper.EditorKey, editor),
	)
	defer span.End()

	if strings.TrimSpace(editor) == "" {
		return nil, u.fail(ctx, span, op, NewValidationError(op, "EDITOR_REQUIRED", "editor is required", ErrInvalidRequest))
	}

	if patch.IsEmpty() {
		return nil, u.fail(ctx, span, op, NewValidationError(op, "EMPTY_PATCH", "no fields to update", ErrInvalidRequest))
	}

	err := u.validate.Struct(patch)
	if err != nil {
		return nil, u.fail(ctx, span, op, fromValidator(op, err))
	}

	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, u.fail(ctx, span, op, invalidUseCaseStatus(op, *patch.Status))
	}

	useCase, err := u.persistence.UseCaseRepository().Update(ctx, id, patch, editor)
	if err != nil {
		return nil, u.fail(ctx, span, op, err, "use_case_id", id)
	}

	u.logger.InfoContext(ctx, "use case updated", "op", op, "use_case_id", id, "editor", editor)

	return useCase, nil
}

func (u *UseCase) Delete(ctx context.Context, id string) (bool, error) {
	const op = "use_case.delete"

	ctx, span := u.start(ctx, op, attribute.String(otelhelper.UseCaseIDKey, id))
	defer span.End()

	deleted, err := u.persistence.UseCaseRepository().Delete(ctx, id)
	if err != nil {
		return false, u.fail(ctx, span, op, fmt.Errorf("failed to delete use case: %w", err), "use_case_id", id)
	}

	if deleted {
		u.logger.InfoContext(ctx, "use case deleted", "use_case_id", id)
	}

	return deleted, nil
}

// GetWithResolvedSteps returns the use case with its step references
// resolved in order. References that no longer resolve are skipped, logged
// and listed in MissingStepIDs.
func (u *UseCase) GetWithResolvedSteps(ctx context.Context, id string) (*models.ResolvedUseCase, error) {
	const op = "use_case.get_resolved"

	ctx, span := u.start(ctx, op, attribute.String(otelhelper.UseCaseIDKey, id))
	defer span.End()

	useCase, err := u.persistence.UseCaseRepository().GetByID(ctx, id)
	if err != nil {
		return nil, u.fail(ctx, span, op, err, "use_case_id", id)
	}

	resolved := &models.ResolvedUseCase{
		UseCase:        useCase,
		Steps:          []models.ResolvedStep{},
		MissingStepIDs: []string{},
	}

	identifiers := models.ParseIdentifiers(useCase.StepRefs)
	span.SetAttributes(attribute.Int(otelhelper.RefCountKey, len(identifiers)))

	if len(identifiers) == 0 {
		return resolved, nil
	}

	resolution, err := u.persistence.StepRepository().ResolveMany(ctx, identifiers)
	if err != nil {
		return nil, u.fail(ctx, span, op, fmt.Errorf("failed to resolve steps: %w", err), "use_case_id", id)
	}

	for i, step := range resolution.Steps {
		resolved.Steps = append(resolved.Steps, models.ResolvedStep{
			StepID:      step.ID,
			Title:       step.Title,
			Description: step.Description,
			Content:     step.Content,
			OrderIndex:  i,
			Category:    step.Category,
		})
	}

	if len(resolution.Missing) > 0 {
		resolved.MissingStepIDs = resolution.Missing

		span.SetAttributes(attribute.Int(otelhelper.MissingCountKey, len(resolution.Missing)))
		u.logger.WarnContext(ctx, "use case references steps that do not resolve",
			"op", op,
			"use_case_id", id,
			"missing", resolution.Missing,
		)
	}

	return resolved, nil
}

func invalidUseCaseStatus(op string, status models.UseCaseStatus) error {
	return NewValidationError(op, "INVALID_STATUS", fmt.Sprintf("unknown use case status '%s'", status), ErrInvalidStatus)
}

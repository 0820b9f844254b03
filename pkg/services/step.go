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

// Step handles step-related business operations.
type Step struct {
	instrumentation

	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewStep creates a new step service.
func NewStep(persistence persistence.Persistence, validate *validator.Validate, tracer trace.Tracer, logger *slog.Logger) *Step {
	return &Step{
		instrumentation: instrumentation{tracer: tracer, logger: logger},
		persistence:     persistence,
		validate:        validate,
	}
}

// Create validates step and stores it in review status.
func (s *Step) Create(ctx context.Context, step *models.Step) (*models.Step, error) {
	const op = "step.create"

	ctx, span := s.start(ctx, op)
	defer span.End()

	err := s.validate.Struct(step)
	if err != nil {
		return nil, s.fail(ctx, span, op, fromValidator(op, err))
	}

	err = prepareContent(step.Content)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	err = s.persistence.StepRepository().Create(ctx, step)
	if err != nil {
		return nil, s.fail(ctx, span, op, fmt.Errorf("failed to create step: %w", err))
	}

	span.SetAttributes(attribute.String(otelhelper.StepIDKey, step.ID))
	s.logger.InfoContext(ctx, "step created", "step_id", step.ID, "slug", step.Slug, "created_by", step.CreatedBy)

	return step, nil
}

func (s *Step) Get(ctx context.Context, id string) (*models.Step, error) {
	const op = "step.get"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepIDKey, id))
	defer span.End()

	step, err := s.persistence.StepRepository().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", id)
	}

	return step, nil
}

// GetByKey looks a step up by its alternate key.
func (s *Step) GetByKey(ctx context.Context, key string) (*models.Step, error) {
	const op = "step.get_by_key"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepKeyKey, key))
	defer span.End()

	if strings.TrimSpace(key) == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "KEY_REQUIRED", "key is required", ErrInvalidRequest))
	}

	step, err := s.persistence.StepRepository().GetByAlternateKey(ctx, key)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "key", key)
	}

	return step, nil
}

func (s *Step) List(ctx context.Context, opts persistence.ListStepsOptions) ([]*models.Step, error) {
	const op = "step.list"

	ctx, span := s.start(ctx, op)
	defer span.End()

	if opts.Status != nil && !opts.Status.IsValid() {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "INVALID_STATUS",
			fmt.Sprintf("unknown step status '%s'", *opts.Status), ErrInvalidStatus))
	}

	if opts.Category != nil && !opts.Category.IsValid() {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "INVALID_CATEGORY",
			fmt.Sprintf("unknown step category '%s'", *opts.Category), ErrInvalidRequest))
	}

	steps, err := s.persistence.StepRepository().List(ctx, opts)
	if err != nil {
		return nil, s.fail(ctx, span, op, fmt.Errorf("failed to list steps: %w", err))
	}

	return steps, nil
}

// Resolve resolves refs in order. References that match no step are listed
// in Resolution.Missing and logged, they are not an error.
func (s *Step) Resolve(ctx context.Context, refs []string) (*models.Resolution, error) {
	const op = "step.resolve"

	ctx, span := s.start(ctx, op, attribute.Int(otelhelper.RefCountKey, len(refs)))
	defer span.End()

	resolution, err := s.resolve(ctx, refs)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	span.SetAttributes(attribute.Int(otelhelper.MissingCountKey, len(resolution.Missing)))

	if len(resolution.Missing) > 0 {
		s.logger.WarnContext(ctx, "step references did not resolve", "op", op, "missing", resolution.Missing)
	}

	return resolution, nil
}

func (s *Step) resolve(ctx context.Context, refs []string) (*models.Resolution, error) {
	identifiers := models.ParseIdentifiers(refs)
	if len(identifiers) == 0 {
		return &models.Resolution{Steps: []*models.Step{}, Missing: []string{}}, nil
	}

	resolution, err := s.persistence.StepRepository().ResolveMany(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve steps: %w", err)
	}

	return resolution, nil
}

// Update applies patch as editor. Approval and rejection are not reachable
// through a patch; use Approve and Reject.
func (s *Step) Update(ctx context.Context, id string, patch models.StepPatch, editor string) (*models.Step, error) {
	const op = "step.update"

	ctx, span := s.start(ctx, op,
		attribute.String(otelhelper.StepIDKey, id),
		attribute.String(otelhelper.EditorKey, editor),
	)
	defer span.End()

	err := s.validateUpdate(op, patch, editor)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", id)
	}

	step, err := s.persistence.StepRepository().Update(ctx, id, patch, editor)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", id)
	}

	s.logger.InfoContext(ctx, "step updated", "step_id", id, "editor", editor, "count_modified", step.CountModified)

	return step, nil
}

func (s *Step) validateUpdate(op string, patch models.StepPatch, editor string) error {
	if strings.TrimSpace(editor) == "" {
		return NewValidationError(op, "EDITOR_REQUIRED", "editor is required", ErrInvalidRequest)
	}

	if patch.IsEmpty() {
		return NewValidationError(op, "EMPTY_PATCH", "no fields to update", ErrInvalidRequest)
	}

	err := s.validate.Struct(patch)
	if err != nil {
		return fromValidator(op, err)
	}

	if patch.Status != nil && !patch.Status.IsPatchable() {
		return NewValidationError(op, "INVALID_STATUS",
			fmt.Sprintf("status '%s' cannot be set by an update, use approve or reject", *patch.Status), ErrInvalidStatus)
	}

	if patch.Category != nil && !patch.Category.IsValid() {
		return NewValidationError(op, "INVALID_CATEGORY",
			fmt.Sprintf("unknown step category '%s'", *patch.Category), ErrInvalidRequest)
	}

	if patch.Content != nil {
		return prepareContent(*patch.Content)
	}

	return nil
}

// Approve approves the step as approver for the given use cases.
func (s *Step) Approve(ctx context.Context, id, approver string, useCaseIDs []string) (*models.Step, error) {
	const op = "step.approve"

	ctx, span := s.start(ctx, op,
		attribute.String(otelhelper.StepIDKey, id),
		attribute.String(otelhelper.EditorKey, approver),
	)
	defer span.End()

	if strings.TrimSpace(approver) == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "APPROVER_REQUIRED", "approver is required", ErrInvalidRequest))
	}

	err := s.validate.Var(useCaseIDs, "omitempty,dive,uuid")
	if err != nil {
		return nil, s.fail(ctx, span, op, fromValidator(op, err))
	}

	step, err := s.persistence.StepRepository().Approve(ctx, id, approver, useCaseIDs)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", id)
	}

	s.logger.InfoContext(ctx, "step approved", "step_id", id, "approved_by", approver, "use_case_ids", useCaseIDs)

	return step, nil
}

// Reject rejects the step with reason, which must not be blank.
func (s *Step) Reject(ctx context.Context, id, rejector, reason string) (*models.Step, error) {
	const op = "step.reject"

	ctx, span := s.start(ctx, op,
		attribute.String(otelhelper.StepIDKey, id),
		attribute.String(otelhelper.EditorKey, rejector),
	)
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "REASON_REQUIRED", "a rejection reason is required", ErrRejectionReasonRequired))
	}

	if strings.TrimSpace(rejector) == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "REJECTOR_REQUIRED", "rejector is required", ErrInvalidRequest))
	}

	step, err := s.persistence.StepRepository().Reject(ctx, id, rejector, strings.TrimSpace(reason))
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", id)
	}

	s.logger.InfoContext(ctx, "step rejected", "step_id", id, "rejected_by", rejector)

	return step, nil
}

// Delete hard-deletes the step and reports whether it existed.
func (s *Step) Delete(ctx context.Context, id string) (bool, error) {
	const op = "step.delete"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepIDKey, id))
	defer span.End()

	deleted, err := s.persistence.StepRepository().Delete(ctx, id)
	if err != nil {
		return false, s.fail(ctx, span, op, fmt.Errorf("failed to delete step: %w", err), "step_id", id)
	}

	if deleted {
		s.logger.InfoContext(ctx, "step deleted", "step_id", id)
	}

	return deleted, nil
}

func (s *Step) AddComment(ctx context.Context, comment *models.StepComment) (*models.StepComment, error) {
	const op = "step.add_comment"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepIDKey, comment.StepID))
	defer span.End()

	err := s.validate.Struct(comment)
	if err != nil {
		return nil, s.fail(ctx, span, op, fromValidator(op, err))
	}

	err = s.persistence.StepRepository().AddComment(ctx, comment)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", comment.StepID)
	}

	return comment, nil
}

func (s *Step) Comments(ctx context.Context, stepID string) ([]*models.StepComment, error) {
	const op = "step.comments"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepIDKey, stepID))
	defer span.End()

	comments, err := s.persistence.StepRepository().Comments(ctx, stepID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", stepID)
	}

	return comments, nil
}

func (s *Step) History(ctx context.Context, stepID string) ([]*models.StepHistoryEntry, error) {
	const op = "step.history"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepIDKey, stepID))
	defer span.End()

	history, err := s.persistence.StepRepository().History(ctx, stepID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", stepID)
	}

	return history, nil
}

func (s *Step) Approvals(ctx context.Context, stepID string) ([]*models.StepApproval, error) {
	const op = "step.approvals"

	ctx, span := s.start(ctx, op, attribute.String(otelhelper.StepIDKey, stepID))
	defer span.End()

	approvals, err := s.persistence.StepRepository().Approvals(ctx, stepID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "step_id", stepID)
	}

	return approvals, nil
}

// prepareContent assigns missing block ids and validates the blocks.
func prepareContent(content models.ContentBlocks) error {
	content.EnsureIDs()

	return content.Validate()
}

package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/sqlbase"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// addonGraphLockKey serializes every mutation that adds edges to the addon graph.
const addonGraphLockKey int64 = 0x5354_4550_4144_444f

const addonSelect = `
		SELECT
			id
		  , base_use_case_id
		  , addon_use_case_id
		  , path_name
		  , description
		  , display_order
		  , created_at
		  , updated_at
		FROM use_case_addons`

// AddonRepository handles addon and addon step database operations.
type AddonRepository struct {
	db     *sql.DB
	tx     *sqlbase.TxRunner
	steps  *StepRepository
	logger *slog.Logger
}

var _ persistence.AddonRepository = (*AddonRepository)(nil)

// NewAddonRepository creates a new addon repository. steps is used to hydrate addon steps.
func NewAddonRepository(db *sql.DB, txRunner *sqlbase.TxRunner, steps *StepRepository, logger *slog.Logger) *AddonRepository {
	return &AddonRepository{db: db, tx: txRunner, steps: steps, logger: logger}
}

// Create attaches addon.AddonUseCaseID to addon.BaseUseCaseID together with its steps.
//
// Creation steps, all inside one transaction:
//  1. Take the addon graph lock
//  2. Check both use cases exist
//  3. Reject self references and edges that would close a cycle
//  4. Insert the addon row, then each addon step in order
//
// Any failure rolls back everything, so no partial addon is ever visible.
func (r *AddonRepository) Create(ctx context.Context, addon *models.Addon) (*models.Addon, error) {
	err := validateAddonSteps("Create", "", addon.Steps)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate addon ID: %w", err)
	}

	now := timestamp()
	addon.ID = id.String()
	addon.BaseUseCaseID = strings.ToLower(addon.BaseUseCaseID)
	addon.AddonUseCaseID = strings.ToLower(addon.AddonUseCaseID)
	addon.CreatedAt = now
	addon.UpdatedAt = now

	var created *models.Addon

	err = r.tx.InTx(ctx, "addon create", nil, func(tx *sql.Tx) error {
		err := lockAddonGraph(ctx, tx)
		if err != nil {
			return err
		}

		err = ensureUseCasesExist(ctx, tx, "Create", addon.BaseUseCaseID, addon.AddonUseCaseID)
		if err != nil {
			return err
		}

		err = r.checkEdge(ctx, tx, addon.BaseUseCaseID, addon.AddonUseCaseID)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO use_case_addons (id, base_use_case_id, addon_use_case_id, path_name,
				description, display_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		_, err = tx.ExecContext(ctx, query,
			addon.ID,
			addon.BaseUseCaseID,
			addon.AddonUseCaseID,
			addon.PathName,
			addon.Description,
			addon.DisplayOrder,
			addon.CreatedAt,
			addon.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return persistence.NewAddonError("Create", "", persistence.ErrAddonAlreadyExists)
			}

			return fmt.Errorf("failed to insert addon: %w", err)
		}

		err = r.insertSteps(ctx, tx, addon.ID, addon.Steps)
		if err != nil {
			return err
		}

		created, err = r.getByID(ctx, tx, "Create", addon.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *AddonRepository) GetByID(ctx context.Context, id string) (*models.Addon, error) {
	return r.getByID(ctx, r.db, "GetByID", id)
}

// ListByBase returns the addons of a base use case by display order.
func (r *AddonRepository) ListByBase(ctx context.Context, baseUseCaseID string) ([]*models.Addon, error) {
	err := ensureUseCasesExist(ctx, r.db, "ListByBase", baseUseCaseID)
	if err != nil {
		return nil, err
	}

	query := addonSelect + ` WHERE base_use_case_id = $1 ORDER BY display_order, created_at, id`

	addons, err := r.queryAddons(ctx, r.db, query, baseUseCaseID)
	if err != nil {
		return nil, err
	}

	err = r.hydrate(ctx, r.db, addons)
	if err != nil {
		return nil, err
	}

	return addons, nil
}

// Update applies patch to the addon metadata. When patch.Steps is set, the
// existing addon steps are deleted and the new list inserted in the same transaction.
func (r *AddonRepository) Update(ctx context.Context, id string, patch models.AddonPatch) (*models.Addon, error) {
	if patch.Steps != nil {
		err := validateAddonSteps("Update", id, *patch.Steps)
		if err != nil {
			return nil, err
		}
	}

	if !models.IsUUID(id) {
		return nil, persistence.NewAddonError("Update", id, persistence.ErrAddonNotFound)
	}

	var updated *models.Addon

	err := r.tx.InTx(ctx, "addon update", nil, func(tx *sql.Tx) error {
		addon, err := scanAddon(tx.QueryRowContext(ctx, addonSelect+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.NewAddonError("Update", id, persistence.ErrAddonNotFound)
			}

			return fmt.Errorf("failed to lock addon: %w", err)
		}

		if patch.PathName != nil {
			addon.PathName = *patch.PathName
		}

		if patch.Description != nil {
			addon.Description = *patch.Description
		}

		if patch.DisplayOrder != nil {
			addon.DisplayOrder = *patch.DisplayOrder
		}

		addon.UpdatedAt = timestamp()

		query := `
			UPDATE use_case_addons SET
				path_name = $2
			  , description = $3
			  , display_order = $4
			  , updated_at = $5
			WHERE id = $1
		`

		_, err = tx.ExecContext(ctx, query, addon.ID, addon.PathName, addon.Description, addon.DisplayOrder, addon.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update addon: %w", err)
		}

		if patch.Steps != nil {
			_, err = tx.ExecContext(ctx, `DELETE FROM addon_steps WHERE addon_id = $1`, addon.ID)
			if err != nil {
				return fmt.Errorf("failed to delete existing addon steps: %w", err)
			}

			err = r.insertSteps(ctx, tx, addon.ID, *patch.Steps)
			if err != nil {
				return err
			}
		}

		updated, err = r.getByID(ctx, tx, "Update", addon.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the addon; its addon steps cascade.
func (r *AddonRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !models.IsUUID(id) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM use_case_addons WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete addon: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// AvailableTargets lists approved or published use cases that can be attached
// to the base: not the base itself, not already attached, and not closing a cycle.
func (r *AddonRepository) AvailableTargets(ctx context.Context, baseUseCaseID string) ([]*models.UseCase, error) {
	err := ensureUseCasesExist(ctx, r.db, "AvailableTargets", baseUseCaseID)
	if err != nil {
		return nil, err
	}

	baseUseCaseID = strings.ToLower(baseUseCaseID)

	query := useCaseSelect + `
		WHERE status IN ($2, $3)
		  AND id <> $1
		  AND id NOT IN (SELECT addon_use_case_id FROM use_case_addons WHERE base_use_case_id = $1)
		ORDER BY title, id
	`

	candidates, err := queryUseCases(ctx, r.db, r.logger, query, baseUseCaseID,
		string(models.UseCaseStatusApproved), string(models.UseCaseStatusPublished))
	if err != nil {
		return nil, err
	}

	graph, err := loadAddonGraph(ctx, r.db, r.logger)
	if err != nil {
		return nil, err
	}

	targets := make([]*models.UseCase, 0, len(candidates))

	for _, candidate := range candidates {
		if graph.CycleIfAdded(baseUseCaseID, candidate.ID) != nil {
			continue
		}

		targets = append(targets, candidate)
	}

	return targets, nil
}

// checkEdge rejects base → target when it is a self reference, already
// exists, or would close a cycle anywhere in the addon graph.
func (r *AddonRepository) checkEdge(ctx context.Context, q queryer, base, target string) error {
	if base == target {
		return persistence.NewAddonError("Create", "", persistence.ErrSelfReferencingAddon)
	}

	graph, err := loadAddonGraph(ctx, q, r.logger)
	if err != nil {
		return err
	}

	for _, existing := range graph[base] {
		if existing == target {
			return persistence.NewAddonError("Create", "", persistence.ErrAddonAlreadyExists)
		}
	}

	cycle := graph.CycleIfAdded(base, target)
	if cycle != nil {
		r.logger.WarnContext(ctx, "rejected addon closing a cycle",
			"base_use_case_id", base,
			"addon_use_case_id", target,
			"cycle", cycle,
		)

		return persistence.NewAddonError("Create", "",
			fmt.Errorf("%w: %s", persistence.ErrCircularAddon, strings.Join(cycle, " -> ")))
	}

	return nil
}

func (r *AddonRepository) insertSteps(ctx context.Context, tx *sql.Tx, addonID string, steps []*models.AddonStep) error {
	now := timestamp()

	query := `
		INSERT INTO addon_steps (id, addon_id, step_order, step_id, source_use_case_id,
			custom_title, custom_description, custom_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i, step := range steps {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate addon step ID: %w", err)
		}

		step.ID = id.String()
		step.AddonID = addonID
		step.Order = i

		var customContent []byte

		if step.CustomContent != nil {
			customContent, err = marshalJSON(step.CustomContent, "custom content")
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, query,
			step.ID,
			step.AddonID,
			step.Order,
			step.StepID,
			step.SourceUseCaseID,
			step.CustomTitle,
			step.CustomDescription,
			customContent,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert addon step %d: %w", i, err)
		}
	}

	return nil
}

func (r *AddonRepository) getByID(ctx context.Context, q queryer, op, id string) (*models.Addon, error) {
	if !models.IsUUID(id) {
		return nil, persistence.NewAddonError(op, id, persistence.ErrAddonNotFound)
	}

	addon, err := scanAddon(q.QueryRowContext(ctx, addonSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewAddonError(op, id, persistence.ErrAddonNotFound)
		}

		return nil, fmt.Errorf("failed to scan addon: %w", err)
	}

	err = r.hydrate(ctx, q, []*models.Addon{addon})
	if err != nil {
		return nil, err
	}

	return addon, nil
}

// hydrate loads the addon steps, their backing steps and the referenced use
// cases of addons. Steps deleted since are flagged rather than dropped.
func (r *AddonRepository) hydrate(ctx context.Context, q queryer, addons []*models.Addon) error {
	if len(addons) == 0 {
		return nil
	}

	addonIDs := make([]string, 0, len(addons))
	useCaseIDs := make([]string, 0, len(addons))
	byID := make(map[string]*models.Addon, len(addons))

	for _, addon := range addons {
		addon.Steps = make([]*models.AddonStep, 0)
		addonIDs = append(addonIDs, addon.ID)
		useCaseIDs = append(useCaseIDs, addon.AddonUseCaseID)
		byID[addon.ID] = addon
	}

	addonSteps, err := r.queryAddonSteps(ctx, q, addonIDs)
	if err != nil {
		return err
	}

	stepIDs := make([]string, 0, len(addonSteps))

	for _, addonStep := range addonSteps {
		if addonStep.StepID != nil {
			stepIDs = append(stepIDs, *addonStep.StepID)
		}

		if addonStep.SourceUseCaseID != nil {
			useCaseIDs = append(useCaseIDs, *addonStep.SourceUseCaseID)
		}
	}

	steps := make(map[string]*models.Step, len(stepIDs))

	if len(stepIDs) > 0 {
		found, err := r.steps.querySteps(ctx, q, stepSelect+` WHERE id = ANY($1::uuid[])`, pq.Array(stepIDs))
		if err != nil {
			return err
		}

		for _, step := range found {
			steps[step.ID] = step
		}
	}

	found, err := queryUseCases(ctx, q, r.logger, useCaseSelect+` WHERE id = ANY($1::uuid[])`, pq.Array(useCaseIDs))
	if err != nil {
		return err
	}

	useCases := make(map[string]*models.UseCase, len(found))
	for _, useCase := range found {
		useCases[useCase.ID] = useCase
	}

	for _, addon := range addons {
		addon.AddonUseCase = useCases[addon.AddonUseCaseID]
	}

	for _, addonStep := range addonSteps {
		if addonStep.StepID != nil {
			addonStep.Step = steps[*addonStep.StepID]
			addonStep.StepMissing = addonStep.Step == nil
		}

		if addonStep.SourceUseCaseID != nil {
			if source, ok := useCases[*addonStep.SourceUseCaseID]; ok {
				addonStep.SourceUseCaseTitle = &source.Title
			}
		}

		addon := byID[addonStep.AddonID]
		addon.Steps = append(addon.Steps, addonStep)
	}

	return nil
}

func (r *AddonRepository) queryAddons(ctx context.Context, q queryer, query string, args ...any) ([]*models.Addon, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query addons: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	addons := make([]*models.Addon, 0)

	for rows.Next() {
		addon, err := scanAddon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan addon: %w", err)
		}

		addons = append(addons, addon)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating addons: %w", err)
	}

	return addons, nil
}

func (r *AddonRepository) queryAddonSteps(ctx context.Context, q queryer, addonIDs []string) ([]*models.AddonStep, error) {
	query := `
		SELECT
			id
		  , addon_id
		  , step_order
		  , step_id
		  , source_use_case_id
		  , custom_title
		  , custom_description
		  , custom_content
		FROM addon_steps
		WHERE addon_id = ANY($1::uuid[])
		ORDER BY addon_id, step_order, id
	`

	rows, err := q.QueryContext(ctx, query, pq.Array(addonIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query addon steps: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	addonSteps := make([]*models.AddonStep, 0)

	for rows.Next() {
		var (
			addonStep     models.AddonStep
			customContent []byte
		)

		err := rows.Scan(
			&addonStep.ID,
			&addonStep.AddonID,
			&addonStep.Order,
			&addonStep.StepID,
			&addonStep.SourceUseCaseID,
			&addonStep.CustomTitle,
			&addonStep.CustomDescription,
			&customContent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan addon step: %w", err)
		}

		err = unmarshalJSON(customContent, &addonStep.CustomContent, "custom content")
		if err != nil {
			return nil, err
		}

		addonSteps = append(addonSteps, &addonStep)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating addon steps: %w", err)
	}

	return addonSteps, nil
}

func scanAddon(row scanner) (*models.Addon, error) {
	var addon models.Addon

	err := row.Scan(
		&addon.ID,
		&addon.BaseUseCaseID,
		&addon.AddonUseCaseID,
		&addon.PathName,
		&addon.Description,
		&addon.DisplayOrder,
		&addon.CreatedAt,
		&addon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &addon, nil
}

func validateAddonSteps(op, addonID string, steps []*models.AddonStep) error {
	for i, step := range steps {
		if step == nil {
			return persistence.NewAddonError(op, addonID,
				fmt.Errorf("%w: step %d is empty", persistence.ErrInvalidAddonStep, i))
		}

		err := step.Validate()
		if err != nil {
			return persistence.NewAddonError(op, addonID,
				fmt.Errorf("%w: step %d: %w", persistence.ErrInvalidAddonStep, i, err))
		}
	}

	return nil
}

func lockAddonGraph(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, addonGraphLockKey)
	if err != nil {
		return fmt.Errorf("failed to lock addon graph: %w", err)
	}

	return nil
}

// ensureUseCasesExist share-locks the given use cases so they cannot be
// deleted underneath the caller, and fails on the first one that is missing.
func ensureUseCasesExist(ctx context.Context, q queryer, op string, ids ...string) error {
	for _, id := range ids {
		if !models.IsUUID(id) {
			return persistence.NewUseCaseError(op, id, persistence.ErrUseCaseNotFound)
		}
	}

	rows, err := q.QueryContext(ctx, `SELECT id FROM use_cases WHERE id = ANY($1::uuid[]) FOR SHARE`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to check use cases: %w", err)
	}

	defer func() { _ = rows.Close() }()

	found := make(map[string]bool, len(ids))

	for rows.Next() {
		var id string

		err := rows.Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to scan use case id: %w", err)
		}

		found[id] = true
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating use case ids: %w", err)
	}

	for _, id := range ids {
		if !found[strings.ToLower(id)] {
			return persistence.NewUseCaseError(op, id, persistence.ErrUseCaseNotFound)
		}
	}

	return nil
}

func loadAddonGraph(ctx context.Context, q queryer, logger *slog.Logger) (models.AddonGraph, error) {
	rows, err := q.QueryContext(ctx, `SELECT base_use_case_id, addon_use_case_id FROM use_case_addons`)
	if err != nil {
		return nil, fmt.Errorf("failed to query addon graph: %w", err)
	}

	defer closeRows(ctx, logger, rows)

	var edges []models.AddonEdge

	for rows.Next() {
		var edge models.AddonEdge

		err := rows.Scan(&edge.BaseUseCaseID, &edge.AddonUseCaseID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan addon edge: %w", err)
		}

		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating addon graph: %w", err)
	}

	return models.NewAddonGraph(edges), nil
}

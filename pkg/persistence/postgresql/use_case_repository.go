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

const useCaseSelect = `
		SELECT
			id
		  , title
		  , description
		  , category
		  , tags
		  , step_refs
		  , status
		  , created_by
		  , modified_by
		  , count_modified
		  , created_at
		  , last_modified
		FROM use_cases`

// UseCaseRepository handles use case-related database operations.
type UseCaseRepository struct {
	db     *sql.DB
	tx     *sqlbase.TxRunner
	logger *slog.Logger
}

var _ persistence.UseCaseRepository = (*UseCaseRepository)(nil)

// NewUseCaseRepository creates a new use case repository.
func NewUseCaseRepository(db *sql.DB, txRunner *sqlbase.TxRunner, logger *slog.Logger) *UseCaseRepository {
	return &UseCaseRepository{db: db, tx: txRunner, logger: logger}
}

// Create inserts useCase. A use case without a status starts as a draft.
func (r *UseCaseRepository) Create(ctx context.Context, useCase *models.UseCase) error {
	now := timestamp()

	if useCase.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate use case ID: %w", err)
		}

		useCase.ID = id.String()
	}

	if useCase.Status == "" {
		useCase.Status = models.UseCaseStatusDraft
	}

	useCase.Tags = nonNil(useCase.Tags)
	useCase.StepRefs = nonNil(useCase.StepRefs)
	useCase.CountModified = 0
	useCase.CreatedAt = now
	useCase.LastModified = now

	stepRefsJSON, err := marshalJSON(useCase.StepRefs, "step refs")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO use_cases (id, title, description, category, tags, step_refs, status,
			created_by, count_modified, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		useCase.ID,
		useCase.Title,
		useCase.Description,
		useCase.Category,
		pq.Array(useCase.Tags),
		stepRefsJSON,
		string(useCase.Status),
		useCase.CreatedBy,
		useCase.CountModified,
		useCase.CreatedAt,
		useCase.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to insert use case: %w", err)
	}

	return nil
}

func (r *UseCaseRepository) GetByID(ctx context.Context, id string) (*models.UseCase, error) {
	return r.getByID(ctx, r.db, "GetByID", id, "")
}

// List returns use cases matching opts, most recently modified first.
func (r *UseCaseRepository) List(ctx context.Context, opts persistence.ListUseCasesOptions) ([]*models.UseCase, error) {
	var (
		conditions []string
		args       []any
	)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if opts.Tag != "" {
		args = append(args, opts.Tag)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	query := useCaseSelect
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	args = append(args, normalizeLimit(opts.Limit), max(opts.Offset, 0))
	query += fmt.Sprintf(` ORDER BY last_modified DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return queryUseCases(ctx, r.db, r.logger, query, args...)
}

// Update applies patch under a row lock. A status change must be allowed by
// the use case lifecycle, and only human editors advance the modification counter.
func (r *UseCaseRepository) Update(
	ctx context.Context,
	id string,
	patch models.UseCasePatch,
	editor string,
) (*models.UseCase, error) {
	var updated *models.UseCase

	err := r.tx.InTx(ctx, "use case update", nil, func(tx *sql.Tx) error {
		useCase, err := r.getByID(ctx, tx, "Update", id, " FOR UPDATE")
		if err != nil {
			return err
		}

		if patch.Status != nil && !useCase.Status.CanTransitionTo(*patch.Status) {
			return persistence.NewUseCaseError("Update", id,
				fmt.Errorf("%w: %s to %s", persistence.ErrInvalidStatusTransition, useCase.Status, *patch.Status))
		}

		changed := patch.Apply(useCase)

		useCase.ModifiedBy = &editor
		useCase.CountModified += models.CountsAsEdit(editor)
		useCase.LastModified = timestamp()

		stepRefsJSON, err := marshalJSON(nonNil(useCase.StepRefs), "step refs")
		if err != nil {
			return err
		}

		query := `
			UPDATE use_cases SET
				title = $2
			  , description = $3
			  , category = $4
			  , tags = $5
			  , step_refs = $6
			  , status = $7
			  , modified_by = $8
			  , count_modified = $9
			  , last_modified = $10
			WHERE id = $1
		`

		result, err := tx.ExecContext(ctx, query,
			useCase.ID,
			useCase.Title,
			useCase.Description,
			useCase.Category,
			pq.Array(nonNil(useCase.Tags)),
			stepRefsJSON,
			string(useCase.Status),
			useCase.ModifiedBy,
			useCase.CountModified,
			useCase.LastModified,
		)
		if err != nil {
			return fmt.Errorf("failed to update use case: %w", err)
		}

		affected, err := rowsAffected(result)
		if err != nil {
			return err
		}

		if affected == 0 {
			return persistence.NewUseCaseError("Update", id, persistence.ErrUseCaseNotFound)
		}

		r.logger.DebugContext(ctx, "use case updated", "use_case_id", id, "fields", changed, "editor", editor)

		updated = useCase

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the use case. Addons on either side of it cascade.
func (r *UseCaseRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !models.IsUUID(id) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM use_cases WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete use case: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *UseCaseRepository) getByID(ctx context.Context, q queryer, op, id, lock string) (*models.UseCase, error) {
	if !models.IsUUID(id) {
		return nil, persistence.NewUseCaseError(op, id, persistence.ErrUseCaseNotFound)
	}

	useCase, err := scanUseCase(q.QueryRowContext(ctx, useCaseSelect+` WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewUseCaseError(op, id, persistence.ErrUseCaseNotFound)
		}

		return nil, fmt.Errorf("failed to scan use case: %w", err)
	}

	return useCase, nil
}

func queryUseCases(ctx context.Context, q queryer, logger *slog.Logger, query string, args ...any) ([]*models.UseCase, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query use cases: %w", err)
	}

	defer closeRows(ctx, logger, rows)

	useCases := make([]*models.UseCase, 0)

	for rows.Next() {
		useCase, err := scanUseCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan use case: %w", err)
		}

		useCases = append(useCases, useCase)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating use cases: %w", err)
	}

	return useCases, nil
}

func scanUseCase(row scanner) (*models.UseCase, error) {
	var (
		useCase      models.UseCase
		stepRefsJSON []byte
	)

	err := row.Scan(
		&useCase.ID,
		&useCase.Title,
		&useCase.Description,
		&useCase.Category,
		pq.Array(&useCase.Tags),
		&stepRefsJSON,
		&useCase.Status,
		&useCase.CreatedBy,
		&useCase.ModifiedBy,
		&useCase.CountModified,
		&useCase.CreatedAt,
		&useCase.LastModified,
	)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON(stepRefsJSON, &useCase.StepRefs, "step refs")
	if err != nil {
		return nil, err
	}

	useCase.Tags = nonNil(useCase.Tags)
	useCase.StepRefs = nonNil(useCase.StepRefs)

	return &useCase, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/sqlbase"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const stepSelect = `
		SELECT
			id
		  , slug
		  , title
		  , description
		  , content
		  , tags
		  , category
		  , status
		  , created_by
		  , modified_by
		  , approved_by
		  , approval_date
		  , rejection_reason
		  , count_modified
		  , created_at
		  , last_modified
		FROM steps`

// keyTier is one level of alternate key matching. args returns nil when the
// tier cannot apply to the key.
type keyTier struct {
	name      string
	condition string
	args      func(key, title string) []any
}

var alternateKeyTiers = []keyTier{
	{
		name:      "slug",
		condition: "slug = $1",
		args:      func(key, _ string) []any { return []any{key} },
	},
	{
		name:      "slug_case_insensitive",
		condition: "LOWER(slug) = LOWER($1)",
		args:      func(key, _ string) []any { return []any{key} },
	},
	{
		name:      "title",
		condition: "LOWER(title) = LOWER($1)",
		args: func(_, title string) []any {
			if title == "" {
				return nil
			}

			return []any{title}
		},
	},
	{
		name:      "partial",
		condition: "title ILIKE $1 OR slug ILIKE $2",
		args: func(key, title string) []any {
			if title == "" {
				return nil
			}

			return []any{containsPattern(title), containsPattern(key)}
		},
	},
}

// StepRepository handles step-related database operations.
type StepRepository struct {
	db     *sql.DB
	tx     *sqlbase.TxRunner
	logger *slog.Logger
}

var _ persistence.StepRepository = (*StepRepository)(nil)

// NewStepRepository creates a new step repository.
func NewStepRepository(db *sql.DB, txRunner *sqlbase.TxRunner, logger *slog.Logger) *StepRepository {
	return &StepRepository{db: db, tx: txRunner, logger: logger}
}

// Create inserts step in review status together with its "created" history entry.
func (r *StepRepository) Create(ctx context.Context, step *models.Step) error {
	now := timestamp()

	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate step ID: %w", err)
		}

		step.ID = id.String()
	}

	if step.Slug == "" {
		step.Slug = models.Slugify(step.Title)
	}

	step.Status = models.StepStatusReview
	step.Tags = nonNil(step.Tags)
	step.CountModified = 0
	step.CreatedAt = now
	step.LastModified = now

	contentJSON, err := marshalJSON(step.Content, "content")
	if err != nil {
		return err
	}

	return r.tx.InTx(ctx, "step create", nil, func(tx *sql.Tx) error {
		query := `
			INSERT INTO steps (id, slug, title, description, content, tags, category, status,
				created_by, count_modified, created_at, last_modified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`

		_, err := tx.ExecContext(ctx, query,
			step.ID,
			step.Slug,
			step.Title,
			step.Description,
			contentJSON,
			pq.Array(step.Tags),
			string(step.Category),
			string(step.Status),
			step.CreatedBy,
			step.CountModified,
			step.CreatedAt,
			step.LastModified,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step: %w", err)
		}

		return r.insertHistory(ctx, tx, &models.StepHistoryEntry{
			StepID:    step.ID,
			Action:    models.StepHistoryCreated,
			ChangedBy: step.CreatedBy,
			Summary:   "Created step",
			CreatedAt: now,
		})
	})
}

func (r *StepRepository) GetByID(ctx context.Context, id string) (*models.Step, error) {
	if !models.IsUUID(id) {
		return nil, persistence.NewStepError("GetByID", id, persistence.ErrStepNotFound)
	}

	step, err := scanStep(r.db.QueryRowContext(ctx, stepSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStepError("GetByID", id, persistence.ErrStepNotFound)
		}

		return nil, fmt.Errorf("failed to scan step: %w", err)
	}

	return step, nil
}

// GetByAlternateKey walks the alternate key tiers in order and returns the
// most recently modified match of the first tier that matches.
func (r *StepRepository) GetByAlternateKey(ctx context.Context, key string) (*models.Step, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, persistence.NewStepError("GetByAlternateKey", key, persistence.ErrStepNotFound)
	}

	title := models.TitleFromKey(key)

	for _, tier := range alternateKeyTiers {
		args := tier.args(key, title)
		if args == nil {
			continue
		}

		query := stepSelect + ` WHERE ` + tier.condition + ` ORDER BY last_modified DESC, id DESC LIMIT 1`

		step, err := scanStep(r.db.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to look up step by %s: %w", tier.name, err)
		}

		r.logger.DebugContext(ctx, "resolved alternate key", "key", key, "tier", tier.name, "step_id", step.ID)

		return step, nil
	}

	return nil, persistence.NewStepError("GetByAlternateKey", key, persistence.ErrStepNotFound)
}

// List returns steps matching opts, most recently modified first.
func (r *StepRepository) List(ctx context.Context, opts persistence.ListStepsOptions) ([]*models.Step, error) {
	var (
		conditions []string
		args       []any
	)

	where := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if opts.Status != nil {
		where("status = $%d", string(*opts.Status))
	}

	if opts.Category != nil {
		where("category = $%d", string(*opts.Category))
	}

	if opts.Tag != "" {
		where("$%d = ANY(tags)", opts.Tag)
	}

	query := stepSelect
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	args = append(args, normalizeLimit(opts.Limit), max(opts.Offset, 0))
	query += fmt.Sprintf(` ORDER BY last_modified DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.querySteps(ctx, r.db, query, args...)
}

// ResolveMany resolves identifiers in input order. Canonical ids are fetched
// in one query; alternate keys go through GetByAlternateKey once per distinct key.
func (r *StepRepository) ResolveMany(ctx context.Context, identifiers []models.Identifier) (*models.Resolution, error) {
	resolution := &models.Resolution{
		Steps:   make([]*models.Step, 0, len(identifiers)),
		Missing: make([]string, 0),
	}

	if len(identifiers) == 0 {
		return resolution, nil
	}

	byID, err := r.fetchByIDs(ctx, identifiers)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*models.Step)

	for _, identifier := range identifiers {
		var step *models.Step

		switch identifier.Kind {
		case models.IdentifierKindUUID:
			step = byID[identifier.Raw]
		case models.IdentifierKindKey:
			cached, seen := byKey[identifier.Raw]
			if !seen {
				cached, err = r.GetByAlternateKey(ctx, identifier.Raw)
				if err != nil && !persistence.IsStepNotFound(err) {
					return nil, err
				}

				byKey[identifier.Raw] = cached
			}

			step = cached
		}

		if step == nil {
			resolution.Missing = append(resolution.Missing, identifier.Raw)

			continue
		}

		resolution.Steps = append(resolution.Steps, step)
	}

	return resolution, nil
}

func (r *StepRepository) fetchByIDs(ctx context.Context, identifiers []models.Identifier) (map[string]*models.Step, error) {
	ids := make([]string, 0, len(identifiers))

	for _, identifier := range identifiers {
		if identifier.Kind == models.IdentifierKindUUID {
			ids = append(ids, identifier.Raw)
		}
	}

	byID := make(map[string]*models.Step, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	steps, err := r.querySteps(ctx, r.db, stepSelect+` WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		byID[strings.ToLower(step.ID)] = step
	}

	return byID, nil
}

// Update applies patch under a row lock and records which fields changed.
// Only human editors advance the modification counter.
func (r *StepRepository) Update(ctx context.Context, id string, patch models.StepPatch, editor string) (*models.Step, error) {
	return r.mutate(ctx, "Update", id, func(_ *sql.Tx, step *models.Step, _ time.Time) (*models.StepHistoryEntry, error) {
		changes := patch.Apply(step)

		step.ModifiedBy = &editor
		step.CountModified += models.CountsAsEdit(editor)

		return &models.StepHistoryEntry{
			Action:    models.StepHistoryUpdated,
			ChangedBy: editor,
			Summary:   updateSummary(changes.Fields),
			Changes:   changes,
		}, nil
	})
}

// Approve stamps the approver and date, and writes an approval record for useCaseIDs.
func (r *StepRepository) Approve(ctx context.Context, id, approver string, useCaseIDs []string) (*models.Step, error) {
	return r.mutate(ctx, "Approve", id, func(tx *sql.Tx, step *models.Step, now time.Time) (*models.StepHistoryEntry, error) {
		previous := step.Status

		step.Status = models.StepStatusApproved
		step.ApprovedBy = &approver
		step.ApprovalDate = &now
		step.RejectionReason = nil
		step.ModifiedBy = &approver

		approvalID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate approval ID: %w", err)
		}

		query := `
			INSERT INTO step_approvals (id, step_id, approved_by, associated_use_case_ids, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err = tx.ExecContext(ctx, query, approvalID.String(), step.ID, approver, pq.Array(nonNil(useCaseIDs)), now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert step approval: %w", err)
		}

		return &models.StepHistoryEntry{
			Action:    models.StepHistoryApproved,
			ChangedBy: approver,
			Summary:   "Approved step",
			Changes:   statusChange(previous, step.Status, ""),
		}, nil
	})
}

// Reject moves the step to rejected and stores reason. The step stays editable.
func (r *StepRepository) Reject(ctx context.Context, id, rejector, reason string) (*models.Step, error) {
	return r.mutate(ctx, "Reject", id, func(_ *sql.Tx, step *models.Step, _ time.Time) (*models.StepHistoryEntry, error) {
		previous := step.Status

		step.Status = models.StepStatusRejected
		step.RejectionReason = &reason
		step.ApprovedBy = nil
		step.ApprovalDate = nil
		step.ModifiedBy = &rejector

		return &models.StepHistoryEntry{
			Action:    models.StepHistoryRejected,
			ChangedBy: rejector,
			Summary:   "Rejected step",
			Changes:   statusChange(previous, step.Status, reason),
		}, nil
	})
}

// Delete removes the step. Comments, history and approvals go with it;
// use case step references and addon steps are left alone.
func (r *StepRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !models.IsUUID(id) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete step: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// AddComment stores comment and bumps the step's last_modified in the same transaction.
func (r *StepRepository) AddComment(ctx context.Context, comment *models.StepComment) error {
	if !models.IsUUID(comment.StepID) {
		return persistence.NewStepError("AddComment", comment.StepID, persistence.ErrStepNotFound)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate comment ID: %w", err)
	}

	comment.ID = id.String()
	comment.CreatedAt = timestamp()

	return r.tx.InTx(ctx, "step add comment", nil, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE steps SET last_modified = $2 WHERE id = $1`, comment.StepID, comment.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to resurface step: %w", err)
		}

		affected, err := rowsAffected(result)
		if err != nil {
			return err
		}

		if affected == 0 {
			return persistence.NewStepError("AddComment", comment.StepID, persistence.ErrStepNotFound)
		}

		query := `
			INSERT INTO step_comments (id, step_id, author, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err = tx.ExecContext(ctx, query, comment.ID, comment.StepID, comment.Author, comment.Body, comment.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert step comment: %w", err)
		}

		return nil
	})
}

// Comments returns the step's comments, newest first.
func (r *StepRepository) Comments(ctx context.Context, stepID string) ([]*models.StepComment, error) {
	err := r.ensureExists(ctx, "Comments", stepID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			id
		  , step_id
		  , author
		  , body
		  , created_at
		FROM step_comments
		WHERE step_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step comments: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	comments := make([]*models.StepComment, 0)

	for rows.Next() {
		var comment models.StepComment

		err := rows.Scan(&comment.ID, &comment.StepID, &comment.Author, &comment.Body, &comment.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step comment: %w", err)
		}

		comments = append(comments, &comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating step comments: %w", err)
	}

	return comments, nil
}

// History returns the step's audit trail, newest first.
func (r *StepRepository) History(ctx context.Context, stepID string) ([]*models.StepHistoryEntry, error) {
	err := r.ensureExists(ctx, "History", stepID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			id
		  , step_id
		  , action
		  , changed_by
		  , summary
		  , changes
		  , created_at
		FROM step_history
		WHERE step_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step history: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	entries := make([]*models.StepHistoryEntry, 0)

	for rows.Next() {
		var (
			entry       models.StepHistoryEntry
			changesJSON []byte
		)

		err := rows.Scan(&entry.ID, &entry.StepID, &entry.Action, &entry.ChangedBy, &entry.Summary, &changesJSON, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step history: %w", err)
		}

		err = unmarshalJSON(changesJSON, &entry.Changes, "history changes")
		if err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating step history: %w", err)
	}

	return entries, nil
}

// Approvals returns the step's approval records, newest first.
func (r *StepRepository) Approvals(ctx context.Context, stepID string) ([]*models.StepApproval, error) {
	err := r.ensureExists(ctx, "Approvals", stepID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			id
		  , step_id
		  , approved_by
		  , associated_use_case_ids
		  , created_at
		FROM step_approvals
		WHERE step_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step approvals: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	approvals := make([]*models.StepApproval, 0)

	for rows.Next() {
		var approval models.StepApproval

		err := rows.Scan(&approval.ID, &approval.StepID, &approval.ApprovedBy,
			pq.Array(&approval.AssociatedUseCaseIDs), &approval.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step approval: %w", err)
		}

		approval.AssociatedUseCaseIDs = nonNil(approval.AssociatedUseCaseIDs)
		approvals = append(approvals, &approval)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating step approvals: %w", err)
	}

	return approvals, nil
}

// mutate loads the step under a row lock, lets change modify it and returns
// the history entry to record, then writes both back in the same transaction.
func (r *StepRepository) mutate(
	ctx context.Context,
	op, id string,
	change func(tx *sql.Tx, step *models.Step, now time.Time) (*models.StepHistoryEntry, error),
) (*models.Step, error) {
	if !models.IsUUID(id) {
		return nil, persistence.NewStepError(op, id, persistence.ErrStepNotFound)
	}

	var updated *models.Step

	err := r.tx.InTx(ctx, "step "+strings.ToLower(op), nil, func(tx *sql.Tx) error {
		step, err := scanStep(tx.QueryRowContext(ctx, stepSelect+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.NewStepError(op, id, persistence.ErrStepNotFound)
			}

			return fmt.Errorf("failed to lock step: %w", err)
		}

		now := timestamp()

		entry, err := change(tx, step, now)
		if err != nil {
			return err
		}

		step.LastModified = now

		err = r.writeStep(ctx, tx, op, step)
		if err != nil {
			return err
		}

		entry.StepID = step.ID
		entry.CreatedAt = now

		err = r.insertHistory(ctx, tx, entry)
		if err != nil {
			return err
		}

		updated = step

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *StepRepository) writeStep(ctx context.Context, tx *sql.Tx, op string, step *models.Step) error {
	contentJSON, err := marshalJSON(step.Content, "content")
	if err != nil {
		return err
	}

	query := `
		UPDATE steps SET
			slug = $2
		  , title = $3
		  , description = $4
		  , content = $5
		  , tags = $6
		  , category = $7
		  , status = $8
		  , modified_by = $9
		  , approved_by = $10
		  , approval_date = $11
		  , rejection_reason = $12
		  , count_modified = $13
		  , last_modified = $14
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query,
		step.ID,
		step.Slug,
		step.Title,
		step.Description,
		contentJSON,
		pq.Array(nonNil(step.Tags)),
		string(step.Category),
		string(step.Status),
		step.ModifiedBy,
		step.ApprovedBy,
		step.ApprovalDate,
		step.RejectionReason,
		step.CountModified,
		step.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to update step: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStepError(op, step.ID, persistence.ErrStepNotFound)
	}

	return nil
}

func (r *StepRepository) insertHistory(ctx context.Context, tx *sql.Tx, entry *models.StepHistoryEntry) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate history ID: %w", err)
	}

	entry.ID = id.String()

	changesJSON, err := marshalJSON(entry.Changes, "history changes")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO step_history (id, step_id, action, changed_by, summary, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.ExecContext(ctx, query,
		entry.ID,
		entry.StepID,
		string(entry.Action),
		entry.ChangedBy,
		entry.Summary,
		changesJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert step history: %w", err)
	}

	return nil
}

func (r *StepRepository) ensureExists(ctx context.Context, op, id string) error {
	if !models.IsUUID(id) {
		return persistence.NewStepError(op, id, persistence.ErrStepNotFound)
	}

	var exists bool

	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM steps WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check step existence: %w", err)
	}

	if !exists {
		return persistence.NewStepError(op, id, persistence.ErrStepNotFound)
	}

	return nil
}

func (r *StepRepository) querySteps(ctx context.Context, q queryer, query string, args ...any) ([]*models.Step, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	steps := make([]*models.Step, 0)

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		steps = append(steps, step)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

func scanStep(row scanner) (*models.Step, error) {
	var (
		step        models.Step
		contentJSON []byte
	)

	err := row.Scan(
		&step.ID,
		&step.Slug,
		&step.Title,
		&step.Description,
		&contentJSON,
		pq.Array(&step.Tags),
		&step.Category,
		&step.Status,
		&step.CreatedBy,
		&step.ModifiedBy,
		&step.ApprovedBy,
		&step.ApprovalDate,
		&step.RejectionReason,
		&step.CountModified,
		&step.CreatedAt,
		&step.LastModified,
	)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON(contentJSON, &step.Content, "content")
	if err != nil {
		return nil, err
	}

	step.Tags = nonNil(step.Tags)

	return &step, nil
}

func statusChange(from, to models.StepStatus, note string) models.StepChanges {
	return models.StepChanges{
		Fields: []string{"status"},
		Values: map[string]models.FieldChange{"status": {Old: string(from), New: string(to)}},
		Note:   note,
	}
}

func updateSummary(fields []string) string {
	if len(fields) == 0 {
		return "Saved without changes"
	}

	return "Updated " + strings.Join(fields, ", ")
}

// timestamp is the current time at the precision Postgres stores.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

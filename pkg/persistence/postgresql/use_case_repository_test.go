package postgresql_test

import (
	"testing"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseCaseRepository_CreateAndGet(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.UseCaseRepository()

	useCase := &models.UseCase{
		Title:     "Onboard a developer",
		Category:  "onboarding",
		Tags:      []string{"people"},
		StepRefs:  []string{"install-go", uuid.NewString()},
		CreatedBy: "jdoe",
	}

	err := repo.Create(ctx, useCase)
	require.NoError(t, err)
	assert.Equal(t, models.UseCaseStatusDraft, useCase.Status)

	found, err := repo.GetByID(ctx, useCase.ID)
	require.NoError(t, err)
	assert.Equal(t, useCase.Title, found.Title)
	assert.Equal(t, useCase.StepRefs, found.StepRefs)
	assert.Equal(t, []string{"people"}, found.Tags)
	assert.Equal(t, models.UseCaseStatusDraft, found.Status)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.True(t, persistence.IsUseCaseNotFound(err))
}

func TestUseCaseRepository_Update(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.UseCaseRepository()

	useCase := createUseCase(ctx, t, p, "Ship a release", "")

	review := models.UseCaseStatusReview
	updated, err := repo.Update(ctx, useCase.ID, models.UseCasePatch{
		Status:   &review,
		StepRefs: &[]string{"build", "tag", "publish"},
	}, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, models.UseCaseStatusReview, updated.Status)
	assert.Equal(t, []string{"build", "tag", "publish"}, updated.StepRefs)
	assert.Equal(t, 1, updated.CountModified)

	updated, err = repo.Update(ctx, useCase.ID, models.UseCasePatch{Description: ptr("drafted by ai")}, "assistant")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CountModified)
	assert.Equal(t, "assistant", *updated.ModifiedBy)

	found, err := repo.GetByID(ctx, useCase.ID)
	require.NoError(t, err)
	assert.Equal(t, "drafted by ai", found.Description)
	assert.Equal(t, []string{"build", "tag", "publish"}, found.StepRefs)
}

func TestUseCaseRepository_Update_StatusTransitions(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.UseCaseRepository()

	tests := []struct {
		name    string
		from    models.UseCaseStatus
		to      models.UseCaseStatus
		wantErr bool
	}{
		{name: "draft to review", from: models.UseCaseStatusDraft, to: models.UseCaseStatusReview},
		{name: "approved to published", from: models.UseCaseStatusApproved, to: models.UseCaseStatusPublished},
		{name: "draft to published", from: models.UseCaseStatusDraft, to: models.UseCaseStatusPublished, wantErr: true},
		{name: "archived is absorbing", from: models.UseCaseStatusArchived, to: models.UseCaseStatusDraft, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase := createUseCase(ctx, t, p, tt.name, tt.from)

			next := tt.to
			_, err := repo.Update(ctx, useCase.ID, models.UseCasePatch{Status: &next}, "jdoe")

			if tt.wantErr {
				require.ErrorIs(t, err, persistence.ErrInvalidStatusTransition)

				found, err := repo.GetByID(ctx, useCase.ID)
				require.NoError(t, err)
				assert.Equal(t, tt.from, found.Status)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestUseCaseRepository_ListAndDelete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.UseCaseRepository()

	draft := createUseCase(ctx, t, p, "Draft", "")
	approved := createUseCase(ctx, t, p, "Approved", models.UseCaseStatusApproved)

	all, err := repo.List(ctx, persistence.ListUseCasesOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := models.UseCaseStatusApproved
	filtered, err := repo.List(ctx, persistence.ListUseCasesOptions{Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, approved.ID, filtered[0].ID)

	deleted, err := repo.Delete(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

package services_test

import (
	"context"
	"testing"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUseCase_GetWithResolvedSteps(t *testing.T) {
	f := newFixture()
	stepID := uuid.NewString()
	goneID := uuid.NewString()

	useCase := &models.UseCase{ID: "uc1", Title: "Onboarding", StepRefs: []string{stepID, "install-go", goneID}}
	f.persistence.UseCases.On("GetByID", mock.Anything, "uc1").Return(useCase, nil)

	first := &models.Step{ID: stepID, Title: "First", Category: models.StepCategorySetup}
	second := &models.Step{ID: uuid.NewString(), Title: "Install Go", Category: models.StepCategoryDevelopment}

	f.persistence.Steps.On("ResolveMany", mock.Anything, models.ParseIdentifiers(useCase.StepRefs)).
		Return(&models.Resolution{Steps: []*models.Step{first, second}, Missing: []string{goneID}}, nil)

	resolved, err := f.useCases.GetWithResolvedSteps(context.Background(), "uc1")
	require.NoError(t, err)

	assert.Equal(t, useCase, resolved.UseCase)
	require.Len(t, resolved.Steps, 2)
	assert.Equal(t, stepID, resolved.Steps[0].StepID)
	assert.Equal(t, 0, resolved.Steps[0].OrderIndex)
	assert.Equal(t, "Install Go", resolved.Steps[1].Title)
	assert.Equal(t, 1, resolved.Steps[1].OrderIndex)
	assert.Equal(t, models.StepCategoryDevelopment, resolved.Steps[1].Category)
	assert.Equal(t, []string{goneID}, resolved.MissingStepIDs)

	f.persistence.AssertExpectations(t)
}

func TestUseCase_GetWithResolvedSteps_NoRefs(t *testing.T) {
	f := newFixture()

	f.persistence.UseCases.On("GetByID", mock.Anything, "uc1").Return(&models.UseCase{ID: "uc1"}, nil)

	resolved, err := f.useCases.GetWithResolvedSteps(context.Background(), "uc1")
	require.NoError(t, err)
	assert.NotNil(t, resolved.Steps)
	assert.Empty(t, resolved.Steps)
	assert.Empty(t, resolved.MissingStepIDs)

	f.persistence.Steps.AssertNotCalled(t, "ResolveMany", mock.Anything, mock.Anything)
}

func TestUseCase_GetWithResolvedSteps_NotFound(t *testing.T) {
	f := newFixture()

	f.persistence.UseCases.On("GetByID", mock.Anything, "nope").
		Return(nil, persistence.NewUseCaseError("GetByID", "nope", persistence.ErrUseCaseNotFound))

	_, err := f.useCases.GetWithResolvedSteps(context.Background(), "nope")
	require.ErrorIs(t, err, services.ErrUseCaseNotFound)
}

func TestUseCase_Update(t *testing.T) {
	f := newFixture()
	published := models.UseCaseStatusPublished
	patch := models.UseCasePatch{Status: &published}

	f.persistence.UseCases.On("Update", mock.Anything, "uc1", patch, "jdoe").
		Return(nil, persistence.NewUseCaseError("Update", "uc1", persistence.ErrInvalidStatusTransition))

	_, err := f.useCases.Update(context.Background(), "uc1", patch, "jdoe")
	require.ErrorIs(t, err, services.ErrInvalidStatusTransition)
	assert.True(t, services.IsValidationError(err))

	unknown := models.UseCaseStatus("shipped")

	_, err = f.useCases.Update(context.Background(), "uc1", models.UseCasePatch{Status: &unknown}, "jdoe")
	require.ErrorIs(t, err, services.ErrInvalidStatus)

	_, err = f.useCases.Update(context.Background(), "uc1", models.UseCasePatch{}, "jdoe")
	require.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestUseCase_ApplyAutofill_DropsStatus(t *testing.T) {
	f := newFixture()
	archived := models.UseCaseStatusArchived

	expected := models.UseCasePatch{Description: ptr("From the README"), Tags: &[]string{"go"}}
	f.persistence.UseCases.On("Update", mock.Anything, "uc1", expected, "ai-bot").
		Return(&models.UseCase{ID: "uc1", Description: "From the README"}, nil)

	useCase, err := f.useCases.ApplyAutofill(context.Background(), "uc1", models.UseCasePatch{
		Description: ptr("From the README"),
		Tags:        &[]string{"go"},
		Status:      &archived,
	}, "ai-bot")
	require.NoError(t, err)
	assert.Equal(t, "From the README", useCase.Description)

	f.persistence.AssertExpectations(t)
}

func TestUseCase_Create(t *testing.T) {
	f := newFixture()

	_, err := f.useCases.Create(context.Background(), &models.UseCase{CreatedBy: "jdoe"})
	require.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = f.useCases.Create(context.Background(), &models.UseCase{Title: "x", CreatedBy: "jdoe", Status: "wip"})
	require.ErrorIs(t, err, services.ErrInvalidStatus)

	useCase := &models.UseCase{Title: "Release", CreatedBy: "jdoe"}
	f.persistence.UseCases.On("Create", mock.Anything, useCase).Return(nil)

	created, err := f.useCases.Create(context.Background(), useCase)
	require.NoError(t, err)
	assert.Equal(t, "Release", created.Title)

	f.persistence.AssertExpectations(t)
}

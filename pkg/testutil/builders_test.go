package testutil

import (
	"testing"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTestStep_Overrides(t *testing.T) {
	step := CreateTestStep(WithTitle("Run Tests"), WithStatus(models.StepStatusApproved), WithCategory(models.StepCategoryTesting))

	assert.Equal(t, "Run Tests", step.Title)
	assert.Equal(t, "run-tests", step.Slug)
	assert.Equal(t, models.StepStatusApproved, step.Status)
	assert.Equal(t, models.StepCategoryTesting, step.Category)
	require.NoError(t, step.Content.Validate())
	assert.True(t, models.IsUUID(step.ID))
}

func TestCreateTestUseCase_NoRefs(t *testing.T) {
	useCase := CreateTestUseCase("Deploy", models.UseCaseStatusDraft)

	assert.NotNil(t, useCase.StepRefs)
	assert.Empty(t, useCase.StepRefs)
}

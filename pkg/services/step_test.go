package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validStep() *models.Step {
	return &models.Step{
		Title:       "Install Go",
		Description: "Install the toolchain",
		Category:    models.StepCategorySetup,
		CreatedBy:   "jdoe",
		Content:     models.ContentBlocks{{Type: models.BlockTypeText, Text: "Download it"}},
	}
}

func TestStep_Create(t *testing.T) {
	f := newFixture()
	step := validStep()

	f.persistence.Steps.On("Create", mock.Anything, step).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Step).ID = "s1"
	})

	created, err := f.steps.Create(context.Background(), step)
	require.NoError(t, err)
	assert.Equal(t, "s1", created.ID)
	assert.NotEmpty(t, created.Content[0].ID)

	f.persistence.AssertExpectations(t)
}

func TestStep_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(step *models.Step)
		wantErr error
	}{
		{name: "missing title", mutate: func(s *models.Step) { s.Title = "" }, wantErr: services.ErrInvalidRequest},
		{name: "missing description", mutate: func(s *models.Step) { s.Description = "" }, wantErr: services.ErrInvalidRequest},
		{name: "unknown category", mutate: func(s *models.Step) { s.Category = "cooking" }, wantErr: services.ErrInvalidRequest},
		{name: "missing author", mutate: func(s *models.Step) { s.CreatedBy = "" }, wantErr: services.ErrInvalidRequest},
		{
			name:    "invalid content",
			mutate:  func(s *models.Step) { s.Content = models.ContentBlocks{{Type: models.BlockTypeHeading, Level: 9, Text: "x"}} },
			wantErr: services.ErrInvalidContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			step := validStep()
			tt.mutate(step)

			_, err := f.steps.Create(context.Background(), step)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, services.IsValidationError(err))

			f.persistence.Steps.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestStep_Update(t *testing.T) {
	approved := models.StepStatusApproved
	clarification := models.StepStatusClarification

	tests := []struct {
		name    string
		patch   models.StepPatch
		editor  string
		wantErr error
		calls   bool
	}{
		{name: "title change", patch: models.StepPatch{Title: ptr("New")}, editor: "jdoe", calls: true},
		{name: "clarification allowed", patch: models.StepPatch{Status: &clarification}, editor: "jdoe", calls: true},
		{name: "approval through update", patch: models.StepPatch{Status: &approved}, editor: "jdoe", wantErr: services.ErrInvalidStatus},
		{name: "empty patch", patch: models.StepPatch{}, editor: "jdoe", wantErr: services.ErrInvalidRequest},
		{name: "missing editor", patch: models.StepPatch{Title: ptr("New")}, editor: " ", wantErr: services.ErrInvalidRequest},
		{name: "blank title", patch: models.StepPatch{Title: ptr("")}, editor: "jdoe", wantErr: services.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			if tt.calls {
				f.persistence.Steps.On("Update", mock.Anything, "s1", tt.patch, tt.editor).
					Return(&models.Step{ID: "s1"}, nil)
			}

			_, err := f.steps.Update(context.Background(), "s1", tt.patch, tt.editor)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				f.persistence.Steps.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

				return
			}

			require.NoError(t, err)
			f.persistence.AssertExpectations(t)
		})
	}
}

func TestStep_Update_NotFound(t *testing.T) {
	f := newFixture()
	patch := models.StepPatch{Title: ptr("New")}

	f.persistence.Steps.On("Update", mock.Anything, "missing", patch, "jdoe").
		Return(nil, persistence.NewStepError("Update", "missing", persistence.ErrStepNotFound))

	_, err := f.steps.Update(context.Background(), "missing", patch, "jdoe")
	require.ErrorIs(t, err, services.ErrStepNotFound)
	assert.True(t, services.IsNotFoundError(err))
}

func TestStep_Reject(t *testing.T) {
	f := newFixture()

	_, err := f.steps.Reject(context.Background(), "s1", "lead", "   ")
	require.ErrorIs(t, err, services.ErrRejectionReasonRequired)
	assert.True(t, services.IsValidationError(err))

	f.persistence.Steps.On("Reject", mock.Anything, "s1", "lead", "needs detail").
		Return(&models.Step{ID: "s1", Status: models.StepStatusRejected}, nil)

	step, err := f.steps.Reject(context.Background(), "s1", "lead", " needs detail ")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusRejected, step.Status)

	f.persistence.AssertExpectations(t)
}

func TestStep_Approve(t *testing.T) {
	f := newFixture()
	useCaseIDs := []string{uuid.NewString()}

	_, err := f.steps.Approve(context.Background(), "s1", "", useCaseIDs)
	require.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = f.steps.Approve(context.Background(), "s1", "lead", []string{"not-a-uuid"})
	require.ErrorIs(t, err, services.ErrInvalidRequest)

	f.persistence.Steps.On("Approve", mock.Anything, "s1", "lead", useCaseIDs).
		Return(&models.Step{ID: "s1", Status: models.StepStatusApproved}, nil)

	step, err := f.steps.Approve(context.Background(), "s1", "lead", useCaseIDs)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusApproved, step.Status)

	f.persistence.AssertExpectations(t)
}

func TestStep_Resolve(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()

	resolution := &models.Resolution{Steps: []*models.Step{{ID: id}}, Missing: []string{"gone"}}
	f.persistence.Steps.On("ResolveMany", mock.Anything, []models.Identifier{
		{Raw: id, Kind: models.IdentifierKindUUID},
		{Raw: "gone", Kind: models.IdentifierKindKey},
	}).Return(resolution, nil)

	got, err := f.steps.Resolve(context.Background(), []string{id, "", "gone"})
	require.NoError(t, err)
	assert.Equal(t, resolution, got)

	empty, err := f.steps.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Steps)

	f.persistence.AssertExpectations(t)
}

func TestStep_Delete_Error(t *testing.T) {
	f := newFixture()

	f.persistence.Steps.On("Delete", mock.Anything, "s1").Return(false, errors.New("connection reset"))

	_, err := f.steps.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.False(t, services.IsValidationError(err))
	assert.False(t, services.IsNotFoundError(err))
}

func TestStep_AddComment_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.steps.AddComment(context.Background(), &models.StepComment{StepID: "s1", Author: "ana"})
	require.ErrorIs(t, err, services.ErrInvalidRequest)

	f.persistence.Steps.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything)
}

func TestStep_List_InvalidStatus(t *testing.T) {
	f := newFixture()
	status := models.StepStatus("pending")

	_, err := f.steps.List(context.Background(), persistence.ListStepsOptions{Status: &status})
	require.ErrorIs(t, err, services.ErrInvalidStatus)
}

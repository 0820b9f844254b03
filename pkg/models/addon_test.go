package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestAddonStep_Validate(t *testing.T) {
	tests := []struct {
		name     string
		step     AddonStep
		wantErr  error
		wantKind AddonStepKind
	}{
		{
			name:     "existing step pointer",
			step:     AddonStep{StepID: strPtr("step-1")},
			wantKind: AddonStepKindExisting,
		},
		{
			name:     "borrowed step with provenance",
			step:     AddonStep{StepID: strPtr("step-1"), SourceUseCaseID: strPtr("uc-9")},
			wantKind: AddonStepKindBorrowed,
		},
		{
			name:     "custom inline content",
			step:     AddonStep{CustomTitle: strPtr("Ask a lead"), CustomDescription: strPtr("Ping the team lead.")},
			wantKind: AddonStepKindCustom,
		},
		{
			name:    "neither pointer nor custom",
			step:    AddonStep{},
			wantErr: ErrAddonStepShape,
		},
		{
			name:    "custom title without description",
			step:    AddonStep{CustomTitle: strPtr("Only a title")},
			wantErr: ErrAddonStepShape,
		},
		{
			name:    "blank custom fields",
			step:    AddonStep{CustomTitle: strPtr(" "), CustomDescription: strPtr("")},
			wantErr: ErrAddonStepShape,
		},
		{
			name:    "pointer and custom",
			step:    AddonStep{StepID: strPtr("step-1"), CustomTitle: strPtr("t"), CustomDescription: strPtr("d")},
			wantErr: ErrAddonStepShape,
		},
		{
			name:    "pointer with stray custom title",
			step:    AddonStep{StepID: strPtr("step-1"), CustomTitle: strPtr("t")},
			wantErr: ErrAddonStepShape,
		},
		{
			name: "provenance without pointer",
			step: AddonStep{
				SourceUseCaseID:   strPtr("uc-9"),
				CustomTitle:       strPtr("t"),
				CustomDescription: strPtr("d"),
			},
			wantErr: ErrAddonSourceWithoutStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantKind, tt.step.Kind())
		})
	}
}

func TestAddonStep_Title(t *testing.T) {
	withStep := AddonStep{StepID: strPtr("s"), Step: &Step{Title: "Backing"}}
	custom := AddonStep{CustomTitle: strPtr("Inline")}
	dangling := AddonStep{StepID: strPtr("gone"), StepMissing: true}

	assert.Equal(t, "Backing", withStep.Title())
	assert.Equal(t, "Inline", custom.Title())
	assert.Empty(t, dangling.Title())
}

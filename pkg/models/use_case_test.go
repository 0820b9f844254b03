package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUseCaseStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to UseCaseStatus
		want     bool
	}{
		{UseCaseStatusDraft, UseCaseStatusReview, true},
		{UseCaseStatusDraft, UseCaseStatusPublished, false},
		{UseCaseStatusReview, UseCaseStatusApproved, true},
		{UseCaseStatusClarification, UseCaseStatusReview, true},
		{UseCaseStatusApproved, UseCaseStatusPublished, true},
		{UseCaseStatusPublished, UseCaseStatusArchived, true},
		{UseCaseStatusPublished, UseCaseStatusDraft, false},
		{UseCaseStatusRejected, UseCaseStatusReview, false},
		{UseCaseStatusArchived, UseCaseStatusDraft, false},
		{UseCaseStatusArchived, UseCaseStatusArchived, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestUseCaseStatus_IsApproved(t *testing.T) {
	assert.True(t, UseCaseStatusApproved.IsApproved())
	assert.True(t, UseCaseStatusPublished.IsApproved())
	assert.False(t, UseCaseStatusReview.IsApproved())
	assert.False(t, UseCaseStatus("bogus").IsValid())
}

func TestStepStatus(t *testing.T) {
	assert.True(t, StepStatusReview.IsPatchable())
	assert.True(t, StepStatusClarification.IsPatchable())
	assert.False(t, StepStatusApproved.IsPatchable())
	assert.False(t, StepStatusRejected.IsPatchable())
	assert.True(t, StepCategoryTesting.IsValid())
	assert.False(t, StepCategory("misc").IsValid())
}

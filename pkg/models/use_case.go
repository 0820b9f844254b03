package models

import "time"

// UseCaseStatus represents the lifecycle state of a use case.
type UseCaseStatus string

const (
	UseCaseStatusDraft         UseCaseStatus = "draft"
	UseCaseStatusReview        UseCaseStatus = "review"
	UseCaseStatusClarification UseCaseStatus = "clarification"
	UseCaseStatusApproved      UseCaseStatus = "approved"
	UseCaseStatusPublished     UseCaseStatus = "published"
	UseCaseStatusRejected      UseCaseStatus = "rejected" // absorbing
	UseCaseStatusArchived      UseCaseStatus = "archived" // absorbing
)

var useCaseTransitions = map[UseCaseStatus][]UseCaseStatus{
	UseCaseStatusDraft: {
		UseCaseStatusReview, UseCaseStatusClarification, UseCaseStatusRejected, UseCaseStatusArchived,
	},
	UseCaseStatusReview: {
		UseCaseStatusDraft, UseCaseStatusClarification, UseCaseStatusApproved,
		UseCaseStatusRejected, UseCaseStatusArchived,
	},
	UseCaseStatusClarification: {
		UseCaseStatusReview, UseCaseStatusApproved, UseCaseStatusRejected, UseCaseStatusArchived,
	},
	UseCaseStatusApproved: {
		UseCaseStatusReview, UseCaseStatusPublished, UseCaseStatusRejected, UseCaseStatusArchived,
	},
	UseCaseStatusPublished: {UseCaseStatusArchived},
	UseCaseStatusRejected:  {},
	UseCaseStatusArchived:  {},
}

// IsValid reports whether s is a known use case status.
func (s UseCaseStatus) IsValid() bool {
	_, ok := useCaseTransitions[s]

	return ok
}

// IsApproved reports whether a use case in s may be offered as an addon target.
func (s UseCaseStatus) IsApproved() bool {
	return s == UseCaseStatusApproved || s == UseCaseStatusPublished
}

// CanTransitionTo reports whether a use case may move from s to next.
// Staying in the same status is always allowed.
func (s UseCaseStatus) CanTransitionTo(next UseCaseStatus) bool {
	if s == next {
		return true
	}

	for _, allowed := range useCaseTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// UseCase is an ordered composition of steps forming one workflow narrative.
// StepRefs holds step ids or alternate keys; entries that no longer resolve
// are tolerated and skipped on read.
type UseCase struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"                 validate:"required,max=255"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Tags          []string      `json:"tags"`
	StepRefs      []string      `json:"step_refs"`
	Status        UseCaseStatus `json:"status"`
	CreatedBy     string        `json:"created_by"            validate:"required"`
	ModifiedBy    *string       `json:"modified_by,omitempty"`
	CountModified int           `json:"count_modified"`
	CreatedAt     time.Time     `json:"created_at"`
	LastModified  time.Time     `json:"last_modified"`
}

// ResolvedStep is a display-ready step of a use case.
type ResolvedStep struct {
	StepID      string        `json:"step_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     ContentBlocks `json:"content"`
	OrderIndex  int           `json:"order_index"`
	Category    StepCategory  `json:"category"`
}

// ResolvedUseCase is a use case together with its resolved steps.
// MissingStepIDs lists references that did not resolve to any step.
type ResolvedUseCase struct {
	UseCase        *UseCase       `json:"use_case"`
	Steps          []ResolvedStep `json:"steps"`
	MissingStepIDs []string       `json:"missing_step_ids"`
}

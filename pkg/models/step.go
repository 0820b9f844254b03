// Package models defines the domain models for step, use case and addon composition.
package models

import (
	"slices"
	"time"
)

// StepStatus represents the approval workflow state of a step.
type StepStatus string

const (
	StepStatusReview        StepStatus = "review"        // Default for new and edited steps
	StepStatusApproved      StepStatus = "approved"      // Approved, stamped with approver and date
	StepStatusRejected      StepStatus = "rejected"      // Rejected with a reason, still editable
	StepStatusClarification StepStatus = "clarification" // Waiting on the author
)

// IsValid reports whether s is a known step status.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusReview, StepStatusApproved, StepStatusRejected, StepStatusClarification:
		return true
	default:
		return false
	}
}

// IsPatchable reports whether a plain update may move a step into s.
// Approval and rejection carry their own records and go through dedicated operations.
func (s StepStatus) IsPatchable() bool {
	return s == StepStatusReview || s == StepStatusClarification
}

// StepCategory is the fixed set of step categories.
type StepCategory string

const (
	StepCategorySetup           StepCategory = "setup"
	StepCategoryConfiguration   StepCategory = "configuration"
	StepCategoryDevelopment     StepCategory = "development"
	StepCategoryTesting         StepCategory = "testing"
	StepCategoryDeployment      StepCategory = "deployment"
	StepCategoryOperations      StepCategory = "operations"
	StepCategoryDocumentation   StepCategory = "documentation"
	StepCategoryTroubleshooting StepCategory = "troubleshooting"
)

// StepCategories lists every valid category in display order.
var StepCategories = []StepCategory{
	StepCategorySetup,
	StepCategoryConfiguration,
	StepCategoryDevelopment,
	StepCategoryTesting,
	StepCategoryDeployment,
	StepCategoryOperations,
	StepCategoryDocumentation,
	StepCategoryTroubleshooting,
}

// IsValid reports whether c is one of StepCategories.
func (c StepCategory) IsValid() bool {
	return slices.Contains(StepCategories, c)
}

// Step is a reusable instructional unit with its own approval workflow.
type Step struct {
	ID              string        `json:"id"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"                      validate:"required,max=255"`
	Description     string        `json:"description"                validate:"required"`
	Content         ContentBlocks `json:"content"`
	Tags            []string      `json:"tags"`
	Category        StepCategory  `json:"category"                   validate:"required,oneof=setup configuration development testing deployment operations documentation troubleshooting"`
	Status          StepStatus    `json:"status"`
	CreatedBy       string        `json:"created_by"                 validate:"required"`
	ModifiedBy      *string       `json:"modified_by,omitempty"`
	ApprovedBy      *string       `json:"approved_by,omitempty"`
	ApprovalDate    *time.Time    `json:"approval_date,omitempty"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	CountModified   int           `json:"count_modified"`
	CreatedAt       time.Time     `json:"created_at"`
	LastModified    time.Time     `json:"last_modified"`
}

// StepHistoryAction names the kind of change recorded in a history entry.
type StepHistoryAction string

const (
	StepHistoryCreated  StepHistoryAction = "created"
	StepHistoryUpdated  StepHistoryAction = "updated"
	StepHistoryApproved StepHistoryAction = "approved"
	StepHistoryRejected StepHistoryAction = "rejected"
)

// FieldChange is an old→new pair recorded for fields worth auditing verbatim.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// StepChanges summarizes one mutation of a step for the audit trail.
type StepChanges struct {
	Fields []string               `json:"fields,omitempty"`
	Values map[string]FieldChange `json:"values,omitempty"`
	Note   string                 `json:"note,omitempty"`
}

// StepHistoryEntry is an append-only audit record.
type StepHistoryEntry struct {
	ID        string            `json:"id"`
	StepID    string            `json:"step_id"`
	Action    StepHistoryAction `json:"action"`
	ChangedBy string            `json:"changed_by"`
	Summary   string            `json:"summary"`
	Changes   StepChanges       `json:"changes"`
	CreatedAt time.Time         `json:"created_at"`
}

// StepApproval records who approved a step and for which use cases.
type StepApproval struct {
	ID                   string    `json:"id"`
	StepID               string    `json:"step_id"`
	ApprovedBy           string    `json:"approved_by"`
	AssociatedUseCaseIDs []string  `json:"associated_use_case_ids"`
	CreatedAt            time.Time `json:"created_at"`
}

// StepComment is an entry in a step's discussion trail.
type StepComment struct {
	ID        string    `json:"id"`
	StepID    string    `json:"step_id"`
	Author    string    `json:"author"    validate:"required"`
	Body      string    `json:"body"      validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolution is the outcome of resolving a list of step identifiers.
// Steps keeps input order; Missing lists the identifiers that matched nothing.
type Resolution struct {
	Steps   []*Step
	Missing []string
}

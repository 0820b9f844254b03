package models

import "slices"

// StepPatch is a sparse update of a step. A nil field is left untouched.
type StepPatch struct {
	Title       *string        `json:"title,omitempty"       validate:"omitempty,min=1,max=255"`
	Slug        *string        `json:"slug,omitempty"`
	Description *string        `json:"description,omitempty" validate:"omitempty,min=1"`
	Content     *ContentBlocks `json:"content,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	Category    *StepCategory  `json:"category,omitempty"`
	Status      *StepStatus    `json:"status,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p StepPatch) IsEmpty() bool {
	return p.Title == nil && p.Slug == nil && p.Description == nil && p.Content == nil &&
		p.Tags == nil && p.Category == nil && p.Status == nil
}

// Apply writes the present fields onto step and returns the changes, walking
// a fixed field list. Title and status changes carry their old and new values.
func (p StepPatch) Apply(step *Step) StepChanges {
	changes := StepChanges{Values: map[string]FieldChange{}}

	if p.Title != nil && *p.Title != step.Title {
		changes.Values["title"] = FieldChange{Old: step.Title, New: *p.Title}
		changes.Fields = append(changes.Fields, "title")
		step.Title = *p.Title
	}

	if p.Slug != nil && *p.Slug != step.Slug {
		changes.Fields = append(changes.Fields, "slug")
		step.Slug = *p.Slug
	}

	if p.Description != nil && *p.Description != step.Description {
		changes.Fields = append(changes.Fields, "description")
		step.Description = *p.Description
	}

	if p.Content != nil {
		changes.Fields = append(changes.Fields, "content")
		step.Content = *p.Content
	}

	if p.Tags != nil && !slices.Equal(*p.Tags, step.Tags) {
		changes.Fields = append(changes.Fields, "tags")
		step.Tags = *p.Tags
	}

	if p.Category != nil && *p.Category != step.Category {
		changes.Fields = append(changes.Fields, "category")
		step.Category = *p.Category
	}

	if p.Status != nil && *p.Status != step.Status {
		changes.Values["status"] = FieldChange{Old: string(step.Status), New: string(*p.Status)}
		changes.Fields = append(changes.Fields, "status")
		step.Status = *p.Status
	}

	if len(changes.Values) == 0 {
		changes.Values = nil
	}

	return changes
}

// UseCasePatch is a sparse update of a use case. It is also the payload
// shape accepted from autofill producers.
type UseCasePatch struct {
	Title       *string        `json:"title,omitempty"       validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	StepRefs    *[]string      `json:"step_refs,omitempty"`
	Status      *UseCaseStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p UseCasePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Tags == nil && p.StepRefs == nil && p.Status == nil
}

// Apply writes the present fields onto useCase and returns the names of
// the fields that changed.
func (p UseCasePatch) Apply(useCase *UseCase) []string {
	var changed []string

	if p.Title != nil && *p.Title != useCase.Title {
		changed = append(changed, "title")
		useCase.Title = *p.Title
	}

	if p.Description != nil && *p.Description != useCase.Description {
		changed = append(changed, "description")
		useCase.Description = *p.Description
	}

	if p.Category != nil && *p.Category != useCase.Category {
		changed = append(changed, "category")
		useCase.Category = *p.Category
	}

	if p.Tags != nil && !slices.Equal(*p.Tags, useCase.Tags) {
		changed = append(changed, "tags")
		useCase.Tags = *p.Tags
	}

	if p.StepRefs != nil && !slices.Equal(*p.StepRefs, useCase.StepRefs) {
		changed = append(changed, "step_refs")
		useCase.StepRefs = *p.StepRefs
	}

	if p.Status != nil && *p.Status != useCase.Status {
		changed = append(changed, "status")
		useCase.Status = *p.Status
	}

	return changed
}

// AddonPatch updates addon metadata sparsely. Steps, when non-nil, replaces
// the whole addon step list: existing rows are deleted and the new list is
// inserted fresh, so addon step ids do not survive such an edit.
type AddonPatch struct {
	PathName     *string       `json:"path_name,omitempty"     validate:"omitempty,min=1,max=255"`
	Description  *string       `json:"description,omitempty"`
	DisplayOrder *int          `json:"display_order,omitempty" validate:"omitempty,min=0"`
	Steps        *[]*AddonStep `json:"steps,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p AddonPatch) IsEmpty() bool {
	return p.PathName == nil && p.Description == nil && p.DisplayOrder == nil && p.Steps == nil
}

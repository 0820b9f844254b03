package models

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrAddonStepShape is returned when an addon step is neither a step pointer
	// nor inline custom content, or is both.
	ErrAddonStepShape = errors.New("addon step must reference a step or carry a custom title and description, not both")

	// ErrAddonSourceWithoutStep is returned when provenance is given without a step pointer.
	ErrAddonSourceWithoutStep = errors.New("addon step source use case requires a step id")
)

// AddonStepKind tells how an addon step obtains its content.
type AddonStepKind string

const (
	AddonStepKindExisting AddonStepKind = "existing" // points at a step
	AddonStepKindBorrowed AddonStepKind = "borrowed" // points at a step taken from another use case
	AddonStepKindCustom   AddonStepKind = "custom"   // inline content, no step row
)

// Addon is a named alternate continuation attached to a base use case.
type Addon struct {
	ID             string       `json:"id"`
	BaseUseCaseID  string       `json:"base_use_case_id"  validate:"required,uuid"`
	AddonUseCaseID string       `json:"addon_use_case_id" validate:"required,uuid"`
	PathName       string       `json:"path_name"         validate:"required,max=255"`
	Description    string       `json:"description"`
	DisplayOrder   int          `json:"display_order"     validate:"min=0"`
	AddonUseCase   *UseCase     `json:"addon_use_case,omitempty"`
	Steps          []*AddonStep `json:"steps"             validate:"dive"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// AddonStep is one entry of an addon's ordered step list.
type AddonStep struct {
	ID                 string        `json:"id"`
	AddonID            string        `json:"addon_id"`
	Order              int           `json:"step_order"`
	StepID             *string       `json:"step_id,omitempty"            validate:"omitempty,uuid"`
	SourceUseCaseID    *string       `json:"source_use_case_id,omitempty" validate:"omitempty,uuid"`
	CustomTitle        *string       `json:"custom_title,omitempty"       validate:"omitempty,max=255"`
	CustomDescription  *string       `json:"custom_description,omitempty"`
	CustomContent      ContentBlocks `json:"custom_content,omitempty"`
	Step               *Step         `json:"step,omitempty"`
	StepMissing        bool          `json:"step_missing,omitempty"`
	SourceUseCaseTitle *string       `json:"source_use_case_title,omitempty"`
}

// Kind classifies the addon step by which fields are set.
func (s *AddonStep) Kind() AddonStepKind {
	switch {
	case s.hasPointer() && s.SourceUseCaseID != nil:
		return AddonStepKindBorrowed
	case s.hasPointer():
		return AddonStepKindExisting
	default:
		return AddonStepKindCustom
	}
}

// Validate enforces that exactly one of a step pointer or a custom
// title and description is present.
func (s *AddonStep) Validate() error {
	pointer := s.hasPointer()
	custom := nonBlank(s.CustomTitle) && nonBlank(s.CustomDescription)
	partialCustom := nonBlank(s.CustomTitle) || nonBlank(s.CustomDescription) || len(s.CustomContent) > 0

	if pointer == custom || (pointer && partialCustom) {
		return ErrAddonStepShape
	}

	if !pointer && s.SourceUseCaseID != nil {
		return ErrAddonSourceWithoutStep
	}

	return nil
}

// Title is the title shown for the addon step: the backing step's title
// when it still exists, otherwise the custom title.
func (s *AddonStep) Title() string {
	if s.Step != nil {
		return s.Step.Title
	}

	if s.CustomTitle != nil {
		return *s.CustomTitle
	}

	return ""
}

func (s *AddonStep) hasPointer() bool {
	return nonBlank(s.StepID)
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

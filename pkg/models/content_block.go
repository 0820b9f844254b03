package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// BlockType discriminates the variants of a ContentBlock.
type BlockType string

const (
	BlockTypeText      BlockType = "text"
	BlockTypeHeading   BlockType = "heading"
	BlockTypeList      BlockType = "list"
	BlockTypeCode      BlockType = "code"
	BlockTypeLink      BlockType = "link"
	BlockTypeCallout   BlockType = "callout"
	BlockTypeImage     BlockType = "image"
	BlockTypeChecklist BlockType = "checklist"
)

// ErrInvalidContent is returned when a content block list does not match the block schema.
var ErrInvalidContent = errors.New("invalid content blocks")

// ContentBlock is one typed fragment of a step body. Only the fields that
// belong to Type are populated; the rest are omitted from JSON.
type ContentBlock struct {
	ID   string    `json:"id"`
	Type BlockType `json:"type"`

	// text, heading, callout
	Text string `json:"text,omitempty"`

	// heading
	Level int `json:"level,omitempty"`

	// list
	Items   []string `json:"items,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`

	// code
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`

	// link
	URL   string `json:"url,omitempty"`
	Label string `json:"label,omitempty"`

	// callout
	Variant string `json:"variant,omitempty"`

	// image
	Src     string `json:"src,omitempty"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`

	// checklist
	Checklist []ChecklistItem `json:"checklist,omitempty"`
}

// ChecklistItem is a single entry of a checklist block.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ContentBlocks is the ordered body of a step or an inline addon step.
type ContentBlocks []ContentBlock

// EnsureIDs assigns a fresh identifier to every block that has none.
func (c ContentBlocks) EnsureIDs() {
	for i := range c {
		if strings.TrimSpace(c[i].ID) == "" {
			c[i].ID = uuid.NewString()
		}
	}
}

// MarshalJSON never emits null so the stored column is always an array.
func (c ContentBlocks) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]ContentBlock(c))
}

// Validate checks every block against the content block JSON schema.
func (c ContentBlocks) Validate() error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal content blocks: %w", err)
	}

	result, err := contentSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("failed to validate content blocks: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var details bytes.Buffer

	for i, desc := range result.Errors() {
		if i > 0 {
			details.WriteString("; ")
		}

		details.WriteString(desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidContent, details.String())
}

var contentSchema = mustCompileContentSchema()

func mustCompileContentSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(contentSchemaJSON))
	if err != nil {
		panic(fmt.Errorf("content block schema does not compile: %w", err))
	}

	return schema
}

const contentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "type"],
    "properties": {
      "id": {"type": "string", "minLength": 1}
    },
    "oneOf": [
      {
        "properties": {"type": {"const": "text"}, "text": {"type": "string", "minLength": 1}},
        "required": ["text"]
      },
      {
        "properties": {
          "type": {"const": "heading"},
          "text": {"type": "string", "minLength": 1},
          "level": {"type": "integer", "minimum": 1, "maximum": 6}
        },
        "required": ["text"]
      },
      {
        "properties": {
          "type": {"const": "list"},
          "items": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "ordered": {"type": "boolean"}
        },
        "required": ["items"]
      },
      {
        "properties": {
          "type": {"const": "code"},
          "code": {"type": "string", "minLength": 1},
          "language": {"type": "string"}
        },
        "required": ["code"]
      },
      {
        "properties": {
          "type": {"const": "link"},
          "url": {"type": "string", "minLength": 1},
          "label": {"type": "string"}
        },
        "required": ["url"]
      },
      {
        "properties": {
          "type": {"const": "callout"},
          "text": {"type": "string", "minLength": 1},
          "variant": {"enum": ["info", "tip", "warning", "danger"]}
        },
        "required": ["text"]
      },
      {
        "properties": {
          "type": {"const": "image"},
          "src": {"type": "string", "minLength": 1},
          "alt": {"type": "string"},
          "caption": {"type": "string"}
        },
        "required": ["src"]
      },
      {
        "properties": {
          "type": {"const": "checklist"},
          "checklist": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["text"],
              "properties": {"text": {"type": "string", "minLength": 1}, "checked": {"type": "boolean"}}
            }
          }
        },
        "required": ["checklist"]
      }
    ]
  }
}`

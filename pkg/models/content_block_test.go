package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBlocks_Validate(t *testing.T) {
	tests := []struct {
		name    string
		blocks  ContentBlocks
		wantErr bool
	}{
		{name: "empty list", blocks: ContentBlocks{}},
		{name: "nil list", blocks: nil},
		{
			name: "one of every type",
			blocks: ContentBlocks{
				{ID: "1", Type: BlockTypeText, Text: "Clone the repository."},
				{ID: "2", Type: BlockTypeHeading, Text: "Prerequisites", Level: 2},
				{ID: "3", Type: BlockTypeList, Items: []string{"git", "go"}, Ordered: true},
				{ID: "4", Type: BlockTypeCode, Code: "git clone repo", Language: "bash"},
				{ID: "5", Type: BlockTypeLink, URL: "https://example.com", Label: "Docs"},
				{ID: "6", Type: BlockTypeCallout, Text: "Careful", Variant: "warning"},
				{ID: "7", Type: BlockTypeImage, Src: "/img/setup.png", Alt: "setup"},
				{ID: "8", Type: BlockTypeChecklist, Checklist: []ChecklistItem{{Text: "Installed"}}},
			},
		},
		{name: "unknown type", blocks: ContentBlocks{{ID: "1", Type: "video", Src: "x"}}, wantErr: true},
		{name: "missing id", blocks: ContentBlocks{{Type: BlockTypeText, Text: "x"}}, wantErr: true},
		{name: "text without text", blocks: ContentBlocks{{ID: "1", Type: BlockTypeText}}, wantErr: true},
		{name: "heading level out of range", blocks: ContentBlocks{{ID: "1", Type: BlockTypeHeading, Text: "x", Level: 9}}, wantErr: true},
		{name: "list without items", blocks: ContentBlocks{{ID: "1", Type: BlockTypeList}}, wantErr: true},
		{name: "code without code", blocks: ContentBlocks{{ID: "1", Type: BlockTypeCode, Language: "go"}}, wantErr: true},
		{name: "link without url", blocks: ContentBlocks{{ID: "1", Type: BlockTypeLink, Label: "x"}}, wantErr: true},
		{name: "callout with bad variant", blocks: ContentBlocks{{ID: "1", Type: BlockTypeCallout, Text: "x", Variant: "shout"}}, wantErr: true},
		{name: "image without src", blocks: ContentBlocks{{ID: "1", Type: BlockTypeImage, Alt: "x"}}, wantErr: true},
		{name: "checklist item without text", blocks: ContentBlocks{{ID: "1", Type: BlockTypeChecklist, Checklist: []ChecklistItem{{Checked: true}}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.blocks.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidContent)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestContentBlocks_EnsureIDs(t *testing.T) {
	blocks := ContentBlocks{
		{Type: BlockTypeText, Text: "a"},
		{ID: "keep", Type: BlockTypeText, Text: "b"},
	}

	blocks.EnsureIDs()

	assert.True(t, IsUUID(blocks[0].ID))
	assert.Equal(t, "keep", blocks[1].ID)
	assert.NoError(t, blocks.Validate())
}

func TestContentBlocks_MarshalNilAsArray(t *testing.T) {
	data, err := json.Marshal(ContentBlocks(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	data, err = json.Marshal(ContentBlocks{{ID: "1", Type: BlockTypeText, Text: "hi"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","type":"text","text":"hi"}]`, string(data))
}

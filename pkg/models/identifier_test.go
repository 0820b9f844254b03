package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind IdentifierKind
		wantRaw  string
	}{
		{"canonical uuid", "0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d", IdentifierKindUUID, "0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d"},
		{"upper case uuid is lowered", "0190F5C2-7D4E-7A1B-9C3D-2E4F5A6B7C8D", IdentifierKindUUID, "0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d"},
		{"surrounding spaces", "  0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d ", IdentifierKindUUID, "0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d"},
		{"slug", "setup-git-repository", IdentifierKindKey, "setup-git-repository"},
		{"braced uuid stays a key", "{0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d}", IdentifierKindKey, "{0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d}"},
		{"urn uuid stays a key", "urn:uuid:0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d", IdentifierKindKey, "urn:uuid:0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d"},
		{"36 chars but not a uuid", "this-is-not-a-uuid-but-is-36-chars!!", IdentifierKindKey, "this-is-not-a-uuid-but-is-36-chars!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ParseIdentifier(tt.raw)
			assert.Equal(t, tt.wantKind, id.Kind)
			assert.Equal(t, tt.wantRaw, id.Raw)
		})
	}
}

func TestParseIdentifiers_SkipsBlanksAndKeepsOrder(t *testing.T) {
	ids := ParseIdentifiers([]string{"b-key", "", "0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d", "  ", "a-key"})

	assert.Equal(t, []Identifier{
		{Raw: "b-key", Kind: IdentifierKindKey},
		{Raw: "0190f5c2-7d4e-7a1b-9c3d-2e4f5a6b7c8d", Kind: IdentifierKindUUID},
		{Raw: "a-key", Kind: IdentifierKindKey},
	}, ids)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "setup-git-repository", Slugify("Setup Git Repository"))
	assert.Equal(t, "install-node-js-20", Slugify("  Install Node.js 20!  "))
	assert.Equal(t, "a-b", Slugify("a -- b"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestTitleFromKey(t *testing.T) {
	assert.Equal(t, "setup git repository", TitleFromKey("setup-git-repository"))
	assert.Equal(t, "configure ci cache", TitleFromKey("configure_ci--cache"))
}

package models

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// IdentifierKind tells whether a step reference is a canonical id or an alternate key.
type IdentifierKind int

const (
	IdentifierKindUUID IdentifierKind = iota
	IdentifierKindKey
)

func (k IdentifierKind) String() string {
	if k == IdentifierKindUUID {
		return "uuid"
	}

	return "key"
}

// Identifier is a step reference whose kind was decided once, at parse time.
type Identifier struct {
	Raw  string
	Kind IdentifierKind
}

// ParseIdentifier classifies raw structurally; it never touches storage.
// Only the canonical 36-character hyphenated form counts as a UUID so that
// keys such as "{...}" or "urn:uuid:..." stay alternate keys.
func ParseIdentifier(raw string) Identifier {
	trimmed := strings.TrimSpace(raw)

	if len(trimmed) == 36 {
		if _, err := uuid.Parse(trimmed); err == nil {
			return Identifier{Raw: strings.ToLower(trimmed), Kind: IdentifierKindUUID}
		}
	}

	return Identifier{Raw: trimmed, Kind: IdentifierKindKey}
}

// ParseIdentifiers parses refs in order, skipping blank entries.
func ParseIdentifiers(refs []string) []Identifier {
	identifiers := make([]Identifier, 0, len(refs))

	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}

		identifiers = append(identifiers, ParseIdentifier(ref))
	}

	return identifiers
}

// IsUUID reports whether s is a canonical UUID.
func IsUUID(s string) bool {
	return ParseIdentifier(s).Kind == IdentifierKindUUID
}

// Slugify derives an alternate key from a title: lower case, runs of
// non-alphanumerics collapsed to a single dash.
func Slugify(title string) string {
	var b strings.Builder

	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)

			dash = false

			continue
		}

		if !dash && b.Len() > 0 {
			b.WriteByte('-')

			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// TitleFromKey turns an alternate key back into the words of a title.
func TitleFromKey(key string) string {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(key))

	return strings.Join(strings.Fields(replaced), " ")
}

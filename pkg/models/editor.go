package models

import "strings"

var (
	automatedEditorNames    = []string{"ai", "bot", "system", "assistant", "automation"}
	automatedEditorPrefixes = []string{"ai-", "ai_", "bot-", "bot_"}
	automatedEditorSuffixes = []string{"-bot", "_bot", "[bot]"}
)

// IsAutomatedEditor reports whether editor identifies an AI agent or other
// automation rather than a person. Edits by automated editors do not count
// towards an entity's modification counter.
func IsAutomatedEditor(editor string) bool {
	normalized := strings.ToLower(strings.TrimSpace(editor))
	if normalized == "" {
		return false
	}

	for _, name := range automatedEditorNames {
		if normalized == name {
			return true
		}
	}

	for _, prefix := range automatedEditorPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}

	for _, suffix := range automatedEditorSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return true
		}
	}

	return false
}

// CountsAsEdit is the modification counter increment for an edit by editor.
func CountsAsEdit(editor string) int {
	if IsAutomatedEditor(editor) {
		return 0
	}

	return 1
}

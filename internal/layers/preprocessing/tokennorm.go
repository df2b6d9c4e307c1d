package preprocessing

import (
	"strings"

	"github.com/valpere/lexbridge/internal/translation"
)

// normalizeToken fills Token.Normalized per spec §4.7: words are lowercased;
// numbers get a language-aware decimal-separator fix (English strips comma
// thousands-separators, other languages swap comma for dot as the decimal
// point).
func normalizeToken(t *translation.TextToken, sourceLanguage string) {
	switch t.Type {
	case translation.TokenWord, translation.TokenHashtag, translation.TokenMention:
		t.Normalized = strings.ToLower(t.Original)
	case translation.TokenNumber:
		t.Normalized = normalizeNumber(t.Original, sourceLanguage)
	default:
		t.Normalized = t.Original
	}
}

func normalizeNumber(raw, sourceLanguage string) string {
	if sourceLanguage == "" || sourceLanguage == "en" || sourceLanguage == "auto" {
		return strings.ReplaceAll(raw, ",", "")
	}
	return strings.ReplaceAll(raw, ",", ".")
}

// Package preprocessing implements the pipeline's first stage (spec §4.7):
// markup stripping, Unicode normalization, tokenization, and optional
// source-language detection.
package preprocessing

import (
	"html"
	"strings"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/markdown"
	"github.com/valpere/lexbridge/internal/translation"
)

// Layer implements layer.Layer for the preprocessing stage.
type Layer struct{}

// New builds the preprocessing Layer.
func New() *Layer { return &Layer{} }

func (l *Layer) Name() string        { return "preprocessing" }
func (l *Layer) Description() string { return "markup cleanup, Unicode normalization, tokenization" }
func (l *Layer) Priority() int       { return layer.PriorityPreprocessing }

func (l *Layer) CanHandle(ctx *translation.Context) bool {
	return strings.TrimSpace(ctx.TranslatedText) != ""
}

func (l *Layer) ValidateInput(ctx *translation.Context) error {
	if strings.TrimSpace(ctx.TranslatedText) == "" {
		return errEmptyText
	}
	return nil
}

func (l *Layer) Process(ctx *translation.Context) translation.LayerResult {
	original := ctx.TranslatedText

	cleaned := html.UnescapeString(original)
	cleaned = markdown.ToPlainText([]byte(cleaned))
	cleaned = html.UnescapeString(cleaned)
	cleaned = normalizeUnicode(cleaned)
	cleaned = collapseWhitespace(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	tokens := Tokenize(cleaned)
	for i := range tokens {
		normalizeToken(&tokens[i], ctx.SourceLanguage)
	}

	ctx.PreprocessingTokens = tokens
	ctx.TokenCount = len(tokens)

	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == translation.TokenWord {
			words = append(words, t.Normalized)
		}
	}
	ctx.Tokens = words

	if ctx.SourceLanguage == "" || ctx.SourceLanguage == "auto" {
		detected := DetectLanguage(cleaned)
		ctx.DetectedLanguage = detected
		if detected != "" {
			ctx.SourceLanguage = detected
		}
	}

	result := translation.NoChange(l.Name(), cleaned)
	result.ProcessedText = cleaned
	result.Confidence = confidence(tokens, cleaned)
	result.DebugInfo.ItemsProcessed = len(tokens)
	if cleaned != original {
		result.DebugInfo.ModificationsCount = 1
	}
	if ctx.DetectedLanguage != "" {
		result.DebugInfo.AdditionalInfo = map[string]string{"detected_language": ctx.DetectedLanguage}
	}
	return result
}

// confidence is 1.0 minus penalties for a high special/unknown token ratio
// and for very short input (spec §4.7).
func confidence(tokens []translation.TextToken, text string) float64 {
	score := 1.0
	if len(tokens) > 0 {
		var special int
		for _, t := range tokens {
			if t.Type == translation.TokenSpecial || t.Type == translation.TokenUnknown {
				special++
			}
		}
		ratio := float64(special) / float64(len(tokens))
		score -= ratio * 0.5
	}
	if len([]rune(text)) < 3 {
		score -= 0.3
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

var errEmptyText = &validationError{"translated text must not be empty"}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

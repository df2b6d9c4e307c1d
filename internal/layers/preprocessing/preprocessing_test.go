package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexbridge/internal/translation"
)

func TestTokenizeClassifiesRuns(t *testing.T) {
	tokens := Tokenize("Hello, world! Visit https://example.com or mail me@example.com #go @user 42")

	var types []translation.TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Contains(t, types, translation.TokenWord)
	assert.Contains(t, types, translation.TokenPunctuation)
	assert.Contains(t, types, translation.TokenURL)
	assert.Contains(t, types, translation.TokenEmail)
	assert.Contains(t, types, translation.TokenHashtag)
	assert.Contains(t, types, translation.TokenMention)
	assert.Contains(t, types, translation.TokenNumber)
}

func TestTokensNonOverlapping(t *testing.T) {
	tokens := Tokenize("The quick brown fox jumps over 12,345 lazy dogs.")
	for i := 1; i < len(tokens); i++ {
		assert.LessOrEqual(t, tokens[i-1].EndPosition, tokens[i].StartPosition)
	}
}

func TestNormalizeUnicodeFoldsPunctuation(t *testing.T) {
	out := normalizeUnicode("“Hello” — it's a test…")
	assert.Equal(t, `"Hello" - it's a test...`, out)
}

func TestDetectLanguageScripts(t *testing.T) {
	assert.Equal(t, "ru", DetectLanguage("Привет, как дела?"))
	assert.Equal(t, "zh", DetectLanguage("你好，世界"))
	assert.Equal(t, "en", DetectLanguage("Hello there, friend"))
	assert.Equal(t, "de", DetectLanguage("Das ist ein Test und es ist gut"))
}

func TestLayerProcessPopulatesContext(t *testing.T) {
	l := New()
	ctx := translation.Context{SourceLanguage: "en", TargetLanguage: "ru", TranslatedText: "  Hello   world!  "}

	require.True(t, l.CanHandle(&ctx))
	require.NoError(t, l.ValidateInput(&ctx))
	result := l.Process(&ctx)

	assert.True(t, result.Success)
	assert.Equal(t, "Hello world!", result.ProcessedText)
	assert.NotEmpty(t, ctx.PreprocessingTokens)
	assert.Equal(t, len(ctx.PreprocessingTokens), ctx.TokenCount)
	assert.Contains(t, ctx.Tokens, "hello")
}

func TestLayerDetectsSourceLanguageWhenAuto(t *testing.T) {
	l := New()
	ctx := translation.Context{SourceLanguage: "auto", TargetLanguage: "en", TranslatedText: "Привет мир"}
	l.Process(&ctx)
	assert.Equal(t, "ru", ctx.DetectedLanguage)
	assert.Equal(t, "ru", ctx.SourceLanguage)
}

func TestCanHandleRejectsEmptyText(t *testing.T) {
	l := New()
	ctx := translation.Context{TranslatedText: "   "}
	assert.False(t, l.CanHandle(&ctx))
	assert.Error(t, l.ValidateInput(&ctx))
}

package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/storage"
	"github.com/valpere/lexbridge/internal/translation"
)

func newTestLayer(t *testing.T) (*Layer, *repository.DictionaryRepository) {
	t.Helper()
	store := storage.New(t.TempDir())
	repo := repository.NewDictionaryRepository(store)
	return New(repo), repo
}

func TestExactLookupSubstitutesPreservingSpacing(t *testing.T) {
	l, repo := newTestLayer(t)
	require.NoError(t, repo.Upsert(repository.DictionaryEntry{
		SourceWord: "hello", TargetWord: "привет", LanguagePair: "en-ru", Frequency: 2000,
	}))

	ctx := translation.New("hello, world", "en", "ru")
	result := l.Process(ctx)

	assert.True(t, result.Success)
	assert.Equal(t, "привет, world", result.ProcessedText)
}

func TestForceTranslationOverridesDictionary(t *testing.T) {
	l, repo := newTestLayer(t)
	require.NoError(t, repo.Upsert(repository.DictionaryEntry{
		SourceWord: "hello", TargetWord: "привет", LanguagePair: "en-ru", Frequency: 10,
	}))

	ctx := translation.New("hello world", "en", "ru")
	ctx.ForceTranslations["hello"] = "здравствуйте"
	result := l.Process(ctx)

	assert.Contains(t, result.ProcessedText, "здравствуйте")
	assert.NotContains(t, result.ProcessedText, "привет")
}

func TestExcludedWordLeftUnchanged(t *testing.T) {
	l, repo := newTestLayer(t)
	require.NoError(t, repo.Upsert(repository.DictionaryEntry{
		SourceWord: "hello", TargetWord: "привет", LanguagePair: "en-ru", Frequency: 10,
	}))

	ctx := translation.New("hello world", "en", "ru")
	ctx.ExcludedWords["hello"] = struct{}{}
	result := l.Process(ctx)

	assert.Contains(t, result.ProcessedText, "hello")
}

func TestProtectedRangeIsNeverRewritten(t *testing.T) {
	l, repo := newTestLayer(t)
	require.NoError(t, repo.Upsert(repository.DictionaryEntry{
		SourceWord: "world", TargetWord: "мир", LanguagePair: "en-ru", Frequency: 10,
	}))

	ctx := translation.New("hello world", "en", "ru")
	require.NoError(t, ctx.AddProtectedRange(translation.ProtectedRange{Start: 6, End: 11}))
	result := l.Process(ctx)

	assert.Contains(t, result.ProcessedText, "world")
	assert.NotContains(t, result.ProcessedText, "мир")
}

func TestMissingWordLeavesOriginal(t *testing.T) {
	l, _ := newTestLayer(t)
	ctx := translation.New("unknownword here", "en", "ru")
	result := l.Process(ctx)
	assert.Contains(t, result.ProcessedText, "unknownword")
}

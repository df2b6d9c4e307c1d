package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/repository"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Initialize(t.TempDir(), Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })
	return e
}

func seedDictionary(t *testing.T, e *Engine, pair string, entries ...repository.DictionaryEntry) {
	t.Helper()
	for _, entry := range entries {
		entry.LanguagePair = pair
		require.NoError(t, e.dictionaryRepo.Upsert(entry))
	}
}

func seedPhrase(t *testing.T, e *Engine, pair string, entry repository.PhraseEntry) {
	t.Helper()
	entry.LanguagePair = pair
	require.NoError(t, e.phraseRepo.Upsert(entry))
}

// Scenario 1 (spec §8): exact phrase replacement wins over the dictionary
// layer and emits a single protected range covering the whole output.
func TestExactPhraseReplacement(t *testing.T) {
	e := newTestEngine(t)
	seedDictionary(t, e, "en-ru",
		repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 500},
		repository.DictionaryEntry{SourceWord: "world", TargetWord: "мир", Frequency: 475},
	)
	seedPhrase(t, e, "en-ru", repository.PhraseEntry{SourcePhrase: "good morning", TargetPhrase: "доброе утро", Confidence: 95})

	result, err := e.Translate(context.Background(), "Good morning", "en", "ru", nil)
	require.NoError(t, err)
	assert.Equal(t, "доброе утро", result.TranslatedText)

	foundPhrase, foundDictNoChange := false, false
	for _, lr := range result.LayerResults {
		if lr.LayerName == "phrase" {
			foundPhrase = true
			assert.Equal(t, 1, lr.ModificationsCount)
		}
		if lr.LayerName == "dictionary" {
			foundDictNoChange = !lr.WasModified
		}
	}
	assert.True(t, foundPhrase, "expected a phrase layer entry")
	assert.True(t, foundDictNoChange, "expected dictionary layer to report no-change")
}

// Scenario 2 (spec §8): with no phrase data, plain dictionary substitution.
func TestDictionaryOnlyPath(t *testing.T) {
	e := newTestEngine(t)
	seedDictionary(t, e, "en-ru",
		repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100},
		repository.DictionaryEntry{SourceWord: "world", TargetWord: "мир", Frequency: 100},
	)

	result, err := e.Translate(context.Background(), "hello world", "en", "ru", nil)
	require.NoError(t, err)
	assert.Equal(t, "привет мир", result.TranslatedText)

	for _, lr := range result.LayerResults {
		if lr.LayerName == "dictionary" {
			assert.Greater(t, lr.ModificationsCount, 0)
		}
		if lr.LayerName == "phrase" {
			assert.False(t, lr.WasModified)
		}
	}
}

// Scenario 3 (spec §8): a caller-supplied forced translation overrides the
// dictionary lookup for that word.
func TestForcedTranslationOverridesLookup(t *testing.T) {
	e := newTestEngine(t)
	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "cat", TargetWord: "кошка", Frequency: 100})

	result, err := e.Translate(context.Background(), "the cat", "en", "ru", &TranslateOptions{
		ForceTranslations: map[string]string{"cat": "КОТ"},
	})
	require.NoError(t, err)
	assert.Contains(t, result.TranslatedText, "КОТ")
	assert.NotContains(t, result.TranslatedText, "кошка")
}

// Scenario 4 (spec §8): a phrase match protects its span from the
// dictionary layer, while a word outside the match is still looked up (or
// left untouched if absent, as here).
func TestProtectedRangeIntegrity(t *testing.T) {
	e := newTestEngine(t)
	seedPhrase(t, e, "en-ru", repository.PhraseEntry{SourcePhrase: "good morning", TargetPhrase: "доброе утро", Confidence: 90})
	seedDictionary(t, e, "en-ru",
		repository.DictionaryEntry{SourceWord: "morning", TargetWord: "утро", Frequency: 50},
		repository.DictionaryEntry{SourceWord: "good", TargetWord: "хорошо", Frequency: 50},
	)

	result, err := e.Translate(context.Background(), "Good morning everyone", "en", "ru", nil)
	require.NoError(t, err)
	assert.Contains(t, result.TranslatedText, "доброе утро")
	assert.Contains(t, result.TranslatedText, "everyone")
	assert.NotContains(t, result.TranslatedText, "утро утро")
}

// Scenario 5 (spec §8): repeated whitespace never survives into the final
// text, whether preprocessing collapses it outright or grammar's fallback
// rule catches what slips through.
func TestWhitespaceCollapsedInFinalOutput(t *testing.T) {
	e := newTestEngine(t)
	seedDictionary(t, e, "en-ru",
		repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100},
		repository.DictionaryEntry{SourceWord: "world", TargetWord: "мир", Frequency: 100},
	)

	result, err := e.Translate(context.Background(), "hello   world", "en", "ru", nil)
	require.NoError(t, err)
	assert.NotContains(t, result.TranslatedText, "  ")
}

// Scenario 6 (spec §8): post-processing substitutes language-appropriate
// quote marks.
func TestPostProcessingQuoteSubstitution(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.Translate(context.Background(), `"test"`, "en", "ru", nil)
	require.NoError(t, err)
	assert.Contains(t, result.TranslatedText, "«test»")
}

func TestTranslateRejectsEmptyText(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Translate(context.Background(), "   ", "en", "ru", nil)
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindValidation, engErr.Kind)
}

func TestInitializeRejectsEmptyDataDir(t *testing.T) {
	_, err := Initialize("", Config{})
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindValidation, engErr.Kind)
}

func TestTranslateAfterDisposeFails(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{})
	require.NoError(t, err)
	require.NoError(t, e.Dispose())

	_, err = e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.Error(t, err)
}

func TestQueueOverflowFailsFastWithoutTouchingRepositories(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{MaxPending: 1, RequestTimeoutMs: 2000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })

	// Occupy the single admission slot directly rather than racing a real
	// in-flight Translate call.
	e.admission <- struct{}{}
	defer func() { <-e.admission }()

	_, err = e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindQueueOverflow, engErr.Kind)
}

func TestRequestTimeoutMarksErrorAndPreservesOriginalText(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{RequestTimeoutMs: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })

	result, err := e.Translate(context.Background(), "hello world, this needs translating", "en", "ru", nil)
	if err == nil {
		// The pipeline is fast enough on this machine to beat a 1ms budget;
		// nothing to assert about timeout behavior in that case.
		return
	}
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindTimeout, engErr.Kind)
	assert.True(t, result.HasError)
	assert.Equal(t, "hello world, this needs translating", result.TranslatedText)
}

func TestMetricsTrackRequestsAndCache(t *testing.T) {
	e := newTestEngine(t)
	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100})

	_, err := e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.NoError(t, err)
	_, err = e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.NoError(t, err)

	m := e.GetMetrics()
	assert.Equal(t, int64(2), m.RequestsTotal)
	assert.Greater(t, m.WordsCache.Hits+m.WordsCache.Misses, int64(0))
}

func TestClearCacheAndReset(t *testing.T) {
	e := newTestEngine(t)
	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100})

	_, err := e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.NoError(t, err)

	e.ClearCache(cache.KindWords)
	info := e.GetCacheInfo()
	assert.Equal(t, 0, info[cache.KindWords].TotalCount)

	e.Reset()
	m := e.GetMetrics()
	assert.Equal(t, int64(0), m.RequestsTotal)
}

func TestConcurrentTranslateCallsAreSafe(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{MaxPending: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })
	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Translate(context.Background(), "hello", "en", "ru", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), e.GetMetrics().RequestsTotal)
}

func TestDefaultConfigAppliedWhenZeroValue(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{})
	require.NoError(t, err)
	defer e.Dispose()

	assert.Equal(t, 64, e.cfg.MaxPending)
	assert.Equal(t, 5000, e.cfg.RequestTimeoutMs)
	assert.True(t, e.cfg.Layers.Dictionary)
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(newError(KindValidation, "bad", nil)))
	assert.Equal(t, ExitDataFormat, ExitCode(newError(KindDataFormat, "bad line", nil)))
}

func TestMemoryCacheDisabledByDefaultNeverConsulted(t *testing.T) {
	e := newTestEngine(t)
	assert.Nil(t, e.memStore)

	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100})
	result, err := e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.NoError(t, err)
	assert.False(t, isCacheHit(result))
}

func TestMemoryCacheExactHitShortCircuitsPipeline(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{MemoryCache: MemoryCacheConfig{Enabled: true}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })
	require.NotNil(t, e.memStore)

	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100})

	first, err := e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.NoError(t, err)
	assert.False(t, isCacheHit(first))

	second, err := e.Translate(context.Background(), "hello", "en", "ru", nil)
	require.NoError(t, err)
	assert.Equal(t, first.TranslatedText, second.TranslatedText)
	assert.True(t, isCacheHit(second))
	assert.Equal(t, 1.0, second.Confidence)
}

func TestMemoryCacheFuzzyHitAboveThreshold(t *testing.T) {
	e, err := Initialize(t.TempDir(), Config{
		MemoryCache: MemoryCacheConfig{Enabled: true, FuzzyThreshold: 0.8},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })

	seedDictionary(t, e, "en-ru",
		repository.DictionaryEntry{SourceWord: "hello", TargetWord: "привет", Frequency: 100},
		repository.DictionaryEntry{SourceWord: "there", TargetWord: "там", Frequency: 100},
	)

	first, err := e.Translate(context.Background(), "hello there", "en", "ru", nil)
	require.NoError(t, err)
	require.False(t, first.HasError)

	second, err := e.Translate(context.Background(), "hello there!", "en", "ru", nil)
	require.NoError(t, err)
	assert.True(t, isCacheHit(second))
	assert.Equal(t, first.TranslatedText, second.TranslatedText)
}

func TestDetectLanguageIdentifiesObviousText(t *testing.T) {
	e := newTestEngine(t)
	lang, ok := e.DetectLanguage("The quick brown fox jumps over the lazy dog near the riverbank.")
	require.True(t, ok)
	assert.Equal(t, "en", lang)
}

func TestDetectLanguageEmptyTextNotOk(t *testing.T) {
	e := newTestEngine(t)
	_, ok := e.DetectLanguage("")
	assert.False(t, ok)
}

func TestGlossarySeedsForceTranslationsWhenCallerOmitsThem(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.glossaryRepo.Upsert(repository.GlossaryEntry{
		LanguagePair: "en-ru", SourceTerm: "cat", TargetTerm: "КОТ",
	}))
	seedDictionary(t, e, "en-ru", repository.DictionaryEntry{SourceWord: "cat", TargetWord: "кошка", Frequency: 100})

	result, err := e.Translate(context.Background(), "cat", "en", "ru", nil)
	require.NoError(t, err)
	assert.Equal(t, "КОТ", result.TranslatedText)
}

package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexbridge/internal/storage"
)

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	return storage.New(t.TempDir())
}

func TestDictionaryUpsertAndGetExact(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))

	require.NoError(t, repo.Upsert(DictionaryEntry{
		SourceWord: "Hello", TargetWord: "привет", LanguagePair: "en-ru", Frequency: 5,
	}))

	entry, ok, err := repo.GetExact("en-ru", "hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "привет", entry.TargetWord)

	// Served from cache on the second call; still reflects a subsequent
	// upsert because Upsert invalidates the slot it wrote.
	require.NoError(t, repo.Upsert(DictionaryEntry{
		SourceWord: "hello", TargetWord: "здравствуйте", LanguagePair: "en-ru", Frequency: 9,
	}))
	entry, ok, err = repo.GetExact("en-ru", "hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "здравствуйте", entry.TargetWord)
}

func TestDictionaryGetExactMissing(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))
	_, ok, err := repo.GetExact("en-ru", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDictionaryUpsertRejectsEmptyWord(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))
	err := repo.Upsert(DictionaryEntry{SourceWord: "", TargetWord: "x", LanguagePair: "en-ru"})
	assert.Error(t, err)
}

func TestDictionarySearchMatchesSubstringOrderedByFrequencyThenWord(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(DictionaryEntry{SourceWord: "cat", TargetWord: "кіт", LanguagePair: "en-ua", Frequency: 3}))
	require.NoError(t, repo.Upsert(DictionaryEntry{SourceWord: "scatter", TargetWord: "розкидати", LanguagePair: "en-ua", Frequency: 3}))
	require.NoError(t, repo.Upsert(DictionaryEntry{SourceWord: "catalog", TargetWord: "каталог", LanguagePair: "en-ua", Frequency: 9}))

	results, err := repo.Search("en-ua", "cat", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "catalog", results[0].SourceWord)
	// Tie on frequency broken by source_word ascending.
	assert.Equal(t, "cat", results[1].SourceWord)
	assert.Equal(t, "scatter", results[2].SourceWord)
}

func TestDictionaryAddAccumulatesFrequencyWithoutReplacingFields(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))
	_, err := repo.Add("en-ua", "dog", "пес", "noun", "a domesticated carnivore", 2)
	require.NoError(t, err)

	entry, err := repo.Add("en-ua", "dog", "ignored-target", "", "", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Frequency)
	assert.Equal(t, "пес", entry.TargetWord)
	assert.Equal(t, "noun", entry.PartOfSpeech)
}

func TestDictionaryAddBulkIsAtomicAndAccumulates(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))
	err := repo.AddBulk([]DictionaryEntry{
		{SourceWord: "one", TargetWord: "один", LanguagePair: "en-ua", Frequency: 1},
		{SourceWord: "one", TargetWord: "один", LanguagePair: "en-ua", Frequency: 2},
		{SourceWord: "two", TargetWord: "два", LanguagePair: "en-ua", Frequency: 1},
	})
	require.NoError(t, err)

	all, err := repo.GetAll("en-ua")
	require.NoError(t, err)
	require.Len(t, all, 2)

	one, ok, err := repo.GetExact("en-ua", "one")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, one.Frequency)
}

func TestDictionaryGetTopAndStats(t *testing.T) {
	repo := NewDictionaryRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(DictionaryEntry{SourceWord: "a", TargetWord: "a-ua", LanguagePair: "en-ua", Frequency: 1}))
	require.NoError(t, repo.Upsert(DictionaryEntry{SourceWord: "b", TargetWord: "b-ua", LanguagePair: "en-ua", Frequency: 5}))

	top, err := repo.GetTop("en-ua", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].SourceWord)

	stats, err := repo.Stats("en-ua")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 6, stats.TotalFrequency)
	assert.InDelta(t, 3.0, stats.AverageFrequency, 0.001)
}

func TestPhraseUpsertRejectsSingleWord(t *testing.T) {
	repo := NewPhraseRepository(newTestStore(t))
	err := repo.Upsert(PhraseEntry{SourcePhrase: "hello", TargetPhrase: "привет", LanguagePair: "en-ru"})
	assert.Error(t, err)
}

func TestPhraseGetExactAndByLeadingWord(t *testing.T) {
	repo := NewPhraseRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "good  morning", TargetPhrase: "доброе утро", LanguagePair: "en-ru", Confidence: 90,
	}))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "good morning everyone", TargetPhrase: "доброе утро всем", LanguagePair: "en-ru", Confidence: 80,
	}))

	entry, ok, err := repo.GetExact("en-ru", "Good Morning")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "доброе утро", entry.TargetPhrase)

	byLead, err := repo.ByLeadingWord("en-ru", "good")
	require.NoError(t, err)
	require.Len(t, byLead, 2)
	// Longest phrase (more words) is tried first.
	assert.Equal(t, "good morning everyone", byLead[0].SourcePhrase)
}

func TestPhraseIncrementUsage(t *testing.T) {
	repo := NewPhraseRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "good morning", TargetPhrase: "доброе утро", LanguagePair: "en-ru",
	}))
	require.NoError(t, repo.IncrementUsage("en-ru", "good morning"))
	require.NoError(t, repo.IncrementUsage("en-ru", "good morning"))

	entry, ok, err := repo.GetExact("en-ru", "good morning")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, entry.UsageCount)
}

func TestPhraseGetPhraseTranslationTrimsPunctuation(t *testing.T) {
	repo := NewPhraseRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "good morning", TargetPhrase: "доброе утро", LanguagePair: "en-ru", Category: "greeting", Confidence: 90,
	}))

	entry, ok, err := repo.GetPhraseTranslation("Good morning!", "en-ru")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "доброе утро", entry.TargetPhrase)
}

func TestPhraseGetByCategoryTopConfidentAndCategories(t *testing.T) {
	repo := NewPhraseRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "good morning", TargetPhrase: "доброе утро", LanguagePair: "en-ru", Category: "greeting", Confidence: 90,
	}))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "good night", TargetPhrase: "доброй ночи", LanguagePair: "en-ru", Category: "greeting", Confidence: 40,
	}))
	require.NoError(t, repo.Upsert(PhraseEntry{
		SourcePhrase: "thank you", TargetPhrase: "спасибо", LanguagePair: "en-ru", Category: "courtesy", Confidence: 95,
	}))

	greetings, err := repo.GetByCategory("en-ru", "greeting")
	require.NoError(t, err)
	assert.Len(t, greetings, 2)

	top, err := repo.TopConfident("en-ru", 50, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "thank you", top[0].SourcePhrase)

	categories, err := repo.GetCategories("en-ru")
	require.NoError(t, err)
	assert.Equal(t, []string{"courtesy", "greeting"}, categories)
}

func TestUserDataHistoryOrderingAndSettings(t *testing.T) {
	repo := NewUserDataRepository(newTestStore(t))
	require.NoError(t, repo.AppendHistory(TranslationHistoryEntry{OriginalText: "one", LanguagePair: "en-ru"}))
	require.NoError(t, repo.AppendHistory(TranslationHistoryEntry{OriginalText: "two", LanguagePair: "en-ru"}))

	history, err := repo.ListHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "two", history[0].OriginalText)

	require.NoError(t, repo.SetSetting("quality_mode", "true", "enable quality scoring"))
	value, ok, err := repo.GetSetting("quality_mode")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", value)
}

func TestUserDataFindEditForTextPrefersMostRecentApproved(t *testing.T) {
	repo := NewUserDataRepository(newTestStore(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// IDs are set explicitly so AddEdit does not overwrite CreatedAt, letting
	// the test control recency ordering deterministically.
	require.NoError(t, repo.AddEdit(UserTranslationEdit{
		ID: "1", OriginalText: "hello", UserTranslation: "приветик",
		LanguagePair: "en-ru", IsApproved: false, CreatedAt: base.Add(2 * time.Hour),
	}))
	require.NoError(t, repo.AddEdit(UserTranslationEdit{
		ID: "2", OriginalText: "hello", UserTranslation: "здравствуйте",
		LanguagePair: "en-ru", IsApproved: true, CreatedAt: base,
	}))
	require.NoError(t, repo.AddEdit(UserTranslationEdit{
		ID: "3", OriginalText: "hello", UserTranslation: "приветствую",
		LanguagePair: "en-ru", IsApproved: true, CreatedAt: base.Add(time.Hour),
	}))

	edit, ok, err := repo.FindEditForText("hello", "en-ru")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "приветствую", edit.UserTranslation)

	_, ok, err = repo.FindEditForText("missing", "en-ru")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrammarRulesOrderedByPriority(t *testing.T) {
	repo := NewGrammarRulesRepository(newTestStore(t))
	require.NoError(t, repo.Upsert("en-ru", Rule{SourceLanguage: "en", TargetLanguage: "ru", Pattern: `\s+`, Replacement: " ", Priority: 10}))
	require.NoError(t, repo.Upsert("en-ru", Rule{SourceLanguage: "en", TargetLanguage: "ru", Pattern: `^\s`, Replacement: "", Priority: 1}))

	rules, err := repo.ForPair("en-ru")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].Priority)
}

func TestRuleUpsertRejectsBadPattern(t *testing.T) {
	repo := NewGrammarRulesRepository(newTestStore(t))
	err := repo.Upsert("en-ru", Rule{Pattern: `(unclosed`, Replacement: "x"})
	assert.Error(t, err)
}

func TestGlossaryOverride(t *testing.T) {
	repo := NewGlossaryRepository(newTestStore(t))
	require.NoError(t, repo.Upsert(GlossaryEntry{LanguagePair: "en-ru", SourceTerm: "Go", TargetTerm: "Go"}))

	target, ok, err := repo.Get("en-ru", "go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Go", target)

	_, ok, err = repo.Get("en-ru", "rust")
	require.NoError(t, err)
	assert.False(t, ok)
}

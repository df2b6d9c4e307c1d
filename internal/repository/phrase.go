package repository

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/storage"
)

const phraseFile = "phrases.jsonl"

var whitespaceCollapse = regexp.MustCompile(`\s+`)
var edgePunctuation = regexp.MustCompile(`^[^\p{L}\p{N}]+|[^\p{L}\p{N}]+$`)

// NormalizePhrase lowercases and collapses internal whitespace, the keying
// convention spec §4.8 uses for exact phrase lookups.
func NormalizePhrase(phrase string) string {
	return whitespaceCollapse.ReplaceAllString(strings.ToLower(strings.TrimSpace(phrase)), " ")
}

// stripEdgePunctuation trims leading and trailing punctuation from phrase,
// the "trimmed punctuation on match" step spec §4.3 layers on top of
// NormalizePhrase for GetPhraseTranslation.
func stripEdgePunctuation(phrase string) string {
	return edgePunctuation.ReplaceAllString(phrase, "")
}

// PhraseRepository mediates phrase-level lookups against
// <dir>/<pair>/phrases.jsonl.
type PhraseRepository struct {
	store *storage.FileStore
	cache *cache.Cache[[]PhraseEntry]
}

// NewPhraseRepository builds a PhraseRepository whose cache follows the
// bounds in spec §4.2 (cache.MaxPhrasesCache, cache.TTL). The cached value
// per key is a slice because phrases starting with the same leading word can
// share an n-gram bucket.
func NewPhraseRepository(store *storage.FileStore) *PhraseRepository {
	return &PhraseRepository{
		store: store,
		cache: cache.New[[]PhraseEntry](cache.MaxPhrasesCache, cache.TTL, nil),
	}
}

func (r *PhraseRepository) path(languagePair string) string {
	return filepath.Join(r.store.LanguagePairDir(languagePair), phraseFile)
}

// GetExact returns the phrase entry whose normalized SourcePhrase exactly
// equals phrase, preferring the cache.
func (r *PhraseRepository) GetExact(languagePair, phrase string) (PhraseEntry, bool, error) {
	norm := NormalizePhrase(phrase)
	key := GenerateCacheKey("phrase", "exact", languagePair, norm)
	if cached, ok := r.cache.Get(key); ok && len(cached) > 0 {
		return cached[0], true, nil
	}

	entries, err := r.all(languagePair)
	if err != nil {
		return PhraseEntry{}, false, err
	}
	for _, e := range entries {
		if NormalizePhrase(e.SourcePhrase) == norm {
			r.cache.Put(key, []PhraseEntry{e})
			return e, true, nil
		}
	}
	return PhraseEntry{}, false, nil
}

// ByLeadingWord returns every phrase in languagePair whose first word equals
// leadingWord, longest phrase first, so the phrase layer can try the longest
// possible n-gram match starting at a given token (spec §4.8).
func (r *PhraseRepository) ByLeadingWord(languagePair, leadingWord string) ([]PhraseEntry, error) {
	leadingWord = normalizeWord(leadingWord)
	key := GenerateCacheKey("phrase", "lead", languagePair, leadingWord)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	entries, err := r.all(languagePair)
	if err != nil {
		return nil, err
	}
	var matches []PhraseEntry
	for _, e := range entries {
		words := strings.Fields(NormalizePhrase(e.SourcePhrase))
		if len(words) > 0 && words[0] == leadingWord {
			matches = append(matches, e)
		}
	}
	sortByWordCountDesc(matches)
	r.cache.Put(key, matches)
	return matches, nil
}

func (r *PhraseRepository) all(languagePair string) ([]PhraseEntry, error) {
	var entries []PhraseEntry
	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return nil, err
		}
		entry, err := fromMap[PhraseEntry](obj)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetPhraseTranslation is GetExact after additionally stripping leading and
// trailing punctuation from phrase before normalizing, per spec §4.3's
// "matches after normalization (lowercased, collapsed whitespace, trimmed
// punctuation on match)".
func (r *PhraseRepository) GetPhraseTranslation(phrase, languagePair string) (PhraseEntry, bool, error) {
	return r.GetExact(languagePair, stripEdgePunctuation(phrase))
}

// GetByCategory returns every phrase in languagePair whose Category matches
// category exactly.
func (r *PhraseRepository) GetByCategory(languagePair, category string) ([]PhraseEntry, error) {
	entries, err := r.all(languagePair)
	if err != nil {
		return nil, err
	}
	var matches []PhraseEntry
	for _, e := range entries {
		if e.Category == category {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// TopConfident returns up to limit phrases in languagePair with Confidence
// at least minConfidence, ordered by descending Confidence. limit <= 0 means
// unbounded.
func (r *PhraseRepository) TopConfident(languagePair string, minConfidence int, limit int) ([]PhraseEntry, error) {
	entries, err := r.all(languagePair)
	if err != nil {
		return nil, err
	}
	var matches []PhraseEntry
	for _, e := range entries {
		if e.Confidence >= minConfidence {
			matches = append(matches, e)
		}
	}
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Confidence > matches[j-1].Confidence; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetCategories returns the distinct, non-empty Category values present in
// languagePair's phrase file, sorted alphabetically.
func (r *PhraseRepository) GetCategories(languagePair string) ([]string, error) {
	entries, err := r.all(languagePair)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var categories []string
	for _, e := range entries {
		if e.Category == "" || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		categories = append(categories, e.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// Upsert inserts or replaces entry, keyed on LanguagePair+normalized
// SourcePhrase. Phrases shorter than two words are rejected (spec §3).
func (r *PhraseRepository) Upsert(entry PhraseEntry) error {
	norm := NormalizePhrase(entry.SourcePhrase)
	if len(strings.Fields(norm)) < 2 {
		return newValidationError("source_phrase", "must contain at least two words")
	}
	if strings.TrimSpace(entry.TargetPhrase) == "" {
		return newValidationError("target_phrase", "must not be empty")
	}
	entry.SourcePhrase = norm
	if entry.Confidence < 0 {
		entry.Confidence = 0
	}
	if entry.Confidence > 100 {
		entry.Confidence = 100
	}

	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	path := r.path(entry.LanguagePair)
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		replaced := false
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			existing, err := fromMap[PhraseEntry](obj)
			if err == nil && !replaced && NormalizePhrase(existing.SourcePhrase) == norm {
				m, err := toMap(entry)
				if err != nil {
					return err
				}
				items = append(items, m)
				replaced = true
				continue
			}
			items = append(items, obj)
		}
		if !replaced {
			m, err := toMap(entry)
			if err != nil {
				return err
			}
			items = append(items, m)
		}
		return r.store.RewriteJSONL(path, items)
	})
	if err != nil {
		return err
	}

	r.invalidate(entry.LanguagePair, norm)
	return nil
}

// IncrementUsage bumps UsageCount for the phrase identified by languagePair
// and its normalized SourcePhrase, used to track which phrases the pipeline
// actually exercises.
func (r *PhraseRepository) IncrementUsage(languagePair, phrase string) error {
	norm := NormalizePhrase(phrase)
	path := r.path(languagePair)
	found := false
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			entry, err := fromMap[PhraseEntry](obj)
			if err == nil && NormalizePhrase(entry.SourcePhrase) == norm {
				entry.UsageCount++
				entry.UpdatedAt = time.Now().UTC()
				m, err := toMap(entry)
				if err != nil {
					return err
				}
				items = append(items, m)
				found = true
				continue
			}
			items = append(items, obj)
		}
		if !found {
			return nil
		}
		return r.store.RewriteJSONL(path, items)
	})
	if err != nil {
		return err
	}
	if found {
		r.invalidate(languagePair, norm)
	}
	return nil
}

func (r *PhraseRepository) invalidate(languagePair, normalizedPhrase string) {
	r.cache.Remove(GenerateCacheKey("phrase", "exact", languagePair, normalizedPhrase))
	words := strings.Fields(normalizedPhrase)
	if len(words) > 0 {
		r.cache.Remove(GenerateCacheKey("phrase", "lead", languagePair, words[0]))
	}
}

// CacheMetrics reports the lookup cache's hit/miss counters, the "phrases"
// cache kind the Engine's get_cache_info surfaces (spec §4.2, §6).
func (r *PhraseRepository) CacheMetrics() cache.Metrics { return r.cache.Metrics() }

// ClearCache flushes the lookup cache.
func (r *PhraseRepository) ClearCache() { r.cache.Clear() }

func sortByWordCountDesc(entries []PhraseEntry) {
	wordCount := func(e PhraseEntry) int { return len(strings.Fields(NormalizePhrase(e.SourcePhrase))) }
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && wordCount(entries[j]) > wordCount(entries[j-1]); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

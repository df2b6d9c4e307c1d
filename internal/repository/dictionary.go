package repository

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lexbridge/internal/arbiter"
	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/storage"
)

const dictionaryFile = "dictionary.jsonl"

// DictionaryStats is the summary stats(language_pair) returns (spec §4.3).
type DictionaryStats struct {
	TotalEntries     int
	TotalFrequency   int
	AverageFrequency float64
}

// DictionaryRepository mediates word-level lookups against
// <dir>/<pair>/dictionary.jsonl (spec §4.3). Exact lookups are cache-first;
// Search always scans, since substring queries are not worth caching the way
// a single exact key is.
type DictionaryRepository struct {
	store   *storage.FileStore
	cache   *cache.Cache[DictionaryEntry]
	arbiter arbiter.Arbiter
}

// NewDictionaryRepository builds a DictionaryRepository whose exact-match
// cache follows the bounds in spec §4.2 (cache.MaxWordsCache, cache.TTL).
// Ties among multiple entries for the same word are broken by the default
// frequency arbiter; use SetArbiter to plug in a different strategy.
func NewDictionaryRepository(store *storage.FileStore) *DictionaryRepository {
	return &DictionaryRepository{
		store:   store,
		cache:   cache.New[DictionaryEntry](cache.MaxWordsCache, cache.TTL, nil),
		arbiter: arbiter.New(),
	}
}

// SetArbiter replaces the candidate-selection strategy GetExact uses when
// more than one entry matches the same source word.
func (r *DictionaryRepository) SetArbiter(a arbiter.Arbiter) { r.arbiter = a }

func (r *DictionaryRepository) path(languagePair string) string {
	return filepath.Join(r.store.LanguagePairDir(languagePair), dictionaryFile)
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// GetExact returns the dictionary entry for word in languagePair, preferring
// the cache and falling back to a full scan on miss. When more than one
// entry matches (homonyms, duplicate imports), the repository's arbiter
// picks the winner — by default the entry with the highest Frequency,
// mirroring the "most common sense wins" tie-break spec §4.9 calls for.
func (r *DictionaryRepository) GetExact(languagePair, word string) (DictionaryEntry, bool, error) {
	word = normalizeWord(word)
	key := GenerateCacheKey("dict", "exact", languagePair, word)
	if entry, ok := r.cache.Get(key); ok {
		return entry, true, nil
	}

	matches := make(map[string]DictionaryEntry)
	var candidates []arbiter.Candidate
	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return DictionaryEntry{}, false, err
		}
		entry, err := fromMap[DictionaryEntry](obj)
		if err != nil {
			continue
		}
		if normalizeWord(entry.SourceWord) != word {
			continue
		}
		matches[entry.ID] = entry
		candidates = append(candidates, arbiter.Candidate{Text: entry.ID, Frequency: entry.Frequency})
	}

	winner, found := r.arbiter.Select(candidates)
	if !found {
		return DictionaryEntry{}, false, nil
	}
	best := matches[winner.Text]
	r.cache.Put(key, best)
	return best, true, nil
}

// Search returns up to limit entries whose SourceWord contains substring,
// ordered by descending Frequency with SourceWord ascending as a tie-break
// (spec §4.3). limit <= 0 means unbounded.
func (r *DictionaryRepository) Search(languagePair, substring string, limit int) ([]DictionaryEntry, error) {
	substring = normalizeWord(substring)
	var matches []DictionaryEntry
	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return nil, err
		}
		entry, err := fromMap[DictionaryEntry](obj)
		if err != nil {
			continue
		}
		if strings.Contains(normalizeWord(entry.SourceWord), substring) {
			matches = append(matches, entry)
		}
	}
	sortByFrequencyDesc(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Add upserts by (source_word, language_pair): if no entry exists yet, one
// is created with the given frequency (default 1); if one already exists,
// frequency is added to the existing value and updated_at is bumped, per
// spec §4.3 "add". Unlike Upsert, Add never replaces TargetWord/PartOfSpeech/
// Definition on an existing entry — it only accumulates usage.
func (r *DictionaryRepository) Add(languagePair, sourceWord, targetWord, partOfSpeech, definition string, frequency int) (DictionaryEntry, error) {
	if strings.TrimSpace(sourceWord) == "" {
		return DictionaryEntry{}, newValidationError("source_word", "must not be empty")
	}
	if strings.TrimSpace(targetWord) == "" {
		return DictionaryEntry{}, newValidationError("target_word", "must not be empty")
	}
	if frequency <= 0 {
		frequency = 1
	}
	norm := normalizeWord(sourceWord)
	path := r.path(languagePair)
	now := time.Now().UTC()
	var result DictionaryEntry

	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		found := false
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			entry, err := fromMap[DictionaryEntry](obj)
			if err == nil && !found && normalizeWord(entry.SourceWord) == norm {
				entry.Frequency += frequency
				entry.UpdatedAt = now
				m, err := toMap(entry)
				if err != nil {
					return err
				}
				items = append(items, m)
				result = entry
				found = true
				continue
			}
			items = append(items, obj)
		}
		if !found {
			result = DictionaryEntry{
				ID:           uuid.NewString(),
				SourceWord:   norm,
				TargetWord:   targetWord,
				LanguagePair: languagePair,
				PartOfSpeech: partOfSpeech,
				Definition:   definition,
				Frequency:    frequency,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			m, err := toMap(result)
			if err != nil {
				return err
			}
			items = append(items, m)
		}
		return r.store.RewriteJSONL(path, items)
	})
	if err != nil {
		return DictionaryEntry{}, err
	}

	r.cache.Put(GenerateCacheKey("dict", "exact", languagePair, norm), result)
	return result, nil
}

// AddBulk inserts or accumulates every entry in entries under a single lock
// acquisition and a single rewrite per distinct language pair (spec §4.3:
// "single lock acquisition, single rewrite, atomic"), instead of paying a
// lock/rewrite round trip per entry the way repeated Add calls would.
// Entries that collide on (source_word, language_pair), including two
// entries within the same batch, accumulate Frequency exactly as Add does.
func (r *DictionaryRepository) AddBulk(entries []DictionaryEntry) error {
	for _, e := range entries {
		if strings.TrimSpace(e.SourceWord) == "" {
			return newValidationError("source_word", "must not be empty")
		}
		if strings.TrimSpace(e.TargetWord) == "" {
			return newValidationError("target_word", "must not be empty")
		}
	}

	byPair := make(map[string][]DictionaryEntry)
	for _, e := range entries {
		byPair[e.LanguagePair] = append(byPair[e.LanguagePair], e)
	}

	for languagePair, pairEntries := range byPair {
		path := r.path(languagePair)
		now := time.Now().UTC()

		err := storage.WithFileLock(path, func() error {
			existing := make(map[string]DictionaryEntry)
			var order []string
			for obj, err := range r.store.ReadJSONL(path) {
				if err != nil {
					return err
				}
				entry, err := fromMap[DictionaryEntry](obj)
				if err != nil {
					continue
				}
				key := normalizeWord(entry.SourceWord)
				if _, seen := existing[key]; !seen {
					order = append(order, key)
				}
				existing[key] = entry
			}

			for _, e := range pairEntries {
				norm := normalizeWord(e.SourceWord)
				freq := e.Frequency
				if freq <= 0 {
					freq = 1
				}
				if current, ok := existing[norm]; ok {
					current.Frequency += freq
					current.UpdatedAt = now
					existing[norm] = current
					continue
				}
				e.SourceWord = norm
				e.LanguagePair = languagePair
				e.Frequency = freq
				if e.ID == "" {
					e.ID = uuid.NewString()
				}
				e.CreatedAt = now
				e.UpdatedAt = now
				existing[norm] = e
				order = append(order, norm)
			}

			items := make([]map[string]any, 0, len(order))
			for _, key := range order {
				m, err := toMap(existing[key])
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
		r.cache.Clear()
	}
	return nil
}

// GetAll returns every dictionary entry for languagePair, in file order.
func (r *DictionaryRepository) GetAll(languagePair string) ([]DictionaryEntry, error) {
	var entries []DictionaryEntry
	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return nil, err
		}
		entry, err := fromMap[DictionaryEntry](obj)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetTop returns up to limit entries for languagePair ordered by descending
// Frequency, SourceWord ascending tie-break. limit <= 0 means unbounded.
func (r *DictionaryRepository) GetTop(languagePair string, limit int) ([]DictionaryEntry, error) {
	entries, err := r.GetAll(languagePair)
	if err != nil {
		return nil, err
	}
	sortByFrequencyDesc(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Stats summarizes languagePair's dictionary file (spec §4.3).
func (r *DictionaryRepository) Stats(languagePair string) (DictionaryStats, error) {
	entries, err := r.GetAll(languagePair)
	if err != nil {
		return DictionaryStats{}, err
	}
	stats := DictionaryStats{TotalEntries: len(entries)}
	for _, e := range entries {
		stats.TotalFrequency += e.Frequency
	}
	if stats.TotalEntries > 0 {
		stats.AverageFrequency = float64(stats.TotalFrequency) / float64(stats.TotalEntries)
	}
	return stats, nil
}

// Upsert inserts entry or replaces the existing entry with the same
// LanguagePair+SourceWord, under an advisory lock, then invalidates the
// exact-match cache slot so the next GetExact re-reads from disk. Unlike
// Add, Upsert replaces the entry wholesale rather than accumulating
// Frequency — use it for administrative edits, not usage tracking.
func (r *DictionaryRepository) Upsert(entry DictionaryEntry) error {
	if strings.TrimSpace(entry.SourceWord) == "" {
		return newValidationError("source_word", "must not be empty")
	}
	if strings.TrimSpace(entry.TargetWord) == "" {
		return newValidationError("target_word", "must not be empty")
	}
	entry.SourceWord = normalizeWord(entry.SourceWord)
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
			existing, err := fromMap[DictionaryEntry](obj)
			if err == nil && normalizeWord(existing.SourceWord) == entry.SourceWord && existing.ID != "" {
				if existing.ID == entry.ID || !replaced {
					m, err := toMap(entry)
					if err != nil {
						return err
					}
					items = append(items, m)
					replaced = true
					continue
				}
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

	r.cache.Put(GenerateCacheKey("dict", "exact", entry.LanguagePair, entry.SourceWord), entry)
	return nil
}

// Delete removes the entry for word in languagePair, if any.
func (r *DictionaryRepository) Delete(languagePair, word string) error {
	word = normalizeWord(word)
	path := r.path(languagePair)
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			entry, err := fromMap[DictionaryEntry](obj)
			if err == nil && normalizeWord(entry.SourceWord) == word {
				continue
			}
			items = append(items, obj)
		}
		return r.store.RewriteJSONL(path, items)
	})
	if err != nil {
		return err
	}
	r.cache.Remove(GenerateCacheKey("dict", "exact", languagePair, word))
	return nil
}

// CacheMetrics reports the exact-match cache's hit/miss counters, the
// "words" cache kind the Engine's get_cache_info surfaces (spec §4.2, §6).
func (r *DictionaryRepository) CacheMetrics() cache.Metrics { return r.cache.Metrics() }

// ClearCache flushes the exact-match cache, forcing the next GetExact to
// re-read from disk.
func (r *DictionaryRepository) ClearCache() { r.cache.Clear() }

func sortByFrequencyDesc(entries []DictionaryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].SourceWord < entries[j].SourceWord
	})
}

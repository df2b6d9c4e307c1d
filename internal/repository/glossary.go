package repository

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/storage"
)

const glossaryFile = "glossary.jsonl"

// GlossaryRepository mediates <dir>/<pair>/glossary.jsonl, the supplemented
// forced-translation-override store described in SPEC_FULL.md §4: entries
// here always win over the dictionary layer's own lookup, the same way
// Context.ForceTranslations does for a single request.
type GlossaryRepository struct {
	store *storage.FileStore
	cache *cache.Cache[string]
}

// NewGlossaryRepository builds a GlossaryRepository.
func NewGlossaryRepository(store *storage.FileStore) *GlossaryRepository {
	return &GlossaryRepository{
		store: store,
		cache: cache.New[string](cache.MaxWordsCache, cache.TTL, nil),
	}
}

func (r *GlossaryRepository) path(languagePair string) string {
	return filepath.Join(r.store.LanguagePairDir(languagePair), glossaryFile)
}

// Get returns the forced target term for sourceTerm in languagePair.
func (r *GlossaryRepository) Get(languagePair, sourceTerm string) (string, bool, error) {
	norm := normalizeWord(sourceTerm)
	key := GenerateCacheKey("glossary", languagePair, norm)
	if cached, ok := r.cache.Get(key); ok {
		return cached, cached != "", nil
	}

	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return "", false, err
		}
		entry, err := fromMap[GlossaryEntry](obj)
		if err != nil {
			continue
		}
		if normalizeWord(entry.SourceTerm) == norm {
			r.cache.Put(key, entry.TargetTerm)
			return entry.TargetTerm, true, nil
		}
	}
	return "", false, nil
}

// List returns every glossary entry for languagePair.
func (r *GlossaryRepository) List(languagePair string) ([]GlossaryEntry, error) {
	var entries []GlossaryEntry
	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return nil, err
		}
		entry, err := fromMap[GlossaryEntry](obj)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Upsert inserts or replaces the override for entry's SourceTerm.
func (r *GlossaryRepository) Upsert(entry GlossaryEntry) error {
	if strings.TrimSpace(entry.SourceTerm) == "" {
		return newValidationError("source_term", "must not be empty")
	}
	if strings.TrimSpace(entry.TargetTerm) == "" {
		return newValidationError("target_term", "must not be empty")
	}
	norm := normalizeWord(entry.SourceTerm)
	entry.SourceTerm = norm
	if entry.ID == "" {
		entry.ID = uuid.NewString()
		entry.CreatedAt = time.Now().UTC()
	}

	path := r.path(entry.LanguagePair)
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		replaced := false
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			existing, err := fromMap[GlossaryEntry](obj)
			if err == nil && normalizeWord(existing.SourceTerm) == norm {
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
	r.cache.Put(GenerateCacheKey("glossary", entry.LanguagePair, norm), entry.TargetTerm)
	return nil
}

// Delete removes the override for sourceTerm in languagePair, if any.
func (r *GlossaryRepository) Delete(languagePair, sourceTerm string) error {
	norm := normalizeWord(sourceTerm)
	path := r.path(languagePair)
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			entry, err := fromMap[GlossaryEntry](obj)
			if err == nil && normalizeWord(entry.SourceTerm) == norm {
				continue
			}
			items = append(items, obj)
		}
		return r.store.RewriteJSONL(path, items)
	})
	if err != nil {
		return err
	}
	r.cache.Remove(GenerateCacheKey("glossary", languagePair, norm))
	return nil
}

package repository

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/storage"
)

// ruleRepository is the shared implementation behind GrammarRulesRepository,
// WordOrderRulesRepository, and PostProcessingRulesRepository: each layer
// keeps its own rule file but the load/cache/validate contract is identical
// (spec §4.3, §4.10).
type ruleRepository struct {
	store    *storage.FileStore
	cache    *cache.Cache[[]Rule]
	fileName string
	cacheTag string
}

func newRuleRepository(store *storage.FileStore, fileName, cacheTag string) *ruleRepository {
	return &ruleRepository{
		store:    store,
		cache:    cache.New[[]Rule](cache.MaxWordsCache, cache.TTL, nil),
		fileName: fileName,
		cacheTag: cacheTag,
	}
}

func (r *ruleRepository) path(languagePair string) string {
	return filepath.Join(r.store.LanguagePairDir(languagePair), r.fileName)
}

// ForPair returns every rule for languagePair, ordered by ascending Priority.
// The grammar and word-order layers re-sort the rules they apply by
// descending Priority, so higher numbers run first there.
func (r *ruleRepository) ForPair(languagePair string) ([]Rule, error) {
	key := GenerateCacheKey(r.cacheTag, languagePair)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	var rules []Rule
	for obj, err := range r.store.ReadJSONL(r.path(languagePair)) {
		if err != nil {
			return nil, err
		}
		rule, err := fromMap[Rule](obj)
		if err != nil {
			continue
		}
		rules = append(rules, rule)
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	r.cache.Put(key, rules)
	return rules, nil
}

// Upsert inserts or replaces rule, keyed by RuleID, and validates that
// Pattern compiles as a regular expression before persisting it (a malformed
// rule must never reach disk where the layer would silently skip it forever).
func (r *ruleRepository) Upsert(languagePair string, rule Rule) error {
	if rule.Pattern == "" {
		return newValidationError("pattern", "must not be empty")
	}
	if _, err := regexp.Compile(rule.Pattern); err != nil {
		return newValidationError("pattern", "does not compile: "+err.Error())
	}
	if rule.RuleID == "" {
		rule.RuleID = uuid.NewString()
	}

	path := r.path(languagePair)
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		replaced := false
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			existing, err := fromMap[Rule](obj)
			if err == nil && existing.RuleID == rule.RuleID {
				m, err := toMap(rule)
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
			m, err := toMap(rule)
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
	r.cache.Remove(GenerateCacheKey(r.cacheTag, languagePair))
	return nil
}

// Delete removes the rule identified by ruleID.
func (r *ruleRepository) Delete(languagePair, ruleID string) error {
	path := r.path(languagePair)
	err := storage.WithFileLock(path, func() error {
		var items []map[string]any
		for obj, err := range r.store.ReadJSONL(path) {
			if err != nil {
				return err
			}
			existing, err := fromMap[Rule](obj)
			if err == nil && existing.RuleID == ruleID {
				continue
			}
			items = append(items, obj)
		}
		return r.store.RewriteJSONL(path, items)
	})
	if err != nil {
		return err
	}
	r.cache.Remove(GenerateCacheKey(r.cacheTag, languagePair))
	return nil
}

// GrammarRulesRepository mediates <dir>/<pair>/grammar_rules.jsonl.
type GrammarRulesRepository struct{ *ruleRepository }

// NewGrammarRulesRepository builds a GrammarRulesRepository.
func NewGrammarRulesRepository(store *storage.FileStore) *GrammarRulesRepository {
	return &GrammarRulesRepository{newRuleRepository(store, "grammar_rules.jsonl", "grammar")}
}

// WordOrderRulesRepository mediates <dir>/<pair>/word_order_rules.jsonl.
type WordOrderRulesRepository struct{ *ruleRepository }

// NewWordOrderRulesRepository builds a WordOrderRulesRepository.
func NewWordOrderRulesRepository(store *storage.FileStore) *WordOrderRulesRepository {
	return &WordOrderRulesRepository{newRuleRepository(store, "word_order_rules.jsonl", "wordorder")}
}

// PostProcessingRulesRepository mediates
// <dir>/<pair>/post_processing_rules.jsonl.
type PostProcessingRulesRepository struct{ *ruleRepository }

// NewPostProcessingRulesRepository builds a PostProcessingRulesRepository.
func NewPostProcessingRulesRepository(store *storage.FileStore) *PostProcessingRulesRepository {
	return &PostProcessingRulesRepository{newRuleRepository(store, "post_processing_rules.jsonl", "postprocess")}
}

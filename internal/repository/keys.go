package repository

import "strings"

// GenerateCacheKey builds the namespaced cache key convention spec §4.3
// requires, e.g. GenerateCacheKey("dict", "exact", "en-ru", "hello") ->
// "dict:exact:en-ru:hello". Parts are lowercased so lookups are
// case-insensitive regardless of how the caller cased a language pair.
func GenerateCacheKey(parts ...string) string {
	lowered := make([]string, len(parts))
	for i, p := range parts {
		lowered[i] = strings.ToLower(p)
	}
	return strings.Join(lowered, ":")
}

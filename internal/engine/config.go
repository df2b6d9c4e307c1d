package engine

import (
	"time"

	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/layers/postprocess"
)

// LayerToggles lets a caller disable individual pipeline stages (spec §6,
// "per-layer toggles"). All default to true.
type LayerToggles struct {
	Preprocessing  bool `mapstructure:"preprocessing"`
	Phrase         bool `mapstructure:"phrase"`
	Dictionary     bool `mapstructure:"dictionary"`
	Grammar        bool `mapstructure:"grammar"`
	WordOrder      bool `mapstructure:"word_order"`
	PostProcessing bool `mapstructure:"post_processing"`
}

func defaultLayerToggles() LayerToggles {
	return LayerToggles{
		Preprocessing:  true,
		Phrase:         true,
		Dictionary:     true,
		Grammar:        true,
		WordOrder:      true,
		PostProcessing: true,
	}
}

// MemoryCacheConfig controls the optional SQLite-backed whole-text
// translation-memory fast path (SPEC_FULL.md §4). It is purely additive and
// disabled by default: no spec'd layer is ever bypassed unless a caller
// opts in.
type MemoryCacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// FuzzyThreshold, when > 0, also tries a Levenshtein-similarity lookup
	// against previously translated text once an exact match misses. When
	// Enabled is true, 0 is replaced by the default threshold 0.92.
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
}

// Config holds every optional initialize() setting from spec §6. The zero
// Config is not meant to be used directly; DefaultConfig returns one with
// every field set to its documented default, and callers override only what
// they need before passing it to Initialize.
type Config struct {
	MaxWordsCache    int `mapstructure:"max_words_cache"`
	MaxPhrasesCache  int `mapstructure:"max_phrases_cache"`
	CacheTTLMs       int `mapstructure:"cache_ttl_ms"`

	Debug            bool   `mapstructure:"debug"`
	LogLevel         string `mapstructure:"log_level"`

	RequestTimeoutMs int `mapstructure:"request_timeout_ms"`
	MaxPending       int `mapstructure:"max_pending"`

	Layers         LayerToggles        `mapstructure:"layers"`
	PostProcessing postprocess.Options `mapstructure:"post_processing_options"`
	MemoryCache    MemoryCacheConfig   `mapstructure:"memory_cache"`
}

// DefaultConfig returns the configuration Initialize uses when the caller
// passes a zero Config. Cache bounds mirror the package-level constants in
// internal/cache (spec §4.2); the timeout and pending-queue depth are
// conservative defaults for a single-process offline engine.
func DefaultConfig() Config {
	return Config{
		MaxWordsCache:    cache.MaxWordsCache,
		MaxPhrasesCache:  cache.MaxPhrasesCache,
		CacheTTLMs:       int(cache.TTL / time.Millisecond),
		LogLevel:         "info",
		RequestTimeoutMs: 5000,
		MaxPending:       64,
		Layers:           defaultLayerToggles(),
		PostProcessing:   postprocess.DefaultOptions(),
	}
}

// withDefaults fills any zero-valued field of cfg from DefaultConfig,
// so a caller supplying a partially-populated Config (as produced by, say,
// viper.Unmarshal over a config file that only sets a couple of keys) does
// not accidentally disable every layer or zero out the cache bounds.
func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.MaxWordsCache <= 0 {
		cfg.MaxWordsCache = def.MaxWordsCache
	}
	if cfg.MaxPhrasesCache <= 0 {
		cfg.MaxPhrasesCache = def.MaxPhrasesCache
	}
	if cfg.CacheTTLMs <= 0 {
		cfg.CacheTTLMs = def.CacheTTLMs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = def.RequestTimeoutMs
	}
	if cfg.MaxPending == 0 {
		cfg.MaxPending = def.MaxPending
	}
	if cfg.Layers == (LayerToggles{}) {
		cfg.Layers = def.Layers
	}
	if cfg.PostProcessing == (postprocess.Options{}) {
		cfg.PostProcessing = def.PostProcessing
	}
	if cfg.MemoryCache.Enabled && cfg.MemoryCache.FuzzyThreshold == 0 {
		cfg.MemoryCache.FuzzyThreshold = 0.92
	}
	return cfg
}

func (cfg Config) cacheTTL() time.Duration {
	return time.Duration(cfg.CacheTTLMs) * time.Millisecond
}

func (cfg Config) requestTimeout() time.Duration {
	if cfg.RequestTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
}

// Package engine wires the repository, cache, and pipeline layers together
// behind the initialize/translate/dispose lifecycle spec §6 describes.
package engine

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/lexbridge/internal/cache"
	"github.com/valpere/lexbridge/internal/detector"
	"github.com/valpere/lexbridge/internal/langpair"
	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/layers/dictionary"
	"github.com/valpere/lexbridge/internal/layers/grammar"
	"github.com/valpere/lexbridge/internal/layers/phrase"
	"github.com/valpere/lexbridge/internal/layers/postprocess"
	"github.com/valpere/lexbridge/internal/layers/preprocessing"
	"github.com/valpere/lexbridge/internal/layers/wordorder"
	"github.com/valpere/lexbridge/internal/orchestrator"
	"github.com/valpere/lexbridge/internal/pipeline"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/storage"
	"github.com/valpere/lexbridge/internal/store"
	"github.com/valpere/lexbridge/internal/translation"
)

// Engine is the single entry point a caller uses to translate text (spec
// §6). A zero Engine is not usable; build one with Initialize and release
// it with Dispose when done.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	store  *storage.FileStore

	dictionaryRepo     *repository.DictionaryRepository
	phraseRepo         *repository.PhraseRepository
	userDataRepo       *repository.UserDataRepository
	grammarRepo        *repository.GrammarRulesRepository
	wordOrderRepo      *repository.WordOrderRulesRepository
	postProcessingRepo *repository.PostProcessingRulesRepository
	glossaryRepo       *repository.GlossaryRepository

	pipeline  *pipeline.Pipeline
	admission chan struct{}
	memStore  *store.Store

	detectorOnce sync.Once
	detector     *detector.Detector

	requestsTotal    atomic.Int64
	requestsFailed   atomic.Int64
	layerInvocations atomic.Int64
	disposed         atomic.Bool
}

// TranslateOptions carries the optional per-call `context` fields spec §6
// allows alongside text/source_language/target_language. A nil
// *TranslateOptions means "use request defaults".
type TranslateOptions struct {
	SessionID         string
	DebugMode         bool
	QualityMode       bool
	ForceTranslations map[string]string
	ExcludedWords     []string
}

// Initialize builds an Engine rooted at dataDir. cfg is merged over
// DefaultConfig field-by-field, so a caller only needs to set the options it
// cares about. dataDir must name a directory the process can read and write;
// Initialize does not require it to already contain data (a fresh
// installation starts with empty repositories).
func Initialize(dataDir string, cfg Config) (*Engine, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, newError(KindValidation, "data_dir must not be empty", nil)
	}
	cfg = cfg.withDefaults()

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return nil, newError(KindStorage, "failed to build logger", err)
	}

	fileStore := storage.New(dataDir)

	e := &Engine{
		cfg:                cfg,
		logger:             logger,
		store:              fileStore,
		dictionaryRepo:     repository.NewDictionaryRepository(fileStore),
		phraseRepo:         repository.NewPhraseRepository(fileStore),
		userDataRepo:       repository.NewUserDataRepository(fileStore),
		grammarRepo:        repository.NewGrammarRulesRepository(fileStore),
		wordOrderRepo:      repository.NewWordOrderRulesRepository(fileStore),
		postProcessingRepo: repository.NewPostProcessingRulesRepository(fileStore),
		glossaryRepo:       repository.NewGlossaryRepository(fileStore),
	}
	if cfg.MaxPending > 0 {
		e.admission = make(chan struct{}, cfg.MaxPending)
	}
	e.pipeline = pipeline.New(logger, e.buildLayers()...)

	if cfg.MemoryCache.Enabled {
		memStore, err := store.New(filepath.Join(dataDir, "cache.db"))
		if err != nil {
			logger.Warn("memory cache unavailable, continuing without it", zap.Error(err))
		} else {
			e.memStore = memStore
		}
	}

	logger.Info("engine initialized",
		zap.String("data_dir", dataDir),
		zap.Int("max_pending", cfg.MaxPending),
		zap.Int("request_timeout_ms", cfg.RequestTimeoutMs))
	return e, nil
}

// buildLayers constructs the enabled pipeline stages in the order
// pipeline.New expects to sort them (ascending Priority, spec §4.5/§4.6).
func (e *Engine) buildLayers() []layer.Layer {
	var layers []layer.Layer
	if e.cfg.Layers.Preprocessing {
		layers = append(layers, preprocessing.New())
	}
	if e.cfg.Layers.Phrase {
		layers = append(layers, phrase.New(e.phraseRepo))
	}
	if e.cfg.Layers.Dictionary {
		layers = append(layers, dictionary.New(e.dictionaryRepo))
	}
	if e.cfg.Layers.Grammar {
		layers = append(layers, grammar.New(e.grammarRepo))
	}
	if e.cfg.Layers.WordOrder {
		layers = append(layers, wordorder.New(e.wordOrderRepo))
	}
	if e.cfg.Layers.PostProcessing {
		layers = append(layers, postprocess.New(e.postProcessingRepo, e.cfg.PostProcessing))
	}
	return layers
}

// Translate runs one text through the pipeline (spec §6). ctx governs
// cancellation on top of the engine's own request_timeout_ms; either one
// firing first ends the wait for the caller, though a pipeline already
// running to completion in the background (Go has no way to preempt
// CPU-bound work without the layers themselves checking a context) still
// finishes and its result is simply discarded.
func (e *Engine) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string, opts *TranslateOptions) (translation.TranslationResult, error) {
	if e.disposed.Load() {
		return translation.TranslationResult{}, newError(KindValidation, "engine has been disposed", nil)
	}
	if strings.TrimSpace(text) == "" {
		return translation.TranslationResult{}, newError(KindValidation, "text must not be empty", nil)
	}
	if _, err := langpair.Parse(sourceLanguage, targetLanguage); err != nil {
		return translation.TranslationResult{}, newError(KindValidation, err.Error(), err)
	}

	if e.admission != nil {
		select {
		case e.admission <- struct{}{}:
			defer func() { <-e.admission }()
		default:
			return translation.TranslationResult{}, newError(KindQueueOverflow, "too many pending translations", nil)
		}
	}
	e.requestsTotal.Add(1)

	tctx := e.buildContext(text, sourceLanguage, targetLanguage, opts)

	if e.memStore != nil {
		if result, hit := e.checkMemoryCache(ctx, tctx); hit {
			e.recordResult(tctx, result)
			return result, nil
		}
	}

	timeout := e.cfg.requestTimeout()
	if timeout <= 0 {
		result := e.run(tctx)
		e.recordResult(tctx, result)
		return result, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan translation.TranslationResult, 1)
	go func() { resultCh <- e.run(tctx) }()

	select {
	case result := <-resultCh:
		e.recordResult(tctx, result)
		return result, nil
	case <-runCtx.Done():
		e.requestsFailed.Add(1)
		e.logger.Warn("translation deadline exceeded",
			zap.String("language_pair", tctx.LanguagePair()),
			zap.Int("timeout_ms", e.cfg.RequestTimeoutMs))
		return translation.TranslationResult{
			OriginalText:   text,
			TranslatedText: text,
			LanguagePair:   tctx.LanguagePair(),
			HasError:       true,
			ErrorMessage:   "translation deadline exceeded",
			Timestamp:      time.Now().UTC(),
		}, newError(KindTimeout, "translation deadline exceeded", runCtx.Err())
	}
}

// buildContext assembles the Context a Translate call runs through,
// applying the caller's options and seeding the persisted glossary when the
// caller did not supply an explicit force_translations map (SPEC_FULL.md §4).
func (e *Engine) buildContext(text, sourceLanguage, targetLanguage string, opts *TranslateOptions) *translation.Context {
	tctx := translation.New(text, sourceLanguage, targetLanguage)
	if opts != nil {
		if opts.SessionID != "" {
			tctx.SessionID = opts.SessionID
		}
		tctx.DebugMode = opts.DebugMode || e.cfg.Debug
		tctx.QualityMode = opts.QualityMode
		for k, v := range opts.ForceTranslations {
			tctx.ForceTranslations[k] = v
		}
		for _, w := range opts.ExcludedWords {
			tctx.ExcludedWords[strings.ToLower(w)] = struct{}{}
		}
	} else {
		tctx.DebugMode = e.cfg.Debug
	}

	if len(tctx.ForceTranslations) == 0 {
		e.seedGlossary(tctx)
	}
	return tctx
}

// seedGlossary populates ForceTranslations from the persisted glossary
// repository when the caller did not supply an explicit override map.
func (e *Engine) seedGlossary(tctx *translation.Context) {
	entries, err := e.glossaryRepo.List(tctx.LanguagePair())
	if err != nil {
		e.logger.Warn("glossary lookup failed", zap.String("language_pair", tctx.LanguagePair()), zap.Error(err))
		return
	}
	for _, entry := range entries {
		tctx.ForceTranslations[entry.SourceTerm] = entry.TargetTerm
	}
}

// DetectLanguage identifies the most likely language of text using the
// lingua-go statistical detector and returns its ISO 639-1 code, or false
// when no language could be determined (SPEC_FULL.md §3). This is an
// opt-in convenience separate from Translate, which always requires an
// explicit source language; the detector is expensive to build and so is
// constructed lazily on first use rather than in Initialize.
func (e *Engine) DetectLanguage(text string) (string, bool) {
	e.detectorOnce.Do(func() { e.detector = detector.New() })
	code, ok := e.detector.DetectISO(text)
	return strings.ToLower(code), ok
}

// run executes the pipeline and, outside debug mode, strips the verbose
// per-layer input/output text spec §6 says debug mode alone should include.
func (e *Engine) run(tctx *translation.Context) translation.TranslationResult {
	result := e.pipeline.Run(tctx)
	e.layerInvocations.Add(int64(result.LayersProcessed))
	if score, ok := tctx.GetMetadata("quality_score"); ok {
		result.Context = map[string]string{"quality_score": score}
	}
	if !tctx.DebugMode {
		for i := range result.LayerResults {
			result.LayerResults[i].InputText = ""
			result.LayerResults[i].OutputText = ""
		}
	}
	return result
}

func (e *Engine) recordResult(tctx *translation.Context, result translation.TranslationResult) {
	if result.HasError {
		e.requestsFailed.Add(1)
	}
	entry := repository.TranslationHistoryEntry{
		OriginalText:     result.OriginalText,
		TranslatedText:   result.TranslatedText,
		LanguagePair:     result.LanguagePair,
		Confidence:       result.Confidence,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Timestamp:        result.Timestamp,
		SessionID:        tctx.SessionID,
		Metadata:         result.Context,
	}
	retryErr := orchestrator.Retry(context.Background(), orchestrator.DefaultRetryConfig(), func() error {
		return e.userDataRepo.AppendHistory(entry)
	})
	if retryErr != nil {
		e.logger.Warn("failed to append translation history", zap.Error(retryErr))
	}

	if e.memStore != nil && !result.HasError && !isCacheHit(result) {
		if err := e.memStore.SaveToMemory(context.Background(), result.OriginalText, tctx.SourceLanguage, tctx.TargetLanguage, result.TranslatedText); err != nil {
			e.logger.Warn("failed to populate memory cache", zap.Error(err))
		}
	}
}

// isCacheHit reports whether result was produced by checkMemoryCache rather
// than a full pipeline run, so recordResult does not immediately re-save a
// cache hit back into the cache (which would reset its usage_count).
func isCacheHit(result translation.TranslationResult) bool {
	for _, lr := range result.LayerResults {
		if lr.LayerName == "memory_cache" && lr.AdditionalInfo["cache_hit"] == "true" {
			return true
		}
	}
	return false
}

// checkMemoryCache consults the SQLite translation-memory accelerator for an
// exact or (if configured) fuzzy match before running the full pipeline
// (SPEC_FULL.md §4). A hit is reported as a TranslationResult with a single
// synthetic debug entry so callers inspecting LayerResults can tell a cache
// hit from a pipeline run.
func (e *Engine) checkMemoryCache(ctx context.Context, tctx *translation.Context) (translation.TranslationResult, bool) {
	text, found, err := e.memStore.GetCachedTranslation(ctx, tctx.OriginalText, tctx.SourceLanguage, tctx.TargetLanguage)
	if err != nil {
		e.logger.Warn("memory cache lookup failed", zap.Error(err))
		return translation.TranslationResult{}, false
	}
	if found {
		return e.cacheHitResult(tctx, text, 1.0), true
	}

	if e.cfg.MemoryCache.FuzzyThreshold > 0 {
		text, found, err = e.memStore.FuzzyGetCachedTranslation(ctx, tctx.OriginalText, tctx.SourceLanguage, tctx.TargetLanguage, e.cfg.MemoryCache.FuzzyThreshold)
		if err != nil {
			e.logger.Warn("fuzzy memory cache lookup failed", zap.Error(err))
			return translation.TranslationResult{}, false
		}
		if found {
			return e.cacheHitResult(tctx, text, e.cfg.MemoryCache.FuzzyThreshold), true
		}
	}

	return translation.TranslationResult{}, false
}

// cacheHitResult builds the TranslationResult returned for a memory-cache
// hit. confidence carries the store's own signal (1.0 for an exact match, the
// fuzzy-match threshold for a fuzzy one) rather than being blended with the
// per-layer confidence weights a full pipeline run would produce.
func (e *Engine) cacheHitResult(tctx *translation.Context, text string, confidence float64) translation.TranslationResult {
	return translation.TranslationResult{
		OriginalText:   tctx.OriginalText,
		TranslatedText: text,
		LanguagePair:   tctx.LanguagePair(),
		Confidence:     confidence,
		Timestamp:      time.Now().UTC(),
		LayerResults: []translation.LayerDebugInfo{
			{
				LayerName:      "memory_cache",
				IsSuccessful:   true,
				WasModified:    true,
				ImpactLevel:    translation.ImpactNone,
				AdditionalInfo: map[string]string{"cache_hit": "true"},
			},
		},
	}
}

// GetMetrics returns a snapshot of request counters, queue occupancy, and
// per-kind cache metrics (spec §6).
func (e *Engine) GetMetrics() Metrics {
	m := Metrics{
		RequestsTotal:    e.requestsTotal.Load(),
		RequestsFailed:   e.requestsFailed.Load(),
		LayerInvocations: e.layerInvocations.Load(),
		WordsCache:       e.dictionaryRepo.CacheMetrics(),
		PhrasesCache:     e.phraseRepo.CacheMetrics(),
	}
	if e.admission != nil {
		m.QueueCapacity = cap(e.admission)
		m.QueueDepth = len(e.admission)
	}
	return m
}

// GetCacheInfo returns the metrics for each named cache kind (spec §6).
func (e *Engine) GetCacheInfo() map[cache.Kind]cache.Metrics {
	return map[cache.Kind]cache.Metrics{
		cache.KindWords:   e.dictionaryRepo.CacheMetrics(),
		cache.KindPhrases: e.phraseRepo.CacheMetrics(),
	}
}

// ClearCache flushes one cache kind, or every cache kind when kind is
// cache.KindGeneric or unrecognized (spec §6).
func (e *Engine) ClearCache(kind cache.Kind) {
	switch kind {
	case cache.KindWords:
		e.dictionaryRepo.ClearCache()
	case cache.KindPhrases:
		e.phraseRepo.ClearCache()
	default:
		e.dictionaryRepo.ClearCache()
		e.phraseRepo.ClearCache()
	}
}

// Reset clears every cache and zeroes request counters without touching any
// on-disk repository data (spec §6).
func (e *Engine) Reset() {
	e.dictionaryRepo.ClearCache()
	e.phraseRepo.ClearCache()
	e.requestsTotal.Store(0)
	e.requestsFailed.Store(0)
	e.layerInvocations.Store(0)
}

// Dispose marks the engine unusable for further Translate calls, closes the
// memory-cache database handle if one was opened, and flushes the logger.
// The file-backed repositories hold no persistent handles between calls
// (every read/write opens and closes its own file), so memStore is the only
// other resource to release.
func (e *Engine) Dispose() error {
	e.disposed.Store(true)
	if e.memStore != nil {
		if err := e.memStore.Close(); err != nil {
			e.logger.Warn("failed to close memory cache", zap.Error(err))
		}
	}
	return e.logger.Sync()
}

// Package pipeline runs an ordered set of layers over a translation.Context
// and assembles their outcomes into a translation.TranslationResult (spec
// §4.6).
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/translation"
)

// Pipeline holds a fixed, priority-ordered list of layers and runs them in
// sequence against a Context.
type Pipeline struct {
	layers []layer.Layer
	logger *zap.Logger
}

// New builds a Pipeline from layers, sorting them by ascending Priority.
// logger may be nil, in which case a no-op logger is used.
func New(logger *zap.Logger, layers ...layer.Layer) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := append([]layer.Layer(nil), layers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })
	return &Pipeline{layers: sorted, logger: logger}
}

// Run executes every applicable layer in order against ctx and returns the
// assembled result. A layer whose CanHandle returns false is skipped
// entirely (no debug entry). A layer whose ValidateInput fails, or whose
// Process reports Success=false, is recorded as a non-fatal error: its debug
// info is kept, ctx.TranslatedText is left untouched by that layer, and the
// pipeline continues to the next layer. Only a panic recovered from a layer
// is treated as fatal to that layer's contribution, never to the whole run.
func (p *Pipeline) Run(ctx *translation.Context) translation.TranslationResult {
	start := time.Now()
	result := translation.TranslationResult{
		OriginalText: ctx.OriginalText,
		LanguagePair: ctx.LanguagePair(),
		Confidence:   1.0,
		Timestamp:    time.Now().UTC(),
	}

	var confidenceSum float64
	var confidenceCount int

	for _, l := range p.layers {
		if !l.CanHandle(ctx) {
			continue
		}

		if err := l.ValidateInput(ctx); err != nil {
			p.logger.Warn("layer input validation failed",
				zap.String("layer", l.Name()), zap.Error(err))
			result.LayerResults = append(result.LayerResults, translation.LayerDebugInfo{
				LayerName:    l.Name(),
				HasError:     true,
				ErrorMessage: err.Error(),
				ImpactLevel:  translation.ImpactNone,
			})
			continue
		}

		layerResult := p.runLayerSafely(l, ctx)
		result.LayerResults = append(result.LayerResults, layerResult.DebugInfo)
		result.LayersProcessed++

		if layerResult.Success {
			ctx.TranslatedText = layerResult.ProcessedText
			if layerResult.Confidence > 0 {
				confidenceSum += layerResult.Confidence
				confidenceCount++
			}
		} else {
			p.logger.Warn("layer reported failure, leaving text unchanged",
				zap.String("layer", l.Name()), zap.String("error", layerResult.ErrorMessage))
		}
	}

	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float64(confidenceCount)
	}

	result.TranslatedText = ctx.TranslatedText
	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return result
}

// runLayerSafely recovers a panicking layer so one broken layer cannot take
// down the whole pipeline; the panic is surfaced as a normal layer error.
func (p *Pipeline) runLayerSafely(l layer.Layer, ctx *translation.Context) (result translation.LayerResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("layer panicked", zap.String("layer", l.Name()), zap.Any("recover", r))
			result = translation.Errored(l.Name(), ctx.TranslatedText, fmt.Errorf("panic: %v", r))
		}
	}()
	return layer.ProcessWithMetrics(l, ctx)
}

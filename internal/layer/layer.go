// Package layer defines the pipeline stage contract every translation layer
// implements (spec §4.5): a priority-ordered, independently testable unit
// that can decline to run, transform the in-flight text, and report
// structured debug information about what it did.
package layer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/valpere/lexbridge/internal/translation"
)

// Priority values fix the order layers run in (spec §4.5). Lower runs
// first. Custom layers may use any int; these are the six built-in stages.
const (
	PriorityPreprocessing  = 0
	PriorityPhrase         = 100
	PriorityDictionary     = 200
	PriorityGrammar        = 300
	PriorityWordOrder      = 400
	PriorityPostProcessing = 500
)

// Layer is one stage of the translation pipeline.
type Layer interface {
	// Name is a short, stable identifier used in debug info and logs.
	Name() string
	// Description is a one-line human-readable summary.
	Description() string
	// Priority fixes this layer's position in the pipeline; layers run in
	// ascending priority order.
	Priority() int
	// CanHandle reports whether this layer applies to ctx at all. A layer
	// that returns false is skipped entirely: it contributes no LayerResult
	// and no LayerDebugInfo.
	CanHandle(ctx *translation.Context) bool
	// ValidateInput checks ctx is in a state this layer can process,
	// returning a descriptive error if not (e.g. a prior layer was required
	// to populate a field this layer depends on).
	ValidateInput(ctx *translation.Context) error
	// Process transforms ctx.TranslatedText and returns the outcome. Process
	// must not be called unless CanHandle returned true and ValidateInput
	// returned nil.
	Process(ctx *translation.Context) translation.LayerResult
}

// ProcessWithMetrics runs l.Process under a stopwatch and builds the
// LayerDebugInfo spec §4.6 requires for every layer invocation, regardless
// of outcome. The caller is still responsible for invoking CanHandle and
// ValidateInput beforehand; ProcessWithMetrics assumes both already passed.
func ProcessWithMetrics(l Layer, ctx *translation.Context) translation.LayerResult {
	input := ctx.TranslatedText
	start := time.Now()
	result := l.Process(ctx)
	elapsed := time.Since(start)

	debug := translation.LayerDebugInfo{
		LayerName:        l.Name(),
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000.0,
		IsSuccessful:     result.Success,
		HasError:         result.ErrorMessage != "",
		ErrorMessage:     result.ErrorMessage,
		InputText:        input,
		OutputText:       result.ProcessedText,
		WasModified:      input != result.ProcessedText,
		AdditionalInfo:   map[string]string{},
	}
	debug.ImpactLevel = impactLevel(input, result.ProcessedText)
	if result.DebugInfo.ItemsProcessed > 0 {
		debug.ItemsProcessed = result.DebugInfo.ItemsProcessed
	}
	if result.DebugInfo.ModificationsCount > 0 {
		debug.ModificationsCount = result.DebugInfo.ModificationsCount
	}
	debug.CacheHits = result.DebugInfo.CacheHits
	debug.CacheMisses = result.DebugInfo.CacheMisses
	for k, v := range result.DebugInfo.AdditionalInfo {
		debug.AdditionalInfo[k] = v
	}
	debug.Warnings = append(debug.Warnings, result.DebugInfo.Warnings...)

	result.DebugInfo = debug
	return result
}

var backreference = regexp.MustCompile(`\\(\d+)|\$(\d+)|\$\{(\d+)\}`)

// ExpandAndReplace finds all matches of re in text and substitutes each one
// using template, which may reference capture groups as \N, $N, or ${N}
// (spec §4.10/§4.12). Unknown group indices expand to an empty string.
func ExpandAndReplace(re *regexp.Regexp, text, template string) string {
	return re.ReplaceAllStringFunc(text, func(match string) string {
		groups := re.FindStringSubmatch(match)
		return backreference.ReplaceAllStringFunc(template, func(ref string) string {
			idxStr := strings.Trim(ref, `\$\{\}`)
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 || idx >= len(groups) {
				return ""
			}
			return groups[idx]
		})
	})
}

// impactLevel classifies how much Process changed the text, a coarse signal
// surfaced in debug output rather than a precise diff metric.
func impactLevel(before, after string) translation.ImpactLevel {
	if before == after {
		return translation.ImpactNone
	}
	delta := len(before) - len(after)
	if delta < 0 {
		delta = -delta
	}
	switch {
	case len(before) == 0:
		return translation.ImpactHigh
	case float64(delta)/float64(len(before)) < 0.1:
		return translation.ImpactLow
	case float64(delta)/float64(len(before)) < 0.4:
		return translation.ImpactMedium
	default:
		return translation.ImpactHigh
	}
}

// Package dictionary implements the word-level substitution pipeline stage
// (spec §4.9): forced overrides, exclusions, exact dictionary lookup, and a
// substring-search fallback, all while respecting phrase-layer protected
// ranges.
package dictionary

import (
	"strings"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/layers/preprocessing"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/translation"
)

const minConfidence = 0.3

// Layer implements layer.Layer for the dictionary stage.
type Layer struct {
	repo *repository.DictionaryRepository
}

// New builds the dictionary Layer.
func New(repo *repository.DictionaryRepository) *Layer {
	return &Layer{repo: repo}
}

func (l *Layer) Name() string        { return "dictionary" }
func (l *Layer) Description() string { return "per-word dictionary substitution" }
func (l *Layer) Priority() int       { return layer.PriorityDictionary }

func (l *Layer) CanHandle(ctx *translation.Context) bool {
	return strings.TrimSpace(ctx.TranslatedText) != ""
}

func (l *Layer) ValidateInput(ctx *translation.Context) error {
	if strings.TrimSpace(ctx.TranslatedText) == "" {
		return errEmptyText
	}
	return nil
}

// Process re-tokenizes the current text (it may have been rewritten by the
// phrase layer) and substitutes each word token in place, leaving every
// other token (punctuation, whitespace, newlines) exactly as it was found,
// so the original spacing is never disturbed.
func (l *Layer) Process(ctx *translation.Context) translation.LayerResult {
	pair := ctx.LanguagePair()
	tokens := preprocessing.Tokenize(ctx.TranslatedText)

	var out strings.Builder
	var successCount, attemptCount int
	var confSum float64
	translatedTokens := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		if tok.Type != translation.TokenWord {
			out.WriteString(tok.Original)
			continue
		}

		attemptCount++
		normalized := strings.ToLower(tok.Original)
		replacement := tok.Original
		confidence := 1.0

		switch {
		case ctx.IsProtected(tok.StartPosition, tok.EndPosition):
			// Leave text inside a phrase match untouched.
		case ctx.ForceTranslations[normalized] != "":
			replacement = ctx.ForceTranslations[normalized]
			ctx.DictionaryTranslations[normalized] = replacement
			successCount++
			confSum += confidence
		case ctx.IsExcluded(normalized):
			// Leave as-is.
		default:
			if best, ok := l.lookup(pair, normalized, ctx.IsQualityModeEnabled()); ok {
				replacement = best.target
				confidence = best.confidence
				ctx.DictionaryTranslations[normalized] = replacement
				successCount++
				confSum += confidence
			}
		}

		out.WriteString(replacement)
		translatedTokens = append(translatedTokens, replacement)
	}

	ctx.TranslatedTokens = translatedTokens
	if attemptCount > 0 {
		ctx.DictionarySuccessRate = float64(successCount) / float64(attemptCount)
	}

	result := translation.LayerResult{
		ProcessedText: out.String(),
		Success:       true,
	}
	if attemptCount > 0 {
		result.Confidence = confSum / float64(attemptCount)
	} else {
		result.Confidence = 1.0
	}
	result.DebugInfo.ItemsProcessed = attemptCount
	result.DebugInfo.ModificationsCount = successCount
	return result
}

type candidate struct {
	target     string
	confidence float64
}

// lookup resolves normalized to a translation: an exact dictionary hit, or a
// substring-search fallback when the word is at least two characters long and
// the best candidate clears minConfidence (spec §4.9).
func (l *Layer) lookup(pair, normalized string, qualityMode bool) (candidate, bool) {
	if entry, ok, err := l.repo.GetExact(pair, normalized); err == nil && ok {
		return candidate{target: entry.TargetWord, confidence: scoreEntry(entry, 1, qualityMode)}, true
	}

	if len(normalized) < 2 {
		return candidate{}, false
	}
	matches, err := l.repo.Search(pair, normalized, 5)
	if err != nil || len(matches) == 0 {
		return candidate{}, false
	}

	best := matches[0]
	bestConf := scoreEntry(best, len(matches), qualityMode)
	for _, m := range matches[1:] {
		if c := scoreEntry(m, len(matches), qualityMode); c > bestConf {
			best, bestConf = m, c
		}
	}
	if bestConf < minConfidence {
		return candidate{}, false
	}
	return candidate{target: best.TargetWord, confidence: bestConf}, true
}

// scoreEntry implements the confidence formula from spec §4.9.
func scoreEntry(entry repository.DictionaryEntry, candidateCount int, qualityMode bool) float64 {
	score := 0.7
	switch {
	case entry.Frequency > 1000:
		score += 0.2
	case entry.Frequency > 100:
		score += 0.1
	case entry.Frequency > 0 && entry.Frequency < 10:
		score -= 0.1
	}
	if candidateCount == 1 {
		score += 0.1
	} else if candidateCount > 5 {
		score -= 0.1
	}
	if entry.PartOfSpeech != "" {
		score += 0.05
	}
	if entry.Definition != "" {
		score += 0.05
	}
	if qualityMode {
		score *= 0.9
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

type validationError string

func (e validationError) Error() string { return string(e) }

const errEmptyText = validationError("translated text must not be empty")

// Package phrase implements the phrase-matching pipeline stage (spec §4.8):
// an exact full-text lookup first, then a longest-window-first n-gram sweep
// over the preprocessed word tokens.
package phrase

import (
	"strings"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/translation"
)

const (
	maxPhraseWords = 8
	minPhraseWords = 2
)

// Layer implements layer.Layer for the phrase stage.
type Layer struct {
	repo *repository.PhraseRepository
}

// New builds the phrase Layer.
func New(repo *repository.PhraseRepository) *Layer {
	return &Layer{repo: repo}
}

func (l *Layer) Name() string        { return "phrase" }
func (l *Layer) Description() string { return "exact and n-gram phrase substitution" }
func (l *Layer) Priority() int       { return layer.PriorityPhrase }

func (l *Layer) CanHandle(ctx *translation.Context) bool {
	return countWordTokens(ctx.PreprocessingTokens) >= minPhraseWords
}

func (l *Layer) ValidateInput(ctx *translation.Context) error {
	if len(ctx.PreprocessingTokens) == 0 {
		return errNoTokens
	}
	return nil
}

func countWordTokens(tokens []translation.TextToken) int {
	n := 0
	for _, t := range tokens {
		if t.Type == translation.TokenWord {
			n++
		}
	}
	return n
}

type match struct {
	startPos int
	endPos   int
	target   string
	conf     float64
}

func (l *Layer) Process(ctx *translation.Context) translation.LayerResult {
	pair := ctx.LanguagePair()
	wordIdx := wordTokenIndices(ctx.PreprocessingTokens)
	joined := joinNormalized(ctx.PreprocessingTokens, wordIdx, 0, len(wordIdx))

	if entry, ok, err := l.repo.GetExact(pair, joined); err == nil && ok {
		conf := clamp(max(0.7, float64(entry.Confidence)/100))
		_ = l.repo.IncrementUsage(pair, entry.SourcePhrase)

		result := translation.LayerResult{
			ProcessedText: entry.TargetPhrase,
			Success:       true,
			Confidence:    conf,
		}
		result.DebugInfo.ItemsProcessed = 1
		result.DebugInfo.ModificationsCount = 1
		if err := ctx.AddProtectedRange(translation.ProtectedRange{Start: 0, End: len([]rune(entry.TargetPhrase))}); err == nil {
			ctx.PhraseApplied = true
		}
		return result
	}

	matches := l.findNgramMatches(pair, ctx.PreprocessingTokens, wordIdx)
	if len(matches) == 0 {
		return translation.NoChange(l.Name(), ctx.TranslatedText)
	}

	processed, confidence := l.reconstruct(ctx, matches)
	result := translation.LayerResult{
		ProcessedText: processed,
		Success:       true,
		Confidence:    confidence,
	}
	result.DebugInfo.ItemsProcessed = len(matches)
	result.DebugInfo.ModificationsCount = len(matches)
	ctx.PhraseApplied = true
	return result
}

// findNgramMatches sweeps window lengths from maxPhraseWords down to
// minPhraseWords, left to right, skipping any window whose word indices
// overlap a previously matched window (spec §4.8: longer windows always win).
func (l *Layer) findNgramMatches(pair string, tokens []translation.TextToken, wordIdx []int) []match {
	used := make([]bool, len(wordIdx))
	var matches []match

	for windowLen := maxPhraseWords; windowLen >= minPhraseWords; windowLen-- {
		for start := 0; start+windowLen <= len(wordIdx); start++ {
			if windowOverlaps(used, start, windowLen) {
				continue
			}
			phrase := joinNormalized(tokens, wordIdx, start, start+windowLen)
			entry, ok, err := l.repo.GetExact(pair, phrase)
			if err != nil || !ok {
				continue
			}
			for i := start; i < start+windowLen; i++ {
				used[i] = true
			}
			firstTok := tokens[wordIdx[start]]
			lastTok := tokens[wordIdx[start+windowLen-1]]
			conf := clamp(max(0.6, float64(entry.Confidence)/100+0.05*float64(windowLen-2)))
			matches = append(matches, match{
				startPos: firstTok.StartPosition,
				endPos:   lastTok.EndPosition,
				target:   entry.TargetPhrase,
				conf:     conf,
			})
			_ = l.repo.IncrementUsage(pair, entry.SourcePhrase)
		}
	}

	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].startPos < matches[j-1].startPos; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	return matches
}

func windowOverlaps(used []bool, start, length int) bool {
	for i := start; i < start+length; i++ {
		if used[i] {
			return true
		}
	}
	return false
}

// reconstruct walks the original text and substitutes each match's source
// span with its target phrase, recording the substituted spans as
// OUTPUT-coordinate protected ranges (spec §4.8).
func (l *Layer) reconstruct(ctx *translation.Context, matches []match) (string, float64) {
	runes := []rune(ctx.TranslatedText)
	var b strings.Builder
	cursor := 0
	var sumConf float64

	for _, m := range matches {
		if m.startPos < cursor {
			continue // defensive: overlapping match from an upstream bug, skip
		}
		b.WriteString(string(runes[cursor:m.startPos]))
		outStart := len([]rune(b.String()))
		b.WriteString(m.target)
		outEnd := len([]rune(b.String()))
		_ = ctx.AddProtectedRange(translation.ProtectedRange{Start: outStart, End: outEnd})
		cursor = m.endPos
		sumConf += m.conf
	}
	if cursor < len(runes) {
		b.WriteString(string(runes[cursor:]))
	}

	meanConf := 1.0
	if len(matches) > 0 {
		meanConf = sumConf / float64(len(matches))
	}
	return b.String(), clamp(meanConf)
}

func wordTokenIndices(tokens []translation.TextToken) []int {
	var idx []int
	for i, t := range tokens {
		if t.Type == translation.TokenWord {
			idx = append(idx, i)
		}
	}
	return idx
}

func joinNormalized(tokens []translation.TextToken, wordIdx []int, from, to int) string {
	words := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		words = append(words, tokens[wordIdx[i]].Normalized)
	}
	return strings.Join(words, " ")
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type validationError string

func (e validationError) Error() string { return string(e) }

const errNoTokens = validationError("phrase layer requires preprocessing_tokens")

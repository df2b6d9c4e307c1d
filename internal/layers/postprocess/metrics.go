package postprocess

import (
	"regexp"
	"strings"
	"unicode"
)

// Metrics is the TextQualityMetrics spec §4.12 requires: simple counts plus
// a 0-1 quality_score that starts at 1.0 and loses 0.1 per failed check.
type Metrics struct {
	CharacterCount    int
	WordCount         int
	SentenceCount     int
	MeanWordsPerSentence float64
	StartsWithCapital bool
	EndsWithPunct     bool
	CorrectionsMade   int
	QualityScore      float64
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// computeMetrics scores the final text, crediting corrections for the
// number of substitutions the rules/spacing/cleanup steps actually made.
func computeMetrics(text string, correctionsMade int) Metrics {
	runes := []rune(text)
	words := strings.Fields(text)
	sentences := sentenceBoundary.Split(text, -1)
	sentenceCount := 0
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			sentenceCount++
		}
	}
	if sentenceCount == 0 {
		sentenceCount = 1
	}

	m := Metrics{
		CharacterCount:        len(runes),
		WordCount:             len(words),
		SentenceCount:         sentenceCount,
		MeanWordsPerSentence:  float64(len(words)) / float64(sentenceCount),
		StartsWithCapital:     startsWithCapital(text),
		EndsWithPunct:         endsWithTerminalPunct(text),
		CorrectionsMade:       correctionsMade,
	}

	score := 1.0
	if !m.StartsWithCapital {
		score -= 0.1
	}
	if !m.EndsWithPunct {
		score -= 0.1
	}
	if score < 0 {
		score = 0
	}
	m.QualityScore = score
	return m
}

func startsWithCapital(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return false
}

func endsWithTerminalPunct(text string) bool {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	return last == '.' || last == '!' || last == '?'
}

package postprocess

import (
	"regexp"
	"strings"
)

// quotePairs maps a target language to the quote characters its readers
// expect in place of ASCII straight quotes (spec §4.12 step 4).
var quotePairs = map[string][2]string{
	"es": {"«", "»"},
	"ru": {"«", "»"},
	"de": {"„", "“"},
	"fr": {"« ", " »"},
}

var asciiQuoted = regexp.MustCompile(`"([^"]*)"`)

var doubleSpaceAfterSentence = regexp.MustCompile(`([.!?]) `)

// applyLanguageFormatting replaces ASCII double-quoted spans with the
// target language's quote pair and, if requested, doubles the space after
// sentence-ending punctuation.
func applyLanguageFormatting(text, targetLanguage string, doubleSpace bool) string {
	if pair, ok := quotePairs[targetLanguage]; ok {
		text = asciiQuoted.ReplaceAllString(text, pair[0]+"$1"+pair[1])
	}
	if doubleSpace {
		text = doubleSpaceAfterSentence.ReplaceAllString(text, "$1  ")
	}
	return strings.TrimSpace(text)
}

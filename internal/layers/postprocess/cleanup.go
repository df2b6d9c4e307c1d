package postprocess

import (
	"regexp"
	"strings"
)

var (
	repeatedEllipsis  = regexp.MustCompile(`\.{3,}`)
	repeatedBang      = regexp.MustCompile(`!{2,}`)
	repeatedQuestion  = regexp.MustCompile(`\?{2,}`)
	spaceBeforeCapital = regexp.MustCompile(`([.!?])[ \t]{2,}([A-ZÀ-Ý])`)
)

// applyFinalCleanup collapses repeated terminal punctuation runs down to a
// single canonical form, normalizes the spacing before a capital letter
// that follows terminal punctuation, and trims the result (spec §4.12
// step 6).
func applyFinalCleanup(text string) string {
	text = repeatedEllipsis.ReplaceAllString(text, "...")
	text = repeatedBang.ReplaceAllString(text, "!!")
	text = repeatedQuestion.ReplaceAllString(text, "??")
	text = spaceBeforeCapital.ReplaceAllString(text, "$1 $2")
	return strings.TrimSpace(text)
}

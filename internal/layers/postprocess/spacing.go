package postprocess

import (
	"regexp"
	"strings"
)

var (
	multiSpace        = regexp.MustCompile(`[ \t]+`)
	spaceBeforeMark   = regexp.MustCompile(`[ \t]+([,.!?;:])`)
	markWithoutSpace  = regexp.MustCompile(`([,.!?;:])([A-Za-z])`)
	spaceAfterOpen    = regexp.MustCompile(`([(\[«"“])[ \t]+`)
	spaceBeforeClose  = regexp.MustCompile(`[ \t]+([)\]»"”])`)
)

// applySpacing collapses whitespace runs, removes a stray space before
// terminal/clause punctuation, inserts one between punctuation and a
// following letter that has none, and tightens spacing around parentheses
// and quotes (spec §4.12 step 1).
func applySpacing(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = spaceBeforeMark.ReplaceAllString(text, "$1")
	text = markWithoutSpace.ReplaceAllString(text, "$1 $2")
	text = spaceAfterOpen.ReplaceAllString(text, "$1")
	text = spaceBeforeClose.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

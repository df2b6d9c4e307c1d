package preprocessing

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`[ \t]+`)
	blankLinesRun = regexp.MustCompile(`\n{3,}`)
)

// spaceLike covers the Unicode space separators the spec asks to fold to
// ASCII space. Expressed as \u escapes, not literal glyphs, so every entry
// is an unambiguous, distinct code point in source.
var spaceLike = map[rune]bool{
	' ': true, // non-breaking space
	' ': true, // en quad
	' ': true, // em quad
	' ': true, // en space
	' ': true, // em space
	' ': true, // three-per-em space
	' ': true, // four-per-em space
	' ': true, // six-per-em space
	' ': true, // figure space
	' ': true, // punctuation space
	' ': true, // thin space
	' ': true, // hair space
	' ': true, // narrow no-break space
	' ': true, // medium mathematical space
	'　': true, // ideographic space
}

var zeroWidth = map[rune]bool{
	'​': true, // zero width space
	'‌': true, // zero width non-joiner
	'‍': true, // zero width joiner
	'﻿': true, // zero width no-break space / BOM
}

var dashLike = map[rune]bool{
	'–': true, // en dash
	'—': true, // em dash
	'―': true, // horizontal bar
}

var quoteMap = map[rune]rune{
	'“': '"',  // left double quotation mark
	'”': '"',  // right double quotation mark
	'„': '"',  // double low-9 quotation mark
	'«': '"',  // left-pointing double angle quote
	'»': '"',  // right-pointing double angle quote
	'‘': '\'', // left single quotation mark
	'’': '\'', // right single quotation mark
	'‚': '\'', // single low-9 quotation mark
}

const ellipsisRune = '…' // horizontal ellipsis

// normalizeUnicode folds spaces, curly quotes, dashes, and ellipsis to their
// ASCII equivalents and strips zero-width characters (spec §4.7).
func normalizeUnicode(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case zeroWidth[r]:
			continue
		case spaceLike[r]:
			b.WriteRune(' ')
		case dashLike[r]:
			b.WriteRune('-')
		case r == ellipsisRune:
			b.WriteString("...")
		default:
			if repl, ok := quoteMap[r]; ok {
				b.WriteRune(repl)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// collapseWhitespace folds runs of horizontal whitespace to a single space
// and runs of 3+ newlines to a double newline, leaving paragraph breaks
// intact.
func collapseWhitespace(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = blankLinesRun.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

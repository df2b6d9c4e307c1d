package preprocessing

import (
	"regexp"
	"unicode"

	"github.com/valpere/lexbridge/internal/translation"
)

var (
	urlPattern     = regexp.MustCompile(`\bhttps?://[^\s<>"']+`)
	emailPattern   = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`)
	hashtagPattern = regexp.MustCompile(`#[\w]+`)
	mentionPattern = regexp.MustCompile(`@[\w]+`)
)

// isWordRune reports whether r belongs in a `word` run per spec §4.7: ASCII
// letters, digits within a word run, Cyrillic, CJK, apostrophe, hyphen,
// underscore.
func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 0x0400 && r <= 0x04FF: // Cyrillic
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return true
	case r == '\'' || r == '-' || r == '_':
		return true
	}
	return false
}

func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }

// Tokenize produces a single linear pass of non-overlapping tokens: reserved
// matchers (URL, email, hashtag, mention) run first and claim their ranges,
// then the remainder is classified into word/number/punctuation/whitespace/
// newline runs (spec §4.7).
func Tokenize(text string) []translation.TextToken {
	runes := []rune(text)
	n := len(runes)
	reserved := make([]bool, n)
	claimType := make([]translation.TokenType, n)

	claim := func(pattern *regexp.Regexp, t translation.TokenType) {
		for _, loc := range pattern.FindAllStringIndex(string(runes), -1) {
			start, end := byteToRuneIndex(runes, loc[0]), byteToRuneIndex(runes, loc[1])
			for i := start; i < end; i++ {
				reserved[i] = true
				claimType[i] = t
			}
		}
	}
	claim(urlPattern, translation.TokenURL)
	claim(emailPattern, translation.TokenEmail)
	claim(hashtagPattern, translation.TokenHashtag)
	claim(mentionPattern, translation.TokenMention)

	var tokens []translation.TextToken
	i := 0
	for i < n {
		if reserved[i] {
			t := claimType[i]
			start := i
			for i < n && reserved[i] && claimType[i] == t {
				i++
			}
			tokens = append(tokens, makeToken(runes, start, i, t))
			continue
		}

		r := runes[i]
		switch {
		case r == '\n':
			start := i
			for i < n && !reserved[i] && runes[i] == '\n' {
				i++
			}
			tokens = append(tokens, makeToken(runes, start, i, translation.TokenNewline))
		case unicode.IsSpace(r):
			start := i
			for i < n && !reserved[i] && unicode.IsSpace(runes[i]) && runes[i] != '\n' {
				i++
			}
			tokens = append(tokens, makeToken(runes, start, i, translation.TokenWhitespace))
		case isWordRune(r):
			start := i
			allDigits := isDigitRune(r)
			for i < n && !reserved[i] && (isWordRune(runes[i]) || (allDigits && (runes[i] == '.' || runes[i] == ','))) {
				if !isDigitRune(runes[i]) && runes[i] != '.' && runes[i] != ',' {
					allDigits = false
				}
				i++
			}
			tokType := translation.TokenWord
			if allDigits {
				tokType = translation.TokenNumber
			}
			tokens = append(tokens, makeToken(runes, start, i, tokType))
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			start := i
			for i < n && !reserved[i] && (unicode.IsPunct(runes[i]) || unicode.IsSymbol(runes[i])) {
				i++
			}
			tokens = append(tokens, makeToken(runes, start, i, translation.TokenPunctuation))
		default:
			start := i
			i++
			tokens = append(tokens, makeToken(runes, start, i, translation.TokenUnknown))
		}
	}
	return tokens
}

func makeToken(runes []rune, start, end int, t translation.TokenType) translation.TextToken {
	original := string(runes[start:end])
	return translation.TextToken{
		Original:      original,
		Normalized:    original,
		StartPosition: start,
		EndPosition:   end,
		Type:          t,
		Confidence:    1.0,
	}
}

// byteToRuneIndex converts a byte offset into string(runes) back to a rune
// index. Used because regexp operates on byte offsets but tokens are
// addressed by rune position throughout the pipeline.
func byteToRuneIndex(runes []rune, byteOffset int) int {
	count := 0
	for i, r := range string(runes) {
		if i >= byteOffset {
			return count
		}
		count++
		_ = r
	}
	return len(runes)
}

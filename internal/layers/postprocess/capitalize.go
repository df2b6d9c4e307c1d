package postprocess

import (
	"regexp"
	"strings"
	"unicode"
)

var sentenceSplit = regexp.MustCompile(`([.!?]\s+)`)

var germanStopwords = map[string]bool{
	"und": true, "der": true, "die": true, "das": true, "ist": true,
	"nicht": true, "mit": true, "für": true, "von": true, "auf": true,
	"aber": true, "oder": true, "auch": true, "nur": true, "sehr": true,
	"schon": true, "noch": true, "dann": true, "wenn": true, "wie": true,
	"was": true, "wer": true, "wo": true, "eine": true, "einen": true,
	"dem": true, "den": true, "des": true,
}

// applyCapitalization uppercases the first letter of each sentence (split
// at `[.!?]\s+`) and then runs a target-language-specific pass: `en`
// uppercases the standalone pronoun "i"; `de` uppercases non-stopword
// tokens longer than three characters, a rough stand-in for German's
// capitalized-noun convention (spec §4.12 step 2).
func applyCapitalization(text, targetLanguage string) string {
	parts := sentenceSplit.Split(text, -1)
	seps := sentenceSplit.FindAllString(text, -1)

	var out strings.Builder
	for i, part := range parts {
		out.WriteString(uppercaseFirstLetter(part))
		if i < len(seps) {
			out.WriteString(seps[i])
		}
	}
	text = out.String()

	switch targetLanguage {
	case "en":
		text = uppercaseStandaloneI(text)
	case "de":
		text = uppercaseGermanContentWords(text)
	}
	return text
}

func uppercaseFirstLetter(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			return string(runes)
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	return s
}

var standaloneI = regexp.MustCompile(`\bi\b`)

func uppercaseStandaloneI(text string) string {
	return standaloneI.ReplaceAllString(text, "I")
}

var wordToken = regexp.MustCompile(`\p{L}+`)

func uppercaseGermanContentWords(text string) string {
	return wordToken.ReplaceAllStringFunc(text, func(word string) string {
		lower := strings.ToLower(word)
		if len(word) > 3 && !germanStopwords[lower] {
			return uppercaseFirstLetter(word)
		}
		return word
	})
}

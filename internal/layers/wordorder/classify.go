package wordorder

import "strings"

// role is the heuristic syntactic role assigned to one word of a sentence
// (spec §4.11). The set is intentionally small: these are hand-coded
// lexical/positional heuristics, not a parser.
type role string

const (
	roleSubject     role = "subject"
	roleVerb        role = "verb"
	roleObject      role = "object"
	roleArticle     role = "article"
	rolePreposition role = "preposition"
	roleConjunction role = "conjunction"
	roleAdjective   role = "adjective"
	roleAdverb      role = "adverb"
	roleUnknown     role = "unknown"
)

var articles = map[string]bool{
	"a": true, "an": true, "the": true,
}

var prepositions = map[string]bool{
	"in": true, "on": true, "at": true, "to": true, "of": true, "for": true,
	"with": true, "by": true, "from": true, "into": true, "onto": true,
	"about": true, "over": true, "under": true, "between": true, "through": true,
}

var conjunctions = map[string]bool{
	"and": true, "or": true, "but": true, "because": true, "although": true,
	"so": true, "yet": true, "nor": true, "while": true,
}

var commonVerbs = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "am": true,
	"be": true, "been": true, "being": true,
	"has": true, "have": true, "had": true,
	"do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true,
	"shall": true, "should": true, "may": true, "might": true, "must": true,
	"go": true, "goes": true, "went": true,
	"see": true, "sees": true, "saw": true,
	"make": true, "makes": true, "made": true,
	"take": true, "takes": true, "took": true,
	"give": true, "gives": true, "gave": true,
	"say": true, "says": true, "said": true,
	"want": true, "wants": true, "wanted": true,
	"like": true, "likes": true, "liked": true,
	"eat": true, "eats": true, "ate": true,
	"love": true, "loves": true, "loved": true,
	"buy": true, "buys": true, "bought": true,
	"read": true, "reads": true,
	"write": true, "writes": true, "wrote": true,
}

var adverbSuffixes = []string{"ly"}
var adjectiveSuffixes = []string{"ive", "ous", "al", "ful", "able", "ible"}
var verbSuffixes = []string{"ing", "ed"}

// lexicalRole classifies word (already lowercased) purely from fixed lexical
// sets and suffix patterns, with no awareness of sentence position. Words
// that match nothing lexically come back roleUnknown; assignRoles resolves
// those positionally.
func lexicalRole(word string) role {
	switch {
	case articles[word]:
		return roleArticle
	case prepositions[word]:
		return rolePreposition
	case conjunctions[word]:
		return roleConjunction
	case commonVerbs[word]:
		return roleVerb
	}
	if hasSuffix(word, verbSuffixes) {
		return roleVerb
	}
	if hasSuffix(word, adverbSuffixes) {
		return roleAdverb
	}
	if hasSuffix(word, adjectiveSuffixes) {
		return roleAdjective
	}
	return roleUnknown
}

// assignRoles resolves each lexically-unknown word to subject or object
// using the positional rules from spec §4.11: the first content word is the
// subject, and the word that follows a verb (skipping over any leading
// article/adjective/adverb modifiers) is the object. Articles, prepositions,
// conjunctions, adjectives, and adverbs keep their lexical role unchanged;
// they never become subject/object themselves.
func assignRoles(words []string) []role {
	roles := make([]role, len(words))
	haveSubject := false
	afterVerb := false

	for i, w := range words {
		r := lexicalRole(w)
		if r == roleUnknown {
			switch {
			case afterVerb:
				r = roleObject
			case !haveSubject:
				r = roleSubject
			}
		}

		switch r {
		case roleVerb:
			afterVerb = true
		case roleSubject:
			haveSubject = true
			afterVerb = false
		case roleObject, rolePreposition, roleConjunction:
			afterVerb = false
		}
		roles[i] = r
	}
	return roles
}

func hasSuffix(word string, suffixes []string) bool {
	for _, s := range suffixes {
		if len(word) > len(s)+1 && strings.HasSuffix(word, s) {
			return true
		}
	}
	return false
}

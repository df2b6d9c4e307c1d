package wordorder

import "strings"

// component is a head word (subject, verb, object, preposition, or
// conjunction) together with the modifiers (articles, adjectives, adverbs,
// unclassified words) that precede or trail it in the source sentence.
type component struct {
	head  role
	words []string
	core  bool
}

func (c component) text() string { return strings.Join(c.words, " ") }

// chunk groups a sentence's already-classified words into components: every
// subject/verb/object/preposition/conjunction word starts a new component
// and absorbs any pending article/adjective/adverb modifiers as a prefix
// (spec §4.11: "articles and prepositions retain their leading position"
// falls out naturally here, since a leading article becomes the first word
// of the component it introduces, and a preposition IS the leading word of
// its own component). Modifiers with no following head (a trailing
// adjective at sentence end, say) form a final non-core component. roles[i]
// is the role already assigned to words[i]; classification happens
// separately so callers can classify a lowercased copy while chunking the
// original-case words.
func chunk(words []string, roles []role) []component {
	var components []component
	var pending []string
	var current *component

	pushCurrent := func() {
		if current != nil {
			components = append(components, *current)
			current = nil
		}
	}

	for i, r := range roles {
		w := words[i]
		switch r {
		case roleSubject, roleVerb, roleObject, rolePreposition, roleConjunction:
			pushCurrent()
			current = &component{
				head:  r,
				words: append(pending, w),
				core:  r == roleSubject || r == roleVerb || r == roleObject,
			}
			pending = nil
		default:
			pending = append(pending, w)
		}
	}
	pushCurrent()
	if len(pending) > 0 {
		components = append(components, component{head: roleUnknown, words: pending, core: false})
	}
	return components
}

// targetOrders maps a target language to its declared canonical order
// (spec §4.11).
var targetOrders = map[string][3]role{
	"en": {roleSubject, roleVerb, roleObject},
	"es": {roleSubject, roleVerb, roleObject},
	"fr": {roleSubject, roleVerb, roleObject},
	"it": {roleSubject, roleVerb, roleObject},
	"pt": {roleSubject, roleVerb, roleObject},
	"ru": {roleSubject, roleVerb, roleObject},
	"zh": {roleSubject, roleVerb, roleObject},
	"he": {roleSubject, roleVerb, roleObject},
	"de": {roleSubject, roleObject, roleVerb},
	"ja": {roleSubject, roleObject, roleVerb},
	"ko": {roleSubject, roleObject, roleVerb},
	"tr": {roleSubject, roleObject, roleVerb},
	"hi": {roleSubject, roleObject, roleVerb},
	"ar": {roleVerb, roleSubject, roleObject},
}

// reorder rebuilds the sentence from components: the first-found subject,
// verb, and object components are placed in targetLanguage's declared
// order; every other component (extra core repeats, prepositional phrases,
// conjunctions, leading leftovers) is appended afterward in its original
// relative order (spec §4.11).
func reorder(components []component, targetLanguage string) string {
	order, ok := targetOrders[targetLanguage]
	if !ok {
		order = targetOrders["en"]
	}

	core := map[role]component{}
	var trailing []component
	for _, c := range components {
		if c.core {
			if _, seen := core[c.head]; !seen {
				core[c.head] = c
				continue
			}
		}
		trailing = append(trailing, c)
	}

	var parts []string
	for _, r := range order {
		if c, ok := core[r]; ok {
			parts = append(parts, c.text())
		}
	}
	for _, c := range trailing {
		parts = append(parts, c.text())
	}
	return strings.Join(parts, " ")
}

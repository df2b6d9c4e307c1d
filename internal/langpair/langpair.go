// Package langpair validates language codes using golang.org/x/text/language,
// the same parser the teacher's Google Translate service used to validate its
// source/target arguments before calling out to the network. Here it
// validates the (source, target) pair an Engine.Translate call receives,
// rejecting an unrecognized code before any pipeline work starts.
package langpair

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Pair is a validated, normalized source/target language pair.
type Pair struct {
	Source string
	Target string
}

// Parse validates source and target as BCP-47 language tags (a plain
// ISO 639-1 code like "en" parses as a minimal tag) and returns their
// lowercased base-language form. Neither argument may be empty.
func Parse(source, target string) (Pair, error) {
	src, err := normalize(source)
	if err != nil {
		return Pair{}, fmt.Errorf("invalid source language %q: %w", source, err)
	}
	tgt, err := normalize(target)
	if err != nil {
		return Pair{}, fmt.Errorf("invalid target language %q: %w", target, err)
	}
	return Pair{Source: src, Target: tgt}, nil
}

func normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	return strings.ToLower(base.String()), nil
}

// String renders the pair as "source-target", the same key format
// translation.Context.LanguagePair and the repository layer both use.
func (p Pair) String() string {
	return p.Source + "-" + p.Target
}

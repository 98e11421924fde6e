// Package morph provides the inflection capability used when rewriting
// matched entity mentions to their canonical spelling. Implementations may
// call an external morphology service; the identity inflector is used when
// no such service is configured.
package morph

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Inflector re-inflects a canonical form to agree with the grammatical
// features (number, case, gender) of a source word. Implementations return
// an error when inflection is unavailable for the target features.
type Inflector interface {
	Inflect(word string, canonical string) (string, error)
}

// Identity returns the canonical form unchanged. Used when morphological
// analysis is not configured for the corpus language.
type Identity struct{}

func (Identity) Inflect(word string, canonical string) (string, error) {
	return canonical, nil
}

// InflectToMatch produces the replacement text for a matched span: the
// canonical form inflected to agree with the source word, falling back to
// the unmodified canonical form when inflection fails. The result is
// capitalized when either the source word or the canonical form began with
// an uppercase letter.
func InflectToMatch(inf Inflector, word string, canonical string) string {
	result := canonical
	if inf != nil {
		if inflected, err := inf.Inflect(word, canonical); err == nil && inflected != "" {
			result = inflected
		}
	}

	if startsUpper(canonical) || startsUpper(word) {
		result = capitalize(result)
	}
	return result
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

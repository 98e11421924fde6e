package gazetteer

import (
	"sort"

	"github.com/lorebase/lorebase/pkg/morph"
)

// Extract runs matching and resolution in one step, returning the final
// non-overlapping span set for a text.
func (m *Matcher) Extract(text string) []Span {
	return Resolve(m.Match(text))
}

// Correct rewrites every resolved mention in text to its canonical
// spelling, inflected to agree with the surface form. Replacements are
// applied from the rightmost span to the leftmost so earlier offsets stay
// valid while the text is rewritten.
func (m *Matcher) Correct(text string, inf morph.Inflector) string {
	spans := m.Extract(text)
	if len(spans) == 0 {
		return text
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start > spans[j].Start
	})

	corrected := text
	for _, s := range spans {
		if s.Canonical == "" {
			continue
		}
		original := corrected[s.Start:s.End]
		replacement := morph.InflectToMatch(inf, original, s.Canonical)
		corrected = corrected[:s.Start] + replacement + corrected[s.End:]
	}
	return corrected
}

package gazetteer

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// DefaultCutoff is the minimum similarity ratio for a window to count
	// as a match.
	DefaultCutoff = 82.0

	// maxWindow is the widest token window considered, in tokens.
	maxWindow = 5

	// SourceGazetteer tags spans produced by dictionary matching.
	SourceGazetteer = "gazetteer"
)

// Span is a scored candidate mention of a dictionary entry in a text.
// Start and End are byte offsets forming a half-open interval.
type Span struct {
	Text      string  `json:"text"`
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Canonical string  `json:"canonical"`
	Score     float64 `json:"score"`
	Source    string  `json:"source"`
}

// Ratio computes a normalized similarity between two strings on a 0..100
// scale, based on Levenshtein distance over runes. Identical strings score
// 100; strings with no characters in common score 0.
func Ratio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 100
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// Matcher slides a bounded token window over text and scores each window
// against every index entry.
type Matcher struct {
	index  *Index
	cutoff float64
}

// NewMatcher creates a matcher over the given index. A cutoff <= 0 falls
// back to DefaultCutoff.
func NewMatcher(index *Index, cutoff float64) *Matcher {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return &Matcher{index: index, cutoff: cutoff}
}

// Match returns every candidate span whose fuzzy similarity against some
// index entry reaches the cutoff. Candidates may overlap; use Resolve to
// reduce them to a non-overlapping set. Pure function: no state is
// modified.
func (m *Matcher) Match(text string) []Span {
	tokens := Tokenize(text)
	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(t.Text)
	}

	spans := make([]Span, 0)
	for i := range tokens {
		limit := i + maxWindow
		if limit > len(tokens) {
			limit = len(tokens)
		}
		for j := i + 1; j <= limit; j++ {
			fragment := strings.Join(lowered[i:j], " ")
			fragLen := utf8.RuneCountInString(fragment)
			original := text[tokens[i].Start:tokens[j-1].End]

			for _, e := range m.index.entries {
				if !ratioReachable(fragLen, e.keyLen, m.cutoff) {
					continue
				}
				score := Ratio(fragment, e.key)
				if score >= m.cutoff {
					spans = append(spans, Span{
						Text:      original,
						Start:     tokens[i].Start,
						End:       tokens[j-1].End,
						Canonical: e.canonical,
						Score:     score,
						Source:    SourceGazetteer,
					})
				}
			}
		}
	}
	return spans
}

// ratioReachable reports whether two strings of the given rune lengths can
// possibly score at or above cutoff. The distance is at least the length
// difference, so the best case is 100*min/max.
func ratioReachable(la, lb int, cutoff float64) bool {
	min, max := la, lb
	if min > max {
		min, max = max, min
	}
	if max == 0 {
		return true
	}
	return 100*float64(min) >= cutoff*float64(max)
}

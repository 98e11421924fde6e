package gazetteer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

type dedupeKey struct {
	text   string
	start  int
	end    int
	source string
}

// Resolve deduplicates candidate spans and resolves overlaps into a
// non-overlapping set.
//
// Duplicates share (lowercased text, interval, source); the last-seen
// duplicate wins. Candidates are then ordered by ascending start, with
// longer spans first among equal starts, and scanned greedily: on the
// first overlap with an accepted span the better quality (score, then
// text length) survives. A candidate that loses its first comparison is
// discarded for good, even if its competitor is later displaced by a
// third span.
func Resolve(spans []Span) []Span {
	positions := make(map[dedupeKey]int, len(spans))
	deduped := make([]Span, 0, len(spans))
	for _, s := range spans {
		k := dedupeKey{
			text:   strings.ToLower(s.Text),
			start:  s.Start,
			end:    s.End,
			source: s.Source,
		}
		if pos, ok := positions[k]; ok {
			deduped[pos] = s
			continue
		}
		positions[k] = len(deduped)
		deduped = append(deduped, s)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Start != deduped[j].Start {
			return deduped[i].Start < deduped[j].Start
		}
		return deduped[i].End > deduped[j].End
	})

	result := make([]Span, 0, len(deduped))
	for _, e := range deduped {
		overlapped := false
		for ri, r := range result {
			if e.Start < r.End && r.Start < e.End {
				if betterQuality(e, r) {
					result = append(result[:ri], result[ri+1:]...)
					result = append(result, e)
				}
				overlapped = true
				break
			}
		}
		if !overlapped {
			result = append(result, e)
		}
	}
	return result
}

// betterQuality compares (score, text length) lexicographically and
// reports whether a is strictly better than b.
func betterQuality(a, b Span) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return utf8.RuneCountInString(a.Text) > utf8.RuneCountInString(b.Text)
}

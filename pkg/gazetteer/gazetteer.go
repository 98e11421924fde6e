// Package gazetteer implements fuzzy dictionary matching over free text:
// a read-only index of canonical entity names, a windowed fuzzy matcher
// that emits scored candidate spans, and a resolver that reduces the
// candidates to a non-overlapping set.
package gazetteer

import (
	"strings"
	"unicode/utf8"
)

type entry struct {
	canonical string
	key       string
	keyLen    int
}

// Index holds the canonical entity names used as the matching dictionary.
// It is built once and safe for concurrent readers.
type Index struct {
	entries []entry
}

// NewIndex builds an index from canonical names. Blank names are skipped
// and duplicates keep their first occurrence.
func NewIndex(names []string) *Index {
	seen := make(map[string]struct{}, len(names))
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		key := strings.ToLower(name)
		entries = append(entries, entry{
			canonical: name,
			key:       key,
			keyLen:    utf8.RuneCountInString(key),
		})
	}
	return &Index{entries: entries}
}

// Len returns the number of entries in the index.
func (x *Index) Len() int {
	return len(x.entries)
}

// Canonicals returns a copy of the canonical names in index order.
func (x *Index) Canonicals() []string {
	out := make([]string, len(x.entries))
	for i, e := range x.entries {
		out[i] = e.canonical
	}
	return out
}

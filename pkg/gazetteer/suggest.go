package gazetteer

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns up to limit canonical names ranked by fuzzy closeness to
// the query, best first. Useful for interactive entity lookup; matching is
// case- and diacritic-insensitive.
func (x *Index) Suggest(query string, limit int) []string {
	if query == "" || limit <= 0 {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(query, x.Canonicals())
	sort.Sort(ranks)

	out := make([]string, 0, limit)
	for _, r := range ranks {
		out = append(out, r.Target)
		if len(out) == limit {
			break
		}
	}
	return out
}

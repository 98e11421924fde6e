// Package relevance ranks candidate graph nodes by shortest-path proximity
// to each other, surfacing connector nodes along the way.
package relevance

import (
	"context"
	"sort"
	"sync"

	"github.com/lorebase/lorebase/pkg/graphstore"
	"github.com/lorebase/lorebase/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxHops bounds the length of qualifying paths.
	DefaultMaxHops = 5

	// DefaultWorkers bounds concurrent pairwise path queries.
	DefaultWorkers = 8
)

// DefaultExcludedRelations lists structural relation types that carry no
// semantic relatedness and never qualify for a path.
var DefaultExcludedRelations = []string{
	"RACE", "STATUS", "LINK", "REPRESENTS", "CASUALTIES", "TROOPS",
	"DIED", "DATE", "SEGMENTUM", "SECTOR", "GENRE", "PREVIOUS",
	"PUBLISHER", "NEXT", "AFFILIATION", "SUCCESSORS_OF",
}

// DefaultExcludedLabels lists noise labels that disqualify interior path
// nodes.
var DefaultExcludedLabels = []string{
	"Character_Index", "Imperial_Organizations",
}

// DefaultExcludedTitles lists placeholder titles that disqualify interior
// path nodes.
var DefaultExcludedTitles = []string{
	"Unknown", "Unidentified",
}

// Pair is an ordered key into the path map. Paths are stored under both
// orders of a pair.
type Pair struct {
	A string
	B string
}

// Result holds the outcome of one scoring run.
type Result struct {
	// Scores maps every input title to its accumulated relevance weight.
	// Titles without any qualifying path stay at 0.
	Scores map[string]float64

	// Paths holds the shortest qualifying path per connected pair, keyed
	// symmetrically under both orders.
	Paths map[Pair]*graphstore.Path

	// Intermediates lists interior path nodes that were not part of the
	// input set, sorted for determinism.
	Intermediates []string
}

// PathBetween returns the recorded path between two titles, or nil.
func (r *Result) PathBetween(a, b string) *graphstore.Path {
	return r.Paths[Pair{A: a, B: b}]
}

// Scorer computes pairwise graph relevance over a set of node titles.
type Scorer struct {
	store   graphstore.GraphStore
	maxHops int
	workers int

	excludedRelations []string
	excludedLabels    []string
	excludedTitles    []string
}

// NewScorerParams configures a Scorer. Zero values fall back to the
// package defaults; exclusion slices fall back only when nil.
type NewScorerParams struct {
	Store   graphstore.GraphStore
	MaxHops int
	Workers int

	ExcludedRelations []string
	ExcludedLabels    []string
	ExcludedTitles    []string
}

// NewScorer creates a scorer over the given graph store.
func NewScorer(params NewScorerParams) *Scorer {
	maxHops := params.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	workers := params.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	excludedRelations := params.ExcludedRelations
	if excludedRelations == nil {
		excludedRelations = DefaultExcludedRelations
	}
	excludedLabels := params.ExcludedLabels
	if excludedLabels == nil {
		excludedLabels = DefaultExcludedLabels
	}
	excludedTitles := params.ExcludedTitles
	if excludedTitles == nil {
		excludedTitles = DefaultExcludedTitles
	}

	return &Scorer{
		store:   params.Store,
		maxHops: maxHops,
		workers: workers,

		excludedRelations: excludedRelations,
		excludedLabels:    excludedLabels,
		excludedTitles:    excludedTitles,
	}
}

// Score queries the shortest qualifying path for every pair of distinct
// input titles and accumulates 1/(1+d) onto both endpoints of each
// connected pair. Pair queries run concurrently; a failed query counts as
// "no path" so the result always covers every input title.
func (s *Scorer) Score(ctx context.Context, titles []string) (*Result, error) {
	unique := make([]string, 0, len(titles))
	inputSet := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		if _, ok := inputSet[t]; ok {
			continue
		}
		inputSet[t] = struct{}{}
		unique = append(unique, t)
	}

	result := &Result{
		Scores: make(map[string]float64, len(unique)),
		Paths:  make(map[Pair]*graphstore.Path),
	}
	for _, t := range unique {
		result.Scores[t] = 0.0
	}

	intermediates := make(map[string]struct{})

	var mu sync.Mutex
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)

	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			a, b := unique[i], unique[j]
			eg.Go(func() error {
				path, err := s.store.ShortestPath(ectx, graphstore.PathQuery{
					TitleA:            a,
					TitleB:            b,
					MaxHops:           s.maxHops,
					ExcludedRelations: s.excludedRelations,
					ExcludedLabels:    s.excludedLabels,
					ExcludedTitles:    s.excludedTitles,
				})
				if err != nil {
					logger.Warn("[Relevance] path query failed, scoring pair as unconnected", "a", a, "b", b, "err", err)
					return nil
				}
				if path == nil {
					return nil
				}

				score := 1.0 / float64(1+path.Length())

				mu.Lock()
				defer mu.Unlock()

				result.Scores[a] += score
				result.Scores[b] += score
				result.Paths[Pair{A: a, B: b}] = path
				result.Paths[Pair{A: b, B: a}] = path

				if len(path.Nodes) > 2 {
					for _, n := range path.Nodes[1 : len(path.Nodes)-1] {
						if _, ok := inputSet[n]; !ok {
							intermediates[n] = struct{}{}
						}
					}
				}
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result.Intermediates = make([]string, 0, len(intermediates))
	for n := range intermediates {
		result.Intermediates = append(result.Intermediates, n)
	}
	sort.Strings(result.Intermediates)

	return result, nil
}

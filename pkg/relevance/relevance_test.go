package relevance

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/lorebase/lorebase/pkg/graphstore"
)

// fakeStore answers path queries from a fixed table keyed by unordered
// title pairs.
type fakeStore struct {
	paths  map[[2]string]*graphstore.Path
	errors map[[2]string]error
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (f *fakeStore) GetNodeInfo(ctx context.Context, title string, detailed bool) (*graphstore.NodeInfo, error) {
	return nil, nil
}

func (f *fakeStore) ShortestPath(ctx context.Context, q graphstore.PathQuery) (*graphstore.Path, error) {
	key := pairKey(q.TitleA, q.TitleB)
	if err, ok := f.errors[key]; ok {
		return nil, err
	}
	return f.paths[key], nil
}

func (f *fakeStore) NeighborByRelation(ctx context.Context, title string, relationType string) (string, error) {
	return "", nil
}

func TestScoreSingleConnectedPair(t *testing.T) {
	store := &fakeStore{
		paths: map[[2]string]*graphstore.Path{
			pairKey("A", "B"): {Nodes: []string{"A", "B"}, Relations: []string{"REL"}},
		},
	}
	scorer := NewScorer(NewScorerParams{Store: store, Workers: 1})

	result, err := scorer.Score(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	wantScores := map[string]float64{"A": 0.5, "B": 0.5, "C": 0.0}
	if !reflect.DeepEqual(result.Scores, wantScores) {
		t.Errorf("Scores = %v, want %v", result.Scores, wantScores)
	}
	if len(result.Intermediates) != 0 {
		t.Errorf("Intermediates = %v, want empty", result.Intermediates)
	}
}

func TestScoreSymmetricPathStorage(t *testing.T) {
	path := &graphstore.Path{Nodes: []string{"A", "X", "B"}, Relations: []string{"R1", "R2"}}
	store := &fakeStore{
		paths: map[[2]string]*graphstore.Path{
			pairKey("A", "B"): path,
		},
	}
	scorer := NewScorer(NewScorerParams{Store: store})

	result, err := scorer.Score(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	forward := result.PathBetween("A", "B")
	backward := result.PathBetween("B", "A")
	if forward == nil || backward == nil {
		t.Fatal("path missing under one key order")
	}
	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("asymmetric path records: %+v vs %+v", forward, backward)
	}

	// length 2 path contributes 1/3 to each endpoint
	want := 1.0 / 3.0
	if result.Scores["A"] != want || result.Scores["B"] != want {
		t.Errorf("Scores = %v, want %f on both endpoints", result.Scores, want)
	}
}

func TestScoreCollectsIntermediates(t *testing.T) {
	store := &fakeStore{
		paths: map[[2]string]*graphstore.Path{
			pairKey("A", "B"): {Nodes: []string{"A", "X", "B"}, Relations: []string{"R", "R"}},
			pairKey("B", "C"): {Nodes: []string{"B", "A", "C"}, Relations: []string{"R", "R"}},
		},
	}
	scorer := NewScorer(NewScorerParams{Store: store})

	result, err := scorer.Score(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// X is a connector; A is interior on the B-C path but already a
	// candidate, so it is not an intermediate.
	if !reflect.DeepEqual(result.Intermediates, []string{"X"}) {
		t.Errorf("Intermediates = %v, want [X]", result.Intermediates)
	}
}

func TestScoreAccumulatesAcrossPairs(t *testing.T) {
	store := &fakeStore{
		paths: map[[2]string]*graphstore.Path{
			pairKey("A", "B"): {Nodes: []string{"A", "B"}, Relations: []string{"R"}},
			pairKey("A", "C"): {Nodes: []string{"A", "X", "C"}, Relations: []string{"R", "R"}},
		},
	}
	scorer := NewScorer(NewScorerParams{Store: store, Workers: 4})

	result, err := scorer.Score(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	wantA := 0.5 + 1.0/3.0
	if result.Scores["A"] != wantA {
		t.Errorf("Scores[A] = %f, want %f", result.Scores["A"], wantA)
	}
	if result.Scores["B"] != 0.5 {
		t.Errorf("Scores[B] = %f, want 0.5", result.Scores["B"])
	}
	if result.Scores["C"] != 1.0/3.0 {
		t.Errorf("Scores[C] = %f, want %f", result.Scores["C"], 1.0/3.0)
	}
}

func TestScoreTreatsQueryFailureAsNoPath(t *testing.T) {
	store := &fakeStore{
		paths: map[[2]string]*graphstore.Path{
			pairKey("A", "B"): {Nodes: []string{"A", "B"}, Relations: []string{"R"}},
		},
		errors: map[[2]string]error{
			pairKey("A", "C"): errors.New("store unavailable"),
		},
	}
	scorer := NewScorer(NewScorerParams{Store: store})

	result, err := scorer.Score(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	wantScores := map[string]float64{"A": 0.5, "B": 0.5, "C": 0.0}
	if !reflect.DeepEqual(result.Scores, wantScores) {
		t.Errorf("Scores = %v, want %v", result.Scores, wantScores)
	}
}

func TestScoreDeduplicatesTitles(t *testing.T) {
	store := &fakeStore{
		paths: map[[2]string]*graphstore.Path{
			pairKey("A", "B"): {Nodes: []string{"A", "B"}, Relations: []string{"R"}},
		},
	}
	scorer := NewScorer(NewScorerParams{Store: store})

	result, err := scorer.Score(context.Background(), []string{"A", "B", "A"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// the duplicated title must not double the pair contribution
	wantScores := map[string]float64{"A": 0.5, "B": 0.5}
	if !reflect.DeepEqual(result.Scores, wantScores) {
		t.Errorf("Scores = %v, want %v", result.Scores, wantScores)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	scorer := NewScorer(NewScorerParams{Store: &fakeStore{}})

	result, err := scorer.Score(context.Background(), nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.Scores) != 0 || len(result.Paths) != 0 || len(result.Intermediates) != 0 {
		t.Errorf("Score() on empty input = %+v, want empty result", result)
	}
}

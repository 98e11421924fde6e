package retrieval

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/common"
	"github.com/lorebase/lorebase/pkg/gazetteer"
	"github.com/lorebase/lorebase/pkg/graphstore"
	"github.com/lorebase/lorebase/pkg/optimizer"
	"github.com/lorebase/lorebase/pkg/relevance"
)

type fakeEngine struct {
	parts    QueryParts
	partsErr error
	answer   string
}

func (f *fakeEngine) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeEngine) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	if f.partsErr != nil {
		return f.partsErr
	}
	*(out.(*QueryParts)) = f.parts
	return nil
}

func (f *fakeEngine) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	return f.answer, nil
}

func (f *fakeEngine) GenerateChatDecision(ctx context.Context, messages []ai.ChatMessage, tools []ai.Tool, opts ...ai.GenerateOption) (*ai.Decision, error) {
	return &ai.Decision{Content: "DONE"}, nil
}

func (f *fakeEngine) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, nil
}

func (f *fakeEngine) ResetMetrics() {}

func (f *fakeEngine) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeVector struct {
	results map[string][]common.Chunk
	queries []string
}

func (f *fakeVector) SimilaritySearch(ctx context.Context, text string, limit int) ([]common.Chunk, error) {
	f.queries = append(f.queries, text)
	return f.results[text], nil
}

func (f *fakeVector) SaveChunks(ctx context.Context, chunks []common.Chunk) error {
	return nil
}

type fakeGraph struct {
	nodes     map[string]*graphstore.NodeInfo
	paths     map[string]*graphstore.Path
	neighbors map[string]string
}

func (f *fakeGraph) GetNodeInfo(ctx context.Context, title string, detailed bool) (*graphstore.NodeInfo, error) {
	return f.nodes[title], nil
}

func (f *fakeGraph) ShortestPath(ctx context.Context, q graphstore.PathQuery) (*graphstore.Path, error) {
	if p, ok := f.paths[q.TitleA+"|"+q.TitleB]; ok {
		return p, nil
	}
	return f.paths[q.TitleB+"|"+q.TitleA], nil
}

func (f *fakeGraph) NeighborByRelation(ctx context.Context, title string, relationType string) (string, error) {
	return f.neighbors[title+"/"+relationType], nil
}

func newTestRetriever(t *testing.T, engine *fakeEngine, vec *fakeVector, graph *fakeGraph, names []string) *Retriever {
	t.Helper()
	provider := gazetteer.NewProvider(func(ctx context.Context) ([]string, error) {
		return names, nil
	}, gazetteer.DefaultCutoff)
	if err := provider.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	return NewRetriever(NewRetrieverParams{
		Store:  vec,
		Graph:  graph,
		Scorer: relevance.NewScorer(relevance.NewScorerParams{Store: graph}),
		Optimizer: optimizer.NewOptimizer(optimizer.NewOptimizerParams{
			Engine: engine,
			Store:  graph,
		}),
		Engine:    engine,
		Gazetteer: provider,
	})
}

func TestMergeChunksDedupesAndKeepsOrder(t *testing.T) {
	collected := []common.Chunk{
		{Title: "Guilliman", Content: "He rules Ultramar."},
		{Title: "Abaddon", Content: "Warmaster of Chaos."},
		{Title: "Guilliman", Content: "  He rules Ultramar.  "},
		{Title: "Guilliman", Content: "Primarch of the XIII."},
	}

	set := mergeChunks(collected)

	if want := []string{"Guilliman", "Abaddon"}; !reflect.DeepEqual(set.order, want) {
		t.Fatalf("order = %v, want %v", set.order, want)
	}
	if got := len(set.byTitle["Guilliman"]); got != 2 {
		t.Errorf("Guilliman chunks = %d, want 2", got)
	}
	if got := set.byTitle["Guilliman"][0].Content; got != "He rules Ultramar." {
		t.Errorf("first chunk = %q, want the first occurrence kept", got)
	}
}

func TestFilterTopK(t *testing.T) {
	set := &chunkSet{byTitle: map[string][]common.Chunk{
		"Scored":    {{}},
		"TwoChunks": {{}, {}},
		"Weak":      {{}},
	}, order: []string{"Scored", "TwoChunks", "Weak"}}
	scores := map[string]float64{"Scored": 0.5}

	got := filterTopK(set, scores, 10)
	if want := []string{"Scored", "TwoChunks"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("filterTopK = %v, want %v", got, want)
	}
}

func TestFilterTopKCapsByCombinedWeight(t *testing.T) {
	set := &chunkSet{byTitle: map[string][]common.Chunk{}}
	scores := map[string]float64{}
	for i := 0; i < 12; i++ {
		title := fmt.Sprintf("T%02d", i)
		set.order = append(set.order, title)
		set.byTitle[title] = []common.Chunk{{}, {}}
		scores[title] = float64(i)
	}

	got := filterTopK(set, scores, 10)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got[0] != "T11" {
		t.Errorf("heaviest title = %q, want T11 first", got[0])
	}
	for _, title := range got {
		if title == "T00" || title == "T01" {
			t.Errorf("lightest title %q survived the cap", title)
		}
	}
}

func TestFilterTopKFallsBackToAllTitles(t *testing.T) {
	set := &chunkSet{byTitle: map[string][]common.Chunk{
		"A": {{}},
		"B": {{}},
	}, order: []string{"A", "B"}}

	got := filterTopK(set, map[string]float64{}, 10)
	if want := []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("fallback = %v, want %v", got, want)
	}
}

func TestSplitAndExtractDegradesOnError(t *testing.T) {
	engine := &fakeEngine{partsErr: errors.New("model unavailable")}

	parts := SplitAndExtract(context.Background(), engine, "Where is Guilliman?")
	if len(parts.Entities) != 0 || len(parts.Questions) != 0 {
		t.Fatalf("parts = %+v, want empty fallback", parts)
	}
}

func TestSplitAndExtractTrimsFields(t *testing.T) {
	engine := &fakeEngine{parts: QueryParts{
		Entities:  []string{" Guilliman ", "", "Abaddon"},
		Questions: []Question{{Text: " Where is he? "}},
	}}

	parts := SplitAndExtract(context.Background(), engine, "q")
	if want := []string{"Guilliman", "Abaddon"}; !reflect.DeepEqual(parts.Entities, want) {
		t.Errorf("entities = %v, want %v", parts.Entities, want)
	}
	if parts.Questions[0].Text != "Where is he?" {
		t.Errorf("question = %q, want trimmed", parts.Questions[0].Text)
	}
}

func TestRetrieveCorrectsEntitiesBeforeSearch(t *testing.T) {
	engine := &fakeEngine{parts: QueryParts{Entities: []string{"guiliman"}}}
	vec := &fakeVector{results: map[string][]common.Chunk{}}
	graph := &fakeGraph{nodes: map[string]*graphstore.NodeInfo{}}

	r := newTestRetriever(t, engine, vec, graph, []string{"Guilliman"})
	if _, err := r.Retrieve(context.Background(), "Where is Guilliman?"); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	found := false
	for _, q := range vec.queries {
		if q == "Guilliman" {
			found = true
		}
		if q == "guiliman" {
			t.Errorf("uncorrected entity %q was searched", q)
		}
	}
	if !found {
		t.Errorf("queries = %v, want corrected entity Guilliman searched", vec.queries)
	}
}

func TestRetrieveAssemblesContext(t *testing.T) {
	chunkA := common.Chunk{
		Title:   "Guilliman",
		Content: "He rules Ultramar.",
		Source:  "https://wiki/guilliman",
		Score:   0.9,
	}
	chunkB := common.Chunk{
		Title:   "Guilliman",
		Content: "Primarch of the XIII.",
		Source:  "https://wiki/guilliman",
		Score:   0.8,
	}

	engine := &fakeEngine{parts: QueryParts{Entities: []string{"Guilliman"}}}
	vec := &fakeVector{results: map[string][]common.Chunk{
		"Where is Guilliman?": {chunkA},
		"Guilliman":           {chunkA, chunkB},
	}}
	graph := &fakeGraph{nodes: map[string]*graphstore.NodeInfo{
		"Guilliman": {Title: "Guilliman", Description: "Primarch of Ultramar."},
	}}

	r := newTestRetriever(t, engine, vec, graph, []string{"Guilliman"})
	docs, err := r.Retrieve(context.Background(), "Where is Guilliman?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}

	doc := docs[0]
	if doc.Title != "Guilliman" || doc.Source != "https://wiki/guilliman" {
		t.Errorf("doc = %+v, want title and chunk source", doc)
	}

	want := strings.Join([]string{
		"=== ENTITY: Guilliman ===",
		"[DESCRIPTION]: Primarch of Ultramar.",
		"[ADDITIONAL ARCHIVE DATA]:",
		"Fragment 1:\nHe rules Ultramar.",
		"Fragment 2:\nPrimarch of the XIII.",
	}, "\n\n")
	if doc.Content != want {
		t.Errorf("content =\n%s\nwant\n%s", doc.Content, want)
	}
}

func TestAssembleFinalContextSkipsInvalidNodes(t *testing.T) {
	set := &chunkSet{byTitle: map[string][]common.Chunk{
		"NoSource": {{Title: "NoSource", Content: "text", Source: "file:///local"}},
		"Valid":    {{Title: "Valid", Content: "text", Source: "http://wiki/valid"}},
	}, order: []string{"NoSource", "Valid"}}

	payload := &optimizer.Payload{Nodes: []optimizer.Node{
		{ID: "node_1", Info: &graphstore.NodeInfo{Title: "NoSource", Description: "d"}},
		{ID: "node_2", Info: &graphstore.NodeInfo{Title: "Connector", Description: "interior node"}},
		{ID: "node_3", Info: &graphstore.NodeInfo{Title: "Valid"}},
	}}

	docs := assembleFinalContext(payload, set)
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want only the HTTP-sourced node", len(docs))
	}
	if docs[0].Title != "Valid" {
		t.Errorf("doc = %q, want Valid", docs[0].Title)
	}
	if strings.Contains(docs[0].Content, "[DESCRIPTION]") {
		t.Errorf("content has a description block for a node without one:\n%s", docs[0].Content)
	}
}

func TestRetrievePayloadIncludesIntermediates(t *testing.T) {
	chunkA := common.Chunk{Title: "Guilliman", Content: "a", Source: "http://w/g"}
	chunkB := common.Chunk{Title: "Abaddon", Content: "b", Source: "http://w/a"}

	engine := &fakeEngine{}
	vec := &fakeVector{results: map[string][]common.Chunk{
		"q": {chunkA, chunkB},
	}}
	graph := &fakeGraph{
		nodes: map[string]*graphstore.NodeInfo{
			"Guilliman": {Title: "Guilliman"},
			"Abaddon":   {Title: "Abaddon"},
			"Terra":     {Title: "Terra", Description: "Throneworld."},
		},
		paths: map[string]*graphstore.Path{
			"Guilliman|Abaddon": {
				Nodes:     []string{"Guilliman", "Terra", "Abaddon"},
				Relations: []string{"FOUGHT_AT", "BESIEGED"},
			},
		},
	}

	r := newTestRetriever(t, engine, vec, graph, nil)
	payload, err := r.preparePayload(context.Background(), mergeChunks([]common.Chunk{chunkA, chunkB}))
	if err != nil {
		t.Fatalf("preparePayload() error = %v", err)
	}

	if len(payload.Nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want chunk titles plus connector", len(payload.Nodes))
	}
	last := payload.Nodes[2]
	if last.Info.Title != "Terra" || last.Score != 0 {
		t.Errorf("connector node = %+v, want Terra with zero score", last)
	}
	for _, n := range payload.Nodes[:2] {
		if n.Score != 0.333 {
			t.Errorf("node %s score = %v, want 0.333", n.Info.Title, n.Score)
		}
	}
	if payload.Paths[relevance.Pair{A: "Guilliman", B: "Abaddon"}] == nil {
		t.Errorf("path missing from payload")
	}
}

func TestAnswerUsesRetrievedContext(t *testing.T) {
	engine := &fakeEngine{answer: "He rules Ultramar."}
	vec := &fakeVector{results: map[string][]common.Chunk{
		"q": {{Title: "Guilliman", Content: "He rules Ultramar.", Source: "http://w/g"}},
	}}
	graph := &fakeGraph{nodes: map[string]*graphstore.NodeInfo{
		"Guilliman": {Title: "Guilliman", Description: "Primarch."},
	}}

	r := newTestRetriever(t, engine, vec, graph, nil)
	answer, docs, err := r.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "He rules Ultramar." {
		t.Errorf("answer = %q", answer)
	}
	if len(docs) != 1 {
		t.Errorf("len(docs) = %d, want 1", len(docs))
	}
}

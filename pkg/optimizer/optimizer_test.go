package optimizer

import (
	"context"
	"strings"
	"testing"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/graphstore"
)

// scriptedEngine returns one pre-built decision per invocation and counts
// how often it was asked.
type scriptedEngine struct {
	decisions []*ai.Decision
	calls     int
}

func (e *scriptedEngine) GenerateChatDecision(ctx context.Context, messages []ai.ChatMessage, tools []ai.Tool, opts ...ai.GenerateOption) (*ai.Decision, error) {
	if e.calls >= len(e.decisions) {
		e.calls++
		return &ai.Decision{Content: "DONE"}, nil
	}
	d := e.decisions[e.calls]
	e.calls++
	return d, nil
}

func (e *scriptedEngine) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (e *scriptedEngine) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return nil
}

func (e *scriptedEngine) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (e *scriptedEngine) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, nil
}

func (e *scriptedEngine) ResetMetrics()               {}
func (e *scriptedEngine) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// expandStore records the relation type it was asked for and answers from
// a fixed neighbor table.
type expandStore struct {
	neighbors   map[string]string
	infos       map[string]*graphstore.NodeInfo
	lastRelType string
}

func (s *expandStore) GetNodeInfo(ctx context.Context, title string, detailed bool) (*graphstore.NodeInfo, error) {
	return s.infos[title], nil
}

func (s *expandStore) ShortestPath(ctx context.Context, q graphstore.PathQuery) (*graphstore.Path, error) {
	return nil, nil
}

func (s *expandStore) NeighborByRelation(ctx context.Context, title string, relationType string) (string, error) {
	s.lastRelType = relationType
	return s.neighbors[title+"/"+relationType], nil
}

func testPayload() *Payload {
	return &Payload{
		Nodes: []Node{
			{ID: "node_Guilliman", Info: &graphstore.NodeInfo{Title: "Guilliman"}},
			{ID: "node_Abaddon", Info: &graphstore.NodeInfo{Title: "Abaddon"}},
			{ID: "node_Nurgle", Info: &graphstore.NodeInfo{Title: "Nurgle"}},
			{ID: "node_Macragge", Info: &graphstore.NodeInfo{Title: "Macragge"}},
		},
	}
}

func deleteDecision(ids string) *ai.Decision {
	return &ai.Decision{ToolCalls: []ai.ToolCall{{
		Name:      ToolDeleteNodes,
		Arguments: `{"node_ids": [` + ids + `]}`,
	}}}
}

func expandDecision(source, relation string) *ai.Decision {
	return &ai.Decision{ToolCalls: []ai.ToolCall{{
		Name:      ToolExpandNodes,
		Arguments: `{"source_node_title": "` + source + `", "relation_type": "` + relation + `"}`,
	}}}
}

func TestOptimizeStopsAtIterationBudget(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		deleteDecision(`"node_Nurgle"`),
		expandDecision("Guilliman", "HOMEWORLD"),
		deleteDecision(`"node_Abaddon"`),
	}}
	store := &expandStore{
		neighbors: map[string]string{"Guilliman/HOMEWORLD": "Macragge"},
		infos:     map[string]*graphstore.NodeInfo{"Macragge": {Title: "Macragge"}},
	}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: store, MaxIterations: 2})

	payload, err := o.Optimize(context.Background(), "who is Guilliman", testPayload())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if engine.calls != 2 {
		t.Errorf("engine invoked %d times, want exactly 2", engine.calls)
	}
	// the third decision never ran, so node_Abaddon survives
	found := false
	for _, n := range payload.Nodes {
		if n.ID == "node_Abaddon" {
			found = true
		}
	}
	if !found {
		t.Error("third decision was applied despite the iteration budget")
	}
}

func TestOptimizeTerminalKeepsPayload(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{{Content: "DONE"}}}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: &expandStore{}})

	payload, err := o.Optimize(context.Background(), "query", testPayload())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if engine.calls != 1 {
		t.Errorf("engine invoked %d times, want 1", engine.calls)
	}
	if len(payload.Nodes) != 4 {
		t.Errorf("payload has %d nodes, want 4 untouched", len(payload.Nodes))
	}
}

func TestOptimizeDeleteNodes(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		deleteDecision(`"node_Nurgle", "node_Macragge"`),
		{Content: "DONE"},
	}}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: &expandStore{}})

	payload, err := o.Optimize(context.Background(), "query", testPayload())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if len(payload.Nodes) != 2 {
		t.Fatalf("payload has %d nodes, want 2: %+v", len(payload.Nodes), payload.Nodes)
	}
	for _, n := range payload.Nodes {
		if n.ID == "node_Nurgle" || n.ID == "node_Macragge" {
			t.Errorf("node %s should have been deleted", n.ID)
		}
	}
}

func TestOptimizeExpandAddsNeighbor(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		expandDecision("Guilliman", "ENEMY"),
		{Content: "DONE"},
	}}
	store := &expandStore{
		neighbors: map[string]string{"Guilliman/ENEMY": "Mortarion"},
		infos: map[string]*graphstore.NodeInfo{
			"Mortarion": {Title: "Mortarion", Description: "Primarch of the Death Guard."},
		},
	}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: store})

	payload, err := o.Optimize(context.Background(), "query", testPayload())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if len(payload.Nodes) != 5 {
		t.Fatalf("payload has %d nodes, want 5", len(payload.Nodes))
	}
	added := payload.Nodes[4]
	if added.ID != "node_Mortarion" || added.Info.Title != "Mortarion" {
		t.Errorf("added node = %+v, want node_Mortarion", added)
	}
}

func TestOptimizeExpandNormalizesRelationType(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		expandDecision("Guilliman", `('enemy')`),
		{Content: "DONE"},
	}}
	store := &expandStore{
		neighbors: map[string]string{"Guilliman/ENEMY": "Mortarion"},
		infos:     map[string]*graphstore.NodeInfo{"Mortarion": {Title: "Mortarion"}},
	}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: store})

	if _, err := o.Optimize(context.Background(), "query", testPayload()); err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if store.lastRelType != "ENEMY" {
		t.Errorf("store queried with relation %q, want ENEMY", store.lastRelType)
	}
}

func TestOptimizeExpandSkipsExistingTitle(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		expandDecision("Guilliman", "HOMEWORLD"),
		{Content: "DONE"},
	}}
	store := &expandStore{
		neighbors: map[string]string{"Guilliman/HOMEWORLD": "Macragge"},
		infos:     map[string]*graphstore.NodeInfo{"Macragge": {Title: "Macragge"}},
	}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: store})

	payload, err := o.Optimize(context.Background(), "query", testPayload())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if len(payload.Nodes) != 4 {
		t.Errorf("payload has %d nodes, want 4 (Macragge already present)", len(payload.Nodes))
	}
}

func TestOptimizeExpandMissingRelation(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		expandDecision("Guilliman", "NO_SUCH_RELATION"),
		{Content: "DONE"},
	}}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: &expandStore{}})

	payload, err := o.Optimize(context.Background(), "query", testPayload())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if len(payload.Nodes) != 4 {
		t.Errorf("payload has %d nodes, want 4 unchanged", len(payload.Nodes))
	}
}

func TestOptimizeUnknownToolFails(t *testing.T) {
	engine := &scriptedEngine{decisions: []*ai.Decision{
		{ToolCalls: []ai.ToolCall{{Name: "summon_daemon", Arguments: "{}"}}},
	}}
	o := NewOptimizer(NewOptimizerParams{Engine: engine, Store: &expandStore{}})

	_, err := o.Optimize(context.Background(), "query", testPayload())
	if err == nil || !strings.Contains(err.Error(), "tool not found") {
		t.Errorf("Optimize() error = %v, want tool not found", err)
	}
}

func TestPayloadFormat(t *testing.T) {
	p := &Payload{Nodes: []Node{{
		ID: "node_Guilliman",
		Info: &graphstore.NodeInfo{
			Title:       "Guilliman",
			Description: "Primarch of the Ultramarines.",
			Outgoing:    []graphstore.Relation{{Type: "HOMEWORLD", Title: "Macragge"}},
			Incoming:    []graphstore.Relation{{Type: "ENEMY", Title: "Mortarion"}},
		},
	}}}

	got := p.Format()
	want := "\n\n=== NODE: Guilliman (ID: node_Guilliman) ===\n" +
		"DESCRIPTION: Primarch of the Ultramarines.\n" +
		"AVAILABLE RELATIONS:\n" +
		"RELATION: HOMEWORLD -> TARGET: Macragge\n" +
		"RELATION: ENEMY <- SOURCE: Mortarion"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	empty := &Payload{}
	if got := empty.Format(); got != "The graph is currently empty." {
		t.Errorf("Format() on empty payload = %q", got)
	}
}

// Package optimizer runs the bounded agentic refinement loop over a set
// of graph nodes: a reasoning engine prunes noise and pulls in missing
// neighbors through two tools until it declares the context sufficient or
// the iteration budget runs out.
package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/graphstore"
	"github.com/lorebase/lorebase/pkg/logger"
)

const (
	// DefaultMaxIterations bounds engine invocations per run.
	DefaultMaxIterations = 5

	// ToolDeleteNodes removes nodes from the working set.
	ToolDeleteNodes = "delete_nodes"

	// ToolExpandNodes pulls one neighbor into the working set via a
	// relation type.
	ToolExpandNodes = "expand_nodes_via_relation"
)

// relationTrimCutset is stripped from relation types before matching.
const relationTrimCutset = "()[]'\" "

// Optimizer refines an optimizer payload through Decide/Execute cycles.
// Each run is strictly sequential; the payload is mutated only by
// completed Execute steps.
type Optimizer struct {
	engine        ai.LoreAIClient
	store         graphstore.GraphStore
	maxIterations int
}

// NewOptimizerParams configures an Optimizer. MaxIterations <= 0 falls
// back to DefaultMaxIterations.
type NewOptimizerParams struct {
	Engine        ai.LoreAIClient
	Store         graphstore.GraphStore
	MaxIterations int
}

// NewOptimizer creates an optimizer over the given engine and graph store.
func NewOptimizer(params NewOptimizerParams) *Optimizer {
	maxIterations := params.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Optimizer{
		engine:        params.Engine,
		store:         params.Store,
		maxIterations: maxIterations,
	}
}

type deleteNodesArgs struct {
	NodeIDs []string `json:"node_ids"`
}

type expandNodesArgs struct {
	SourceNodeTitle string `json:"source_node_title"`
	RelationType    string `json:"relation_type"`
}

func tools() []ai.Tool {
	return []ai.Tool{
		{
			Name:        ToolDeleteNodes,
			Description: "Context optimization: removes nodes that do not contain an answer to the current question. Use it to clear the graph of side branches unrelated to the question.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"node_ids": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "IDs of the nodes to remove",
					},
				},
				"required": []string{"node_ids"},
			},
		},
		{
			Name:        ToolExpandNodes,
			Description: "Fetches a related node from the knowledge graph. Arguments: source_node_title is the node title from a === NODE: ... === block; relation_type is a type from AVAILABLE RELATIONS (for example 'ENEMY', 'HOMEWORLD').",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source_node_title": map[string]any{
						"type":        "string",
						"description": "Title of the node to expand from",
					},
					"relation_type": map[string]any{
						"type":        "string",
						"description": "Relation type to follow",
					},
				},
				"required": []string{"source_node_title", "relation_type"},
			},
		},
	}
}

// Optimize runs the refinement loop for a query over the payload and
// returns the refined payload. The engine is invoked at most
// maxIterations times; once the budget is spent the current payload is
// returned as-is. An unknown tool name fails the run.
func (o *Optimizer) Optimize(ctx context.Context, query string, payload *Payload) (*Payload, error) {
	messages := []ai.ChatMessage{
		{Role: "user", Message: query},
	}
	engineTools := tools()

	calls := 0
	for {
		// Decide
		if calls >= o.maxIterations {
			logger.Debug("[Optimizer] iteration budget spent, forcing terminal", "calls", calls)
			return payload, nil
		}

		systemPrompt := buildSystemPrompt(query, payload.Format())
		decision, err := o.engine.GenerateChatDecision(
			ctx,
			messages,
			engineTools,
			ai.WithSystemPrompts(systemPrompt),
		)
		if err != nil {
			return payload, fmt.Errorf("reasoning engine failed: %w", err)
		}
		calls++

		if decision.Terminal() {
			logger.Debug("[Optimizer] terminal decision", "calls", calls, "nodes", len(payload.Nodes))
			return payload, nil
		}

		// Execute
		requested := make([]string, 0, len(decision.ToolCalls))
		observations := make([]string, 0, len(decision.ToolCalls))
		for _, call := range decision.ToolCalls {
			obs, err := o.execute(ctx, payload, call)
			if err != nil {
				return payload, err
			}
			requested = append(requested, fmt.Sprintf("%s(%s)", call.Name, call.Arguments))
			observations = append(observations, obs)
		}

		messages = append(messages,
			ai.ChatMessage{Role: "assistant", Message: "Called: " + strings.Join(requested, "; ")},
			ai.ChatMessage{Role: "user", Message: "Tool results:\n" + strings.Join(observations, "\n")},
		)
	}
}

func (o *Optimizer) execute(ctx context.Context, payload *Payload, call ai.ToolCall) (string, error) {
	switch call.Name {
	case ToolDeleteNodes:
		var args deleteNodesArgs
		if err := ai.UnmarshalFlexible(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("bad %s arguments: %w", ToolDeleteNodes, err)
		}
		return o.deleteNodes(payload, args.NodeIDs), nil

	case ToolExpandNodes:
		var args expandNodesArgs
		if err := ai.UnmarshalFlexible(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("bad %s arguments: %w", ToolExpandNodes, err)
		}
		return o.expandNodes(ctx, payload, args.SourceNodeTitle, args.RelationType), nil

	default:
		return "", fmt.Errorf("tool not found: %s", call.Name)
	}
}

func (o *Optimizer) deleteNodes(payload *Payload, ids []string) string {
	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	kept := payload.Nodes[:0]
	for _, n := range payload.Nodes {
		if _, ok := targets[n.ID]; !ok {
			kept = append(kept, n)
		}
	}
	payload.Nodes = kept

	return fmt.Sprintf("Deleted nodes: %d", len(ids))
}

func (o *Optimizer) expandNodes(ctx context.Context, payload *Payload, sourceTitle string, relationType string) string {
	cleanRel := strings.ToUpper(strings.Trim(relationType, relationTrimCutset))

	neighbor, err := o.store.NeighborByRelation(ctx, sourceTitle, cleanRel)
	if err != nil {
		logger.Warn("[Optimizer] neighbor lookup failed", "source", sourceTitle, "relation", cleanRel, "err", err)
		return "Relation not found"
	}
	if neighbor == "" {
		return "Relation not found"
	}

	info, err := o.store.GetNodeInfo(ctx, neighbor, true)
	if err != nil {
		logger.Warn("[Optimizer] node info lookup failed", "title", neighbor, "err", err)
		return "Added nodes: 0"
	}
	if info == nil {
		return "Added nodes: 0"
	}

	if _, exists := payload.Titles()[info.Title]; exists {
		return "Added nodes: 0"
	}

	payload.Nodes = append(payload.Nodes, Node{
		ID:   NodeID(info.Title),
		Info: info,
	})
	return "Added nodes: 1"
}

// Package graphstore defines the read-only query surface of the knowledge
// graph consumed by relevance scoring and context optimization.
package graphstore

import (
	"context"
	"fmt"
	"strings"
)

// Relation is a typed edge summary attached to a node: the relation type
// and the title of the node on the other end.
type Relation struct {
	Type  string
	Title string
}

// NodeInfo is the readable projection of a graph node. Outgoing and
// Incoming are only populated by detailed lookups.
type NodeInfo struct {
	Title       string
	Labels      []string
	Description string
	Outgoing    []Relation
	Incoming    []Relation
}

// Format renders the node as the textual block presented to the reasoning
// engine.
func (n *NodeInfo) Format() string {
	var b strings.Builder

	b.WriteString("=== " + n.Title)
	if len(n.Labels) > 0 {
		b.WriteString(" [" + strings.Join(n.Labels, ", ") + "]")
	}
	b.WriteString(" ===\n")

	if n.Description != "" {
		b.WriteString("Description: " + n.Description + "\n")
	}

	if len(n.Outgoing) > 0 {
		b.WriteString("\nOutgoing relations:\n")
		for _, r := range n.Outgoing {
			b.WriteString(fmt.Sprintf("  - %s: %s\n", r.Type, r.Title))
		}
	}
	if len(n.Incoming) > 0 {
		b.WriteString("\nIncoming relations:\n")
		for _, r := range n.Incoming {
			b.WriteString(fmt.Sprintf("  - %s: %s\n", r.Type, r.Title))
		}
	}

	return b.String()
}

// Path is a qualifying path between two nodes: n+1 node titles joined by
// n relation types.
type Path struct {
	Nodes     []string
	Relations []string
}

// Length returns the edge count of the path.
func (p *Path) Length() int {
	return len(p.Relations)
}

// Render produces the alternating node/relation form used in optimizer
// payloads, e.g. "A -[REL]-> B".
func (p *Path) Render() string {
	if len(p.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for i := range p.Relations {
		b.WriteString(p.Nodes[i])
		b.WriteString(fmt.Sprintf(" -[%s]-> ", p.Relations[i]))
	}
	b.WriteString(p.Nodes[len(p.Nodes)-1])
	return b.String()
}

// PathQuery describes a bounded shortest-path lookup between two titled
// nodes. Excluded relation types may not appear anywhere on the path;
// excluded labels and titles disqualify interior nodes only, never the
// endpoints.
type PathQuery struct {
	TitleA            string
	TitleB            string
	MaxHops           int
	ExcludedRelations []string
	ExcludedLabels    []string
	ExcludedTitles    []string
}

// GraphStore is the query surface of the knowledge graph. Implementations
// must be safe for concurrent readers.
type GraphStore interface {
	// GetNodeInfo returns the node with the given title, or nil if absent.
	// A detailed lookup includes relation summaries, excluding bookkeeping
	// relation types.
	GetNodeInfo(ctx context.Context, title string, detailed bool) (*NodeInfo, error)

	// ShortestPath returns the shortest qualifying path between the two
	// titles, or nil if none exists within the hop bound.
	ShortestPath(ctx context.Context, q PathQuery) (*Path, error)

	// NeighborByRelation returns the title of one node connected to the
	// titled node by the given relation type, matched case-insensitively.
	// Returns "" if no such neighbor exists.
	NeighborByRelation(ctx context.Context, title string, relationType string) (string, error)
}

package optimizer

import (
	"fmt"
	"strings"

	"github.com/lorebase/lorebase/pkg/graphstore"
	"github.com/lorebase/lorebase/pkg/relevance"
)

// Node is one entry of the optimizer working set.
type Node struct {
	ID    string               `json:"id"`
	Score float64              `json:"score"`
	Info  *graphstore.NodeInfo `json:"graph_info"`
}

// Payload is the mutable working set refined by one optimization run. It
// is owned by a single run and never mutated concurrently.
type Payload struct {
	Nodes []Node
	Paths map[relevance.Pair]*graphstore.Path
}

// NodeID derives a payload id from a node title.
func NodeID(title string) string {
	return "node_" + strings.ReplaceAll(title, " ", "_")
}

// Format serializes the node set into the textual block shown to the
// reasoning engine: one section per node with its description and the
// relations available for expansion.
func (p *Payload) Format() string {
	if len(p.Nodes) == 0 {
		return "The graph is currently empty."
	}

	blocks := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		var b strings.Builder

		title := ""
		description := ""
		if n.Info != nil {
			title = n.Info.Title
			description = n.Info.Description
		}
		b.WriteString(fmt.Sprintf("=== NODE: %s (ID: %s) ===\n", title, n.ID))
		b.WriteString("DESCRIPTION: " + description)

		if n.Info != nil && (len(n.Info.Outgoing) > 0 || len(n.Info.Incoming) > 0) {
			b.WriteString("\nAVAILABLE RELATIONS:")
			for _, r := range n.Info.Outgoing {
				b.WriteString(fmt.Sprintf("\nRELATION: %s -> TARGET: %s", r.Type, r.Title))
			}
			for _, r := range n.Info.Incoming {
				b.WriteString(fmt.Sprintf("\nRELATION: %s <- SOURCE: %s", r.Type, r.Title))
			}
		}
		blocks = append(blocks, b.String())
	}
	return "\n\n" + strings.Join(blocks, "\n---\n")
}

// Titles returns the titles currently present in the node set.
func (p *Payload) Titles() map[string]struct{} {
	titles := make(map[string]struct{}, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.Info != nil {
			titles[n.Info.Title] = struct{}{}
		}
	}
	return titles
}

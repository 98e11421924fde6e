// Package neo4j implements the graphstore query surface against a Neo4j
// database.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorebase/lorebase/pkg/graphstore"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client is a read-only graphstore.GraphStore backed by a Neo4j driver.
type Client struct {
	driver neo4j.DriverWithContext
}

// NewClientParams defines the connection parameters for a Neo4j client.
type NewClientParams struct {
	URI      string
	Username string
	Password string
}

// NewClient connects to Neo4j and verifies connectivity.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}

	return &Client{driver: driver}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// detailExcludedRelations are bookkeeping edges hidden from detailed node
// summaries.
var detailExcludedRelations = []string{
	"LINK", "AFFILIATION", "PARTICIPANT", "PREVIOUS", "NEXT",
}

// GetNodeInfo returns the node with the given title, or nil if absent.
func (c *Client) GetNodeInfo(ctx context.Context, title string, detailed bool) (*graphstore.NodeInfo, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	if !detailed {
		query := `
			MATCH (n {title: $title})
			RETURN n.title AS title,
			       n.description AS description,
			       labels(n) AS labels
			LIMIT 1
		`
		result, err := session.Run(ctx, query, map[string]any{"title": title})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch node %q: %w", title, err)
		}
		if !result.Next(ctx) {
			return nil, nil
		}
		record := result.Record()
		return &graphstore.NodeInfo{
			Title:       getString(record, "title"),
			Description: getString(record, "description"),
			Labels:      getStrings(record, "labels"),
		}, nil
	}

	query := `
		MATCH (n {title: $title})
		OPTIONAL MATCH (n)-[out_rel]->(out_node)
		  WHERE NOT type(out_rel) IN $excluded
		OPTIONAL MATCH (in_node)-[in_rel]->(n)
		  WHERE NOT type(in_rel) IN $excluded
		RETURN n.title AS title,
		       n.description AS description,
		       labels(n) AS labels,
		       collect(DISTINCT {rel: type(out_rel), other: out_node.title}) AS outgoing,
		       collect(DISTINCT {rel: type(in_rel), other: in_node.title}) AS incoming
	`
	result, err := session.Run(ctx, query, map[string]any{
		"title":    title,
		"excluded": detailExcludedRelations,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node %q: %w", title, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	record := result.Record()

	return &graphstore.NodeInfo{
		Title:       getString(record, "title"),
		Description: getString(record, "description"),
		Labels:      getStrings(record, "labels"),
		Outgoing:    getRelations(record, "outgoing"),
		Incoming:    getRelations(record, "incoming"),
	}, nil
}

// ShortestPath returns the shortest qualifying path between the two
// titles, or nil if none exists within the hop bound. The variable-length
// bound cannot be parameterized in Cypher, so it is interpolated after
// validation.
func (c *Client) ShortestPath(ctx context.Context, q graphstore.PathQuery) (*graphstore.Path, error) {
	maxHops := q.MaxHops
	if maxHops <= 0 {
		maxHops = 1
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH p=(a {title: $titleA})-[rels*..%d]-(b {title: $titleB})
		WHERE all(r IN rels WHERE NOT type(r) IN $excludedRelations)
		  AND none(n IN nodes(p)[1..-1] WHERE
		        any(l IN labels(n) WHERE l IN $excludedLabels)
		        OR n.title IN $excludedTitles)
		RETURN [n IN nodes(p) | n.title] AS path,
		       [r IN relationships(p) | type(r)] AS rels,
		       length(p) AS path_length
		ORDER BY path_length ASC
		LIMIT 1
	`, maxHops)

	result, err := session.Run(ctx, query, map[string]any{
		"titleA":            q.TitleA,
		"titleB":            q.TitleB,
		"excludedRelations": emptyIfNil(q.ExcludedRelations),
		"excludedLabels":    emptyIfNil(q.ExcludedLabels),
		"excludedTitles":    emptyIfNil(q.ExcludedTitles),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query path %q-%q: %w", q.TitleA, q.TitleB, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	record := result.Record()

	return &graphstore.Path{
		Nodes:     getStrings(record, "path"),
		Relations: getStrings(record, "rels"),
	}, nil
}

// NeighborByRelation returns the title of one node connected to the titled
// node by the given relation type, matched case-insensitively.
func (c *Client) NeighborByRelation(ctx context.Context, title string, relationType string) (string, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (a {title: $title})-[r]-(b)
		WHERE toUpper(type(r)) = $relationType
		RETURN b.title AS title
		LIMIT 1
	`
	result, err := session.Run(ctx, query, map[string]any{
		"title":        title,
		"relationType": strings.ToUpper(relationType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to query neighbor of %q: %w", title, err)
	}
	if !result.Next(ctx) {
		return "", nil
	}
	return getString(result.Record(), "title"), nil
}

func getString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return ""
	}
	s, _ := value.(string)
	return s
}

func getStrings(record *neo4j.Record, key string) []string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getRelations(record *neo4j.Record, key string) []graphstore.Relation {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]graphstore.Relation, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		relType, _ := m["rel"].(string)
		other, _ := m["other"].(string)
		if relType == "" || other == "" {
			continue
		}
		out = append(out, graphstore.Relation{Type: relType, Title: other})
	}
	return out
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

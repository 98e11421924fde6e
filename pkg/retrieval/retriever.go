// Package retrieval implements the hybrid retrieval pipeline: query
// normalization, vector search by sub-questions and corrected entities,
// graph relevance scoring, agentic payload optimization and final
// context assembly.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/common"
	"github.com/lorebase/lorebase/pkg/gazetteer"
	"github.com/lorebase/lorebase/pkg/graphstore"
	"github.com/lorebase/lorebase/pkg/logger"
	"github.com/lorebase/lorebase/pkg/morph"
	"github.com/lorebase/lorebase/pkg/optimizer"
	"github.com/lorebase/lorebase/pkg/relevance"
	"github.com/lorebase/lorebase/pkg/store/base"
)

const (
	// DefaultTopKVector is how many chunks each vector search returns.
	DefaultTopKVector = 6
	// DefaultTopKFinal caps how many candidate titles reach the payload.
	DefaultTopKFinal = 10
)

// chunkSet holds merged chunks grouped by title, preserving the order in
// which titles were first seen.
type chunkSet struct {
	byTitle map[string][]common.Chunk
	order   []string
}

// Retriever runs the full retrieval pipeline for one query.
type Retriever struct {
	store      base.VectorStore
	graph      graphstore.GraphStore
	scorer     *relevance.Scorer
	optimizer  *optimizer.Optimizer
	engine     ai.LoreAIClient
	gazetteer  *gazetteer.Provider
	inflector  morph.Inflector
	topKVector int
	topKFinal  int
}

type NewRetrieverParams struct {
	Store     base.VectorStore
	Graph     graphstore.GraphStore
	Scorer    *relevance.Scorer
	Optimizer *optimizer.Optimizer
	Engine    ai.LoreAIClient
	Gazetteer *gazetteer.Provider
	Inflector morph.Inflector
	// TopKVector overrides DefaultTopKVector when positive.
	TopKVector int
	// TopKFinal overrides DefaultTopKFinal when positive.
	TopKFinal int
}

func NewRetriever(params NewRetrieverParams) *Retriever {
	topKVector := params.TopKVector
	if topKVector <= 0 {
		topKVector = DefaultTopKVector
	}
	topKFinal := params.TopKFinal
	if topKFinal <= 0 {
		topKFinal = DefaultTopKFinal
	}
	return &Retriever{
		store:      params.Store,
		graph:      params.Graph,
		scorer:     params.Scorer,
		optimizer:  params.Optimizer,
		engine:     params.Engine,
		gazetteer:  params.Gazetteer,
		inflector:  params.Inflector,
		topKVector: topKVector,
		topKFinal:  topKFinal,
	}
}

// Retrieve returns assembled context documents for the query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]common.Document, error) {
	parts := SplitAndExtract(ctx, r.engine, query)
	questions := append(parts.Questions, Question{Text: query})

	collected := make([]common.Chunk, 0)

	byQuestions, err := r.searchByQuestions(ctx, questions)
	if err != nil {
		return nil, err
	}
	collected = append(collected, byQuestions...)

	byEntities, err := r.searchByEntities(ctx, parts.Entities)
	if err != nil {
		return nil, err
	}
	collected = append(collected, byEntities...)

	chunks := mergeChunks(collected)

	payload, err := r.preparePayload(ctx, chunks)
	if err != nil {
		return nil, err
	}

	clean, err := r.optimizer.Optimize(ctx, query, payload)
	if err != nil {
		return nil, fmt.Errorf("context optimization failed: %w", err)
	}

	return assembleFinalContext(clean, chunks), nil
}

// Answer retrieves context for the query and generates a grounded answer.
func (r *Retriever) Answer(ctx context.Context, query string) (string, []common.Document, error) {
	docs, err := r.Retrieve(ctx, query)
	if err != nil {
		return "", nil, err
	}

	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, d.Content)
	}

	answer, err := r.engine.GenerateChat(
		ctx,
		[]ai.ChatMessage{{Role: "user", Message: query}},
		ai.WithSystemPrompts(fmt.Sprintf(answerPrompt, strings.Join(blocks, "\n\n---\n\n"))),
	)
	if err != nil {
		return "", nil, fmt.Errorf("answer generation failed: %w", err)
	}
	return answer, docs, nil
}

func (r *Retriever) searchByQuestions(ctx context.Context, questions []Question) ([]common.Chunk, error) {
	collected := make([]common.Chunk, 0)
	for _, q := range questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		results, err := r.store.SimilaritySearch(ctx, text, r.topKVector)
		if err != nil {
			return nil, fmt.Errorf("question search failed: %w", err)
		}
		collected = append(collected, results...)
	}
	return collected, nil
}

// searchByEntities corrects each entity against the gazetteer before
// searching, so misspelled names hit the canonical chunks.
func (r *Retriever) searchByEntities(ctx context.Context, entities []string) ([]common.Chunk, error) {
	collected := make([]common.Chunk, 0)
	for _, ent := range entities {
		ent = strings.TrimSpace(ent)
		if ent == "" {
			continue
		}
		if r.gazetteer != nil {
			ent = r.gazetteer.Matcher().Correct(ent, r.inflector)
		}
		results, err := r.store.SimilaritySearch(ctx, ent, r.topKVector)
		if err != nil {
			return nil, fmt.Errorf("entity search failed: %w", err)
		}
		collected = append(collected, results...)
	}
	return collected, nil
}

// mergeChunks groups chunks by title and drops duplicates, keeping the
// first occurrence of each (title, trimmed content) pair.
func mergeChunks(collected []common.Chunk) *chunkSet {
	set := &chunkSet{byTitle: make(map[string][]common.Chunk)}
	seen := make(map[[2]string]struct{})

	for _, c := range collected {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		key := [2]string{title, strings.TrimSpace(c.Content)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := set.byTitle[title]; !ok {
			set.order = append(set.order, title)
		}
		set.byTitle[title] = append(set.byTitle[title], c)
	}
	return set
}

// filterTopK keeps titles that earned graph weight or matched more than
// one chunk, capped at topKFinal by combined weight. An empty filter
// result falls back to every title.
func filterTopK(chunks *chunkSet, scores map[string]float64, topKFinal int) []string {
	filtered := make([]string, 0, len(chunks.order))
	for _, title := range chunks.order {
		if scores[title] > 0 || len(chunks.byTitle[title]) > 1 {
			filtered = append(filtered, title)
		}
	}
	if len(filtered) > topKFinal {
		sort.SliceStable(filtered, func(i, j int) bool {
			wi := scores[filtered[i]] + float64(len(chunks.byTitle[filtered[i]]))
			wj := scores[filtered[j]] + float64(len(chunks.byTitle[filtered[j]]))
			return wi > wj
		})
		filtered = filtered[:topKFinal]
	}
	if len(filtered) == 0 {
		filtered = append(filtered, chunks.order...)
	}
	return filtered
}

// preparePayload scores the candidate titles on the graph and builds the
// node payload for the optimizer. Titles backed by chunks get detailed
// node info and their rounded graph score; intermediate path nodes get a
// simple lookup and a zero score.
func (r *Retriever) preparePayload(ctx context.Context, chunks *chunkSet) (*optimizer.Payload, error) {
	metrics, err := r.scorer.Score(ctx, chunks.order)
	if err != nil {
		return nil, fmt.Errorf("graph scoring failed: %w", err)
	}

	titles := filterTopK(chunks, metrics.Scores, r.topKFinal)
	uniqueTitles := make([]string, 0, len(titles)+len(metrics.Intermediates))
	uniqueTitles = append(uniqueTitles, titles...)
	for _, t := range metrics.Intermediates {
		if _, ok := chunks.byTitle[t]; !ok {
			uniqueTitles = append(uniqueTitles, t)
		}
	}

	payload := &optimizer.Payload{
		Nodes: make([]optimizer.Node, 0, len(uniqueTitles)),
		Paths: metrics.Paths,
	}
	for i, title := range uniqueTitles {
		_, detailed := chunks.byTitle[title]
		info, err := r.graph.GetNodeInfo(ctx, title, detailed)
		if err != nil {
			logger.Warn("[Retrieval] node lookup failed", "title", title, "err", err)
			continue
		}
		if info == nil {
			continue
		}

		score := 0.0
		if detailed {
			score = math.Round(metrics.Scores[title]*1000) / 1000
		}
		payload.Nodes = append(payload.Nodes, optimizer.Node{
			ID:    fmt.Sprintf("node_%d", i+1),
			Score: score,
			Info:  info,
		})
	}
	return payload, nil
}

// assembleFinalContext renders the surviving payload nodes into context
// documents. Nodes without a valid HTTP source, or with neither a
// description nor chunks, are dropped.
func assembleFinalContext(payload *optimizer.Payload, chunks *chunkSet) []common.Document {
	docs := make([]common.Document, 0, len(payload.Nodes))

	for _, n := range payload.Nodes {
		if n.Info == nil || n.Info.Title == "" {
			continue
		}
		title := n.Info.Title
		description := strings.TrimSpace(n.Info.Description)
		nodeChunks := chunks.byTitle[title]

		source := ""
		if len(nodeChunks) > 0 {
			source = nodeChunks[0].Source
		}
		if !strings.HasPrefix(source, "http") {
			logger.Warn("[Retrieval] skipping node without valid HTTP source", "title", title)
			continue
		}
		if description == "" && len(nodeChunks) == 0 {
			continue
		}

		parts := []string{fmt.Sprintf("=== ENTITY: %s ===", title)}
		if description != "" {
			parts = append(parts, fmt.Sprintf("[DESCRIPTION]: %s", description))
		}
		if len(nodeChunks) > 0 {
			parts = append(parts, "[ADDITIONAL ARCHIVE DATA]:")
			for i, c := range nodeChunks {
				parts = append(parts, fmt.Sprintf("Fragment %d:\n%s", i+1, c.Content))
			}
		}

		docs = append(docs, common.Document{
			Title:   title,
			Content: strings.Join(parts, "\n\n"),
			Source:  source,
		})
	}
	return docs
}

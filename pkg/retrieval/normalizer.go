package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/logger"
)

// Question is one sub-question produced by query normalization.
type Question struct {
	Text string `json:"text"`
}

// QueryParts is the result of splitting a user query into sub-questions
// and the entities it mentions.
type QueryParts struct {
	Entities  []string   `json:"entities"`
	Questions []Question `json:"questions"`
}

// SplitAndExtract asks the reasoning engine to break a query into
// sub-questions and entities. Any failure, including unparseable output,
// degrades to an empty result so retrieval can fall back to pure
// similarity search.
func SplitAndExtract(ctx context.Context, engine ai.LoreAIClient, query string) QueryParts {
	var parts QueryParts
	err := engine.GenerateCompletionWithFormat(
		ctx,
		"query_parts",
		"Split a user question into sub-questions and extract its entities.",
		fmt.Sprintf(splitPrompt, query),
		&parts,
	)
	if err != nil {
		logger.Warn("[Retrieval] query normalization failed, falling back to plain search", "err", err)
		return QueryParts{Entities: []string{}, Questions: []Question{}}
	}

	cleanEntities := make([]string, 0, len(parts.Entities))
	for _, e := range parts.Entities {
		if e = strings.TrimSpace(e); e != "" {
			cleanEntities = append(cleanEntities, e)
		}
	}
	parts.Entities = cleanEntities

	for i := range parts.Questions {
		parts.Questions[i].Text = strings.TrimSpace(parts.Questions[i].Text)
	}

	return parts
}

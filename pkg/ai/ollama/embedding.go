package ollama

import (
	"context"
	"fmt"

	"github.com/lorebase/lorebase/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model.
func (c *LoreOllamaClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	}

	resp, err := c.Client.Embed(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings in response from model")
	}

	metrics := ai.ModelMetrics{
		InputTokens: resp.PromptEvalCount,
		TotalTokens: resp.PromptEvalCount,
	}
	c.modifyMetrics(metrics)

	return resp.Embeddings[0], nil
}

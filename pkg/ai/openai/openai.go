package openai

import (
	"sync"

	"github.com/lorebase/lorebase/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// LoreOpenAIClient talks to OpenAI-compatible APIs for the reasoning and
// embedding operations of the retrieval pipeline. Separate clients are kept
// for chat and embeddings so the two can point at different endpoints.
//
// Create instances with NewLoreOpenAIClient.
type LoreOpenAIClient struct {
	reasoningModel string
	embeddingModel string

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	timeoutMin    int
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewLoreOpenAIClientParams defines the configuration for creating a new
// LoreOpenAIClient.
//
// ReasoningModel is used for chat, structured output and tool decisions.
// EmbeddingModel is used for vector embeddings.
// ChatURL/ChatKey and EmbeddingURL/EmbeddingKey configure the endpoints;
// an empty URL falls back to the official API.
type NewLoreOpenAIClientParams struct {
	ReasoningModel string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	TimeoutMin          int
	EmbeddingConcurrent int64
}

// NewLoreOpenAIClient creates a client configured with the given parameters.
func NewLoreOpenAIClient(
	params NewLoreOpenAIClientParams,
) *LoreOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}
	concurrent := params.EmbeddingConcurrent
	if concurrent <= 0 {
		concurrent = 4
	}

	return &LoreOpenAIClient{
		reasoningModel: params.ReasoningModel,
		embeddingModel: params.EmbeddingModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin:    timeoutMin,
		embeddingLock: semaphore.NewWeighted(concurrent),

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *LoreOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated usage metrics.
func (c *LoreOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics = ai.ModelMetrics{
		InputTokens:  0,
		OutputTokens: 0,
		TotalTokens:  0,
		DurationMs:   0,
	}
}

// GetMetrics returns a snapshot of the accumulated usage metrics.
func (c *LoreOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	return c.metrics
}

package util

import (
	"github.com/lorebase/lorebase/pkg/ai"
	oll "github.com/lorebase/lorebase/pkg/ai/ollama"
	oai "github.com/lorebase/lorebase/pkg/ai/openai"
	"github.com/lorebase/lorebase/pkg/logger"
)

// NewAIClientFromEnv builds the AI client selected by AI_ADAPTER. The
// default adapter is the OpenAI-compatible client.
func NewAIClientFromEnv() ai.LoreAIClient {
	switch GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oll.NewLoreOllamaClient(oll.NewLoreOllamaClientParams{
			ReasoningModel: GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: GetEnv("AI_EMBED_MODEL"),

			BaseURL: GetEnv("AI_CHAT_URL"),
			ApiKey:  GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return oai.NewLoreOpenAIClient(oai.NewLoreOpenAIClientParams{
			ReasoningModel: GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: GetEnv("AI_EMBED_MODEL"),

			ChatURL:      GetEnv("AI_CHAT_URL"),
			ChatKey:      GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: GetEnv("AI_EMBED_URL"),
			EmbeddingKey: GetEnv("AI_EMBED_KEY"),
		})
	}
}

package ai

import "context"

// ToolHandler executes a tool call and returns the textual observation that
// is reported back to the model. Arguments arrive JSON-encoded.
type ToolHandler func(ctx context.Context, arguments string) (string, error)

// Tool defines a function the reasoning model may request during a decision
// round. Parameters is a JSON Schema describing the tool's input.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     ToolHandler
}

// ToolCall is a request from the model to invoke a specific tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatMessage is a single message in a conversation.
//
// Role must be one of:
//   - "user"      → a user-provided message
//   - "assistant" → a message from the AI assistant
type ChatMessage struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

// Decision is the outcome of a single tool-enabled model round. A decision
// with no tool calls is terminal: the model produced its final content and
// wants no further action.
type Decision struct {
	Content   string
	ToolCalls []ToolCall
}

// Terminal reports whether the model requested no tool calls.
func (d *Decision) Terminal() bool {
	return len(d.ToolCalls) == 0
}

// GenerateOptions holds configuration for model requests.
type GenerateOptions struct {
	Model         string
	SystemPrompts []string
	Temperature   float64
	Thinking      string
}

// GenerateOption is a functional option for configuring model requests.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model used for the request.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithThinking enables extended reasoning with the given budget or mode.
func WithThinking(thinking string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Thinking = thinking
	}
}

// ModelMetrics contains accumulated usage metrics from model operations.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// LoreAIClient is the interface for the reasoning and embedding operations
// used by retrieval and context optimization. Implementations exist for
// OpenAI-compatible APIs and Ollama.
type LoreAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	GenerateChat(
		ctx context.Context,
		messages []ChatMessage,
		opts ...GenerateOption,
	) (string, error)

	// GenerateChatDecision runs exactly one tool-enabled round: the model
	// either requests tool calls or produces terminal content. Tool handlers
	// are NOT executed by the client; the caller owns execution.
	GenerateChatDecision(
		ctx context.Context,
		messages []ChatMessage,
		tools []Tool,
		opts ...GenerateOption,
	) (*Decision, error)

	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}

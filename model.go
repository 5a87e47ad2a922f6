package gentrun

import (
	"context"
)

// ModelClient is the provider-agnostic contract the agent loop talks to.
//
// Returning a non-nil error from Invoke or Stream is a fatal failure for the run. Implementations
// should return a [*ModelError] so the failure carries a code and metadata; other errors are
// normalized with [AsModelError].
//
// Retries and backoff for transient failures are the client's responsibility.
type ModelClient interface {
	// Invoke performs a buffered call and returns the complete response.
	Invoke(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error)

	// Stream performs a streaming call. Text fragments are delivered through the returned
	// [ModelStream]; a failure after the stream started is delivered as a chunk with Err set.
	// When ctx is marked with [WithAnswerOnly] the model must answer in text and must not
	// request tools.
	Stream(ctx context.Context, messages []Message, tools []ToolDefinition) (ModelStream, error)

	// ModelName returns the model identifier, e.g. "gpt-4o".
	ModelName() string

	// ProviderName returns the provider identifier, e.g. "openai".
	ProviderName() string
}

// Response is the result of a buffered model call.
type Response struct {
	// Text is the textual content of the assistant turn.
	Text string `json:"text" yaml:"text"`

	// ToolCalls is non-empty when the model requests tool invocations.
	ToolCalls []ToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`

	// Usage holds token counts when the provider reports them.
	Usage *Usage `json:"usage,omitempty" yaml:"usage,omitempty"`

	// Metadata carries provider-specific details (stop reason, raw generation info, ...).
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// HasToolCalls reports whether the response requests tool invocations.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Usage contains normalized token counts.
type Usage struct {
	InputTokens  int `json:"inputTokens" yaml:"inputTokens"`
	OutputTokens int `json:"outputTokens" yaml:"outputTokens"`
	TotalTokens  int `json:"totalTokens" yaml:"totalTokens"`
}

// ToolDefinition describes a tool to the model.
type ToolDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// StreamChunk is one element of a [ModelStream].
type StreamChunk struct {
	// Text is a content fragment. Empty when Err is set.
	Text string

	// Err is set on the last chunk when the stream failed.
	Err error
}

// ModelStream is an incremental model response.
type ModelStream interface {
	// Chunks returns the channel of fragments. It is closed when the stream ends.
	Chunks() <-chan StreamChunk

	// Close releases the stream. Pending chunks are discarded. Safe to call multiple times.
	Close()
}

type answerOnlyKey struct{}

// WithAnswerOnly marks ctx for a model call that must produce a text answer without requesting
// tools. Tool definitions are still passed along, since some providers reject transcripts with
// tool turns when no tools are declared.
func WithAnswerOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, answerOnlyKey{}, true)
}

// IsAnswerOnly reports whether ctx was marked with [WithAnswerOnly].
func IsAnswerOnly(ctx context.Context) bool {
	v, _ := ctx.Value(answerOnlyKey{}).(bool)
	return v
}

package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/gentrun"
)

// errStreamClosed aborts a provider stream whose consumer went away.
var errStreamClosed = errors.New("stream closed by consumer")

// Client wraps an llms.Model and implements gentrun.ModelClient.
// It converts the gentrun transcript to langchaingo messages, normalizes token usage across
// providers, and classifies provider failures into ModelError codes.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey), openai.WithModel("gpt-4o"))
//	client := models.New(llm, "openai", "gpt-4o")
//	a := agent.New(client, agent.WithTools(tools...))
type Client struct {
	llm      llms.Model
	provider string
	model    string
	options  []llms.CallOption
}

// New creates a Client wrapping llm. provider and model are reported by ProviderName and
// ModelName and attached to error metadata.
func New(llm llms.Model, provider, model string) *Client {
	return &Client{
		llm:      llm,
		provider: provider,
		model:    model,
	}
}

// WithCallOptions adds options applied to every call (temperature, max tokens, ...).
// Returns the client for chaining.
func (c *Client) WithCallOptions(opts ...llms.CallOption) *Client {
	c.options = append(c.options, opts...)
	return c
}

// Unwrap returns the underlying llms.Model.
func (c *Client) Unwrap() llms.Model {
	return c.llm
}

// ModelName implements gentrun.ModelClient.
func (c *Client) ModelName() string {
	return c.model
}

// ProviderName implements gentrun.ModelClient.
func (c *Client) ProviderName() string {
	return c.provider
}

func (c *Client) callOptions(
	ctx context.Context,
	tools []gentrun.ToolDefinition,
	extra ...llms.CallOption,
) []llms.CallOption {
	opts := make([]llms.CallOption, 0, len(c.options)+len(extra)+2)
	opts = append(opts, c.options...)
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toLLMTools(tools)))
		if gentrun.IsAnswerOnly(ctx) {
			opts = append(opts, llms.WithToolChoice("none"))
		}
	}
	// Extra options come last so the streaming callback cannot be overridden.
	return append(opts, extra...)
}

// Invoke implements gentrun.ModelClient.
func (c *Client) Invoke(
	ctx context.Context,
	messages []gentrun.Message,
	tools []gentrun.ToolDefinition,
) (*gentrun.Response, error) {
	content, err := toMessageContent(messages)
	if err != nil {
		return nil, c.classify(err)
	}

	resp, err := c.llm.GenerateContent(ctx, content, c.callOptions(ctx, tools)...)
	if err != nil {
		return nil, c.classify(err)
	}

	out, err := fromContentResponse(resp)
	if err != nil {
		return nil, c.classify(err)
	}
	return out, nil
}

// Stream implements gentrun.ModelClient.
//
// The provider call runs in its own goroutine and feeds a ChunkStream, so the provider callback
// never blocks on a slow consumer. Closing the returned stream cancels the provider call.
//
// Only text reaches the stream: tool-call deltas that langchaingo forwards as JSON chunks are
// dropped. Under [gentrun.WithAnswerOnly] tool choice is forced to "none", and a response that
// still requests tools ends the stream with INVALID_RESPONSE.
func (c *Client) Stream(
	ctx context.Context,
	messages []gentrun.Message,
	tools []gentrun.ToolDefinition,
) (gentrun.ModelStream, error) {
	content, err := toMessageContent(messages)
	if err != nil {
		return nil, c.classify(err)
	}

	stream := gentrun.NewChunkStream()
	streamCtx, cancel := context.WithCancel(ctx)

	streamingCallback := llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if isToolCallDelta(chunk) {
			return nil
		}
		if !stream.Send(string(chunk)) {
			return errStreamClosed
		}
		return nil
	})
	opts := c.callOptions(ctx, tools, streamingCallback)
	answerOnly := gentrun.IsAnswerOnly(ctx)

	go func() {
		select {
		case <-stream.Done():
			cancel()
		case <-streamCtx.Done():
		}
	}()

	go func() {
		defer cancel()
		resp, err := c.llm.GenerateContent(streamCtx, content, opts...)
		if err != nil && !errors.Is(err, errStreamClosed) {
			stream.Finish(c.classify(err))
			return
		}
		if err == nil && answerOnly && requestsTools(resp) {
			stream.Finish(c.classify(gentrun.NewModelError(
				gentrun.ModelErrInvalidResponse,
				"model requested tools while streaming the final answer",
			)))
			return
		}
		stream.Finish(nil)
	}()

	return stream, nil
}

// Compile-time check that Client implements gentrun.ModelClient.
var _ gentrun.ModelClient = (*Client)(nil)

// isToolCallDelta reports whether a streamed chunk is a tool-call delta, which langchaingo
// forwards to the streaming callback as a JSON array of tool calls.
func isToolCallDelta(chunk []byte) bool {
	if !bytes.HasPrefix(bytes.TrimSpace(chunk), []byte("[{")) {
		return false
	}
	var deltas []struct {
		Function *json.RawMessage `json:"function"`
	}
	if err := json.Unmarshal(chunk, &deltas); err != nil || len(deltas) == 0 {
		return false
	}
	for _, d := range deltas {
		if d.Function == nil {
			return false
		}
	}
	return true
}

func requestsTools(resp *llms.ContentResponse) bool {
	if resp == nil {
		return false
	}
	for _, choice := range resp.Choices {
		if choice != nil && len(choice.ToolCalls) > 0 {
			return true
		}
	}
	return false
}

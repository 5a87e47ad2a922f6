package models

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/gentrun"
)

// fakeLLM is a scripted llms.Model recording what it was called with.
type fakeLLM struct {
	mu       sync.Mutex
	resp     *llms.ContentResponse
	err      error
	chunks   []string
	block    bool
	unblock  chan struct{}
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeLLM) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	f.mu.Lock()
	f.messages = messages
	f.options = opts
	f.mu.Unlock()

	if opts.StreamingFunc != nil {
		for _, c := range f.chunks {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	if f.block {
		<-ctx.Done()
		close(f.unblock)
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textResponse(text string, info map[string]any) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        text,
		StopReason:     "stop",
		GenerationInfo: info,
	}}}
}

func drain(s gentrun.ModelStream) (string, error) {
	var text string
	for c := range s.Chunks() {
		if c.Err != nil {
			return text, c.Err
		}
		text += c.Text
	}
	return text, nil
}

func TestClient_Identity(t *testing.T) {
	llm := &fakeLLM{}
	c := New(llm, "openai", "gpt-4o")

	assert.Equal(t, "openai", c.ProviderName())
	assert.Equal(t, "gpt-4o", c.ModelName())
	assert.Same(t, llm, c.Unwrap())
}

func TestClient_Invoke_ConvertsTranscript(t *testing.T) {
	llm := &fakeLLM{resp: textResponse("Hello, World!", nil)}
	c := New(llm, "openai", "gpt-4o")

	messages := []gentrun.Message{
		gentrun.SystemMessage("be nice"),
		gentrun.UserMessage("Say hello to World"),
		gentrun.AssistantMessage("", gentrun.ToolCall{ID: "c1", Name: "greet", Args: map[string]any{"name": "World"}}),
		gentrun.ToolMessage("c1", "greet", "Hello, World!"),
	}
	tools := []gentrun.ToolDefinition{
		{Name: "greet", Description: "Greets", Parameters: map[string]any{"type": "object"}},
		{Name: "noop", Description: "No params"},
	}

	resp, err := c.Invoke(context.Background(), messages, tools)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", resp.Text)
	assert.Equal(t, map[string]any{"stopReason": "stop"}, resp.Metadata)
	assert.Nil(t, resp.Usage)

	require.Len(t, llm.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, llm.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.messages[1].Role)

	assert.Equal(t, llms.ChatMessageTypeAI, llm.messages[2].Role)
	require.Len(t, llm.messages[2].Parts, 1)
	call, ok := llm.messages[2].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "c1", call.ID)
	assert.Equal(t, "greet", call.FunctionCall.Name)
	assert.JSONEq(t, `{"name":"World"}`, call.FunctionCall.Arguments)

	assert.Equal(t, llms.ChatMessageTypeTool, llm.messages[3].Role)
	result, ok := llm.messages[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "c1", result.ToolCallID)
	assert.Equal(t, "Hello, World!", result.Content)

	require.Len(t, llm.options.Tools, 2)
	assert.Equal(t, "greet", llm.options.Tools[0].Function.Name)
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}},
		llm.options.Tools[1].Function.Parameters)
}

func TestClient_Invoke_NoToolsOmitsToolOption(t *testing.T) {
	llm := &fakeLLM{resp: textResponse("ok", nil)}
	c := New(llm, "openai", "gpt-4o").WithCallOptions(llms.WithTemperature(0.2))

	_, err := c.Invoke(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Empty(t, llm.options.Tools)
	assert.InDelta(t, 0.2, llm.options.Temperature, 1e-9)
}

func TestClient_Invoke_ParsesToolCallsAndUsage(t *testing.T) {
	llm := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: "greet", Arguments: `{"name":"World"}`},
		}},
		GenerationInfo: map[string]any{
			"InputTokens":          int64(20),
			"OutputTokens":         int64(5),
			"CacheReadInputTokens": 4,
		},
	}}}}
	c := New(llm, "anthropic", "claude")

	resp, err := c.Invoke(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, gentrun.ToolCall{ID: "call_1", Name: "greet", Args: map[string]any{"name": "World"}}, resp.ToolCalls[0])
	assert.Equal(t, &gentrun.Usage{InputTokens: 20, OutputTokens: 5, TotalTokens: 25}, resp.Usage)
	assert.Equal(t, 4, resp.Metadata["cachedInputTokens"])
}

func TestClient_Invoke_Failures(t *testing.T) {
	type input struct {
		llm *fakeLLM
	}

	type expected struct {
		code    gentrun.ModelErrorCode
		message string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "no choices",
			input:    input{llm: &fakeLLM{resp: &llms.ContentResponse{}}},
			expected: expected{code: gentrun.ModelErrInvalidResponse, message: "provider returned no choices"},
		},
		{
			name:     "nil response",
			input:    input{llm: &fakeLLM{}},
			expected: expected{code: gentrun.ModelErrInvalidResponse, message: "provider returned no choices"},
		},
		{
			name: "malformed tool arguments",
			input: input{llm: &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
				ToolCalls: []llms.ToolCall{{ID: "c1", FunctionCall: &llms.FunctionCall{Name: "greet", Arguments: "{"}}},
			}}}}},
			expected: expected{code: gentrun.ModelErrInvalidResponse},
		},
		{
			name:     "rate limited",
			input:    input{llm: &fakeLLM{err: errors.New("API returned unexpected status code: 429: Rate limit reached")}},
			expected: expected{code: gentrun.ModelErrRateLimit},
		},
		{
			name:     "bad key",
			input:    input{llm: &fakeLLM{err: errors.New("401 Unauthorized: invalid api key")}},
			expected: expected{code: gentrun.ModelErrAuthentication},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.input.llm, "openai", "gpt-4o")

			resp, err := c.Invoke(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, nil)
			assert.Nil(t, resp)
			var me *gentrun.ModelError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tc.expected.code, me.Code)
			if tc.expected.message != "" {
				assert.Equal(t, tc.expected.message, me.Message)
			}
			assert.Equal(t, "openai", me.Metadata["provider"])
			assert.Equal(t, "gpt-4o", me.Metadata["model"])
		})
	}
}

func TestClient_Invoke_RejectsUnknownRole(t *testing.T) {
	c := New(&fakeLLM{}, "openai", "gpt-4o")
	_, err := c.Invoke(context.Background(), []gentrun.Message{{Role: "narrator", Content: "x"}}, nil)
	assert.ErrorContains(t, err, `unsupported role "narrator"`)
}

func TestClient_Stream(t *testing.T) {
	t.Run("delivers fragments in order", func(t *testing.T) {
		llm := &fakeLLM{chunks: []string{"Hello", " ", "World", "!"}, resp: textResponse("Hello World!", nil)}
		c := New(llm, "openai", "gpt-4o")

		s, err := c.Stream(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, nil)
		require.NoError(t, err)
		text, err := drain(s)
		require.NoError(t, err)
		assert.Equal(t, "Hello World!", text)
	})

	t.Run("provider failure after fragments", func(t *testing.T) {
		llm := &fakeLLM{chunks: []string{"Hel"}, err: errors.New("connection reset by peer")}
		c := New(llm, "openai", "gpt-4o")

		s, err := c.Stream(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, nil)
		require.NoError(t, err)
		text, err := drain(s)
		assert.Equal(t, "Hel", text)
		var me *gentrun.ModelError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, gentrun.ModelErrNetwork, me.Code)
	})

	t.Run("answer-only call forbids tools and drops tool-call deltas", func(t *testing.T) {
		llm := &fakeLLM{
			chunks: []string{
				"Hi",
				`[{"id":"call_1","type":"function","function":{"name":"greet","arguments":""}}]`,
				`[{"type":"","function":{"arguments":"{\"name\":\"W\"}"}}]`,
			},
			resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
				Content: "Hi",
				ToolCalls: []llms.ToolCall{{
					ID:           "call_1",
					Type:         "function",
					FunctionCall: &llms.FunctionCall{Name: "greet", Arguments: `{"name":"W"}`},
				}},
			}}},
		}
		c := New(llm, "openai", "gpt-4o")
		tools := []gentrun.ToolDefinition{{Name: "greet", Description: "Greets"}}

		s, err := c.Stream(gentrun.WithAnswerOnly(context.Background()), []gentrun.Message{gentrun.UserMessage("hi")}, tools)
		require.NoError(t, err)
		text, err := drain(s)

		assert.Equal(t, "Hi", text)
		var me *gentrun.ModelError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, gentrun.ModelErrInvalidResponse, me.Code)

		llm.mu.Lock()
		defer llm.mu.Unlock()
		assert.Len(t, llm.options.Tools, 1)
		assert.Equal(t, "none", llm.options.ToolChoice)
	})

	t.Run("ordinary stream leaves tool choice alone", func(t *testing.T) {
		llm := &fakeLLM{chunks: []string{"ok"}, resp: textResponse("ok", nil)}
		c := New(llm, "openai", "gpt-4o")
		tools := []gentrun.ToolDefinition{{Name: "greet", Description: "Greets"}}

		s, err := c.Stream(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, tools)
		require.NoError(t, err)
		text, err := drain(s)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)

		llm.mu.Lock()
		defer llm.mu.Unlock()
		assert.Nil(t, llm.options.ToolChoice)
	})

	t.Run("close cancels provider call", func(t *testing.T) {
		llm := &fakeLLM{chunks: []string{"partial"}, block: true, unblock: make(chan struct{})}
		c := New(llm, "openai", "gpt-4o")

		s, err := c.Stream(context.Background(), []gentrun.Message{gentrun.UserMessage("hi")}, nil)
		require.NoError(t, err)

		first := <-s.Chunks()
		assert.Equal(t, "partial", first.Text)
		s.Close()

		select {
		case <-llm.unblock:
		case <-time.After(time.Second):
			t.Fatal("provider call was not cancelled")
		}
		_, open := <-s.Chunks()
		assert.False(t, open)
	})
}

func TestParseArguments(t *testing.T) {
	type expected struct {
		args map[string]any
		err  bool
	}

	tests := []struct {
		name     string
		input    string
		expected expected
	}{
		{name: "empty", input: "  ", expected: expected{args: map[string]any{}}},
		{name: "json", input: `{"name":"World","n":2}`, expected: expected{args: map[string]any{"name": "World", "n": float64(2)}}},
		{name: "json5", input: `{name: 'World', tags: ['a',],}`, expected: expected{args: map[string]any{"name": "World", "tags": []any{"a"}}}},
		{name: "truncated", input: `{"name":`, expected: expected{err: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := parseArguments(tc.input)
			if tc.expected.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.args, args)
		})
	}
}

func TestIsToolCallDelta(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "text", input: "Hello", expected: false},
		{name: "json array text", input: `[{"a":1}]`, expected: false},
		{name: "new tool call", input: `[{"id":"c1","type":"function","function":{"name":"x","arguments":""}}]`, expected: true},
		{name: "argument delta", input: `[{"type":"","function":{"arguments":"{"}}]`, expected: true},
		{name: "bracket prose", input: "[{ see below", expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isToolCallDelta([]byte(tc.input)))
		})
	}
}

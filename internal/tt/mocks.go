// Package tt provides test doubles and assertion helpers shared by the gentrun test suites.
package tt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/schema"
)

// -----------------------------------------------------------------------------
// MockModel - implements gentrun.ModelClient from a script
// -----------------------------------------------------------------------------

type invokeStep struct {
	resp       *gentrun.Response
	err        error
	panicValue any
}

type streamStep struct {
	fragments []string
	err       error
	openErr   error
}

// MockModel is a scripted gentrun.ModelClient.
//
// Invoke and Stream consume separate queues. When the Invoke queue is exhausted the default
// response is returned (text "done" unless changed with WithDefault). When the Stream queue is
// exhausted, the text of the most recent Invoke response is streamed as a single fragment.
//
// MockModel is safe for concurrent use.
type MockModel struct {
	mu          sync.Mutex
	name        string
	provider    string
	invokes     []invokeStep
	streams     []streamStep
	def         *gentrun.Response
	invokeCount int
	streamCount int
	lastText    string

	// CapturedMessages stores a copy of the messages passed to each Invoke and Stream call,
	// in call order.
	CapturedMessages [][]gentrun.Message

	// CapturedTools stores the tool definitions passed to each call.
	CapturedTools [][]gentrun.ToolDefinition

	answerOnly []bool
}

// NewMockModel creates a MockModel named "test-model" from provider "test".
func NewMockModel() *MockModel {
	return &MockModel{
		name:     "test-model",
		provider: "test",
		def:      &gentrun.Response{Text: "done"},
	}
}

// WithName sets the model name.
func (m *MockModel) WithName(name string) *MockModel {
	m.name = name
	return m
}

// WithProvider sets the provider name.
func (m *MockModel) WithProvider(provider string) *MockModel {
	m.provider = provider
	return m
}

// WithDefault sets the response returned once the Invoke queue is exhausted.
func (m *MockModel) WithDefault(resp *gentrun.Response) *MockModel {
	m.def = resp
	return m
}

// AddResponse queues a plain text response.
func (m *MockModel) AddResponse(text string) *MockModel {
	return m.AddRawResponse(&gentrun.Response{
		Text:  text,
		Usage: &gentrun.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	})
}

// AddToolCalls queues a response requesting the given tool calls.
func (m *MockModel) AddToolCalls(text string, calls ...gentrun.ToolCall) *MockModel {
	return m.AddRawResponse(&gentrun.Response{Text: text, ToolCalls: calls})
}

// AddRawResponse queues a response as-is, including nil.
func (m *MockModel) AddRawResponse(resp *gentrun.Response) *MockModel {
	m.invokes = append(m.invokes, invokeStep{resp: resp})
	return m
}

// AddError queues an Invoke failure.
func (m *MockModel) AddError(err error) *MockModel {
	m.invokes = append(m.invokes, invokeStep{err: err})
	return m
}

// AddPanic queues an Invoke that panics with v.
func (m *MockModel) AddPanic(v any) *MockModel {
	m.invokes = append(m.invokes, invokeStep{panicValue: v})
	return m
}

// AddStream queues a successful stream of fragments.
func (m *MockModel) AddStream(fragments ...string) *MockModel {
	m.streams = append(m.streams, streamStep{fragments: fragments})
	return m
}

// AddStreamError queues a stream that delivers fragments and then fails with err.
func (m *MockModel) AddStreamError(err error, fragments ...string) *MockModel {
	m.streams = append(m.streams, streamStep{fragments: fragments, err: err})
	return m
}

// AddStreamOpenError queues a Stream call that fails before producing a stream.
func (m *MockModel) AddStreamOpenError(err error) *MockModel {
	m.streams = append(m.streams, streamStep{openErr: err})
	return m
}

// InvokeCount returns the number of Invoke calls.
func (m *MockModel) InvokeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invokeCount
}

// StreamCount returns the number of Stream calls.
func (m *MockModel) StreamCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCount
}

// StreamAnswerOnly reports, per Stream call, whether its context was marked with
// gentrun.WithAnswerOnly.
func (m *MockModel) StreamAnswerOnly() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.answerOnly...)
}

// Messages returns the messages captured for the i-th call.
func (m *MockModel) Messages(i int) []gentrun.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.CapturedMessages) {
		return nil
	}
	return m.CapturedMessages[i]
}

func (m *MockModel) capture(messages []gentrun.Message, tools []gentrun.ToolDefinition) {
	msgs := make([]gentrun.Message, len(messages))
	copy(msgs, messages)
	m.CapturedMessages = append(m.CapturedMessages, msgs)
	m.CapturedTools = append(m.CapturedTools, tools)
}

// Invoke implements gentrun.ModelClient.
func (m *MockModel) Invoke(
	ctx context.Context,
	messages []gentrun.Message,
	tools []gentrun.ToolDefinition,
) (*gentrun.Response, error) {
	m.mu.Lock()
	idx := m.invokeCount
	m.invokeCount++
	m.capture(messages, tools)

	step := invokeStep{resp: m.def}
	if idx < len(m.invokes) {
		step = m.invokes[idx]
	}
	if step.resp != nil {
		m.lastText = step.resp.Text
	}
	m.mu.Unlock()

	if step.panicValue != nil {
		panic(step.panicValue)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return step.resp, step.err
}

// Stream implements gentrun.ModelClient.
func (m *MockModel) Stream(
	ctx context.Context,
	messages []gentrun.Message,
	tools []gentrun.ToolDefinition,
) (gentrun.ModelStream, error) {
	m.mu.Lock()
	idx := m.streamCount
	m.streamCount++
	m.capture(messages, tools)
	m.answerOnly = append(m.answerOnly, gentrun.IsAnswerOnly(ctx))

	step := streamStep{fragments: []string{m.lastText}}
	if idx < len(m.streams) {
		step = m.streams[idx]
	}
	m.mu.Unlock()

	if step.openErr != nil {
		return nil, step.openErr
	}

	stream := gentrun.NewChunkStream()
	go func() {
		for _, f := range step.fragments {
			if ctx.Err() != nil {
				stream.Finish(ctx.Err())
				return
			}
			if !stream.Send(f) {
				return
			}
		}
		stream.Finish(step.err)
	}()
	return stream, nil
}

// ModelName implements gentrun.ModelClient.
func (m *MockModel) ModelName() string { return m.name }

// ProviderName implements gentrun.ModelClient.
func (m *MockModel) ProviderName() string { return m.provider }

var _ gentrun.ModelClient = (*MockModel)(nil)

// -----------------------------------------------------------------------------
// MockTool - implements gentrun.Tool
// -----------------------------------------------------------------------------

// MockToolFunc is the body of a MockTool.
type MockToolFunc func(ctx context.Context, args map[string]any) (*gentrun.ToolResult, error)

// MockTool is a configurable gentrun.Tool that records its invocations.
type MockTool struct {
	name        string
	description string
	schema      map[string]any
	fn          MockToolFunc

	calls atomic.Int32
	mu    sync.Mutex
	args  []map[string]any
}

// NewMockTool creates a MockTool without a parameter schema.
func NewMockTool(name string, fn MockToolFunc) *MockTool {
	return &MockTool{name: name, description: "Mock tool " + name, fn: fn}
}

// WithSchema sets the parameter schema.
func (t *MockTool) WithSchema(raw map[string]any) *MockTool {
	t.schema = raw
	return t
}

// CallCount returns how many times Call ran.
func (t *MockTool) CallCount() int {
	return int(t.calls.Load())
}

// CapturedArgs returns the arguments of each call.
func (t *MockTool) CapturedArgs() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]map[string]any, len(t.args))
	copy(out, t.args)
	return out
}

func (t *MockTool) Name() string                    { return t.name }
func (t *MockTool) Description() string             { return t.description }
func (t *MockTool) ParameterSchema() map[string]any { return t.schema }

func (t *MockTool) Call(ctx context.Context, args map[string]any) (*gentrun.ToolResult, error) {
	t.calls.Add(1)
	t.mu.Lock()
	t.args = append(t.args, args)
	t.mu.Unlock()
	return t.fn(ctx, args)
}

var _ gentrun.Tool = (*MockTool)(nil)

// NewGreetingTool returns a tool named "greeting" that requires a string "name" argument and
// answers "Hello, <name>!".
func NewGreetingTool() *MockTool {
	return NewMockTool("greeting", func(_ context.Context, args map[string]any) (*gentrun.ToolResult, error) {
		return &gentrun.ToolResult{
			Title:  "Greeted",
			Output: fmt.Sprintf("Hello, %v!", args["name"]),
		}, nil
	}).WithSchema(schema.Object(map[string]*schema.Property{
		"name": schema.String("Who to greet").MinLength(1),
	}, "name"))
}

// Call builds a tool call.
func Call(id, name string, args map[string]any) gentrun.ToolCall {
	return gentrun.ToolCall{ID: id, Name: name, Args: args}
}

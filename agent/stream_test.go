package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/internal/tt"
)

// collect drains a TextStream with a timeout.
func collect(t *testing.T, s *gentrun.TextStream) []string {
	t.Helper()
	var out []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-s.Fragments():
			if !ok {
				return out
			}
			out = append(out, f)
		case <-timeout:
			t.Fatal("timed out waiting for stream to end")
			return out
		}
	}
}

// waitForEvent polls until the recorder has seen an event, since hooks after the last fragment
// fire on the run goroutine.
func waitForEvent(t *testing.T, rec *tt.Recorder, name string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(rec.ByName(name)) > 0
	}, 5*time.Second, 5*time.Millisecond)
}

func TestRunStream_Fragments(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse("Hello World!").
		AddStream("Hello", " ", "World", "!")
	rec := tt.NewRecorder()

	got := collect(t, newTestAgent(model, rec).RunStream(context.Background(), "Say hello", nil))
	waitForEvent(t, rec, tt.EventAgentEnd)

	assert.Equal(t, []string{"Hello", " ", "World", "!"}, got)
	assert.Equal(t, []string{"Hello", " ", "World", "!"}, rec.Fragments())
	tt.AssertLifecycle(t, rec,
		tt.EventAgentStart,
		tt.EventSpinnerStart,
		tt.EventLLMStart,
		tt.EventLLMEnd,
		tt.EventSpinnerStop,
		tt.EventLLMStart,
		tt.EventLLMStream,
		tt.EventLLMStream,
		tt.EventLLMStream,
		tt.EventLLMStream,
		tt.EventLLMEnd,
		tt.EventAgentEnd,
	)

	assert.Equal(t, "Hello World!", rec.ByName(tt.EventAgentEnd)[0].Text)
	ends := rec.ByName(tt.EventLLMEnd)
	assert.Equal(t, "Hello World!", ends[1].Response.Text)

	agentSpan := rec.ByName(tt.EventAgentStart)[0].Span
	starts := rec.ByName(tt.EventLLMStart)
	streamSpan := starts[1].Span
	assert.Equal(t, agentSpan.SpanID, streamSpan.ParentSpanID)
	assert.NotEqual(t, starts[0].Span.SpanID, streamSpan.SpanID)
	for _, e := range rec.ByName(tt.EventLLMStream) {
		assert.Equal(t, streamSpan, e.Span)
	}

	assert.Equal(t, 1, model.InvokeCount())
	assert.Equal(t, 1, model.StreamCount())
}

func TestRunStream_ToolTurnsAreBuffered(t *testing.T) {
	greeting := tt.NewGreetingTool()
	model := tt.NewMockModel().
		AddToolCalls("", tt.Call("c1", "greeting", map[string]any{"name": "World"})).
		AddResponse("I greeted World!").
		AddStream("I greeted ", "World!")
	rec := tt.NewRecorder()

	got := newTestAgent(model, rec, WithTools(greeting)).RunStream(context.Background(), "q", nil).Collect()
	waitForEvent(t, rec, tt.EventAgentEnd)

	assert.Equal(t, "I greeted World!", got)
	assert.Equal(t, 1, greeting.CallCount())
	assert.Equal(t, 2, model.InvokeCount())
	assert.Equal(t, 1, model.StreamCount())

	streamed := model.Messages(2)
	require.Len(t, streamed, 3)
	assert.Equal(t, gentrun.RoleTool, streamed[2].Role)
}

func TestRunStream_Failures(t *testing.T) {
	tests := []struct {
		name     string
		script   func(m *tt.MockModel)
		expected []string
		code     gentrun.ModelErrorCode
	}{
		{
			name: "stream fails to open",
			script: func(m *tt.MockModel) {
				m.AddResponse("x").AddStreamOpenError(gentrun.NewModelError(gentrun.ModelErrNetwork, "X"))
			},
			expected: []string{"Error: X"},
			code:     gentrun.ModelErrNetwork,
		},
		{
			name: "stream fails before any fragment",
			script: func(m *tt.MockModel) {
				m.AddResponse("x").AddStreamError(errors.New("reset by peer"))
			},
			expected: []string{"Error: reset by peer"},
			code:     gentrun.ModelErrUnknown,
		},
		{
			name: "stream fails mid-way",
			script: func(m *tt.MockModel) {
				m.AddResponse("x").AddStreamError(errors.New("lost"), "Hel", "lo")
			},
			expected: []string{"Hel", "lo", "Error: lost"},
			code:     gentrun.ModelErrUnknown,
		},
		{
			name: "buffered call fails",
			script: func(m *tt.MockModel) {
				m.AddError(gentrun.NewModelError(gentrun.ModelErrAuthentication, "bad key"))
			},
			expected: []string{"Error: bad key"},
			code:     gentrun.ModelErrAuthentication,
		},
		{
			name: "buffered call panics",
			script: func(m *tt.MockModel) {
				m.AddPanic("boom")
			},
			expected: []string{"Error: boom"},
			code:     gentrun.ModelErrUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := tt.NewMockModel().WithProvider("openai")
			tc.script(model)
			rec := tt.NewRecorder()

			got := collect(t, newTestAgent(model, rec).RunStream(context.Background(), "q", nil))
			waitForEvent(t, rec, tt.EventAgentEnd)

			assert.Equal(t, tc.expected, got)
			errs := rec.ByName(tt.EventError)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.code, errs[0].Err.Code)
			assert.Equal(t, "openai", errs[0].Err.Metadata["provider"])
			assert.Equal(t, tc.expected[len(tc.expected)-1], rec.ByName(tt.EventAgentEnd)[0].Text)
			assert.Len(t, rec.ByName(tt.EventSpinnerStop), 1)

			names := rec.Lifecycle()
			assert.Equal(t, tt.EventAgentEnd, names[len(names)-1])
			assert.Equal(t, tt.EventError, names[len(names)-2])
		})
	}
}

func TestRunStream_MaxIterations(t *testing.T) {
	model := tt.NewMockModel().WithDefault(&gentrun.Response{
		ToolCalls: []gentrun.ToolCall{tt.Call("c", "loop", nil)},
	})
	loop := tt.NewMockTool("loop", func(context.Context, map[string]any) (*gentrun.ToolResult, error) {
		return &gentrun.ToolResult{Output: "again"}, nil
	})

	got := collect(t, New(model, WithTools(loop), WithMaxIterations(2)).RunStream(context.Background(), "q", nil))

	assert.Equal(t, []string{"Error: Maximum iterations (2) reached"}, got)
	assert.Equal(t, 2, model.InvokeCount())
	assert.Equal(t, 0, model.StreamCount())
}

func TestRunStream_SpinnerStopsBeforeFirstFragment(t *testing.T) {
	model := tt.NewMockModel().AddResponse("ab").AddStream("a", "b")
	rec := tt.NewRecorder()

	collect(t, newTestAgent(model, rec).RunStream(context.Background(), "q", nil))
	waitForEvent(t, rec, tt.EventAgentEnd)

	names := rec.Lifecycle()
	stop, firstFragment := -1, -1
	for i, n := range names {
		if n == tt.EventSpinnerStop && stop < 0 {
			stop = i
		}
		if n == tt.EventLLMStream && firstFragment < 0 {
			firstFragment = i
		}
	}
	require.GreaterOrEqual(t, stop, 0)
	assert.Less(t, stop, firstFragment)
}

func TestRunStream_CloseCancelsRun(t *testing.T) {
	blocking := tt.NewMockTool("wait", func(ctx context.Context, _ map[string]any) (*gentrun.ToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	model := tt.NewMockModel().
		AddToolCalls("", tt.Call("c1", "wait", nil)).
		AddResponse("never")
	rec := tt.NewRecorder()

	stream := newTestAgent(model, rec, WithTools(blocking)).RunStream(context.Background(), "q", nil)
	require.Eventually(t, func() bool { return blocking.CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)
	stream.Close()

	waitForEvent(t, rec, tt.EventAgentEnd)
	assert.Equal(t, "Error: context canceled", rec.ByName(tt.EventAgentEnd)[0].Text)
	assert.Equal(t, 0, model.StreamCount())
}

func TestRunStream_NotRestartable(t *testing.T) {
	model := tt.NewMockModel().AddResponse("once").AddStream("once")
	stream := New(model).RunStream(context.Background(), "q", nil)

	assert.Equal(t, "once", stream.Collect())
	assert.Equal(t, "", stream.Collect())
}

func TestRunStream_FinalAnswerIsAnswerOnly(t *testing.T) {
	model := tt.NewMockModel().
		AddToolCalls("", tt.Call("c1", "greeting", map[string]any{"name": "Ann"})).
		AddResponse("Hello, Ann!").
		AddStream("Hello, Ann!")
	rec := tt.NewRecorder()

	got := collect(t, newTestAgent(model, rec, WithTools(tt.NewGreetingTool())).RunStream(context.Background(), "Greet Ann", nil))
	waitForEvent(t, rec, tt.EventAgentEnd)

	assert.Equal(t, []string{"Hello, Ann!"}, got)
	assert.Equal(t, []bool{true}, model.StreamAnswerOnly())
	require.Len(t, model.CapturedTools, 3)
	assert.Len(t, model.CapturedTools[2], 1)
}

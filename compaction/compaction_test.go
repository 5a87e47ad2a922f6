package compaction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/internal/tt"
)

func turn(query, answer string) []gentrun.Message {
	return []gentrun.Message{gentrun.UserMessage(query), gentrun.AssistantMessage(answer)}
}

func toolTurn(query string) []gentrun.Message {
	call := tt.Call("c1", "read_file", map[string]any{"path": "notes.txt"})
	return []gentrun.Message{
		gentrun.UserMessage(query),
		gentrun.AssistantMessage("", call),
		gentrun.ToolMessage("c1", "read_file", "1 | hello"),
		gentrun.AssistantMessage("It says hello"),
	}
}

func history(turns ...[]gentrun.Message) []gentrun.Message {
	return flatten(turns)
}

func summaryTurn(text string) []gentrun.Message {
	return turn(SummaryPrefix+text, SummaryAck)
}

func TestTurns(t *testing.T) {
	type input struct {
		history []gentrun.Message
	}

	type expected struct {
		lengths []int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "empty",
			input:    input{},
			expected: expected{lengths: nil},
		},
		{
			name:     "plain turns",
			input:    input{history: history(turn("a", "1"), turn("b", "2"))},
			expected: expected{lengths: []int{2, 2}},
		},
		{
			name:     "tool turn stays together",
			input:    input{history: history(turn("a", "1"), toolTurn("read"))},
			expected: expected{lengths: []int{2, 4}},
		},
		{
			name: "leading non-user messages",
			input: input{history: []gentrun.Message{
				gentrun.AssistantMessage("hello"),
				gentrun.UserMessage("hi"),
			}},
			expected: expected{lengths: []int{1, 1}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var lengths []int
			for _, tr := range Turns(tc.input.history) {
				lengths = append(lengths, len(tr))
			}
			assert.Equal(t, tc.expected.lengths, lengths)
		})
	}
}

func TestThreshold_Exceeded(t *testing.T) {
	h := history(turn("aaaa", "bbbb"), turn("cccc", "dddd"))

	assert.False(t, NewThreshold().Exceeded(h))
	assert.False(t, (*Threshold)(nil).Exceeded(h))
	assert.True(t, NewThreshold().OnMessages(4).Exceeded(h))
	assert.False(t, NewThreshold().OnMessages(5).Exceeded(h))
	assert.True(t, NewThreshold().OnChars(16).Exceeded(h))
	assert.False(t, NewThreshold().OnChars(17).Exceeded(h))
	assert.True(t, NewThreshold().OnMessages(100).OnChars(10).Exceeded(h))
}

func TestSlidingWindow_Compact(t *testing.T) {
	type input struct {
		windowSize int
		history    []gentrun.Message
	}

	type expected struct {
		history []gentrun.Message
	}

	a, b, c := turn("a", "1"), turn("b", "2"), toolTurn("c")
	sum := summaryTurn("earlier")

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "within window",
			input:    input{windowSize: 3, history: history(a, b, c)},
			expected: expected{history: history(a, b, c)},
		},
		{
			name:     "drops oldest turns",
			input:    input{windowSize: 1, history: history(a, b, c)},
			expected: expected{history: history(c)},
		},
		{
			name:     "summary turn is a bonus slot",
			input:    input{windowSize: 2, history: history(sum, a, b, c)},
			expected: expected{history: history(sum, b, c)},
		},
		{
			name:     "summary alone within window",
			input:    input{windowSize: 1, history: history(sum, a)},
			expected: expected{history: history(sum, a)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			original := append([]gentrun.Message(nil), tc.input.history...)

			out, err := NewSlidingWindow(tc.input.windowSize).Compact(context.Background(), tc.input.history)

			require.NoError(t, err)
			assert.Equal(t, tc.expected.history, out)
			assert.Equal(t, original, tc.input.history)
		})
	}
}

func TestNewSlidingWindow_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { NewSlidingWindow(0) })
}

func TestSummarization_Compact(t *testing.T) {
	t.Run("summarizes older turns", func(t *testing.T) {
		model := tt.NewMockModel().AddResponse("  ### Task & Intent\nread notes  ")
		a, b, c := turn("a", "1"), toolTurn("read notes"), turn("c", "3")

		out, err := NewSummarization(model).WithKeepRecent(1).Compact(context.Background(), history(a, b, c))
		require.NoError(t, err)

		assert.Equal(t, history(summaryTurn("### Task & Intent\nread notes"), c), out)

		sent := model.Messages(0)
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Content, "None (first compaction).")
		assert.Contains(t, sent[0].Content, "### Turn 1\n\nuser: a\nassistant: 1\n")
		assert.Contains(t, sent[0].Content, "assistant (called read_file): \n")
		assert.Contains(t, sent[0].Content, "tool read_file: 1 | hello\n")
		assert.Nil(t, model.CapturedTools[0])
	})

	t.Run("extends existing summary", func(t *testing.T) {
		model := tt.NewMockModel().AddResponse("updated")
		h := history(summaryTurn("old facts"), turn("a", "1"), turn("b", "2"))

		out, err := NewSummarization(model).WithKeepRecent(1).Compact(context.Background(), h)
		require.NoError(t, err)

		assert.Equal(t, history(summaryTurn("updated"), turn("b", "2")), out)
		prompt := model.Messages(0)[0].Content
		assert.Contains(t, prompt, "## Existing Summary\n\nold facts")
		assert.NotContains(t, prompt, SummaryPrefix)
		assert.Contains(t, prompt, "user: a")
		assert.NotContains(t, prompt, "user: b")
	})

	t.Run("nothing to summarize", func(t *testing.T) {
		model := tt.NewMockModel()
		h := history(turn("a", "1"), turn("b", "2"))

		out, err := NewSummarization(model).WithKeepRecent(2).Compact(context.Background(), h)
		require.NoError(t, err)
		assert.Equal(t, h, out)
		assert.Equal(t, 0, model.InvokeCount())
	})

	t.Run("custom prompt", func(t *testing.T) {
		model := tt.NewMockModel().AddResponse("s")
		_, err := NewSummarization(model).
			WithPrompt("PREV<%s> NEW<%s>").
			Compact(context.Background(), history(turn("a", "1")))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(model.Messages(0)[0].Content, "PREV<## Existing Summary"))
	})

	t.Run("model failure", func(t *testing.T) {
		model := tt.NewMockModel().AddError(errors.New("boom"))
		_, err := NewSummarization(model).Compact(context.Background(), history(turn("a", "1")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "summarization model call: boom")
	})

	t.Run("empty summary", func(t *testing.T) {
		model := tt.NewMockModel().AddResponse("   ")
		_, err := NewSummarization(model).Compact(context.Background(), history(turn("a", "1")))
		assert.EqualError(t, err, "summarization model returned no text")
	})
}

func TestCompactor_Apply(t *testing.T) {
	h := history(turn("a", "1"), turn("b", "2"), turn("c", "3"))

	t.Run("below threshold", func(t *testing.T) {
		c := New(NewThreshold().OnMessages(10), NewSlidingWindow(1))
		out, ran, err := c.Apply(context.Background(), h)
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, h, out)
	})

	t.Run("above threshold", func(t *testing.T) {
		c := New(NewThreshold().OnMessages(6), NewSlidingWindow(1))
		out, ran, err := c.Apply(context.Background(), h)
		require.NoError(t, err)
		assert.True(t, ran)
		assert.Equal(t, turn("c", "3"), out)
	})

	t.Run("nil trigger always compacts", func(t *testing.T) {
		out, ran, err := New(nil, NewSlidingWindow(2)).Apply(context.Background(), h)
		require.NoError(t, err)
		assert.True(t, ran)
		assert.Len(t, out, 4)
	})

	t.Run("nil compactor", func(t *testing.T) {
		out, ran, err := (*Compactor)(nil).Apply(context.Background(), h)
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, h, out)
	})

	t.Run("strategy failure keeps history", func(t *testing.T) {
		model := tt.NewMockModel().AddError(errors.New("down"))
		out, ran, err := New(nil, NewSummarization(model)).Apply(context.Background(), h)
		require.Error(t, err)
		assert.False(t, ran)
		assert.Equal(t, h, out)
	})
}

package hooks

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/internal/tt"
)

type panickingHook struct{}

func (panickingHook) OnAgentStart(gentrun.SpanContext, string) { panic("hook exploded") }

func TestRegistry_FiresInRegistrationOrder(t *testing.T) {
	var order []string
	first := &Funcs{AgentStart: func(gentrun.SpanContext, string) { order = append(order, "first") }}
	second := &Funcs{AgentStart: func(gentrun.SpanContext, string) { order = append(order, "second") }}

	r := NewRegistry().Register(first, second)
	r.FireAgentStart(gentrun.NewTrace(), "q")

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_OnlyMatchingInterfaces(t *testing.T) {
	rec := tt.NewRecorder()
	r := NewRegistry().Register(panickingHook{}, rec, nil)

	span := gentrun.NewTrace()
	r.FireLLMStart(span)
	r.FireLLMStream(span, "frag")
	r.FireLLMEnd(span, &gentrun.Response{Text: "t"})
	r.FireToolStart(span, "greeting", map[string]any{"name": "x"})
	r.FireToolEnd(span, "greeting", gentrun.ToolOutcome{Output: "ok"})
	r.FireError(span, gentrun.NewModelError(gentrun.ModelErrNetwork, "X"))
	r.FireSpinnerStart("Thinking...")
	r.FireSpinnerStop()
	r.FireDebug("d", nil)
	r.FireTrace("t", nil)
	r.FireAgentEnd(span, "done")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{
		tt.EventLLMStart, tt.EventLLMStream, tt.EventLLMEnd,
		tt.EventToolStart, tt.EventToolEnd, tt.EventError,
		tt.EventSpinnerStart, tt.EventSpinnerStop,
		tt.EventDebug, tt.EventTrace, tt.EventAgentEnd,
	}, rec.Names())
}

func TestRegistry_RecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	rec := tt.NewRecorder()
	r := NewRegistry().
		WithLogger(zerolog.New(&logs)).
		Register(panickingHook{}, rec)

	assert.NotPanics(t, func() { r.FireAgentStart(gentrun.NewTrace(), "q") })
	assert.Equal(t, []string{tt.EventAgentStart}, rec.Names())
	assert.Contains(t, logs.String(), "hook exploded")
	assert.Contains(t, logs.String(), "OnAgentStart")
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.FireAgentStart(gentrun.NewTrace(), "q")
		r.FireDebug("d", nil)
		r.FireSpinnerStop()
	})
	assert.Equal(t, 0, r.Len())
}

func TestFuncs_NilFieldsAreNoOps(t *testing.T) {
	f := &Funcs{}
	r := NewRegistry().Register(f)
	span := gentrun.NewTrace()

	assert.NotPanics(t, func() {
		r.FireAgentStart(span, "q")
		r.FireAgentEnd(span, "a")
		r.FireError(span, gentrun.NewModelError(gentrun.ModelErrUnknown, "x"))
		r.FireLLMStart(span)
		r.FireLLMStream(span, "f")
		r.FireLLMEnd(span, nil)
		r.FireToolStart(span, "t", nil)
		r.FireToolEnd(span, "t", gentrun.ToolOutcome{})
		r.FireSpinnerStart("l")
		r.FireSpinnerStop()
		r.FireDebug("d", nil)
		r.FireTrace("t", nil)
	})
}

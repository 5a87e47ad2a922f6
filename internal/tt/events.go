package tt

import (
	"sync"

	"github.com/rickchristie/gentrun"
)

// -----------------------------------------------------------------------------
// Event Names
// -----------------------------------------------------------------------------

const (
	EventAgentStart   = "agent_start"
	EventAgentEnd     = "agent_end"
	EventError        = "error"
	EventLLMStart     = "llm_start"
	EventLLMStream    = "llm_stream"
	EventLLMEnd       = "llm_end"
	EventToolStart    = "tool_start"
	EventToolEnd      = "tool_end"
	EventSpinnerStart = "spinner_start"
	EventSpinnerStop  = "spinner_stop"
	EventDebug        = "debug"
	EventTrace        = "trace"
)

// Event is one recorded hook invocation. Only the fields relevant to Name are set.
type Event struct {
	Name     string
	Span     gentrun.SpanContext
	Query    string
	Text     string
	Fragment string
	Response *gentrun.Response
	Err      *gentrun.ModelError
	ToolName string
	Args     map[string]any
	Outcome  gentrun.ToolOutcome
	Label    string
	Message  string
	Data     map[string]any
}

// -----------------------------------------------------------------------------
// Recorder - implements every hook interface
// -----------------------------------------------------------------------------

// Recorder records every hook invocation in order. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the names of all recorded events.
func (r *Recorder) Names() []string {
	var names []string
	for _, e := range r.Events() {
		names = append(names, e.Name)
	}
	return names
}

// Lifecycle returns the names of lifecycle events, see [IsLifecycleEvent].
func (r *Recorder) Lifecycle() []string {
	var names []string
	for _, e := range r.Events() {
		if IsLifecycleEvent(e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

// ByName returns the recorded events with the given name.
func (r *Recorder) ByName(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Fragments returns the streamed fragments in order.
func (r *Recorder) Fragments() []string {
	var out []string
	for _, e := range r.ByName(EventLLMStream) {
		out = append(out, e.Fragment)
	}
	return out
}

func (r *Recorder) OnAgentStart(span gentrun.SpanContext, query string) {
	r.add(Event{Name: EventAgentStart, Span: span, Query: query})
}

func (r *Recorder) OnAgentEnd(span gentrun.SpanContext, finalText string) {
	r.add(Event{Name: EventAgentEnd, Span: span, Text: finalText})
}

func (r *Recorder) OnError(span gentrun.SpanContext, err *gentrun.ModelError) {
	r.add(Event{Name: EventError, Span: span, Err: err})
}

func (r *Recorder) OnLLMStart(span gentrun.SpanContext) {
	r.add(Event{Name: EventLLMStart, Span: span})
}

func (r *Recorder) OnLLMStream(span gentrun.SpanContext, fragment string) {
	r.add(Event{Name: EventLLMStream, Span: span, Fragment: fragment})
}

func (r *Recorder) OnLLMEnd(span gentrun.SpanContext, response *gentrun.Response) {
	r.add(Event{Name: EventLLMEnd, Span: span, Response: response})
}

func (r *Recorder) OnToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	r.add(Event{Name: EventToolStart, Span: span, ToolName: name, Args: args})
}

func (r *Recorder) OnToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	r.add(Event{Name: EventToolEnd, Span: span, ToolName: name, Outcome: outcome})
}

func (r *Recorder) OnSpinnerStart(label string) {
	r.add(Event{Name: EventSpinnerStart, Label: label})
}

func (r *Recorder) OnSpinnerStop() {
	r.add(Event{Name: EventSpinnerStop})
}

func (r *Recorder) OnDebug(message string, data map[string]any) {
	r.add(Event{Name: EventDebug, Message: message, Data: data})
}

func (r *Recorder) OnTrace(message string, data map[string]any) {
	r.add(Event{Name: EventTrace, Message: message, Data: data})
}

var (
	_ gentrun.AgentStartHook   = (*Recorder)(nil)
	_ gentrun.AgentEndHook     = (*Recorder)(nil)
	_ gentrun.ErrorHook        = (*Recorder)(nil)
	_ gentrun.LLMStartHook     = (*Recorder)(nil)
	_ gentrun.LLMStreamHook    = (*Recorder)(nil)
	_ gentrun.LLMEndHook       = (*Recorder)(nil)
	_ gentrun.ToolStartHook    = (*Recorder)(nil)
	_ gentrun.ToolEndHook      = (*Recorder)(nil)
	_ gentrun.SpinnerStartHook = (*Recorder)(nil)
	_ gentrun.SpinnerStopHook  = (*Recorder)(nil)
	_ gentrun.DebugHook        = (*Recorder)(nil)
	_ gentrun.TraceHook        = (*Recorder)(nil)
)

// -----------------------------------------------------------------------------
// Firer - records events fired directly through gentrun.HookFirer
// -----------------------------------------------------------------------------

// Firer adapts a Recorder to gentrun.HookFirer without a hooks.Registry, for packages that
// fire events directly (history sanitization, tool dispatch).
type Firer struct {
	*Recorder
}

// NewFirer creates a Firer with a fresh Recorder.
func NewFirer() *Firer {
	return &Firer{Recorder: NewRecorder()}
}

func (f *Firer) FireAgentStart(span gentrun.SpanContext, q string)  { f.OnAgentStart(span, q) }
func (f *Firer) FireAgentEnd(span gentrun.SpanContext, text string) { f.OnAgentEnd(span, text) }
func (f *Firer) FireError(span gentrun.SpanContext, err *gentrun.ModelError) {
	f.OnError(span, err)
}
func (f *Firer) FireLLMStart(span gentrun.SpanContext)            { f.OnLLMStart(span) }
func (f *Firer) FireLLMStream(span gentrun.SpanContext, s string) { f.OnLLMStream(span, s) }
func (f *Firer) FireLLMEnd(span gentrun.SpanContext, resp *gentrun.Response) {
	f.OnLLMEnd(span, resp)
}
func (f *Firer) FireToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	f.OnToolStart(span, name, args)
}
func (f *Firer) FireToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	f.OnToolEnd(span, name, outcome)
}
func (f *Firer) FireSpinnerStart(label string)                { f.OnSpinnerStart(label) }
func (f *Firer) FireSpinnerStop()                             { f.OnSpinnerStop() }
func (f *Firer) FireDebug(message string, data map[string]any) { f.OnDebug(message, data) }
func (f *Firer) FireTrace(message string, data map[string]any) { f.OnTrace(message, data) }

var _ gentrun.HookFirer = (*Firer)(nil)

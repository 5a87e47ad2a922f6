package gentrun

// -----------------------------------------------------------------------------
// Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks are the only way external code observes a run. A hook implements any subset of the
// interfaces below; events for interfaces it does not implement are simply not delivered.
//
// Hooks are observers, not gates: nothing they return or do changes the run. They are called
// synchronously, in the order the agent state machine reaches each point:
//
//	OnAgentStart → OnSpinnerStart → (OnLLMStart → OnLLMEnd → (OnToolStart → OnToolEnd)*)*
//	             → OnSpinnerStop → OnAgentEnd
//
// Register hooks with hooks.Registry, which recovers hook panics so a misbehaving observer
// cannot corrupt agent state.
// -----------------------------------------------------------------------------

// AgentStartHook observes the start of a run.
type AgentStartHook interface {
	OnAgentStart(span SpanContext, query string)
}

// AgentEndHook observes the end of a run. finalText is what Run returns, including
// "Error: ..." strings.
type AgentEndHook interface {
	OnAgentEnd(span SpanContext, finalText string)
}

// ErrorHook observes model-client failures. Tool failures are reported via [ToolEndHook].
type ErrorHook interface {
	OnError(span SpanContext, err *ModelError)
}

// LLMStartHook observes the start of a model call.
type LLMStartHook interface {
	OnLLMStart(span SpanContext)
}

// LLMStreamHook observes each streamed text fragment.
type LLMStreamHook interface {
	OnLLMStream(span SpanContext, fragment string)
}

// LLMEndHook observes a completed model call.
type LLMEndHook interface {
	OnLLMEnd(span SpanContext, response *Response)
}

// ToolStartHook observes the start of a tool invocation.
type ToolStartHook interface {
	OnToolStart(span SpanContext, name string, args map[string]any)
}

// ToolEndHook observes a completed tool invocation, successful or not.
type ToolEndHook interface {
	OnToolEnd(span SpanContext, name string, outcome ToolOutcome)
}

// SpinnerStartHook receives presentation hints that work has started.
type SpinnerStartHook interface {
	OnSpinnerStart(label string)
}

// SpinnerStopHook receives presentation hints that work has stopped.
type SpinnerStopHook interface {
	OnSpinnerStop()
}

// DebugHook receives implementer-facing diagnostics.
type DebugHook interface {
	OnDebug(message string, data map[string]any)
}

// TraceHook receives fine-grained implementer-facing diagnostics.
type TraceHook interface {
	OnTrace(message string, data map[string]any)
}

// HookFirer is what the agent loop and tool dispatcher fire events through.
// hooks.Registry is the standard implementation; [NopFirer] discards everything.
type HookFirer interface {
	FireAgentStart(span SpanContext, query string)
	FireAgentEnd(span SpanContext, finalText string)
	FireError(span SpanContext, err *ModelError)
	FireLLMStart(span SpanContext)
	FireLLMStream(span SpanContext, fragment string)
	FireLLMEnd(span SpanContext, response *Response)
	FireToolStart(span SpanContext, name string, args map[string]any)
	FireToolEnd(span SpanContext, name string, outcome ToolOutcome)
	FireSpinnerStart(label string)
	FireSpinnerStop()
	FireDebug(message string, data map[string]any)
	FireTrace(message string, data map[string]any)
}

// NopFirer discards every event.
type NopFirer struct{}

func (NopFirer) FireAgentStart(SpanContext, string)                 {}
func (NopFirer) FireAgentEnd(SpanContext, string)                   {}
func (NopFirer) FireError(SpanContext, *ModelError)                 {}
func (NopFirer) FireLLMStart(SpanContext)                           {}
func (NopFirer) FireLLMStream(SpanContext, string)                  {}
func (NopFirer) FireLLMEnd(SpanContext, *Response)                  {}
func (NopFirer) FireToolStart(SpanContext, string, map[string]any)  {}
func (NopFirer) FireToolEnd(SpanContext, string, ToolOutcome)       {}
func (NopFirer) FireSpinnerStart(string)                            {}
func (NopFirer) FireSpinnerStop()                                   {}
func (NopFirer) FireDebug(string, map[string]any)                   {}
func (NopFirer) FireTrace(string, map[string]any)                   {}

var _ HookFirer = NopFirer{}

package hooks

import (
	"github.com/rs/zerolog"

	"github.com/rickchristie/gentrun"
)

// Registry manages a collection of hooks and dispatches events to them.
//
// # Overview
//
// Registry is the central coordination point for hooks. It:
//   - Stores registered hooks in order
//   - Dispatches events to hooks that implement the relevant interface
//   - Isolates the run from misbehaving hooks
//
// Hooks can implement any combination of hook interfaces - they only receive
// events for the interfaces they implement.
//
// # Creating and Using
//
//	registry := hooks.NewRegistry()
//	registry.Register(hooks.NewLogger(log))
//	registry.Register(&hooks.Funcs{
//	    ToolStart: func(span gentrun.SpanContext, name string, args map[string]any) {
//	        fmt.Println("calling", name)
//	    },
//	})
//
//	a := agent.New(client, agent.WithHookRegistry(registry))
//
// # Panics
//
// A hook that panics is recovered, logged at warn level, and skipped. The remaining hooks still
// receive the event and the run continues unaffected.
//
// # Thread Safety
//
// Register all hooks before starting runs. Fire methods are safe to call from concurrent runs
// as long as the hooks themselves are.
type Registry struct {
	hooks  []any
	logger zerolog.Logger
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:  make([]any, 0),
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger used to report recovered hook panics.
func (r *Registry) WithLogger(logger zerolog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds hooks to the registry. Hooks are called in the order they are registered.
// Nil hooks are ignored.
func (r *Registry) Register(hooks ...any) *Registry {
	for _, h := range hooks {
		if h != nil {
			r.hooks = append(r.hooks, h)
		}
	}
	return r
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.hooks)
}

// safely runs one hook invocation, recovering and logging a panic.
func (r *Registry) safely(event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn().
				Str("event", event).
				Str("panic", gentrun.PanicMessage(rec)).
				Msg("hook panicked; ignoring")
		}
	}()
	fn()
}

// FireAgentStart dispatches to every AgentStartHook.
func (r *Registry) FireAgentStart(span gentrun.SpanContext, query string) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.AgentStartHook); ok {
			r.safely("OnAgentStart", func() { hook.OnAgentStart(span, query) })
		}
	}
}

// FireAgentEnd dispatches to every AgentEndHook.
func (r *Registry) FireAgentEnd(span gentrun.SpanContext, finalText string) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.AgentEndHook); ok {
			r.safely("OnAgentEnd", func() { hook.OnAgentEnd(span, finalText) })
		}
	}
}

// FireError dispatches to every ErrorHook.
func (r *Registry) FireError(span gentrun.SpanContext, err *gentrun.ModelError) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.ErrorHook); ok {
			r.safely("OnError", func() { hook.OnError(span, err) })
		}
	}
}

// FireLLMStart dispatches to every LLMStartHook.
func (r *Registry) FireLLMStart(span gentrun.SpanContext) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.LLMStartHook); ok {
			r.safely("OnLLMStart", func() { hook.OnLLMStart(span) })
		}
	}
}

// FireLLMStream dispatches to every LLMStreamHook.
func (r *Registry) FireLLMStream(span gentrun.SpanContext, fragment string) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.LLMStreamHook); ok {
			r.safely("OnLLMStream", func() { hook.OnLLMStream(span, fragment) })
		}
	}
}

// FireLLMEnd dispatches to every LLMEndHook.
func (r *Registry) FireLLMEnd(span gentrun.SpanContext, response *gentrun.Response) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.LLMEndHook); ok {
			r.safely("OnLLMEnd", func() { hook.OnLLMEnd(span, response) })
		}
	}
}

// FireToolStart dispatches to every ToolStartHook.
func (r *Registry) FireToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.ToolStartHook); ok {
			r.safely("OnToolStart", func() { hook.OnToolStart(span, name, args) })
		}
	}
}

// FireToolEnd dispatches to every ToolEndHook.
func (r *Registry) FireToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.ToolEndHook); ok {
			r.safely("OnToolEnd", func() { hook.OnToolEnd(span, name, outcome) })
		}
	}
}

// FireSpinnerStart dispatches to every SpinnerStartHook.
func (r *Registry) FireSpinnerStart(label string) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.SpinnerStartHook); ok {
			r.safely("OnSpinnerStart", func() { hook.OnSpinnerStart(label) })
		}
	}
}

// FireSpinnerStop dispatches to every SpinnerStopHook.
func (r *Registry) FireSpinnerStop() {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.SpinnerStopHook); ok {
			r.safely("OnSpinnerStop", hook.OnSpinnerStop)
		}
	}
}

// FireDebug dispatches to every DebugHook.
func (r *Registry) FireDebug(message string, data map[string]any) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.DebugHook); ok {
			r.safely("OnDebug", func() { hook.OnDebug(message, data) })
		}
	}
}

// FireTrace dispatches to every TraceHook.
func (r *Registry) FireTrace(message string, data map[string]any) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		if hook, ok := h.(gentrun.TraceHook); ok {
			r.safely("OnTrace", func() { hook.OnTrace(message, data) })
		}
	}
}

var _ gentrun.HookFirer = (*Registry)(nil)

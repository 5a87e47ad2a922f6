// Package hooks provides the registry that dispatches agent lifecycle events, plus a few
// ready-made hooks.
//
// Hooks let you observe a run. Each hook interface in the gentrun package corresponds to one
// event type - implement only the interfaces you need.
//
// # Hook Interfaces
//
// Run lifecycle hooks:
//   - [gentrun.AgentStartHook] - Called once when a run starts
//   - [gentrun.AgentEndHook] - Called once with the final text of the run
//   - [gentrun.ErrorHook] - Called when the model client fails
//
// Model call hooks:
//   - [gentrun.LLMStartHook] - Called before each model call
//   - [gentrun.LLMStreamHook] - Called for each streamed fragment
//   - [gentrun.LLMEndHook] - Called after each model call
//
// Tool call hooks:
//   - [gentrun.ToolStartHook] - Called before each tool execution
//   - [gentrun.ToolEndHook] - Called after each tool execution, with its outcome
//
// Presentation and diagnostics:
//   - [gentrun.SpinnerStartHook], [gentrun.SpinnerStopHook]
//   - [gentrun.DebugHook], [gentrun.TraceHook]
//
// # Creating a Hook
//
//	type MetricsHook struct{}
//
//	func (h *MetricsHook) OnToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
//	    metrics.RecordToolCall(name, outcome.OK())
//	}
//
//	// Compile-time check
//	var _ gentrun.ToolEndHook = (*MetricsHook)(nil)
//
// For one-off observers, [Funcs] wraps plain functions.
//
// # Provided Hooks
//
//   - [Logger] writes every event to a zerolog.Logger
//   - [Transcript] writes a YAML document per completed model and tool call
//   - The otelhook subpackage exports spans to OpenTelemetry
package hooks

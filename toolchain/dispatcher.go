package toolchain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rickchristie/gentrun"
)

// Dispatcher executes tool calls against a Registry and reports them through a HookFirer.
//
// Dispatch never panics and never returns an error: every failure is normalized into the tool
// message content. A Dispatcher is safe for concurrent use when its tools are.
type Dispatcher struct {
	registry *Registry
	firer    gentrun.HookFirer
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher. A nil firer discards events.
func NewDispatcher(registry *Registry, firer gentrun.HookFirer) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if firer == nil {
		firer = gentrun.NopFirer{}
	}
	return &Dispatcher{registry: registry, firer: firer, logger: zerolog.Nop()}
}

// WithLogger sets the logger for dispatch diagnostics.
func (d *Dispatcher) WithLogger(logger zerolog.Logger) *Dispatcher {
	d.logger = logger
	return d
}

// Dispatch executes one tool call.
//
// When the tool is not registered an OnDebug diagnostic is fired, a warning is logged and ok
// is false; no tool hooks fire and no message should be appended. The assistant's call then
// stays unanswered in the history. Providers that pair every tool call with a result, OpenAI
// among them, reject that history on the next request and the run ends with a model error.
// Register every tool the model may name, or keep its tool list to the registered ones.
//
// Otherwise OnToolStart and OnToolEnd bracket the invocation and the returned message answers
// call.ID.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	span gentrun.SpanContext,
	call gentrun.ToolCall,
) (msg gentrun.Message, ok bool) {
	e, found := d.registry.lookup(call.Name)
	if !found {
		d.firer.FireDebug(fmt.Sprintf("Tool '%s' not found", call.Name), map[string]any{"toolCall": call})
		d.logger.Warn().
			Str("tool", call.Name).
			Str("toolCallId", call.ID).
			Msg("tool call left unanswered")
		return gentrun.Message{}, false
	}

	d.firer.FireToolStart(span, call.Name, call.Args)

	outcome := d.execute(ctx, e, call)
	if !outcome.OK() {
		d.logger.Debug().
			Str("tool", call.Name).
			Str("code", string(outcome.Err.Code)).
			Str("error", outcome.Err.Message).
			Msg("tool call failed")
	}

	d.firer.FireToolEnd(span, call.Name, outcome)
	return gentrun.ToolMessage(call.ID, call.Name, outcome.Content()), true
}

// DispatchAll executes calls sequentially in request order and returns the messages to append.
// It stops early when ctx is cancelled.
func (d *Dispatcher) DispatchAll(
	ctx context.Context,
	span gentrun.SpanContext,
	calls []gentrun.ToolCall,
) []gentrun.Message {
	msgs := make([]gentrun.Message, 0, len(calls))
	for _, call := range calls {
		if ctx.Err() != nil {
			break
		}
		if msg, ok := d.Dispatch(ctx, span, call); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (d *Dispatcher) execute(ctx context.Context, e *entry, call gentrun.ToolCall) (outcome gentrun.ToolOutcome) {
	if e.limiter != nil && !e.limiter.Allow() {
		return gentrun.FailureOutcome(gentrun.NewToolError(
			gentrun.ToolErrRateLimit, "Rate limit exceeded for tool '%s'", call.Name,
		))
	}

	if err := e.schema.Validate(call.Args); err != nil {
		return gentrun.FailureOutcome(gentrun.NewToolError(gentrun.ToolErrValidation, "%s", err.Error()))
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = gentrun.FailureOutcome(gentrun.NewToolError(
				gentrun.ToolErrUnknown, "%s", gentrun.PanicMessage(r),
			))
		}
	}()

	result, err := e.tool.Call(ctx, call.Args)
	if err != nil {
		return gentrun.FailureOutcome(gentrun.AsToolError(err))
	}
	return gentrun.SuccessOutcome(result)
}

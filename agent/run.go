package agent

import (
	"context"
	"fmt"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/toolchain"
)

// runState is the transient state of one Run or RunStream call.
type runState struct {
	span      gentrun.SpanContext
	messages  []gentrun.Message
	tools     []gentrun.ToolDefinition
	iteration int
}

// Run executes the loop in buffered mode and returns the final text.
//
// Failures are returned as text: "Error: <message>" for model-client failures and
// "Error: Maximum iterations (<N>) reached" when the iteration cap is hit.
func (a *Agent) Run(ctx context.Context, query string, history []gentrun.Message) string {
	st := a.start(ctx, query, history)

	resp, merr := a.think(ctx, st)
	a.hooks.FireSpinnerStop()

	var final string
	switch {
	case merr != nil:
		final = a.fail(st, merr)
	case resp == nil:
		final = a.maxIterationsText()
	default:
		final = resp.Text
	}

	a.finish(st, final)
	return final
}

// start opens the agent span, fires OnAgentStart and OnSpinnerStart, and builds the initial
// transcript.
func (a *Agent) start(ctx context.Context, query string, history []gentrun.Message) *runState {
	st := &runState{span: gentrun.NewTrace(), tools: a.registry.Definitions()}
	a.hooks.FireAgentStart(st.span, query)

	st.messages = gentrun.BuildInitialMessages(a.resolveSystemPrompt(ctx), history, query, a.hooks)
	a.hooks.FireSpinnerStart(SpinnerLabel)

	a.logger.Debug().
		Str("trace_id", st.span.TraceID).
		Str("model", a.client.ModelName()).
		Int("history", len(history)).
		Int("tools", len(st.tools)).
		Msg("run started")
	return st
}

func (a *Agent) finish(st *runState, final string) {
	a.hooks.FireAgentEnd(st.span, final)
	a.logger.Debug().
		Str("trace_id", st.span.TraceID).
		Int("iterations", min(st.iteration, a.maxIterations)).
		Msg("run finished")
}

// fail fires OnError for a model-client failure and returns the run's final text.
func (a *Agent) fail(st *runState, merr *gentrun.ModelError) string {
	a.hooks.FireError(st.span, merr)
	return "Error: " + merr.Message
}

func (a *Agent) maxIterationsText() string {
	return fmt.Sprintf("Error: Maximum iterations (%d) reached", a.maxIterations)
}

func (a *Agent) resolveSystemPrompt(ctx context.Context) string {
	if a.systemPrompt != "" || a.promptBuilder == nil {
		return a.systemPrompt
	}
	prompt, err := a.promptBuilder.BuildSystemPrompt(ctx, a.registry.Tools())
	if err != nil {
		a.logger.Warn().Err(err).Msg("building system prompt failed; continuing without one")
		return ""
	}
	return prompt
}

// think runs THINKING/TOOL_DISPATCH cycles until the model answers without tool calls.
//
// It returns the answering response, or a model error, or (nil, nil) when the iteration cap
// was reached.
func (a *Agent) think(ctx context.Context, st *runState) (*gentrun.Response, *gentrun.ModelError) {
	dispatcher := toolchain.NewDispatcher(a.registry, a.hooks).WithLogger(a.logger)

	for st.iteration = 1; st.iteration <= a.maxIterations; st.iteration++ {
		a.hooks.FireTrace("Iteration started", map[string]any{
			"iteration": st.iteration,
			"messages":  len(st.messages),
		})

		llmSpan := gentrun.ChildSpan(st.span)
		a.hooks.FireLLMStart(llmSpan)

		resp, err := a.invoke(ctx, st)
		if err != nil {
			return nil, a.modelError(err, st.iteration)
		}
		a.hooks.FireLLMEnd(llmSpan, resp)

		if !resp.HasToolCalls() {
			return resp, nil
		}

		a.hooks.FireTrace("Tool calls requested", map[string]any{
			"iteration": st.iteration,
			"toolCalls": len(resp.ToolCalls),
		})
		st.messages = append(st.messages, gentrun.AssistantMessage(resp.Text, resp.ToolCalls...))
		st.messages = append(st.messages, dispatcher.DispatchAll(ctx, st.span, resp.ToolCalls)...)
	}
	return nil, nil
}

// invoke calls the model client, converting panics and empty responses into errors.
func (a *Agent) invoke(ctx context.Context, st *runState) (resp *gentrun.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = gentrun.NewModelError(gentrun.ModelErrUnknown, gentrun.PanicMessage(r))
		}
	}()

	resp, err = a.client.Invoke(ctx, st.messages, st.tools)
	if err == nil && resp == nil {
		err = gentrun.NewModelError(gentrun.ModelErrInvalidResponse, "model client returned no response")
	}
	return resp, err
}

// modelError normalizes err and stamps it with the client identity and iteration.
func (a *Agent) modelError(err error, iteration int) *gentrun.ModelError {
	return gentrun.AsModelError(err).WithMetadata(map[string]any{
		"provider":  a.client.ProviderName(),
		"model":     a.client.ModelName(),
		"iteration": iteration,
	})
}

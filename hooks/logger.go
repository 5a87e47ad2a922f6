package hooks

import (
	"github.com/rs/zerolog"

	"github.com/rickchristie/gentrun"
)

// Logger writes every lifecycle event to a zerolog.Logger.
//
// Run and tool events log at info, model calls and diagnostics at debug, fragments at trace,
// and model failures at error. Fields always include trace_id and span_id so log lines from
// concurrent runs can be separated.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a Logger hook.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) withSpan(e *zerolog.Event, span gentrun.SpanContext) *zerolog.Event {
	e = e.Str("trace_id", span.TraceID).Str("span_id", span.SpanID)
	if span.ParentSpanID != "" {
		e = e.Str("parent_span_id", span.ParentSpanID)
	}
	return e
}

func (l *Logger) OnAgentStart(span gentrun.SpanContext, query string) {
	l.withSpan(l.log.Info(), span).Str("query", query).Msg("agent start")
}

func (l *Logger) OnAgentEnd(span gentrun.SpanContext, finalText string) {
	l.withSpan(l.log.Info(), span).Int("chars", len(finalText)).Msg("agent end")
}

func (l *Logger) OnError(span gentrun.SpanContext, err *gentrun.ModelError) {
	e := l.withSpan(l.log.Error(), span).Str("code", string(err.Code))
	if len(err.Metadata) > 0 {
		e = e.Interface("metadata", err.Metadata)
	}
	e.Msg(err.Message)
}

func (l *Logger) OnLLMStart(span gentrun.SpanContext) {
	l.withSpan(l.log.Debug(), span).Msg("llm start")
}

func (l *Logger) OnLLMStream(span gentrun.SpanContext, fragment string) {
	l.withSpan(l.log.Trace(), span).Str("fragment", fragment).Msg("llm stream")
}

func (l *Logger) OnLLMEnd(span gentrun.SpanContext, response *gentrun.Response) {
	e := l.withSpan(l.log.Debug(), span)
	if response != nil {
		e = e.Int("tool_calls", len(response.ToolCalls)).Int("chars", len(response.Text))
		if u := response.Usage; u != nil {
			e = e.Int("input_tokens", u.InputTokens).Int("output_tokens", u.OutputTokens)
		}
	}
	e.Msg("llm end")
}

func (l *Logger) OnToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	l.withSpan(l.log.Info(), span).Str("tool", name).Interface("args", args).Msg("tool start")
}

func (l *Logger) OnToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	if outcome.OK() {
		l.withSpan(l.log.Info(), span).Str("tool", name).Str("title", outcome.Title).Msg("tool end")
		return
	}
	l.withSpan(l.log.Warn(), span).
		Str("tool", name).
		Str("code", string(outcome.Err.Code)).
		Str("error", outcome.Err.Message).
		Msg("tool failed")
}

func (l *Logger) OnDebug(message string, data map[string]any) {
	l.log.Debug().Fields(data).Msg(message)
}

func (l *Logger) OnTrace(message string, data map[string]any) {
	l.log.Trace().Fields(data).Msg(message)
}

var (
	_ gentrun.AgentStartHook = (*Logger)(nil)
	_ gentrun.AgentEndHook   = (*Logger)(nil)
	_ gentrun.ErrorHook      = (*Logger)(nil)
	_ gentrun.LLMStartHook   = (*Logger)(nil)
	_ gentrun.LLMStreamHook  = (*Logger)(nil)
	_ gentrun.LLMEndHook     = (*Logger)(nil)
	_ gentrun.ToolStartHook  = (*Logger)(nil)
	_ gentrun.ToolEndHook    = (*Logger)(nil)
	_ gentrun.DebugHook      = (*Logger)(nil)
	_ gentrun.TraceHook      = (*Logger)(nil)
)

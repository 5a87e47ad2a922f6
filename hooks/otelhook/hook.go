// Package otelhook exports agent runs as OpenTelemetry spans.
//
// The agent span becomes a root span, each model call a client span beneath it, and each tool
// call an internal span beneath the agent span. The gentrun trace and span identifiers are
// attached as attributes so exported spans can be correlated with logs and transcripts.
package otelhook

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickchristie/gentrun"
)

const previewLimit = 500

type liveSpan struct {
	ctx    context.Context
	span   trace.Span
	parent string
}

// Hook converts lifecycle events into OpenTelemetry spans. It is safe for concurrent runs.
type Hook struct {
	tracer trace.Tracer

	mu   sync.Mutex
	live map[string]*liveSpan
}

// New creates a Hook that starts spans with tracer.
func New(tracer trace.Tracer) *Hook {
	return &Hook{tracer: tracer, live: make(map[string]*liveSpan)}
}

func toolKey(agentSpanID, name string) string {
	return "tool:" + agentSpanID + ":" + name
}

func spanAttrs(span gentrun.SpanContext) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("gentrun.trace_id", span.TraceID),
		attribute.String("gentrun.span_id", span.SpanID),
	}
}

func preview(s string) string {
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}

// start opens an OTel span under the live span keyed by parentKey, or as a new root.
func (h *Hook) start(
	key, parentKey, name string,
	kind trace.SpanKind,
	attrs ...attribute.KeyValue,
) {
	h.mu.Lock()
	defer h.mu.Unlock()

	parentCtx := context.Background()
	opts := []trace.SpanStartOption{trace.WithSpanKind(kind), trace.WithAttributes(attrs...)}
	if p, ok := h.live[parentKey]; ok {
		parentCtx = p.ctx
	} else {
		opts = append(opts, trace.WithNewRoot())
	}

	ctx, span := h.tracer.Start(parentCtx, name, opts...)
	h.live[key] = &liveSpan{ctx: ctx, span: span, parent: parentKey}
}

// take removes and returns the live span keyed by key.
func (h *Hook) take(key string) (*liveSpan, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ls, ok := h.live[key]
	if ok {
		delete(h.live, key)
	}
	return ls, ok
}

// takeChildren removes and returns every live span whose parent is key.
func (h *Hook) takeChildren(key string) []*liveSpan {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*liveSpan
	for k, ls := range h.live {
		if ls.parent == key {
			out = append(out, ls)
			delete(h.live, k)
		}
	}
	return out
}

func (h *Hook) OnAgentStart(span gentrun.SpanContext, query string) {
	attrs := append(spanAttrs(span), attribute.String("gentrun.query", preview(query)))
	h.start(span.SpanID, "", "agent.run", trace.SpanKindInternal, attrs...)
}

func (h *Hook) OnAgentEnd(span gentrun.SpanContext, finalText string) {
	for _, child := range h.takeChildren(span.SpanID) {
		child.span.SetStatus(codes.Error, "run ended before span completed")
		child.span.End()
	}
	ls, ok := h.take(span.SpanID)
	if !ok {
		return
	}
	ls.span.SetAttributes(attribute.String("gentrun.output", preview(finalText)))
	ls.span.End()
}

func (h *Hook) OnError(span gentrun.SpanContext, err *gentrun.ModelError) {
	for _, child := range h.takeChildren(span.SpanID) {
		child.span.SetStatus(codes.Error, err.Message)
		child.span.End()
	}

	h.mu.Lock()
	ls, ok := h.live[span.SpanID]
	h.mu.Unlock()
	if !ok {
		return
	}
	ls.span.SetAttributes(attribute.String("gentrun.error_code", string(err.Code)))
	ls.span.RecordError(err)
	ls.span.SetStatus(codes.Error, err.Message)
}

func (h *Hook) OnLLMStart(span gentrun.SpanContext) {
	h.start(span.SpanID, span.ParentSpanID, "llm.call", trace.SpanKindClient, spanAttrs(span)...)
}

func (h *Hook) OnLLMEnd(span gentrun.SpanContext, response *gentrun.Response) {
	ls, ok := h.take(span.SpanID)
	if !ok {
		return
	}
	if response != nil {
		ls.span.SetAttributes(attribute.Int("gentrun.tool_calls", len(response.ToolCalls)))
		if u := response.Usage; u != nil {
			ls.span.SetAttributes(
				attribute.Int("gen_ai.usage.input_tokens", u.InputTokens),
				attribute.Int("gen_ai.usage.output_tokens", u.OutputTokens),
			)
		}
	}
	ls.span.SetStatus(codes.Ok, "")
	ls.span.End()
}

func (h *Hook) OnToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	attrs := append(spanAttrs(span),
		attribute.String("gentrun.tool.name", name),
		attribute.String("gentrun.tool.args", preview(fmt.Sprint(args))),
	)
	h.start(toolKey(span.SpanID, name), span.SpanID, "tool."+name, trace.SpanKindInternal, attrs...)
}

func (h *Hook) OnToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	ls, ok := h.take(toolKey(span.SpanID, name))
	if !ok {
		return
	}
	if outcome.OK() {
		ls.span.SetStatus(codes.Ok, "")
	} else {
		ls.span.SetAttributes(attribute.String("gentrun.tool.error_code", string(outcome.Err.Code)))
		ls.span.SetStatus(codes.Error, outcome.Err.Message)
	}
	ls.span.End()
}

var (
	_ gentrun.AgentStartHook = (*Hook)(nil)
	_ gentrun.AgentEndHook   = (*Hook)(nil)
	_ gentrun.ErrorHook      = (*Hook)(nil)
	_ gentrun.LLMStartHook   = (*Hook)(nil)
	_ gentrun.LLMEndHook     = (*Hook)(nil)
	_ gentrun.ToolStartHook  = (*Hook)(nil)
	_ gentrun.ToolEndHook    = (*Hook)(nil)
)

package gentrun

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// SpanContext identifies one step of a run.
//
// TraceID is shared by every span of a single Run/RunStream call. The agent span is the root
// (no ParentSpanID); each model call gets a child span whose ParentSpanID is the agent span's ID.
type SpanContext struct {
	TraceID      string `json:"traceId" yaml:"traceId"`
	SpanID       string `json:"spanId" yaml:"spanId"`
	ParentSpanID string `json:"parentSpanId,omitempty" yaml:"parentSpanId,omitempty"`
}

// NewID returns a random 128-bit identifier rendered as 32 lowercase hex characters.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// NewTrace starts a new trace with a root span.
func NewTrace() SpanContext {
	return SpanContext{TraceID: NewID(), SpanID: NewID()}
}

// ChildSpan creates a span nested under parent, sharing its trace.
func ChildSpan(parent SpanContext) SpanContext {
	return SpanContext{
		TraceID:      parent.TraceID,
		SpanID:       NewID(),
		ParentSpanID: parent.SpanID,
	}
}

// IsRoot reports whether the span has no parent.
func (s SpanContext) IsRoot() bool {
	return s.ParentSpanID == ""
}

package hooks

import (
	"io"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rickchristie/gentrun"
)

// TranscriptEntry is one YAML document written by [Transcript].
type TranscriptEntry struct {
	Event    string               `yaml:"event"`
	Time     time.Time            `yaml:"time"`
	Span     *gentrun.SpanContext `yaml:"span,omitempty"`
	Query    string               `yaml:"query,omitempty"`
	Text     string               `yaml:"text,omitempty"`
	Response *gentrun.Response    `yaml:"response,omitempty"`
	Tool     string               `yaml:"tool,omitempty"`
	Args     map[string]any       `yaml:"args,omitempty"`
	Outcome  *gentrun.ToolOutcome `yaml:"outcome,omitempty"`
	Error    *gentrun.ModelError  `yaml:"error,omitempty"`
}

// Transcript writes a YAML document for each run boundary, completed model call, tool call
// and model failure. Streamed fragments are not written; the accumulated text arrives with
// the following OnLLMEnd.
//
// Writes are serialized, so one Transcript can be shared by concurrent runs.
type Transcript struct {
	mu  sync.Mutex
	enc *yaml.Encoder
	now func() time.Time
	err error
}

// NewTranscript creates a Transcript writing to w.
func NewTranscript(w io.Writer) *Transcript {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &Transcript{enc: enc, now: time.Now}
}

// Err returns the first write error, if any. Writing stops after an error.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close flushes the encoder.
func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enc.Close(); err != nil && t.err == nil {
		t.err = err
	}
	return t.err
}

func (t *Transcript) write(entry TranscriptEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return
	}
	entry.Time = t.now()
	if err := t.enc.Encode(entry); err != nil {
		t.err = err
	}
}

func (t *Transcript) OnAgentStart(span gentrun.SpanContext, query string) {
	t.write(TranscriptEntry{Event: "agent_start", Span: &span, Query: query})
}

func (t *Transcript) OnAgentEnd(span gentrun.SpanContext, finalText string) {
	t.write(TranscriptEntry{Event: "agent_end", Span: &span, Text: finalText})
}

func (t *Transcript) OnError(span gentrun.SpanContext, err *gentrun.ModelError) {
	t.write(TranscriptEntry{Event: "error", Span: &span, Error: err})
}

func (t *Transcript) OnLLMEnd(span gentrun.SpanContext, response *gentrun.Response) {
	t.write(TranscriptEntry{Event: "llm_end", Span: &span, Response: response})
}

func (t *Transcript) OnToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	t.write(TranscriptEntry{Event: "tool_start", Span: &span, Tool: name, Args: args})
}

func (t *Transcript) OnToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	t.write(TranscriptEntry{Event: "tool_end", Span: &span, Tool: name, Outcome: &outcome})
}

var (
	_ gentrun.AgentStartHook = (*Transcript)(nil)
	_ gentrun.AgentEndHook   = (*Transcript)(nil)
	_ gentrun.ErrorHook      = (*Transcript)(nil)
	_ gentrun.LLMEndHook     = (*Transcript)(nil)
	_ gentrun.ToolStartHook  = (*Transcript)(nil)
	_ gentrun.ToolEndHook    = (*Transcript)(nil)
)

package hooks

import "github.com/rickchristie/gentrun"

// Funcs adapts plain functions to every hook interface. Nil fields are no-ops.
//
//	registry.Register(&hooks.Funcs{
//	    LLMStream: func(_ gentrun.SpanContext, fragment string) { fmt.Print(fragment) },
//	})
type Funcs struct {
	AgentStart   func(span gentrun.SpanContext, query string)
	AgentEnd     func(span gentrun.SpanContext, finalText string)
	Error        func(span gentrun.SpanContext, err *gentrun.ModelError)
	LLMStart     func(span gentrun.SpanContext)
	LLMStream    func(span gentrun.SpanContext, fragment string)
	LLMEnd       func(span gentrun.SpanContext, response *gentrun.Response)
	ToolStart    func(span gentrun.SpanContext, name string, args map[string]any)
	ToolEnd      func(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome)
	SpinnerStart func(label string)
	SpinnerStop  func()
	Debug        func(message string, data map[string]any)
	Trace        func(message string, data map[string]any)
}

func (f *Funcs) OnAgentStart(span gentrun.SpanContext, query string) {
	if f.AgentStart != nil {
		f.AgentStart(span, query)
	}
}

func (f *Funcs) OnAgentEnd(span gentrun.SpanContext, finalText string) {
	if f.AgentEnd != nil {
		f.AgentEnd(span, finalText)
	}
}

func (f *Funcs) OnError(span gentrun.SpanContext, err *gentrun.ModelError) {
	if f.Error != nil {
		f.Error(span, err)
	}
}

func (f *Funcs) OnLLMStart(span gentrun.SpanContext) {
	if f.LLMStart != nil {
		f.LLMStart(span)
	}
}

func (f *Funcs) OnLLMStream(span gentrun.SpanContext, fragment string) {
	if f.LLMStream != nil {
		f.LLMStream(span, fragment)
	}
}

func (f *Funcs) OnLLMEnd(span gentrun.SpanContext, response *gentrun.Response) {
	if f.LLMEnd != nil {
		f.LLMEnd(span, response)
	}
}

func (f *Funcs) OnToolStart(span gentrun.SpanContext, name string, args map[string]any) {
	if f.ToolStart != nil {
		f.ToolStart(span, name, args)
	}
}

func (f *Funcs) OnToolEnd(span gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	if f.ToolEnd != nil {
		f.ToolEnd(span, name, outcome)
	}
}

func (f *Funcs) OnSpinnerStart(label string) {
	if f.SpinnerStart != nil {
		f.SpinnerStart(label)
	}
}

func (f *Funcs) OnSpinnerStop() {
	if f.SpinnerStop != nil {
		f.SpinnerStop()
	}
}

func (f *Funcs) OnDebug(message string, data map[string]any) {
	if f.Debug != nil {
		f.Debug(message, data)
	}
}

func (f *Funcs) OnTrace(message string, data map[string]any) {
	if f.Trace != nil {
		f.Trace(message, data)
	}
}

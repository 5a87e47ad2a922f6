package gentrun

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rickchristie/gentrun/schema"
)

// Tool is a single invocable capability, looked up by name at dispatch time.
//
// Tools focus on business logic. Lookup, argument validation, error normalization and
// transcript formatting are handled by the toolchain dispatcher.
type Tool interface {
	// Name returns the identifier used in tool calls.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// ParameterSchema returns the JSON Schema for the arguments, or nil if the tool takes none.
	ParameterSchema() map[string]any

	// Call executes the tool. Returning a [*ToolError] selects the failure code; any other
	// error is reported as [ToolErrUnknown]. Call may also panic; the dispatcher recovers it.
	Call(ctx context.Context, args map[string]any) (*ToolResult, error)
}

// ToolResult is a successful tool execution.
type ToolResult struct {
	// Title is a short human-readable summary, e.g. "Read 42 lines".
	Title string

	// Output is the payload returned to the model. Strings are sent verbatim, other values
	// as JSON.
	Output any
}

// ToolOutcome is the normalized result of dispatching one tool call: a success payload or a
// typed failure. It is always data, never a panic or error crossing the dispatch boundary.
type ToolOutcome struct {
	Title  string     `json:"title,omitempty" yaml:"title,omitempty"`
	Output any        `json:"output,omitempty" yaml:"output,omitempty"`
	Err    *ToolError `json:"err,omitempty" yaml:"err,omitempty"`
}

// SuccessOutcome creates a successful outcome.
func SuccessOutcome(result *ToolResult) ToolOutcome {
	if result == nil {
		return ToolOutcome{}
	}
	return ToolOutcome{Title: result.Title, Output: result.Output}
}

// FailureOutcome creates a failed outcome.
func FailureOutcome(err *ToolError) ToolOutcome {
	return ToolOutcome{Err: err}
}

// OK reports whether the outcome is a success.
func (o ToolOutcome) OK() bool {
	return o.Err == nil
}

// Content renders the outcome as tool-message content.
func (o ToolOutcome) Content() string {
	if o.Err != nil {
		return o.Err.Message
	}
	switch v := o.Output.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	data, err := json.Marshal(o.Output)
	if err != nil {
		return fmt.Sprintf("%v", o.Output)
	}
	return string(data)
}

// DefinitionOf describes t for a model client.
func DefinitionOf(t Tool) ToolDefinition {
	return ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.ParameterSchema(),
	}
}

// -----------------------------------------------------------------------------
// ToolFunc
// -----------------------------------------------------------------------------

// ToolFunc is a convenience Tool built from a function with typed input.
// The parameter schema is reflected from I; arguments are decoded into I before fn runs.
type ToolFunc[I any] struct {
	name        string
	description string
	schema      map[string]any
	fn          func(ctx context.Context, input I) (*ToolResult, error)
}

// NewToolFunc creates a ToolFunc. The schema is reflected from I's struct tags
// (`json`, `jsonschema`).
//
// Example:
//
//	type greetInput struct {
//	    Name string `json:"name" jsonschema:"description=Who to greet"`
//	}
//
//	greet := gentrun.NewToolFunc("greeting", "Greets someone",
//	    func(ctx context.Context, in greetInput) (*gentrun.ToolResult, error) {
//	        return &gentrun.ToolResult{Title: "Greeted", Output: "Hello, " + in.Name}, nil
//	    },
//	)
func NewToolFunc[I any](
	name, description string,
	fn func(ctx context.Context, input I) (*ToolResult, error),
) *ToolFunc[I] {
	return &ToolFunc[I]{
		name:        name,
		description: description,
		schema:      schema.Reflect[I](),
		fn:          fn,
	}
}

// WithSchema overrides the reflected schema.
func (t *ToolFunc[I]) WithSchema(raw map[string]any) *ToolFunc[I] {
	t.schema = raw
	return t
}

// Name returns the tool's identifier.
func (t *ToolFunc[I]) Name() string {
	return t.name
}

// Description returns a human-readable description for the model.
func (t *ToolFunc[I]) Description() string {
	return t.description
}

// ParameterSchema returns the JSON Schema for the tool's parameters.
func (t *ToolFunc[I]) ParameterSchema() map[string]any {
	return t.schema
}

// Call decodes args into I with [DecodeArgs] and runs the function.
func (t *ToolFunc[I]) Call(ctx context.Context, args map[string]any) (*ToolResult, error) {
	input, err := DecodeArgs[I](args)
	if err != nil {
		return nil, err
	}
	return t.fn(ctx, input)
}

var _ Tool = (*ToolFunc[struct{}])(nil)

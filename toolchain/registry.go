package toolchain

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/schema"
)

// entry is a registered tool with its compiled schema and optional limiter.
type entry struct {
	tool    gentrun.Tool
	schema  *schema.Schema
	limiter *rate.Limiter
}

// RegisterOption configures a single registration.
type RegisterOption func(*entry)

// WithRateLimit limits how often the tool may run. Calls beyond the limit fail with
// RATE_LIMIT_ERROR instead of waiting.
func WithRateLimit(limit rate.Limit, burst int) RegisterOption {
	return func(e *entry) {
		e.limiter = rate.NewLimiter(limit, burst)
	}
}

// Registry holds tools by name. Lookups are safe for concurrent runs.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool. It fails for nil tools, empty or duplicate names, and schemas that do
// not compile.
func (r *Registry) Register(tool gentrun.Tool, opts ...RegisterOption) error {
	if tool == nil {
		return fmt.Errorf("register tool: nil tool")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("register tool: empty name")
	}

	compiled, err := schema.Compile(tool.ParameterSchema())
	if err != nil {
		return fmt.Errorf("register tool %q: %w", name, err)
	}

	e := &entry{tool: tool, schema: compiled}
	for _, opt := range opts {
		opt(e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("register tool %q: already registered", name)
	}
	r.entries[name] = e
	r.order = append(r.order, name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool gentrun.Tool, opts ...RegisterOption) *Registry {
	if err := r.Register(tool, opts...); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (gentrun.Tool, bool) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, false
	}
	return e.tool, true
}

func (r *Registry) lookup(name string) (*entry, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []gentrun.Tool {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]gentrun.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// Definitions describes the registered tools for a model client, in registration order.
// Returns nil when no tools are registered.
func (r *Registry) Definitions() []gentrun.ToolDefinition {
	tools := r.Tools()
	if len(tools) == 0 {
		return nil
	}
	defs := make([]gentrun.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = gentrun.DefinitionOf(t)
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

package agent

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/hooks"
	"github.com/rickchristie/gentrun/toolchain"
)

// DefaultMaxIterations is the iteration cap used when none is configured.
const DefaultMaxIterations = 10

// SpinnerLabel is the label passed to OnSpinnerStart when a run begins.
const SpinnerLabel = "Thinking..."

// PromptBuilder assembles the system prompt for a run when no explicit prompt is configured.
type PromptBuilder interface {
	BuildSystemPrompt(ctx context.Context, tools []gentrun.Tool) (string, error)
}

// Agent runs conversations against a model client with a fixed tool set.
//
// Configuration is read-only after New. Concurrent Run and RunStream calls on one Agent are
// independent: each gets its own transcript and trace.
type Agent struct {
	client        gentrun.ModelClient
	registry      *toolchain.Registry
	systemPrompt  string
	promptBuilder PromptBuilder
	maxIterations int
	hooks         *hooks.Registry
	pendingHooks  []any
	ownHooks      bool
	logger        zerolog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithTools registers tools in the agent's registry, in order.
// It panics when a tool cannot be registered (empty or duplicate name, invalid schema).
func WithTools(tools ...gentrun.Tool) Option {
	return func(a *Agent) {
		for _, t := range tools {
			a.registry.MustRegister(t)
		}
	}
}

// WithRegistry replaces the agent's tool registry. Use it to share tools, or to register tools
// with options such as rate limits.
func WithRegistry(registry *toolchain.Registry) Option {
	return func(a *Agent) {
		if registry != nil {
			a.registry = registry
		}
	}
}

// WithSystemPrompt sets a fixed system prompt. It takes precedence over a PromptBuilder.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithPromptBuilder sets the builder used when no fixed system prompt is configured.
func WithPromptBuilder(builder PromptBuilder) Option {
	return func(a *Agent) {
		a.promptBuilder = builder
	}
}

// WithMaxIterations sets the iteration cap. Non-positive values are ignored.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithHooks registers hooks in the agent's hook registry. Registration happens after every
// option is applied, so the hooks land in a registry set by WithHookRegistry regardless of order.
func WithHooks(h ...any) Option {
	return func(a *Agent) {
		a.pendingHooks = append(a.pendingHooks, h...)
	}
}

// WithHookRegistry replaces the agent's hook registry, e.g. to share one across agents.
func WithHookRegistry(registry *hooks.Registry) Option {
	return func(a *Agent) {
		if registry != nil {
			a.hooks = registry
			a.ownHooks = false
		}
	}
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates an Agent for client.
func New(client gentrun.ModelClient, opts ...Option) *Agent {
	a := &Agent{
		client:        client,
		registry:      toolchain.NewRegistry(),
		maxIterations: DefaultMaxIterations,
		hooks:         hooks.NewRegistry(),
		ownHooks:      true,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.hooks.Register(a.pendingHooks...)
	a.pendingHooks = nil
	if a.ownHooks {
		a.hooks.WithLogger(a.logger)
	}
	return a
}

// Client returns the model client.
func (a *Agent) Client() gentrun.ModelClient {
	return a.client
}

// ModelName returns the model client's model name.
func (a *Agent) ModelName() string {
	return a.client.ModelName()
}

// ProviderName returns the model client's provider name.
func (a *Agent) ProviderName() string {
	return a.client.ProviderName()
}

// Tools returns the agent's tools in registration order.
func (a *Agent) Tools() []gentrun.Tool {
	return a.registry.Tools()
}

// MaxIterations returns the iteration cap.
func (a *Agent) MaxIterations() int {
	return a.maxIterations
}

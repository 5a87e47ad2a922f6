// Package prompt assembles default system prompts from a template, the tool set, and facts
// about the environment the agent runs in.
package prompt

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"runtime"
	"text/template"

	"github.com/Masterminds/sprig"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/agent"
)

//go:embed system.tmpl
var systemTemplateContent string

// DefaultTemplate is the default system prompt template. Templates have the sprig function map
// available.
var DefaultTemplate = template.Must(
	template.New("system").Funcs(sprig.TxtFuncMap()).Parse(systemTemplateContent),
)

// Environment describes the host the agent runs on.
type Environment struct {
	OS         string
	Arch       string
	WorkingDir string
	Shell      string
}

// DetectEnvironment reads the environment of the current process.
func DetectEnvironment() Environment {
	wd, _ := os.Getwd()
	return Environment{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		WorkingDir: wd,
		Shell:      os.Getenv("SHELL"),
	}
}

// ToolInfo is the template view of a tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Data contains the data passed to system prompt templates.
type Data struct {
	// Instructions are extra instructions provided by the user.
	Instructions string

	// Tools lists the tools available to the run, in registration order.
	Tools []ToolInfo

	// Time provides access to time-related functions in templates.
	// Use {{.Time.Today}}, {{.Time.Weekday}}, {{.Time.Format "2006-01-02"}}, etc.
	Time Clock

	// Env describes the host.
	Env Environment
}

// Builder renders system prompts. It implements agent.PromptBuilder.
type Builder struct {
	tmpl         *template.Template
	instructions string
	clock        Clock
	env          func() Environment
}

// NewBuilder creates a Builder using DefaultTemplate, the system clock, and the detected
// environment.
func NewBuilder() *Builder {
	return &Builder{
		tmpl:  DefaultTemplate,
		clock: SystemClock(),
		env:   DetectEnvironment,
	}
}

// WithInstructions sets extra instructions rendered into the prompt.
func (b *Builder) WithInstructions(instructions string) *Builder {
	b.instructions = instructions
	return b
}

// WithTemplate replaces the template.
func (b *Builder) WithTemplate(tmpl *template.Template) *Builder {
	b.tmpl = tmpl
	return b
}

// WithClock replaces the clock.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithEnvironment pins the environment instead of detecting it.
func (b *Builder) WithEnvironment(env Environment) *Builder {
	b.env = func() Environment { return env }
	return b
}

// ParseTemplate parses text as a system prompt template with the sprig function map.
func ParseTemplate(text string) (*template.Template, error) {
	return template.New("system").Funcs(sprig.TxtFuncMap()).Parse(text)
}

// BuildSystemPrompt implements agent.PromptBuilder.
func (b *Builder) BuildSystemPrompt(_ context.Context, tools []gentrun.Tool) (string, error) {
	data := Data{
		Instructions: b.instructions,
		Tools:        make([]ToolInfo, 0, len(tools)),
		Time:         b.clock,
		Env:          b.env(),
	}
	for _, t := range tools {
		data.Tools = append(data.Tools, ToolInfo{Name: t.Name(), Description: t.Description()})
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

var _ agent.PromptBuilder = (*Builder)(nil)

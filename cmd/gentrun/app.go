package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/agent"
	"github.com/rickchristie/gentrun/config"
	"github.com/rickchristie/gentrun/hooks"
	"github.com/rickchristie/gentrun/hooks/otelhook"
	"github.com/rickchristie/gentrun/models"
	"github.com/rickchristie/gentrun/prompt"
	"github.com/rickchristie/gentrun/toolchain"
	"github.com/rickchristie/gentrun/tools/builtin"
)

const errorPrefix = "Error: "

// errRunFailed marks a run that already reported its "Error: ..." result.
var errRunFailed = errors.New("run failed")

// app holds process-wide state shared by the commands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg            *config.Config
	configFile     string
	logger         zerolog.Logger
	transcriptPath string

	// newClient builds the model client; replaced in tests.
	newClient func(cfg *config.Config) (gentrun.ModelClient, error)

	// interactive reports whether a stdio stream is a terminal.
	interactive func(stream any) bool
}

func newApp() *app {
	return &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      zerolog.Nop(),
		newClient:   newModelClient,
		interactive: isTerminal,
	}
}

func isTerminal(stream any) bool {
	f, ok := stream.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newModelClient(cfg *config.Config) (gentrun.ModelClient, error) {
	return models.NewFromConfig(models.ProviderConfig{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
}

func (a *app) initLogger() error {
	level, err := zerolog.ParseLevel(strings.ToLower(a.cfg.LogLevel))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", a.cfg.LogLevel)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return nil
}

// buildRegistry registers the enabled built-in tools, rate limited when configured.
func (a *app) buildRegistry() (*toolchain.Registry, error) {
	tools, err := builtin.Select(builtin.Config{
		Root:         a.cfg.Tools.Root,
		ShellTimeout: a.cfg.Tools.ShellTimeout,
	}, a.cfg.Tools.Enabled)
	if err != nil {
		return nil, err
	}

	var opts []toolchain.RegisterOption
	if n := a.cfg.Tools.RatePerMinute; n > 0 {
		opts = append(opts, toolchain.WithRateLimit(rate.Every(time.Minute/time.Duration(n)), n))
	}

	reg := toolchain.NewRegistry()
	for _, t := range tools {
		if err := reg.Register(t, opts...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// buildAgent wires the configured model, tools, and hooks. The returned cleanup flushes
// transcripts and exported spans and must always be called.
func (a *app) buildAgent(ctx context.Context, streaming bool) (*agent.Agent, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if err := a.cfg.Validate(); err != nil {
		return nil, cleanup, errors.Wrap(err, "invalid configuration")
	}

	client, err := a.newClient(a.cfg)
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "could not create model client")
	}

	reg, err := a.buildRegistry()
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "could not register tools")
	}

	hookReg := hooks.NewRegistry().WithLogger(a.logger)
	hookReg.Register(hooks.NewLogger(a.logger))

	if a.interactive(a.stderr) {
		hookReg.Register(newSpinner(a.stderr), newActivity(a.stderr))
	}

	if a.transcriptPath != "" {
		f, err := os.Create(a.transcriptPath)
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "could not create transcript file")
		}
		tr := hooks.NewTranscript(f)
		hookReg.Register(tr)
		cleanups = append(cleanups, func() {
			if err := tr.Close(); err != nil {
				a.logger.Warn().Err(err).Str("path", a.transcriptPath).Msg("transcript incomplete")
			}
			_ = f.Close()
		})
	}

	if tel := a.cfg.Telemetry; tel.OTLPEndpoint != "" {
		tp, err := otelhook.NewProvider(ctx, otelhook.Config{
			Endpoint:    tel.OTLPEndpoint,
			Protocol:    tel.OTLPProtocol,
			Insecure:    tel.Insecure,
			ServiceName: tel.ServiceName,
		})
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "could not set up trace export")
		}
		hookReg.Register(otelhook.New(tp.Tracer("github.com/rickchristie/gentrun")))
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn().Err(err).Msg("trace export shutdown failed")
			}
		})
	}

	opts := []agent.Option{
		agent.WithRegistry(reg),
		agent.WithHookRegistry(hookReg),
		agent.WithMaxIterations(a.cfg.MaxIterations),
		agent.WithLogger(a.logger),
	}
	if a.cfg.SystemPrompt != "" {
		opts = append(opts, agent.WithSystemPrompt(a.cfg.SystemPrompt))
	} else {
		opts = append(opts, agent.WithPromptBuilder(prompt.NewBuilder().WithInstructions(a.cfg.Instructions)))
	}

	a.logger.Debug().
		Str("provider", client.ProviderName()).
		Str("model", client.ModelName()).
		Int("tools", reg.Len()).
		Bool("stream", streaming).
		Msg("agent ready")

	return agent.New(client, opts...), cleanup, nil
}

// answer runs one query and writes the result. It returns the final text and whether the run
// failed. A failed stream ends with a single "Error: ..." fragment.
func (a *app) answer(
	ctx context.Context,
	ag *agent.Agent,
	query string,
	history []gentrun.Message,
	streaming bool,
) (string, bool) {
	if streaming {
		stream := ag.RunStream(ctx, query, history)
		defer stream.Close()

		var b strings.Builder
		var last string
		for fragment := range stream.Fragments() {
			b.WriteString(fragment)
			last = fragment
			_, _ = io.WriteString(a.stdout, fragment)
		}
		_, _ = io.WriteString(a.stdout, "\n")
		return b.String(), strings.HasPrefix(last, errorPrefix)
	}

	text := ag.Run(ctx, query, history)
	switch {
	case strings.HasPrefix(text, errorPrefix):
		_, _ = io.WriteString(a.stdout, styleError.Render(text)+"\n")
		return text, true
	case a.cfg.Render && a.interactive(a.stdout):
		_, _ = io.WriteString(a.stdout, renderMarkdown(text))
	default:
		_, _ = io.WriteString(a.stdout, text+"\n")
	}
	return text, false
}

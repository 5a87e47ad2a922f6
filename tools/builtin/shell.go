package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/rickchristie/gentrun"
)

type shellInput struct {
	Command        string `json:"command" jsonschema:"description=Command line to run. Quoting is honored; pipes and redirects are not,minLength=1"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"description=Override the default timeout in seconds,minimum=1"`
}

// Credential patterns scrubbed from command output before it reaches the model.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*["']?\S{8,}["']?`),
}

const redactedPlaceholder = "[REDACTED]"

func scrubCredentials(text string) string {
	for _, pat := range credentialPatterns {
		text = pat.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}

// Shell returns the shell tool. Commands are split with shell quoting rules and executed
// directly in dir; environment variables in the command line are expanded. The timeout can be
// lowered, never raised, by the model.
func Shell(dir string, timeout time.Duration, maxBytes int) gentrun.Tool {
	return gentrun.NewToolFunc(ShellName,
		"Runs a command and returns its combined output and exit code.",
		func(ctx context.Context, in shellInput) (*gentrun.ToolResult, error) {
			parser := shellwords.NewParser()
			parser.ParseEnv = true
			argv, err := parser.Parse(in.Command)
			if err != nil {
				return nil, gentrun.NewToolError(gentrun.ToolErrValidation, "cannot parse command: %v", err)
			}
			if len(argv) == 0 {
				return nil, gentrun.NewToolError(gentrun.ToolErrValidation, "command is empty")
			}

			limit := timeout
			if in.TimeoutSeconds > 0 {
				if requested := time.Duration(in.TimeoutSeconds) * time.Second; requested < limit {
					limit = requested
				}
			}
			runCtx, cancel := context.WithTimeout(ctx, limit)
			defer cancel()

			cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
			cmd.Dir = dir
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out

			err = cmd.Run()
			output := truncate(scrubCredentials(out.String()), maxBytes)

			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				return nil, gentrun.NewToolError(gentrun.ToolErrTimeout,
					"command timed out after %s; partial output:\n%s", limit, output)
			}
			if errors.Is(err, exec.ErrNotFound) {
				return nil, gentrun.NewToolError(gentrun.ToolErrNotFound, "command %q not found", argv[0])
			}

			exitCode := 0
			var exitErr *exec.ExitError
			switch {
			case errors.As(err, &exitErr):
				exitCode = exitErr.ExitCode()
			case err != nil:
				return nil, gentrun.NewToolError(gentrun.ToolErrIO, "run %s: %v", argv[0], err)
			}

			return &gentrun.ToolResult{
				Title: fmt.Sprintf("Ran %s (exit %d)", argv[0], exitCode),
				Output: map[string]any{
					"command":  strings.Join(argv, " "),
					"exitCode": exitCode,
					"output":   output,
				},
			}, nil
		},
	)
}

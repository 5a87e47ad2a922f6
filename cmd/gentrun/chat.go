package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rickchristie/gentrun"
	"github.com/rickchristie/gentrun/agent"
	"github.com/rickchristie/gentrun/compaction"
	"github.com/rickchristie/gentrun/config"
)

func newChatCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: "Start an interactive conversation. History is kept for the session only.\n" +
			"Type /reset to clear it, exit or quit to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, cleanup, err := a.buildAgent(cmd.Context(), a.cfg.Stream)
			defer cleanup()
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt: stylePrompt.Render("you> "),
				Stdin:  io.NopCloser(a.stdin),
				Stdout: a.stdout,
				Stderr: a.stderr,
			})
			if err != nil {
				return errors.Wrap(err, "failed to create readline")
			}
			defer rl.Close()

			return a.chatLoop(cmd.Context(), ag, a.buildCompactor(ag.Client()), rl.Readline)
		},
	}
	cmd.Flags().Bool("stream", false, "stream answers as they are generated")
	return cmd
}

// buildCompactor returns the configured history compactor, or nil when history is unbounded.
func (a *app) buildCompactor(client gentrun.ModelClient) *compaction.Compactor {
	h := a.cfg.History
	switch h.Strategy {
	case config.HistoryWindow:
		return compaction.New(nil, compaction.NewSlidingWindow(h.KeepTurns))
	case config.HistorySummarize:
		return compaction.New(
			compaction.NewThreshold().OnMessages(h.MaxMessages),
			compaction.NewSummarization(client).WithKeepRecent(h.KeepTurns),
		)
	default:
		return nil
	}
}

// chatLoop reads lines until EOF, interrupt, or an exit command. Each completed turn is added
// to the history passed to the next run; failed turns are not.
func (a *app) chatLoop(
	ctx context.Context,
	ag *agent.Agent,
	compactor *compaction.Compactor,
	readLine func() (string, error),
) error {
	fmt.Fprintln(a.stdout, styleDim.Render(fmt.Sprintf(
		"Chatting with %s/%s. Type /reset to clear history, exit to quit.",
		ag.ProviderName(), ag.ModelName(),
	)))

	var history []gentrun.Message
	for {
		input, err := readLine()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(a.stdout, styleDim.Render("Goodbye!"))
				return nil
			}
			return errors.Wrap(err, "failed to read input")
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(a.stdout, styleDim.Render("Goodbye!"))
			return nil
		case "/reset":
			history = nil
			fmt.Fprintln(a.stdout, styleDim.Render("History cleared."))
			continue
		}

		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		text, failed := a.answer(turnCtx, ag, input, history, a.cfg.Stream)
		stop()

		if failed {
			continue
		}
		history = append(history, gentrun.UserMessage(input), gentrun.AssistantMessage(text))

		before := len(history)
		compacted, ran, err := compactor.Apply(ctx, history)
		if err != nil {
			a.logger.Warn().Err(err).Msg("history compaction failed; keeping full history")
		}
		history = compacted
		if ran && len(history) < before {
			fmt.Fprintln(a.stdout, styleDim.Render(fmt.Sprintf("History compacted (%d → %d messages).", before, len(history))))
		}
		a.logger.Debug().Int("messages", len(history)).Msg("chat history updated")
	}
}

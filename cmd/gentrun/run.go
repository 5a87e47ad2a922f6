package main

import (
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [query...]",
		Short: "Run a single query and print the answer",
		Long: "Run a single query and print the answer. When no query is given and stdin is not a " +
			"terminal, the query is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := a.readQuery(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ag, cleanup, err := a.buildAgent(ctx, a.cfg.Stream)
			defer cleanup()
			if err != nil {
				return err
			}

			if _, failed := a.answer(ctx, ag, query, nil, a.cfg.Stream); failed {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().Bool("stream", false, "stream the final answer as it is generated")
	return cmd
}

func (a *app) readQuery(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if a.interactive(a.stdin) {
		return "", errors.New("no query given")
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", errors.Wrap(err, "could not read query from stdin")
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", errors.New("no query given")
	}
	return query, nil
}

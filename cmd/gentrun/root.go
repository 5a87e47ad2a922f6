package main

import (
	"github.com/spf13/cobra"

	"github.com/rickchristie/gentrun/config"
)

func newRootCommand(a *app) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "gentrun",
		Short:         "gentrun runs an LLM agent with tools from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, used, err := config.Load(config.Options{
				ConfigFile: configFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.configFile = used
			if err := a.initLogger(); err != nil {
				return err
			}
			a.logger.Debug().Str("config", used).Msg("Loaded configuration")
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/gentrun/config.yaml)")
	flags.String("provider", "", "model provider: openai, anthropic, ollama, github")
	flags.String("model", "", "model name")
	flags.String("base-url", "", "provider endpoint override")
	flags.Int("max-iterations", 0, "maximum model calls per run")
	flags.String("system-prompt", "", "fixed system prompt (replaces the built-in one)")
	flags.String("instructions", "", "extra instructions added to the built-in system prompt")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.Bool("render", true, "render final answers as markdown on terminals")
	flags.StringVar(&a.transcriptPath, "transcript", "", "write a YAML transcript of every run to this file")

	root.AddCommand(
		newRunCommand(a),
		newChatCommand(a),
		newToolsCommand(a),
		newConfigCommand(a),
	)
	return root
}

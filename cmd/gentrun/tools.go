package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newToolsCommand(a *app) *cobra.Command {
	var showSchema bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the enabled tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.buildRegistry()
			if err != nil {
				return err
			}

			for _, def := range reg.Definitions() {
				fmt.Fprintf(a.stdout, "%s  %s\n", styleTool.Render(def.Name), def.Description)
				if !showSchema {
					continue
				}
				data, err := yaml.Marshal(def.Parameters)
				if err != nil {
					return err
				}
				for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
					fmt.Fprintln(a.stdout, "    "+line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSchema, "schema", false, "print each tool's parameter schema")
	return cmd
}

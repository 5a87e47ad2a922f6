// Command gentrun runs an LLM agent with built-in tools from the command line.
//
//	gentrun run "What files are in this directory?"
//	gentrun run --stream "Summarize README.md"
//	gentrun chat
//	gentrun tools --schema
//	gentrun config show
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(newApp()).Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, styleError.Render("Error: "+err.Error()))
		}
		os.Exit(1)
	}
}

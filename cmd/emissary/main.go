package main

import (
	"fmt"
	"os"

	"github.com/tokenforge/emissary/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		// ExitErrors carry their own code; everything else is a
		// command error. Formatted output already went to stdout.
		code := cli.GetExitCode(err)
		if code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, "emissary:", err)
		}
		os.Exit(code)
	}
}

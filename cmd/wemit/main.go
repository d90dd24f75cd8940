// Command wemit emits an event through a weighted emitter whose listeners are
// built from the command line, and prints the order they ran in.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:     "wemit",
		Usage:    "runs weighted listeners for an event",
		Commands: []*cli.Command{Emit()},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

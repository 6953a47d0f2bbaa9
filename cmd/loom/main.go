package main

import (
	"os"

	loomapp "github.com/warptools/loom/app"
)

func main() {
	loomapp.App.Reader = os.Stdin
	loomapp.App.Writer = os.Stdout
	loomapp.App.ErrWriter = os.Stderr
	if err := loomapp.App.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

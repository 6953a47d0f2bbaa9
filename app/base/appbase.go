package appbase

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	_ "github.com/warptools/loom/app/base/helpgen"
)

const VERSION = "v0.1.0"

var App = &cli.App{
	Name:    "loom",
	Version: VERSION,
	Usage:   "weave, inspect, and mirror metadata-addressed dataset trees",

	// The zero wiring is intentionally unusable.  The real binary swaps in
	// os.Stdin and friends; tests swap in buffers.
	Reader:    closedReader{},
	Writer:    panicWriter{},
	ErrWriter: panicWriter{},

	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			EnvVars: []string{"LOOM_DEBUG"},
		},
		&cli.BoolFlag{
			Name: "quiet",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Enable JSON API output",
		},
		&cli.StringFlag{
			Name:      "data-root",
			Usage:     "Use `PATH` as the data root instead of discovering one",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "trace.file",
			Usage:     "Enable tracing and emit output to file",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "trace.http.enable",
			Usage: "Enable remote tracing over http",
		},
		&cli.BoolFlag{
			Name:  "trace.http.insecure",
			Usage: "Allows insecure http",
		},
		&cli.StringFlag{
			Name:  "trace.http.endpoint",
			Usage: "Sets an endpoint for remote open-telemetry tracing collection",
		},
	},

	// Command packages append themselves here in their init.
	// Importing the parent of this package pulls all of them in at once.
	Commands: []*cli.Command{},

	ExitErrHandler: func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		if !c.Bool("json") {
			fmt.Fprintf(c.App.ErrWriter, "error: %s\n", err)
			return
		}
		body, merr := json.Marshal(err)
		if merr != nil {
			panic("marshaling the error itself failed")
		}
		fmt.Fprintf(c.App.ErrWriter, "%s\n", body)
	},
}

// One more `urfave/cli` tweak that can only be done through a package global:
func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version", // No short alias; "-v" belongs to "verbose".
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

type closedReader struct{}

// Read reports EOF immediately, as if stdin were closed.
func (c closedReader) Read(p []byte) (int, error) {
	return 0, io.EOF
}

type panicWriter struct{}

// Write panics.  Anything that runs the App must install real writers first.
func (p panicWriter) Write(data []byte) (int, error) {
	panic("the App's Writer and ErrWriter must be replaced before running commands")
}

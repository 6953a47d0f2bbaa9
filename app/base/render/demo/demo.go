// Run this to eyeball the help renderer: it captures the help text for the
// app (or for any subcommand named in the args) and re-renders it in
// Mode_ANSIdown, so both the markdown structure and the ANSI styling are
// visible at once.
package main

import (
	"bytes"
	"fmt"
	"os"

	loomapp "github.com/warptools/loom/app"
	"github.com/warptools/loom/app/base/render"
)

func main() {
	args := []string{"loom"}
	args = append(args, os.Args[1:]...)
	args = append(args, "-h")

	var buf bytes.Buffer
	loomapp.App.Writer = &buf
	loomapp.App.ErrWriter = &buf
	_ = loomapp.App.Run(args)

	fmt.Println("--------")
	render.Render(buf.Bytes(), os.Stdout, render.Mode_ANSIdown)
	fmt.Println("--------")
}

/*
This package contains our custom help text generators,
and wires them into `urfave/cli` at package init time.

We use templates which emit markdown.
The markdown is then post-processed into nicer terminal rendering
with ANSI codes when the output actually is a terminal;
see the Mode variable for how to control this.

(The use of package init time is unfortunate,
but package sideeffects cannot be avoided:
package-scope vars are the only option for customizing help processing
that the `urfave/cli` package currently makes available.)
*/
package helpgen

import (
	"bytes"
	"io"
	"strings"
	"text/tabwriter"
	"text/template"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/warptools/loom/app/base/render"
)

/*
	A guide to how to use the various docs strings in a cli.Command in our system:

	- Usage -- this should be a one-liner, used to describe this command in the parent command's overview of its children.
	- UsageText -- this should contain a synopsys, with examples of how to use the command and its flags.  May be multi-line.
	- Description -- freetext prose; may be multi-line.  Shows up in the `-h` for that command.
	- ArgsUsage -- UNUSED.

	For documenting cli.Flag:

	- there's really only the Usage fields, per type.
*/

// Mode selects the post-processing applied to help text.
//
// The zero config is ANSI rendering, which is what interactive use wants.
// The docs pipeline and tests set this to render.Mode_Markdown so that
// output is stable regardless of terminal size.
// Regardless of this setting, output that is not going to a terminal
// falls back to plain markdown.
var Mode = render.Mode_ANSI

// printHelpCustom is the entrypoint for `urfave/cli`'s customization.
//
// See the function of the same name upstream for reference.
// This function is considerably derived from it, but buffers the
// template output so it can be handed to the markdown renderer.
func printHelpCustom(out io.Writer, tmpl string, data interface{}, customFuncs map[string]interface{}) {

	const hardwrap = 10000

	funcMap := template.FuncMap{
		"join":           strings.Join,
		"subtract":       subtract,
		"indent":         indent,
		"nindent":        nindent,
		"trim":           strings.TrimSpace,
		"wrap":           func(input string, offset int) string { return wrap(input, offset, hardwrap) },
		"offset":         offset,
		"offsetCommands": offsetCommands,
	}
	for key, value := range customFuncs {
		funcMap[key] = value
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 1, 8, 4, ' ', 0)
	t := template.Must(template.New("help").Funcs(funcMap).Parse(tmpl))
	template.Must(t.New("helpNameTemplate").Parse(helpNameTemplate))
	template.Must(t.New("usageTemplate").Parse(usageTemplate))
	template.Must(t.New("descriptionTemplate").Parse(descriptionTemplate))
	template.Must(t.New("visibleCommandTemplate").Parse(visibleCommandTemplate))
	template.Must(t.New("visibleFlagCategoryTemplate").Parse(visibleFlagCategoryTemplate))
	template.Must(t.New("visibleFlagTemplate").Parse(visibleFlagTemplate))
	template.Must(t.New("visibleGlobalFlagCategoryTemplate").Parse(strings.Replace(visibleFlagCategoryTemplate, "OPTIONS", "GLOBAL OPTIONS", -1)))
	template.Must(t.New("authorsTemplate").Parse(authorsTemplate))
	template.Must(t.New("visibleCommandCategoryTemplate").Parse(visibleCommandCategoryTemplate))

	err := t.Execute(w, data)
	if err != nil {
		panic(err)
	}
	_ = w.Flush()

	mode := Mode
	if mode != render.Mode_Markdown && !isTerminal(out) {
		mode = render.Mode_Markdown
	}
	if mode == render.Mode_Markdown {
		_, _ = out.Write(buf.Bytes())
		return
	}
	render.Render(buf.Bytes(), out, mode)
}

func isTerminal(out io.Writer) bool {
	fd, ok := out.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(fd.Fd()))
}

func init() {
	cli.HelpPrinterCustom = printHelpCustom
}

package helpgen

import (
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"
)

/*
	Heads up: this file mutates package-scope variables in `urfave/cli`.

	The stock help templates get replaced wholesale during package init.
	The alternative is setting overrides on every single command object,
	which is boilerplate with a nasty failure mode: miss one command and
	the template engine panics somewhere far from the actual mistake.

	All templates here speak markdown.  Turning that markdown into
	something a terminal can show is the render package's problem.
*/

func init() {
	cli.AppHelpTemplate = appHelpTemplate
	cli.CommandHelpTemplate = commandHelpTemplate
	cli.SubcommandHelpTemplate = subcommandHelpTemplate
}

// appHelpTemplate is used for just the root command.
var appHelpTemplate = heredoc.Doc(`
	## NAME
	{{template "helpNameTemplate" .}}

	{{- if .UsageText}}
	## USAGE
	{{.UsageText}}
	{{- end}}

	{{- if .Version}}{{if not .HideVersion}}
	## VERSION
	{{.Version}}
	{{- end}}{{end}}

	{{- if .Description}}
	## DESCRIPTION
	{{.Description}}
	{{- end}}

	{{- if len .Authors}}
	## AUTHORS
	{{- template "authorsTemplate" .}}
	{{- end}}

	{{- if .VisibleCommands}}
	## COMMANDS
	{{ printf "" }}
	{{- template "visibleCommandCategoryTemplate" .}}
	{{- end}}

	{{- if .VisibleFlagCategories}}
	## GLOBAL OPTIONS
	{{ printf "" }}
	{{- template "visibleFlagCategoryTemplate" .}}
	{{- else if .VisibleFlags}}
	## GLOBAL OPTIONS
	{{ printf "" }}
	{{- template "visibleFlagTemplate" .}}
	{{- end}}
`)

// commandHelpTemplate is used for a command that has no subcommands.
var commandHelpTemplate = heredoc.Doc(`
	## NAME
	{{template "helpNameTemplate" .}}

	## USAGE
	{{template "usageTemplate" .}}{{if .Category}}

	## CATEGORY
	{{.Category}}{{end}}

	{{- if .Description}}
	## DESCRIPTION
	{{.Description}}
	{{- end}}

	{{- if .VisibleFlagCategories}}
	## OPTIONS
	{{- template "visibleFlagCategoryTemplate" .}}
	{{- else if .VisibleFlags}}
	## OPTIONS
	{{- template "visibleFlagTemplate" .}}
	{{- end}}
`)

// subcommandHelpTemplate is used for a command with more than zero subcommands.
var subcommandHelpTemplate = heredoc.Doc(`
	## NAME
	{{template "helpNameTemplate" .}}

	## USAGE
	{{if .UsageText}}{{wrap .UsageText 4}}{{else}}{{.HelpName}} {{if .VisibleFlags}}command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}{{if .Description}}

	## DESCRIPTION
	{{template "descriptionTemplate" .}}{{end}}{{if .VisibleCommands}}

	## COMMANDS
	{{template "visibleCommandTemplate" .}}{{end}}{{if .VisibleFlagCategories}}

	## OPTIONS
	{{template "visibleFlagCategoryTemplate" .}}{{else if .VisibleFlags}}

	## OPTIONS
	{{template "visibleFlagTemplate" .}}{{end}}
`)

//
// The named sub-templates referenced above.  These get parsed into the
// renderer's template tree by name; see the Must chain in helpgen.go.
//

// docnl dedents a heredoc and drops the trailing linebreak that
// heredoc.Doc insists on leaving.
func docnl(s string) string {
	return strings.TrimSuffix(heredoc.Doc(s), "\n")
}

// First line of every help page: name, dash, usage blurb.
var helpNameTemplate = docnl(`
	{{$v := offset .HelpName 8}}{{wrap .HelpName 4}}{{if .Usage}} - {{wrap .Usage $v}}{{end}}
`)

// Appears second in each help page.  Should contain short examples.
//
// FUTURE: needs a drastic rewrite.  A good synopsis should list every flag;
// this doesn't even try, and it gets overridden with manual UsageText often
// enough that the autogen path rarely shows.
var usageTemplate = docnl(`
	{{if .UsageText}}{{wrap .UsageText 4}}{{else}}{{.HelpName}}{{if .VisibleFlags}} [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
`)

var descriptionTemplate = docnl(`
	{{wrap .Description 3}}
`)

var authorsTemplate = docnl(`
	{{with $length := len .Authors}}{{if ne 1 $length}}S{{end}}{{end}}:
	    {{range $index, $author := .Authors}}{{if $index}}
	    {{end}}{{$author}}{{end}}
`)

var visibleCommandTemplate = docnl(`

	{{- range .VisibleCommands}}
	### {{join .Names ", "}}
	{{.Usage}}
	{{end}}

`)

var visibleCommandCategoryTemplate = docnl(`
	{{- range .VisibleCategories}}{{if .Name}}
	    {{.Name}}:{{range .VisibleCommands}}
	        {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{template "visibleCommandTemplate" .}}{{end}}{{end}}
`)

var visibleFlagCategoryTemplate = docnl(`
	{{- range .VisibleFlagCategories}}
	    {{if .Name}}{{.Name}}

	    {{end}}{{$flglen := len .Flags}}{{range $i, $e := .Flags}}{{if eq (subtract $flglen $i) 1}}{{$e}}
	{{else}}{{$e}}
	    {{end}}{{end}}{{end}}
`)

// The `$e.String` call below hides a lot of machinery: flag stringing goes
// through yet another package var, `cli.FlagStringer`.  See flags.go.
var visibleFlagTemplate = docnl(`
	{{- range $i, $e := .VisibleFlags}}
	{{$e.String}}
	{{end}}
`)

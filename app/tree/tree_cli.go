package treecli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/graph"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, treeCmdDef)
}

var treeCmdDef = &cli.Command{
	Name:      "tree",
	Usage:     "Print the node tree found under a location in the data root",
	ArgsUsage: "[location]",
	Description: "Walks the envelopes stored at and below the named location (default: the\n" +
		"whole data root) and prints one line per node, indented by depth.\n" +
		"Collections get a trailing slash; documents don't.",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Fail on envelopes whose kind is not known instead of listing them anyway",
		},
	},
	Action: util.ChainCmdMiddleware(cmdTree,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdTree(c *cli.Context) error {
	ctx := c.Context

	store, _, err := util.OpenStore(c)
	if err != nil {
		return err
	}
	reg := util.DefaultRegistry(store)

	root := loomapi.Location(c.Args().First())

	scanFn := graph.ScanAll
	if c.Bool("strict") {
		scanFn = graph.Scan
	}
	idx, err := scanFn(ctx, store, reg, root)
	if err != nil {
		return err
	}

	for _, rec := range idx.Roots() {
		printSubtree(c, idx, rec, 0)
	}
	return nil
}

func printSubtree(c *cli.Context, idx *graph.Index, rec *loomapi.GraphRecord, depth int) {
	suffix := ""
	if rec.Content == nil {
		suffix = "/"
	}
	fmt.Fprintf(c.App.Writer, "%s%s%s\n", strings.Repeat("\t", depth), rec.Key, suffix)
	for _, child := range idx.Children(rec.Id) {
		printSubtree(c, idx, child, depth+1)
	}
}

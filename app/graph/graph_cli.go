package graphcli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/graph"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, graphCmdDef)
}

var graphCmdDef = &cli.Command{
	Name:  "graph",
	Usage: "Subcommands that work with the graph index",
	Description: "The graph index is a persisted snapshot of the node tree: every envelope's\n" +
		"identity, parentage, and payload content ID, keyed for lookup by ID or by\n" +
		"location.  Commands that read the tree without rescanning it load this index.",
	Subcommands: []*cli.Command{
		{
			Name:  "scan",
			Usage: "Walk the data root's envelopes and persist a fresh graph index",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "lax",
					Usage: "Index envelopes with unknown kinds instead of failing on them",
				},
			},
			Action: util.ChainCmdMiddleware(cmdGraphScan,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:  "ls",
			Usage: "Print every record in the persisted graph index as JSON",
			Action: util.ChainCmdMiddleware(cmdGraphLs,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

func cmdGraphScan(c *cli.Context) error {
	ctx := c.Context

	store, dataRoot, err := util.OpenStore(c)
	if err != nil {
		return err
	}
	reg := util.DefaultRegistry(store)

	scanFn := graph.Scan
	if c.Bool("lax") {
		scanFn = graph.ScanAll
	}
	idx, err := scanFn(ctx, store, reg, "")
	if err != nil {
		return err
	}

	dbPath := graph.DBPath(dataRoot)
	db, err := graph.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := idx.Save(db); err != nil {
		return err
	}

	if !c.Bool("quiet") {
		fmt.Fprintf(c.App.Writer, "indexed %d nodes\n", idx.Len())
	}
	return nil
}

// cmdGraphLs reads the persisted index rather than rescanning, so its output
// reflects what the other index consumers will see.
func cmdGraphLs(c *cli.Context) error {
	_, dataRoot, err := util.OpenStore(c)
	if err != nil {
		return err
	}
	idx, err := util.LoadGraphIndex(dataRoot)
	if err != nil {
		return err
	}
	for rec := range idx.Records() {
		data, err := loomapi.SerializeGraphRecord(rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\n", data)
	}
	return nil
}

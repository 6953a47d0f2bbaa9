package htmlcli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datasethtml"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, htmlCmdDef)
}

var htmlCmdDef = &cli.Command{
	Name:  "html",
	Usage: "Emit a static HTML site describing the data root's node tree",
	Description: "Renders one page per node from the graph index: collections enumerate\n" +
		"their children, documents show their metadata and a payload preview.\n" +
		"The output is plain files, ready for any static file host.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      "output",
			Usage:     "Write the site into `DIR` (default: _html under the data root)",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "url-prefix",
			Usage: "Prefix generated links with `PREFIX`",
			Value: "/",
		},
		&cli.StringFlag{
			Name:  "download-url",
			Usage: "Base `URL` of a mirror to point payload download links at",
		},
	},
	Action: util.ChainCmdMiddleware(cmdHtml,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdHtml(c *cli.Context) error {
	ctx := c.Context

	store, dataRoot, err := util.OpenStore(c)
	if err != nil {
		return err
	}
	idx, err := util.LoadGraphIndex(dataRoot)
	if err != nil {
		return err
	}

	outputPath := c.String("output")
	if outputPath == "" {
		outputPath = filepath.Join(dataRoot, "_html")
	}
	cfg := datasethtml.SiteConfig{
		Ctx:        ctx,
		Store:      store,
		Index:      idx,
		Root:       "",
		OutputPath: outputPath,
		URLPrefix:  c.String("url-prefix"),
	}
	if c.IsSet("download-url") {
		downloadURL := c.String("download-url")
		cfg.DownloadURL = &downloadURL
	}

	if err := os.RemoveAll(cfg.OutputPath); err != nil {
		return loomapi.ErrorIo("failed to clear the output directory", cfg.OutputPath, err)
	}
	if err := cfg.TreeAndChildrenToHtml(); err != nil {
		return err
	}

	if !c.Bool("quiet") {
		fmt.Fprintf(c.App.Writer, "published HTML for the data root to %s\n", cfg.OutputPath)
	}
	return nil
}

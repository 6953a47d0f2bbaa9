package initcli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/config"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/warehouse"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, initCmdDef)
}

var initCmdDef = &cli.Command{
	Name:      "init",
	Usage:     "Create a data root with a starter dataset",
	ArgsUsage: "[dir]",
	Description: "Creates a data root in the named directory (default: the working directory),\n" +
		"containing one dataset collection with one starter document in it.\n" +
		"The directory becomes discoverable by every other command run at or below it.",
	Action: util.ChainCmdMiddleware(cmdInit,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

// starterElements is the payload of the document `loom init` writes.
var starterElements = []any{
	map[string]any{"message": "hello from loom"},
	map[string]any{"message": "replace this document with real data"},
}

// resolveInitRoot picks the directory to initialize.  Unlike the other
// commands there is no upward search here: init creates roots, it does not
// discover them.
func resolveInitRoot(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	if explicit := c.String("data-root"); explicit != "" {
		return explicit
	}
	state := config.NewState()
	if value, ok := state.Env[config.EnvLoomDataRoot]; ok {
		return value
	}
	return state.WorkingDirectory
}

func createStarterTree(c *cli.Context, root string) (loomapi.Location, error) {
	store := warehouse.DirStore(root)
	reg := util.DefaultRegistry(store)

	coll := datagraph.NewCollection(util.DatasetKind(), "", loomapi.NewMetadata(nil), store, reg)
	collLoc, err := coll.Location()
	if err != nil {
		return "", err
	}
	doc := datagraph.NewFile[any](util.DocumentKind(store), collLoc,
		loomapi.NewMetadata(map[string]string{"topic": "welcome"}),
		store, warehouse.NewJSONSource[any](store))
	doc.Assign(starterElements)
	if err := coll.Assign(doc); err != nil {
		return "", err
	}
	if err := coll.Save(c.Context); err != nil {
		return "", err
	}
	return doc.Location()
}

func cmdInit(c *cli.Context) error {
	root := resolveInitRoot(c)

	marker := filepath.Join(root, config.DefaultRootDirname)
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		return loomapi.ErrorFileAlreadyExists(marker)
	}

	docLoc, err := createStarterTree(c, root)
	if err != nil {
		return err
	}

	if !c.Bool("quiet") {
		fmt.Fprintf(c.App.Writer, "Initialized a data root holding one dataset collection with one starter document.\n")
		fmt.Fprintf(c.App.Writer, "Index it with `%s graph scan`, then look around with `%s tree`.\n", c.App.Name, c.App.Name)
		fmt.Fprintf(c.App.Writer, "Print the starter document with `%s cat %s`.\n", c.App.Name, docLoc)
	}

	return nil
}

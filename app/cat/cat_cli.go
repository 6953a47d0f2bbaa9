package catcli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/polydawn/refmt"
	rfmtjson "github.com/polydawn/refmt/json"
	"github.com/polydawn/refmt/obj/atlas"
	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, catCmdDef)
}

var catCmdDef = &cli.Command{
	Name:      "cat",
	Usage:     "Print the elements stored in a document node",
	ArgsUsage: "<location>",
	Description: "Loads the document node at the named location and prints its elements,\n" +
		"one JSON value per line.  With --format=json the whole payload is\n" +
		"printed instead, pretty-printed with tab indentation.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "Set to `json` to print the whole payload as one pretty-printed document",
		},
	},
	Action: util.ChainCmdMiddleware(cmdCat,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

// Payload elements are plain JSON shapes, which the codec handles without
// any atlas entries.
var elemAtlas = atlas.MustBuild()

func cmdCat(c *cli.Context) error {
	ctx := c.Context
	if c.Args().Len() < 1 {
		return fmt.Errorf("no location provided")
	}
	format := c.String("format")
	if format != "" && format != "json" {
		return fmt.Errorf("unrecognized format %q", format)
	}

	store, _, err := util.OpenStore(c)
	if err != nil {
		return err
	}
	reg := util.DefaultRegistry(store)

	raw := strings.Trim(c.Args().First(), "/")
	parent, key := splitLocation(raw)

	envData, err := store.Get(ctx, datagraph.EnvelopeLocation(parent, key))
	if err != nil {
		return err
	}
	env, err := loomapi.ParseNodeEnvelope(envData)
	if err != nil {
		return err
	}
	node, err := reg.FromEnvelope(datagraph.NodeConfig{
		Parent:   parent,
		Key:      key,
		Envelope: env,
		Store:    store,
	})
	if err != nil {
		return err
	}
	file, ok := node.(*datagraph.File[any])
	if !ok {
		return loomapi.ErrorInvalid("not a document node", [2]string{"location", raw})
	}

	if format == "json" {
		return catPretty(c, store, file)
	}
	elems, err := file.Elems(ctx)
	if err != nil {
		return err
	}
	for elem := range elems {
		data, err := refmt.MarshalAtlased(rfmtjson.EncodeOptions{}, elem, elemAtlas)
		if err != nil {
			return loomapi.ErrorSerialization("failed to encode element", err)
		}
		fmt.Fprintf(c.App.Writer, "%s\n", data)
	}
	return nil
}

// catPretty prints the document's payload bytes as one pretty-printed JSON
// document, round-tripped through the data model so the output shape does
// not depend on how the payload was written.
func catPretty(c *cli.Context, store datagraph.EnvelopeStore, file *datagraph.File[any]) error {
	loc, err := file.Location()
	if err != nil {
		return err
	}
	data, err := store.Get(c.Context, loc)
	if err != nil {
		return err
	}
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := payloadDecoder(nb, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := prettyEncoder(nb.Build(), c.App.Writer); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer)
	return nil
}

// splitLocation divides a location into its parent location and final key.
// A bare key has the empty (top of store) parent.
func splitLocation(raw string) (loomapi.Location, string) {
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return loomapi.Location(raw[:i]), raw[i+1:]
	}
	return "", raw
}

package util

import (
	"errors"
	"io/fs"
	"os"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/config"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/graph"
	"github.com/warptools/loom/pkg/warehouse"
)

// Kind IDs for the kinds this application registers out of the box.
// The node model itself ships no kinds, so trees meant to be read by
// plain `loom` (rather than by a program bringing its own kinds) should
// stick to these.
const (
	// KindIDDataset is a collection kind: one ordered axis of child nodes.
	KindIDDataset loomapi.KindID = "a819362b-7c04-4ddd-8887-43e9f04157ac"
	// KindIDDocument is a file kind holding one JSON document of elements.
	KindIDDocument loomapi.KindID = "e0bc4f65-9a2d-4e0e-9cbd-c842f2c56c56"
)

// DatasetKind returns the CLI's collection kind.
func DatasetKind() *datagraph.Kind {
	return datagraph.CollectionKind(KindIDDataset, "dataset", "entry")
}

// DocumentKind returns the CLI's file kind.  Payloads move through the
// given store as JSON documents.
func DocumentKind(store warehouse.Store) *datagraph.Kind {
	return datagraph.FileKind[any](KindIDDocument, "document", "row", warehouse.NewJSONSource[any](store))
}

// DefaultKinds returns the kinds the CLI knows how to materialize.
func DefaultKinds(store warehouse.Store) []*datagraph.Kind {
	return []*datagraph.Kind{
		DatasetKind(),
		DocumentKind(store),
	}
}

// DefaultRegistry returns a registry holding the CLI's default kinds.
func DefaultRegistry(store warehouse.Store) *datagraph.Registry {
	reg := datagraph.NewRegistry()
	for _, k := range DefaultKinds(store) {
		if err := reg.Register(k); err != nil {
			// two fixed, distinct IDs cannot conflict
			panic(err)
		}
	}
	return reg
}

// DataRoot resolves the data root directory for a command invocation.
// The `--data-root` flag wins; after that, resolution layering is the
// config package's business.
//
// Errors:
//
//    - loom-error-searching-filesystem -- when the upward search fails unexpectedly
func DataRoot(c *cli.Context) (string, error) {
	return config.DataRoot(os.DirFS("/"), config.NewState(), c.String("data-root"))
}

// OpenStore resolves the data root and returns a read-write document store
// over it, along with the resolved root path.
//
// Errors:
//
//    - loom-error-searching-filesystem -- when the upward search fails unexpectedly
func OpenStore(c *cli.Context) (*warehouse.FSStore, string, error) {
	root, err := DataRoot(c)
	if err != nil {
		return nil, "", err
	}
	return warehouse.DirStore(root), root, nil
}

// LoadGraphIndex reads the persisted graph index for a data root.
// The caller gets a memory-resident index; the database is closed again
// before returning.
//
// Errors:
//
//    - loom-error-missing -- when no index has been persisted yet
//    - loom-error-io -- when the database cannot be opened or read
//    - loom-error-serialization -- when a stored record does not parse
//    - loom-error-invalid -- when the stored records do not form a tree
func LoadGraphIndex(dataRoot string) (*graph.Index, error) {
	path := graph.DBPath(dataRoot)
	// Probe before opening: bolt would create an empty database file,
	// which a read-only command has no business doing.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, serum.Error(loomapi.ECodeMissing,
			serum.WithMessageTemplate("no graph index at {{path|q}}; run `loom graph scan` first"),
			serum.WithDetail("path", path),
		)
	}
	db, err := graph.OpenDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return graph.LoadIndex(db)
}

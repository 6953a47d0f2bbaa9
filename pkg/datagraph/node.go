package datagraph

import (
	"context"
	"iter"

	"github.com/warptools/loom/loomapi"
)

// Axis describes one dimension of a node: the label naming the axis and the
// metadata identifying the data it ranges over.
type Axis struct {
	Label    loomapi.Label
	Metadata loomapi.Metadata
}

// Row is one element tuple drawn from a node.
// Its length always equals the node's arity.
// For file axes the components are payload elements;
// for collection axes they are child nodes.
type Row []any

// Identified is the identity capability: every node knows its axes.
// One-axis nodes report a single Axis holding their own label and metadata.
type Identified interface {
	Arity() int
	Axes() []Axis
}

// Indexable is the element access capability shared by every node kind.
//
// All enumerations are lazy, finite, and restartable: the returned iterator
// seq may be ranged over any number of times and yields the same elements in
// the same order each time, provided the underlying node is unchanged.
type Indexable interface {
	// Len reports how many element tuples the node's full enumeration yields.
	//
	// Errors:
	//
	//    - loom-error-missing -- when backing storage for the node does not exist
	//    - loom-error-io -- when loading from backing storage fails
	Len(ctx context.Context) (int, error)

	// AxisLen reports the element count along a single axis.
	//
	// Errors:
	//
	//    - loom-error-index-axis -- when the axis is outside [0, arity)
	//    - loom-error-missing -- when backing storage for the node does not exist
	//    - loom-error-io -- when loading from backing storage fails
	AxisLen(ctx context.Context, axis int) (int, error)

	// Cell returns the single element tuple at one coordinate.
	// Negative coordinate components count back from the end of their axis.
	//
	// Errors:
	//
	//    - loom-error-index-arity -- when len(coord) differs from the node's arity
	//    - loom-error-index-range -- when a coordinate component is outside its axis
	//    - loom-error-missing -- when the coordinate is within bounds but no element
	//      exists there (sparse extents), or when backing storage does not exist
	//    - loom-error-io -- when loading from backing storage fails
	Cell(ctx context.Context, coord ...int) (Row, error)

	// Select enumerates element tuples matching per-axis selectors, together
	// with their coordinates, iterating with later axes varying fastest.
	// Range selectors clip to the available bounds rather than erroring.
	//
	// Errors:
	//
	//    - loom-error-index-arity -- when len(sels) differs from the node's arity
	//    - loom-error-index-range -- when a single-position selector is outside its axis
	//    - loom-error-missing -- when backing storage for the node does not exist
	//    - loom-error-io -- when loading from backing storage fails
	Select(ctx context.Context, sels ...Selector) (iter.Seq2[[]int, Row], error)

	// Project enumerates a single axis's components: the selector applies to
	// the named axis, all other axes are implicitly "all", and each matching
	// row contributes its component on that axis.
	//
	// Errors:
	//
	//    - loom-error-index-axis -- when the axis is outside [0, arity)
	//    - loom-error-index-range -- when a single-position selector is outside the axis
	//    - loom-error-missing -- when backing storage for the node does not exist
	//    - loom-error-io -- when loading from backing storage fails
	Project(ctx context.Context, sel Selector, axis int) (iter.Seq[any], error)

	// ProjectAt returns the named axis's element at one position along that
	// axis, without requiring coordinates for any other axis.
	// Negative positions count back from the end of the axis.
	//
	// Errors:
	//
	//    - loom-error-index-axis -- when the axis is outside [0, arity)
	//    - loom-error-index-range -- when the position is outside the axis
	//    - loom-error-missing -- when backing storage for the node does not exist
	//    - loom-error-io -- when loading from backing storage fails
	ProjectAt(ctx context.Context, position int, axis int) (any, error)
}

// Loadable is the lifecycle capability.  Loading is idempotent and unloading
// never destroys persisted storage; a later access simply reloads.
type Loadable interface {
	// Load ensures the node's element data is resident in memory.
	//
	// Errors:
	//
	//    - loom-error-missing -- when the node's location does not exist
	//    - loom-error-io -- when reading from backing storage fails
	//    - loom-error-metadata-parse -- when a child envelope does not parse
	//    - loom-error-kind -- when a child envelope names an unregistered kind
	Load(ctx context.Context) error
	Unload()
	Loaded() bool
}

// Node is the composition of capabilities every node kind provides.
type Node interface {
	Identified
	Indexable
	Loadable
}

// Persistable is the capability of nodes which have their own storage
// identity.  Derived nodes (join results) are not persistable; they own only
// their index set and resolve values through their operands.
type Persistable interface {
	// Envelope returns the node's serialized identity.
	Envelope() *loomapi.NodeEnvelope

	// Key returns the metadata-derived key this node occupies within a parent
	// collection's child mapping.
	Key() string

	// Location computes the node's storage location from its parent location
	// and metadata via its kind's locator.
	//
	// Errors:
	//
	//    - loom-error-invalid -- when the metadata cannot form a location
	Location() (loomapi.Location, error)

	// Save persists the node to its computed location.
	//
	// Errors:
	//
	//    - loom-error-invalid -- when the metadata cannot form a location
	//    - loom-error-io -- when writing to backing storage fails
	//    - loom-error-serialization -- when the envelope cannot be encoded
	//    - loom-error-missing -- when saving a node that has no data to persist
	Save(ctx context.Context) error
}

// StoredNode is a node with its own storage identity: files and collections,
// as opposed to derived nodes.
type StoredNode interface {
	Node
	Persistable
}

// EnvelopeStore is the slice of a byte store that the node model needs.
// The full store contract lives with the storage collaborators; anything
// satisfying these four methods can back a node tree.
type EnvelopeStore interface {
	// Errors:
	//
	//    - loom-error-missing -- when no data exists at the location
	//    - loom-error-io -- when reading fails
	Get(ctx context.Context, loc loomapi.Location) ([]byte, error)
	// Errors:
	//
	//    - loom-error-io -- when writing fails
	Put(ctx context.Context, loc loomapi.Location, data []byte) (loomapi.ContentCID, error)
	// Errors:
	//
	//    - loom-error-io -- when the existence check fails
	Has(ctx context.Context, loc loomapi.Location) (bool, error)
	// List returns the document names directly under a location prefix,
	// in the store's native order.
	//
	// Errors:
	//
	//    - loom-error-missing -- when the prefix does not exist
	//    - loom-error-io -- when listing fails
	List(ctx context.Context, prefix loomapi.Location) ([]string, error)
}

// Source reads and writes one file node's payload through a byte store.
// Implementations pair an element codec with a store.
type Source[P any] interface {
	// Errors:
	//
	//    - loom-error-missing -- when no payload exists at the location
	//    - loom-error-io -- when reading fails
	//    - loom-error-serialization -- when decoding the payload fails
	Load(ctx context.Context, loc loomapi.Location) ([]P, error)
	// Errors:
	//
	//    - loom-error-io -- when writing fails
	//    - loom-error-serialization -- when encoding the payload fails
	Save(ctx context.Context, loc loomapi.Location, elems []P) (loomapi.ContentCID, error)
}

// envelopeDirName is the directory fragment under a location where child
// envelope documents live; the discovery rule enumerates its contents.
const envelopeDirName = ".loom"

// envelopeSuffix is the file suffix for envelope documents; the child key is
// the document name with this suffix stripped.
const envelopeSuffix = ".json"

// EnvelopeDir returns the location of the envelope directory for children of
// the given location.
func EnvelopeDir(parent loomapi.Location) loomapi.Location {
	return parent.Join(envelopeDirName)
}

// EnvelopeLocation returns the location of the envelope document for the
// child occupying key under the given parent location.
func EnvelopeLocation(parent loomapi.Location, key string) loomapi.Location {
	return parent.Join(envelopeDirName, key+envelopeSuffix)
}

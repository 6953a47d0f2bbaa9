package datagraph

import (
	"context"
	"iter"
	"strings"

	"github.com/facette/natsort"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
)

// Collection is a one-axis node whose elements are child nodes, keyed by
// metadata-derived strings and ordered naturally (numeric fragments compare
// by value, so "trial-2" sorts before "trial-10").
//
// Children are discovered by enumerating envelope documents under the
// collection's location and routing each through the kind registry.  A
// collection holds non-owning references: children load and unload
// independently, and discovery never loads a child's payload.
type Collection struct {
	kind     *Kind
	parent   loomapi.Location
	label    loomapi.Label
	metadata loomapi.Metadata
	key      string
	store    EnvelopeStore
	registry *Registry

	keys     []string
	children map[string]StoredNode
	loaded   bool
}

var _ StoredNode = (*Collection)(nil)

// NewCollection constructs an unloaded collection node.  The child set is
// discovered through the store on first access.
func NewCollection(k *Kind, parent loomapi.Location, md loomapi.Metadata, store EnvelopeStore, reg *Registry) *Collection {
	return &Collection{
		kind:     k,
		parent:   parent,
		label:    k.Label,
		metadata: md,
		key:      k.key(md),
		store:    store,
		registry: reg,
	}
}

// CollectionKind builds a Kind whose nodes are collections.  Children may be
// of any registered kind; the envelope's kind ID routes construction.
func CollectionKind(id loomapi.KindID, name string, label loomapi.Label) *Kind {
	k := &Kind{ID: id, Name: name, Label: label}
	k.New = func(cfg NodeConfig) (StoredNode, error) {
		c := NewCollection(cfg.Kind, cfg.Parent, cfg.Envelope.Metadata, cfg.Store, cfg.Registry)
		if cfg.Envelope.Label != "" {
			c.label = cfg.Envelope.Label
		}
		if cfg.Key != "" {
			c.key = cfg.Key
		}
		return c, nil
	}
	return k
}

func (c *Collection) Arity() int { return 1 }

func (c *Collection) Axes() []Axis {
	return []Axis{{Label: c.label, Metadata: c.metadata.Clone()}}
}

// Metadata returns the node's identity metadata.
func (c *Collection) Metadata() loomapi.Metadata { return c.metadata.Clone() }

func (c *Collection) Key() string { return c.key }

func (c *Collection) Envelope() *loomapi.NodeEnvelope {
	return &loomapi.NodeEnvelope{
		Kind:     c.kind.ID,
		Label:    c.label,
		Metadata: c.metadata.Clone(),
	}
}

func (c *Collection) Location() (loomapi.Location, error) {
	return c.kind.locate(c.parent, c.metadata)
}

// Load discovers the child set if it is not already resident.  A location
// that exists but has no envelope directory yields an empty collection; a
// location that does not exist at all is a not-found error.
//
// Errors:
//
//    - loom-error-missing -- when the collection's location does not exist
//    - loom-error-io -- when listing or reading envelope documents fails
//    - loom-error-metadata-parse -- when a child envelope does not parse
//    - loom-error-kind -- when a child envelope names an unregistered kind
//    - loom-error-invalid -- when the metadata cannot form a location
func (c *Collection) Load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	names, err := c.store.List(ctx, EnvelopeDir(loc))
	if err != nil {
		if serum.Code(err) != loomapi.ECodeMissing {
			return err
		}
		// No envelope directory.  The collection still exists, as an empty
		// one, if its own envelope or its location does.  Flat stores have
		// no empty directories, so the envelope is the reliable witness.
		exists, herr := c.store.Has(ctx, EnvelopeLocation(c.parent, c.key))
		if herr != nil {
			return herr
		}
		if !exists {
			exists, herr = c.store.Has(ctx, loc)
			if herr != nil {
				return herr
			}
		}
		if !exists {
			return loomapi.ErrorLocationMissing(loc)
		}
		names = nil
	}
	keys := make([]string, 0, len(names))
	children := make(map[string]StoredNode, len(names))
	for _, name := range names {
		key, ok := strings.CutSuffix(name, envelopeSuffix)
		if !ok {
			continue
		}
		data, err := c.store.Get(ctx, EnvelopeLocation(loc, key))
		if err != nil {
			return err
		}
		env, err := loomapi.ParseNodeEnvelope(data)
		if err != nil {
			return err
		}
		child, err := c.registry.FromEnvelope(NodeConfig{
			Parent:   loc,
			Key:      key,
			Envelope: env,
			Store:    c.store,
		})
		if err != nil {
			return err
		}
		keys = append(keys, key)
		children[key] = child
	}
	natsort.Sort(keys)
	c.keys = keys
	c.children = children
	c.loaded = true
	return nil
}

// Unload releases the child set.  Children themselves are untouched.
func (c *Collection) Unload() {
	c.keys = nil
	c.children = nil
	c.loaded = false
}

func (c *Collection) Loaded() bool { return c.loaded }

// Keys lists the child keys in natural order.
//
// Errors: same as Load.
func (c *Collection) Keys(ctx context.Context) ([]string, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	result := make([]string, len(c.keys))
	copy(result, c.keys)
	return result, nil
}

// Child looks up one child by key.
//
// Errors:
//
//    - loom-error-missing -- when no child occupies the key, or the
//      collection's location does not exist
//    - loom-error-io -- when listing or reading envelope documents fails
//    - loom-error-metadata-parse -- when a child envelope does not parse
//    - loom-error-kind -- when a child envelope names an unregistered kind
func (c *Collection) Child(ctx context.Context, key string) (StoredNode, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	child, ok := c.children[key]
	if !ok {
		loc, _ := c.Location()
		return nil, loomapi.ErrorChildMissing(key, loc)
	}
	return child, nil
}

// Assign replaces the in-memory child set without touching storage.  The
// collection becomes loaded, possibly empty; this is how a freshly
// constructed collection is marked new rather than discovered.
//
// Errors:
//
//    - loom-error-already-exists -- when two children derive the same key
func (c *Collection) Assign(children ...StoredNode) error {
	c.keys = nil
	c.children = map[string]StoredNode{}
	c.loaded = true
	for _, child := range children {
		if _, err := c.Add(child); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts a child into the in-memory child set under its own key and
// returns that key.  Nothing is persisted until Save.  An empty collection
// that has never touched storage becomes loaded by its first Add.
//
// Errors:
//
//    - loom-error-already-exists -- when the key is already occupied
func (c *Collection) Add(child StoredNode) (string, error) {
	key := child.Key()
	if c.children == nil {
		c.children = map[string]StoredNode{}
		c.loaded = true
	}
	if _, occupied := c.children[key]; occupied {
		loc, _ := c.Location()
		return "", loomapi.ErrorChildExists(key, loc)
	}
	c.children[key] = child
	c.keys = append(c.keys, key)
	natsort.Sort(c.keys)
	return key, nil
}

// Save writes the collection's own envelope under its parent, then saves
// each child in key order.  An unloaded collection is discovered first.
//
// Errors:
//
//    - loom-error-missing -- when discovering an unloaded collection finds nothing
//    - loom-error-io -- when writing fails
//    - loom-error-serialization -- when encoding an envelope fails
//    - loom-error-invalid -- when metadata cannot form a location
//    - loom-error-metadata-parse -- when a child envelope does not parse during discovery
//    - loom-error-kind -- when a child envelope names an unregistered kind
func (c *Collection) Save(ctx context.Context) error {
	if !c.loaded {
		if err := c.Load(ctx); err != nil {
			return err
		}
	}
	data, err := loomapi.SerializeNodeEnvelope(c.Envelope())
	if err != nil {
		return err
	}
	if _, err := c.store.Put(ctx, EnvelopeLocation(c.parent, c.key), data); err != nil {
		return err
	}
	for _, key := range c.keys {
		if err := c.children[key].Save(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) ensure(ctx context.Context) error { return c.Load(ctx) }
func (c *Collection) axisLengths() []int               { return []int{len(c.keys)} }
func (c *Collection) axisValue(_, pos int) any         { return c.children[c.keys[pos]] }
func (c *Collection) sparseCoords() [][]int            { return nil }

func (c *Collection) Len(ctx context.Context) (int, error) { return lenOf(ctx, c) }

func (c *Collection) AxisLen(ctx context.Context, axis int) (int, error) {
	return axisLenOf(ctx, c, axis)
}

func (c *Collection) Cell(ctx context.Context, coord ...int) (Row, error) {
	return cellOf(ctx, c, coord)
}

func (c *Collection) Select(ctx context.Context, sels ...Selector) (iter.Seq2[[]int, Row], error) {
	return selectOf(ctx, c, sels)
}

func (c *Collection) Project(ctx context.Context, sel Selector, axis int) (iter.Seq[any], error) {
	return projectOf(ctx, c, sel, axis)
}

func (c *Collection) ProjectAt(ctx context.Context, position, axis int) (any, error) {
	return projectAtOf(ctx, c, position, axis)
}

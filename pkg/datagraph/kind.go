package datagraph

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/warptools/loom/loomapi"
)

// LocatorFunc computes a node's storage location from its parent location and
// metadata.  Locators must be deterministic and injective for distinct
// metadata under the same parent.
//
// Errors:
//
//    - loom-error-invalid -- when the metadata cannot form a location
type LocatorFunc func(parent loomapi.Location, md loomapi.Metadata) (loomapi.Location, error)

// KeyFunc derives a collection child key from node metadata.
type KeyFunc func(md loomapi.Metadata) string

// Kind describes one runtime-registered node kind: how nodes of the kind are
// addressed, keyed, and constructed.  Kinds are registered by collaborators;
// the node model itself ships no kinds.
type Kind struct {
	// ID is the stable identifier recorded in node envelopes.
	ID loomapi.KindID
	// Name is a human-readable kind name, used in listings and locations.
	Name string
	// Label is the axis label nodes of this kind carry.
	Label loomapi.Label
	// Locate computes storage locations; nil selects DefaultLocator.
	Locate LocatorFunc
	// Key derives collection child keys; nil selects DefaultKey.
	Key KeyFunc
	// New constructs an unloaded node from a discovered envelope.
	New func(cfg NodeConfig) (StoredNode, error)
}

// NodeConfig carries everything Kind.New needs to construct a node.
type NodeConfig struct {
	// Parent is the location of the enclosing collection.
	Parent loomapi.Location
	// Key is the child key the node occupies under its parent.
	Key string
	// Envelope is the parsed identity document.
	Envelope *loomapi.NodeEnvelope
	// Store is the byte store backing the node tree.
	Store EnvelopeStore
	// Registry resolves child kinds for collection nodes.
	Registry *Registry
	// Kind is the registered kind itself, filled in by the registry.
	Kind *Kind
}

// NewKindID returns a fresh random kind identifier.
func NewKindID() loomapi.KindID {
	return loomapi.KindID(uuid.NewString())
}

// locate applies the kind's locator, defaulting when unset.
func (k *Kind) locate(parent loomapi.Location, md loomapi.Metadata) (loomapi.Location, error) {
	if k.Locate != nil {
		return k.Locate(parent, md)
	}
	return DefaultLocator(k.Name)(parent, md)
}

// key applies the kind's key derivation, defaulting when unset.
func (k *Kind) key(md loomapi.Metadata) string {
	if k.Key != nil {
		return k.Key(md)
	}
	return DefaultKey(k.Name)(md)
}

// DefaultLocator returns a locator placing nodes at a child path of the
// parent named by the kind name and the canonical metadata rendering.
// Metadata with empty canonical form locates at the kind name alone.
//
// Errors:
//
//    - loom-error-invalid -- when a metadata key or value contains a path separator
func DefaultLocator(name string) LocatorFunc {
	return func(parent loomapi.Location, md loomapi.Metadata) (loomapi.Location, error) {
		seg := DefaultKey(name)(md)
		if strings.ContainsAny(seg, "/\\") {
			return "", loomapi.ErrorInvalid("metadata cannot form a location: segment contains a path separator", [2]string{"segment", seg})
		}
		return parent.Join(seg), nil
	}
}

// DefaultKey returns a key derivation joining the kind name with the
// canonical metadata rendering.
func DefaultKey(name string) KeyFunc {
	return func(md loomapi.Metadata) string {
		s := md.String()
		if s == "" {
			return name
		}
		return name + "-" + s
	}
}

// Registry maps kind identifiers to registered kinds.  A registry is built
// once during collaborator setup and treated as read-only afterwards; it is
// not synchronized for concurrent mutation.
type Registry struct {
	kinds map[loomapi.KindID]*Kind
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[loomapi.KindID]*Kind)}
}

// Register adds a kind to the registry.
//
// Errors:
//
//    - loom-error-invalid -- when the kind has an empty ID or no constructor
//    - loom-error-kind -- when the ID is already registered
func (r *Registry) Register(k *Kind) error {
	if k.ID == "" {
		return loomapi.ErrorInvalid("kind must have an ID", [2]string{"name", k.Name})
	}
	if k.New == nil {
		return loomapi.ErrorInvalid("kind must have a constructor", [2]string{"name", k.Name})
	}
	if prior, exists := r.kinds[k.ID]; exists {
		return loomapi.ErrorKindConflict(k.ID, prior.Name)
	}
	r.kinds[k.ID] = k
	return nil
}

// Lookup finds a kind by identifier.
func (r *Registry) Lookup(id loomapi.KindID) (*Kind, bool) {
	k, ok := r.kinds[id]
	return k, ok
}

// Kinds lists registered kinds sorted by name.
func (r *Registry) Kinds() []*Kind {
	result := make([]*Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		result = append(result, k)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// FromEnvelope constructs the unloaded node a discovered envelope describes.
//
// Errors:
//
//    - loom-error-kind -- when the envelope names an unregistered kind
//    - loom-error-invalid -- when the envelope is degenerate
func (r *Registry) FromEnvelope(cfg NodeConfig) (StoredNode, error) {
	if cfg.Envelope == nil {
		return nil, loomapi.ErrorInvalid("envelope is required")
	}
	k, ok := r.Lookup(cfg.Envelope.Kind)
	if !ok {
		return nil, loomapi.ErrorKindUnknown(cfg.Envelope.Kind)
	}
	cfg.Kind = k
	cfg.Registry = r
	return k.New(cfg)
}

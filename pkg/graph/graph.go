// Package graph builds and persists an index over a node tree: one record
// per discovered node, with parent and child edges, so tools can answer
// structural questions without constructing nodes or touching payloads.
package graph

import (
	"context"
	"iter"
	"strings"

	"github.com/facette/natsort"
	"github.com/google/uuid"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/logging"
	"github.com/warptools/loom/pkg/tracing"
)

// Index holds the records of one scan.  It is built once, by Scan or
// LoadIndex, and treated as read-only afterwards; it is not synchronized for
// concurrent mutation.
type Index struct {
	records map[loomapi.GraphNodeID]*loomapi.GraphRecord
	byLoc   map[loomapi.Location]loomapi.GraphNodeID
	order   []loomapi.GraphNodeID
}

func NewIndex() *Index {
	return &Index{
		records: make(map[loomapi.GraphNodeID]*loomapi.GraphRecord),
		byLoc:   make(map[loomapi.Location]loomapi.GraphNodeID),
	}
}

// Len reports how many nodes the index holds.
func (x *Index) Len() int {
	return len(x.records)
}

// Get looks up one record by ID.
func (x *Index) Get(id loomapi.GraphNodeID) (*loomapi.GraphRecord, bool) {
	rec, ok := x.records[id]
	return rec, ok
}

// At looks up one record by node location.
func (x *Index) At(loc loomapi.Location) (*loomapi.GraphRecord, bool) {
	id, ok := x.byLoc[loc]
	if !ok {
		return nil, false
	}
	return x.records[id], true
}

// Roots lists the records with no parent edge, in scan order.
func (x *Index) Roots() []*loomapi.GraphRecord {
	var roots []*loomapi.GraphRecord
	for _, id := range x.order {
		if rec := x.records[id]; rec.Parent == nil {
			roots = append(roots, rec)
		}
	}
	return roots
}

// Children resolves a record's child edges, in scan order.  Unknown IDs have
// no children.
func (x *Index) Children(id loomapi.GraphNodeID) []*loomapi.GraphRecord {
	rec, ok := x.records[id]
	if !ok {
		return nil
	}
	children := make([]*loomapi.GraphRecord, 0, len(rec.Children))
	for _, cid := range rec.Children {
		if child, ok := x.records[cid]; ok {
			children = append(children, child)
		}
	}
	return children
}

// Records enumerates every record in scan order: depth-first, siblings in
// natural key order.  The seq is restartable.
func (x *Index) Records() iter.Seq[*loomapi.GraphRecord] {
	return func(yield func(*loomapi.GraphRecord) bool) {
		for _, id := range x.order {
			if !yield(x.records[id]) {
				return
			}
		}
	}
}

// insert adds a record without touching the order.
//
// Errors:
//
//    - loom-error-invalid -- when the ID or location is already indexed
func (x *Index) insert(rec *loomapi.GraphRecord) error {
	if _, occupied := x.records[rec.Id]; occupied {
		return loomapi.ErrorInvalid("graph index already holds this ID",
			[2]string{"id", string(rec.Id)})
	}
	if prior, occupied := x.byLoc[rec.Location]; occupied {
		return loomapi.ErrorInvalid("two index records resolve to the same location",
			[2]string{"location", string(rec.Location)},
			[2]string{"priorId", string(prior)},
			[2]string{"id", string(rec.Id)})
	}
	x.records[rec.Id] = rec
	x.byLoc[rec.Location] = rec.Id
	return nil
}

// add inserts a record and appends it to the scan order.
func (x *Index) add(rec *loomapi.GraphRecord) error {
	if err := x.insert(rec); err != nil {
		return err
	}
	x.order = append(x.order, rec.Id)
	return nil
}

// Scan walks the discovery rule from a root location and indexes every node
// it reaches.  Discovery reads envelopes only; no payload is ever loaded.
// Sibling nodes index in natural key order, so two scans of an unchanged
// tree agree on everything except the generated IDs.
//
// Envelopes naming kinds the registry does not know fail the scan; use
// ScanAll to index such trees anyway.
//
// Errors:
//
//    - loom-error-io -- when listing or reading envelope documents fails
//    - loom-error-metadata-parse -- when an envelope document does not parse
//    - loom-error-datatoonew -- when an envelope carries an unrecognized version
//    - loom-error-kind -- when an envelope names an unregistered kind
//    - loom-error-invalid -- when metadata cannot form a location, or two
//      envelopes resolve to the same location
func Scan(ctx context.Context, store datagraph.EnvelopeStore, reg *datagraph.Registry, root loomapi.Location) (*Index, error) {
	return scan(ctx, store, reg, root, false)
}

// ScanAll is Scan for trees whose collaborators are not linked in: envelopes
// naming unregistered kinds are indexed anyway, assuming the default locator
// layout (a child's location is its parent's location joined with its key).
// Trees written through custom locators need their own registry to index
// exactly.
//
// Errors: same as Scan, minus loom-error-kind.
func ScanAll(ctx context.Context, store datagraph.EnvelopeStore, reg *datagraph.Registry, root loomapi.Location) (*Index, error) {
	return scan(ctx, store, reg, root, true)
}

func scan(ctx context.Context, store datagraph.EnvelopeStore, reg *datagraph.Registry, root loomapi.Location, lax bool) (*Index, error) {
	ctx, span := tracing.StartFn(ctx, "Scan")
	defer span.End()
	if reg == nil {
		reg = datagraph.NewRegistry()
	}
	s := &scanner{idx: NewIndex(), store: store, registry: reg, lax: lax}
	if err := s.children(ctx, root, nil); err != nil {
		tracing.SetSpanError(ctx, err)
		return nil, err
	}
	return s.idx, nil
}

type scanner struct {
	idx      *Index
	store    datagraph.EnvelopeStore
	registry *datagraph.Registry
	lax      bool
}

// children indexes every envelope under one location, then recurses.
func (s *scanner) children(ctx context.Context, parentLoc loomapi.Location, parent *loomapi.GraphRecord) error {
	log := logging.Ctx(ctx)
	names, err := s.store.List(ctx, datagraph.EnvelopeDir(parentLoc))
	if err != nil {
		if serum.Code(err) == loomapi.ECodeMissing {
			// No envelope directory means no children here.
			return nil
		}
		return err
	}
	var keys []string
	for _, name := range names {
		if key, ok := strings.CutSuffix(name, ".json"); ok {
			keys = append(keys, key)
		}
	}
	natsort.Sort(keys)
	for _, key := range keys {
		data, err := s.store.Get(ctx, datagraph.EnvelopeLocation(parentLoc, key))
		if err != nil {
			return err
		}
		env, err := loomapi.ParseNodeEnvelope(data)
		if err != nil {
			return err
		}
		loc, err := s.locate(parentLoc, key, env)
		if err != nil {
			return err
		}
		rec := &loomapi.GraphRecord{
			Id:       loomapi.GraphNodeID(uuid.NewString()),
			Kind:     env.Kind,
			Label:    env.Label,
			Key:      key,
			Location: loc,
			Children: []loomapi.GraphNodeID{},
			Content:  env.Content,
		}
		if parent != nil {
			pid := parent.Id
			rec.Parent = &pid
			parent.Children = append(parent.Children, rec.Id)
		}
		if err := s.idx.add(rec); err != nil {
			return err
		}
		log.Debug("graph", "indexed node: key = %s, location = %s", key, loc)
		if err := s.children(ctx, loc, rec); err != nil {
			return err
		}
	}
	return nil
}

// locate computes a discovered node's location through its kind, falling
// back to the default layout for unknown kinds when scanning lax.
func (s *scanner) locate(parentLoc loomapi.Location, key string, env *loomapi.NodeEnvelope) (loomapi.Location, error) {
	node, err := s.registry.FromEnvelope(datagraph.NodeConfig{
		Parent:   parentLoc,
		Key:      key,
		Envelope: env,
		Store:    s.store,
	})
	if err != nil {
		if s.lax && serum.Code(err) == loomapi.ECodeKind {
			return parentLoc.Join(key), nil
		}
		return "", err
	}
	return node.Location()
}

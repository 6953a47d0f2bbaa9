package datagraph

import (
	"context"
	"iter"

	"github.com/warptools/loom/loomapi"
)

// File is a one-axis node whose payload is an ordered element sequence,
// loaded lazily through its source and unloaded on request.
//
// A File exclusively owns its in-memory element cache.  It is not
// synchronized; share across goroutines only after loading.
type File[P any] struct {
	kind     *Kind
	parent   loomapi.Location
	label    loomapi.Label
	metadata loomapi.Metadata
	key      string
	store    EnvelopeStore
	source   Source[P]

	elems   []P
	loaded  bool
	content *loomapi.ContentCID
}

var _ StoredNode = (*File[int])(nil)

// NewFile constructs an unloaded file node.  The element sequence is fetched
// through the source on first access.
func NewFile[P any](k *Kind, parent loomapi.Location, md loomapi.Metadata, store EnvelopeStore, src Source[P]) *File[P] {
	return &File[P]{
		kind:     k,
		parent:   parent,
		label:    k.Label,
		metadata: md,
		key:      k.key(md),
		store:    store,
		source:   src,
	}
}

// FileKind builds a Kind whose nodes are File[P] values backed by the given
// source.  This is the usual way collaborators register file-shaped kinds.
func FileKind[P any](id loomapi.KindID, name string, label loomapi.Label, src Source[P]) *Kind {
	k := &Kind{ID: id, Name: name, Label: label}
	k.New = func(cfg NodeConfig) (StoredNode, error) {
		f := NewFile[P](cfg.Kind, cfg.Parent, cfg.Envelope.Metadata, cfg.Store, src)
		if cfg.Envelope.Label != "" {
			f.label = cfg.Envelope.Label
		}
		if cfg.Key != "" {
			f.key = cfg.Key
		}
		f.content = cfg.Envelope.Content
		return f, nil
	}
	return k
}

func (f *File[P]) Arity() int { return 1 }

func (f *File[P]) Axes() []Axis {
	return []Axis{{Label: f.label, Metadata: f.metadata.Clone()}}
}

// Metadata returns the node's identity metadata.
func (f *File[P]) Metadata() loomapi.Metadata { return f.metadata.Clone() }

func (f *File[P]) Key() string { return f.key }

func (f *File[P]) Envelope() *loomapi.NodeEnvelope {
	return &loomapi.NodeEnvelope{
		Kind:     f.kind.ID,
		Label:    f.label,
		Metadata: f.metadata.Clone(),
		Content:  f.content,
	}
}

func (f *File[P]) Location() (loomapi.Location, error) {
	return f.kind.locate(f.parent, f.metadata)
}

// Load fetches the element sequence if it is not already resident.
//
// Errors:
//
//    - loom-error-missing -- when no payload exists at the node's location
//    - loom-error-io -- when reading fails
//    - loom-error-serialization -- when decoding the payload fails
//    - loom-error-invalid -- when the metadata cannot form a location
func (f *File[P]) Load(ctx context.Context) error {
	if f.loaded {
		return nil
	}
	loc, err := f.Location()
	if err != nil {
		return err
	}
	elems, err := f.source.Load(ctx, loc)
	if err != nil {
		return err
	}
	f.elems = elems
	f.loaded = true
	return nil
}

// Unload releases the in-memory element sequence.  Persisted storage is
// untouched; assigned but never saved elements are discarded.
func (f *File[P]) Unload() {
	f.elems = nil
	f.loaded = false
}

func (f *File[P]) Loaded() bool { return f.loaded }

// Assign replaces the in-memory element sequence without touching storage.
// The node becomes loaded; any previously recorded payload content ID no
// longer describes the in-memory state and is cleared until the next Save.
func (f *File[P]) Assign(elems []P) {
	f.elems = make([]P, len(elems))
	copy(f.elems, elems)
	f.loaded = true
	f.content = nil
}

// Save persists the element sequence through the source and writes the
// node's envelope under its parent.  An unloaded file is loaded first, so
// saving is always a faithful snapshot of resolvable state.
//
// Errors:
//
//    - loom-error-missing -- when saving an unloaded file whose location has no payload
//    - loom-error-io -- when writing fails
//    - loom-error-serialization -- when encoding the payload or envelope fails
//    - loom-error-invalid -- when the metadata cannot form a location
func (f *File[P]) Save(ctx context.Context) error {
	loc, err := f.Location()
	if err != nil {
		return err
	}
	if !f.loaded {
		if err := f.Load(ctx); err != nil {
			return err
		}
	}
	cid, err := f.source.Save(ctx, loc, f.elems)
	if err != nil {
		return err
	}
	f.content = &cid
	data, err := loomapi.SerializeNodeEnvelope(f.Envelope())
	if err != nil {
		return err
	}
	if _, err := f.store.Put(ctx, EnvelopeLocation(f.parent, f.key), data); err != nil {
		return err
	}
	return nil
}

// At returns the element at one position.
// Negative positions count back from the end.
//
// Errors:
//
//    - loom-error-index-range -- when the position is outside the sequence
//    - loom-error-missing -- when no payload exists at the node's location
//    - loom-error-io -- when reading fails
//    - loom-error-serialization -- when decoding the payload fails
func (f *File[P]) At(ctx context.Context, i int) (P, error) {
	var zero P
	if err := f.Load(ctx); err != nil {
		return zero, err
	}
	p, err := normalizePos(i, len(f.elems), f.label)
	if err != nil {
		return zero, err
	}
	return f.elems[p], nil
}

// Slice enumerates elements in the half-open window [lo, hi), clipped to the
// available bounds.  The seq is restartable.
//
// Errors: same as Load.
func (f *File[P]) Slice(ctx context.Context, lo, hi int) (iter.Seq[P], error) {
	if err := f.Load(ctx); err != nil {
		return nil, err
	}
	w, err := Range(lo, hi).resolve(len(f.elems), f.label)
	if err != nil {
		return nil, err
	}
	return func(yield func(P) bool) {
		for i := w.lo; i < w.hi; i++ {
			if !yield(f.elems[i]) {
				return
			}
		}
	}, nil
}

// Elems enumerates the entire element sequence.  The seq is restartable.
//
// Errors: same as Load.
func (f *File[P]) Elems(ctx context.Context) (iter.Seq[P], error) {
	if err := f.Load(ctx); err != nil {
		return nil, err
	}
	return f.Slice(ctx, 0, len(f.elems))
}

func (f *File[P]) ensure(ctx context.Context) error { return f.Load(ctx) }
func (f *File[P]) axisLengths() []int               { return []int{len(f.elems)} }
func (f *File[P]) axisValue(_, pos int) any         { return f.elems[pos] }
func (f *File[P]) sparseCoords() [][]int            { return nil }

func (f *File[P]) Len(ctx context.Context) (int, error) { return lenOf(ctx, f) }

func (f *File[P]) AxisLen(ctx context.Context, axis int) (int, error) {
	return axisLenOf(ctx, f, axis)
}

func (f *File[P]) Cell(ctx context.Context, coord ...int) (Row, error) {
	return cellOf(ctx, f, coord)
}

func (f *File[P]) Select(ctx context.Context, sels ...Selector) (iter.Seq2[[]int, Row], error) {
	return selectOf(ctx, f, sels)
}

func (f *File[P]) Project(ctx context.Context, sel Selector, axis int) (iter.Seq[any], error) {
	return projectOf(ctx, f, sel, axis)
}

func (f *File[P]) ProjectAt(ctx context.Context, position, axis int) (any, error) {
	return projectAtOf(ctx, f, position, axis)
}

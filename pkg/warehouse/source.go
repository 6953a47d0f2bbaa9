package warehouse

import (
	"context"
	"reflect"

	"github.com/polydawn/refmt"
	rfmtjson "github.com/polydawn/refmt/json"
	"github.com/polydawn/refmt/obj/atlas"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
)

// JSONSource reads and writes a file node's element sequence as a JSON array
// in a single store document.
//
// Element types may be any JSON-shaped Go value: primitives, strings, maps,
// slices, and structs.  Struct types serialize by exported field name via an
// autogenerated refmt atlas.
type JSONSource[P any] struct {
	Store Store
}

var _ datagraph.Source[int] = (*JSONSource[int])(nil)

// NewJSONSource pairs the JSON element codec with a store.
func NewJSONSource[P any](store Store) *JSONSource[P] {
	return &JSONSource[P]{Store: store}
}

func (s *JSONSource[P]) Load(ctx context.Context, loc loomapi.Location) ([]P, error) {
	data, err := s.Store.Get(ctx, loc)
	if err != nil {
		return nil, err
	}
	var elems []P
	if err := refmt.UnmarshalAtlased(rfmtjson.DecodeOptions{}, data, &elems, payloadAtlas[P]()); err != nil {
		return nil, loomapi.ErrorSerialization("failed to decode payload", err)
	}
	return elems, nil
}

func (s *JSONSource[P]) Save(ctx context.Context, loc loomapi.Location, elems []P) (loomapi.ContentCID, error) {
	if elems == nil {
		elems = []P{}
	}
	data, err := refmt.MarshalAtlased(rfmtjson.EncodeOptions{}, elems, payloadAtlas[P]())
	if err != nil {
		return "", loomapi.ErrorSerialization("failed to encode payload", err)
	}
	return s.Store.Put(ctx, loc, data)
}

// payloadAtlas autogenerates atlas entries for every struct type reachable
// from the element type.  The codec's wildcard machinery covers everything
// else without entries.
func payloadAtlas[P any]() atlas.Atlas {
	var entries []*atlas.AtlasEntry
	seen := map[reflect.Type]bool{}
	var walk func(rt reflect.Type)
	walk = func(rt reflect.Type) {
		switch rt.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Array:
			walk(rt.Elem())
		case reflect.Map:
			walk(rt.Key())
			walk(rt.Elem())
		case reflect.Struct:
			if seen[rt] {
				return
			}
			seen[rt] = true
			entries = append(entries, atlas.BuildEntry(reflect.New(rt).Elem().Interface()).
				StructMap().Autogenerate().Complete())
			for i := 0; i < rt.NumField(); i++ {
				walk(rt.Field(i).Type)
			}
		}
	}
	walk(reflect.TypeOf((*P)(nil)).Elem())
	return atlas.MustBuild(entries...)
}

// CopyDoc copies one document between stores, returning the content ID the
// destination reports.
//
// Errors:
//
//    - loom-error-missing -- when the source document does not exist
//    - loom-error-io -- when reading or writing fails
func CopyDoc(ctx context.Context, dst, src Store, loc loomapi.Location) (loomapi.ContentCID, error) {
	data, err := src.Get(ctx, loc)
	if err != nil {
		return "", err
	}
	return dst.Put(ctx, loc, data)
}

// CopyTree copies every document under a prefix between stores, recursing
// through nested prefixes.  Documents are visited in the source store's
// order.
//
// Errors:
//
//    - loom-error-missing -- when the prefix does not exist in the source
//    - loom-error-io -- when reading or writing fails
func CopyTree(ctx context.Context, dst, src Store, prefix loomapi.Location) error {
	names, err := src.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := CopyDoc(ctx, dst, src, prefix.Join(name)); err != nil {
			return err
		}
	}
	subs, err := src.Prefixes(ctx, prefix)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := CopyTree(ctx, dst, src, prefix.Join(sub)); err != nil {
			return err
		}
	}
	return nil
}

// WalkDocs visits every document location under a prefix, depth-first, in
// the store's native order.
//
// Errors:
//
//    - loom-error-missing -- when the prefix does not exist
//    - loom-error-io -- when listing fails
//    - any error returned by the visit function
func WalkDocs(ctx context.Context, store Store, prefix loomapi.Location, visit func(loc loomapi.Location) error) error {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := visit(prefix.Join(name)); err != nil {
			return err
		}
	}
	subs, err := store.Prefixes(ctx, prefix)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := WalkDocs(ctx, store, prefix.Join(sub), visit); err != nil {
			return err
		}
	}
	return nil
}

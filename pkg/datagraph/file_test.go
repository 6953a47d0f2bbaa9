package datagraph_test

import (
	"context"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/warehouse"
)

const (
	testFileKindID = loomapi.KindID("a8f4e3d0-0000-4000-8000-000000000001")
	testCollKindID = loomapi.KindID("a8f4e3d0-0000-4000-8000-000000000002")
)

// newTestFile builds an int file over a fresh memory store.
func newTestFile(t *testing.T, md loomapi.Metadata) (*datagraph.File[int], *warehouse.MemStore) {
	t.Helper()
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	kind := datagraph.FileKind[int](testFileKindID, "sample", "sample", src)
	return datagraph.NewFile[int](kind, "data", md, store, src), store
}

func TestFileSaveLoadRoundTrip(t *testing.T) {
	bolt, err := warehouse.OpenBolt(filepath.Join(t.TempDir(), "loom.db"))
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { bolt.Close() })
	stores := map[string]warehouse.Store{
		"mem":  warehouse.NewMemStore(),
		"fs":   warehouse.DirStore(t.TempDir()),
		"bolt": bolt,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			md := loomapi.NewMetadata(map[string]string{"trial": "1"})
			src := warehouse.NewJSONSource[int](store)
			kind := datagraph.FileKind[int](testFileKindID, "sample", "sample", src)
			f := datagraph.NewFile[int](kind, "data", md, store, src)

			f.Assign([]int{10, 20, 30})
			qt.Assert(t, f.Save(ctx), qt.IsNil)

			// a fresh handle must reproduce the saved sequence from storage
			src2 := warehouse.NewJSONSource[int](store)
			kind2 := datagraph.FileKind[int](testFileKindID, "sample", "sample", src2)
			f2 := datagraph.NewFile[int](kind2, "data", md, store, src2)
			qt.Check(t, f2.Loaded(), qt.IsFalse)

			elems, err := f2.Elems(ctx)
			qt.Assert(t, err, qt.IsNil)
			var got []int
			for e := range elems {
				got = append(got, e)
			}
			qt.Check(t, got, qt.DeepEquals, []int{10, 20, 30})
			qt.Check(t, f2.Loaded(), qt.IsTrue)

			n, err := f2.Len(ctx)
			qt.Assert(t, err, qt.IsNil)
			qt.Check(t, n, qt.Equals, 3)
		})
	}
}

func TestFileLoadMissing(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFile(t, loomapi.NewMetadata(map[string]string{"trial": "9"}))
	err := f.Load(ctx)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)

	// access paths propagate the same failure
	_, err = f.At(ctx, 0)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)
}

func TestFileAt(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFile(t, loomapi.NewMetadata(nil))
	f.Assign([]int{10, 20, 30})

	v, err := f.At(ctx, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, v, qt.Equals, 10)

	v, err = f.At(ctx, -1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, v, qt.Equals, 30)

	_, err = f.At(ctx, 3)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexRange)
	_, err = f.At(ctx, -4)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexRange)
}

func TestFileSliceClipsAndRestarts(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFile(t, loomapi.NewMetadata(nil))
	f.Assign([]int{10, 20, 30})

	collect := func(lo, hi int) []int {
		seq, err := f.Slice(ctx, lo, hi)
		qt.Assert(t, err, qt.IsNil)
		var out []int
		for e := range seq {
			out = append(out, e)
		}
		return out
	}
	qt.Check(t, collect(1, 99), qt.DeepEquals, []int{20, 30})
	qt.Check(t, collect(-5, 2), qt.DeepEquals, []int{10, 20})
	qt.Check(t, collect(2, 1), qt.IsNil)

	seq, err := f.Slice(ctx, 0, 3)
	qt.Assert(t, err, qt.IsNil)
	first := []int{}
	for e := range seq {
		first = append(first, e)
	}
	second := []int{}
	for e := range seq {
		second = append(second, e)
	}
	qt.Check(t, second, qt.DeepEquals, first)
}

func TestFileIndexSliceConsistency(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFile(t, loomapi.NewMetadata(nil))
	f.Assign([]int{4, 8, 15, 16, 23, 42})

	seq, err := f.Elems(ctx)
	qt.Assert(t, err, qt.IsNil)
	var all []int
	for e := range seq {
		all = append(all, e)
	}
	for p := range all {
		v, err := f.At(ctx, p)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, v, qt.Equals, all[p])
	}
}

func TestFileUnloadReload(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFile(t, loomapi.NewMetadata(map[string]string{"trial": "2"}))
	f.Assign([]int{7, 11})
	qt.Assert(t, f.Save(ctx), qt.IsNil)

	f.Unload()
	qt.Check(t, f.Loaded(), qt.IsFalse)

	v, err := f.At(ctx, 1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, v, qt.Equals, 11)
	qt.Check(t, f.Loaded(), qt.IsTrue)
}

func TestFileAsNode(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFile(t, loomapi.NewMetadata(nil))
	f.Assign([]int{10, 20, 30})

	qt.Check(t, f.Arity(), qt.Equals, 1)
	axes := f.Axes()
	qt.Assert(t, axes, qt.HasLen, 1)
	qt.Check(t, axes[0].Label, qt.Equals, loomapi.Label("sample"))

	row, err := f.Cell(ctx, 1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{20})

	_, err = f.Cell(ctx, 0, 0)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexArity)

	rows, err := f.Select(ctx, datagraph.All())
	qt.Assert(t, err, qt.IsNil)
	var coords [][]int
	var values []int
	for coord, row := range rows {
		coords = append(coords, coord)
		values = append(values, row[0].(int))
	}
	qt.Check(t, coords, qt.DeepEquals, [][]int{{0}, {1}, {2}})
	qt.Check(t, values, qt.DeepEquals, []int{10, 20, 30})

	v, err := f.ProjectAt(ctx, -1, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, v, qt.Equals, 30)

	_, err = f.ProjectAt(ctx, 0, 1)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexAxis)

	n, err := f.AxisLen(ctx, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, n, qt.Equals, 3)
}

func TestFileEnvelope(t *testing.T) {
	ctx := context.Background()
	md := loomapi.NewMetadata(map[string]string{"trial": "3"})
	f, store := newTestFile(t, md)
	f.Assign([]int{1})
	qt.Assert(t, f.Save(ctx), qt.IsNil)

	env := f.Envelope()
	qt.Check(t, env.Kind, qt.Equals, testFileKindID)
	qt.Check(t, env.Label, qt.Equals, loomapi.Label("sample"))
	qt.Check(t, env.Metadata.Equal(md), qt.IsTrue)
	qt.Assert(t, env.Content, qt.IsNotNil)

	// the envelope document is discoverable under the parent
	data, err := store.Get(ctx, datagraph.EnvelopeLocation("data", f.Key()))
	qt.Assert(t, err, qt.IsNil)
	parsed, err := loomapi.ParseNodeEnvelope(data)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, parsed.Kind, qt.Equals, testFileKindID)
	qt.Check(t, *parsed.Content, qt.Equals, *env.Content)
}

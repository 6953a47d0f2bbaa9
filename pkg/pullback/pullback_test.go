package pullback_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/pullback"
	"github.com/warptools/loom/pkg/warehouse"
)

const kindID = loomapi.KindID("b2c7a1e0-0000-4000-8000-000000000001")

func intFile(label string, elems ...int) *datagraph.File[int] {
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	kind := datagraph.FileKind[int](kindID, label, loomapi.Label(label), src)
	f := datagraph.NewFile[int](kind, "data", loomapi.NewMetadata(map[string]string{"axis": label}), store, src)
	f.Assign(elems)
	return f
}

func coordsOf(t *testing.T, n datagraph.Node) [][]int {
	t.Helper()
	sels := make([]datagraph.Selector, n.Arity())
	rows, err := n.Select(context.Background(), sels...)
	qt.Assert(t, err, qt.IsNil)
	var coords [][]int
	for coord := range rows {
		coords = append(coords, coord)
	}
	return coords
}

func TestJoinIdentity(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 10, 20, 30)
	b := intFile("b", 20, 30, 40)

	n, err := pullback.Join(a, b, pullback.Identity, pullback.Identity)
	qt.Assert(t, err, qt.IsNil)

	total, err := n.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, total, qt.Equals, 2)
	qt.Check(t, coordsOf(t, n), qt.DeepEquals, [][]int{{1, 0}, {2, 1}})

	row, err := n.Cell(ctx, 1, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{20, 20})

	// within bounds, but not part of the join
	_, err = n.Cell(ctx, 0, 0)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)
	// outside bounds entirely
	_, err = n.Cell(ctx, 3, 0)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexRange)
}

func TestJoinIsLazy(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 1)
	b := intFile("b", 1)
	a.Unload()
	b.Unload()

	calls := 0
	n, err := pullback.Join(a, b,
		func(row datagraph.Row) (any, error) { calls++; return row[0], nil },
		pullback.Identity)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, calls, qt.Equals, 0)
	qt.Check(t, a.Loaded(), qt.IsFalse)

	_, err = n.Len(ctx)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)
}

func TestJoinCachesAndRederives(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 1, 2)
	b := intFile("b", 2, 3)

	computations := 0
	n, err := pullback.Join(a, b,
		func(row datagraph.Row) (any, error) {
			if row[0].(int) == 1 {
				computations++
			}
			return row[0], nil
		},
		pullback.Identity)
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, n.Load(ctx), qt.IsNil)
	qt.Assert(t, n.Load(ctx), qt.IsNil)
	first := coordsOf(t, n)
	qt.Check(t, computations, qt.Equals, 1)

	n.Unload()
	qt.Check(t, n.Loaded(), qt.IsFalse)
	second := coordsOf(t, n)
	qt.Check(t, second, qt.DeepEquals, first)
	qt.Check(t, computations, qt.Equals, 2)
}

func TestJoinAxisConcatenation(t *testing.T) {
	a := intFile("subject", 1)
	b := intFile("session", 2)
	n, err := pullback.Join(a, b, pullback.Identity, pullback.Identity)
	qt.Assert(t, err, qt.IsNil)

	axes := n.Axes()
	qt.Assert(t, axes, qt.HasLen, 2)
	want := []datagraph.Axis{a.Axes()[0], b.Axes()[0]}
	for i := range axes {
		qt.Check(t, axes[i].Label, qt.Equals, want[i].Label)
		qt.Check(t, axes[i].Metadata.Equal(want[i].Metadata), qt.IsTrue)
	}
}

func TestJoinDuplicateLabels(t *testing.T) {
	_, err := pullback.Join(intFile("a", 1), intFile("a", 1), pullback.Identity, pullback.Identity)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}

func TestJoinManyToMany(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 5, 5)
	b := intFile("b", 5, 5, 5)

	n, err := pullback.Join(a, b, pullback.Identity, pullback.Identity)
	qt.Assert(t, err, qt.IsNil)
	total, err := n.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, total, qt.Equals, 6)
	qt.Check(t, coordsOf(t, n), qt.DeepEquals, [][]int{
		{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2},
	})
}

func TestJoinIncomparableKeys(t *testing.T) {
	ctx := context.Background()
	n, err := pullback.Join(intFile("a", 1), intFile("b", 2),
		pullback.Identity,
		func(row datagraph.Row) (any, error) { return []int{row[0].(int)}, nil })
	qt.Assert(t, err, qt.IsNil)

	err = n.Load(ctx)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeKeyIncomparable)
}

func TestMatchPredicate(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 1, 3)
	b := intFile("b", 2, 4)

	n, err := pullback.Match(a, b, func(ra, rb datagraph.Row) (bool, error) {
		return ra[0].(int) < rb[0].(int), nil
	})
	qt.Assert(t, err, qt.IsNil)

	total, err := n.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, total, qt.Equals, 3)
	qt.Check(t, coordsOf(t, n), qt.DeepEquals, [][]int{{0, 0}, {0, 1}, {1, 1}})
}

func TestChainedJoinConcatenatesLeftToRight(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 1, 2)
	b := intFile("b", 2, 3)
	c := intFile("c", 2, 9)

	ab, err := pullback.Join(a, b, pullback.Identity, pullback.Identity)
	qt.Assert(t, err, qt.IsNil)
	abc, err := pullback.Join(ab, c,
		func(row datagraph.Row) (any, error) { return row[0], nil },
		pullback.Identity)
	qt.Assert(t, err, qt.IsNil)

	var labels []loomapi.Label
	for _, ax := range abc.Axes() {
		labels = append(labels, ax.Label)
	}
	qt.Check(t, labels, qt.DeepEquals, []loomapi.Label{"a", "b", "c"})

	// a=2 joins b=2, then (2,_) joins c=2
	qt.Check(t, coordsOf(t, abc), qt.DeepEquals, [][]int{{1, 0, 0}})
	row, err := abc.Cell(ctx, 1, 0, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{2, 2, 2})
}

func TestJoin2(t *testing.T) {
	ctx := context.Background()
	a := intFile("a", 10, 20, 30)
	b := intFile("b", 20, 30, 40)

	v, err := pullback.Join2(ctx, a, b,
		func(x int) int { return x },
		func(y int) int { return y })
	qt.Assert(t, err, qt.IsNil)

	x, y, err := v.At(ctx, 1, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, x, qt.Equals, 20)
	qt.Check(t, y, qt.Equals, 20)

	rows, err := v.Rows(ctx)
	qt.Assert(t, err, qt.IsNil)
	var pairs [][2]int
	for a, b := range rows {
		pairs = append(pairs, [2]int{a, b})
	}
	qt.Check(t, pairs, qt.DeepEquals, [][2]int{{20, 20}, {30, 30}})
}

func TestMatch2(t *testing.T) {
	ctx := context.Background()
	v, err := pullback.Match2(ctx, intFile("a", 1, 3), intFile("b", 2, 4),
		func(x, y int) bool { return x < y })
	qt.Assert(t, err, qt.IsNil)

	rows, err := v.Rows(ctx)
	qt.Assert(t, err, qt.IsNil)
	var pairs [][2]int
	for a, b := range rows {
		pairs = append(pairs, [2]int{a, b})
	}
	qt.Check(t, pairs, qt.DeepEquals, [][2]int{{1, 2}, {1, 4}, {3, 4}})
}

func TestIdentityRejectsWideRows(t *testing.T) {
	_, err := pullback.Identity(datagraph.Row{1, 2})
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}

package datagraph_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/warehouse"
)

// assignedFile builds an in-memory int file with the given axis label.
func assignedFile(label string, elems ...int) *datagraph.File[int] {
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	kind := datagraph.FileKind[int](testFileKindID, label, loomapi.Label(label), src)
	f := datagraph.NewFile[int](kind, "data", loomapi.NewMetadata(map[string]string{"axis": label}), store, src)
	f.Assign(elems)
	return f
}

func TestProductRowMajor(t *testing.T) {
	ctx := context.Background()
	a := assignedFile("a", 1, 2)
	b := assignedFile("b", 10, 20, 30)

	n, err := datagraph.Product(a, b)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, n.Arity(), qt.Equals, 2)

	total, err := n.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, total, qt.Equals, 6)

	rows, err := n.Select(ctx, datagraph.All(), datagraph.All())
	qt.Assert(t, err, qt.IsNil)
	var coords [][]int
	var values [][2]int
	for coord, row := range rows {
		coords = append(coords, coord)
		values = append(values, [2]int{row[0].(int), row[1].(int)})
	}
	qt.Check(t, coords, qt.DeepEquals, [][]int{
		{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2},
	})
	qt.Check(t, values, qt.DeepEquals, [][2]int{
		{1, 10}, {1, 20}, {1, 30}, {2, 10}, {2, 20}, {2, 30},
	})

	row, err := n.Cell(ctx, 1, 2)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{2, 30})

	row, err = n.Cell(ctx, -1, -1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{2, 30})
}

func TestProductArityContract(t *testing.T) {
	ctx := context.Background()
	n, err := datagraph.Product(assignedFile("a", 1), assignedFile("b", 2))
	qt.Assert(t, err, qt.IsNil)

	_, err = n.Cell(ctx, 0)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexArity)
	_, err = n.Cell(ctx, 0, 0, 0)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexArity)
	_, err = n.Select(ctx, datagraph.All())
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexArity)
}

func TestProductProjection(t *testing.T) {
	ctx := context.Background()
	n, err := datagraph.Product(assignedFile("a", 1, 2), assignedFile("b", 10, 20, 30))
	qt.Assert(t, err, qt.IsNil)

	// projecting an axis over "all" equals mapping the full enumeration
	// onto that component
	seq, err := n.Project(ctx, datagraph.All(), 0)
	qt.Assert(t, err, qt.IsNil)
	var got []int
	for v := range seq {
		got = append(got, v.(int))
	}
	qt.Check(t, got, qt.DeepEquals, []int{1, 1, 1, 2, 2, 2})

	seq, err = n.Project(ctx, datagraph.Range(1, 3), 1)
	qt.Assert(t, err, qt.IsNil)
	got = nil
	for v := range seq {
		got = append(got, v.(int))
	}
	qt.Check(t, got, qt.DeepEquals, []int{20, 30, 20, 30})

	v, err := n.ProjectAt(ctx, 1, 1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, v, qt.Equals, 20)

	_, err = n.Project(ctx, datagraph.All(), 2)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexAxis)
	_, err = n.Project(ctx, datagraph.All(), -1)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexAxis)
}

func TestProductDuplicateLabels(t *testing.T) {
	_, err := datagraph.Product(assignedFile("a", 1), assignedFile("a", 2))
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}

func TestLift(t *testing.T) {
	ctx := context.Background()
	f := assignedFile("a", 5, 6)
	n, err := datagraph.Lift(f)
	qt.Assert(t, err, qt.IsNil)

	qt.Check(t, n.Arity(), qt.Equals, 1)
	qt.Check(t, n.Axes()[0].Label, qt.Equals, loomapi.Label("a"))

	row, err := n.Cell(ctx, 1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{6})

	// the view shares state with the underlying file
	qt.Check(t, f.Loaded(), qt.IsTrue)
}

func TestThreeAxisProduct(t *testing.T) {
	ctx := context.Background()
	inner, err := datagraph.Product(assignedFile("a", 1, 2), assignedFile("b", 3, 4))
	qt.Assert(t, err, qt.IsNil)
	n, err := datagraph.Product(inner, assignedFile("c", 5, 6))
	qt.Assert(t, err, qt.IsNil)

	qt.Check(t, n.Arity(), qt.Equals, 3)
	total, err := n.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, total, qt.Equals, 8)

	row, err := n.Cell(ctx, 1, 0, 1)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, row, qt.DeepEquals, datagraph.Row{2, 3, 6})

	v, err := datagraph.AsView3[int, int, int](ctx, n)
	qt.Assert(t, err, qt.IsNil)
	tup, err := v.At(ctx, 0, 1, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, tup, qt.Equals, datagraph.Tuple3[int, int, int]{V1: 1, V2: 4, V3: 5})
}

func TestView2(t *testing.T) {
	ctx := context.Background()
	n, err := datagraph.Product(assignedFile("a", 1, 2), assignedFile("b", 10))
	qt.Assert(t, err, qt.IsNil)

	v, err := datagraph.AsView2[int, int](ctx, n)
	qt.Assert(t, err, qt.IsNil)
	x, y, err := v.At(ctx, 1, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, x, qt.Equals, 2)
	qt.Check(t, y, qt.Equals, 10)

	rows, err := v.Rows(ctx)
	qt.Assert(t, err, qt.IsNil)
	var pairs [][2]int
	for a, b := range rows {
		pairs = append(pairs, [2]int{a, b})
	}
	qt.Check(t, pairs, qt.DeepEquals, [][2]int{{1, 10}, {2, 10}})
}

func TestView2TypeMismatch(t *testing.T) {
	ctx := context.Background()
	n, err := datagraph.Product(assignedFile("a", 1), assignedFile("b", 2))
	qt.Assert(t, err, qt.IsNil)

	_, err = datagraph.AsView2[string, string](ctx, n)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)

	_, err = datagraph.AsView2[int, int](ctx, assignedFile("c", 1))
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeIndexArity)
}

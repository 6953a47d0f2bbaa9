package datagraph

import (
	"context"
	"iter"

	"github.com/warptools/loom/loomapi"
)

// ExtentFunc computes the coordinate extent of a derived node.
// The returned coordinates must lie within the concatenated axis bounds and
// be sorted with later axes varying fastest.
type ExtentFunc func(ctx context.Context) ([][]int, error)

// NDNode is a derived node over one or two operand nodes.  Its axes are the
// ordered concatenation of the operands' axes and its values resolve through
// the operands at access time; it owns only its coordinate extent, which it
// computes lazily and caches.
//
// The operands must outlive the derived node: unloading it drops only the
// cached extent, and the next access re-derives from the operands.
type NDNode struct {
	axes     []Axis
	operands []Node
	data     []axisData
	split    int
	compute  ExtentFunc

	coords  [][]int
	sparse  bool
	lengths []int
	loaded  bool
}

var _ Node = (*NDNode)(nil)

// Lift views any node as an NDNode.  One-axis nodes gain nothing but a
// uniform type; the view shares the underlying node's state rather than
// copying it.
//
// Errors:
//
//    - loom-error-invalid -- when the node is not from this package's node model
func Lift(n Node) (*NDNode, error) {
	d, err := assertAxisData(n)
	if err != nil {
		return nil, err
	}
	return &NDNode{
		axes:     n.Axes(),
		operands: []Node{n},
		data:     []axisData{d},
		split:    n.Arity(),
	}, nil
}

// Derive constructs a derived node over two operands whose extent is
// computed by the given function.  The resulting axes are operand a's axes
// followed by operand b's axes; all labels must be distinct.
//
// Errors:
//
//    - loom-error-invalid -- when an operand is not from this package's node
//      model, the combined axis labels are not distinct, or no extent
//      function is given
func Derive(a, b Node, extent ExtentFunc) (*NDNode, error) {
	if extent == nil {
		return nil, loomapi.ErrorInvalid("derived nodes require an extent function")
	}
	return newBinary(a, b, extent)
}

// Product constructs the full cross of two operands: every coordinate pair
// exists.  Axis rules follow Derive.
//
// Errors:
//
//    - loom-error-invalid -- when an operand is not from this package's node
//      model, or the combined axis labels are not distinct
func Product(a, b Node) (*NDNode, error) {
	return newBinary(a, b, nil)
}

func newBinary(a, b Node, extent ExtentFunc) (*NDNode, error) {
	da, err := assertAxisData(a)
	if err != nil {
		return nil, err
	}
	db, err := assertAxisData(b)
	if err != nil {
		return nil, err
	}
	axes := append(a.Axes(), b.Axes()...)
	seen := make(map[loomapi.Label]struct{}, len(axes))
	for _, ax := range axes {
		if _, dup := seen[ax.Label]; dup {
			return nil, loomapi.ErrorInvalid("axis labels must be distinct",
				[2]string{"label", string(ax.Label)})
		}
		seen[ax.Label] = struct{}{}
	}
	return &NDNode{
		axes:     axes,
		operands: []Node{a, b},
		data:     []axisData{da, db},
		split:    a.Arity(),
		compute:  extent,
	}, nil
}

func assertAxisData(n Node) (axisData, error) {
	if d, ok := n.(axisData); ok {
		return d, nil
	}
	return nil, loomapi.ErrorInvalid("unsupported node implementation")
}

func (n *NDNode) Arity() int { return len(n.axes) }

func (n *NDNode) Axes() []Axis {
	axes := make([]Axis, len(n.axes))
	copy(axes, n.axes)
	return axes
}

// Operands returns the nodes this derived node resolves through.
func (n *NDNode) Operands() []Node {
	ops := make([]Node, len(n.operands))
	copy(ops, n.operands)
	return ops
}

// Load makes the operands resident and, for join-derived nodes, computes and
// caches the coordinate extent.
//
// Errors:
//
//    - loom-error-missing -- when an operand's backing storage does not exist
//    - loom-error-io -- when loading an operand fails
//    - loom-error-key-incomparable -- when extent computation is given
//      non-comparable join keys
func (n *NDNode) Load(ctx context.Context) error { return n.ensure(ctx) }

// Unload drops the cached extent.  Operands are not owned and stay loaded;
// the next access re-derives the extent from them.
func (n *NDNode) Unload() {
	n.coords = nil
	n.sparse = false
	n.lengths = nil
	n.loaded = false
}

func (n *NDNode) Loaded() bool { return n.loaded }

func (n *NDNode) ensure(ctx context.Context) error {
	if n.loaded {
		return nil
	}
	for _, d := range n.data {
		if err := d.ensure(ctx); err != nil {
			return err
		}
	}
	switch {
	case n.compute != nil:
		coords, err := n.compute(ctx)
		if err != nil {
			return err
		}
		if coords == nil {
			coords = [][]int{}
		}
		n.coords, n.sparse = coords, true
	case len(n.operands) == 2:
		// A product stays dense unless an operand is itself sparse, in
		// which case the cross of the enumerations is materialized.
		ca, cb := n.data[0].sparseCoords(), n.data[1].sparseCoords()
		if ca != nil || cb != nil {
			n.coords, n.sparse = crossCoords(n.data[0], n.data[1]), true
		}
	}
	n.lengths = n.lengths[:0]
	for _, d := range n.data {
		n.lengths = append(n.lengths, d.axisLengths()...)
	}
	n.loaded = true
	return nil
}

func (n *NDNode) axisLengths() []int { return n.lengths }

func (n *NDNode) axisValue(axis, pos int) any {
	if axis < n.split {
		return n.data[0].axisValue(axis, pos)
	}
	return n.data[1].axisValue(axis-n.split, pos)
}

func (n *NDNode) sparseCoords() [][]int {
	if n.sparse {
		return n.coords
	}
	if len(n.operands) == 1 {
		return n.data[0].sparseCoords()
	}
	return nil
}

func crossCoords(da, db axisData) [][]int {
	ca := coordsOf(da)
	cb := coordsOf(db)
	out := make([][]int, 0, len(ca)*len(cb))
	for _, a := range ca {
		for _, b := range cb {
			coord := make([]int, 0, len(a)+len(b))
			coord = append(coord, a...)
			coord = append(coord, b...)
			out = append(out, coord)
		}
	}
	return out
}

// coordsOf enumerates an operand's coordinates, materializing the dense
// lattice for dense operands.
func coordsOf(d axisData) [][]int {
	if c := d.sparseCoords(); c != nil {
		return c
	}
	lengths := d.axisLengths()
	total := 1
	for _, l := range lengths {
		total *= l
	}
	if total == 0 {
		return [][]int{}
	}
	out := make([][]int, 0, total)
	coord := make([]int, len(lengths))
	for {
		c := make([]int, len(coord))
		copy(c, coord)
		out = append(out, c)
		a := len(coord) - 1
		for a >= 0 {
			coord[a]++
			if coord[a] < lengths[a] {
				break
			}
			coord[a] = 0
			a--
		}
		if a < 0 {
			return out
		}
	}
}

func (n *NDNode) Len(ctx context.Context) (int, error) { return lenOf(ctx, n) }

func (n *NDNode) AxisLen(ctx context.Context, axis int) (int, error) {
	return axisLenOf(ctx, n, axis)
}

func (n *NDNode) Cell(ctx context.Context, coord ...int) (Row, error) {
	return cellOf(ctx, n, coord)
}

func (n *NDNode) Select(ctx context.Context, sels ...Selector) (iter.Seq2[[]int, Row], error) {
	return selectOf(ctx, n, sels)
}

func (n *NDNode) Project(ctx context.Context, sel Selector, axis int) (iter.Seq[any], error) {
	return projectOf(ctx, n, sel, axis)
}

func (n *NDNode) ProjectAt(ctx context.Context, position, axis int) (any, error) {
	return projectAtOf(ctx, n, position, axis)
}

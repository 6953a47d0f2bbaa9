package datagraph

import (
	"context"
	"fmt"
	"iter"

	"github.com/warptools/loom/loomapi"
)

// View2 is a typed convenience over a 2-axis node.  Construction validates
// arity and probes element types once, so iteration stays unchecked.
type View2[A, B any] struct {
	node Node
}

// AsView2 wraps a 2-axis node in a typed view.  The node is loaded and, when
// non-empty, its first row is checked against the view's type arguments.
//
// Errors:
//
//    - loom-error-index-arity -- when the node is not 2-axis
//    - loom-error-invalid -- when element types do not match the view
//    - loom-error-missing, loom-error-io -- when loading the node fails
func AsView2[A, B any](ctx context.Context, n Node) (*View2[A, B], error) {
	if n.Arity() != 2 {
		return nil, loomapi.ErrorIndexArity(2, n.Arity())
	}
	if err := probeTypes(ctx, n, func(row Row) error {
		if _, ok := row[0].(A); !ok {
			return typeMismatch(0, row[0])
		}
		if _, ok := row[1].(B); !ok {
			return typeMismatch(1, row[1])
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &View2[A, B]{node: n}, nil
}

// Node returns the underlying untyped node.
func (v *View2[A, B]) Node() Node { return v.node }

// At returns the typed pair at one coordinate.
//
// Errors: same as Node.Cell.
func (v *View2[A, B]) At(ctx context.Context, i, j int) (A, B, error) {
	row, err := v.node.Cell(ctx, i, j)
	if err != nil {
		var za A
		var zb B
		return za, zb, err
	}
	return row[0].(A), row[1].(B), nil
}

// Rows enumerates all typed pairs, later axis fastest.  The seq is
// restartable.
//
// Errors: same as Node.Select.
func (v *View2[A, B]) Rows(ctx context.Context) (iter.Seq2[A, B], error) {
	rows, err := v.node.Select(ctx, All(), All())
	if err != nil {
		return nil, err
	}
	return func(yield func(A, B) bool) {
		for _, row := range rows {
			if !yield(row[0].(A), row[1].(B)) {
				return
			}
		}
	}, nil
}

// Tuple3 is one typed row of a 3-axis view.
type Tuple3[A, B, C any] struct {
	V1 A
	V2 B
	V3 C
}

// View3 is a typed convenience over a 3-axis node.
type View3[A, B, C any] struct {
	node Node
}

// AsView3 wraps a 3-axis node in a typed view.
//
// Errors:
//
//    - loom-error-index-arity -- when the node is not 3-axis
//    - loom-error-invalid -- when element types do not match the view
//    - loom-error-missing, loom-error-io -- when loading the node fails
func AsView3[A, B, C any](ctx context.Context, n Node) (*View3[A, B, C], error) {
	if n.Arity() != 3 {
		return nil, loomapi.ErrorIndexArity(3, n.Arity())
	}
	if err := probeTypes(ctx, n, func(row Row) error {
		if _, ok := row[0].(A); !ok {
			return typeMismatch(0, row[0])
		}
		if _, ok := row[1].(B); !ok {
			return typeMismatch(1, row[1])
		}
		if _, ok := row[2].(C); !ok {
			return typeMismatch(2, row[2])
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &View3[A, B, C]{node: n}, nil
}

// Node returns the underlying untyped node.
func (v *View3[A, B, C]) Node() Node { return v.node }

// At returns the typed triple at one coordinate.
//
// Errors: same as Node.Cell.
func (v *View3[A, B, C]) At(ctx context.Context, i, j, k int) (Tuple3[A, B, C], error) {
	row, err := v.node.Cell(ctx, i, j, k)
	if err != nil {
		return Tuple3[A, B, C]{}, err
	}
	return Tuple3[A, B, C]{V1: row[0].(A), V2: row[1].(B), V3: row[2].(C)}, nil
}

// Rows enumerates all typed triples, later axes fastest.  The seq is
// restartable.
//
// Errors: same as Node.Select.
func (v *View3[A, B, C]) Rows(ctx context.Context) (iter.Seq[Tuple3[A, B, C]], error) {
	rows, err := v.node.Select(ctx, All(), All(), All())
	if err != nil {
		return nil, err
	}
	return func(yield func(Tuple3[A, B, C]) bool) {
		for _, row := range rows {
			if !yield(Tuple3[A, B, C]{V1: row[0].(A), V2: row[1].(B), V3: row[2].(C)}) {
				return
			}
		}
	}, nil
}

// probeTypes checks the first enumerated row, if any, against the view's
// element types.  Axis element types are homogeneous in this model, so one
// row suffices.
func probeTypes(ctx context.Context, n Node, check func(Row) error) error {
	sels := make([]Selector, n.Arity())
	rows, err := n.Select(ctx, sels...)
	if err != nil {
		return err
	}
	for _, row := range rows {
		return check(row)
	}
	return nil
}

func typeMismatch(axis int, got any) error {
	return loomapi.ErrorInvalid("element type does not match view",
		[2]string{"axis", fmt.Sprintf("%d", axis)},
		[2]string{"elementType", fmt.Sprintf("%T", got)})
}

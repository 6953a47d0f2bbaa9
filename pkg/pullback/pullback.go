// Package pullback aligns the elements of two nodes into one derived
// higher-dimensional node, either by key equality or by an arbitrary binary
// predicate.  The result's axes are the first operand's axes followed by the
// second's, and its extent is exactly the coordinate pairs satisfying the
// join condition.
package pullback

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
)

// KeyFunc derives a join key from one element tuple.  Keys must be
// comparable; supplying non-comparable keys is reported, not ignored.
type KeyFunc func(row datagraph.Row) (any, error)

// Predicate decides whether a pair of element tuples aligns.
type Predicate func(a, b datagraph.Row) (bool, error)

// Identity is the key function for one-axis nodes whose elements are their
// own keys.
//
// Errors:
//
//    - loom-error-invalid -- when the row is not one-axis
func Identity(row datagraph.Row) (any, error) {
	if len(row) != 1 {
		return nil, loomapi.ErrorInvalid("identity key requires one-axis rows",
			[2]string{"arity", fmt.Sprintf("%d", len(row))})
	}
	return row[0], nil
}

// Join builds the key-equality pullback of two nodes: its extent holds
// exactly the coordinate pairs (i, j) with keyA(row_i) == keyB(row_j).
//
// The extent is computed lazily on first access and cached; unloading the
// result drops the cache and the next access re-derives it, so the operands
// must outlive the result.  Enumeration order is deterministic: operand a's
// order outermost, operand b's order within equal keys.
//
// Errors:
//
//    - loom-error-invalid -- when an operand is not from the node model, or
//      the combined axis labels are not distinct
func Join(a, b datagraph.Node, keyA, keyB KeyFunc) (*datagraph.NDNode, error) {
	return datagraph.Derive(a, b, func(ctx context.Context) ([][]int, error) {
		return equalityExtent(ctx, a, b, keyA, keyB)
	})
}

// Match builds the predicate pullback of two nodes: its extent holds exactly
// the coordinate pairs for which the predicate reports true.  Cost is the
// product of the operand cardinalities.
//
// Laziness and ordering follow Join.
//
// Errors: same as Join.
func Match(a, b datagraph.Node, match Predicate) (*datagraph.NDNode, error) {
	return datagraph.Derive(a, b, func(ctx context.Context) ([][]int, error) {
		return predicateExtent(ctx, a, b, match)
	})
}

// equalityExtent hash-joins the operands.  The mapping is built from operand
// b and probed with operand a, so emission follows operand a's enumeration
// order and the extent comes out already sorted later-axes-fastest.
func equalityExtent(ctx context.Context, a, b datagraph.Node, keyA, keyB KeyFunc) ([][]int, error) {
	rowsB, err := allRows(ctx, b)
	if err != nil {
		return nil, err
	}
	built := map[any][][]int{}
	for coord, row := range rowsB {
		k, err := keyB(row)
		if err != nil {
			return nil, err
		}
		if err := checkComparable(k, "second"); err != nil {
			return nil, err
		}
		built[k] = append(built[k], coord)
	}
	rowsA, err := allRows(ctx, a)
	if err != nil {
		return nil, err
	}
	var extent [][]int
	for coordA, rowA := range rowsA {
		k, err := keyA(rowA)
		if err != nil {
			return nil, err
		}
		if err := checkComparable(k, "first"); err != nil {
			return nil, err
		}
		for _, coordB := range built[k] {
			extent = append(extent, concat(coordA, coordB))
		}
	}
	return extent, nil
}

func predicateExtent(ctx context.Context, a, b datagraph.Node, match Predicate) ([][]int, error) {
	rowsA, err := allRows(ctx, a)
	if err != nil {
		return nil, err
	}
	rowsB, err := allRows(ctx, b)
	if err != nil {
		return nil, err
	}
	var extent [][]int
	for coordA, rowA := range rowsA {
		for coordB, rowB := range rowsB {
			ok, err := match(rowA, rowB)
			if err != nil {
				return nil, err
			}
			if ok {
				extent = append(extent, concat(coordA, coordB))
			}
		}
	}
	return extent, nil
}

func allRows(ctx context.Context, n datagraph.Node) (iter.Seq2[[]int, datagraph.Row], error) {
	sels := make([]datagraph.Selector, n.Arity())
	return n.Select(ctx, sels...)
}

func checkComparable(k any, operand string) error {
	if k == nil {
		return nil
	}
	if !reflect.TypeOf(k).Comparable() {
		return loomapi.ErrorKeyIncomparable(operand, fmt.Sprintf("%T", k))
	}
	return nil
}

func concat(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

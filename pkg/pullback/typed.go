package pullback

import (
	"context"
	"fmt"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
)

// KeyOf adapts a typed key function on one-axis element values into the
// untyped KeyFunc form.
//
// Errors:
//
//    - loom-error-invalid -- when a row is not one-axis or its element is not an A
func KeyOf[A any, K comparable](key func(A) K) KeyFunc {
	return func(row datagraph.Row) (any, error) {
		v, err := Identity(row)
		if err != nil {
			return nil, err
		}
		a, ok := v.(A)
		if !ok {
			return nil, loomapi.ErrorInvalid("element type does not match key function",
				[2]string{"elementType", fmt.Sprintf("%T", v)})
		}
		return key(a), nil
	}
}

// Join2 is the typed two-file form of Join.  The result is wrapped in a
// typed view, which loads both operands and computes the extent eagerly.
//
// Errors: same as Join, plus the loading errors of both operands.
func Join2[A, B any, K comparable](ctx context.Context, fa *datagraph.File[A], fb *datagraph.File[B], keyA func(A) K, keyB func(B) K) (*datagraph.View2[A, B], error) {
	n, err := Join(fa, fb, KeyOf(keyA), KeyOf(keyB))
	if err != nil {
		return nil, err
	}
	return datagraph.AsView2[A, B](ctx, n)
}

// Match2 is the typed two-file form of Match.
//
// Errors: same as Match, plus the loading errors of both operands.
func Match2[A, B any](ctx context.Context, fa *datagraph.File[A], fb *datagraph.File[B], match func(A, B) bool) (*datagraph.View2[A, B], error) {
	n, err := Match(fa, fb, func(a, b datagraph.Row) (bool, error) {
		return match(a[0].(A), b[0].(B)), nil
	})
	if err != nil {
		return nil, err
	}
	return datagraph.AsView2[A, B](ctx, n)
}

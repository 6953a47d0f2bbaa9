package datagraph

import (
	"context"
	"iter"
	"sort"

	"github.com/warptools/loom/loomapi"
)

type selectorKind uint8

const (
	selAll selectorKind = iota
	selIndex
	selRange
)

// Selector picks positions along one axis.  Construct with Index, Range, or
// All; the zero value selects everything.
type Selector struct {
	kind selectorKind
	at   int
	lo   int
	hi   int
}

// Index selects the single position i.
// Negative values count back from the end of the axis.
func Index(i int) Selector {
	return Selector{kind: selIndex, at: i}
}

// Range selects the half-open position window [lo, hi).
// Windows are clipped to the axis bounds; an empty or inverted window selects
// nothing rather than erroring.
func Range(lo, hi int) Selector {
	return Selector{kind: selRange, lo: lo, hi: hi}
}

// All selects every position along the axis.
func All() Selector {
	return Selector{kind: selAll}
}

// IsIndex reports whether the selector picks exactly one position.
func (s Selector) IsIndex() bool {
	return s.kind == selIndex
}

// window is a resolved selector: a half-open position range along one axis.
type window struct {
	lo, hi int
}

func (w window) contains(p int) bool { return p >= w.lo && p < w.hi }
func (w window) size() int           { return w.hi - w.lo }

// resolve normalizes a selector against an axis of the given length.
//
// Errors:
//
//    - loom-error-index-range -- when a single-position selector is outside the axis
func (s Selector) resolve(length int, axis loomapi.Label) (window, error) {
	switch s.kind {
	case selIndex:
		p, err := normalizePos(s.at, length, axis)
		if err != nil {
			return window{}, err
		}
		return window{lo: p, hi: p + 1}, nil
	case selRange:
		lo, hi := s.lo, s.hi
		if lo < 0 {
			lo = 0
		}
		if lo > length {
			lo = length
		}
		if hi > length {
			hi = length
		}
		if hi < lo {
			hi = lo
		}
		return window{lo: lo, hi: hi}, nil
	default:
		return window{lo: 0, hi: length}, nil
	}
}

// normalizePos maps a possibly-negative position onto [0, length).
//
// Errors:
//
//    - loom-error-index-range -- when the position is outside the axis
func normalizePos(p, length int, axis loomapi.Label) (int, error) {
	q := p
	if q < 0 {
		q += length
	}
	if q < 0 || q >= length {
		return 0, loomapi.ErrorIndexRange(p, length, axis)
	}
	return q, nil
}

// axisData is the internal resolution surface the indexing engine runs on.
// Every node kind implements it; the engine derives the whole Indexable
// contract from these four methods.
type axisData interface {
	// ensure makes element data resident; it must be idempotent.
	ensure(ctx context.Context) error
	// axisLengths reports per-axis element counts.  Valid only after ensure.
	axisLengths() []int
	// axisValue resolves the element at one position along one axis.
	// Both arguments are already normalized.  Valid only after ensure.
	axisValue(axis, pos int) any
	// sparseCoords returns the ordered coordinate extent for nodes whose
	// enumeration is not the dense product of their axes, or nil for dense
	// nodes.  Coordinates are sorted with later axes varying fastest.
	// Valid only after ensure.
	sparseCoords() [][]int
}

// engineNode is what the engine needs from a node: identity plus resolution.
type engineNode interface {
	Identified
	axisData
}

func lenOf(ctx context.Context, n engineNode) (int, error) {
	if err := n.ensure(ctx); err != nil {
		return 0, err
	}
	if coords := n.sparseCoords(); coords != nil {
		return len(coords), nil
	}
	total := 1
	for _, l := range n.axisLengths() {
		total *= l
	}
	return total, nil
}

func axisLenOf(ctx context.Context, n engineNode, axis int) (int, error) {
	if axis < 0 || axis >= n.Arity() {
		return 0, loomapi.ErrorIndexAxis(axis, n.Arity())
	}
	if err := n.ensure(ctx); err != nil {
		return 0, err
	}
	return n.axisLengths()[axis], nil
}

func cellOf(ctx context.Context, n engineNode, coord []int) (Row, error) {
	if len(coord) != n.Arity() {
		return nil, loomapi.ErrorIndexArity(len(coord), n.Arity())
	}
	if err := n.ensure(ctx); err != nil {
		return nil, err
	}
	lengths := n.axisLengths()
	axes := n.Axes()
	norm := make([]int, len(coord))
	for a, p := range coord {
		q, err := normalizePos(p, lengths[a], axes[a].Label)
		if err != nil {
			return nil, err
		}
		norm[a] = q
	}
	if coords := n.sparseCoords(); coords != nil {
		if !extentContains(coords, norm) {
			return nil, loomapi.ErrorCoordinateMissing(norm)
		}
	}
	return rowAt(n, norm), nil
}

func selectOf(ctx context.Context, n engineNode, sels []Selector) (iter.Seq2[[]int, Row], error) {
	if len(sels) != n.Arity() {
		return nil, loomapi.ErrorIndexArity(len(sels), n.Arity())
	}
	if err := n.ensure(ctx); err != nil {
		return nil, err
	}
	windows, err := resolveAll(n, sels)
	if err != nil {
		return nil, err
	}
	if coords := n.sparseCoords(); coords != nil {
		return sparseSeq(n, coords, windows), nil
	}
	return denseSeq(n, windows), nil
}

func projectOf(ctx context.Context, n engineNode, sel Selector, axis int) (iter.Seq[any], error) {
	if axis < 0 || axis >= n.Arity() {
		return nil, loomapi.ErrorIndexAxis(axis, n.Arity())
	}
	sels := make([]Selector, n.Arity())
	sels[axis] = sel
	rows, err := selectOf(ctx, n, sels)
	if err != nil {
		return nil, err
	}
	return func(yield func(any) bool) {
		for _, row := range rows {
			if !yield(row[axis]) {
				return
			}
		}
	}, nil
}

func projectAtOf(ctx context.Context, n engineNode, position, axis int) (any, error) {
	if axis < 0 || axis >= n.Arity() {
		return nil, loomapi.ErrorIndexAxis(axis, n.Arity())
	}
	if err := n.ensure(ctx); err != nil {
		return nil, err
	}
	p, err := normalizePos(position, n.axisLengths()[axis], n.Axes()[axis].Label)
	if err != nil {
		return nil, err
	}
	return n.axisValue(axis, p), nil
}

func resolveAll(n engineNode, sels []Selector) ([]window, error) {
	lengths := n.axisLengths()
	axes := n.Axes()
	windows := make([]window, len(sels))
	for a, s := range sels {
		w, err := s.resolve(lengths[a], axes[a].Label)
		if err != nil {
			return nil, err
		}
		windows[a] = w
	}
	return windows, nil
}

func rowAt(n engineNode, coord []int) Row {
	row := make(Row, len(coord))
	for a, p := range coord {
		row[a] = n.axisValue(a, p)
	}
	return row
}

// denseSeq enumerates the product of the windows, later axes fastest.
// The seq is restartable: each range restarts from the first coordinate.
func denseSeq(n engineNode, windows []window) iter.Seq2[[]int, Row] {
	return func(yield func([]int, Row) bool) {
		for _, w := range windows {
			if w.size() <= 0 {
				return
			}
		}
		coord := make([]int, len(windows))
		for a, w := range windows {
			coord[a] = w.lo
		}
		for {
			out := make([]int, len(coord))
			copy(out, coord)
			if !yield(out, rowAt(n, coord)) {
				return
			}
			a := len(coord) - 1
			for a >= 0 {
				coord[a]++
				if coord[a] < windows[a].hi {
					break
				}
				coord[a] = windows[a].lo
				a--
			}
			if a < 0 {
				return
			}
		}
	}
}

// sparseSeq walks an ordered extent and yields coordinates lying inside every
// window.  Extent order is already later-axes-fastest, so no resorting here.
func sparseSeq(n engineNode, coords [][]int, windows []window) iter.Seq2[[]int, Row] {
	return func(yield func([]int, Row) bool) {
	next:
		for _, coord := range coords {
			for a, w := range windows {
				if !w.contains(coord[a]) {
					continue next
				}
			}
			out := make([]int, len(coord))
			copy(out, coord)
			if !yield(out, rowAt(n, coord)) {
				return
			}
		}
	}
}

// extentContains binary-searches a lexicographically ordered extent.
func extentContains(coords [][]int, coord []int) bool {
	i := sort.Search(len(coords), func(i int) bool {
		return compareCoords(coords[i], coord) >= 0
	})
	return i < len(coords) && compareCoords(coords[i], coord) == 0
}

func compareCoords(a, b []int) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

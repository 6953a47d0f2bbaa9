package datagraph

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
)

func TestSelectorResolve(t *testing.T) {
	for _, tt := range []struct {
		name    string
		sel     Selector
		length  int
		want    window
		errCode string
	}{
		{name: "all spans everything", sel: All(), length: 5, want: window{0, 5}},
		{name: "zero value is all", sel: Selector{}, length: 3, want: window{0, 3}},
		{name: "index", sel: Index(2), length: 5, want: window{2, 3}},
		{name: "negative index counts from end", sel: Index(-1), length: 5, want: window{4, 5}},
		{name: "index at length is out of range", sel: Index(5), length: 5, errCode: loomapi.ECodeIndexRange},
		{name: "negative index past start is out of range", sel: Index(-6), length: 5, errCode: loomapi.ECodeIndexRange},
		{name: "range", sel: Range(1, 3), length: 5, want: window{1, 3}},
		{name: "range clips high", sel: Range(3, 99), length: 5, want: window{3, 5}},
		{name: "range clips low", sel: Range(-4, 2), length: 5, want: window{0, 2}},
		{name: "inverted range is empty", sel: Range(4, 1), length: 5, want: window{4, 4}},
		{name: "range fully past end is empty", sel: Range(7, 9), length: 5, want: window{5, 5}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tt.sel.resolve(tt.length, loomapi.Label("x"))
			if tt.errCode != "" {
				qt.Assert(t, serum.Code(err), qt.Equals, tt.errCode)
				return
			}
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, w, qt.Equals, tt.want)
		})
	}
}

func TestCompareCoords(t *testing.T) {
	qt.Check(t, compareCoords([]int{0, 1}, []int{0, 1}), qt.Equals, 0)
	qt.Check(t, compareCoords([]int{0, 1}, []int{0, 2}), qt.Equals, -1)
	qt.Check(t, compareCoords([]int{1, 0}, []int{0, 9}), qt.Equals, 1)
}

func TestExtentContains(t *testing.T) {
	extent := [][]int{{0, 0}, {0, 2}, {1, 1}, {2, 0}}
	qt.Check(t, extentContains(extent, []int{0, 2}), qt.IsTrue)
	qt.Check(t, extentContains(extent, []int{2, 0}), qt.IsTrue)
	qt.Check(t, extentContains(extent, []int{0, 1}), qt.IsFalse)
	qt.Check(t, extentContains(extent, []int{3, 0}), qt.IsFalse)
}

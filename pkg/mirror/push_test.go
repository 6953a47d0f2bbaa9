package mirror

import (
	"context"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/graph"
	"github.com/warptools/loom/pkg/warehouse"
)

const (
	pushFileKindID = loomapi.KindID("11111111-2222-4333-8444-666666660001")
	pushCollKindID = loomapi.KindID("11111111-2222-4333-8444-666666660002")
)

// buildIndexedTree saves one collection of int files under "data", scans it,
// and returns the store plus the resulting index.
func buildIndexedTree(t *testing.T, trials ...int) (*warehouse.MemStore, *graph.Index) {
	t.Helper()
	ctx := context.Background()
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	fileKind := datagraph.FileKind[int](pushFileKindID, "sample", "sample", src)
	collKind := datagraph.CollectionKind(pushCollKindID, "set", "trial")

	reg := datagraph.NewRegistry()
	qt.Assert(t, reg.Register(fileKind), qt.IsNil)
	qt.Assert(t, reg.Register(collKind), qt.IsNil)

	coll := datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), store, reg)
	loc, err := coll.Location()
	qt.Assert(t, err, qt.IsNil)
	for _, trial := range trials {
		md := loomapi.NewMetadata(map[string]string{"trial": strconv.Itoa(trial)})
		f := datagraph.NewFile[int](fileKind, loc, md, store, src)
		f.Assign([]int{trial})
		_, err := coll.Add(f)
		qt.Assert(t, err, qt.IsNil)
	}
	qt.Assert(t, coll.Save(ctx), qt.IsNil)

	idx, err := graph.Scan(ctx, store, reg, "data")
	qt.Assert(t, err, qt.IsNil)
	return store, idx
}

// payloadRecords projects an index into its records that carry content.
func payloadRecords(idx *graph.Index) []*loomapi.GraphRecord {
	var recs []*loomapi.GraphRecord
	for rec := range idx.Records() {
		if rec.Content != nil {
			recs = append(recs, rec)
		}
	}
	return recs
}

func TestPush(t *testing.T) {
	ctx := context.Background()
	store, idx := buildIndexedTree(t, 1, 2, 3)
	pub := NewMockPublisher()

	qt.Assert(t, push(ctx, store, idx, pub), qt.IsNil)

	recs := payloadRecords(idx)
	qt.Assert(t, recs, qt.HasLen, 3)
	qt.Check(t, pub.Published(), qt.HasLen, 3)
	for _, rec := range recs {
		data := pub.Bytes(*rec.Content)
		qt.Assert(t, data, qt.IsNotNil)
		// the remote object is exactly the local payload document
		local, err := store.Get(ctx, rec.Location)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, data, qt.DeepEquals, local)
		qt.Check(t, warehouse.ContentID(data), qt.Equals, *rec.Content)
	}
}

func TestPushSkipsPresentRemotely(t *testing.T) {
	ctx := context.Background()
	store, idx := buildIndexedTree(t, 1, 2)
	pub := NewMockPublisher()

	// plant a sentinel under one content ID; a skipped upload leaves it alone
	rec := payloadRecords(idx)[0]
	qt.Assert(t, pub.publishNode(ctx, *rec.Content, []byte("sentinel")), qt.IsNil)

	qt.Assert(t, push(ctx, store, idx, pub), qt.IsNil)
	qt.Check(t, pub.Bytes(*rec.Content), qt.DeepEquals, []byte("sentinel"))
	qt.Check(t, pub.Published(), qt.HasLen, 2)
}

func TestPushSkipsMissingLocally(t *testing.T) {
	ctx := context.Background()
	store, idx := buildIndexedTree(t, 1, 2, 3)
	pub := NewMockPublisher()

	rec := payloadRecords(idx)[1]
	qt.Assert(t, store.Delete(ctx, rec.Location), qt.IsNil)

	qt.Assert(t, push(ctx, store, idx, pub), qt.IsNil)
	qt.Check(t, pub.Published(), qt.HasLen, 2)
	qt.Check(t, pub.Bytes(*rec.Content), qt.IsNil)
}

func TestPushRejectsStalePayload(t *testing.T) {
	ctx := context.Background()
	store, idx := buildIndexedTree(t, 1, 2)
	pub := NewMockPublisher()

	rec := payloadRecords(idx)[0]
	_, err := store.Put(ctx, rec.Location, []byte("tampered"))
	qt.Assert(t, err, qt.IsNil)

	err = push(ctx, store, idx, pub)
	qt.Assert(t, err, qt.IsNotNil)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}

func TestPushFromParsedConfig(t *testing.T) {
	ctx := context.Background()
	store, idx := buildIndexedTree(t, 7)

	cfg, err := loomapi.ParseMirrorConfig([]byte(`{"pushConfig": {"mock": {}}}`))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, Push(ctx, store, idx, *cfg), qt.IsNil)
}

func TestContentKey(t *testing.T) {
	key, err := contentKey(nil, "bafkreia")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, key, qt.Equals, "baf/kre/bafkreia")

	prefix := "mirrors/loom"
	key, err = contentKey(&prefix, "bafkreia")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, key, qt.Equals, "mirrors/loom/baf/kre/bafkreia")

	_, err = contentKey(nil, "abc")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}

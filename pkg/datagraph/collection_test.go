package datagraph_test

import (
	"context"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/warehouse"
)

// buildTestTree saves a collection of int files under "data" and returns the
// registry and store needed to rediscover it.
func buildTestTree(t *testing.T, trials ...int) (*datagraph.Registry, *warehouse.MemStore) {
	t.Helper()
	ctx := context.Background()
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	fileKind := datagraph.FileKind[int](testFileKindID, "sample", "sample", src)
	collKind := datagraph.CollectionKind(testCollKindID, "set", "trial")

	reg := datagraph.NewRegistry()
	qt.Assert(t, reg.Register(fileKind), qt.IsNil)
	qt.Assert(t, reg.Register(collKind), qt.IsNil)

	coll := datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), store, reg)
	loc, err := coll.Location()
	qt.Assert(t, err, qt.IsNil)
	for i, trial := range trials {
		md := loomapi.NewMetadata(map[string]string{"trial": strconv.Itoa(trial)})
		f := datagraph.NewFile[int](fileKind, loc, md, store, src)
		f.Assign([]int{trial * 10, trial*10 + 1})
		_, err := coll.Add(f)
		qt.Assert(t, err, qt.IsNil, qt.Commentf("adding child %d", i))
	}
	qt.Assert(t, coll.Save(ctx), qt.IsNil)
	return reg, store
}

func reopenCollection(reg *datagraph.Registry, store *warehouse.MemStore) *datagraph.Collection {
	collKind, _ := reg.Lookup(testCollKindID)
	return datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), store, reg)
}

func TestCollectionDiscovery(t *testing.T) {
	ctx := context.Background()
	reg, store := buildTestTree(t, 1, 2, 3)
	coll := reopenCollection(reg, store)

	keys, err := coll.Keys(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, keys, qt.DeepEquals, []string{
		"sample-trial=1", "sample-trial=2", "sample-trial=3",
	})

	// discovery constructs children without loading their payloads
	child, err := coll.Child(ctx, "sample-trial=2")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, child.Loaded(), qt.IsFalse)

	f, ok := child.(*datagraph.File[int])
	qt.Assert(t, ok, qt.IsTrue)
	v, err := f.At(ctx, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, v, qt.Equals, 20)
}

func TestCollectionNaturalOrder(t *testing.T) {
	ctx := context.Background()
	reg, store := buildTestTree(t, 10, 2, 1)
	coll := reopenCollection(reg, store)

	keys, err := coll.Keys(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, keys, qt.DeepEquals, []string{
		"sample-trial=1", "sample-trial=2", "sample-trial=10",
	})
}

func TestCollectionChildMissing(t *testing.T) {
	ctx := context.Background()
	reg, store := buildTestTree(t, 1)
	coll := reopenCollection(reg, store)

	_, err := coll.Child(ctx, "sample-trial=7")
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)
}

func TestCollectionLocationMissing(t *testing.T) {
	ctx := context.Background()
	reg := datagraph.NewRegistry()
	collKind := datagraph.CollectionKind(testCollKindID, "set", "trial")
	qt.Assert(t, reg.Register(collKind), qt.IsNil)

	coll := datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), warehouse.NewMemStore(), reg)
	err := coll.Load(ctx)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)
}

func TestCollectionEmptySaveReload(t *testing.T) {
	ctx := context.Background()
	store := warehouse.NewMemStore()
	reg := datagraph.NewRegistry()
	collKind := datagraph.CollectionKind(testCollKindID, "set", "trial")
	qt.Assert(t, reg.Register(collKind), qt.IsNil)

	coll := datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), store, reg)
	qt.Assert(t, coll.Assign(), qt.IsNil)
	qt.Assert(t, coll.Save(ctx), qt.IsNil)

	fresh := datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), store, reg)
	n, err := fresh.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, n, qt.Equals, 0)
}

func TestCollectionAddDuplicate(t *testing.T) {
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	fileKind := datagraph.FileKind[int](testFileKindID, "sample", "sample", src)
	collKind := datagraph.CollectionKind(testCollKindID, "set", "trial")
	reg := datagraph.NewRegistry()
	qt.Assert(t, reg.Register(fileKind), qt.IsNil)
	qt.Assert(t, reg.Register(collKind), qt.IsNil)

	coll := datagraph.NewCollection(collKind, "data", loomapi.NewMetadata(nil), store, reg)
	md := loomapi.NewMetadata(map[string]string{"trial": "1"})
	loc, _ := coll.Location()
	f1 := datagraph.NewFile[int](fileKind, loc, md, store, src)
	f2 := datagraph.NewFile[int](fileKind, loc, md, store, src)

	_, err := coll.Add(f1)
	qt.Assert(t, err, qt.IsNil)
	_, err = coll.Add(f2)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeAlreadyExists)
}

func TestCollectionUnknownKind(t *testing.T) {
	ctx := context.Background()
	reg, store := buildTestTree(t, 1)

	// plant an envelope naming a kind nobody registered
	env := &loomapi.NodeEnvelope{
		Kind:     loomapi.KindID("ffffffff-0000-4000-8000-00000000dead"),
		Label:    "mystery",
		Metadata: loomapi.NewMetadata(map[string]string{"trial": "4"}),
	}
	data, err := loomapi.SerializeNodeEnvelope(env)
	qt.Assert(t, err, qt.IsNil)
	_, err = store.Put(ctx, datagraph.EnvelopeLocation("data/set", "mystery"), data)
	qt.Assert(t, err, qt.IsNil)

	coll := reopenCollection(reg, store)
	err = coll.Load(ctx)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeKind)
}

func TestCollectionAsNode(t *testing.T) {
	ctx := context.Background()
	reg, store := buildTestTree(t, 1, 2)
	coll := reopenCollection(reg, store)

	qt.Check(t, coll.Arity(), qt.Equals, 1)
	n, err := coll.Len(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, n, qt.Equals, 2)

	row, err := coll.Cell(ctx, 0)
	qt.Assert(t, err, qt.IsNil)
	child, ok := row[0].(*datagraph.File[int])
	qt.Assert(t, ok, qt.IsTrue)
	qt.Check(t, child.Key(), qt.Equals, "sample-trial=1")
}

func TestRegistryConflict(t *testing.T) {
	reg := datagraph.NewRegistry()
	store := warehouse.NewMemStore()
	src := warehouse.NewJSONSource[int](store)
	k1 := datagraph.FileKind[int](testFileKindID, "sample", "sample", src)
	k2 := datagraph.FileKind[int](testFileKindID, "other", "other", src)

	qt.Assert(t, reg.Register(k1), qt.IsNil)
	err := reg.Register(k2)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeKind)
}

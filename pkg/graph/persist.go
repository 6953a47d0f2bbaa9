package graph

import (
	"path/filepath"
	"time"

	"github.com/facette/natsort"
	"github.com/serum-errors/go-serum"
	bolt "go.etcd.io/bbolt"

	"github.com/warptools/loom/loomapi"
)

// DBFilename is the name of the index database inside a data root.
const DBFilename = "graph.db"

// The index lives under its own versioned root bucket, so the database file
// may be shared with other bucket owners.
var (
	bucketKeyGraph   = []byte("graph.v1")
	bucketKeyRecords = []byte("records")
)

// DBPath returns the filesystem path of the index database for a data root.
func DBPath(dataRoot string) string {
	return filepath.Join(dataRoot, DBFilename)
}

// OpenDB opens or creates an index database.
//
// Errors:
//
//    - loom-error-io -- when the database cannot be opened
func OpenDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, loomapi.ErrorIo("failed to open graph database", path, err)
	}
	return db, nil
}

// Save writes the whole index into the database, replacing any prior index,
// in one transaction.
//
// Errors:
//
//    - loom-error-serialization -- when a record cannot be encoded
//    - loom-error-io -- when the transaction fails
func (x *Index) Save(db *bolt.DB) error {
	err := db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketKeyGraph); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		root, err := tx.CreateBucket(bucketKeyGraph)
		if err != nil {
			return err
		}
		recs, err := root.CreateBucket(bucketKeyRecords)
		if err != nil {
			return err
		}
		for _, id := range x.order {
			data, err := loomapi.SerializeGraphRecord(x.records[id])
			if err != nil {
				return err
			}
			if err := recs.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if serum.Code(err) != "" {
			return err
		}
		return loomapi.ErrorIo("failed to save graph index", db.Path(), err)
	}
	return nil
}

// LoadIndex reads the index a previous Save wrote, without rescanning.
//
// Errors:
//
//    - loom-error-missing -- when the database holds no index
//    - loom-error-serialization -- when a stored record does not parse
//    - loom-error-invalid -- when the stored records do not form a tree
//    - loom-error-io -- when the transaction fails
func LoadIndex(db *bolt.DB) (*Index, error) {
	idx := NewIndex()
	err := db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketKeyGraph)
		if root == nil {
			return serum.Error(loomapi.ECodeMissing,
				serum.WithMessageLiteral("database holds no graph index"))
		}
		recs := root.Bucket(bucketKeyRecords)
		if recs == nil {
			return serum.Error(loomapi.ECodeMissing,
				serum.WithMessageLiteral("database holds no graph index"))
		}
		return recs.ForEach(func(k, v []byte) error {
			rec, err := loomapi.ParseGraphRecord(v)
			if err != nil {
				return err
			}
			if string(k) != string(rec.Id) {
				return loomapi.ErrorInvalid("graph record stored under a foreign key",
					[2]string{"key", string(k)}, [2]string{"id", string(rec.Id)})
			}
			return idx.insert(rec)
		})
	})
	if err != nil {
		if serum.Code(err) != "" {
			return nil, err
		}
		return nil, loomapi.ErrorIo("failed to load graph index", db.Path(), err)
	}
	if err := idx.reorder(); err != nil {
		return nil, err
	}
	return idx, nil
}

// reorder rebuilds the scan order from the edges: roots in natural key
// order, then depth-first through child edges.  Scan already natsorts
// siblings, so the rebuilt order equals the order the records were scanned
// in.
//
// Errors:
//
//    - loom-error-invalid -- when the edges do not form a tree covering
//      every record
func (x *Index) reorder() error {
	x.order = make([]loomapi.GraphNodeID, 0, len(x.records))
	rootIDs := make(map[string]loomapi.GraphNodeID)
	var rootKeys []string
	for id, rec := range x.records {
		if rec.Parent == nil {
			rootIDs[rec.Key] = id
			rootKeys = append(rootKeys, rec.Key)
		}
	}
	natsort.Sort(rootKeys)
	seen := make(map[loomapi.GraphNodeID]bool, len(x.records))
	var visit func(id loomapi.GraphNodeID) error
	visit = func(id loomapi.GraphNodeID) error {
		rec, ok := x.records[id]
		if !ok {
			return loomapi.ErrorInvalid("graph index edge references an unknown record",
				[2]string{"id", string(id)})
		}
		if seen[id] {
			return loomapi.ErrorInvalid("graph index edges visit a record twice",
				[2]string{"id", string(id)})
		}
		seen[id] = true
		x.order = append(x.order, id)
		for _, child := range rec.Children {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	for _, key := range rootKeys {
		if err := visit(rootIDs[key]); err != nil {
			return err
		}
	}
	if len(x.order) != len(x.records) {
		return loomapi.ErrorInvalid("graph index has records unreachable from its roots")
	}
	return nil
}

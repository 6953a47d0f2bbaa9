package warehouse

import (
	"context"
	"strings"
	"time"

	"github.com/serum-errors/go-serum"
	bolt "go.etcd.io/bbolt"

	"github.com/warptools/loom/loomapi"
)

// BoltStore keeps documents in a bolt database, one nested bucket per path
// segment with document bytes as keys of the innermost bucket.  It gives a
// node tree single-file durable storage with transactional writes.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// bucketKeyVersion is the root bucket; bumping it is how a future layout
// change would coexist with old databases.
var bucketKeyVersion = []byte("v1")

// OpenBolt opens or creates the bolt database at path.
//
// Errors:
//
//    - loom-error-io -- when the database cannot be opened
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, loomapi.ErrorIo("failed to open bolt database", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle so collaborators can share the database
// file for their own buckets.
func (s *BoltStore) DB() *bolt.DB {
	return s.db
}

func segments(loc loomapi.Location) [][]byte {
	if loc == "" {
		return nil
	}
	parts := strings.Split(loc.String(), "/")
	keys := make([][]byte, len(parts))
	for i, p := range parts {
		keys[i] = []byte(p)
	}
	return keys
}

// getBucket walks nested buckets, returning nil as soon as one is absent.
func getBucket(tx *bolt.Tx, keys ...[]byte) *bolt.Bucket {
	bkt := tx.Bucket(bucketKeyVersion)
	for _, key := range keys {
		if bkt == nil {
			break
		}
		bkt = bkt.Bucket(key)
	}
	return bkt
}

func createBucketIfNotExists(tx *bolt.Tx, keys ...[]byte) (*bolt.Bucket, error) {
	bkt, err := tx.CreateBucketIfNotExists(bucketKeyVersion)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		bkt, err = bkt.CreateBucketIfNotExists(key)
		if err != nil {
			return nil, err
		}
	}
	return bkt, nil
}

func (s *BoltStore) Get(ctx context.Context, loc loomapi.Location) ([]byte, error) {
	keys := segments(loc)
	if len(keys) == 0 {
		return nil, loomapi.ErrorLocationMissing(loc)
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getBucket(tx, keys[:len(keys)-1]...)
		if bkt == nil {
			return loomapi.ErrorLocationMissing(loc)
		}
		v := bkt.Get(keys[len(keys)-1])
		if v == nil {
			return loomapi.ErrorLocationMissing(loc)
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		if serum.Code(err) == loomapi.ECodeMissing {
			return nil, err
		}
		return nil, loomapi.ErrorIo("failed to read document", loc.String(), err)
	}
	return data, nil
}

func (s *BoltStore) Put(ctx context.Context, loc loomapi.Location, data []byte) (loomapi.ContentCID, error) {
	keys := segments(loc)
	if len(keys) == 0 {
		return "", loomapi.ErrorInvalid("cannot write a document at the store root")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := createBucketIfNotExists(tx, keys[:len(keys)-1]...)
		if err != nil {
			return err
		}
		return bkt.Put(keys[len(keys)-1], data)
	})
	if err != nil {
		return "", loomapi.ErrorIo("failed to write document", loc.String(), err)
	}
	return ContentID(data), nil
}

func (s *BoltStore) Has(ctx context.Context, loc loomapi.Location) (bool, error) {
	keys := segments(loc)
	if len(keys) == 0 {
		return true, nil
	}
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getBucket(tx, keys[:len(keys)-1]...)
		if bkt == nil {
			return nil
		}
		last := keys[len(keys)-1]
		found = bkt.Get(last) != nil || bkt.Bucket(last) != nil
		return nil
	})
	if err != nil {
		return false, loomapi.ErrorIo("failed to check document", loc.String(), err)
	}
	return found, nil
}

func (s *BoltStore) List(ctx context.Context, prefix loomapi.Location) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getBucket(tx, segments(prefix)...)
		if bkt == nil {
			return loomapi.ErrorLocationMissing(prefix)
		}
		return bkt.ForEach(func(k, v []byte) error {
			if v != nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	if err != nil {
		if serum.Code(err) == loomapi.ECodeMissing {
			return nil, err
		}
		return nil, loomapi.ErrorIo("failed to list documents", prefix.String(), err)
	}
	return names, nil
}

func (s *BoltStore) Prefixes(ctx context.Context, prefix loomapi.Location) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := getBucket(tx, segments(prefix)...)
		if bkt == nil {
			return loomapi.ErrorLocationMissing(prefix)
		}
		return bkt.ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	if err != nil {
		if serum.Code(err) == loomapi.ECodeMissing {
			return nil, err
		}
		return nil, loomapi.ErrorIo("failed to list prefixes", prefix.String(), err)
	}
	return names, nil
}

func (s *BoltStore) Delete(ctx context.Context, loc loomapi.Location) error {
	keys := segments(loc)
	if len(keys) == 0 {
		return loomapi.ErrorLocationMissing(loc)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := getBucket(tx, keys[:len(keys)-1]...)
		if bkt == nil {
			return loomapi.ErrorLocationMissing(loc)
		}
		last := keys[len(keys)-1]
		if bkt.Get(last) == nil {
			return loomapi.ErrorLocationMissing(loc)
		}
		return bkt.Delete(last)
	})
	if err != nil {
		if serum.Code(err) == loomapi.ECodeMissing {
			return err
		}
		return loomapi.ErrorIo("failed to remove document", loc.String(), err)
	}
	return nil
}

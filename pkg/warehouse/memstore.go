package warehouse

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/warptools/loom/loomapi"
)

// MemStore keeps documents in an ordered in-memory map.  It is the store of
// choice for tests and for scratch trees that never touch disk.
type MemStore struct {
	mu   sync.RWMutex
	docs *btree.Map[string, []byte]
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{docs: btree.NewMap[string, []byte](0)}
}

func (s *MemStore) Get(ctx context.Context, loc loomapi.Location) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs.Get(loc.String())
	if !ok {
		return nil, loomapi.ErrorLocationMissing(loc)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemStore) Put(ctx context.Context, loc loomapi.Location, data []byte) (loomapi.ContentCID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.docs.Set(loc.String(), stored)
	return ContentID(data), nil
}

func (s *MemStore) Has(ctx context.Context, loc loomapi.Location) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.has(loc), nil
}

// has reports whether loc names a document or a prefix of one.  A flat
// keyspace has no empty directories: a prefix exists exactly when something
// lives under it.
func (s *MemStore) has(loc loomapi.Location) bool {
	if loc == "" {
		return s.docs.Len() > 0
	}
	if _, ok := s.docs.Get(loc.String()); ok {
		return true
	}
	under := loc.String() + "/"
	found := false
	s.docs.Ascend(under, func(key string, _ []byte) bool {
		found = strings.HasPrefix(key, under)
		return false
	})
	return found
}

func (s *MemStore) List(ctx context.Context, prefix loomapi.Location) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	under := ""
	if prefix != "" {
		under = prefix.String() + "/"
	}
	var names []string
	seen := false
	s.docs.Ascend(under, func(key string, _ []byte) bool {
		if !strings.HasPrefix(key, under) {
			return false
		}
		seen = true
		rest := strings.TrimPrefix(key, under)
		if !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
		return true
	})
	if !seen && prefix != "" {
		return nil, loomapi.ErrorLocationMissing(prefix)
	}
	return names, nil
}

func (s *MemStore) Prefixes(ctx context.Context, prefix loomapi.Location) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	under := ""
	if prefix != "" {
		under = prefix.String() + "/"
	}
	var names []string
	last := ""
	seen := false
	s.docs.Ascend(under, func(key string, _ []byte) bool {
		if !strings.HasPrefix(key, under) {
			return false
		}
		seen = true
		rest := strings.TrimPrefix(key, under)
		if i := strings.Index(rest, "/"); i >= 0 {
			name := rest[:i]
			if name != last {
				names = append(names, name)
				last = name
			}
		}
		return true
	})
	if !seen && prefix != "" {
		return nil, loomapi.ErrorLocationMissing(prefix)
	}
	return names, nil
}

func (s *MemStore) Delete(ctx context.Context, loc loomapi.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs.Delete(loc.String()); !ok {
		return loomapi.ErrorLocationMissing(loc)
	}
	return nil
}

package mirror

import (
	"context"
	"sort"

	"github.com/warptools/loom/loomapi"
)

// MockPublisher is a fake publisher intended for tests only.  Publishing
// keeps the bytes in memory; nothing leaves the process.
type MockPublisher struct {
	nodes map[loomapi.ContentCID][]byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{nodes: map[loomapi.ContentCID][]byte{}}
}

func (p *MockPublisher) hasNode(_ context.Context, cid loomapi.ContentCID) (bool, error) {
	_, exists := p.nodes[cid]
	return exists, nil
}

func (p *MockPublisher) publishNode(_ context.Context, cid loomapi.ContentCID, data []byte) error {
	p.nodes[cid] = append([]byte(nil), data...)
	return nil
}

// Published returns the content IDs published so far, sorted.
func (p *MockPublisher) Published() []loomapi.ContentCID {
	ids := make([]loomapi.ContentCID, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Bytes returns the bytes published under a content ID, or nil if the ID was
// never published.
func (p *MockPublisher) Bytes(cid loomapi.ContentCID) []byte {
	return p.nodes[cid]
}

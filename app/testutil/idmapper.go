package testutil

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/icholy/replace"
)

var reNodeID = regexp.MustCompile(`(?P<ID>[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12})`)

// IDMapper rewrites node IDs into deterministic substitutes.  Graph scans
// mint a fresh UUID per record, so any output that includes IDs differs run
// to run; mapping them to sequential numbers in first-seen order makes runs
// comparable and keeps fixtures readable.
type IDMapper struct {
	mapping      map[string]string
	next         int
	mappingMutex sync.Mutex
}

func NewIDMapper() *IDMapper {
	return &IDMapper{mapping: make(map[string]string)}
}

// Fix pins IDs to themselves.  Kind IDs are fixed constants and should stay
// recognizable in fixtures, so they go here.
func (m *IDMapper) Fix(ids ...string) *IDMapper {
	m.mappingMutex.Lock()
	defer m.mappingMutex.Unlock()
	for _, id := range ids {
		m.mapping[id] = id
	}
	return m
}

// Transformer returns a transform.Transformer for mapping IDs on streams
func (m *IDMapper) Transformer() *replace.RegexpTransformer {
	return replace.RegexpStringSubmatchFunc(reNodeID, m.replacer)
}

// get will return the mapping for the requested ID, assigning the next
// sequential substitute if the ID has not been seen before.
func (m *IDMapper) get(id string) string {
	m.mappingMutex.Lock()
	defer m.mappingMutex.Unlock()
	if newID, exists := m.mapping[id]; exists {
		return newID
	}
	m.next++
	newID := fmt.Sprintf("00000000-0000-0000-0000-%012d", m.next)
	m.mapping[id] = newID
	return newID
}

// replacer implements the function for replace.RegexpStringSubmatchFunc.
func (m *IDMapper) replacer(match []string) string {
	result := match[0]
	for _, id := range match[1:] {
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		result = strings.ReplaceAll(result, id, m.get(id))
	}
	return result
}

package kgx

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MapStore is an in-memory Store. It is useful for tests and for graphs small
// enough to hold in memory.
type MapStore struct {
	lock  sync.RWMutex
	edges map[string]Document
	nodes map[string]Document
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{
		edges: make(map[string]Document),
		nodes: make(map[string]Document),
	}
}

// PutEdges adds or replaces edges, keyed by their identifier.
func (m *MapStore) PutEdges(docs ...Document) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, d := range docs {
		m.edges[d.ID()] = Project(d)
	}
}

// PutNodes adds or replaces nodes, keyed by their identifier.
func (m *MapStore) PutNodes(docs ...Document) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, d := range docs {
		m.nodes[d.ID()] = Project(d)
	}
}

// CountEdges implements EdgeStore.
func (m *MapStore) CountEdges(ctx context.Context) (int, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.edges), nil
}

// EdgeIDs implements EdgeStore. Ids are handed out in sorted order, from a
// snapshot taken at the first call to NextBatch.
func (m *MapStore) EdgeIDs(ctx context.Context, pageSize int) IDProvider {
	return &mapIDFeeder{store: m, size: pageSize}
}

// FindEdges implements EdgeStore.
func (m *MapStore) FindEdges(ctx context.Context, ids []string, fields ...string) ([]Document, error) {
	return m.find(ctx, m.edges, ids, fields)
}

// FindNodes implements NodeStore.
func (m *MapStore) FindNodes(ctx context.Context, ids []string) ([]Document, error) {
	return m.find(ctx, m.nodes, ids, nil)
}

func (m *MapStore) find(ctx context.Context, coll map[string]Document, ids []string, fields []string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.lock.RLock()
	defer m.lock.RUnlock()
	ret := make([]Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := coll[id]; ok {
			ret = append(ret, Project(d, fields...))
		}
	}
	return ret, nil
}

func (m *MapStore) String() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return fmt.Sprintf("map store (edges=%d nodes=%d)", len(m.edges), len(m.nodes))
}

type mapIDFeeder struct {
	store *MapStore
	size  int
	ids   *SliceProvider
}

func (f *mapIDFeeder) NextBatch() ([]interface{}, error) {
	if f.ids == nil {
		f.store.lock.RLock()
		ids := make([]string, 0, len(f.store.edges))
		for id := range f.store.edges {
			ids = append(ids, id)
		}
		f.store.lock.RUnlock()
		sort.Strings(ids)
		f.ids = NewSliceProvider(StringIDs(ids), f.size)
	}
	return f.ids.NextBatch()
}

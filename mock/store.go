package mock

import (
	"context"
	"sync/atomic"

	"github.com/pilosa/kgx"
)

// CountingStore wraps a kgx.Store and counts the queries made against it.
type CountingStore struct {
	kgx.Store

	edgeQueries       int64
	projectionQueries int64
	nodeQueries       int64
	nodeIDs           int64
}

// NewCountingStore wraps s.
func NewCountingStore(s kgx.Store) *CountingStore {
	return &CountingStore{Store: s}
}

// FindEdges counts full and projected edge queries separately.
func (c *CountingStore) FindEdges(ctx context.Context, ids []string, fields ...string) ([]kgx.Document, error) {
	if len(fields) > 0 {
		atomic.AddInt64(&c.projectionQueries, 1)
	} else {
		atomic.AddInt64(&c.edgeQueries, 1)
	}
	return c.Store.FindEdges(ctx, ids, fields...)
}

// FindNodes counts node queries and the ids queried.
func (c *CountingStore) FindNodes(ctx context.Context, ids []string) ([]kgx.Document, error) {
	atomic.AddInt64(&c.nodeQueries, 1)
	atomic.AddInt64(&c.nodeIDs, int64(len(ids)))
	return c.Store.FindNodes(ctx, ids)
}

// EdgeQueries returns the number of full edge queries.
func (c *CountingStore) EdgeQueries() int { return int(atomic.LoadInt64(&c.edgeQueries)) }

// ProjectionQueries returns the number of projected edge queries.
func (c *CountingStore) ProjectionQueries() int {
	return int(atomic.LoadInt64(&c.projectionQueries))
}

// NodeQueries returns the number of node queries.
func (c *CountingStore) NodeQueries() int { return int(atomic.LoadInt64(&c.nodeQueries)) }

// NodeIDsQueried returns the total number of ids passed to node queries.
func (c *CountingStore) NodeIDsQueried() int { return int(atomic.LoadInt64(&c.nodeIDs)) }

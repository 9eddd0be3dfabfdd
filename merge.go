package kgx

import (
	"context"

	"github.com/pkg/errors"
)

// Merger fetches the edges with the given ids, embeds their subject and object
// nodes, and passes each merged edge to emit. An error returned by emit stops
// the merge and is returned unchanged.
type Merger interface {
	Merge(ctx context.Context, ids []string, emit func(edge Document) error) (unresolved int, err error)
}

// Merge strategy names.
const (
	StrategyEager = "eager"
	StrategyLazy  = "lazy"
)

// NewMerger returns the Merger for the named strategy.
func NewMerger(strategy string, store Store) (Merger, error) {
	switch strategy {
	case StrategyEager, "":
		return &EagerMerger{Store: store}, nil
	case StrategyLazy:
		return &LazyMerger{Store: store}, nil
	default:
		return nil, errors.Errorf("unknown merge strategy '%s', must be %s or %s", strategy, StrategyEager, StrategyLazy)
	}
}

// EagerMerger prefetches every node a batch references before merging. It
// reads the subject and object of all edges, fetches all their nodes in a
// single query, then reads the full edges. The number of lookup queries is
// two regardless of batch size.
type EagerMerger struct {
	Store Store
}

// Merge implements Merger.
func (m *EagerMerger) Merge(ctx context.Context, ids []string, emit func(Document) error) (int, error) {
	cache, err := m.prefetch(ctx, ids)
	if err != nil {
		return 0, err
	}
	edges, err := m.Store.FindEdges(ctx, ids)
	if err != nil {
		return 0, errors.Wrap(err, "fetching edges")
	}
	unresolved := 0
	for _, edge := range edges {
		unresolved += cache.Embed(edge)
		if err := emit(edge); err != nil {
			return unresolved, err
		}
	}
	return unresolved, nil
}

func (m *EagerMerger) prefetch(ctx context.Context, ids []string) (*NodeCache, error) {
	refs, err := m.Store.FindEdges(ctx, ids, SubjectField, ObjectField)
	if err != nil {
		return nil, errors.Wrap(err, "fetching edge node references")
	}
	cache := NewNodeCache()
	for _, ref := range refs {
		for _, id := range nodeRefs(ref) {
			cache.Add(id)
		}
	}
	pending := cache.Pending()
	if len(pending) == 0 {
		return cache, nil
	}
	nodes, err := m.Store.FindNodes(ctx, pending)
	if err != nil {
		return nil, errors.Wrap(err, "fetching nodes")
	}
	for _, node := range nodes {
		cache.Put(node)
	}
	cache.Settle()
	return cache, nil
}

// LazyMerger fills the node cache one edge at a time, querying only for the
// node ids the current edge introduces. It issues at most one node query per
// edge, and never queries the same id twice within a batch, but the query
// count grows with the number of distinct nodes. EagerMerger should be
// preferred; LazyMerger is kept for comparison.
type LazyMerger struct {
	Store Store
}

// Merge implements Merger.
func (m *LazyMerger) Merge(ctx context.Context, ids []string, emit func(Document) error) (int, error) {
	edges, err := m.Store.FindEdges(ctx, ids)
	if err != nil {
		return 0, errors.Wrap(err, "fetching edges")
	}
	cache := NewNodeCache()
	unresolved := 0
	for _, edge := range edges {
		var unseen []string
		for _, id := range nodeRefs(edge) {
			if cache.Add(id) {
				unseen = append(unseen, id)
			}
		}
		if len(unseen) > 0 {
			nodes, err := m.Store.FindNodes(ctx, unseen)
			if err != nil {
				return unresolved, errors.Wrapf(err, "fetching nodes for edge '%s'", edge.ID())
			}
			for _, node := range nodes {
				cache.Put(node)
			}
			cache.Settle()
		}
		unresolved += cache.Embed(edge)
		if err := emit(edge); err != nil {
			return unresolved, err
		}
	}
	return unresolved, nil
}

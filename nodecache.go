package kgx

import (
	"sort"
)

type nodeState uint8

const (
	nodePending nodeState = iota
	nodeResolved
	nodeMissing
)

type nodeEntry struct {
	state nodeState
	doc   Document
}

// NodeCache maps node ids to node documents for the lifetime of one batch.
// An id is pending until its node is fetched, then either resolved or missing.
// It is not threadsafe and must not be shared between batches.
type NodeCache struct {
	entries map[string]nodeEntry
}

// NewNodeCache returns an empty NodeCache.
func NewNodeCache() *NodeCache {
	return &NodeCache{entries: make(map[string]nodeEntry)}
}

// Add marks id as pending and reports whether it was previously unknown.
func (c *NodeCache) Add(id string) bool {
	if _, ok := c.entries[id]; ok {
		return false
	}
	c.entries[id] = nodeEntry{state: nodePending}
	return true
}

// Pending returns the sorted ids which have not been fetched yet.
func (c *NodeCache) Pending() []string {
	ids := make([]string, 0)
	for id, e := range c.entries {
		if e.state == nodePending {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Put stores a fetched node. The identifier field is removed from the
// document, since an embedded node carries its attributes only.
func (c *NodeCache) Put(node Document) {
	id := node.ID()
	if id == "" {
		return
	}
	delete(node, IDField)
	c.entries[id] = nodeEntry{state: nodeResolved, doc: node}
}

// Settle marks every still pending id as missing. It is called after the ids
// were queried, so that absent nodes are not queried again.
func (c *NodeCache) Settle() {
	for id, e := range c.entries {
		if e.state == nodePending {
			c.entries[id] = nodeEntry{state: nodeMissing}
		}
	}
}

// Get returns the node for id, and whether it was resolved.
func (c *NodeCache) Get(id string) (Document, bool) {
	e, ok := c.entries[id]
	if !ok || e.state != nodeResolved {
		return nil, false
	}
	return e.doc, true
}

// Len returns the number of ids known to the cache.
func (c *NodeCache) Len() int { return len(c.entries) }

// Embed replaces the node references of edge with the cached node documents.
// A reference which does not resolve, is not a string, or is absent becomes
// nil. It returns the number of unresolved references.
func (c *NodeCache) Embed(edge Document) (unresolved int) {
	for _, field := range refFields {
		id, _ := edge[field].(string)
		if node, ok := c.Get(id); ok {
			edge[field] = node
			continue
		}
		edge[field] = nil
		unresolved++
	}
	return unresolved
}

// Unresolved reports whether field of a merged edge holds the unresolved node
// marker, i.e. is present and nil.
func Unresolved(edge Document, field string) bool {
	v, ok := edge[field]
	return ok && v == nil
}

var refFields = []string{SubjectField, ObjectField}

// nodeRefs returns the string node ids referenced by edge.
func nodeRefs(edge Document) []string {
	ids := make([]string, 0, len(refFields))
	for _, field := range refFields {
		if id, ok := edge[field].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

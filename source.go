package kgx

import (
	"context"
)

// IDField is the document field holding the identifier of edges and nodes.
const IDField = "_id"

// Fields of an edge which reference nodes in the node collection.
const (
	SubjectField = "subject"
	ObjectField  = "object"
)

// Document is a single record read from a Store or written to a Sink.
type Document map[string]interface{}

// ID returns the identifier of d, or "" if it has none or it is not a string.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Lookup returns the value at a dot separated path through nested documents.
func (d Document) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(d)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		key := path[start:i]
		start = i + 1
		var m map[string]interface{}
		switch ct := cur.(type) {
		case Document:
			m = ct
		case map[string]interface{}:
			m = ct
		default:
			return nil, false
		}
		v, ok := m[key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Project returns a new document holding only the named fields of d plus its
// identifier. With no fields, it returns a shallow copy of d.
func Project(d Document, fields ...string) Document {
	if len(fields) == 0 {
		ret := make(Document, len(d))
		for k, v := range d {
			ret[k] = v
		}
		return ret
	}
	ret := make(Document, len(fields)+1)
	if id, ok := d[IDField]; ok {
		ret[IDField] = id
	}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			ret[f] = v
		}
	}
	return ret
}

// IDProvider hands out successive slices of ids. NextBatch returns io.EOF once
// there are no more ids. Implementations are not threadsafe.
type IDProvider interface {
	NextBatch() ([]interface{}, error)
}

// EdgeStore is the edge collection of a source document store.
type EdgeStore interface {
	// CountEdges returns the number of edges currently in the collection.
	CountEdges(ctx context.Context) (int, error)

	// EdgeIDs returns a cursor over every edge id in the collection, in
	// pages of pageSize.
	EdgeIDs(ctx context.Context, pageSize int) IDProvider

	// FindEdges returns the edges with the given ids. If fields are given,
	// each returned document holds only those fields and its identifier.
	// Unknown ids are skipped. Returned documents belong to the caller.
	FindEdges(ctx context.Context, ids []string, fields ...string) ([]Document, error)
}

// NodeStore is the node collection of a source document store.
type NodeStore interface {
	// FindNodes returns the nodes with the given ids. Unknown ids are
	// skipped. Returned documents belong to the caller.
	FindNodes(ctx context.Context, ids []string) ([]Document, error)
}

// Store is a source document store holding an edge and a node collection.
// String describes the store (client, database and collections) for
// diagnostics. Implementations must be safe for concurrent use.
type Store interface {
	EdgeStore
	NodeStore
	String() string
}

package kgx

import (
	"context"
)

// Processor normalizes a single document. Implementations may hold caches but
// must be safe to call concurrently and repeatedly.
type Processor interface {
	Process(doc Document) (Document, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(doc Document) (Document, error)

// Process calls f.
func (f ProcessorFunc) Process(doc Document) (Document, error) { return f(doc) }

// Chain is a Processor applying each of its Processors in order, feeding the
// output of one to the next.
type Chain []Processor

// Process implements Processor.
func (c Chain) Process(doc Document) (Document, error) {
	var err error
	for _, p := range c {
		doc, err = p.Process(doc)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// IdentityProcessor returns every document unchanged.
var IdentityProcessor = ProcessorFunc(func(doc Document) (Document, error) { return doc, nil })

// Sink writes documents into an index in bulk. Index returns the number of
// documents actually written. Errors are returned to the caller as-is.
type Sink interface {
	Index(ctx context.Context, docs []Document) (int, error)
}

// Batch is one slice of ids, numbered in dispatch order.
type Batch struct {
	Num int
	IDs []interface{}
}

// Engine resolves one batch of edge ids into indexed documents and returns
// the number of ids accounted for.
type Engine interface {
	ResolveBatch(ctx context.Context, batch Batch) (int, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, batch Batch) (int, error)

// ResolveBatch calls f.
func (f EngineFunc) ResolveBatch(ctx context.Context, batch Batch) (int, error) { return f(ctx, batch) }

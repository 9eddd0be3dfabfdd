package mock

import (
	"context"
	"sync"

	"github.com/pilosa/kgx"
)

// RecordingSink is a kgx.Sink which keeps every document it is given.
type RecordingSink struct {
	mu    sync.Mutex
	docs  map[string]kgx.Document
	calls int

	// Short, if positive, is subtracted from the count of every call, to
	// simulate a sink under-reporting.
	Short int
}

// Index implements kgx.Sink.
func (s *RecordingSink) Index(ctx context.Context, docs []kgx.Document) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs == nil {
		s.docs = make(map[string]kgx.Document)
	}
	s.calls++
	for _, d := range docs {
		s.docs[d.ID()] = d
	}
	return len(docs) - s.Short, nil
}

// Get returns the document indexed under id.
func (s *RecordingSink) Get(id string) (kgx.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	return d, ok
}

// Len returns the number of distinct documents indexed.
func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Calls returns the number of calls to Index.
func (s *RecordingSink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// FailingSink is a kgx.Sink which always returns Err.
type FailingSink struct {
	Err error
}

// Index implements kgx.Sink.
func (s FailingSink) Index(ctx context.Context, docs []kgx.Document) (int, error) {
	return 0, s.Err
}

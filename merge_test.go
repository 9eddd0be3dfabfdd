package kgx_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/pilosa/kgx"
	"github.com/pilosa/kgx/mock"
)

func exampleStore() *kgx.MapStore {
	s := kgx.NewMapStore()
	s.PutEdges(kgx.Document{"_id": "e1", "subject": "n1", "object": "n2"})
	s.PutNodes(
		kgx.Document{"_id": "n1", "name": "A"},
		kgx.Document{"_id": "n2", "name": "B"},
	)
	return s
}

func mergeAll(t *testing.T, m kgx.Merger, ids []string) ([]kgx.Document, int) {
	t.Helper()
	var docs []kgx.Document
	unresolved, err := m.Merge(context.Background(), ids, func(d kgx.Document) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		t.Fatalf("merging: %v", err)
	}
	return docs, unresolved
}

func TestMergeStrategies(t *testing.T) {
	exp := kgx.Document{
		"_id":     "e1",
		"subject": kgx.Document{"name": "A"},
		"object":  kgx.Document{"name": "B"},
	}
	for _, strategy := range []string{kgx.StrategyEager, kgx.StrategyLazy} {
		t.Run(strategy, func(t *testing.T) {
			m, err := kgx.NewMerger(strategy, exampleStore())
			if err != nil {
				t.Fatalf("getting merger: %v", err)
			}
			docs, unresolved := mergeAll(t, m, []string{"e1"})
			if len(docs) != 1 {
				t.Fatalf("expected 1 doc, got %v", docs)
			}
			if unresolved != 0 {
				t.Fatalf("unexpected unresolved count %d", unresolved)
			}
			if !reflect.DeepEqual(docs[0], exp) {
				t.Fatalf("unexpected merged edge:\n%#v\nexpected:\n%#v", docs[0], exp)
			}
		})
	}
}

func TestMergeMissingNode(t *testing.T) {
	for _, strategy := range []string{kgx.StrategyEager, kgx.StrategyLazy} {
		t.Run(strategy, func(t *testing.T) {
			s := kgx.NewMapStore()
			s.PutEdges(
				kgx.Document{"_id": "e1", "subject": "n1", "object": "n2"},
				kgx.Document{"_id": "e2", "subject": "n2", "object": "n1"},
				kgx.Document{"_id": "e3", "subject": "n1"},
			)
			s.PutNodes(kgx.Document{"_id": "n1", "name": "A"})
			cs := mock.NewCountingStore(s)
			m, err := kgx.NewMerger(strategy, cs)
			if err != nil {
				t.Fatalf("getting merger: %v", err)
			}
			docs, unresolved := mergeAll(t, m, []string{"e1", "e2", "e3"})
			if len(docs) != 3 {
				t.Fatalf("expected 3 docs, got %v", docs)
			}
			if unresolved != 3 {
				t.Fatalf("expected 3 unresolved references, got %d", unresolved)
			}
			if !kgx.Unresolved(docs[0], kgx.ObjectField) || kgx.Unresolved(docs[0], kgx.SubjectField) {
				t.Fatalf("unexpected e1: %#v", docs[0])
			}
			if !kgx.Unresolved(docs[1], kgx.SubjectField) {
				t.Fatalf("unexpected e2: %#v", docs[1])
			}
			if !kgx.Unresolved(docs[2], kgx.ObjectField) {
				t.Fatalf("absent reference should be unresolved: %#v", docs[2])
			}
			if v := docs[0][kgx.ObjectField]; v != nil {
				t.Fatalf("expected nil sentinel, got %#v", v)
			}
			if cs.NodeIDsQueried() != 2 {
				t.Fatalf("missing node should be queried once, queried %d ids", cs.NodeIDsQueried())
			}
		})
	}
}

func graphStore(edges int) (*kgx.MapStore, []string, int) {
	s := kgx.NewMapStore()
	ids := make([]string, edges)
	nodes := make(map[string]struct{})
	for i := 0; i < edges; i++ {
		subj := fmt.Sprintf("n%d", i%37)
		obj := fmt.Sprintf("n%d", (i*7)%53)
		ids[i] = fmt.Sprintf("e%d", i)
		s.PutEdges(kgx.Document{"_id": ids[i], "subject": subj, "object": obj, "predicate": "biolink:related_to"})
		nodes[subj] = struct{}{}
		nodes[obj] = struct{}{}
	}
	for n := range nodes {
		s.PutNodes(kgx.Document{"_id": n, "name": n})
	}
	return s, ids, len(nodes)
}

func TestEagerMergerQueryCount(t *testing.T) {
	for _, size := range []int{1, 2, 10, 100, 1000} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			s, ids, _ := graphStore(size)
			cs := mock.NewCountingStore(s)
			docs, unresolved := mergeAll(t, &kgx.EagerMerger{Store: cs}, ids)
			if len(docs) != size || unresolved != 0 {
				t.Fatalf("expected %d resolved docs, got %d with %d unresolved", size, len(docs), unresolved)
			}
			if lookups := cs.ProjectionQueries() + cs.NodeQueries(); lookups != 2 {
				t.Fatalf("expected 2 lookup queries, got %d", lookups)
			}
			if cs.NodeQueries() != 1 || cs.EdgeQueries() != 1 {
				t.Fatalf("expected one node and one edge query, got %d and %d", cs.NodeQueries(), cs.EdgeQueries())
			}
		})
	}
}

func TestLazyMergerQueryCount(t *testing.T) {
	for _, size := range []int{1, 10, 1000} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			s, ids, distinct := graphStore(size)
			cs := mock.NewCountingStore(s)
			docs, unresolved := mergeAll(t, &kgx.LazyMerger{Store: cs}, ids)
			if len(docs) != size || unresolved != 0 {
				t.Fatalf("expected %d resolved docs, got %d with %d unresolved", size, len(docs), unresolved)
			}
			if cs.NodeQueries() > distinct {
				t.Fatalf("%d node queries for %d distinct nodes", cs.NodeQueries(), distinct)
			}
			if cs.NodeQueries() > size {
				t.Fatalf("%d node queries for %d edges", cs.NodeQueries(), size)
			}
			if cs.NodeIDsQueried() != distinct {
				t.Fatalf("expected each of %d nodes queried once, queried %d ids", distinct, cs.NodeIDsQueried())
			}
		})
	}
}

func TestMergeStrategiesAgree(t *testing.T) {
	s, ids, _ := graphStore(200)
	s.PutEdges(kgx.Document{"_id": "dangling", "subject": "nowhere", "object": "n1"})
	ids = append(ids, "dangling", "not-an-edge")
	eager, _ := mergeAll(t, &kgx.EagerMerger{Store: s}, ids)
	lazy, _ := mergeAll(t, &kgx.LazyMerger{Store: s}, ids)
	if !reflect.DeepEqual(eager, lazy) {
		t.Fatalf("strategies disagree")
	}
}

func TestNewMergerUnknown(t *testing.T) {
	if _, err := kgx.NewMerger("bogus", kgx.NewMapStore()); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

package kgx_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/pilosa/kgx"
)

func TestDocumentLookup(t *testing.T) {
	d := kgx.Document{
		"_id":     "e1",
		"subject": kgx.Document{"name": "A", "xref": map[string]interface{}{"umls": "C001"}},
		"object":  nil,
	}
	tests := []struct {
		path string
		exp  interface{}
		ok   bool
	}{
		{path: "_id", exp: "e1", ok: true},
		{path: "subject.name", exp: "A", ok: true},
		{path: "subject.xref.umls", exp: "C001", ok: true},
		{path: "subject.missing", ok: false},
		{path: "object", exp: nil, ok: true},
		{path: "object.name", ok: false},
		{path: "_id.x", ok: false},
	}
	for _, tst := range tests {
		v, ok := d.Lookup(tst.path)
		if ok != tst.ok || !reflect.DeepEqual(v, tst.exp) {
			t.Errorf("lookup %s: expected %v/%v, got %v/%v", tst.path, tst.exp, tst.ok, v, ok)
		}
	}
}

func TestProject(t *testing.T) {
	d := kgx.Document{"_id": "e1", "subject": "n1", "object": "n2", "predicate": "biolink:treats"}
	p := kgx.Project(d, "subject", "object", "missing")
	exp := kgx.Document{"_id": "e1", "subject": "n1", "object": "n2"}
	if !reflect.DeepEqual(p, exp) {
		t.Fatalf("unexpected projection: %v", p)
	}

	c := kgx.Project(d)
	c["predicate"] = "biolink:causes"
	if d["predicate"] != "biolink:treats" {
		t.Fatalf("copy shares storage with original")
	}
	if d.ID() != "e1" || (kgx.Document{"_id": 3}).ID() != "" {
		t.Fatalf("unexpected ids")
	}
}

func TestMapStoreEdgeIDs(t *testing.T) {
	s := edgeStore(5)
	n, err := s.CountEdges(context.Background())
	if err != nil || n != 5 {
		t.Fatalf("counting edges: %d, %v", n, err)
	}
	p := s.EdgeIDs(context.Background(), 2)
	var all []interface{}
	for {
		batch, err := p.NextBatch()
		if err != nil {
			break
		}
		all = append(all, batch...)
	}
	exp := kgx.StringIDs([]string{"e000", "e001", "e002", "e003", "e004"})
	if !reflect.DeepEqual(all, exp) {
		t.Fatalf("unexpected ids: %v", all)
	}
}

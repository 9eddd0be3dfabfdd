// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package biolink

import (
	"reflect"
	"strings"
	"testing"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	m, err := LoadModelFile("testdata/biolink-model.yaml")
	if err != nil {
		t.Fatalf("loading model: %v", err)
	}
	return m
}

func TestModelAncestors(t *testing.T) {
	m := testModel(t)
	if m.Name != "biolink_model" || m.Version != "4.2.0" {
		t.Fatalf("unexpected model %s %s", m.Name, m.Version)
	}
	tests := []struct {
		name string
		exp  []string
	}{
		{name: "biolink:Gene", exp: []string{"Gene", "BiologicalEntity", "NamedThing", "Entity", "ThingWithTaxon"}},
		{name: "Gene", exp: []string{"Gene", "BiologicalEntity", "NamedThing", "Entity", "ThingWithTaxon"}},
		{name: "named thing", exp: []string{"NamedThing", "Entity"}},
		{name: "biolink:Drug", exp: []string{"Drug", "MolecularMixture", "ChemicalEntity", "NamedThing", "Entity"}},
		{name: "biolink:treats", exp: []string{"treats", "treats_or_applied_or_studied_to_treat", "related_to_at_instance_level", "related_to"}},
		{name: "related_to", exp: []string{"related_to"}},
		{name: "biolink:Unknown", exp: nil},
		{name: "", exp: nil},
	}
	for _, tst := range tests {
		if got := m.Ancestors(tst.name); !reflect.DeepEqual(got, tst.exp) {
			t.Errorf("ancestors of '%s': expected %v, got %v", tst.name, tst.exp, got)
		}
	}
}

func TestModelIsQualifier(t *testing.T) {
	m := testModel(t)
	for field, exp := range map[string]bool{
		"object_aspect_qualifier":    true,
		"object_direction_qualifier": true,
		"qualified_predicate":        true,
		"qualifier":                  false,
		"predicate":                  false,
		"primary_knowledge_source":   false,
		"not_a_slot":                 false,
	} {
		if got := m.IsQualifier(field); got != exp {
			t.Errorf("IsQualifier(%s): expected %v", field, exp)
		}
	}
}

func TestLoadModelInvalid(t *testing.T) {
	if _, err := LoadModel(strings.NewReader("classes: [1, 2")); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
	if _, err := LoadModelFile("testdata/nope.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if a := NewModel().Ancestors("biolink:Gene"); a != nil {
		t.Fatalf("empty model has ancestors %v", a)
	}
}

func TestAncestorCache(t *testing.T) {
	c := NewAncestorCache(testModel(t))
	first := c.Ancestors("biolink:Disease")
	second := c.Ancestors("biolink:Disease")
	if len(first) == 0 || !reflect.DeepEqual(first, second) {
		t.Fatalf("unexpected ancestors %v, %v", first, second)
	}
	c.Ancestors("biolink:Unknown")
	if c.Len() != 2 {
		t.Fatalf("expected 2 cached names, got %d", c.Len())
	}
	if NewAncestorCache(nil).Ancestors("biolink:Gene") != nil {
		t.Fatalf("nil model should have no ancestors")
	}
}

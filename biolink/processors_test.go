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
	"testing"

	"github.com/pilosa/kgx"
)

func TestCategoryList(t *testing.T) {
	doc, err := CategoryList.Process(kgx.Document{"category": []interface{}{"biolink:Gene", "Protein"}})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	if !reflect.DeepEqual(doc["category"], []string{"Gene", "Protein"}) {
		t.Fatalf("unexpected category %v", doc["category"])
	}
	if _, err := CategoryList.Process(kgx.Document{"category": "biolink:Gene"}); err == nil {
		t.Fatalf("expected error for non-list category")
	}
	if _, err := CategoryList.Process(kgx.Document{"name": "x"}); err != nil {
		t.Fatalf("absent category: %v", err)
	}
}

func TestCategory(t *testing.T) {
	p := Category(NewAncestorCache(testModel(t)))
	doc, err := p.Process(kgx.Document{"category": "biolink:Drug"})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	exp := []string{"ChemicalEntity", "Drug", "Entity", "MolecularMixture", "NamedThing"}
	if !reflect.DeepEqual(doc["all_categories"], exp) || doc["category"] != "Drug" {
		t.Fatalf("unexpected doc %v", doc)
	}

	doc, err = p.Process(kgx.Document{
		"category":       []interface{}{"biolink:Gene"},
		"all_categories": []interface{}{"biolink:Disease"},
	})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	exp = []string{"BiologicalEntity", "Disease", "DiseaseOrPhenotypicFeature", "Entity", "NamedThing", "ThingWithTaxon"}
	if !reflect.DeepEqual(doc["all_categories"], exp) {
		t.Fatalf("all_categories should take precedence: %v", doc["all_categories"])
	}
	if !reflect.DeepEqual(doc["category"], []string{"Gene"}) {
		t.Fatalf("unexpected category %v", doc["category"])
	}

	doc, _ = p.Process(kgx.Document{"name": "uncategorized"})
	if all, ok := doc["all_categories"].([]string); !ok || len(all) != 0 {
		t.Fatalf("expected empty all_categories, got %#v", doc["all_categories"])
	}
}

func TestQualifiers(t *testing.T) {
	p := Qualifiers(testModel(t))
	doc, err := p.Process(kgx.Document{
		"predicate":                  "biolink:affects",
		"object_direction_qualifier": "increased",
		"object_aspect_qualifier":    "activity",
	})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	exp := kgx.Document{
		"predicate": "biolink:affects",
		"qualifiers": []interface{}{
			map[string]interface{}{"type_id": "object_aspect_qualifier", "value": "activity"},
			map[string]interface{}{"type_id": "object_direction_qualifier", "value": "increased"},
		},
	}
	if !reflect.DeepEqual(doc, exp) {
		t.Fatalf("unexpected doc %#v", doc)
	}

	doc, _ = p.Process(kgx.Document{"predicate": "biolink:treats"})
	if _, ok := doc["qualifiers"]; ok {
		t.Fatalf("qualifiers added to unqualified edge")
	}
}

func TestSources(t *testing.T) {
	doc, err := Sources.Process(kgx.Document{
		"primary_knowledge_source":     "infores:drugcentral",
		"aggregator_knowledge_source":  []interface{}{"infores:rtx"},
		"supporting_data_source":       "infores:chembl",
		"sources": []interface{}{
			map[string]interface{}{"resource_role": "supporting_data_source", "resource_id": "infores:chembl"},
			map[string]interface{}{"resource_id": "infores:nobody"},
		},
	})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	exp := kgx.Document{
		"sources": []interface{}{
			map[string]interface{}{"resource_role": "supporting_data_source", "resource_id": "infores:chembl"},
			map[string]interface{}{"resource_id": "infores:nobody"},
			map[string]interface{}{"resource_role": "aggregator_knowledge_source", "resource_id": []interface{}{"infores:rtx"}},
			map[string]interface{}{"resource_role": "primary_knowledge_source", "resource_id": "infores:drugcentral"},
		},
		"source_inforeses": []string{"aggregator_knowledge_source", "primary_knowledge_source", "supporting_data_source"},
	}
	if !reflect.DeepEqual(doc, exp) {
		t.Fatalf("unexpected doc\n%#v\nexpected\n%#v", doc, exp)
	}

	doc, err = Sources.Process(kgx.Document{"_id": "e1"})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	if s, ok := doc["sources"].([]interface{}); !ok || len(s) != 0 {
		t.Fatalf("expected empty sources, got %#v", doc["sources"])
	}
	if _, err := Sources.Process(kgx.Document{"sources": "infores:x"}); err == nil {
		t.Fatalf("expected error for non-list sources")
	}
}

func TestPredicate(t *testing.T) {
	p := Predicate(NewAncestorCache(testModel(t)))
	doc, err := p.Process(kgx.Document{"predicate": "biolink:affects"})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	exp := kgx.Document{
		"predicate":           "affects",
		"predicate_ancestors": []string{"affects", "related_to_at_instance_level", "related_to"},
	}
	if !reflect.DeepEqual(doc, exp) {
		t.Fatalf("unexpected doc %#v", doc)
	}
	doc, _ = p.Process(kgx.Document{"predicate": "biolink:made_up"})
	if _, ok := doc["predicate_ancestors"]; ok || doc["predicate"] != "made_up" {
		t.Fatalf("unexpected doc for unknown predicate %#v", doc)
	}
}

func TestParseBool(t *testing.T) {
	for v, exp := range map[interface{}]bool{
		true: true, false: false, 1: true, 0: false, float64(1): true,
		" Yes ": true, "n": false, "ON": true, "0": false,
	} {
		got, err := ParseBool(v)
		if err != nil || got != exp {
			t.Errorf("ParseBool(%#v): %v, %v", v, got, err)
		}
	}
	for _, v := range []interface{}{2, 0.5, "maybe", []string{}} {
		if _, err := ParseBool(v); err == nil {
			t.Errorf("ParseBool(%#v): expected error", v)
		}
	}
	doc, err := BlackBoxWarning.Process(kgx.Document{"chembl_black_box_warning": "True"})
	if err != nil || doc["chembl_black_box_warning"] != true {
		t.Fatalf("unexpected warning %v, %v", doc, err)
	}
	if _, err := BlackBoxWarning.Process(kgx.Document{"chembl_black_box_warning": "sometimes"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPublications(t *testing.T) {
	doc, err := Publications.Process(kgx.Document{
		"publications": []interface{}{"PMID:1", "PMID:2"},
		"publications_info": map[string]interface{}{
			"PMID:1": map[string]interface{}{"publication date": "2001-01-01", "sentence": "X treats Y."},
		},
	})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	exp := []interface{}{
		map[string]interface{}{"publication_date": "2001-01-01", "sentence": "X treats Y.", "pmid": "PMID:1"},
		nil,
	}
	if !reflect.DeepEqual(doc["publications_info"], exp) {
		t.Fatalf("unexpected publications_info %#v", doc["publications_info"])
	}
	doc, err = Publications.Process(kgx.Document{"publications": []interface{}{"PMID:1"}})
	if err != nil || len(doc) != 1 {
		t.Fatalf("publications without info should be unchanged: %v, %v", doc, err)
	}
}

func TestEdgeProcessor(t *testing.T) {
	cache := NewAncestorCache(testModel(t))
	doc, err := EdgeProcessor(cache).Process(kgx.Document{
		"_id":                      "e1",
		"subject":                  kgx.Document{"name": "A"},
		"predicate":                "biolink:treats",
		"primary_knowledge_source": "infores:drugcentral",
		"qualified_predicate":      "biolink:causes",
	})
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	if doc["predicate"] != "treats" || doc["qualifiers"] == nil || doc["source_inforeses"] == nil {
		t.Fatalf("unexpected edge %#v", doc)
	}
	node, err := NodeProcessor(cache).Process(kgx.Document{
		"_id":                      "n1",
		"category":                 []interface{}{"biolink:Gene"},
		"chembl_black_box_warning": 0,
	})
	if err != nil {
		t.Fatalf("processing node: %v", err)
	}
	if node["chembl_black_box_warning"] != false || len(node["all_categories"].([]string)) != 5 {
		t.Fatalf("unexpected node %#v", node)
	}
}

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
	"sort"
	"strings"

	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
)

// Document fields read or written by the processors.
const (
	CategoryField        = "category"
	AllCategoriesField   = "all_categories"
	PredicateField       = "predicate"
	PredicateAncestors   = "predicate_ancestors"
	QualifiersField      = "qualifiers"
	SourcesField         = "sources"
	InforesesField       = "source_inforeses"
	BlackBoxWarningField = "chembl_black_box_warning"
	PublicationsField    = "publications"
	PublicationsInfo     = "publications_info"

	qualifierType  = "type_id"
	qualifierValue = "value"
	resourceRole   = "resource_role"
	resourceID     = "resource_id"
	pmidField      = "pmid"
	sourceSuffix   = "_source"
)

// NodeProcessor returns the processor applied to every node as it is loaded.
func NodeProcessor(cache *AncestorCache) kgx.Processor {
	return kgx.Chain{CategoryList, Category(cache), BlackBoxWarning}
}

// EdgeProcessor returns the processor applied to every merged edge before it
// is indexed.
func EdgeProcessor(cache *AncestorCache) kgx.Processor {
	return kgx.Chain{CategoryList, Qualifiers(cache.Model()), Sources, Predicate(cache), Publications}
}

// CategoryList strips the Biolink prefix from every entry of a document's
// category list. A category which is present but not a list of strings is an
// error.
var CategoryList = kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
	v, ok := doc[CategoryField]
	if !ok {
		return doc, nil
	}
	cats, ok := stringList(v)
	if !ok {
		return nil, errors.Errorf("%s must be a list of strings, got %T", CategoryField, v)
	}
	for i, c := range cats {
		cats[i] = RemovePrefix(c)
	}
	doc[CategoryField] = cats
	return doc, nil
})

// Category sets all_categories to the union of the ancestors of the
// document's categories. Existing all_categories take precedence over
// category as the reference. The prefix is stripped from category.
func Category(cache *AncestorCache) kgx.Processor {
	return kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
		ref := doc[CategoryField]
		if all, ok := stringList(doc[AllCategoriesField]); ok && len(all) > 0 {
			ref = all
		}
		set := make(map[string]struct{})
		switch rt := ref.(type) {
		case string:
			for _, a := range cache.Ancestors(rt) {
				set[a] = struct{}{}
			}
		default:
			refs, _ := stringList(rt)
			for _, r := range refs {
				for _, a := range cache.Ancestors(r) {
					set[a] = struct{}{}
				}
			}
		}
		all := make([]string, 0, len(set))
		for a := range set {
			all = append(all, a)
		}
		sort.Strings(all)
		doc[AllCategoriesField] = all

		switch ct := doc[CategoryField].(type) {
		case string:
			doc[CategoryField] = RemovePrefix(ct)
		default:
			if cats, ok := stringList(ct); ok {
				for i, c := range cats {
					cats[i] = RemovePrefix(c)
				}
				doc[CategoryField] = cats
			}
		}
		return doc, nil
	})
}

// Qualifiers moves every field which is a Biolink qualifier slot into the
// qualifiers list, as {type_id, value} pairs ordered by field name.
func Qualifiers(m *Model) kgx.Processor {
	return kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
		var fields []string
		for field := range doc {
			if m.IsQualifier(field) {
				fields = append(fields, field)
			}
		}
		if len(fields) == 0 {
			return doc, nil
		}
		sort.Strings(fields)
		quals := make([]interface{}, 0, len(fields))
		for _, field := range fields {
			quals = append(quals, map[string]interface{}{
				qualifierType:  field,
				qualifierValue: doc[field],
			})
			delete(doc, field)
		}
		doc[QualifiersField] = quals
		return doc, nil
	})
}

// Sources folds every *_source field into the sources list as a
// {resource_role, resource_id} entry, unless sources already has an entry for
// that role, and lists every role in sorted source_inforeses.
var Sources = kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
	var fields []string
	for field := range doc {
		if strings.HasSuffix(field, sourceSuffix) {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	pending := make(map[string]bool, len(fields))
	for _, f := range fields {
		pending[f] = true
	}

	sources := make([]interface{}, 0)
	switch st := doc[SourcesField].(type) {
	case nil:
	case []interface{}:
		sources = st
	case []map[string]interface{}:
		for _, s := range st {
			sources = append(sources, s)
		}
	default:
		return nil, errors.Errorf("%s must be a list, got %T", SourcesField, st)
	}

	roles := make(map[string]struct{})
	for _, s := range sources {
		role := roleOf(s)
		if role == "" {
			continue
		}
		if pending[role] {
			delete(pending, role)
			delete(doc, role)
		}
		roles[role] = struct{}{}
	}
	for _, f := range fields {
		if !pending[f] {
			continue
		}
		roles[f] = struct{}{}
		sources = append(sources, map[string]interface{}{
			resourceRole: f,
			resourceID:   doc[f],
		})
		delete(doc, f)
	}

	inforeses := make([]string, 0, len(roles))
	for r := range roles {
		inforeses = append(inforeses, r)
	}
	sort.Strings(inforeses)
	doc[SourcesField] = sources
	doc[InforesesField] = inforeses
	return doc, nil
})

func roleOf(source interface{}) string {
	m, _ := asMap(source)
	s, _ := m[resourceRole].(string)
	return s
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch vt := v.(type) {
	case map[string]interface{}:
		return vt, true
	case kgx.Document:
		return vt, true
	}
	return nil, false
}

// Predicate sets predicate_ancestors from the model and strips the prefix
// from predicate.
func Predicate(cache *AncestorCache) kgx.Processor {
	return kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
		pred, _ := doc[PredicateField].(string)
		if pred == "" {
			return doc, nil
		}
		if a := cache.Ancestors(pred); len(a) > 0 {
			doc[PredicateAncestors] = append([]string(nil), a...)
		}
		doc[PredicateField] = RemovePrefix(pred)
		return doc, nil
	})
}

// BlackBoxWarning parses chembl_black_box_warning into a bool.
var BlackBoxWarning = kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
	v, ok := doc[BlackBoxWarningField]
	if !ok || v == nil {
		return doc, nil
	}
	b, err := ParseBool(v)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", BlackBoxWarningField)
	}
	doc[BlackBoxWarningField] = b
	return doc, nil
})

// ParseBool parses bools, the integers 0 and 1, and the usual spellings of
// true and false.
func ParseBool(v interface{}) (bool, error) {
	switch vt := v.(type) {
	case bool:
		return vt, nil
	case int:
		return parseIntBool(int64(vt))
	case int64:
		return parseIntBool(vt)
	case float64:
		if vt != float64(int64(vt)) {
			return false, errors.Errorf("invalid int for bool: %v", vt)
		}
		return parseIntBool(int64(vt))
	case string:
		switch strings.ToLower(strings.TrimSpace(vt)) {
		case "true", "1", "yes", "y", "on":
			return true, nil
		case "false", "0", "no", "n", "off":
			return false, nil
		}
		return false, errors.Errorf("invalid boolean string: '%s'", vt)
	}
	return false, errors.Errorf("can't parse %T to bool: %v", v, v)
}

func parseIntBool(i int64) (bool, error) {
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.Errorf("invalid int for bool: %d", i)
}

// Publications replaces publications_info, a map from publication id to
// details, with a list of the details in the order of publications. Detail
// keys have spaces replaced by underscores and gain a pmid entry;
// publications without details become nil.
var Publications = kgx.ProcessorFunc(func(doc kgx.Document) (kgx.Document, error) {
	pv, ok := doc[PublicationsField]
	if !ok {
		return doc, nil
	}
	iv, ok := doc[PublicationsInfo]
	if !ok {
		return doc, nil
	}
	pmids, ok := stringList(pv)
	if !ok {
		return nil, errors.Errorf("%s must be a list of strings, got %T", PublicationsField, pv)
	}
	info, ok := asMap(iv)
	if !ok {
		return nil, errors.Errorf("%s must be a map, got %T", PublicationsInfo, iv)
	}
	flat := make([]interface{}, len(pmids))
	for i, pmid := range pmids {
		details, ok := asMap(info[pmid])
		if !ok {
			continue
		}
		entry := make(map[string]interface{}, len(details)+1)
		for k, v := range details {
			entry[strings.Replace(k, " ", "_", -1)] = v
		}
		entry[pmidField] = pmid
		flat[i] = entry
	}
	doc[PublicationsInfo] = flat
	return doc, nil
})

// stringList returns v as a fresh []string if it is a list of strings.
func stringList(v interface{}) ([]string, bool) {
	switch vt := v.(type) {
	case []string:
		return append([]string(nil), vt...), true
	case []interface{}:
		ret := make([]string, len(vt))
		for i, e := range vt {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			ret[i] = s
		}
		return ret, true
	}
	return nil, false
}

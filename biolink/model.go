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

// Package biolink normalizes knowledge graph documents using the class and
// slot hierarchy of the Biolink model.
package biolink

import (
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Prefix is the CURIE prefix of Biolink model elements.
const Prefix = "biolink:"

// RemovePrefix returns s without the Biolink CURIE prefix.
func RemovePrefix(s string) string {
	return strings.TrimPrefix(s, Prefix)
}

type element struct {
	IsA      string   `yaml:"is_a"`
	Mixins   []string `yaml:"mixins"`
	Mixin    bool     `yaml:"mixin"`
	Abstract bool     `yaml:"abstract"`
}

type modelFile struct {
	Name    string              `yaml:"name"`
	Version string              `yaml:"version"`
	Classes map[string]*element `yaml:"classes"`
	Slots   map[string]*element `yaml:"slots"`
}

type entry struct {
	name   string
	parent string
	mixins []string
}

// Model is the is_a and mixin hierarchy of Biolink classes and slots.
// Elements can be named in model form ("named thing"), CURIE form
// ("biolink:NamedThing", "biolink:related_to") or either without the prefix.
type Model struct {
	Name    string
	Version string

	classes map[string]entry
	slots   map[string]entry
}

// NewModel returns an empty Model, in which no element has ancestors.
func NewModel() *Model {
	return &Model{
		classes: make(map[string]entry),
		slots:   make(map[string]entry),
	}
}

// LoadModel parses a Biolink model YAML document.
func LoadModel(r io.Reader) (*Model, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading model")
	}
	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, errors.Wrap(err, "unmarshaling model")
	}
	m := NewModel()
	m.Name, m.Version = mf.Name, mf.Version
	for name, el := range mf.Classes {
		m.classes[normalize(name)] = newEntry(className(name), el)
	}
	for name, el := range mf.Slots {
		m.slots[normalize(name)] = newEntry(slotName(name), el)
	}
	return m, nil
}

// LoadModelFile parses the Biolink model YAML file at path.
func LoadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening model file")
	}
	defer f.Close()
	m, err := LoadModel(f)
	return m, errors.Wrapf(err, "loading %s", path)
}

func newEntry(name string, el *element) entry {
	e := entry{name: name}
	if el != nil {
		e.parent = normalize(el.IsA)
		for _, mx := range el.Mixins {
			e.mixins = append(e.mixins, normalize(mx))
		}
	}
	return e
}

// Ancestors returns name and all its ancestors through is_a and mixins,
// without prefix, starting with name itself. Classes are named in CamelCase,
// slots in snake_case. It returns nil for unknown elements.
func (m *Model) Ancestors(name string) []string {
	key := normalize(name)
	elems := m.classes
	if isSlotName(name) {
		elems = m.slots
	}
	if _, ok := elems[key]; !ok {
		if _, ok := m.classes[key]; ok {
			elems = m.classes
		} else if _, ok := m.slots[key]; ok {
			elems = m.slots
		} else {
			return nil
		}
	}
	var ret []string
	seen := make(map[string]bool)
	var visit func(key string)
	visit = func(key string) {
		e, ok := elems[key]
		if !ok || seen[key] {
			return
		}
		seen[key] = true
		ret = append(ret, e.name)
		visit(e.parent)
		for _, mx := range e.mixins {
			visit(mx)
		}
	}
	visit(key)
	return ret
}

// IsQualifier reports whether field names a slot descending from the
// qualifier slot.
func (m *Model) IsQualifier(field string) bool {
	key := normalize(field)
	if key == "qualifier" {
		return false
	}
	seen := make(map[string]bool)
	for {
		e, ok := m.slots[key]
		if !ok || seen[key] {
			return false
		}
		seen[key] = true
		if e.parent == "qualifier" {
			return true
		}
		key = e.parent
	}
}

// normalize maps every accepted spelling of an element name to one key.
func normalize(name string) string {
	name = strings.ToLower(RemovePrefix(name))
	return strings.NewReplacer(" ", "", "_", "").Replace(name)
}

func isSlotName(name string) bool {
	name = RemovePrefix(name)
	return name != "" && (strings.ContainsAny(name, "_ ") || strings.ToLower(name[:1]) == name[:1])
}

func className(name string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(name) {
		sb.WriteString(strings.ToUpper(word[:1]))
		sb.WriteString(word[1:])
	}
	return sb.String()
}

func slotName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

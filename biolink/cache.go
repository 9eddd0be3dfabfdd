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
	"fmt"
	"sync"
)

// AncestorCache memoizes Model.Ancestors. It is safe for concurrent use and
// is meant to live for one indexing run.
type AncestorCache struct {
	model *Model

	mu        sync.RWMutex
	ancestors map[string][]string
}

// NewAncestorCache returns an empty cache over m.
func NewAncestorCache(m *Model) *AncestorCache {
	if m == nil {
		m = NewModel()
	}
	return &AncestorCache{
		model:     m,
		ancestors: make(map[string][]string),
	}
}

// Model returns the model the cache looks ancestors up in.
func (c *AncestorCache) Model() *Model { return c.model }

// Ancestors returns the ancestors of name. The returned slice is shared and
// must not be modified.
func (c *AncestorCache) Ancestors(name string) []string {
	c.mu.RLock()
	a, ok := c.ancestors[name]
	c.mu.RUnlock()
	if ok {
		return a
	}
	a = c.model.Ancestors(name)
	c.mu.Lock()
	c.ancestors[name] = a
	c.mu.Unlock()
	return a
}

// Len returns the number of names cached.
func (c *AncestorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ancestors)
}

func (c *AncestorCache) String() string {
	return fmt.Sprintf("ancestor cache (%d names, model %s %s)", c.Len(), c.model.Name, c.model.Version)
}

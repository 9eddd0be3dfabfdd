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

// Package boltdb holds a kgx.Store backed by a bolt database.
package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
)

// Default bucket names.
const (
	DefaultEdgeBucket = "edges"
	DefaultNodeBucket = "nodes"
)

// MissingNodeCollectionError is returned by Store.Check when the database has
// no node bucket.
type MissingNodeCollectionError struct {
	Bucket     string
	Discovered []string
	Path       string
}

func (e *MissingNodeCollectionError) Error() string {
	return fmt.Sprintf("missing node collection '%s' in database %s, found %v", e.Bucket, e.Path, e.Discovered)
}

// Store holds edges and nodes as JSON documents in two buckets, keyed by
// their identifier. It implements kgx.Store.
type Store struct {
	Db *bolt.DB

	path  string
	edges []byte
	nodes []byte
}

// StoreOption is a functional option type for Store.
type StoreOption func(s *Store)

// OptEdgeBucket sets the name of the bucket holding edges.
func OptEdgeBucket(name string) StoreOption {
	return func(s *Store) {
		s.edges = []byte(name)
	}
}

// OptNodeBucket sets the name of the bucket holding nodes.
func OptNodeBucket(name string) StoreOption {
	return func(s *Store) {
		s.nodes = []byte(name)
	}
}

// Open opens (creating if necessary) the bolt database at filename. Buckets
// are created on first write.
func Open(filename string, opts ...StoreOption) (s *Store, err error) {
	s = &Store{
		path:  filename,
		edges: []byte(DefaultEdgeBucket),
		nodes: []byte(DefaultNodeBucket),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, InitialMmapSize: 50000000, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	s.Db.MaxBatchDelay = 400 * time.Microsecond
	return s, nil
}

// Close syncs and closes the underlying boltdb.
func (s *Store) Close() error {
	err := s.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return s.Db.Close()
}

// Check verifies that both the edge and the node bucket exist.
func (s *Store) Check() error {
	var discovered []string
	err := s.Db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			discovered = append(discovered, string(name))
			return nil
		})
	})
	if err != nil {
		return errors.Wrap(err, "listing buckets")
	}
	sort.Strings(discovered)
	has := func(name []byte) bool {
		for _, d := range discovered {
			if d == string(name) {
				return true
			}
		}
		return false
	}
	if !has(s.edges) {
		return errors.Errorf("missing edge collection '%s' in database %s", s.edges, s.path)
	}
	if !has(s.nodes) {
		return &MissingNodeCollectionError{Bucket: string(s.nodes), Discovered: discovered, Path: s.path}
	}
	return nil
}

// PutEdges writes edges, replacing any with the same identifier.
func (s *Store) PutEdges(docs []kgx.Document) error {
	return errors.Wrap(s.put(s.edges, docs), "putting edges")
}

// PutNodes writes nodes, replacing any with the same identifier.
func (s *Store) PutNodes(docs []kgx.Document) error {
	return errors.Wrap(s.put(s.nodes, docs), "putting nodes")
}

func (s *Store) put(bucket []byte, docs []kgx.Document) error {
	vals := make([][]byte, len(docs))
	for i, d := range docs {
		if d.ID() == "" {
			return errors.Errorf("document %d has no %s", i, kgx.IDField)
		}
		val, err := json.Marshal(d)
		if err != nil {
			return errors.Wrapf(err, "marshaling '%s'", d.ID())
		}
		vals[i] = val
	}
	return s.Db.Batch(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return errors.Wrapf(err, "creating %s bucket", bucket)
		}
		for i, d := range docs {
			err = b.Put([]byte(d.ID()), vals[i])
			if err != nil {
				return errors.Wrapf(err, "inserting '%s'", d.ID())
			}
		}
		return nil
	})
}

// CountEdges implements kgx.EdgeStore.
func (s *Store) CountEdges(ctx context.Context) (n int, err error) {
	err = s.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.edges)
		if b == nil {
			return errors.Errorf("no bucket '%s'", s.edges)
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, errors.Wrap(err, "counting edges")
}

// EdgeIDs implements kgx.EdgeStore. Each page is read in its own
// transaction, resuming after the last key of the previous page, so edges
// written during a run may or may not be seen.
func (s *Store) EdgeIDs(ctx context.Context, pageSize int) kgx.IDProvider {
	if pageSize < 1 {
		pageSize = 1
	}
	return &idFeeder{store: s, ctx: ctx, size: pageSize}
}

// FindEdges implements kgx.EdgeStore.
func (s *Store) FindEdges(ctx context.Context, ids []string, fields ...string) ([]kgx.Document, error) {
	docs, err := s.find(ctx, s.edges, ids, fields)
	return docs, errors.Wrap(err, "finding edges")
}

// FindNodes implements kgx.NodeStore.
func (s *Store) FindNodes(ctx context.Context, ids []string) ([]kgx.Document, error) {
	docs, err := s.find(ctx, s.nodes, ids, nil)
	return docs, errors.Wrap(err, "finding nodes")
}

func (s *Store) find(ctx context.Context, bucket []byte, ids []string, fields []string) (docs []kgx.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs = make([]kgx.Document, 0, len(ids))
	err = s.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return errors.Errorf("no bucket '%s'", bucket)
		}
		for _, id := range ids {
			val := b.Get([]byte(id))
			if val == nil {
				continue
			}
			var d kgx.Document
			if err := json.Unmarshal(val, &d); err != nil {
				return errors.Wrapf(err, "unmarshaling '%s'", id)
			}
			if len(fields) > 0 {
				d = kgx.Project(d, fields...)
			}
			docs = append(docs, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) String() string {
	return fmt.Sprintf("bolt %s (edges=%s nodes=%s)", s.path, s.edges, s.nodes)
}

type idFeeder struct {
	store *Store
	ctx   context.Context
	size  int
	last  []byte
	done  bool
}

func (f *idFeeder) NextBatch() ([]interface{}, error) {
	if f.done {
		return nil, io.EOF
	}
	if err := f.ctx.Err(); err != nil {
		return nil, err
	}
	batch := make([]interface{}, 0, f.size)
	err := f.store.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(f.store.edges)
		if b == nil {
			return errors.Errorf("no bucket '%s'", f.store.edges)
		}
		c := b.Cursor()
		var k []byte
		if f.last == nil {
			k, _ = c.First()
		} else {
			k, _ = c.Seek(f.last)
			if k != nil && bytes.Equal(k, f.last) {
				k, _ = c.Next()
			}
		}
		for ; k != nil && len(batch) < f.size; k, _ = c.Next() {
			batch = append(batch, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading edge ids")
	}
	if len(batch) == 0 {
		f.done = true
		return nil, io.EOF
	}
	f.last = []byte(batch[len(batch)-1].(string))
	return batch, nil
}

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

// Package leveldb holds a kgx.Sink which keeps indexed documents in a local
// leveldb database.
package leveldb

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ kgx.Sink = &Sink{}

// Sink is a kgx.Sink which stores each document as JSON under its
// identifier. Every call to Index is written in a single batch; documents
// already present are replaced.
type Sink struct {
	db      *leveldb.DB
	dirname string
	sync    bool
}

// SinkOption is a functional option type for Sink.
type SinkOption func(s *Sink)

// OptSinkSync makes every batch write wait for the data to reach disk.
func OptSinkSync(sync bool) SinkOption {
	return func(s *Sink) {
		s.sync = sync
	}
}

// NewSink opens (creating if necessary) the leveldb database in dirname.
func NewSink(dirname string, opts ...SinkOption) (*Sink, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	s := &Sink{dirname: dirname}
	for _, opt := range opts {
		opt(s)
	}
	s.db, err = leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	return s, nil
}

// Index implements kgx.Sink. Documents without an identifier are skipped and
// not counted.
func (s *Sink) Index(ctx context.Context, docs []kgx.Document) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	batch := new(leveldb.Batch)
	for _, d := range docs {
		id := d.ID()
		if id == "" {
			continue
		}
		val, err := json.Marshal(d)
		if err != nil {
			return 0, errors.Wrapf(err, "marshaling '%s'", id)
		}
		batch.Put([]byte(id), val)
	}
	if batch.Len() == 0 {
		return 0, nil
	}
	err := s.db.Write(batch, &opt.WriteOptions{Sync: s.sync})
	if err != nil {
		return 0, errors.Wrap(err, "writing batch")
	}
	return batch.Len(), nil
}

// Get returns the document stored under id. The cause of the error is
// leveldb.ErrNotFound if there is none.
func (s *Sink) Get(id string) (kgx.Document, error) {
	data, err := s.db.Get([]byte(id), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "getting '%s'", id)
	}
	var d kgx.Document
	err = json.Unmarshal(data, &d)
	if err != nil {
		return nil, errors.Wrapf(err, "unmarshaling '%s'", id)
	}
	return d, nil
}

// Len returns the number of stored documents.
func (s *Sink) Len() (int, error) {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n, errors.Wrap(it.Error(), "iterating")
}

// Close closes the underlying leveldb.
func (s *Sink) Close() error {
	return errors.Wrap(s.db.Close(), "closing leveldb")
}

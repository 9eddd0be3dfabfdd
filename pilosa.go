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

package kgx

import (
	"context"
	"io"
	"strings"
	"time"

	gopilosa "github.com/pilosa/go-pilosa"
	"github.com/pkg/errors"
)

// PilosaSink is a Sink which indexes documents in a keyed Pilosa index. Each
// configured document path (e.g. "predicate" or "subject.category") becomes a
// keyed set field; the row key is the value found at the path and the column
// key is the document identifier. Values may be strings or lists of strings;
// anything else is ignored.
type PilosaSink struct {
	client    *gopilosa.Client
	index     *gopilosa.Index
	batchSize int

	paths  []string
	fields []*gopilosa.Field
}

// NewPilosaSink connects to the Pilosa cluster at hosts, and creates the index
// and one field per path if they do not exist yet.
func NewPilosaSink(hosts []string, indexName string, paths []string, batchSize uint) (*PilosaSink, error) {
	if len(paths) == 0 {
		return nil, errors.New("no document paths to index in pilosa")
	}
	client, err := gopilosa.NewClient(hosts,
		gopilosa.OptClientSocketTimeout(time.Minute*60),
		gopilosa.OptClientConnectTimeout(time.Second*60))
	if err != nil {
		return nil, errors.Wrap(err, "creating pilosa cluster client")
	}
	schema, err := client.Schema()
	if err != nil {
		return nil, errors.Wrap(err, "getting schema")
	}
	s := &PilosaSink{
		client:    client,
		index:     schema.Index(indexName, gopilosa.OptIndexKeys(true)),
		batchSize: int(batchSize),
		paths:     paths,
	}
	for _, path := range paths {
		field := s.index.Field(PilosaFieldName(path), gopilosa.OptFieldTypeSet(gopilosa.CacheTypeRanked, 100000), gopilosa.OptFieldKeys(true))
		s.fields = append(s.fields, field)
	}
	err = client.SyncSchema(schema)
	if err != nil {
		return nil, errors.Wrap(err, "synchronizing schema")
	}
	return s, nil
}

// Index implements Sink. Every document with an identifier counts as written.
func (s *PilosaSink) Index(ctx context.Context, docs []Document) (int, error) {
	for i, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		records := PilosaColumns(docs, path)
		if len(records) == 0 {
			continue
		}
		err := s.client.ImportField(s.fields[i], &sliceRecordIterator{records: records}, gopilosa.OptImportBatchSize(s.batchSize))
		if err != nil {
			return 0, errors.Wrapf(err, "importing field '%s'", s.fields[i].Name())
		}
	}
	n := 0
	for _, d := range docs {
		if d.ID() != "" {
			n++
		}
	}
	return n, nil
}

// PilosaFieldName turns a document path into a valid Pilosa field name.
func PilosaFieldName(path string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(path) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	name := sb.String()
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = "f" + name
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

// PilosaColumns returns one keyed column per value found at path in each
// document which has an identifier.
func PilosaColumns(docs []Document, path string) []gopilosa.Record {
	records := make([]gopilosa.Record, 0, len(docs))
	for _, d := range docs {
		id := d.ID()
		if id == "" {
			continue
		}
		v, ok := d.Lookup(path)
		if !ok {
			continue
		}
		switch vt := v.(type) {
		case string:
			records = append(records, gopilosa.Column{RowKey: vt, ColumnKey: id})
		case []string:
			for _, s := range vt {
				records = append(records, gopilosa.Column{RowKey: s, ColumnKey: id})
			}
		case []interface{}:
			for _, e := range vt {
				if s, ok := e.(string); ok {
					records = append(records, gopilosa.Column{RowKey: s, ColumnKey: id})
				}
			}
		}
	}
	return records
}

type sliceRecordIterator struct {
	records []gopilosa.Record
	pos     int
}

func (it *sliceRecordIterator) NextRecord() (gopilosa.Record, error) {
	if it.pos >= len(it.records) {
		return nil, io.EOF
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, nil
}

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

package load

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/pilosa/kgx"
	"github.com/pkg/errors"
)

// Source reads documents from a file of line separated JSON objects.
type Source struct {
	name   string
	dec    *json.Decoder
	closer io.Closer
	genID  bool
	index  int
}

// NewSource gets a new Source which will decode from the given reader. If
// genID is set, each document gets an identifier: the string form of its id
// field, or else its position among the non-empty documents read.
func NewSource(r io.Reader, name string, genID bool) *Source {
	return &Source{
		name:  name,
		dec:   json.NewDecoder(bufio.NewReaderSize(r, 1<<20)),
		genID: genID,
	}
}

// OpenSource opens the JSON lines file at path. If path.gz exists, it is read
// instead and decompressed.
func OpenSource(path string, genID bool) (*Source, error) {
	gzPath := path + ".gz"
	if _, err := os.Stat(gzPath); err == nil {
		f, err := os.Open(gzPath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", gzPath)
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "reading gzip header of %s", gzPath)
		}
		s := NewSource(zr, gzPath, genID)
		s.closer = multiCloser{zr, f}
		return s, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	s := NewSource(f, path, genID)
	s.closer = f
	return s, nil
}

// Name returns the name of the file being read.
func (s *Source) Name() string { return s.name }

// Next returns the next non-empty document, or io.EOF.
func (s *Source) Next() (kgx.Document, error) {
	for {
		var d kgx.Document
		err := s.dec.Decode(&d)
		if err == io.EOF {
			return nil, io.EOF
		} else if err != nil {
			return nil, errors.Wrapf(err, "decoding document %d of %s", s.index, s.name)
		}
		if len(d) == 0 {
			continue
		}
		if s.genID {
			if id, ok := d["id"]; ok {
				d[kgx.IDField] = idString(id)
			} else {
				d[kgx.IDField] = strconv.Itoa(s.index)
			}
		}
		s.index++
		return d, nil
	}
}

// Close closes the underlying file.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func idString(id interface{}) string {
	switch it := id.(type) {
	case string:
		return it
	case float64:
		return strconv.FormatFloat(it, 'f', -1, 64)
	default:
		return fmt.Sprint(it)
	}
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

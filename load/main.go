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

// Package load reads knowledge graph dumps of line separated JSON nodes and
// edges into a bolt store which the index command can then read from.
package load

import (
	"io"
	"path/filepath"
	"time"

	"github.com/pilosa/kgx"
	"github.com/pilosa/kgx/biolink"
	"github.com/pilosa/kgx/boltdb"
	"github.com/pkg/errors"
)

// Default buffer sizes for writes into the store.
const (
	NodeBufferSize = 4096
	EdgeBufferSize = 2048
)

// Main holds the options for loading a dump directory.
type Main struct {
	Dir          string `help:"Directory holding nodes.jsonl and edges.jsonl (optionally gzipped)."`
	Bolt         string `help:"Path of the bolt database to write."`
	EdgeBucket   string `help:"Bucket to store edges in."`
	NodeBucket   string `help:"Bucket to store nodes in."`
	BiolinkModel string `help:"Path of a biolink model YAML file used to compute node categories."`
	NodeBuffer   int    `help:"Number of nodes written per transaction."`
	EdgeBuffer   int    `help:"Number of edges written per transaction."`
	LogPath      string `help:"Log file to write to. Empty means stderr."`
	Verbose      bool   `help:"Enable verbose logging."`

	nodes, edges int
}

// NewMain gets a new Main with default values.
func NewMain() *Main {
	return &Main{
		Dir:        ".",
		Bolt:       "kgx.db",
		EdgeBucket: boltdb.DefaultEdgeBucket,
		NodeBucket: boltdb.DefaultNodeBucket,
		NodeBuffer: NodeBufferSize,
		EdgeBuffer: EdgeBufferSize,
	}
}

// Loaded returns the number of nodes and edges written by the last Run.
func (m *Main) Loaded() (nodes, edges int) {
	return m.nodes, m.edges
}

// Run loads nodes, then edges, into the bolt store.
func (m *Main) Run() (err error) {
	log, logFile, err := kgx.OpenLog(m.LogPath, m.Verbose)
	if err != nil {
		return errors.Wrap(err, "opening log")
	}
	defer logFile.Close()
	if m.NodeBuffer <= 0 || m.EdgeBuffer <= 0 {
		return errors.New("buffer sizes must be positive")
	}

	model := biolink.NewModel()
	if m.BiolinkModel != "" {
		model, err = biolink.LoadModelFile(m.BiolinkModel)
		if err != nil {
			return errors.Wrap(err, "loading biolink model")
		}
	}
	cache := biolink.NewAncestorCache(model)

	store, err := boltdb.Open(m.Bolt, boltdb.OptEdgeBucket(m.EdgeBucket), boltdb.OptNodeBucket(m.NodeBucket))
	if err != nil {
		return errors.Wrap(err, "opening bolt db")
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing bolt db")
		}
	}()

	start := time.Now()
	m.nodes, err = loadFile(filepath.Join(m.Dir, "nodes.jsonl"), m.NodeBuffer, biolink.NodeProcessor(cache), store.PutNodes, log)
	if err != nil {
		return errors.Wrap(err, "loading nodes")
	}
	log.Printf("loaded %d nodes into %s in %v", m.nodes, store, time.Since(start))

	start = time.Now()
	m.edges, err = loadFile(filepath.Join(m.Dir, "edges.jsonl"), m.EdgeBuffer, kgx.IdentityProcessor, store.PutEdges, log)
	if err != nil {
		return errors.Wrap(err, "loading edges")
	}
	log.Printf("loaded %d edges into %s in %v", m.edges, store, time.Since(start))
	log.Debugf("ancestor cache after load: %s", cache)
	return nil
}

func loadFile(path string, size int, proc kgx.Processor, put func([]kgx.Document) error, log kgx.Logger) (n int, err error) {
	src, err := OpenSource(path, true)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	buf := make([]kgx.Document, 0, size)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := put(buf); err != nil {
			return errors.Wrapf(err, "writing %d documents from %s", len(buf), src.Name())
		}
		n += len(buf)
		log.Debugf("wrote %d documents from %s", n, src.Name())
		buf = buf[:0]
		return nil
	}
	for {
		doc, err := src.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return n, err
		}
		id := doc.ID()
		doc, err = proc.Process(doc)
		if err != nil {
			return n, errors.Wrapf(err, "processing %s", id)
		}
		buf = append(buf, doc)
		if len(buf) == size {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	return n, flush()
}

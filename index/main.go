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

// Package index merges every edge of a graph store with its subject and
// object nodes and writes the merged documents to the configured sinks.
package index

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pilosa/kgx"
	"github.com/pilosa/kgx/aws/s3"
	"github.com/pilosa/kgx/biolink"
	"github.com/pilosa/kgx/boltdb"
	"github.com/pilosa/kgx/kafka"
	"github.com/pilosa/kgx/leveldb"
	"github.com/pilosa/kgx/termstat"
	"github.com/pkg/errors"
)

// Main holds the options for an indexing run.
type Main struct {
	Bolt         string   `help:"Path of the bolt database holding edges and nodes."`
	EdgeBucket   string   `help:"Bucket holding edges."`
	NodeBucket   string   `help:"Bucket holding nodes."`
	Strategy     string   `help:"Merge strategy: eager or lazy."`
	BatchSize    int      `help:"Number of edges per batch."`
	Concurrency  int      `help:"Number of batches resolved concurrently."`
	IDs          []string `help:"Index only these edge ids instead of every edge in the store."`
	PilosaHosts  []string `help:"Pilosa hosts to index into. Empty disables the pilosa sink."`
	Index        string   `help:"Pilosa index name."`
	PilosaPaths  []string `help:"Document paths indexed as pilosa fields."`
	LevelDB      string   `help:"Directory of a leveldb document index. Empty disables it."`
	KafkaHosts   []string `help:"Kafka brokers to publish merged edges to. Empty disables the kafka sink."`
	KafkaTopic   string   `help:"Kafka topic for merged edges."`
	S3Bucket     string   `help:"S3 bucket to write merged edges to. Empty disables the s3 sink."`
	S3Prefix     string   `help:"Key prefix of S3 objects."`
	S3Region     string   `help:"AWS region of the S3 bucket."`
	BiolinkModel string   `help:"Path of a biolink model YAML file."`
	LogPath      string   `help:"Log file to write to. Empty means stderr."`
	Verbose      bool     `help:"Enable verbose logging."`
	Stats        bool     `help:"Print running counts to stderr."`

	result  kgx.Result
	closers []io.Closer
}

// NewMain gets a new Main with default values.
func NewMain() *Main {
	return &Main{
		Bolt:        "kgx.db",
		EdgeBucket:  boltdb.DefaultEdgeBucket,
		NodeBucket:  boltdb.DefaultNodeBucket,
		Strategy:    kgx.StrategyEager,
		BatchSize:   1000,
		Concurrency: 4,
		Index:       "kgx",
		PilosaPaths: []string{"predicate", "subject.category", "object.category", "primary_knowledge_source"},
		KafkaTopic:  "kgx",
		S3Prefix:    "kgx/",
		S3Region:    "us-east-1",
	}
}

// Result returns the result of the last run.
func (m *Main) Result() kgx.Result {
	return m.result
}

// Run indexes until every edge is written or the first failure.
func (m *Main) Run() error {
	return m.RunContext(context.Background())
}

// RunContext is Run with a context which aborts the run when cancelled.
func (m *Main) RunContext(ctx context.Context) (err error) {
	log, logFile, err := kgx.OpenLog(m.LogPath, m.Verbose)
	if err != nil {
		return errors.Wrap(err, "opening log")
	}
	m.closers = append(m.closers, logFile)
	defer func() {
		if cerr := m.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if m.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if m.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
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
	m.closers = append(m.closers, store)
	if err = store.Check(); err != nil {
		return errors.Wrap(err, "checking store")
	}

	merger, err := kgx.NewMerger(m.Strategy, store)
	if err != nil {
		return errors.Wrap(err, "getting merger")
	}
	sink, err := m.setupSinks()
	if err != nil {
		return errors.Wrap(err, "setting up sinks")
	}

	var stats kgx.Statter = kgx.NopStatter{}
	if m.Stats {
		collector := termstat.NewCollector(os.Stderr, 2*time.Second)
		defer collector.Stop()
		stats = collector
	}

	var total int
	var ids kgx.IDProvider
	if len(m.IDs) > 0 {
		total = len(m.IDs)
		ids = kgx.NewSliceProvider(kgx.StringIDs(m.IDs), m.BatchSize)
	} else {
		total, err = store.CountEdges(ctx)
		if err != nil {
			return errors.Wrap(err, "counting edges")
		}
		ids = store.EdgeIDs(ctx, m.BatchSize)
	}

	worker := kgx.NewWorker(merger, sink,
		kgx.OptWorkerProcessor(biolink.EdgeProcessor(cache)),
		kgx.OptWorkerLogger(log),
		kgx.OptWorkerStatter(stats),
	)
	scheduler := kgx.NewScheduler(kgx.NewPool(m.Concurrency), worker,
		kgx.OptSchedulerLogger(log),
		kgx.OptSchedulerStatter(stats),
		kgx.OptSchedulerDescribe(store.String()),
	)

	log.Printf("indexing %d edges from %s in batches of %d with the %s strategy", total, store, m.BatchSize, m.Strategy)
	start := time.Now()
	m.result, err = scheduler.Run(ctx, total, m.BatchSize, ids)
	if err != nil {
		return errors.Wrapf(err, "indexing after %d of %d edges", m.result.Count, total)
	}
	log.Printf("indexed %d edges in %d batches in %v", m.result.Count, m.result.Batches, time.Since(start))
	log.Debugf("ancestor cache after run: %s", cache)
	return nil
}

func (m *Main) setupSinks() (kgx.Sink, error) {
	var sinks kgx.Tee
	if len(m.PilosaHosts) > 0 {
		ps, err := kgx.NewPilosaSink(m.PilosaHosts, m.Index, m.PilosaPaths, uint(m.BatchSize))
		if err != nil {
			return nil, errors.Wrap(err, "setting up pilosa")
		}
		sinks = append(sinks, ps)
	}
	if m.LevelDB != "" {
		ls, err := leveldb.NewSink(m.LevelDB)
		if err != nil {
			return nil, errors.Wrap(err, "opening leveldb")
		}
		m.closers = append(m.closers, ls)
		sinks = append(sinks, ls)
	}
	if len(m.KafkaHosts) > 0 {
		ks, err := kafka.NewSink(m.KafkaHosts, m.KafkaTopic)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to kafka")
		}
		m.closers = append(m.closers, ks)
		sinks = append(sinks, ks)
	}
	if m.S3Bucket != "" {
		ss, err := s3.NewSink(s3.OptSinkBucket(m.S3Bucket), s3.OptSinkPrefix(m.S3Prefix), s3.OptSinkRegion(m.S3Region))
		if err != nil {
			return nil, errors.Wrap(err, "setting up s3")
		}
		sinks = append(sinks, ss)
	}
	switch len(sinks) {
	case 0:
		return nil, errors.New("no sinks configured")
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

func (m *Main) close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && first == nil {
			first = errors.Wrap(err, "closing")
		}
	}
	m.closers = nil
	return first
}

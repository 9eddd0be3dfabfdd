package kgx

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Worker is the Engine which denormalizes one batch of edges. It validates
// the batch ids, merges subject and object nodes into each edge, normalizes
// each edge with its Processor and writes the batch to its Sink in one bulk
// call. A Worker holds no per-batch state and may resolve batches
// concurrently; each batch gets its own NodeCache inside the Merger.
type Worker struct {
	merger    Merger
	sink      Sink
	processor Processor
	valid     IDPredicate
	log       Logger
	stats     Statter
}

// WorkerOption is a functional option type for Worker.
type WorkerOption func(w *Worker)

// OptWorkerProcessor sets the Processor applied to each merged edge.
func OptWorkerProcessor(p Processor) WorkerOption {
	return func(w *Worker) {
		w.processor = p
	}
}

// OptWorkerIDPredicate sets the predicate deciding which ids are indexable.
func OptWorkerIDPredicate(valid IDPredicate) WorkerOption {
	return func(w *Worker) {
		w.valid = valid
	}
}

// OptWorkerLogger sets the Worker's Logger.
func OptWorkerLogger(l Logger) WorkerOption {
	return func(w *Worker) {
		w.log = l
	}
}

// OptWorkerStatter sets the Worker's Statter.
func OptWorkerStatter(s Statter) WorkerOption {
	return func(w *Worker) {
		w.stats = s
	}
}

// NewWorker returns a Worker merging with m and writing to s.
func NewWorker(m Merger, s Sink, opts ...WorkerOption) *Worker {
	w := &Worker{
		merger:    m,
		sink:      s,
		processor: IdentityProcessor,
		valid:     DefaultIDPredicate,
		log:       NopLogger{},
		stats:     NopStatter{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ResolveBatch implements Engine. The returned count is the number of
// documents the Sink wrote plus the number of ids rejected as invalid: the
// invalid ids are never indexed, but they are accounted for so that the
// Schedule's total, which counts them, still reconciles.
//
// Sink errors are returned unchanged. Nothing is retried.
func (w *Worker) ResolveBatch(ctx context.Context, batch Batch) (int, error) {
	start := time.Now()
	ids, invalid := ValidateIDs(batch.IDs, w.valid)
	if len(invalid) > 0 {
		w.log.Printf("#%d: skipping %d invalid ids: %v", batch.Num, len(invalid), invalid)
		w.stats.Count(StatIDsInvalid, int64(len(invalid)), 1)
	}
	if len(ids) == 0 {
		return len(invalid), nil
	}

	docs := make([]Document, 0, len(ids))
	unresolved, err := w.merger.Merge(ctx, ids, func(edge Document) error {
		doc, err := w.processor.Process(edge)
		if err != nil {
			return errors.Wrapf(err, "processing edge '%s'", edge.ID())
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if unresolved > 0 {
		w.log.Debugf("#%d: %d node references did not resolve", batch.Num, unresolved)
		w.stats.Count(StatUnresolvedNodes, int64(unresolved), 1)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	w.log.Printf("#%d: %d documents.", batch.Num, len(ids))
	n, err := w.sink.Index(ctx, docs)
	if err != nil {
		return 0, err
	}
	w.stats.Count(StatDocsIndexed, int64(n), 1)
	w.stats.Timing(StatBatchDuration, time.Since(start), 1)
	return n + len(invalid), nil
}

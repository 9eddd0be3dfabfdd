// Package kgx indexes knowledge graphs. It streams the edges of a graph from a
// document store into one or more search indexes, embedding in each edge the
// full records of its subject and object nodes, so that the index can be
// queried without joins.
//
// Indexing runs in stages, each behind an interface so that stores, indexes
// and normalization rules can be swapped independently.
//
// 1. Store
//
//    A kgx.Store holds an edge collection and a node collection. It can
//    count the edges, page through all edge ids, and fetch edges and nodes by
//    id, optionally projected onto a few fields. The boltdb sub-package and
//    the in-memory MapStore implement it; the load sub-package fills a bolt
//    store from KGX JSON lines dumps.
//
// 2. Schedule and Scheduler
//
//    The Scheduler divides the ids into fixed size batches, counted by a
//    Schedule, and submits each batch to an Executor such as a Pool. It is
//    fail fast: as soon as one batch fails it stops submitting, cancels all
//    unfinished batches and returns the first failure. When every batch
//    succeeded, the Schedule checks that the finished count matches the total
//    counted up front.
//
// 3. Worker
//
//    Each batch is resolved by an Engine, normally a Worker. The Worker
//    validates the batch's ids, merges nodes into edges with a Merger, runs
//    every edge through a Processor (see the biolink sub-package), and writes
//    the batch to a Sink in one bulk call. The EagerMerger prefetches all
//    nodes of a batch with a fixed number of queries; the LazyMerger fetches
//    nodes edge by edge and is kept for comparison. Node references which do
//    not resolve are set to nil.
//
// 4. Sink
//
//    A kgx.Sink writes documents into an index. Implementations exist for
//    Pilosa (PilosaSink), leveldb, Kafka and S3, and Tee writes to several of
//    them at once.
package kgx

package kgx

import (
	"time"
)

// Names of the stats a run reports.
const (
	// StatBatchesDispatched counts batches handed to the Executor.
	StatBatchesDispatched = "kgx.batches.dispatched"
	// StatBatchesFailed counts the failure which stopped a run. Failures
	// after it are only logged.
	StatBatchesFailed = "kgx.batches.failed"
	// StatJobsCancelled counts unfinished jobs cancelled after a failure.
	StatJobsCancelled = "kgx.jobs.cancelled"
	// StatDocsIndexed counts documents the Sink reported as written.
	StatDocsIndexed = "kgx.docs.indexed"
	// StatIDsInvalid counts edge ids rejected before merging.
	StatIDsInvalid = "kgx.ids.invalid"
	// StatUnresolvedNodes counts subject and object references left nil.
	StatUnresolvedNodes = "kgx.unresolved_nodes"
	// StatBatchDuration times each batch from validation to the bulk write.
	StatBatchDuration = "kgx.batch.duration"
)

// Statter receives the counts and timings of a run, in the shape of a
// statsd client. termstat.Collector prints them to a terminal.
type Statter interface {
	Count(name string, value int64, rate float64, tags ...string)
	Gauge(name string, value float64, rate float64, tags ...string)
	Histogram(name string, value float64, rate float64, tags ...string)
	Set(name string, value string, rate float64, tags ...string)
	Timing(name string, value time.Duration, rate float64, tags ...string)
}

// NopStatter discards every stat. Workers and Schedulers use it unless given
// another Statter.
type NopStatter struct{}

func (NopStatter) Count(string, int64, float64, ...string)           {}
func (NopStatter) Gauge(string, float64, float64, ...string)         {}
func (NopStatter) Histogram(string, float64, float64, ...string)     {}
func (NopStatter) Set(string, string, float64, ...string)            {}
func (NopStatter) Timing(string, time.Duration, float64, ...string) {}

// Logger receives progress and failure messages. Printf is for one line per
// batch and per run; Debugf for detail such as cancelled jobs and unresolved
// nodes. NewLogger and OpenLog return loggers from
// github.com/pilosa/pilosa/logger, which satisfy it.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}
func (NopLogger) Debugf(string, ...interface{}) {}

package kgx

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// State is the state of one Scheduler run.
type State int

// Run states. A run starts Dispatching, moves to Draining once every batch is
// submitted, and ends Completed or Failed.
const (
	Dispatching State = iota
	Draining
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Dispatching:
		return "dispatching"
	case Draining:
		return "draining"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished run.
type Result struct {
	// Count is the number of ids accounted for by finished batches.
	Count int

	// Batches is the number of batches submitted.
	Batches int

	State     State
	CreatedAt time.Time
}

// Scheduler splits a run into batches and submits each one to an Executor,
// where an Engine resolves it. It fails fast: once any batch fails, no more
// batches are submitted, every unfinished job is cancelled, and the first
// failure is returned as-is.
type Scheduler struct {
	exec   Executor
	engine Engine
	log    Logger
	stats  Statter

	name     string
	describe string
}

// SchedulerOption is a functional option type for Scheduler.
type SchedulerOption func(s *Scheduler)

// OptSchedulerLogger sets the Scheduler's Logger.
func OptSchedulerLogger(l Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = l
	}
}

// OptSchedulerStatter sets the Scheduler's Statter.
func OptSchedulerStatter(st Statter) SchedulerOption {
	return func(s *Scheduler) {
		s.stats = st
	}
}

// OptSchedulerName sets the name used in progress logs and job names,
// usually the edge collection name.
func OptSchedulerName(name string) SchedulerOption {
	return func(s *Scheduler) {
		s.name = name
	}
}

// OptSchedulerDescribe sets the description of the source store which is
// logged when a run's counts do not reconcile.
func OptSchedulerDescribe(describe string) SchedulerOption {
	return func(s *Scheduler) {
		s.describe = describe
	}
}

// NewScheduler returns a Scheduler submitting batches resolved by engine to
// exec.
func NewScheduler(exec Executor, engine Engine, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		exec:   exec,
		engine: engine,
		log:    NopLogger{},
		stats:  NopStatter{},
		name:   "edges",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes total ids taken from ids in batches of batchSize. It returns
// once every submitted job has finished or been cancelled. Batch numbers and
// id slices are taken in lockstep; the run stops submitting when either runs
// out. A successful run has accounted for exactly total ids, otherwise a
// *ScheduleMismatchError is returned.
func (s *Scheduler) Run(ctx context.Context, total, batchSize int, ids IDProvider) (Result, error) {
	schedule, err := NewSchedule(total, batchSize)
	if err != nil {
		return Result{State: Failed}, errors.Wrap(err, "creating schedule")
	}
	r := &run{
		Scheduler: s,
		schedule:  schedule,
		state:     Dispatching,
		done:      make(chan int),
	}
	return r.execute(ctx, ids)
}

// run is the state of one Scheduler.Run. Only the goroutine executing Run
// touches it; job completions reach it through the done channel, as the
// job's index in jobs, or by polling Job.Done.
type run struct {
	*Scheduler
	schedule *Schedule
	state    State

	jobs     []Job
	handled  []bool
	watching int
	done     chan int

	err       error
	cancelled bool
}

func (r *run) execute(ctx context.Context, ids IDProvider) (Result, error) {
	for {
		// Look at every job which finished since the last submission before
		// taking another batch of ids.
		r.poll()
		if r.err == nil && ctx.Err() != nil {
			r.fail(ctx.Err())
		}
		if r.err != nil {
			return r.finish()
		}

		num, ok := r.schedule.Next()
		if !ok {
			break
		}
		batch, err := ids.NextBatch()
		if err == io.EOF {
			break
		} else if err != nil {
			r.fail(errors.Wrap(err, "getting next batch of ids"))
			return r.finish()
		}

		r.log.Printf("%s", r.schedule)
		b := Batch{Num: num, IDs: batch}
		job, err := r.exec.Submit(ctx, r.schedule.Suffix(r.name), func(jctx context.Context) (int, error) {
			return r.engine.ResolveBatch(jctx, b)
		})
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				r.fail(cerr)
			} else {
				r.fail(errors.Wrapf(err, "submitting batch #%d", num))
			}
			return r.finish()
		}
		r.watch(job)
		r.schedule.Submitted()
		r.stats.Count(StatBatchesDispatched, 1, 1)
	}

	r.state = Draining
	r.log.Printf("%s", r.schedule)
	ctxDone := ctx.Done()
	for r.watching > 0 {
		select {
		case i := <-r.done:
			r.watching--
			r.handle(i)
		case <-ctxDone:
			ctxDone = nil
			r.fail(ctx.Err())
		}
	}
	if r.err != nil {
		return r.finish()
	}

	if err := r.schedule.Completed(); err != nil {
		r.log.Printf("checking schedule of %s: %v | store: %s", r.name, err, r.describe)
		r.state = Failed
		return r.result(), err
	}
	r.state = Completed
	r.log.Printf("%s", r.schedule)
	return r.result(), nil
}

// watch tracks a submitted job and arranges for its completion to be
// delivered on r.done.
func (r *run) watch(job Job) {
	i := len(r.jobs)
	r.jobs = append(r.jobs, job)
	r.handled = append(r.handled, false)
	r.watching++
	go func() {
		<-job.Done()
		r.done <- i
	}()
}

// poll handles every job which has finished, without blocking.
func (r *run) poll() {
	for i, job := range r.jobs {
		if r.handled[i] {
			continue
		}
		select {
		case <-job.Done():
			r.handle(i)
		default:
		}
	}
}

// handle records the result of the i'th job exactly once.
func (r *run) handle(i int) {
	if r.handled[i] {
		return
	}
	r.handled[i] = true
	job := r.jobs[i]
	count, err := job.Result()
	if err == nil {
		r.schedule.Done(count)
		return
	}
	if r.err != nil {
		if errors.Cause(err) == context.Canceled {
			r.log.Debugf("%s: cancelled", job.Name())
		} else {
			r.log.Printf("%s: discarding failure after earlier failure: %v", job.Name(), err)
		}
		return
	}
	r.log.Printf("%s: %v", job.Name(), err)
	r.stats.Count(StatBatchesFailed, 1, 1)
	r.fail(err)
}

// fail records err as the run's error unless one is already recorded, and
// cancels every unfinished job.
func (r *run) fail(err error) {
	if r.err == nil {
		r.err = err
	}
	r.state = Failed
	if r.cancelled {
		return
	}
	r.cancelled = true
	for _, job := range r.jobs {
		select {
		case <-job.Done():
		default:
			job.Cancel()
			r.stats.Count(StatJobsCancelled, 1, 1)
		}
	}
}

// finish waits for every job to finish after a failure and returns the first
// failure.
func (r *run) finish() (Result, error) {
	for r.watching > 0 {
		i := <-r.done
		r.watching--
		r.handle(i)
	}
	r.state = Failed
	return r.result(), r.err
}

func (r *run) result() Result {
	return Result{
		Count:     r.schedule.Finished,
		Batches:   r.schedule.submitted,
		State:     r.state,
		CreatedAt: time.Now(),
	}
}

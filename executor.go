package kgx

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// JobFunc is a unit of work run by an Executor. It should return promptly once
// ctx is cancelled.
type JobFunc func(ctx context.Context) (int, error)

// Job is the handle of a submitted JobFunc.
type Job interface {
	// Name returns the name the job was submitted with.
	Name() string

	// Done is closed once the job has finished, failed or was cancelled.
	Done() <-chan struct{}

	// Result returns the job's result. It is only meaningful after Done is
	// closed.
	Result() (int, error)

	// Cancel asks the job to stop. The job sees its context cancelled and
	// may still complete. Cancel on a finished job does nothing.
	Cancel()
}

// Executor runs submitted jobs in parallel. Submit may block until the
// Executor has room for another job.
type Executor interface {
	Submit(ctx context.Context, name string, fn JobFunc) (Job, error)
}

// Pool is an Executor running at most a fixed number of jobs at once.
// Submit blocks while every slot is taken.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool returns a Pool running up to concurrency jobs at once.
func NewPool(concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(concurrency))}
}

// Submit implements Executor. It waits for a free slot, then starts fn in its
// own goroutine and returns. If ctx is done before a slot frees up, fn never
// runs and ctx's error is returned.
func (p *Pool) Submit(ctx context.Context, name string, fn JobFunc) (Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	// Acquire succeeds without looking at the context when a slot is free.
	if err := ctx.Err(); err != nil {
		p.sem.Release(1)
		return nil, err
	}
	jctx, cancel := context.WithCancel(ctx)
	j := &poolJob{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer close(j.done)
		defer cancel()
		j.count, j.err = j.run(jctx, fn)
	}()
	return j, nil
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

type poolJob struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	count int
	err   error
}

func (j *poolJob) run(ctx context.Context, fn JobFunc) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count, err = 0, errors.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return fn(ctx)
}

func (j *poolJob) Name() string          { return j.name }
func (j *poolJob) Done() <-chan struct{} { return j.done }
func (j *poolJob) Cancel()               { j.cancel() }

func (j *poolJob) Result() (int, error) {
	<-j.done
	return j.count, j.err
}

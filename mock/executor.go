package mock

import (
	"context"
	"sync"

	"github.com/pilosa/kgx"
)

// InlineExecutor is a kgx.Executor which runs each job to completion inside
// Submit. It makes the order of completions deterministic.
type InlineExecutor struct {
	mu        sync.Mutex
	submitted []string
}

// Submit implements kgx.Executor.
func (e *InlineExecutor) Submit(ctx context.Context, name string, fn kgx.JobFunc) (kgx.Job, error) {
	e.mu.Lock()
	e.submitted = append(e.submitted, name)
	e.mu.Unlock()
	j := &doneJob{name: name, done: make(chan struct{})}
	j.count, j.err = fn(ctx)
	close(j.done)
	return j, nil
}

// Submitted returns the names of the submitted jobs in order.
func (e *InlineExecutor) Submitted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.submitted...)
}

type doneJob struct {
	name  string
	done  chan struct{}
	count int
	err   error
}

func (j *doneJob) Name() string          { return j.name }
func (j *doneJob) Done() <-chan struct{} { return j.done }
func (j *doneJob) Result() (int, error)  { return j.count, j.err }
func (j *doneJob) Cancel()               {}

package kgx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is a constant error value.
type Error string

func (e Error) Error() string { return string(e) }

// ErrScheduleNotDrained is returned by Schedule.Completed when some dispatched
// batches have not reported back yet. It means Completed was called too early,
// not that the counts drifted.
const ErrScheduleNotDrained = Error("schedule checked for completion before all dispatched batches reported")

// ScheduleMismatchError is returned by Schedule.Completed when every batch
// reported, but the reported counts do not add up to the expected total. This
// usually means the edge collection changed size between counting and
// fetching.
type ScheduleMismatchError struct {
	Total    int
	Finished int
}

func (e *ScheduleMismatchError) Error() string {
	return fmt.Sprintf("schedule mismatch: finished %d, expected %d", e.Finished, e.Total)
}

// Schedule divides Total ids into batches of BatchSize and keeps the running
// count of finished ids. It is not threadsafe; a single goroutine owns it.
type Schedule struct {
	Total     int
	Finished  int
	BatchSize int

	batch     int
	batches   int
	submitted int
	reported  int
}

// NewSchedule returns a Schedule for total ids in batches of batchSize.
func NewSchedule(total, batchSize int) (*Schedule, error) {
	if total < 0 {
		return nil, errors.Errorf("total must not be negative, got %d", total)
	}
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Schedule{
		Total:     total,
		BatchSize: batchSize,
		batches:   (total + batchSize - 1) / batchSize,
	}, nil
}

// Batches returns the number of batches the schedule will hand out.
func (s *Schedule) Batches() int { return s.batches }

// Next returns the next batch number. The sequence starts at 0 and cannot be
// restarted; ok is false once it is exhausted.
func (s *Schedule) Next() (num int, ok bool) {
	if s.batch >= s.batches {
		return 0, false
	}
	num = s.batch
	s.batch++
	return num, true
}

// Submitted records that a batch was handed to an executor.
func (s *Schedule) Submitted() { s.submitted++ }

// Done records that a submitted batch reported count finished ids. Batches may
// report in any order.
func (s *Schedule) Done(count int) {
	s.reported++
	s.Finished += count
}

// Completed checks the schedule after every submitted batch was awaited.
func (s *Schedule) Completed() error {
	if s.reported < s.submitted {
		return ErrScheduleNotDrained
	}
	if s.Finished != s.Total {
		return &ScheduleMismatchError{Total: s.Total, Finished: s.Finished}
	}
	return nil
}

// Suffix returns name tagged with the current batch position, for naming jobs.
func (s *Schedule) Suffix(name string) string {
	return fmt.Sprintf("%s #%d/%d", name, s.batch, s.batches)
}

func (s *Schedule) String() string {
	pct := 100.0
	if s.Total > 0 {
		pct = float64(s.Finished) * 100 / float64(s.Total)
	}
	return fmt.Sprintf("<Schedule batch %d/%d batch_size=%d finished=%d/%d (%.1f%%)>",
		s.batch, s.batches, s.BatchSize, s.Finished, s.Total, pct)
}

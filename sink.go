package kgx

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Tee is a Sink writing every batch to all of its Sinks concurrently. The
// count reported is the first Sink's; the first error from any Sink is
// returned unchanged. Sinks must not modify the documents they are given.
type Tee []Sink

// Index implements Sink.
func (t Tee) Index(ctx context.Context, docs []Document) (int, error) {
	if len(t) == 0 {
		return 0, nil
	}
	counts := make([]int, len(t))
	eg, ectx := errgroup.WithContext(ctx)
	for i, s := range t {
		i, s := i, s
		eg.Go(func() error {
			n, err := s.Index(ectx, docs)
			counts[i] = n
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return counts[0], nil
}

// Package parallel provides a fixed-size worker pool that hands each task a
// disjoint index range decided before any task starts.
//
// Usage:
//
//	pool := parallel.New(runtime.GOMAXPROCS(0))
//	err := pool.ForRanges(ctx, rows, func(start, end int) error {
//	    return processRows(start, end)
//	})
//
// The pool never coordinates tasks at runtime: every partition is computed up
// front, so callers can give each task exclusive ownership of its slice of a
// shared output buffer.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrWorkerPanic wraps a panic recovered from a task. The panic turns into an
// error of the enclosing call instead of crashing the process.
var ErrWorkerPanic = errors.New("parallel: worker panicked")

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns End - Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// Pool runs tasks on at most Workers goroutines at a time.
type Pool struct {
	workers int
}

// New creates a pool with the given number of workers.
// If workers <= 0, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Split partitions [0, n) into at most parts contiguous, non-overlapping
// ranges that together cover every index exactly once.
func Split(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	chunk := (n + parts - 1) / parts
	ranges := make([]Range, 0, parts)
	for start := 0; start < n; start += chunk {
		ranges = append(ranges, Range{Start: start, End: min(start+chunk, n)})
	}
	return ranges
}

// ForRanges executes fn once per range produced by Split(n, Workers()).
// Blocks until all tasks complete and returns the first error.
func (p *Pool) ForRanges(ctx context.Context, n int, fn func(start, end int) error) error {
	ranges := Split(n, p.workers)
	return p.ForEach(ctx, len(ranges), func(i int) error {
		return fn(ranges[i].Start, ranges[i].End)
	})
}

// ForEach executes fn(i) for each i in [0, n) with at most Workers() tasks in
// flight. After the first failure no new tasks are started.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	// A single task runs inline; spawning would only add overhead.
	if n == 1 || p.workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := safeCall(i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return safeCall(i, fn)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// safeCall runs fn(i) and converts a panic into an ErrWorkerPanic error.
func safeCall(i int, fn func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("%w: task %d: %w", ErrWorkerPanic, i, rerr)
				return
			}
			err = fmt.Errorf("%w: task %d: %v", ErrWorkerPanic, i, r)
		}
	}()
	return fn(i)
}

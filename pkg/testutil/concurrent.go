// Package testutil holds helpers shared by store and service tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"docverify/pkg/platform/sentinel"
)

// ConcurrentResult counts outcomes of a RunConcurrent call by sentinel.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent calls fn from n goroutines at once and buckets each returned
// error as a conflict, a not-found or anything else.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                                    sync.WaitGroup
		start                                 = make(chan struct{})
		successes, conflicts, notFounds, errs atomic.Int32
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Errors:    errs.Load(),
	}
}

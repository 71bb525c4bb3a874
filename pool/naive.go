package pool

import (
	"sync"
)

// Naive is the trivial Pool variant: every Submit spawns its own
// goroutine, with no bound on concurrency. Kept for parity with the
// reference implementation's NaiveThreadPool and usable as a drop-in Pool
// anywhere SharedQueue is, e.g. tests that want maximal concurrency
// without tuning a worker count.
type Naive struct {
	wg sync.WaitGroup
}

var _ Pool = (*Naive)(nil)

// NewNaive constructs a Naive pool. It has no fixed worker count: n is
// accepted only to satisfy the common Pool-constructor shape and is
// otherwise unused.
func NewNaive(n int) *Naive {
	return &Naive{}
}

// Submit spawns a new goroutine to run job.
func (p *Naive) Submit(job func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		runJobGuarded(job)
	}()
}

// Close waits for every spawned goroutine to finish. There is nothing to
// close here since Naive has no shared channel, only the WaitGroup.
func (p *Naive) Close() {
	p.wg.Wait()
}

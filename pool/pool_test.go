package pool

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestSharedQueuePanicIsolation submits 100 jobs where every 5th panics,
// and checks the pool still runs every non-panicking job and shuts down
// cleanly (spec scenario 6).
func TestSharedQueuePanicIsolation(t *testing.T) {
	p := New(4)

	var completed int64
	const total = 100

	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		i := i
		p.Submit(func() {
			defer wg.Done()
			if i%5 == 0 {
				panic("boom")
			}
			atomic.AddInt64(&completed, 1)
		})
	}
	wg.Wait()

	p.Close()

	want := int64(total - total/5)
	if completed != want {
		t.Fatalf("expected %d completed jobs, got %d", want, completed)
	}
}

func TestSharedQueueRunsJobsConcurrently(t *testing.T) {
	p := New(8)
	defer p.Close()

	var n atomic.Int64
	// The first 8 jobs each wait until all 8 have started, which can only
	// happen if the 8 workers run them at the same time.
	var started sync.WaitGroup
	started.Add(8)
	done := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		i := i
		p.Submit(func() {
			if i < 8 {
				started.Done()
				started.Wait()
			}
			n.Add(1)
			done <- struct{}{}
		})
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	if n.Load() != 20 {
		t.Fatalf("expected 20 jobs run, got %d", n.Load())
	}
}

func TestNaivePanicIsolation(t *testing.T) {
	p := NewNaive(0)

	var completed int64
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		i := i
		p.Submit(func() {
			defer func() { done <- struct{}{} }()
			if i%2 == 0 {
				panic("boom")
			}
			atomic.AddInt64(&completed, 1)
		})
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	p.Close()

	if completed != 5 {
		t.Fatalf("expected 5 completed jobs, got %d", completed)
	}
}

package service

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Close()

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		})
	}
	wg.Wait()

	if got := atomic.LoadInt64(&counter); got != 50 {
		t.Errorf("Expected 50 jobs to run, got %d", got)
	}
}

func TestWorkerPool_StartIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Start()
	defer pool.Close()

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		})
	}
	wg.Wait()

	if got := atomic.LoadInt64(&counter); got != 10 {
		t.Errorf("Expected 10 jobs to run, got %d", got)
	}
}

func TestWorkerPool_DefaultsWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.workers <= 0 {
		t.Errorf("Expected a positive default worker count, got %d", pool.workers)
	}
}

func TestWorkerPool_ConcurrentSubmitters(t *testing.T) {
	// Several callers share one pool, each waiting on its own tracking.
	// The pool itself must carry no per-caller synchronization.
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Close()

	var counter int64
	var callers sync.WaitGroup
	for g := 0; g < 8; g++ {
		callers.Add(1)
		go func() {
			defer callers.Done()
			var jobs sync.WaitGroup
			for i := 0; i < 25; i++ {
				jobs.Add(1)
				pool.Submit(func() {
					defer jobs.Done()
					atomic.AddInt64(&counter, 1)
				})
			}
			jobs.Wait()
		}()
	}
	callers.Wait()

	if got := atomic.LoadInt64(&counter); got != 200 {
		t.Errorf("Expected 200 jobs across all submitters, got %d", got)
	}
}

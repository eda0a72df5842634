package service

import (
	"runtime"
	"sync"
)

// WorkerPool fans independent comparison jobs out over a fixed number of
// goroutines. A single comparison stays sequential; the pool only runs
// separate pairs side by side.
//
// The pool is purely a bounded job queue and carries no completion state:
// one pool is shared by every concurrent caller, so callers that need to
// wait own their own tracking and signal it from inside the job.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	once     sync.Once
}

// NewWorkerPool creates a worker pool. Zero or negative worker counts fall
// back to the number of CPUs.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Calling Start more than once is a no-op.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
	}
}

// Submit queues a job. Blocks when the queue is full.
func (wp *WorkerPool) Submit(job func()) {
	wp.jobQueue <- job
}

// Close shuts down the worker pool. No Submit may follow.
func (wp *WorkerPool) Close() {
	close(wp.jobQueue)
}

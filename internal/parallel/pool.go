// Package parallel provides a bounded worker pool used to run
// experiment configurations concurrently. Each search invocation is
// single-threaded by design; the pool only fans out whole solver runs,
// never work inside one search.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned when submitting to a pool that has been
// shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// WorkerPool executes submitted tasks on a fixed number of goroutines,
// blocking submission when all workers are busy.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a pool with the given worker count; zero or
// negative defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func()),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}
	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()
	for {
		select {
		case task := <-wp.taskChan:
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit hands a task to the pool, blocking until a worker accepts it,
// the context is cancelled, or the pool shuts down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops the pool after in-flight tasks complete. Safe to call
// more than once.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.workerWg.Wait()
	})
}

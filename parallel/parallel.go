// Package parallel provides the worker pool used to scatter posterior
// evaluations across goroutines and gather them behind a per-batch
// barrier.
package parallel

import (
	"runtime"
	"sync"
)

// Client is the pool client. It only knows how many workers to use; the
// distributed view handed to samplers is a Pool.
type Client struct {
	workers int
}

// NewClient creates a client with the given number of workers; zero or
// negative means one worker per available CPU.
func NewClient(workers int) *Client {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Client{workers: workers}
}

// View returns the distributed view used for scatter/gather
// evaluation.
func (c *Client) View() *Pool {
	return &Pool{workers: c.workers}
}

// Pool distributes batches of independent tasks across workers. Each
// batch is a synchronous scatter/gather: Run returns only when every
// task has completed.
type Pool struct {
	workers int
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Run evaluates fn(worker, i) for every i in [0, n), distributing the
// tasks across the workers. The worker index lets callers route each
// task to per-worker state; no two tasks share a worker concurrently.
func (p *Pool) Run(n int, fn func(worker, i int)) {
	if n <= 0 {
		return
	}
	workers := p.workers
	if workers > n {
		workers = n
	}
	tasks := make(chan int, n)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range tasks {
				fn(worker, i)
			}
		}(w)
	}
	for i := 0; i < n; i++ {
		tasks <- i
	}
	close(tasks)
	wg.Wait()
}

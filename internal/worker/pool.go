package worker

import (
	"context"
	"sync"
)

// Job is a unit of work run by a Pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces. Failures travel inside the result so one
// failed job never stops the others.
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of goroutines
type Pool struct {
	workers int
}

// NewPool creates a pool with the given number of workers (at least one)
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the pool size
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every job and returns the results in job order. Jobs still run
// after ctx is cancelled so each one reports its own cancellation error.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := min(p.workers, len(jobs))
	queue := make(chan int, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results[i] = jobs[i].Execute(ctx)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	return results
}

// worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool closed")

type Job[T any] func(ctx context.Context) T

type Result[T any] struct {
	JobID  string
	Output T
}

// Pool runs jobs on a fixed number of goroutines. Each submission gets its
// own result channel, so callers wait only for their own job.
type Pool[T any] struct {
	jobs chan jobWrapper[T]
	quit chan struct{}

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup
	wg      sync.WaitGroup
}

type jobWrapper[T any] struct {
	id     string
	ctx    context.Context
	fn     Job[T]
	result chan Result[T]
}

func NewPool[T any](workerCount int, bufferSize int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool[T]{
		jobs: make(chan jobWrapper[T], bufferSize),
		quit: make(chan struct{}),
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		output := job.fn(job.ctx)
		job.result <- Result[T]{
			JobID:  job.id,
			Output: output,
		}
	}
}

// Submit queues fn. The returned channel receives exactly one Result. It
// fails if ctx ends or the pool closes before a queue slot frees up.
func (p *Pool[T]) Submit(ctx context.Context, id string, fn Job[T]) (<-chan Result[T], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.senders.Add(1)
	p.mu.Unlock()
	defer p.senders.Done()

	result := make(chan Result[T], 1)
	select {
	case p.jobs <- jobWrapper[T]{id: id, ctx: ctx, fn: fn, result: result}:
		return result, nil
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting jobs, releases blocked submitters and waits for
// queued jobs to finish.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	// jobs is only closed once no sender can still write to it.
	p.senders.Wait()
	close(p.jobs)

	p.wg.Wait()
}

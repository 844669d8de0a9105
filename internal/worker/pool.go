package worker

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"pkg.jsn.cam/numgen/pkg/numgen/protocol"
)

// Pool runs task descriptors with at most limit of them in flight. A new task
// is admitted as soon as a running one returns.
type Pool struct {
	exec  Executor
	limit int
}

// NewPool creates a pool admitting limit concurrent tasks. A nil exec runs
// tasks in-process with Process.
func NewPool(limit int, exec Executor) *Pool {
	if limit < 1 {
		limit = 1
	}
	if exec == nil {
		exec = Process
	}
	return &Pool{exec: exec, limit: limit}
}

// Limit returns the concurrency limit.
func (p *Pool) Limit() int {
	return p.limit
}

// Run executes every task and hands each result to onComplete in completion
// order. onComplete is only ever called from one goroutine, so it may mutate
// state without locking.
//
// The first task failure or onComplete error cancels the tasks still queued
// or running and is returned. If ctx is cancelled before every task has
// completed, Run returns the context error.
func (p *Pool) Run(ctx context.Context, tasks []protocol.TaskDescriptor, onComplete func(protocol.TaskResult) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	results := make(chan protocol.TaskResult)
	collected := make(chan error, 1)

	go func() {
		var err error
		for res := range results {
			if err != nil {
				continue // drain so senders never block
			}
			if err = onComplete(res); err != nil {
				cancel()
			}
		}
		collected <- err
	}()

	log.Printf("[POOL] Dispatching %d tasks to at most %d workers", len(tasks), p.limit)

	dispatched := 0
	for _, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		dispatched++

		// Go blocks while limit tasks are in flight.
		g.Go(func() error {
			res, err := p.exec(gctx, task)
			if err != nil {
				return err
			}
			select {
			case results <- res:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(results)

	if cbErr := <-collected; cbErr != nil {
		return cbErr
	}
	if err != nil {
		return err
	}
	if dispatched < len(tasks) {
		return ctx.Err()
	}
	return nil
}

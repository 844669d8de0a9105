package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"pkg.jsn.cam/numgen/pkg/backends"
	"pkg.jsn.cam/numgen/pkg/numgen"
	"pkg.jsn.cam/numgen/pkg/numgen/protocol"
)

// Executor runs one task descriptor to completion.
type Executor func(ctx context.Context, task protocol.TaskDescriptor) (protocol.TaskResult, error)

// Process generates the chunk described by task. It builds its own engine and
// backend, so concurrent calls share nothing. Any error, including a panic
// inside the backend, is returned as a *numgen.TaskError.
func Process(ctx context.Context, task protocol.TaskDescriptor) (result protocol.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WORKER:%d] Panic: %v\n%s", task.Index, r, debug.Stack())
			err = &numgen.TaskError{Index: task.Index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = process(ctx, task)
	if err != nil {
		// Cancellation is not a worker failure.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return protocol.TaskResult{}, err
		}
		return protocol.TaskResult{}, &numgen.TaskError{Index: task.Index, Err: err}
	}
	return result, nil
}

func process(ctx context.Context, task protocol.TaskDescriptor) (protocol.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return protocol.TaskResult{}, err
	}

	ok, err := protocol.IsCompatibleVersion(task.Version, protocol.Version)
	if err != nil {
		return protocol.TaskResult{}, fmt.Errorf("%w: %w", numgen.ErrIncompatibleVersion, err)
	}
	if !ok {
		return protocol.TaskResult{}, fmt.Errorf("%w: %s", numgen.ErrIncompatibleVersion,
			protocol.CompatibilityError(task.Version, protocol.Version))
	}

	backend, err := backends.Open(backends.Config{
		Engine: task.Engine,
		Format: task.Format,
		Min:    task.Min,
		Max:    task.Max,
	})
	if err != nil {
		return protocol.TaskResult{}, err
	}

	start := time.Now()
	chunk, err := backend.Generate(task.Length)
	if err != nil {
		return protocol.TaskResult{}, fmt.Errorf("generate: %w", err)
	}
	chunk.Index = task.Index

	// The chunk is already computed, but a cancelled run must not report it.
	if err := ctx.Err(); err != nil {
		return protocol.TaskResult{}, err
	}

	log.Printf("[WORKER:%d] Generated %d values (%d bytes) in %v",
		task.Index, chunk.Length, chunk.Size, time.Since(start).Round(time.Millisecond))

	return protocol.NewTaskResult(task.RunID, chunk), nil
}

// Package orchestrator plans a generation run into chunks and drives their
// parallel generation through a bounded worker pool.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pkg.jsn.cam/numgen/internal/ledger"
	"pkg.jsn.cam/numgen/internal/worker"
	"pkg.jsn.cam/numgen/pkg/backends"
	"pkg.jsn.cam/numgen/pkg/numgen"
	"pkg.jsn.cam/numgen/pkg/numgen/protocol"
)

// ErrAlreadyStarted is returned through a failure event when Generate is
// called more than once.
var ErrAlreadyStarted = errors.New("run already started")

// EventKind identifies an Event.
type EventKind int

const (
	// EventChunk carries one completed chunk.
	EventChunk EventKind = iota
	// EventEnd is the terminal event of a successful run.
	EventEnd
	// EventFailure is the terminal event of a failed or cancelled run.
	EventFailure
)

func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventEnd:
		return "end"
	case EventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event is emitted by Generate.
type Event struct {
	Err    error // set on EventFailure
	Chunk  numgen.ChunkResult
	Kind   EventKind
	IsLast bool // set on the chunk whose arrival completes the run
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLedger records the run and its chunk metadata in l.
func WithLedger(l ledger.Ledger) Option {
	return func(o *Orchestrator) { o.ledger = l }
}

// WithExecutor replaces the in-process task executor.
func WithExecutor(exec worker.Executor) Option {
	return func(o *Orchestrator) { o.exec = exec }
}

// Orchestrator owns one generation run.
type Orchestrator struct {
	backend numgen.Backend
	ledger  ledger.Ledger
	exec    worker.Executor
	runID   string
	request numgen.GenerationRequest
	plan    Plan

	started   atomic.Bool
	completed atomic.Int64

	mu     sync.Mutex
	chunks []numgen.ChunkMeta
}

// New validates req, checks that its engine, format and bounds are compatible,
// and computes the chunk plan. All configuration errors surface here, before
// any generation work.
func New(req numgen.GenerationRequest, opts ...Option) (*Orchestrator, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	backend, err := backends.Open(backends.Config{
		Engine: req.Engine,
		Format: req.Format,
		Min:    req.MinNumber,
		Max:    req.MaxNumber,
	})
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		backend: backend,
		ledger:  ledger.NewNoOpLedger(),
		runID:   uuid.New().String(),
		request: req,
		plan:    NewPlan(req.Amount, req.ChunkSize),
	}
	for _, opt := range opts {
		opt(o)
	}

	log.Printf("[ORCHESTRATOR] Run %s: %d chunks of %d values (%d total, %d requested), %d workers",
		o.runID, o.plan.Count, o.plan.Size, o.plan.Total(), req.Amount, o.EffectiveWorkerCount())

	return o, nil
}

// RunID identifies the run in descriptors, results and the ledger.
func (o *Orchestrator) RunID() string { return o.runID }

// Request returns the request the run was built from.
func (o *Orchestrator) Request() numgen.GenerationRequest { return o.request }

// ChunkCount returns the number of chunks.
func (o *Orchestrator) ChunkCount() int { return o.plan.Count }

// ChunkSize returns the number of values per chunk.
func (o *Orchestrator) ChunkSize() int64 { return o.plan.Size }

// TotalNumbers returns ChunkCount() * ChunkSize(), the number of values
// actually generated.
func (o *Orchestrator) TotalNumbers() int64 { return o.plan.Total() }

// EffectiveWorkerCount never exceeds the number of chunks.
func (o *Orchestrator) EffectiveWorkerCount() int {
	return min(o.request.ThreadCount, o.plan.Count)
}

// EstimatedSize returns the expected encoded size of the whole run in bytes.
func (o *Orchestrator) EstimatedSize() float64 {
	return o.backend.EstimatedSize(o.TotalNumbers())
}

// Completed returns the number of chunks delivered so far.
func (o *Orchestrator) Completed() int {
	return int(o.completed.Load())
}

// Chunks returns the metadata of the chunks delivered so far, in delivery order.
func (o *Orchestrator) Chunks() []numgen.ChunkMeta {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slices.Clone(o.chunks)
}

// Descriptors returns one task descriptor per chunk, in index order.
func (o *Orchestrator) Descriptors() []protocol.TaskDescriptor {
	tasks := make([]protocol.TaskDescriptor, o.plan.Count)
	for i := range tasks {
		tasks[i] = protocol.TaskDescriptor{
			Version: protocol.Version,
			RunID:   o.runID,
			Engine:  o.request.Engine,
			Format:  o.request.Format,
			Index:   i,
			Length:  o.plan.Size,
			Min:     o.request.MinNumber,
			Max:     o.request.MaxNumber,
		}
	}
	return tasks
}

// Generate starts the run and returns its event stream. One EventChunk is
// sent per chunk in completion order, which is generally not index order.
// Exactly one of those has IsLast set. The stream then ends with a single
// EventEnd, or with an EventFailure as soon as a task fails or ctx is done,
// and is closed.
//
// Callers must drain the channel until it is closed. Payloads are not
// retained once delivered; Chunks keeps their metadata.
func (o *Orchestrator) Generate(ctx context.Context) <-chan Event {
	events := make(chan Event)

	if !o.started.CompareAndSwap(false, true) {
		go func() {
			defer close(events)
			events <- Event{Kind: EventFailure, Err: ErrAlreadyStarted}
		}()
		return events
	}

	go func() {
		defer close(events)

		run := o.newRun()
		o.saveRun(run)
		log.Printf("[ORCHESTRATOR] Run %s started", o.runID)

		pool := worker.NewPool(o.EffectiveWorkerCount(), o.exec)
		err := pool.Run(ctx, o.Descriptors(), func(res protocol.TaskResult) error {
			return o.deliver(ctx, events, res)
		})

		o.finish(run, err)

		if err != nil {
			events <- Event{Kind: EventFailure, Err: err}
			return
		}
		events <- Event{Kind: EventEnd}
	}()

	return events
}

// deliver is the pool's completion callback. The pool calls it from a single
// goroutine, so exactly one chunk sees the count reach ChunkCount. A chunk is
// only counted once its event has been handed to the consumer.
func (o *Orchestrator) deliver(ctx context.Context, events chan<- Event, res protocol.TaskResult) error {
	chunk := res.Chunk()
	n := o.completed.Load() + 1
	isLast := n == int64(o.plan.Count)

	select {
	case events <- Event{Kind: EventChunk, Chunk: chunk, IsLast: isLast}:
	case <-ctx.Done():
		return ctx.Err()
	}

	meta := chunk.Meta()
	o.mu.Lock()
	o.chunks = append(o.chunks, meta)
	o.completed.Store(n)
	o.mu.Unlock()

	if err := o.ledger.SaveChunk(o.runID, meta); err != nil {
		log.Printf("[ORCHESTRATOR] Warning: Failed to record chunk %d: %v", meta.Index, err)
	}

	log.Printf("[ORCHESTRATOR] Run %s: chunk %d delivered (%d/%d)", o.runID, meta.Index, n, o.plan.Count)
	return nil
}

func (o *Orchestrator) newRun() *protocol.Run {
	return &protocol.Run{
		ID:           o.runID,
		Status:       protocol.RunStatusRunning,
		Request:      o.request,
		ChunkCount:   o.plan.Count,
		ChunkSize:    o.plan.Size,
		TotalNumbers: o.plan.Total(),
		Workers:      o.EffectiveWorkerCount(),
		StartedAt:    time.Now(),
	}
}

func (o *Orchestrator) finish(run *protocol.Run, err error) {
	run.CompletedAt = time.Now()
	run.ChunksDone = o.Completed()
	for _, meta := range o.Chunks() {
		run.BytesDone += meta.Size
	}

	if err != nil {
		run.Status = protocol.RunStatusFailed
		run.Error = err.Error()
		log.Printf("[ORCHESTRATOR] Run %s failed after %d/%d chunks: %v", o.runID, run.ChunksDone, o.plan.Count, err)
	} else {
		run.Status = protocol.RunStatusCompleted
		log.Printf("[ORCHESTRATOR] Run %s completed (%d chunks)", o.runID, run.ChunksDone)
	}

	run.ComputeDuration()
	o.saveRun(run)
}

func (o *Orchestrator) saveRun(run *protocol.Run) {
	if err := o.ledger.SaveRun(run); err != nil {
		log.Printf("[ORCHESTRATOR] Warning: Failed to persist run %s: %v", run.ID, err)
	}
}

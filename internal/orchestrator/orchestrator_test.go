package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.jsn.cam/numgen/internal/ledger"
	"pkg.jsn.cam/numgen/internal/worker"
	"pkg.jsn.cam/numgen/pkg/numgen"
	"pkg.jsn.cam/numgen/pkg/numgen/protocol"
	"pkg.jsn.cam/numgen/pkg/storage"
)

func request(amount, chunkSize int64, threads int, format numgen.FormatID) numgen.GenerationRequest {
	return numgen.GenerationRequest{
		Amount:      amount,
		MinNumber:   0,
		MaxNumber:   255,
		ChunkSize:   chunkSize,
		ThreadCount: threads,
		Engine:      numgen.EngineMathRandom,
		Format:      format,
	}
}

// collect drains events until the channel closes.
func collect(t *testing.T, events <-chan Event) (chunks []Event, terminal []Event) {
	t.Helper()

	timeout := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return chunks, terminal
			}
			if ev.Kind == EventChunk {
				require.Empty(t, terminal, "chunk event after terminal event")
				chunks = append(chunks, ev)
			} else {
				terminal = append(terminal, ev)
			}
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestNewDerivedQuantities(t *testing.T) {
	t.Parallel()

	o, err := New(request(100_000_000, 10_000_000, 4, numgen.FormatU8))
	require.NoError(t, err)
	assert.Equal(t, 10, o.ChunkCount())
	assert.EqualValues(t, 10_000_000, o.ChunkSize())
	assert.EqualValues(t, 100_000_000, o.TotalNumbers())
	assert.Equal(t, 4, o.EffectiveWorkerCount())
	assert.InDelta(t, 100_000_000, o.EstimatedSize(), 0)
	assert.NotEmpty(t, o.RunID())

	o, err = New(request(10_000_000, 10_000_000, 12, numgen.FormatU8))
	require.NoError(t, err)
	assert.Equal(t, 1, o.ChunkCount())
	assert.Equal(t, 1, o.EffectiveWorkerCount())
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	t.Parallel()

	outOfRange := request(10, 10, 1, numgen.FormatU8)
	outOfRange.MaxNumber = 300

	unknownEngine := request(10, 10, 1, numgen.FormatU8)
	unknownEngine.Engine = "dice"

	negativeUint := request(10, 10, 1, numgen.FormatU16)
	negativeUint.MinNumber = -1

	tests := []struct {
		name    string
		req     numgen.GenerationRequest
		wantErr error
	}{
		{"max beyond u8", outOfRange, numgen.ErrMaxOutOfRange},
		{"negative min for uint", negativeUint, numgen.ErrMinOutOfRange},
		{"unknown engine", unknownEngine, numgen.ErrUnknownEngine},
		{"unknown format", request(10, 10, 1, "u24"), numgen.ErrUnknownFormat},
		{"zero amount", request(0, 10, 1, numgen.FormatU8), numgen.ErrInvalidRequest},
		{"zero threads", request(10, 10, 0, numgen.FormatU8), numgen.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, numgen.ErrConfiguration)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateDeliversEveryChunkOnce(t *testing.T) {
	t.Parallel()

	for _, format := range []numgen.FormatID{numgen.FormatU8, numgen.FormatU32, numgen.FormatText} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			o, err := New(request(1000, 100, 3, format))
			require.NoError(t, err)

			chunks, terminal := collect(t, o.Generate(context.Background()))
			require.Len(t, terminal, 1)
			assert.Equal(t, EventEnd, terminal[0].Kind)
			require.Len(t, chunks, 10)

			seen := make(map[int]bool)
			last := 0
			for i, ev := range chunks {
				assert.False(t, seen[ev.Chunk.Index], "index %d delivered twice", ev.Chunk.Index)
				seen[ev.Chunk.Index] = true
				assert.EqualValues(t, 100, ev.Chunk.Length)
				assert.Len(t, ev.Chunk.Buffer, int(ev.Chunk.Size))
				if ev.IsLast {
					last++
					assert.Equal(t, len(chunks)-1, i, "last chunk must be the final chunk event")
				}
			}
			assert.Len(t, seen, 10)
			assert.Equal(t, 1, last)
			assert.Equal(t, 10, o.Completed())
			assert.Len(t, o.Chunks(), 10)
		})
	}
}

func TestGenerateSingleChunkIsLast(t *testing.T) {
	t.Parallel()

	o, err := New(request(4, 10, 8, numgen.FormatU8))
	require.NoError(t, err)

	chunks, terminal := collect(t, o.Generate(context.Background()))
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].IsLast)
	assert.Equal(t, 0, chunks[0].Chunk.Index)
	assert.EqualValues(t, 4, chunks[0].Chunk.Size)
	require.Len(t, terminal, 1)
	assert.Equal(t, EventEnd, terminal[0].Kind)
}

func TestGenerateWorkerFailure(t *testing.T) {
	t.Parallel()

	crash := errors.New("worker crashed")
	var calls atomic.Int32
	exec := func(ctx context.Context, task protocol.TaskDescriptor) (protocol.TaskResult, error) {
		calls.Add(1)
		if task.Index == 2 {
			return protocol.TaskResult{}, &numgen.TaskError{Index: task.Index, Err: crash}
		}
		return worker.Process(ctx, task)
	}

	o, err := New(request(10_000, 100, 2, numgen.FormatU8), WithExecutor(exec))
	require.NoError(t, err)

	chunks, terminal := collect(t, o.Generate(context.Background()))
	require.Len(t, terminal, 1)
	assert.Equal(t, EventFailure, terminal[0].Kind)
	assert.ErrorIs(t, terminal[0].Err, numgen.ErrWorkerFailure)
	assert.ErrorIs(t, terminal[0].Err, crash)

	for _, ev := range chunks {
		assert.False(t, ev.IsLast)
		assert.NotEqual(t, 2, ev.Chunk.Index)
	}
	assert.Less(t, int(calls.Load()), 100, "queued chunks should not start after a failure")
}

func TestGenerateCancellation(t *testing.T) {
	t.Parallel()

	exec := func(ctx context.Context, task protocol.TaskDescriptor) (protocol.TaskResult, error) {
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return protocol.TaskResult{}, ctx.Err()
		}
		return worker.Process(ctx, task)
	}

	o, err := New(request(1000, 10, 2, numgen.FormatU8), WithExecutor(exec))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	chunks, terminal := collect(t, o.Generate(ctx))
	require.Len(t, terminal, 1)
	assert.Equal(t, EventFailure, terminal[0].Kind)
	assert.ErrorIs(t, terminal[0].Err, context.Canceled)
	assert.Less(t, len(chunks), 100)
}

func TestGenerateCancelledWhileChunkPending(t *testing.T) {
	t.Parallel()

	l, err := ledger.New(storage.NewMemoryBackend())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	o, err := New(request(40, 10, 4, numgen.FormatU8), WithLedger(l))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	events := o.Generate(ctx)

	// Let every task finish so a chunk is waiting on the unread channel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	chunks, terminal := collect(t, events)
	require.Len(t, terminal, 1)
	assert.Equal(t, EventFailure, terminal[0].Kind)
	assert.ErrorIs(t, terminal[0].Err, context.Canceled)

	assert.Equal(t, len(chunks), o.Completed())
	assert.Len(t, o.Chunks(), o.Completed())

	run, err := l.LoadRun(o.RunID())
	require.NoError(t, err)
	assert.Equal(t, protocol.RunStatusFailed, run.Status)
	assert.Equal(t, len(chunks), run.ChunksDone)
}

func TestGenerateTwice(t *testing.T) {
	t.Parallel()

	o, err := New(request(10, 10, 1, numgen.FormatU8))
	require.NoError(t, err)

	_, terminal := collect(t, o.Generate(context.Background()))
	require.Len(t, terminal, 1)
	assert.Equal(t, EventEnd, terminal[0].Kind)

	chunks, terminal := collect(t, o.Generate(context.Background()))
	assert.Empty(t, chunks)
	require.Len(t, terminal, 1)
	assert.ErrorIs(t, terminal[0].Err, ErrAlreadyStarted)
}

func TestGenerateRecordsLedger(t *testing.T) {
	t.Parallel()

	l, err := ledger.New(storage.NewMemoryBackend())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	o, err := New(request(50, 10, 2, numgen.FormatU16), WithLedger(l))
	require.NoError(t, err)

	_, terminal := collect(t, o.Generate(context.Background()))
	require.Len(t, terminal, 1)
	require.Equal(t, EventEnd, terminal[0].Kind)

	run, err := l.LoadRun(o.RunID())
	require.NoError(t, err)
	assert.Equal(t, protocol.RunStatusCompleted, run.Status)
	assert.Equal(t, 5, run.ChunkCount)
	assert.Equal(t, 5, run.ChunksDone)
	assert.EqualValues(t, 100, run.BytesDone)
	assert.Equal(t, 2, run.Workers)
	assert.Empty(t, run.Error)

	metas, err := l.LoadChunks(o.RunID())
	require.NoError(t, err)
	require.Len(t, metas, 5)
	for i, meta := range metas {
		assert.Equal(t, i, meta.Index)
		assert.EqualValues(t, 20, meta.Size)
		assert.EqualValues(t, 10, meta.Length)
	}
}

func TestGenerateRecordsFailedRun(t *testing.T) {
	t.Parallel()

	l, err := ledger.New(storage.NewMemoryBackend())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	exec := func(ctx context.Context, task protocol.TaskDescriptor) (protocol.TaskResult, error) {
		return protocol.TaskResult{}, &numgen.TaskError{Index: task.Index, Err: errors.New("boom")}
	}

	o, err := New(request(30, 10, 1, numgen.FormatU8), WithLedger(l), WithExecutor(exec))
	require.NoError(t, err)

	_, terminal := collect(t, o.Generate(context.Background()))
	require.Len(t, terminal, 1)
	require.Equal(t, EventFailure, terminal[0].Kind)

	run, err := l.LoadRun(o.RunID())
	require.NoError(t, err)
	assert.Equal(t, protocol.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "boom")
	assert.Equal(t, 0, run.ChunksDone)
}

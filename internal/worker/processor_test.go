package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.jsn.cam/numgen/pkg/numgen"
	"pkg.jsn.cam/numgen/pkg/numgen/protocol"
)

func descriptor(index int, length int64, format numgen.FormatID) protocol.TaskDescriptor {
	return protocol.TaskDescriptor{
		Version: protocol.Version,
		RunID:   "run-test",
		Engine:  numgen.EngineMathRandom,
		Format:  format,
		Index:   index,
		Length:  length,
		Min:     0,
		Max:     255,
	}
}

func TestProcessGeneratesChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   numgen.FormatID
		wantSize int64
	}{
		{"u8", numgen.FormatU8, 100},
		{"u16", numgen.FormatU16, 200},
		{"u32", numgen.FormatU32, 400},
		{"u64", numgen.FormatU64, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Process(context.Background(), descriptor(7, 100, tt.format))
			require.NoError(t, err)
			assert.Equal(t, 7, res.Index)
			assert.Equal(t, "run-test", res.RunID)
			assert.EqualValues(t, 100, res.Length)
			assert.Equal(t, tt.wantSize, res.Size)
			assert.Len(t, res.Buffer, int(tt.wantSize))
		})
	}
}

func TestProcessText(t *testing.T) {
	t.Parallel()

	res, err := Process(context.Background(), descriptor(0, 5, numgen.FormatText))
	require.NoError(t, err)
	assert.EqualValues(t, len(res.Buffer), res.Size)
	assert.EqualValues(t, 5, res.Length)
}

func TestProcessRejectsBadDescriptors(t *testing.T) {
	t.Parallel()

	outOfRange := descriptor(3, 10, numgen.FormatU8)
	outOfRange.Max = 256

	unknownFormat := descriptor(4, 10, "u128")

	oldVersion := descriptor(5, 10, numgen.FormatU8)
	oldVersion.Version = "v0.9.0"

	badVersion := descriptor(6, 10, numgen.FormatU8)
	badVersion.Version = "latest"

	tests := []struct {
		name    string
		task    protocol.TaskDescriptor
		wantErr error
	}{
		{"bounds beyond backend", outOfRange, numgen.ErrMaxOutOfRange},
		{"unknown format", unknownFormat, numgen.ErrUnknownFormat},
		{"incompatible major version", oldVersion, numgen.ErrIncompatibleVersion},
		{"invalid version", badVersion, numgen.ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Process(context.Background(), tt.task)
			require.Error(t, err)
			assert.ErrorIs(t, err, numgen.ErrWorkerFailure)
			assert.ErrorIs(t, err, tt.wantErr)

			var taskErr *numgen.TaskError
			require.True(t, errors.As(err, &taskErr))
			assert.Equal(t, tt.task.Index, taskErr.Index)
		})
	}
}

func TestProcessCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, descriptor(0, 10, numgen.FormatU8))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, numgen.ErrWorkerFailure)
}

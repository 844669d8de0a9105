package protocol

import (
	"pkg.jsn.cam/numgen/pkg/numgen"
)

// TaskDescriptor is everything a worker needs to generate one chunk on its own.
type TaskDescriptor struct {
	Version string          `json:"version"`
	RunID   string          `json:"run_id"`
	Engine  numgen.EngineID `json:"engine"`
	Format  numgen.FormatID `json:"format"`
	Index   int             `json:"index"`  // 0-based chunk ordinal
	Length  int64           `json:"length"` // values in the chunk
	Min     int64           `json:"min"`
	Max     int64           `json:"max"`
}

// TaskResult is returned by a worker for one descriptor.
type TaskResult struct {
	RunID  string `json:"run_id"`
	Buffer []byte `json:"buffer"`
	Index  int    `json:"index"`
	Size   int64  `json:"size"`
	Length int64  `json:"length"`
}

// Chunk converts the wire result to a ChunkResult.
func (r TaskResult) Chunk() numgen.ChunkResult {
	return numgen.ChunkResult{
		Index:  r.Index,
		Size:   r.Size,
		Length: r.Length,
		Buffer: r.Buffer,
	}
}

// NewTaskResult builds the wire result for a generated chunk.
func NewTaskResult(runID string, chunk numgen.ChunkResult) TaskResult {
	return TaskResult{
		RunID:  runID,
		Buffer: chunk.Buffer,
		Index:  chunk.Index,
		Size:   chunk.Size,
		Length: chunk.Length,
	}
}

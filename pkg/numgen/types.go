package numgen

// EngineID names a randomness engine.
type EngineID string

const (
	EngineMathRandom   EngineID = "math-random"
	EngineCryptoRandom EngineID = "crypto-random"
)

// FormatID names an output format.
type FormatID string

const (
	FormatU8   FormatID = "u8"
	FormatU16  FormatID = "u16"
	FormatU32  FormatID = "u32"
	FormatU64  FormatID = "u64"
	FormatText FormatID = "text"
)

// MaxSafeInteger is the largest integer every engine and format can round-trip
// without losing precision (2^53 - 1).
const MaxSafeInteger int64 = 1<<53 - 1

// MinSafeInteger is the negated MaxSafeInteger.
const MinSafeInteger int64 = -MaxSafeInteger

// Engine produces one bounded random integer per call.
type Engine interface {
	// Generate returns a value intended to lie in [Min(), Max()].
	Generate() (int64, error)
	Min() int64
	Max() int64
}

// Backend serializes integers drawn from its Engine into a concrete encoding.
// A Backend owns its Engine and is never shared between tasks.
type Backend interface {
	// Generate samples the engine length times and returns the serialized chunk.
	// The returned result has a zero Index; callers assign it.
	Generate(length int64) (ChunkResult, error)
	Min() int64
	Max() int64
	// EstimatedSize returns the expected encoded size, in bytes, of count values.
	EstimatedSize(count int64) float64
	Engine() Engine
}

// GenerationRequest describes one generation run. It is validated by the
// caller and treated as immutable once handed to the orchestrator.
type GenerationRequest struct {
	Amount      int64    `json:"amount"`
	MinNumber   int64    `json:"min_number"`
	MaxNumber   int64    `json:"max_number"`
	ChunkSize   int64    `json:"chunk_size"`
	ThreadCount int      `json:"thread_count"`
	Engine      EngineID `json:"engine"`
	Format      FormatID `json:"format"`
}

// ChunkResult is one serialized chunk.
type ChunkResult struct {
	Index  int    `json:"index"`
	Size   int64  `json:"size"`   // encoded size in bytes
	Length int64  `json:"length"` // number of values
	Buffer []byte `json:"buffer,omitempty"`
}

// Meta strips the payload.
func (c ChunkResult) Meta() ChunkMeta {
	return ChunkMeta{Index: c.Index, Size: c.Size, Length: c.Length}
}

// ChunkMeta is what survives of a chunk once its payload has been delivered.
type ChunkMeta struct {
	Index  int   `json:"index"`
	Size   int64 `json:"size"`
	Length int64 `json:"length"`
}

package backends

import (
	"fmt"
	"strconv"

	"pkg.jsn.cam/numgen/pkg/numgen"
)

// Separator joins values in the text format.
const Separator = ','

// Text renders values as base-10 integers joined by commas, without a
// trailing separator.
type Text struct {
	engine numgen.Engine
}

// NewText creates a text backend.
func NewText(engine numgen.Engine) *Text {
	return &Text{engine: engine}
}

func (t *Text) Generate(length int64) (numgen.ChunkResult, error) {
	buf := make([]byte, 0, t.capacityHint(length))

	for i := int64(0); i < length; i++ {
		v, err := t.engine.Generate()
		if err != nil {
			return numgen.ChunkResult{}, fmt.Errorf("text value %d: %w", i, err)
		}
		if i > 0 {
			buf = append(buf, Separator)
		}
		buf = strconv.AppendInt(buf, v, 10)
	}

	return numgen.ChunkResult{
		Size:   int64(len(buf)),
		Length: length,
		Buffer: buf,
	}, nil
}

func (t *Text) Min() int64 { return numgen.MinSafeInteger }

func (t *Text) Max() int64 { return numgen.MaxSafeInteger }

// EstimatedSize averages the size of count values rendered with the shortest
// and with the longest decimal string of the engine bounds, each value
// followed by a separator except the last.
func (t *Text) EstimatedSize(count int64) float64 {
	if count <= 0 {
		return 0
	}
	low := (decimalLen(t.engine.Min())+1)*count - 1
	high := (decimalLen(t.engine.Max())+1)*count - 1
	return float64(low+high) / 2
}

func (t *Text) Engine() numgen.Engine { return t.engine }

// capacityHint sizes the buffer for the longest possible rendering, capped
// to avoid huge up-front allocations for very long chunks.
func (t *Text) capacityHint(length int64) int64 {
	const maxHint = 64 << 20

	width := max(decimalLen(t.engine.Min()), decimalLen(t.engine.Max())) + 1
	return min(width*length, maxHint)
}

func decimalLen(v int64) int64 {
	return int64(len(strconv.FormatInt(v, 10)))
}

var _ numgen.Backend = (*Text)(nil)

package engines

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"pkg.jsn.cam/numgen/pkg/numgen"
)

// MathRandom is the fast, non-cryptographic engine. It scales a uniform
// float64 in [0, 1) to the configured range: floor(u * (max-min+1)) + min.
//
// The scaling is biased whenever the range size does not evenly divide the
// 2^53 resolution of the float sample. The bias is negligible for small
// ranges and is kept as is.
type MathRandom struct {
	rng  *rand.Rand
	min  int64
	max  int64
	span float64
}

// NewMathRandom creates a fast engine with its own PCG source, seeded from
// crypto/rand.
func NewMathRandom(min, max int64) (*MathRandom, error) {
	seed1, seed2, err := newSeed()
	if err != nil {
		return nil, err
	}
	return &MathRandom{
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
		min:  min,
		max:  max,
		span: float64(max-min) + 1,
	}, nil
}

func (e *MathRandom) Generate() (int64, error) {
	return int64(math.Floor(e.rng.Float64()*e.span)) + e.min, nil
}

func (e *MathRandom) Min() int64 { return e.min }

func (e *MathRandom) Max() int64 { return e.max }

var _ numgen.Engine = (*MathRandom)(nil)

// seedSource feeds newSeed.
var seedSource io.Reader = crand.Reader

func newSeed() (uint64, uint64, error) {
	var b [16]byte
	if _, err := io.ReadFull(seedSource, b[:]); err != nil {
		return 0, 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]), nil
}

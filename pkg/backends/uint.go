package backends

import (
	"encoding/binary"
	"fmt"

	"pkg.jsn.cam/numgen/pkg/numgen"
)

// widthInfo describes one supported unsigned integer width.
type widthInfo struct {
	max   int64
	bytes int64
	put   func(b []byte, v uint64)
}

var widths = map[int]widthInfo{
	8: {
		max:   1<<8 - 1,
		bytes: 1,
		put:   func(b []byte, v uint64) { b[0] = byte(v) },
	},
	16: {
		max:   1<<16 - 1,
		bytes: 2,
		put:   func(b []byte, v uint64) { binary.LittleEndian.PutUint16(b, uint16(v)) },
	},
	32: {
		max:   1<<32 - 1,
		bytes: 4,
		put:   func(b []byte, v uint64) { binary.LittleEndian.PutUint32(b, uint32(v)) },
	},
	// 64-bit values are capped at the safe integer ceiling, not the full
	// uint64 range, so every format shares the same numeric domain.
	64: {
		max:   numgen.MaxSafeInteger,
		bytes: 8,
		put:   binary.LittleEndian.PutUint64,
	},
}

// Uint packs values as contiguous little-endian unsigned integers of a fixed width.
type Uint struct {
	engine numgen.Engine
	bits   int
	info   widthInfo
}

// NewUint creates a fixed-width backend. bits must be 8, 16, 32 or 64.
func NewUint(bits int, engine numgen.Engine) (*Uint, error) {
	info, ok := widths[bits]
	if !ok {
		return nil, numgen.ConfigError(numgen.ErrUnsupportedBitWidth, "%d bits", bits)
	}
	return &Uint{engine: engine, bits: bits, info: info}, nil
}

func (u *Uint) Generate(length int64) (numgen.ChunkResult, error) {
	buf := make([]byte, length*u.info.bytes)

	for i := int64(0); i < length; i++ {
		v, err := u.engine.Generate()
		if err != nil {
			return numgen.ChunkResult{}, fmt.Errorf("u%d value %d: %w", u.bits, i, err)
		}
		u.info.put(buf[i*u.info.bytes:], uint64(v))
	}

	return numgen.ChunkResult{
		Size:   int64(len(buf)),
		Length: length,
		Buffer: buf,
	}, nil
}

// Bits returns the encoded width.
func (u *Uint) Bits() int { return u.bits }

// BytesPerElement returns the encoded size of a single value.
func (u *Uint) BytesPerElement() int64 { return u.info.bytes }

func (u *Uint) Min() int64 { return 0 }

func (u *Uint) Max() int64 { return u.info.max }

// EstimatedSize is exact for fixed-width encodings.
func (u *Uint) EstimatedSize(count int64) float64 {
	return float64(count * u.info.bytes)
}

func (u *Uint) Engine() numgen.Engine { return u.engine }

var _ numgen.Backend = (*Uint)(nil)

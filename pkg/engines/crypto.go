package engines

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"pkg.jsn.cam/numgen/pkg/numgen"
)

// CryptoRandom draws uniformly distributed integers in [min, max] inclusive
// from crypto/rand. rand.Int rejects out-of-range samples, so there is no
// modulo bias.
type CryptoRandom struct {
	min  int64
	max  int64
	span *big.Int
	base *big.Int
}

// NewCryptoRandom creates a cryptographically secure engine.
func NewCryptoRandom(min, max int64) *CryptoRandom {
	span := new(big.Int).Sub(big.NewInt(max), big.NewInt(min))
	span.Add(span, big.NewInt(1))

	return &CryptoRandom{
		min:  min,
		max:  max,
		span: span,
		base: big.NewInt(min),
	}
}

func (e *CryptoRandom) Generate() (int64, error) {
	n, err := rand.Int(rand.Reader, e.span)
	if err != nil {
		return 0, fmt.Errorf("read secure random integer: %w", err)
	}
	return n.Add(n, e.base).Int64(), nil
}

func (e *CryptoRandom) Min() int64 { return e.min }

func (e *CryptoRandom) Max() int64 { return e.max }

var _ numgen.Engine = (*CryptoRandom)(nil)

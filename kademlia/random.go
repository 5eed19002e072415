package kademlia

import (
	"math/big"
	"math/rand/v2"
)

// RandomSource abstracts randomness for deterministic testing of refresh-
// identifier generation: the random source is injected rather than owned
// by the routing table.
type RandomSource interface {
	// IntRange returns a value drawn uniformly from the half-open integer
	// range [lo, hi). Callers guarantee lo < hi.
	IntRange(lo, hi *big.Int) *big.Int
}

// mathRandSource is the production RandomSource, backed by math/rand/v2.
// Refresh-identifier generation picks a region of the ID space to probe
// next; it has no cryptographic requirement, so the non-cryptographic
// math/rand/v2 generator is used rather than crypto/rand.
type mathRandSource struct{}

// IntRange draws a uniform value from [lo, hi) using rejection sampling
// over the minimal byte width that spans the range.
func (mathRandSource) IntRange(lo, hi *big.Int) *big.Int {
	span := new(big.Int).Sub(hi, lo)
	if span.Sign() <= 0 {
		return new(big.Int).Set(lo)
	}

	byteLen := (span.BitLen() + 7) / 8
	if byteLen == 0 {
		byteLen = 1
	}
	buf := make([]byte, byteLen)

	for {
		for i := range buf {
			buf[i] = byte(rand.IntN(256))
		}
		n := new(big.Int).SetBytes(buf)
		if n.Cmp(span) < 0 {
			return n.Add(n, lo)
		}
	}
}

// defaultRandomSource is used whenever a nil RandomSource is supplied.
var defaultRandomSource RandomSource = mathRandSource{}

func randomSourceOrDefault(r RandomSource) RandomSource {
	if r == nil {
		return defaultRandomSource
	}
	return r
}

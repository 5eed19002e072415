package kademlia

import "math/big"

// fakeClock is a manually-advanced Clock for deterministic tests.
type fakeClock struct {
	seconds int64
}

func (c *fakeClock) NowSeconds() int64 {
	return c.seconds
}

func (c *fakeClock) Advance(seconds int64) {
	c.seconds += seconds
}

// fixedRandom is a RandomSource that always returns the same preset value,
// clamped into range if necessary, for tests that need a deterministic
// refresh identifier.
type fixedRandom struct {
	value *big.Int
}

func (r fixedRandom) IntRange(lo, hi *big.Int) *big.Int {
	if r.value.Cmp(lo) < 0 || r.value.Cmp(hi) >= 0 {
		return new(big.Int).Set(lo)
	}
	return new(big.Int).Set(r.value)
}

// mustID parses s as a DefaultBitNodeIDLen-bit identifier, failing the test
// on error.
func mustID(tb interface{ Fatalf(string, ...interface{}) }, s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		tb.Fatalf("mustID(%q): %v", s, err)
	}
	return id
}

// mustNumID converts n to a DefaultBitNodeIDLen-bit identifier, failing the
// test on error.
func mustNumID(tb interface{ Fatalf(string, ...interface{}) }, n int64) Identifier {
	id, err := NumToIdentifier(big.NewInt(n))
	if err != nil {
		tb.Fatalf("mustNumID(%d): %v", n, err)
	}
	return id
}

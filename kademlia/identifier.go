package kademlia

import (
	"fmt"
	"math/big"
	"strings"
)

// DefaultBitNodeIDLen is the width, in bits, of identifiers used by a
// RoutingTable constructed with DefaultConfig. HexLen(DefaultBitNodeIDLen)
// gives the corresponding canonical hex-string length (40).
const DefaultBitNodeIDLen = 160

// HexLen returns the canonical hex-string length for a given identifier bit
// width. bitLen must be a multiple of 4.
func HexLen(bitLen int) int {
	return bitLen / 4
}

// Identifier is a node or value identifier in the DHT's ID space. The zero
// value is not a valid Identifier; construct one via ParseIdentifier,
// ParseIdentifierBits, NumToIdentifier, or NumToIdentifierBits.
//
// The underlying representation is the canonical lowercase, zero-padded hex
// string: two Identifiers are equal iff their hex forms are equal, which
// makes Identifier directly usable as a map key and gives Contact
// identifier-only equality for free.
type Identifier string

// String returns the canonical hex representation of the identifier.
func (id Identifier) String() string {
	return string(id)
}

// Num returns the integer value of the identifier.
func (id Identifier) Num() *big.Int {
	n := new(big.Int)
	n.SetString(string(id), 16)
	return n
}

// ParseIdentifier parses s as a DefaultBitNodeIDLen-bit identifier. See
// ParseIdentifierBits for the accepted syntax.
func ParseIdentifier(s string) (Identifier, error) {
	return ParseIdentifierBits(s, DefaultBitNodeIDLen)
}

// ParseIdentifierBits parses s as a bitLen-bit identifier in hexadecimal.
// An optional leading "0x"/"0X" and an optional trailing "L"/"l" (legacy
// big-integer notation) are stripped before validation; the canonical form
// produced has neither. ParseIdentifierBits fails with ErrBadIdentifier
// when the normalized string's length differs from HexLen(bitLen) or it is
// not valid hexadecimal.
func ParseIdentifierBits(s string, bitLen int) (Identifier, error) {
	norm := s
	if len(norm) >= 2 && (norm[0:2] == "0x" || norm[0:2] == "0X") {
		norm = norm[2:]
	}
	if len(norm) >= 1 && (norm[len(norm)-1] == 'L' || norm[len(norm)-1] == 'l') {
		norm = norm[:len(norm)-1]
	}

	wantLen := HexLen(bitLen)
	if len(norm) != wantLen {
		return "", fmt.Errorf("kademlia: identifier %q has length %d, want %d: %w", s, len(norm), wantLen, ErrBadIdentifier)
	}

	n, ok := new(big.Int).SetString(norm, 16)
	if !ok {
		return "", fmt.Errorf("kademlia: identifier %q is not valid hexadecimal: %w", s, ErrBadIdentifier)
	}

	return NumToIdentifierBits(n, bitLen)
}

// NumToIdentifier converts a nonnegative integer in [0, 2^DefaultBitNodeIDLen)
// to its canonical Identifier form.
func NumToIdentifier(n *big.Int) (Identifier, error) {
	return NumToIdentifierBits(n, DefaultBitNodeIDLen)
}

// NumToIdentifierBits converts a nonnegative integer in [0, 2^bitLen) to its
// canonical Identifier form: lowercase hex, zero-padded to HexLen(bitLen)
// characters. It fails with ErrBadIdentifier if n is out of range.
func NumToIdentifierBits(n *big.Int, bitLen int) (Identifier, error) {
	if n.Sign() < 0 {
		return "", fmt.Errorf("kademlia: identifier value %s is negative: %w", n, ErrBadIdentifier)
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bitLen))
	if n.Cmp(limit) >= 0 {
		return "", fmt.Errorf("kademlia: identifier value %s exceeds %d bits: %w", n, bitLen, ErrBadIdentifier)
	}

	hex := strings.ToLower(n.Text(16))
	wantLen := HexLen(bitLen)
	if len(hex) < wantLen {
		hex = strings.Repeat("0", wantLen-len(hex)) + hex
	}
	return Identifier(hex), nil
}

// Distance returns the XOR distance between two identifiers as an integer.
// It fails with ErrBadIdentifier if either identifier has improper length
// (i.e. the two operands were drawn from ID spaces of different widths).
func Distance(a, b Identifier) (*big.Int, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("kademlia: identifiers %q and %q have mismatched length: %w", a, b, ErrBadIdentifier)
	}
	if _, ok := new(big.Int).SetString(string(a), 16); !ok {
		return nil, fmt.Errorf("kademlia: identifier %q is not valid hexadecimal: %w", a, ErrBadIdentifier)
	}
	if _, ok := new(big.Int).SetString(string(b), 16); !ok {
		return nil, fmt.Errorf("kademlia: identifier %q is not valid hexadecimal: %w", b, ErrBadIdentifier)
	}
	return new(big.Int).Xor(a.Num(), b.Num()), nil
}

// RandomInRange returns a random Identifier of the given bit width, drawn
// uniformly from the half-open integer range [lo, hi), using rnd as the
// source of randomness. It requires lo < hi.
func RandomInRange(lo, hi *big.Int, bitLen int, rnd RandomSource) (Identifier, error) {
	if lo.Cmp(hi) >= 0 {
		return "", fmt.Errorf("kademlia: empty or inverted range [%s, %s)", lo, hi)
	}
	n := rnd.IntRange(lo, hi)
	return NumToIdentifierBits(n, bitLen)
}

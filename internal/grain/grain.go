// Package grain implements the Grain LFSR used to derive Poseidon round
// constants and MDS generator values, following the initialization described
// in section F of the supplementary material of
// https://eprint.iacr.org/2019/458.pdf. The bit stream matches the reference
// parameter generation script, so constants derived here are interoperable
// with other conforming implementations.
package grain

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

var rModulus = fr.Modulus()

// LFSR holds the 80-bit Grain state in two words: lo carries bits 0-63 and
// hi the remaining bits 64-79. Bit 79 is the oldest bit of the sequence.
type LFSR struct {
	lo uint64
	hi uint64
}

// New seeds the LFSR with the construction header for a prime field, the
// x^5 S-box, the field bit size and the given state width and round counts,
// then discards the first 160 bits as the specification requires.
func New(t, rF, rP int) *LFSR {
	g := &LFSR{}

	// Header, oldest bit first: 2-bit field type (01 = prime), 4-bit S-box
	// type (0000 = x^alpha), 12-bit field size, 12-bit width, 10-bit full
	// round count, 10-bit partial round count, 30 set bits.
	g.lo = (1 << 30) - 1
	g.lo |= uint64(rP) << 30
	g.lo |= uint64(rF) << 40
	g.lo |= uint64(t) << 50
	g.lo |= uint64(fr.Bits&0x3) << 62
	g.hi = uint64(fr.Bits >> 2)
	g.hi |= 1 << 14

	for i := 0; i < 160; i++ {
		g.nextBit()
	}
	return g
}

func (g *LFSR) bit(i int) uint64 {
	if i < 64 {
		return (g.lo >> i) & 1
	}
	return (g.hi >> (i - 64)) & 1
}

// nextBit clocks the register once: the feedback taps are bits 62, 51, 38,
// 23, 13 and 0 counted from the oldest bit.
func (g *LFSR) nextBit() uint64 {
	r := g.bit(17) ^ g.bit(28) ^ g.bit(41) ^ g.bit(56) ^ g.bit(66) ^ g.bit(79)
	carry := (g.lo >> 63) & 1
	g.lo = (g.lo << 1) | r
	g.hi = ((g.hi << 1) | carry) & 0xffff
	return r
}

// sampleBit returns the next bit of the self-shrinking output stream: bits
// are consumed in pairs and the second bit of a pair is emitted only when
// the first is set.
func (g *LFSR) sampleBit() uint64 {
	for g.nextBit() == 0 {
		g.nextBit()
	}
	return g.nextBit()
}

// nextBigInt reads fr.Bits sample bits, most significant first.
func (g *LFSR) nextBigInt() *big.Int {
	v := new(big.Int)
	for i := 0; i < fr.Bits; i++ {
		v.Lsh(v, 1)
		if g.sampleBit() == 1 {
			v.SetBit(v, 0, 1)
		}
	}
	return v
}

// NextFieldElement returns the next field element of the stream using
// rejection sampling, as the reference derivation does for round constants.
func (g *LFSR) NextFieldElement() fr.Element {
	for {
		v := g.nextBigInt()
		if v.Cmp(rModulus) < 0 {
			var e fr.Element
			e.SetBigInt(v)
			return e
		}
	}
}

// NextFieldElementWithoutRejection reduces the next fr.Bits sample bits
// modulo the field order. The reference derivation uses this cheaper path
// for the MDS generator values, which need not be uniformly random.
func (g *LFSR) NextFieldElementWithoutRejection() fr.Element {
	var e fr.Element
	e.SetBigInt(g.nextBigInt())
	return e
}

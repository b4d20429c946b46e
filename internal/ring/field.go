package ring

import "math/bits"

const (
	// N is the number of coefficients of a ring element.
	N = 256

	// Q is the prime modulus of the coefficient field.
	Q = 3329

	// BarrettMultiplier is ⌊2²⁴/q⌋, used to estimate quotients by q without
	// dividing.
	BarrettMultiplier = 5039

	// BarrettShift is the shift paired with BarrettMultiplier.
	BarrettShift = 24

	// invNTTScale is 128⁻¹ mod q, applied once at the end of InvNTT.
	invNTTScale = 3303

	// zeta is the primitive 256th root of unity modulo q.
	zeta = 17
)

// reduceOnce maps a value in [0, 2q) to [0, q) without branching on it.
func reduceOnce(a uint16) uint16 {
	x := a - Q
	// The subtraction wraps iff a < q, which sets the top bit.
	x += (x >> 15) * Q
	return x
}

// barrett reduces a < 2q² to its canonical representative in [0, q).
func barrett(a uint32) uint16 {
	quotient := uint32((uint64(a) * BarrettMultiplier) >> BarrettShift)
	return reduceOnce(uint16(a - quotient*Q))
}

// Reduce returns the canonical representative in [0, q) of a < 2q².
func Reduce(a uint32) uint16 {
	return barrett(a)
}

// ReduceOnce maps a value in [0, 2q) to [0, q). Every 12-bit value qualifies.
func ReduceOnce(a uint16) uint16 {
	return reduceOnce(a)
}

func fieldAdd(a, b uint16) uint16 {
	return reduceOnce(a + b)
}

func fieldSub(a, b uint16) uint16 {
	return reduceOnce(a - b + Q)
}

func fieldMul(a, b uint16) uint16 {
	return barrett(uint32(a) * uint32(b))
}

// fieldMulSub returns a·(b-c) mod q.
func fieldMulSub(a, b, c uint16) uint16 {
	return barrett(uint32(a) * uint32(b-c+Q))
}

// fieldAddMul returns a·b + c·d mod q.
func fieldAddMul(a, b, c, d uint16) uint16 {
	return barrett(uint32(a)*uint32(b) + uint32(c)*uint32(d))
}

// zetas[i] = ζ^brv7(i) and gammas[i] = ζ^(2·brv7(i)+1), both mod q.
var zetas, gammas = nttTables()

func nttTables() (z, g [128]uint16) {
	for i := 0; i < 128; i++ {
		r := uint(brv7(uint8(i)))
		z[i] = powZeta(r)
		g[i] = powZeta(2*r + 1)
	}
	return z, g
}

func powZeta(e uint) uint16 {
	r := uint16(1)
	for ; e > 0; e-- {
		r = fieldMul(r, zeta)
	}
	return r
}

// brv7 reverses the low seven bits of x.
func brv7(x uint8) uint8 {
	return bits.Reverse8(x) >> 1
}

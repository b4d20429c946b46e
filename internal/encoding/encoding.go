// Package encoding converts ring elements to and from their wire form.
//
// Two families live here. The lossless one packs 12-bit coefficients
// (ByteEncode12/ByteDecode12). The lossy one rounds coefficients to d bits
// before packing (Compress/Decompress, d ∈ {1, 4, 5, 10, 11}). All rounding
// is integer arithmetic with a Barrett quotient and sign-bit corrections, so
// it is bit-exact across platforms and never branches on a coefficient.
package encoding

import (
	"github.com/latticekem/kyber-go/internal/ring"
)

const (
	// PolyBytes is the size of a losslessly encoded polynomial.
	PolyBytes = 384

	// MessageBytes is the size of a PKE plaintext.
	MessageBytes = 32
)

// CompressedBytes returns the encoded size of a polynomial compressed to d
// bits per coefficient.
func CompressedBytes(d uint8) int {
	return ring.N * int(d) / 8
}

// ByteEncode packs the low d bits of every coefficient of p into dst,
// least significant bit first. dst must hold CompressedBytes(d) bytes.
func ByteEncode(dst []byte, p *ring.Poly, d uint8) {
	_ = dst[CompressedBytes(d)-1]
	var acc uint32
	var bits uint8
	j := 0
	mask := uint32(1)<<d - 1
	for _, c := range p {
		acc |= (uint32(c) & mask) << bits
		bits += d
		for bits >= 8 {
			dst[j] = byte(acc)
			j++
			acc >>= 8
			bits -= 8
		}
	}
}

// ByteDecode unpacks d-bit fields from src into p. It is the exact inverse
// of ByteEncode; for d = 12 the result may exceed q and must be checked or
// reduced by the caller.
func ByteDecode(p *ring.Poly, src []byte, d uint8) {
	_ = src[CompressedBytes(d)-1]
	var acc uint32
	var bits uint8
	j := 0
	mask := uint32(1)<<d - 1
	for i := range p {
		for bits < d {
			acc |= uint32(src[j]) << bits
			j++
			bits += 8
		}
		p[i] = uint16(acc & mask)
		acc >>= d
		bits -= d
	}
}

// Encode12 writes the lossless 12-bit encoding of p to dst.
func Encode12(dst []byte, p *ring.Poly) {
	ByteEncode(dst, p, 12)
}

// Decode12 decodes src into p and reports whether every coefficient was
// already canonical. p is fully written either way. Public keys are not
// secret, but the check still avoids early exits so its cost is fixed.
func Decode12(p *ring.Poly, src []byte) bool {
	ByteDecode(p, src, 12)
	var bad uint16
	for _, c := range p {
		// c - q has its top bit clear exactly when c ≥ q.
		bad |= ^(c - ring.Q) >> 15
	}
	return bad == 0
}

// Decode12Reduce decodes src into p, mapping every 12-bit value to its
// canonical residue.
func Decode12Reduce(p *ring.Poly, src []byte) {
	ByteDecode(p, src, 12)
	for i := range p {
		p[i] = ring.ReduceOnce(p[i])
	}
}

// EncodeVec12 writes the lossless encoding of v, PolyBytes per entry.
func EncodeVec12(dst []byte, v ring.Vec) {
	for i := range v {
		Encode12(dst[i*PolyBytes:(i+1)*PolyBytes], &v[i])
	}
}

// DecodeVec12 decodes len(v) polynomials from src. It reports false if any
// coefficient was out of range.
func DecodeVec12(v ring.Vec, src []byte) bool {
	ok := true
	for i := range v {
		ok = Decode12(&v[i], src[i*PolyBytes:(i+1)*PolyBytes]) && ok
	}
	return ok
}

// DecodeVec12Reduce decodes len(v) polynomials from src, reducing mod q.
func DecodeVec12Reduce(v ring.Vec, src []byte) {
	for i := range v {
		Decode12Reduce(&v[i], src[i*PolyBytes:(i+1)*PolyBytes])
	}
}

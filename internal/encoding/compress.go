package encoding

import (
	"github.com/latticekem/kyber-go/internal/ring"
)

// Compress returns round(x · 2^d / q) mod 2^d for x ∈ [0, q) and d < 12.
//
// The quotient comes from a Barrett estimate of (x << d) / q, which can be
// low by one; the remainder is then in [0, 2q) and two sign-bit tests
// round it up past q/2 and past 3q/2 respectively.
func Compress(x uint16, d uint8) uint16 {
	dividend := uint32(x) << d
	quotient := uint32(uint64(dividend) * ring.BarrettMultiplier >> ring.BarrettShift)
	remainder := dividend - quotient*ring.Q

	quotient += (ring.Q/2 - remainder) >> 31 & 1
	quotient += (ring.Q + ring.Q/2 - remainder) >> 31 & 1

	mask := uint32(1)<<d - 1
	return uint16(quotient & mask)
}

// Decompress returns round(y · q / 2^d) for y ∈ [0, 2^d), rounding halves up.
func Decompress(y uint16, d uint8) uint16 {
	dividend := uint32(y) * ring.Q
	quotient := dividend >> d
	// The first discarded bit decides rounding.
	quotient += dividend >> (d - 1) & 1
	return uint16(quotient)
}

// EncodeCompressed writes ByteEncode_d(Compress_d(p)) to dst.
func EncodeCompressed(dst []byte, p *ring.Poly, d uint8) {
	var c ring.Poly
	for i := range p {
		c[i] = Compress(p[i], d)
	}
	ByteEncode(dst, &c, d)
}

// DecodeDecompressed sets p = Decompress_d(ByteDecode_d(src)).
func DecodeDecompressed(p *ring.Poly, src []byte, d uint8) {
	ByteDecode(p, src, d)
	for i := range p {
		p[i] = Decompress(p[i], d)
	}
}

// EncodeCompressedVec compresses and packs every entry of v back to back.
func EncodeCompressedVec(dst []byte, v ring.Vec, d uint8) {
	n := CompressedBytes(d)
	for i := range v {
		EncodeCompressed(dst[i*n:(i+1)*n], &v[i], d)
	}
}

// DecodeDecompressedVec is the inverse of EncodeCompressedVec up to rounding.
func DecodeDecompressedVec(v ring.Vec, src []byte, d uint8) {
	n := CompressedBytes(d)
	for i := range v {
		DecodeDecompressed(&v[i], src[i*n:(i+1)*n], d)
	}
}

// EncodeMessage writes Compress_1(p) as a 32-byte message. A coefficient
// decodes to 1 when it is closer to q/2 than to 0.
func EncodeMessage(m []byte, p *ring.Poly) {
	_ = m[MessageBytes-1]
	for i := range m[:MessageBytes] {
		var b byte
		for j := 0; j < 8; j++ {
			b |= byte(Compress(p[8*i+j], 1)) << j
		}
		m[i] = b
	}
}

// DecodeMessage sets p = Decompress_1(m): bit 1 maps to ⌈q/2⌉, bit 0 to 0.
func DecodeMessage(p *ring.Poly, m []byte) {
	_ = m[MessageBytes-1]
	for i := 0; i < MessageBytes; i++ {
		for j := 0; j < 8; j++ {
			bit := uint16(m[i]>>j) & 1
			p[8*i+j] = -bit & ((ring.Q + 1) / 2)
		}
	}
}

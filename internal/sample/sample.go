// Package sample draws ring elements from byte streams: noise polynomials
// from the centered binomial distribution and public matrix entries by
// uniform rejection sampling.
package sample

import (
	"github.com/latticekem/kyber-go/internal/ring"
	"github.com/latticekem/kyber-go/internal/secret"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// MaxEta bounds the CBD parameter of every supported parameter set.
const MaxEta = 3

// XOFBlockSize is the SHAKE128 rate. Uniform requests output in blocks of
// this size.
const XOFBlockSize = 168

// CBD sets p to a sample from the centered binomial distribution with
// parameter eta, reading 64·eta bytes of buf. Each coefficient is the
// difference of the Hamming weights of two adjacent eta-bit windows.
// Bits are summed with shifts and masks; no table is indexed by secret data.
func CBD(p *ring.Poly, buf []byte, eta uint8) {
	_ = buf[64*int(eta)-1]
	w := 2 * eta
	var acc uint32
	var bits uint8
	j := 0
	for i := range p {
		for bits < w {
			acc |= uint32(buf[j]) << bits
			j++
			bits += 8
		}
		var x, y uint16
		for k := uint8(0); k < eta; k++ {
			x += uint16(acc>>k) & 1
			y += uint16(acc>>(eta+k)) & 1
		}
		acc >>= w
		bits -= w
		p[i] = ring.ReduceOnce(x - y + ring.Q)
	}
}

// Noise sets p = CBD_eta(PRF(seed, nonce)) and wipes the PRF output.
func Noise(p *ring.Poly, prf symmetric.Provider, seed []byte, nonce byte, eta uint8) {
	var buf [64 * MaxEta]byte
	b := buf[:64*int(eta)]
	prf.PRF(b, seed, nonce)
	CBD(p, b, eta)
	secret.Wipe(buf[:])
}

// NoiseVec fills v from consecutive nonces starting at nonce and returns the
// next unused nonce.
func NoiseVec(v ring.Vec, prf symmetric.Provider, seed []byte, nonce byte, eta uint8) byte {
	for i := range v {
		Noise(&v[i], prf, seed, nonce, eta)
		nonce++
	}
	return nonce
}

// Uniform fills p with coefficients drawn uniformly from Z_q. Every three
// bytes of the stream yield two 12-bit candidates, each kept only if it is
// below q. More blocks are squeezed until 256 coefficients are accepted.
//
// The stream is public, so branching on its contents leaks nothing.
func Uniform(p *ring.Poly, xof symmetric.Squeezer) {
	var buf [XOFBlockSize]byte
	j := 0
	for {
		xof.Squeeze(buf[:])
		for off := 0; off < XOFBlockSize; off += 3 {
			d1 := uint16(buf[off]) | uint16(buf[off+1]&0x0F)<<8
			d2 := uint16(buf[off+1])>>4 | uint16(buf[off+2])<<4
			if d1 < ring.Q {
				p[j] = d1
				j++
				if j == ring.N {
					return
				}
			}
			if d2 < ring.Q {
				p[j] = d2
				j++
				if j == ring.N {
					return
				}
			}
		}
	}
}

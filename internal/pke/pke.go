// Package pke implements the deterministic IND-CPA public-key encryption
// scheme underneath the KEM. Every operation is a pure function of its
// explicit inputs; the KEM relies on that to re-encrypt during
// decapsulation.
//
// Secret-bearing intermediates (σ, s, e, r, e1, e2, the encoded message)
// are wiped by deferred calls, so they are cleared on every return path.
package pke

import (
	"github.com/latticekem/kyber-go/internal/encoding"
	"github.com/latticekem/kyber-go/internal/ring"
	"github.com/latticekem/kyber-go/internal/sample"
	"github.com/latticekem/kyber-go/internal/secret"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// KeyGen derives a key pair from the 32-byte seed d and writes the encoded
// public key to pk and the encoded secret vector to sk.
//
//	(ρ, σ) = G(d)          or G(d ‖ k) when domain separated
//	t̂ = Â·NTT(s) + NTT(e)
//	pk = ByteEncode12(t̂) ‖ ρ, sk = ByteEncode12(NTT(s))
func KeyGen(p Params, sym symmetric.Provider, d []byte, pk, sk []byte) {
	_ = d[SeedSize-1]
	_ = pk[p.PublicKeySize()-1]
	_ = sk[p.PrivateKeySize()-1]

	var g [64]byte
	defer secret.Wipe(g[:])
	if p.DomainSeparated {
		sym.G(&g, d[:SeedSize], []byte{byte(p.K)})
	} else {
		sym.G(&g, d[:SeedSize])
	}
	rho, sigma := g[:32], g[32:]

	s, e := ring.NewVec(p.K), ring.NewVec(p.K)
	defer s.Wipe()
	defer e.Wipe()
	n := sample.NoiseVec(s, sym, sigma, 0, p.Eta1)
	sample.NoiseVec(e, sym, sigma, n, p.Eta1)
	s.NTT()
	e.NTT()

	t := ring.NewVec(p.K)
	sample.NewMatrix(sym, rho, p.K).MulVec(t, s, false)
	t.Add(t, e)

	encoding.EncodeVec12(pk, t)
	copy(pk[p.K*encoding.PolyBytes:], rho)
	encoding.EncodeVec12(sk, s)
}

// PublicKey is a decoded encryption key. The matrix Â is regenerated from ρ
// on each encryption unless Materialize has been called.
type PublicKey struct {
	params Params
	sym    symmetric.Provider
	t      ring.Vec
	rho    [sample.SeedSize]byte
	a      *sample.Matrix
}

// NewPublicKey decodes b, which must be exactly PublicKeySize bytes. With
// strict set, coefficients of t̂ at or above q make it report false;
// otherwise they are reduced. The key is usable in both cases.
func NewPublicKey(p Params, sym symmetric.Provider, b []byte, strict bool) (*PublicKey, bool) {
	pk := &PublicKey{params: p, sym: sym, t: ring.NewVec(p.K)}
	ok := true
	if strict {
		ok = encoding.DecodeVec12(pk.t, b[:p.K*encoding.PolyBytes])
	} else {
		encoding.DecodeVec12Reduce(pk.t, b[:p.K*encoding.PolyBytes])
	}
	copy(pk.rho[:], b[p.K*encoding.PolyBytes:p.PublicKeySize()])
	pk.a = sample.NewMatrix(sym, pk.rho[:], p.K)
	return pk, ok
}

// Materialize caches Â so later encryptions skip the XOF.
func (pk *PublicKey) Materialize() {
	pk.a.Materialize()
}

// Encode writes the canonical encoding of pk to dst.
func (pk *PublicKey) Encode(dst []byte) {
	encoding.EncodeVec12(dst, pk.t)
	copy(dst[pk.params.K*encoding.PolyBytes:], pk.rho[:])
}

// Encrypt writes the encryption of the 32-byte message m under the 32-byte
// coins to ct.
//
//	u = NTT⁻¹(Âᵀ·r̂) + e1
//	v = NTT⁻¹(t̂ᵀ·r̂) + e2 + Decompress1(m)
//	ct = Compress_du(u) ‖ Compress_dv(v)
func (pk *PublicKey) Encrypt(ct, m, coins []byte) {
	p := pk.params
	_ = ct[p.CiphertextSize()-1]
	_ = m[encoding.MessageBytes-1]
	_ = coins[SeedSize-1]

	r, e1 := ring.NewVec(p.K), ring.NewVec(p.K)
	var e2, mu, v ring.Poly
	defer r.Wipe()
	defer e1.Wipe()
	defer e2.Wipe()
	defer mu.Wipe()
	defer v.Wipe()

	n := sample.NoiseVec(r, pk.sym, coins[:SeedSize], 0, p.Eta1)
	n = sample.NoiseVec(e1, pk.sym, coins[:SeedSize], n, p.Eta2)
	sample.Noise(&e2, pk.sym, coins[:SeedSize], n, p.Eta2)
	r.NTT()

	u := ring.NewVec(p.K)
	pk.a.MulVec(u, r, true)
	u.InvNTT()
	u.Add(u, e1)

	v.Dot(pk.t, r)
	v.InvNTT()
	v.Add(&v, &e2)
	encoding.DecodeMessage(&mu, m)
	v.Add(&v, &mu)

	encoding.EncodeCompressedVec(ct[:p.uBytes()], u, p.DU)
	encoding.EncodeCompressed(ct[p.uBytes():p.CiphertextSize()], &v, p.DV)
}

// PrivateKey is a decoded decryption key ŝ.
type PrivateKey struct {
	params Params
	s      ring.Vec
}

// NewPrivateKey decodes b, which must be exactly PrivateKeySize bytes.
// Coefficients are reduced mod q so the ring invariants hold for any input.
func NewPrivateKey(p Params, b []byte) *PrivateKey {
	sk := &PrivateKey{params: p, s: ring.NewVec(p.K)}
	encoding.DecodeVec12Reduce(sk.s, b[:p.PrivateKeySize()])
	return sk
}

// Decrypt writes the 32-byte message recovered from ct to m.
func (sk *PrivateKey) Decrypt(m, ct []byte) {
	_ = m[encoding.MessageBytes-1]
	var w ring.Poly
	defer w.Wipe()
	sk.Residual(&w, ct)
	encoding.EncodeMessage(m, &w)
}

// Residual sets w = v - NTT⁻¹(ŝᵀ·NTT(u)), the encoded message plus the
// accumulated decryption noise, before it is rounded to message bits.
func (sk *PrivateKey) Residual(w *ring.Poly, ct []byte) {
	p := sk.params
	_ = ct[p.CiphertextSize()-1]

	u := ring.NewVec(p.K)
	var v, su ring.Poly
	defer su.Wipe()
	encoding.DecodeDecompressedVec(u, ct[:p.uBytes()], p.DU)
	encoding.DecodeDecompressed(&v, ct[p.uBytes():p.CiphertextSize()], p.DV)

	u.NTT()
	su.Dot(sk.s, u)
	su.InvNTT()
	w.Sub(&v, &su)
}

// Wipe zeroes the secret vector. The key must not be used afterwards.
func (sk *PrivateKey) Wipe() {
	sk.s.Wipe()
}

package sample

import (
	"github.com/latticekem/kyber-go/internal/ring"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// SeedSize is the size of the public matrix seed ρ.
const SeedSize = 32

// Matrix is the public k×k matrix Â in the NTT domain. It is a pure function
// of ρ: entries are regenerated from the XOF on every access unless the
// matrix has been materialized, in which case they are read from a cache.
//
// A Matrix is safe for concurrent reads once Materialize has returned.
type Matrix struct {
	xof   symmetric.Provider
	rho   [SeedSize]byte
	k     int
	cache []ring.Poly
}

// NewMatrix returns the on-demand generator for the k×k matrix seeded by rho.
func NewMatrix(xof symmetric.Provider, rho []byte, k int) *Matrix {
	m := &Matrix{xof: xof, k: k}
	copy(m.rho[:], rho)
	return m
}

// K returns the matrix dimension.
func (m *Matrix) K() int {
	return m.k
}

// Materialize generates every entry once and keeps them. Later calls are
// no-ops.
func (m *Matrix) Materialize() {
	if m.cache != nil {
		return
	}
	cache := make([]ring.Poly, m.k*m.k)
	for i := 0; i < m.k; i++ {
		for j := 0; j < m.k; j++ {
			m.generate(&cache[i*m.k+j], i, j)
		}
	}
	m.cache = cache
}

// Materialized reports whether entries are served from the cache.
func (m *Matrix) Materialized() bool {
	return m.cache != nil
}

// generate sets p = Â[i][j] = SampleNTT(XOF(ρ ‖ j ‖ i)).
func (m *Matrix) generate(p *ring.Poly, i, j int) {
	Uniform(p, m.xof.XOF(m.rho[:], byte(j), byte(i)))
}

// Entry sets p to Â[i][j], or to Âᵀ[i][j] = Â[j][i] when transposed is set.
func (m *Matrix) Entry(p *ring.Poly, i, j int, transposed bool) {
	if transposed {
		i, j = j, i
	}
	if m.cache != nil {
		*p = m.cache[i*m.k+j]
		return
	}
	m.generate(p, i, j)
}

// MulVec sets out = Â·v, or Âᵀ·v when transposed is set. v must be in the
// NTT domain and must not alias out.
func (m *Matrix) MulVec(out, v ring.Vec, transposed bool) {
	var a ring.Poly
	for i := 0; i < m.k; i++ {
		m.Entry(&a, i, 0, transposed)
		out[i].BaseMul(&a, &v[0])
		for j := 1; j < m.k; j++ {
			m.Entry(&a, i, j, transposed)
			out[i].BaseMulAdd(&a, &v[j])
		}
	}
}

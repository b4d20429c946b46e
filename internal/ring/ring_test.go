package ring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomPoly(rng *rand.Rand) Poly {
	var p Poly
	for i := range p {
		p[i] = uint16(rng.Intn(Q))
	}
	return p
}

// schoolbookMul multiplies in Z_q[X]/(X²⁵⁶+1) the slow way.
func schoolbookMul(a, b *Poly) Poly {
	var acc [2 * N]int64
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			acc[i+j] += int64(a[i]) * int64(b[j])
		}
	}
	var out Poly
	for i := 0; i < N; i++ {
		v := (acc[i] - acc[i+N]) % Q
		if v < 0 {
			v += Q
		}
		out[i] = uint16(v)
	}
	return out
}

func nttMul(a, b Poly) Poly {
	a.NTT()
	b.NTT()
	var c Poly
	c.BaseMul(&a, &b)
	c.InvNTT()
	return c
}

func TestFieldReduction(t *testing.T) {
	t.Run("reduceOnce covers [0, 2q)", func(t *testing.T) {
		for a := uint16(0); a < 2*Q; a++ {
			require.Equal(t, a%Q, reduceOnce(a), "a=%d", a)
		}
	})

	t.Run("barrett covers [0, 2q²)", func(t *testing.T) {
		for a := uint32(0); a < 2*Q*Q; a += 7 {
			if got, want := barrett(a), uint16(a%Q); got != want {
				t.Fatalf("barrett(%d) = %d, want %d", a, got, want)
			}
		}
		require.Equal(t, uint16((2*Q*Q-1)%Q), barrett(2*Q*Q-1))
	})

	t.Run("add sub mul", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 10000; i++ {
			a := uint16(rng.Intn(Q))
			b := uint16(rng.Intn(Q))
			require.Equal(t, uint16((uint32(a)+uint32(b))%Q), fieldAdd(a, b))
			require.Equal(t, uint16((uint32(a)+Q-uint32(b))%Q), fieldSub(a, b))
			require.Equal(t, uint16(uint32(a)*uint32(b)%Q), fieldMul(a, b))
		}
	})
}

func TestNTTTables(t *testing.T) {
	require.Equal(t, uint16(1), zetas[0])
	require.Equal(t, uint16(1729), zetas[1])
	require.Equal(t, uint16(Q-1), fieldMul(zetas[1], zetas[1]), "ζ^64 must be a square root of -1")
	require.Equal(t, uint16(17), gammas[0])
	require.Equal(t, uint16(Q-17), gammas[1])
	require.Equal(t, uint16(1), fieldMul(128, invNTTScale))
}

func TestNTTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		p := randomPoly(rng)
		orig := p
		p.NTT()
		p.InvNTT()
		require.Equal(t, orig, p)
	}
}

func TestNTTMultiplicationMatchesSchoolbook(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		a := randomPoly(rng)
		b := randomPoly(rng)
		require.Equal(t, schoolbookMul(&a, &b), nttMul(a, b))
	}

	t.Run("X times X^255 is -1", func(t *testing.T) {
		var a, b Poly
		a[1] = 1
		b[N-1] = 1
		var want Poly
		want[0] = Q - 1
		require.Equal(t, want, nttMul(a, b))
	})
}

func TestBaseMulAddAndDot(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := Vec{randomPoly(rng), randomPoly(rng), randomPoly(rng)}
	b := Vec{randomPoly(rng), randomPoly(rng), randomPoly(rng)}

	var want Poly
	for i := range a {
		var prod Poly
		prod.BaseMul(&a[i], &b[i])
		want.Add(&want, &prod)
	}
	var got Poly
	got.Dot(a, b)
	require.Equal(t, want, got)
}

func TestPolyReduceAndWipe(t *testing.T) {
	var p Poly
	for i := range p {
		p[i] = uint16(65535 - i)
	}
	p.Reduce()
	for i := range p {
		require.Equal(t, uint16((65535-i)%Q), p[i])
	}

	v := Vec{p, p}
	v.Wipe()
	require.Equal(t, Poly{}, v[0])
	require.Equal(t, Poly{}, v[1])
}

package main

import (
	"math"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/latticekem/kyber-go/internal/encoding"
	"github.com/latticekem/kyber-go/internal/pke"
	"github.com/latticekem/kyber-go/internal/ring"
	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

func pkeParams(ps kyber.ParameterSet) pke.Params {
	return pke.Params{
		K:               ps.K,
		Eta1:            ps.Eta1,
		Eta2:            ps.Eta2,
		DU:              ps.DU,
		DV:              ps.DV,
		DomainSeparated: ps.Variant == kyber.VariantMLKEM,
	}
}

// centered maps x ∈ [0, q) to its representative in (-q/2, q/2].
func centered(x uint16) int {
	v := int(x)
	if v > ring.Q/2 {
		v -= ring.Q
	}
	return v
}

// decryptionNoise runs trials encryptions under fresh keys drawn from a
// SHAKE128 stream keyed by label and returns every coefficient of the
// residual w - Decompress_1(m). Decryption is correct while all of them stay
// below q/4 in absolute value.
func decryptionNoise(ps kyber.ParameterSet, trials int, label string) []float64 {
	p := pkeParams(ps)
	sym := symmetric.Software()
	rng := sha3.NewShake128()
	rng.Write([]byte(label))

	pk := make([]byte, p.PublicKeySize())
	sk := make([]byte, p.PrivateKeySize())
	ct := make([]byte, p.CiphertextSize())
	var d, m, coins [pke.SeedSize]byte

	out := make([]float64, 0, trials*ring.N)
	for t := 0; t < trials; t++ {
		rng.Read(d[:])
		rng.Read(m[:])
		rng.Read(coins[:])

		pke.KeyGen(p, sym, d[:], pk, sk)
		pub, ok := pke.NewPublicKey(p, sym, pk, false)
		if !ok {
			panic("kyber-noise: generated public key does not decode")
		}
		pub.Encrypt(ct, m[:], coins[:])

		priv := pke.NewPrivateKey(p, sk)
		var w, want ring.Poly
		priv.Residual(&w, ct)
		priv.Wipe()
		encoding.DecodeMessage(&want, m[:])
		for i := range w {
			diff := (int(w[i]) - int(want[i]) + ring.Q) % ring.Q
			out = append(out, float64(centered(uint16(diff))))
		}
	}
	return out
}

// compressionError returns x - Decompress_d(Compress_d(x)) over the whole
// field, centered.
func compressionError(d uint8) []float64 {
	out := make([]float64, 0, ring.Q)
	for x := uint16(0); x < ring.Q; x++ {
		y := encoding.Decompress(encoding.Compress(x, d), d)
		e := int(x) - int(y)
		switch {
		case e > ring.Q/2:
			e -= ring.Q
		case e < -ring.Q/2:
			e += ring.Q
		}
		out = append(out, float64(e))
	}
	return out
}

type summaryStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	// MaxAbs is the largest magnitude seen.
	MaxAbs float64 `json:"max_abs"`
}

func computeStats(x []float64) summaryStats {
	n := len(x)
	if n == 0 {
		return summaryStats{}
	}
	cp := append([]float64(nil), x...)
	sort.Float64s(cp)
	var m float64
	for _, v := range x {
		m += v
	}
	m /= float64(n)
	var m2 float64
	for _, v := range x {
		m2 += (v - m) * (v - m)
	}
	var std float64
	if n > 1 {
		std = math.Sqrt(m2 / float64(n-1))
	}
	minv, maxv := cp[0], cp[n-1]
	return summaryStats{Count: n, Mean: m, Std: std, Min: minv, Max: maxv, MaxAbs: math.Max(-minv, maxv)}
}

// histogram buckets integer-valued samples one bucket per value between the
// observed minimum and maximum.
func histogram(values []float64) (labels []int, counts []int) {
	st := computeStats(values)
	lo, hi := int(st.Min), int(st.Max)
	counts = make([]int, hi-lo+1)
	labels = make([]int, hi-lo+1)
	for i := range labels {
		labels[i] = lo + i
	}
	for _, v := range values {
		counts[int(v)-lo]++
	}
	return labels, counts
}

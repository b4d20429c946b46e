package ring

// NTT replaces p with its number-theoretic transform.
//
// X²⁵⁶+1 only splits into 128 quadratic factors X² - γᵢ because q has no
// primitive 512th root of unity, so the transform stops one layer early and
// leaves pairs of coefficients. Every butterfly uses public indices only.
func (p *Poly) NTT() {
	k := 1
	for l := 128; l >= 2; l >>= 1 {
		for start := 0; start < N; start += 2 * l {
			z := zetas[k]
			k++
			for j := start; j < start+l; j++ {
				t := fieldMul(z, p[j+l])
				p[j+l] = fieldSub(p[j], t)
				p[j] = fieldAdd(p[j], t)
			}
		}
	}
}

// InvNTT replaces p, in the NTT domain, with its preimage under NTT.
func (p *Poly) InvNTT() {
	k := 127
	for l := 2; l <= 128; l <<= 1 {
		for start := 0; start < N; start += 2 * l {
			z := zetas[k]
			k--
			for j := start; j < start+l; j++ {
				t := p[j]
				p[j] = fieldAdd(t, p[j+l])
				p[j+l] = fieldMulSub(z, p[j+l], t)
			}
		}
	}
	for i := range p {
		p[i] = fieldMul(p[i], invNTTScale)
	}
}

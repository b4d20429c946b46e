package ring

import "runtime"

// Poly is an element of Z_q[X]/(X²⁵⁶+1). The same type carries values in
// the normal and in the NTT domain; callers track which one they hold.
//
// Every method keeps coefficients canonical, in [0, q).
type Poly [N]uint16

// Add sets p = a + b.
func (p *Poly) Add(a, b *Poly) {
	for i := range p {
		p[i] = fieldAdd(a[i], b[i])
	}
}

// Sub sets p = a - b.
func (p *Poly) Sub(a, b *Poly) {
	for i := range p {
		p[i] = fieldSub(a[i], b[i])
	}
}

// Reduce maps every coefficient of p, which may be any uint16, to [0, q).
func (p *Poly) Reduce() {
	for i := range p {
		p[i] = barrett(uint32(p[i]))
	}
}

// BaseMul sets p = a ∘ b, the product in the NTT domain. The NTT leaves 128
// degree-one residues, so each pair is multiplied modulo X² - γᵢ. p may
// alias a or b.
func (p *Poly) BaseMul(a, b *Poly) {
	for i := 0; i < N; i += 2 {
		a0, a1, b0, b1 := a[i], a[i+1], b[i], b[i+1]
		p[i] = fieldAddMul(a0, b0, fieldMul(a1, b1), gammas[i/2])
		p[i+1] = fieldAddMul(a0, b1, a1, b0)
	}
}

// BaseMulAdd sets p = p + a ∘ b in the NTT domain.
func (p *Poly) BaseMulAdd(a, b *Poly) {
	for i := 0; i < N; i += 2 {
		a0, a1, b0, b1 := a[i], a[i+1], b[i], b[i+1]
		c0 := fieldAddMul(a0, b0, fieldMul(a1, b1), gammas[i/2])
		c1 := fieldAddMul(a0, b1, a1, b0)
		p[i] = fieldAdd(p[i], c0)
		p[i+1] = fieldAdd(p[i+1], c1)
	}
}

// Wipe zeroes p.
func (p *Poly) Wipe() {
	for i := range p {
		p[i] = 0
	}
	runtime.KeepAlive(p)
}

// Vec is a vector of k ring elements.
type Vec []Poly

// NewVec allocates a zero vector of length k.
func NewVec(k int) Vec {
	return make(Vec, k)
}

// NTT transforms every entry of v in place.
func (v Vec) NTT() {
	for i := range v {
		v[i].NTT()
	}
}

// InvNTT transforms every entry of v back to the normal domain.
func (v Vec) InvNTT() {
	for i := range v {
		v[i].InvNTT()
	}
}

// Add sets v = a + b. All three must have the same length.
func (v Vec) Add(a, b Vec) {
	for i := range v {
		v[i].Add(&a[i], &b[i])
	}
}

// Wipe zeroes every entry of v.
func (v Vec) Wipe() {
	for i := range v {
		v[i].Wipe()
	}
}

// Dot sets p = Σ a[i] ∘ b[i] in the NTT domain.
func (p *Poly) Dot(a, b Vec) {
	p.BaseMul(&a[0], &b[0])
	for i := 1; i < len(a); i++ {
		p.BaseMulAdd(&a[i], &b[i])
	}
}

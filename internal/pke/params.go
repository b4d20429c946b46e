package pke

import (
	"github.com/latticekem/kyber-go/internal/encoding"
	"github.com/latticekem/kyber-go/internal/sample"
)

// SeedSize is the size of the key-generation seed d, the encryption coins
// and the message.
const SeedSize = 32

// Params selects one member of the scheme family.
type Params struct {
	K    int
	Eta1 uint8
	Eta2 uint8
	DU   uint8
	DV   uint8

	// DomainSeparated appends k to the key-generation seed before it is
	// expanded, as FIPS 203 does. Round-3 Kyber hashes d alone.
	DomainSeparated bool
}

// PublicKeySize is ByteEncode12(t̂) ‖ ρ.
func (p Params) PublicKeySize() int {
	return p.K*encoding.PolyBytes + sample.SeedSize
}

// PrivateKeySize is ByteEncode12(ŝ).
func (p Params) PrivateKeySize() int {
	return p.K * encoding.PolyBytes
}

// CiphertextSize is the compressed u followed by the compressed v.
func (p Params) CiphertextSize() int {
	return p.K*encoding.CompressedBytes(p.DU) + encoding.CompressedBytes(p.DV)
}

func (p Params) uBytes() int {
	return p.K * encoding.CompressedBytes(p.DU)
}

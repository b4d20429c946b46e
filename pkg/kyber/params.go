package kyber

import (
	"strings"

	"github.com/latticekem/kyber-go/internal/encoding"
	"github.com/latticekem/kyber-go/internal/pke"
	"github.com/latticekem/kyber-go/pkg/kyber/kem"
)

// Variant selects how the KEM layer composes the hash functions around the
// shared PKE core.
type Variant uint8

const (
	// VariantKyber is CRYSTALS-Kyber as submitted in round 3: the message is
	// hashed before use and the shared secret is KDF(K ‖ H(ct)).
	VariantKyber Variant = iota + 1

	// VariantMLKEM is ML-KEM as standardized in FIPS 203.
	VariantMLKEM
)

func (v Variant) String() string {
	switch v {
	case VariantKyber:
		return "Kyber"
	case VariantMLKEM:
		return "ML-KEM"
	default:
		return "unknown"
	}
}

// ParameterSet is the configuration record that selects one member of the
// family. All lower layers are generic over it.
type ParameterSet struct {
	Name    string
	ID      kem.ID
	Variant Variant
	K       int
	Eta1    uint8
	Eta2    uint8
	DU      uint8
	DV      uint8
}

var (
	Kyber512  = ParameterSet{Name: "Kyber512", ID: kem.Kyber512, Variant: VariantKyber, K: 2, Eta1: 3, Eta2: 2, DU: 10, DV: 4}
	Kyber768  = ParameterSet{Name: "Kyber768", ID: kem.Kyber768, Variant: VariantKyber, K: 3, Eta1: 2, Eta2: 2, DU: 10, DV: 4}
	Kyber1024 = ParameterSet{Name: "Kyber1024", ID: kem.Kyber1024, Variant: VariantKyber, K: 4, Eta1: 2, Eta2: 2, DU: 11, DV: 5}

	MLKEM512  = ParameterSet{Name: "ML-KEM-512", ID: kem.MLKEM512, Variant: VariantMLKEM, K: 2, Eta1: 3, Eta2: 2, DU: 10, DV: 4}
	MLKEM768  = ParameterSet{Name: "ML-KEM-768", ID: kem.MLKEM768, Variant: VariantMLKEM, K: 3, Eta1: 2, Eta2: 2, DU: 10, DV: 4}
	MLKEM1024 = ParameterSet{Name: "ML-KEM-1024", ID: kem.MLKEM1024, Variant: VariantMLKEM, K: 4, Eta1: 2, Eta2: 2, DU: 11, DV: 5}
)

// ParameterSets lists every supported parameter set.
func ParameterSets() []ParameterSet {
	return []ParameterSet{Kyber512, Kyber768, Kyber1024, MLKEM512, MLKEM768, MLKEM1024}
}

// ParseParameterSet resolves a name such as "kyber768", "ML-KEM-768" or
// "mlkem_1024". Case, dashes and underscores are ignored.
func ParseParameterSet(name string) (ParameterSet, error) {
	want := normalizeName(name)
	for _, ps := range ParameterSets() {
		if normalizeName(ps.Name) == want {
			return ps, nil
		}
	}
	return ParameterSet{}, errorf("ParseParameterSet", "%w: unknown parameter set %q", ErrInvalidKeyLength, name)
}

// ParameterSetByID returns the parameter set registered under id.
func ParameterSetByID(id kem.ID) (ParameterSet, error) {
	for _, ps := range ParameterSets() {
		if ps.ID == id {
			return ps, nil
		}
	}
	return ParameterSet{}, errorf("ParameterSetByID", "%w: unknown scheme %s", ErrInvalidKeyLength, id)
}

func normalizeName(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
}

func (ps ParameterSet) String() string {
	return ps.Name
}

// PublicKeySize is 384k + 32.
func (ps ParameterSet) PublicKeySize() int {
	return ps.pke().PublicKeySize()
}

// PrivateKeySize is 768k + 96: ŝ, the public key, H(pk) and z.
func (ps ParameterSet) PrivateKeySize() int {
	return ps.pke().PrivateKeySize() + ps.PublicKeySize() + 2*SharedSecretSize
}

// CiphertextSize is 32(du·k + dv).
func (ps ParameterSet) CiphertextSize() int {
	return ps.pke().CiphertextSize()
}

func (ps ParameterSet) pke() pke.Params {
	return pke.Params{
		K:               ps.K,
		Eta1:            ps.Eta1,
		Eta2:            ps.Eta2,
		DU:              ps.DU,
		DV:              ps.DV,
		DomainSeparated: ps.Variant == VariantMLKEM,
	}
}

// validate rejects records that the generic code cannot run safely.
func (ps ParameterSet) validate() error {
	switch {
	case ps.Variant != VariantKyber && ps.Variant != VariantMLKEM:
		return errorf("New", "%w: unknown variant %d", ErrInvalidParameter, ps.Variant)
	case ps.K < 1 || ps.K > 5:
		return errorf("New", "%w: k=%d", ErrInvalidParameter, ps.K)
	case ps.Eta1 < 1 || ps.Eta1 > 3 || ps.Eta2 < 1 || ps.Eta2 > 3:
		return errorf("New", "%w: eta1=%d eta2=%d", ErrInvalidParameter, ps.Eta1, ps.Eta2)
	case ps.DU < 1 || ps.DU > 11 || ps.DV < 1 || ps.DV > 11:
		return errorf("New", "%w: du=%d dv=%d", ErrInvalidParameter, ps.DU, ps.DV)
	}
	return nil
}

// skLayout returns the offsets of the components of an encoded private key.
func (ps ParameterSet) skLayout() (pkOff, hOff, zOff int) {
	pkOff = ps.K * encoding.PolyBytes
	hOff = pkOff + ps.PublicKeySize()
	zOff = hOff + SharedSecretSize
	return pkOff, hOff, zOff
}

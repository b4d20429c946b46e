package symmetric

import (
	"golang.org/x/crypto/sha3"
)

// Squeezer is an extendable-output stream. Squeeze fills out with the next
// len(out) bytes of the stream and cannot fail.
type Squeezer interface {
	Squeeze(out []byte)
}

// Provider supplies the hash functions the KEM is built from. Every method
// must be deterministic: identical inputs give identical outputs.
type Provider interface {
	// H writes the 32-byte hash of the concatenated inputs (SHA3-256).
	H(out *[32]byte, in ...[]byte)

	// G writes the 64-byte hash of the concatenated inputs (SHA3-512).
	G(out *[64]byte, in ...[]byte)

	// KDF fills out from SHAKE256 over the concatenated inputs. It also
	// serves as J for implicit rejection.
	KDF(out []byte, in ...[]byte)

	// PRF fills out from SHAKE256(key ‖ nonce).
	PRF(out []byte, key []byte, nonce byte)

	// XOF opens the SHAKE128(seed ‖ x ‖ y) stream used to expand the public
	// matrix.
	XOF(seed []byte, x, y byte) Squeezer
}

// Software returns the portable SHA-3 implementation. It holds no state and
// is safe for concurrent use.
func Software() Provider {
	return software{}
}

type software struct{}

func (software) H(out *[32]byte, in ...[]byte) {
	h := sha3.New256()
	for _, b := range in {
		h.Write(b)
	}
	h.Sum(out[:0])
}

func (software) G(out *[64]byte, in ...[]byte) {
	h := sha3.New512()
	for _, b := range in {
		h.Write(b)
	}
	h.Sum(out[:0])
}

func (software) KDF(out []byte, in ...[]byte) {
	h := sha3.NewShake256()
	for _, b := range in {
		h.Write(b)
	}
	h.Read(out)
}

func (software) PRF(out []byte, key []byte, nonce byte) {
	h := sha3.NewShake256()
	h.Write(key)
	h.Write([]byte{nonce})
	h.Read(out)
}

func (software) XOF(seed []byte, x, y byte) Squeezer {
	h := sha3.NewShake128()
	h.Write(seed)
	h.Write([]byte{x, y})
	return shake{h}
}

type shake struct {
	h sha3.ShakeHash
}

func (s shake) Squeeze(out []byte) {
	s.h.Read(out)
}

package hybrid

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/curve25519"

	"github.com/latticekem/kyber-go/pkg/kyber/kem"
)

var errBadScalar = errors.New("hybrid: scalar out of range")

// Group is the classical Diffie-Hellman half of a hybrid KEM. Encapsulation
// sends a fresh ephemeral public key as the classical ciphertext.
type Group interface {
	// ID is the wire identifier of the group used as a standalone KEM.
	ID() kem.ID
	Name() string

	ScalarSize() int
	PointSize() int

	// Public returns the encoded point sk·G. It fails only for a scalar the
	// group cannot use.
	Public(sk []byte) ([]byte, error)

	// DH returns the shared secret between sk and the encoded point peer.
	// A point that does not decode, or that gives a degenerate result,
	// yields an all-zero secret rather than an error: the ciphertext is
	// attacker controlled and the lattice secret keeps the output
	// unpredictable.
	DH(sk, peer []byte) []byte
}

// X25519 returns the Curve25519 group.
func X25519() Group { return x25519Group{} }

type x25519Group struct{}

func (x25519Group) ID() kem.ID      { return kem.X25519 }
func (x25519Group) Name() string    { return "X25519" }
func (x25519Group) ScalarSize() int { return curve25519.ScalarSize }
func (x25519Group) PointSize() int  { return curve25519.PointSize }

func (x25519Group) Public(sk []byte) ([]byte, error) {
	return curve25519.X25519(sk, curve25519.Basepoint)
}

func (x25519Group) DH(sk, peer []byte) []byte {
	ss, err := curve25519.X25519(sk, peer)
	if err != nil {
		return make([]byte, curve25519.PointSize)
	}
	return ss
}

// Secp256k1 returns the secp256k1 group with compressed point encoding.
func Secp256k1() Group { return secp256k1Group{} }

type secp256k1Group struct{}

func (secp256k1Group) ID() kem.ID      { return kem.Secp256k1 }
func (secp256k1Group) Name() string    { return "secp256k1" }
func (secp256k1Group) ScalarSize() int { return btcec.PrivKeyBytesLen }
func (secp256k1Group) PointSize() int  { return btcec.PubKeyBytesLenCompressed }

func (secp256k1Group) scalar(sk []byte) (*btcec.PrivateKey, error) {
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(sk); overflow || s.IsZero() {
		return nil, errBadScalar
	}
	return btcec.PrivKeyFromScalar(&s), nil
}

func (g secp256k1Group) Public(sk []byte) ([]byte, error) {
	priv, err := g.scalar(sk)
	if err != nil {
		return nil, err
	}
	return priv.PubKey().SerializeCompressed(), nil
}

func (g secp256k1Group) DH(sk, peer []byte) []byte {
	priv, err := g.scalar(sk)
	if err != nil {
		return make([]byte, 32)
	}
	pub, err := btcec.ParsePubKey(peer)
	if err != nil {
		return make([]byte, 32)
	}
	return btcec.GenerateSharedSecret(priv, pub)
}

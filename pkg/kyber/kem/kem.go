package kem

import "fmt"

// ID identifies a KEM scheme on the wire.
type ID uint16

const (
	// X25519 is Diffie-Hellman over Curve25519 used as a KEM. Not quantum-safe.
	X25519 ID = 0x01fb
	// Secp256k1 is ECDH over secp256k1 used as a KEM. Not quantum-safe.
	Secp256k1 ID = 0x01fe

	Kyber512  ID = 0x01fc
	Kyber768  ID = 0x0211
	Kyber1024 ID = 0x0212

	MLKEM512  ID = 0x0200
	MLKEM768  ID = 0x0201
	MLKEM1024 ID = 0x0202

	X25519MLKEM768    ID = 0x11ec
	Secp256k1MLKEM768 ID = 0x11f0
	X25519Kyber768    ID = 0x6399
)

var idNames = map[ID]string{
	X25519:            "X25519",
	Secp256k1:         "secp256k1",
	Kyber512:          "Kyber512",
	Kyber768:          "Kyber768",
	Kyber1024:         "Kyber1024",
	MLKEM512:          "ML-KEM-512",
	MLKEM768:          "ML-KEM-768",
	MLKEM1024:         "ML-KEM-1024",
	X25519MLKEM768:    "X25519MLKEM768",
	Secp256k1MLKEM768: "Secp256k1MLKEM768",
	X25519Kyber768:    "X25519Kyber768",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("ID(0x%04x)", uint16(id))
}

// KEM is a key encapsulation mechanism operating on encoded keys.
//
// Implementations are immutable and safe for concurrent use. Decapsulate
// never reports an invalid ciphertext: such input yields a pseudorandom
// shared secret, and errors are reserved for malformed arguments.
type KEM interface {
	// ID returns the wire identifier of the scheme.
	ID() ID

	// Name returns the human-readable scheme name.
	Name() string

	PublicKeySize() int
	PrivateKeySize() int
	CiphertextSize() int
	SharedSecretSize() int

	// GenerateKeyPair draws a fresh key pair from the configured entropy
	// source.
	GenerateKeyPair() (pk, sk []byte, err error)

	// Encapsulate generates a ciphertext and shared secret for pk.
	Encapsulate(pk []byte) (ct, ss []byte, err error)

	// Decapsulate recovers the shared secret from ct using sk.
	Decapsulate(sk, ct []byte) (ss []byte, err error)

	// DerivePub returns the public key that belongs to sk.
	DerivePub(sk []byte) ([]byte, error)
}

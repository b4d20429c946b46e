// Package kem provides a scheme-agnostic Key Encapsulation Mechanism (KEM)
// abstraction and a binary envelope for exchanging keys and ciphertexts.
//
// # Interface
//
// The KEM interface works on encoded byte strings so that lattice, classical
// and hybrid schemes can be swapped behind one type:
//
//	type KEM interface {
//	    ID() ID
//	    Name() string
//	    GenerateKeyPair() (pk, sk []byte, err error)
//	    Encapsulate(pk []byte) (ct, ss []byte, err error)
//	    Decapsulate(sk, ct []byte) (ss []byte, err error)
//	    DerivePub(sk []byte) ([]byte, error)
//	    ...
//	}
//
// Implementations in this module:
//   - kyber.KEM: Kyber512/768/1024 (round 3) and ML-KEM-512/768/1024 (FIPS 203)
//   - hybrid.KEM: a lattice KEM combined with X25519 or secp256k1 ECDH
//
// # Implicit Rejection
//
// Decapsulate must not signal that a ciphertext was invalid. A ciphertext
// that fails the re-encryption check produces a pseudorandom shared secret
// derived from a private rejection value, so the caller learns nothing
// until a higher-level protocol fails to authenticate. Errors from
// Decapsulate mean the arguments had the wrong size or belonged to another
// scheme.
//
// # Envelopes
//
// Envelopes tag a byte string with its kind and scheme so files and network
// messages cannot be confused:
//
//	raw, _ := kem.Seal(kem.KindPublicKey, kem.MLKEM768, pk)
//	env, err := kem.Open(raw, kem.KindPublicKey)
//	// env.Scheme == kem.MLKEM768, env.Data == pk
//
// Envelopes carry no integrity protection.
package kem

// Package kyber implements the Kyber family of module-lattice key
// encapsulation mechanisms: CRYSTALS-Kyber (round 3) and ML-KEM (FIPS 203),
// each at the 512, 768 and 1024 security levels.
//
// # Usage
//
//	k, err := kyber.New(kyber.MLKEM768, kyber.Config{})
//	pk, sk, err := k.GenerateKeyPair()
//	ct, ss, err := k.Encapsulate(pk)    // sender
//	ss2, err := k.Decapsulate(sk, ct)   // receiver; ss2 == ss
//
// Parsed handles avoid re-decoding keys and, with Config.Materialize, reuse
// the public matrix across operations:
//
//	priv, err := k.NewPrivateKey(sk)
//	defer priv.Destroy()
//	ss, err := priv.Decapsulate(ct)
//
// # Errors
//
// Errors are returned only for malformed arguments, and always before any
// secret-dependent work starts or any output byte is written:
//   - ErrInvalidParameter: a buffer of the wrong size, a public key that is
//     not canonically encoded (ML-KEM), a nil or destroyed handle
//   - ErrInvalidKeyLength: a derivation seed of the wrong size, or a key for
//     another parameter set
//   - ErrOutOfResources: the entropy source failed
//
// There is no error for an invalid ciphertext. Decapsulate performs the same
// work for every ciphertext of the right length and returns a pseudorandom
// secret derived from the private rejection value z when the re-encryption
// check fails (implicit rejection).
//
// # Constant Time
//
// No code path branches on, or indexes memory with, secret data. Field
// reductions use masks, the re-encryption check uses
// crypto/subtle.ConstantTimeCompare and the output key is selected with
// crypto/subtle.ConstantTimeCopy. The internalcheck package enforces the
// simplest of these rules statically.
//
// # Zeroization
//
// Secret intermediates are wiped by deferred calls on every return path.
// PrivateKey.Destroy wipes the parsed secret vector, H(pk) and z. Callers
// own the byte slices they pass in and should wipe encoded private keys
// and shared secrets with ZeroizeBytes.
//
// # Concurrency
//
// KEM, PublicKey and PrivateKey values are safe for concurrent use and hold
// no global state. A hash accelerator that must not be entered concurrently
// is wrapped in symmetric.NewSerialized, which owns the lock.
package kyber

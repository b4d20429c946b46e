// Package symmetric defines the hash and extendable-output collaborators
// the KEM consumes, and ships a portable SHA-3 implementation of them.
//
// # Functions
//
// The KEM needs five symmetric functions, all instantiated from Keccak:
//
//	H    SHA3-256           hashes public keys and ciphertexts
//	G    SHA3-512           derives (ρ, σ) and (K, coins), split into 32-byte halves
//	KDF  SHAKE256           derives the final shared secret; J in ML-KEM
//	PRF  SHAKE256(s ‖ N)    expands noise seeds for centered binomial sampling
//	XOF  SHAKE128(ρ ‖ j ‖ i) expands the public matrix by rejection sampling
//
// # Accelerators
//
// Alternative implementations, for example ones backed by a hash engine
// shared between tasks, implement Provider. When the engine must not be
// entered concurrently, wrap it with NewSerialized and pass the returned
// handle through the KEM configuration:
//
//	accel := symmetric.NewSerialized(myEngine)
//	k, err := kyber.New(kyber.MLKEM768, kyber.Config{Provider: accel})
//
// The lock lives in the handle, never in a package-level variable, so two
// independent engines never contend with each other.
package symmetric

// Package hybrid combines a lattice KEM with classical elliptic-curve
// Diffie-Hellman so that a shared secret survives a break of either half.
//
// Registered schemes:
//   - X25519MLKEM768: ML-KEM-768 with X25519
//   - X25519Kyber768: Kyber768 (round 3) with X25519
//   - Secp256k1MLKEM768: ML-KEM-768 with secp256k1 ECDH
//
// # Usage
//
//	pq, _ := kyber.New(kyber.MLKEM768, kyber.Config{})
//	h, _ := hybrid.New(pq, hybrid.X25519(), hybrid.Config{})
//	pk, sk, _ := h.GenerateKeyPair()
//	ct, ss, _ := h.Encapsulate(pk)
//	ss2, _ := h.Decapsulate(sk, ct) // ss2 == ss
//
// Keys, ciphertexts and the secret combiner are specific to this package;
// they are not the TLS key-share encodings that carry the same names.
package hybrid

package kyber

import "github.com/latticekem/kyber-go/internal/secret"

// ZeroizeBytes overwrites the provided slice with zeros and prevents compiler
// dead store elimination using runtime.KeepAlive.
//
// Callers should wipe shared secrets and encoded private keys once they are
// no longer needed. The library wipes its own intermediates.
func ZeroizeBytes(buf []byte) {
	secret.Wipe(buf)
}

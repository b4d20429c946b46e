// Package secret holds the zeroization primitive shared by every layer that
// touches secret-derived bytes.
package secret

import "runtime"

// Wipe overwrites buf with zeros. The KeepAlive keeps the compiler from
// treating the stores as dead (golang/go#33325).
func Wipe(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

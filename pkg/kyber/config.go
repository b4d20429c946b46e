package kyber

import (
	"crypto/rand"
	"io"

	"github.com/latticekem/kyber-go/pkg/kyber/logging"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// Config expresses the knobs of a KEM instance. The zero value is ready to
// use.
type Config struct {
	// Rand is the entropy source for key generation and encapsulation.
	// Leaving it nil selects crypto/rand.Reader.
	Rand io.Reader

	// Provider supplies the hash and XOF functions. Leaving it nil selects
	// the portable SHA-3 implementation. Pass a *symmetric.Serialized to
	// route every call through a lock owned by that handle.
	Provider symmetric.Provider

	// Logger receives debug and validation records. Leaving it nil binds to
	// slog.Default().
	Logger logging.Logger

	// Materialize makes PublicKey and PrivateKey handles cache the public
	// matrix when they are created, trading 2·k²·256 bytes per handle for
	// skipping its regeneration on every operation. The byte-slice
	// operations on KEM are one-shot and never cache.
	Materialize bool
}

func (c Config) withDefaults() Config {
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
	if c.Provider == nil {
		c.Provider = symmetric.Software()
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	return c
}

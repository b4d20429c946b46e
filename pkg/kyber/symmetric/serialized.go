package symmetric

import (
	"sync"
	"sync/atomic"
)

// Serialized wraps a Provider backed by a single shared engine, such as a
// hardware hash accelerator, and holds its lock for the duration of every
// primitive call. Each XOF stream takes the lock per Squeeze, so streams
// opened by concurrent operations interleave safely.
//
// A Serialized handle is created explicitly and passed to the KEM through
// its configuration. Several KEM instances may share one handle; they then
// share its lock.
type Serialized struct {
	mu    sync.Mutex
	inner Provider
	calls atomic.Uint64
}

// NewSerialized returns a handle that serializes access to p.
func NewSerialized(p Provider) *Serialized {
	return &Serialized{inner: p}
}

// Calls reports how many primitive calls went through the lock.
func (s *Serialized) Calls() uint64 {
	return s.calls.Load()
}

func (s *Serialized) lock() func() {
	s.mu.Lock()
	s.calls.Add(1)
	return s.mu.Unlock
}

func (s *Serialized) H(out *[32]byte, in ...[]byte) {
	defer s.lock()()
	s.inner.H(out, in...)
}

func (s *Serialized) G(out *[64]byte, in ...[]byte) {
	defer s.lock()()
	s.inner.G(out, in...)
}

func (s *Serialized) KDF(out []byte, in ...[]byte) {
	defer s.lock()()
	s.inner.KDF(out, in...)
}

func (s *Serialized) PRF(out []byte, key []byte, nonce byte) {
	defer s.lock()()
	s.inner.PRF(out, key, nonce)
}

func (s *Serialized) XOF(seed []byte, x, y byte) Squeezer {
	defer s.lock()()
	return &serializedStream{owner: s, inner: s.inner.XOF(seed, x, y)}
}

type serializedStream struct {
	owner *Serialized
	inner Squeezer
}

func (st *serializedStream) Squeeze(out []byte) {
	defer st.owner.lock()()
	st.inner.Squeeze(out)
}

// Package testaccel simulates a single-engine hash accelerator for tests.
package testaccel

import (
	"sync"
	"sync/atomic"

	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// SimulatedAccelerator models a hardware hash engine with one set of
// registers. Real engines of this kind corrupt their state when two callers
// enter at once; the simulation computes correct results regardless and
// counts every overlapping entry instead, so tests can assert that callers
// serialize their access.
type SimulatedAccelerator struct {
	engine symmetric.Provider

	active   atomic.Int32
	overlaps atomic.Uint64
	entries  atomic.Uint64

	mu    sync.RWMutex
	pause func()
}

// New returns an accelerator backed by the portable SHA-3 implementation.
func New() *SimulatedAccelerator {
	return &SimulatedAccelerator{engine: symmetric.Software()}
}

// SetPause installs a hook that runs inside the engine while it is
// occupied. Tests use it to hold the engine open.
func (a *SimulatedAccelerator) SetPause(f func()) {
	a.mu.Lock()
	a.pause = f
	a.mu.Unlock()
}

// Overlaps reports how many entries found the engine already occupied.
func (a *SimulatedAccelerator) Overlaps() uint64 { return a.overlaps.Load() }

// Entries reports the total number of engine entries.
func (a *SimulatedAccelerator) Entries() uint64 { return a.entries.Load() }

func (a *SimulatedAccelerator) enter() func() {
	a.entries.Add(1)
	if a.active.Add(1) > 1 {
		a.overlaps.Add(1)
	}
	a.mu.RLock()
	pause := a.pause
	a.mu.RUnlock()
	if pause != nil {
		pause()
	}
	return func() { a.active.Add(-1) }
}

func (a *SimulatedAccelerator) H(out *[32]byte, in ...[]byte) {
	defer a.enter()()
	a.engine.H(out, in...)
}

func (a *SimulatedAccelerator) G(out *[64]byte, in ...[]byte) {
	defer a.enter()()
	a.engine.G(out, in...)
}

func (a *SimulatedAccelerator) KDF(out []byte, in ...[]byte) {
	defer a.enter()()
	a.engine.KDF(out, in...)
}

func (a *SimulatedAccelerator) PRF(out []byte, key []byte, nonce byte) {
	defer a.enter()()
	a.engine.PRF(out, key, nonce)
}

func (a *SimulatedAccelerator) XOF(seed []byte, x, y byte) symmetric.Squeezer {
	defer a.enter()()
	return &stream{accel: a, inner: a.engine.XOF(seed, x, y)}
}

// stream occupies the engine for each Squeeze, as an engine that keeps the
// sponge state in its registers would.
type stream struct {
	accel *SimulatedAccelerator
	inner symmetric.Squeezer
}

func (s *stream) Squeeze(out []byte) {
	defer s.accel.enter()()
	s.inner.Squeeze(out)
}

var _ symmetric.Provider = (*SimulatedAccelerator)(nil)

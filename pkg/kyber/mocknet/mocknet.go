package mocknet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/latticekem/kyber-go/pkg/kyber"
)

type Net struct {
	mu sync.Mutex
	q  map[queueKey]chan []byte

	sent atomic.Uint64
}

func New() *Net { return &Net{q: make(map[queueKey]chan []byte)} }

// Messages reports how many messages have been delivered on n.
func (n *Net) Messages() uint64 { return n.sent.Load() }

type queueKey struct {
	from kyber.PartyID
	to   kyber.PartyID
	seq  uint64
}

// peerState tracks the sequence numbers of one direction of one link. The
// lock is held across a whole Send or Receive so concurrent callers on the
// same link take consecutive sequence numbers.
type peerState struct {
	mu  sync.Mutex
	seq uint64
}

type endpoint struct {
	net   *Net
	self  kyber.PartyID
	peers map[kyber.PartyID]struct{}

	mu   sync.Mutex
	send map[kyber.PartyID]*peerState
	recv map[kyber.PartyID]*peerState
}

func newEndpoint(n *Net, self kyber.PartyID, peers []kyber.PartyID) *endpoint {
	peerSet := make(map[kyber.PartyID]struct{}, len(peers))
	for _, p := range peers {
		if p == self {
			continue
		}
		peerSet[p] = struct{}{}
	}
	return &endpoint{
		net:   n,
		self:  self,
		peers: peerSet,
		send:  make(map[kyber.PartyID]*peerState),
		recv:  make(map[kyber.PartyID]*peerState),
	}
}

func (e *endpoint) state(states map[kyber.PartyID]*peerState, peer kyber.PartyID) *peerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := states[peer]
	if st == nil {
		st = &peerState{}
		states[peer] = st
	}
	return st
}

func (n *Net) slot(key queueKey) chan []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := n.q[key]
	if ch == nil {
		ch = make(chan []byte, 1)
		n.q[key] = ch
	}
	return ch
}

func (n *Net) deliver(ctx context.Context, key queueKey, payload []byte) error {
	ch := n.slot(key)
	msg := append([]byte(nil), payload...)
	select {
	case ch <- msg:
		n.sent.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Net) await(ctx context.Context, key queueKey) ([]byte, error) {
	ch := n.slot(key)
	select {
	case msg := <-ch:
		n.mu.Lock()
		delete(n.q, key)
		n.mu.Unlock()
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *endpoint) checkPeer(peer kyber.PartyID, dir string) error {
	if peer == e.self {
		return fmt.Errorf("mocknet: %s self", dir)
	}
	if _, ok := e.peers[peer]; !ok {
		return fmt.Errorf("mocknet: unknown peer %d", peer)
	}
	return nil
}

func (e *endpoint) Send(ctx context.Context, to kyber.PartyID, msg []byte) error {
	if err := e.checkPeer(to, "send to"); err != nil {
		return err
	}
	st := e.state(e.send, to)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := e.net.deliver(ctx, queueKey{from: e.self, to: to, seq: st.seq}, msg); err != nil {
		return err
	}
	st.seq++
	return nil
}

func (e *endpoint) Receive(ctx context.Context, from kyber.PartyID) ([]byte, error) {
	if err := e.checkPeer(from, "receive from"); err != nil {
		return nil, err
	}
	st := e.state(e.recv, from)
	st.mu.Lock()
	defer st.mu.Unlock()

	msg, err := e.net.await(ctx, queueKey{from: from, to: e.self, seq: st.seq})
	if err != nil {
		return nil, err
	}
	st.seq++
	return msg, nil
}

func (e *endpoint) ReceiveAll(ctx context.Context, from []kyber.PartyID) (map[kyber.PartyID][]byte, error) {
	parties, err := e.normalize(from)
	if err != nil {
		return nil, err
	}
	if len(parties) == 0 {
		return map[kyber.PartyID][]byte{}, nil
	}

	// Locks are taken in ascending party order.
	states := make([]*peerState, len(parties))
	for i, p := range parties {
		states[i] = e.state(e.recv, p)
		states[i].mu.Lock()
	}
	defer func() {
		for _, st := range states {
			st.mu.Unlock()
		}
	}()

	out := make(map[kyber.PartyID][]byte, len(parties))
	for i, p := range parties {
		msg, err := e.net.await(ctx, queueKey{from: p, to: e.self, seq: states[i].seq})
		if err != nil {
			return nil, err
		}
		out[p] = msg
		states[i].seq++
	}
	return out, nil
}

func (e *endpoint) normalize(from []kyber.PartyID) ([]kyber.PartyID, error) {
	uniq := make(map[kyber.PartyID]struct{}, len(from))
	for _, p := range from {
		if err := e.checkPeer(p, "receive from"); err != nil {
			return nil, err
		}
		if _, ok := uniq[p]; ok {
			return nil, errors.New("mocknet: duplicate party")
		}
		uniq[p] = struct{}{}
	}
	parties := make([]kyber.PartyID, 0, len(uniq))
	for p := range uniq {
		parties = append(parties, p)
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i] < parties[j] })
	return parties, nil
}

type (
	Endpoint2P struct{ *endpoint }
	EndpointMP struct{ *endpoint }
)

// Ep2P returns self's endpoint on a link with a single peer.
func (n *Net) Ep2P(self, peer kyber.PartyID) *Endpoint2P {
	return &Endpoint2P{endpoint: newEndpoint(n, self, []kyber.PartyID{peer})}
}

// EpMP returns self's endpoint connected to every party in peers.
func (n *Net) EpMP(self kyber.PartyID, peers []kyber.PartyID) *EndpointMP {
	return &EndpointMP{endpoint: newEndpoint(n, self, peers)}
}

var (
	_ kyber.Transport = (*Endpoint2P)(nil)
	_ kyber.Transport = (*EndpointMP)(nil)
)

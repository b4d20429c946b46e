package kyber

import "context"

// PartyID identifies a participant of a key agreement session.
type PartyID uint32

// Transport captures the messaging contract used by the session helpers.
// The KEM itself never performs I/O; only Initiate, Respond and InitiateAll
// do.
//
// Concurrency: Implementations MUST be safe for concurrent use by multiple
// goroutines.
//
// Semantics: messages between a pair of parties are delivered reliably and in
// order. For ReceiveAll, the returned map MUST contain exactly one entry per
// requested party.
type Transport interface {
	Send(ctx context.Context, to PartyID, msg []byte) error
	Receive(ctx context.Context, from PartyID) ([]byte, error)
	ReceiveAll(ctx context.Context, from []PartyID) (map[PartyID][]byte, error)
}

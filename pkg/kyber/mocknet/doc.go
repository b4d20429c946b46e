// Package mocknet provides an in-memory transport implementation for testing and examples.
//
// Mocknet implements the kyber.Transport interface using in-memory channels,
// so key agreement sessions can run without network communication. It
// provides sequenced, reliable message delivery between parties.
//
// # Features
//
//   - Sequenced message delivery (guarantees message ordering per link)
//   - Support for point-to-point and one-to-many sessions
//   - Context-based cancellation support
//   - Thread-safe concurrent operations
//
// # Usage
//
//	net := mocknet.New()
//
//	// Two parties
//	alice := net.Ep2P(0, 1)
//	bob := net.Ep2P(1, 0)
//
//	k, _ := kyber.New(kyber.MLKEM768, kyber.Config{})
//	go func() { ssB, _ = kyber.Respond(ctx, k, bob, 0) }()
//	ssA, _ := kyber.Initiate(ctx, k, alice, 1)
//
//	// One initiator, several responders
//	hub := net.EpMP(0, []kyber.PartyID{1, 2, 3})
//	secrets, _ := kyber.InitiateAll(ctx, k, hub, []kyber.PartyID{1, 2, 3})
//
// # Testing Tips
//
//   - Always use context.WithTimeout to prevent test hangs
//   - Run parties in separate goroutines to simulate concurrent execution
//   - Use sync.WaitGroup to coordinate session completion
//
// # Limitations
//
// Mocknet is designed for testing and examples only:
//   - No encryption or authentication
//   - No network latency simulation
//   - No packet loss or reordering
//   - Not suitable for production use
package mocknet

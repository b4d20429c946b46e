package kyber

import (
	"context"

	"github.com/latticekem/kyber-go/pkg/kyber/kem"
)

// Initiate runs the initiating side of a one-round key agreement with peer.
// It sends a fresh public key in an envelope, waits for the ciphertext and
// returns the decapsulated shared secret. The key pair is destroyed before
// returning.
//
// A tampered ciphertext does not make Initiate fail: the two sides simply
// end up with different secrets, which the surrounding protocol must detect.
func Initiate(ctx context.Context, k *KEM, tr Transport, peer PartyID) ([]byte, error) {
	const op = "Initiate"
	pub, priv, err := k.GenerateKey()
	if err != nil {
		return nil, err
	}
	defer priv.Destroy()

	env, err := k.Seal(kem.KindPublicKey, pub.Bytes())
	if err != nil {
		return nil, errorf(op, "seal public key: %w", err)
	}
	if err := tr.Send(ctx, peer, env); err != nil {
		return nil, errorf(op, "send public key to %d: %w", peer, err)
	}
	raw, err := tr.Receive(ctx, peer)
	if err != nil {
		return nil, errorf(op, "receive ciphertext from %d: %w", peer, err)
	}
	ct, err := k.Open(raw, kem.KindCiphertext)
	if err != nil {
		return nil, err
	}
	return priv.Decapsulate(ct)
}

// Respond runs the responding side of Initiate: it receives the peer's
// public key, encapsulates to it and sends back the ciphertext.
func Respond(ctx context.Context, k *KEM, tr Transport, peer PartyID) ([]byte, error) {
	const op = "Respond"
	raw, err := tr.Receive(ctx, peer)
	if err != nil {
		return nil, errorf(op, "receive public key from %d: %w", peer, err)
	}
	pk, err := k.Open(raw, kem.KindPublicKey)
	if err != nil {
		return nil, err
	}
	ct, ss, err := k.Encapsulate(pk)
	if err != nil {
		return nil, err
	}
	env, err := k.Seal(kem.KindCiphertext, ct)
	if err != nil {
		ZeroizeBytes(ss)
		return nil, errorf(op, "seal ciphertext: %w", err)
	}
	if err := tr.Send(ctx, peer, env); err != nil {
		ZeroizeBytes(ss)
		return nil, errorf(op, "send ciphertext to %d: %w", peer, err)
	}
	return ss, nil
}

// InitiateAll runs Initiate against several responders with a single key
// pair and collects their ciphertexts in one batch. Each peer gets its own
// shared secret.
func InitiateAll(ctx context.Context, k *KEM, tr Transport, peers []PartyID) (map[PartyID][]byte, error) {
	const op = "InitiateAll"
	pub, priv, err := k.GenerateKey()
	if err != nil {
		return nil, err
	}
	defer priv.Destroy()

	env, err := k.Seal(kem.KindPublicKey, pub.Bytes())
	if err != nil {
		return nil, errorf(op, "seal public key: %w", err)
	}
	for _, peer := range peers {
		if err := tr.Send(ctx, peer, env); err != nil {
			return nil, errorf(op, "send public key to %d: %w", peer, err)
		}
	}
	batch, err := tr.ReceiveAll(ctx, peers)
	if err != nil {
		return nil, errorf(op, "receive ciphertexts: %w", err)
	}

	out := make(map[PartyID][]byte, len(peers))
	for _, peer := range peers {
		raw, ok := batch[peer]
		if !ok {
			wipeAll(out)
			return nil, errorf(op, "%w: no ciphertext from %d", ErrInvalidParameter, peer)
		}
		ct, err := k.Open(raw, kem.KindCiphertext)
		if err != nil {
			wipeAll(out)
			return nil, err
		}
		ss, err := priv.Decapsulate(ct)
		if err != nil {
			wipeAll(out)
			return nil, err
		}
		out[peer] = ss
	}
	return out, nil
}

func wipeAll(secrets map[PartyID][]byte) {
	for _, ss := range secrets {
		ZeroizeBytes(ss)
	}
}

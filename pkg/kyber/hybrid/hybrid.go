package hybrid

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/latticekem/kyber-go/internal/secret"
	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/kem"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
)

// Config holds the collaborators of a hybrid KEM. The zero value is ready to
// use.
type Config struct {
	// Rand supplies the classical scalars. Leaving it nil selects
	// crypto/rand.Reader. The lattice half draws from its own KEM's source.
	Rand io.Reader

	// Logger receives construction and validation records. Leaving it nil
	// binds to slog.Default().
	Logger logging.Logger
}

// registered maps a (lattice scheme, group) pair to its wire identifier.
var registered = map[[2]kem.ID]kem.ID{
	{kem.MLKEM768, kem.X25519}:    kem.X25519MLKEM768,
	{kem.Kyber768, kem.X25519}:    kem.X25519Kyber768,
	{kem.MLKEM768, kem.Secp256k1}: kem.Secp256k1MLKEM768,
}

// KEM combines a lattice KEM with a classical Diffie-Hellman group. Keys
// and ciphertexts are the concatenation of the lattice part followed by the
// classical part, and the shared secret is
//
//	SHA3-256(label ‖ ss_pq ‖ ss_dh ‖ ct_dh ‖ pk_dh)
//
// where label is the scheme name. The output stays secret as long as either
// component is unbroken.
type KEM struct {
	id    kem.ID
	name  string
	pq    *kyber.KEM
	group Group
	rand  io.Reader
	log   logging.Logger
}

var _ kem.KEM = (*KEM)(nil)

// New returns the hybrid of pq and group. Only registered combinations are
// accepted.
func New(pq *kyber.KEM, group Group, cfg Config) (*KEM, error) {
	if pq == nil || group == nil {
		return nil, fmt.Errorf("hybrid.New: %w: nil component", kyber.ErrInvalidParameter)
	}
	id, ok := registered[[2]kem.ID{pq.ID(), group.ID()}]
	if !ok {
		return nil, fmt.Errorf("hybrid.New: %w: no scheme combines %s with %s", kyber.ErrInvalidParameter, pq.Name(), group.Name())
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(nil)
	}
	h := &KEM{id: id, name: id.String(), pq: pq, group: group, rand: cfg.Rand}
	h.log = logging.ForScheme(cfg.Logger, h.name)
	h.log.Debug(context.Background(), "hybrid kem initialised", "lattice", pq.Name(), "group", group.Name())
	return h, nil
}

func (h *KEM) ID() kem.ID   { return h.id }
func (h *KEM) Name() string { return h.name }

func (h *KEM) PublicKeySize() int    { return h.pq.PublicKeySize() + h.group.PointSize() }
func (h *KEM) PrivateKeySize() int   { return h.pq.PrivateKeySize() + h.group.ScalarSize() }
func (h *KEM) CiphertextSize() int   { return h.pq.CiphertextSize() + h.group.PointSize() }
func (h *KEM) SharedSecretSize() int { return kyber.SharedSecretSize }

// SeedSize is the lattice derivation seed followed by the classical scalar.
func (h *KEM) SeedSize() int { return kyber.SeedSize + h.group.ScalarSize() }

// EncapsulationSeedSize is the lattice encapsulation seed followed by the
// ephemeral classical scalar.
func (h *KEM) EncapsulationSeedSize() int {
	return kyber.EncapsulationSeedSize + h.group.ScalarSize()
}

func (h *KEM) checkLen(op, name string, b []byte, want int) error {
	if len(b) == want {
		return nil
	}
	logging.LengthMismatch(context.Background(), h.log, op, name, want, len(b))
	return fmt.Errorf("hybrid.%s: %w: %s is %d bytes, want %d", op, kyber.ErrInvalidParameter, name, len(b), want)
}

// maxScalarDraws bounds the rejection loop in scalar. An honest source
// fails a secp256k1 draw with probability below 2^-127.
const maxScalarDraws = 16

// scalar draws a classical private scalar the group accepts.
func (h *KEM) scalar(op string) ([]byte, error) {
	sk := make([]byte, h.group.ScalarSize())
	for range maxScalarDraws {
		if _, err := io.ReadFull(h.rand, sk); err != nil {
			secret.Wipe(sk)
			return nil, fmt.Errorf("hybrid.%s: %w: entropy: %v", op, kyber.ErrOutOfResources, err)
		}
		if _, err := h.group.Public(sk); err == nil {
			return sk, nil
		}
	}
	secret.Wipe(sk)
	h.log.Error(context.Background(), "entropy source yields no usable scalar", logging.OpKey, op, "draws", maxScalarDraws)
	return nil, fmt.Errorf("hybrid.%s: %w: no usable scalar after %d draws", op, kyber.ErrOutOfResources, maxScalarDraws)
}

func (h *KEM) GenerateKeyPair() (pk, sk []byte, err error) {
	const op = "GenerateKeyPair"
	pqPK, pqSK, err := h.pq.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(pqSK)
	dhSK, err := h.scalar(op)
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(dhSK)
	return h.assemble(op, pqPK, pqSK, dhSK)
}

// DeriveKeyPair derives a key pair from SeedSize bytes: the lattice seed
// d ‖ z followed by the classical scalar.
func (h *KEM) DeriveKeyPair(seed []byte) (pk, sk []byte, err error) {
	const op = "DeriveKeyPair"
	if len(seed) != h.SeedSize() {
		return nil, nil, fmt.Errorf("hybrid.%s: %w: seed is %d bytes, want %d", op, kyber.ErrInvalidKeyLength, len(seed), h.SeedSize())
	}
	pqPK, pqSK, err := h.pq.DeriveKeyPair(seed[:kyber.SeedSize])
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(pqSK)
	return h.assemble(op, pqPK, pqSK, seed[kyber.SeedSize:])
}

func (h *KEM) assemble(op string, pqPK, pqSK, dhSK []byte) (pk, sk []byte, err error) {
	dhPK, err := h.group.Public(dhSK)
	if err != nil {
		return nil, nil, fmt.Errorf("hybrid.%s: %w: %v", op, kyber.ErrInvalidKeyLength, err)
	}
	pk = append(append(make([]byte, 0, h.PublicKeySize()), pqPK...), dhPK...)
	sk = append(append(make([]byte, 0, h.PrivateKeySize()), pqSK...), dhSK...)
	h.log.Debug(context.Background(), "key pair generated", "pk_bytes", len(pk), "sk_bytes", len(sk), logging.Redacted("seed"))
	return pk, sk, nil
}

func (h *KEM) Encapsulate(pk []byte) (ct, ss []byte, err error) {
	const op = "Encapsulate"
	if err := h.checkLen(op, "pk", pk, h.PublicKeySize()); err != nil {
		return nil, nil, err
	}
	pqPK, dhPK := h.split(pk)
	pqCT, pqSS, err := h.pq.Encapsulate(pqPK)
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(pqSS)
	eph, err := h.scalar(op)
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(eph)
	return h.finish(pqCT, pqSS, eph, dhPK)
}

// EncapsulateDeterministic encapsulates using EncapsulationSeedSize bytes of
// seed in place of fresh randomness. It exists for known-answer testing.
func (h *KEM) EncapsulateDeterministic(pk, seed []byte) (ct, ss []byte, err error) {
	const op = "EncapsulateDeterministic"
	if len(seed) != h.EncapsulationSeedSize() {
		return nil, nil, fmt.Errorf("hybrid.%s: %w: seed is %d bytes, want %d", op, kyber.ErrInvalidKeyLength, len(seed), h.EncapsulationSeedSize())
	}
	if err := h.checkLen(op, "pk", pk, h.PublicKeySize()); err != nil {
		return nil, nil, err
	}
	eph := seed[kyber.EncapsulationSeedSize:]
	if _, err := h.group.Public(eph); err != nil {
		return nil, nil, fmt.Errorf("hybrid.%s: %w: %v", op, kyber.ErrInvalidKeyLength, err)
	}
	pqPK, dhPK := h.split(pk)
	pqCT, pqSS, err := h.pq.EncapsulateDeterministic(pqPK, seed[:kyber.EncapsulationSeedSize])
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(pqSS)
	return h.finish(pqCT, pqSS, eph, dhPK)
}

func (h *KEM) finish(pqCT, pqSS, eph, dhPK []byte) (ct, ss []byte, err error) {
	dhCT, err := h.group.Public(eph)
	if err != nil {
		return nil, nil, fmt.Errorf("hybrid: %w: %v", kyber.ErrInvalidParameter, err)
	}
	dhSS := h.group.DH(eph, dhPK)
	defer secret.Wipe(dhSS)
	ct = append(append(make([]byte, 0, h.CiphertextSize()), pqCT...), dhCT...)
	return ct, h.combine(pqSS, dhSS, dhCT, dhPK), nil
}

// Decapsulate never reports an invalid ciphertext. A classical point that
// does not decode contributes an all-zero DH value and the lattice half
// falls back to implicit rejection.
func (h *KEM) Decapsulate(sk, ct []byte) ([]byte, error) {
	const op = "Decapsulate"
	if err := h.checkLen(op, "sk", sk, h.PrivateKeySize()); err != nil {
		return nil, err
	}
	if err := h.checkLen(op, "ct", ct, h.CiphertextSize()); err != nil {
		return nil, err
	}
	pqSK, dhSK := sk[:h.pq.PrivateKeySize()], sk[h.pq.PrivateKeySize():]
	pqCT, dhCT := ct[:h.pq.CiphertextSize()], ct[h.pq.CiphertextSize():]

	dhPK, err := h.group.Public(dhSK)
	if err != nil {
		return nil, fmt.Errorf("hybrid.%s: %w: %v", op, kyber.ErrInvalidParameter, err)
	}
	pqSS, err := h.pq.Decapsulate(pqSK, pqCT)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(pqSS)
	dhSS := h.group.DH(dhSK, dhCT)
	defer secret.Wipe(dhSS)
	return h.combine(pqSS, dhSS, dhCT, dhPK), nil
}

func (h *KEM) DerivePub(sk []byte) ([]byte, error) {
	const op = "DerivePub"
	if err := h.checkLen(op, "sk", sk, h.PrivateKeySize()); err != nil {
		return nil, err
	}
	pqPK, err := h.pq.DerivePub(sk[:h.pq.PrivateKeySize()])
	if err != nil {
		return nil, err
	}
	dhPK, err := h.group.Public(sk[h.pq.PrivateKeySize():])
	if err != nil {
		return nil, fmt.Errorf("hybrid.%s: %w: %v", op, kyber.ErrInvalidParameter, err)
	}
	return append(pqPK, dhPK...), nil
}

// Seal wraps data in an envelope tagged with h's scheme.
func (h *KEM) Seal(kind kem.Kind, data []byte) ([]byte, error) {
	return kem.Seal(kind, h.id, data)
}

// Open unwraps an envelope produced for h's scheme.
func (h *KEM) Open(raw []byte, kind kem.Kind) ([]byte, error) {
	env, err := kem.Open(raw, kind)
	if err != nil {
		return nil, fmt.Errorf("hybrid.Open: %w: %w", kyber.ErrInvalidParameter, err)
	}
	if env.Scheme != h.id {
		return nil, fmt.Errorf("hybrid.Open: %w: envelope is for %s, not %s", kyber.ErrInvalidKeyLength, env.Scheme, h.name)
	}
	return env.Data, nil
}

func (h *KEM) split(pk []byte) (pqPK, dhPK []byte) {
	n := h.pq.PublicKeySize()
	return pk[:n], pk[n:]
}

func (h *KEM) combine(pqSS, dhSS, dhCT, dhPK []byte) []byte {
	d := sha3.New256()
	d.Write([]byte(h.name))
	d.Write(pqSS)
	d.Write(dhSS)
	d.Write(dhCT)
	d.Write(dhPK)
	return d.Sum(nil)
}

// ByID builds the hybrid registered under id. kcfg configures the lattice
// half.
func ByID(id kem.ID, cfg Config, kcfg kyber.Config) (*KEM, error) {
	for pair, hid := range registered {
		if hid != id {
			continue
		}
		ps, err := kyber.ParameterSetByID(pair[0])
		if err != nil {
			return nil, err
		}
		pq, err := kyber.New(ps, kcfg)
		if err != nil {
			return nil, err
		}
		g := X25519()
		if pair[1] == kem.Secp256k1 {
			g = Secp256k1()
		}
		return New(pq, g, cfg)
	}
	return nil, fmt.Errorf("hybrid.ByID: %w: unknown scheme %s", kyber.ErrInvalidKeyLength, id)
}

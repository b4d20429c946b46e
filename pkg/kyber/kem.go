package kyber

import (
	"context"
	"io"

	"github.com/latticekem/kyber-go/internal/pke"
	"github.com/latticekem/kyber-go/internal/secret"
	"github.com/latticekem/kyber-go/pkg/kyber/kem"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

const (
	// SharedSecretSize is the size of every shared secret.
	SharedSecretSize = 32

	// SeedSize is the size of the DeriveKeyPair seed d ‖ z.
	SeedSize = 64

	// EncapsulationSeedSize is the size of the EncapsulateDeterministic seed.
	EncapsulationSeedSize = 32
)

// KEM is one parameter set bound to its collaborators. It is immutable after
// New and safe for concurrent use; every call allocates its own working
// state.
type KEM struct {
	ps          ParameterSet
	pp          pke.Params
	rand        io.Reader
	sym         symmetric.Provider
	log         logging.Logger
	materialize bool
}

var _ kem.KEM = (*KEM)(nil)

// New validates ps and returns a KEM for it.
func New(ps ParameterSet, cfg Config) (*KEM, error) {
	if err := ps.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	k := &KEM{
		ps:          ps,
		pp:          ps.pke(),
		rand:        cfg.Rand,
		sym:         cfg.Provider,
		log:         logging.ForScheme(cfg.Logger, ps.Name),
		materialize: cfg.Materialize,
	}
	k.log.Debug(context.Background(), "kem initialised", "variant", ps.Variant.String(), "materialize", cfg.Materialize)
	return k, nil
}

// ParameterSet returns the parameter set k was created with.
func (k *KEM) ParameterSet() ParameterSet { return k.ps }

func (k *KEM) ID() kem.ID            { return k.ps.ID }
func (k *KEM) Name() string          { return k.ps.Name }
func (k *KEM) PublicKeySize() int    { return k.ps.PublicKeySize() }
func (k *KEM) PrivateKeySize() int   { return k.ps.PrivateKeySize() }
func (k *KEM) CiphertextSize() int   { return k.ps.CiphertextSize() }
func (k *KEM) SharedSecretSize() int { return SharedSecretSize }

// SeedSize returns the size of the seed accepted by DeriveKeyPair.
func (k *KEM) SeedSize() int { return SeedSize }

// EncapsulationSeedSize returns the size of the seed accepted by
// EncapsulateDeterministic.
func (k *KEM) EncapsulationSeedSize() int { return EncapsulationSeedSize }

// checkLen is the argument validation every operation performs before it
// touches secret data or writes output.
func (k *KEM) checkLen(op, name string, b []byte, want int) error {
	if len(b) == want {
		return nil
	}
	logging.LengthMismatch(context.Background(), k.log, op, name, want, len(b))
	return errorf(op, "%w: %s is %d bytes, want %d", ErrInvalidParameter, name, len(b), want)
}

func (k *KEM) checkSeed(op, name string, b []byte, want int) error {
	if len(b) == want {
		return nil
	}
	logging.SeedMismatch(context.Background(), k.log, op, name, want, len(b))
	return errorf(op, "%w: %s is %d bytes, want %d", ErrInvalidKeyLength, name, len(b), want)
}

func (k *KEM) readRandom(op string, buf []byte) error {
	if _, err := io.ReadFull(k.rand, buf); err != nil {
		secret.Wipe(buf)
		k.log.Error(context.Background(), "entropy source failed", "op", op, "error", err)
		return errorf(op, "%w: entropy: %v", ErrOutOfResources, err)
	}
	return nil
}

// GenerateKeyPair draws a 64-byte seed d ‖ z and returns a fresh key pair.
func (k *KEM) GenerateKeyPair() (pk, sk []byte, err error) {
	pk = make([]byte, k.PublicKeySize())
	sk = make([]byte, k.PrivateKeySize())
	if err := k.GenerateKeyPairTo(pk, sk); err != nil {
		return nil, nil, err
	}
	return pk, sk, nil
}

// GenerateKeyPairTo is GenerateKeyPair writing into caller-owned buffers of
// exactly PublicKeySize and PrivateKeySize bytes. Nothing is written on
// error.
func (k *KEM) GenerateKeyPairTo(pk, sk []byte) error {
	const op = "GenerateKeyPair"
	if err := k.checkLen(op, "pk", pk, k.PublicKeySize()); err != nil {
		return err
	}
	if err := k.checkLen(op, "sk", sk, k.PrivateKeySize()); err != nil {
		return err
	}
	var seed [SeedSize]byte
	defer secret.Wipe(seed[:])
	if err := k.readRandom(op, seed[:]); err != nil {
		return err
	}
	k.deriveKeyPair(pk, sk, seed[:])
	return nil
}

// DeriveKeyPair deterministically derives the key pair for the 64-byte seed
// d ‖ z. Equal seeds give equal keys.
func (k *KEM) DeriveKeyPair(seed []byte) (pk, sk []byte, err error) {
	const op = "DeriveKeyPair"
	if err := k.checkSeed(op, "seed", seed, SeedSize); err != nil {
		return nil, nil, err
	}
	pk = make([]byte, k.PublicKeySize())
	sk = make([]byte, k.PrivateKeySize())
	k.deriveKeyPair(pk, sk, seed)
	return pk, sk, nil
}

// deriveKeyPair writes sk = ByteEncode12(ŝ) ‖ pk ‖ H(pk) ‖ z. H(pk) is
// computed here once and stored; decapsulation reads it back.
func (k *KEM) deriveKeyPair(pk, sk, seed []byte) {
	d, z := seed[:32], seed[32:SeedSize]
	pkOff, hOff, zOff := k.ps.skLayout()

	pke.KeyGen(k.pp, k.sym, d, pk, sk[:pkOff])
	copy(sk[pkOff:hOff], pk)
	var h [32]byte
	k.sym.H(&h, pk)
	copy(sk[hOff:zOff], h[:])
	copy(sk[zOff:], z)

	k.log.Debug(context.Background(), "key pair generated",
		"pk_bytes", len(pk), "sk_bytes", len(sk), logging.Redacted("seed"))
}

// DerivePub returns a copy of the public key embedded in sk.
func (k *KEM) DerivePub(sk []byte) ([]byte, error) {
	if err := k.checkLen("DerivePub", "sk", sk, k.PrivateKeySize()); err != nil {
		return nil, err
	}
	pkOff, hOff, _ := k.ps.skLayout()
	return append([]byte(nil), sk[pkOff:hOff]...), nil
}

// Encapsulate draws a random message and returns a ciphertext for pk
// together with the shared secret it encapsulates.
func (k *KEM) Encapsulate(pk []byte) (ct, ss []byte, err error) {
	ct = make([]byte, k.CiphertextSize())
	ss = make([]byte, SharedSecretSize)
	if err := k.EncapsulateTo(ct, ss, pk); err != nil {
		return nil, nil, err
	}
	return ct, ss, nil
}

// EncapsulateTo is Encapsulate writing into caller-owned buffers. Nothing is
// written on error.
func (k *KEM) EncapsulateTo(ct, ss, pk []byte) error {
	const op = "Encapsulate"
	pub, err := k.parseEncapsulation(op, ct, ss, pk)
	if err != nil {
		return err
	}
	return pub.encapsulateTo(op, ct, ss)
}

// EncapsulateDeterministic encapsulates to pk using the 32-byte seed in
// place of fresh randomness. It exists for known-answer testing; reusing a
// seed with the same key reveals the shared secret to anyone who saw it
// before.
func (k *KEM) EncapsulateDeterministic(pk, seed []byte) (ct, ss []byte, err error) {
	const op = "EncapsulateDeterministic"
	if err := k.checkSeed(op, "seed", seed, EncapsulationSeedSize); err != nil {
		return nil, nil, err
	}
	ct = make([]byte, k.CiphertextSize())
	ss = make([]byte, SharedSecretSize)
	pub, err := k.parseEncapsulation(op, ct, ss, pk)
	if err != nil {
		return nil, nil, err
	}
	pub.encapsulate(ct, ss, seed)
	return ct, ss, nil
}

func (k *KEM) parseEncapsulation(op string, ct, ss, pk []byte) (*PublicKey, error) {
	if err := k.checkLen(op, "ct", ct, k.CiphertextSize()); err != nil {
		return nil, err
	}
	if err := k.checkLen(op, "ss", ss, SharedSecretSize); err != nil {
		return nil, err
	}
	return k.newPublicKey(op, pk, false)
}

// Decapsulate returns the shared secret encapsulated in ct. A ciphertext
// that was not produced for sk yields a pseudorandom secret, not an error.
func (k *KEM) Decapsulate(sk, ct []byte) ([]byte, error) {
	ss := make([]byte, SharedSecretSize)
	if err := k.DecapsulateTo(ss, ct, sk); err != nil {
		return nil, err
	}
	return ss, nil
}

// DecapsulateTo is Decapsulate writing into a caller-owned buffer. Nothing
// is written on error.
func (k *KEM) DecapsulateTo(ss, ct, sk []byte) error {
	const op = "Decapsulate"
	if err := k.checkLen(op, "ss", ss, SharedSecretSize); err != nil {
		return err
	}
	if err := k.checkLen(op, "ct", ct, k.CiphertextSize()); err != nil {
		return err
	}
	priv, err := k.newPrivateKey(op, sk, false)
	if err != nil {
		return err
	}
	defer priv.Destroy()
	priv.decapsulate(ss, ct)
	return nil
}

// Seal wraps data in an envelope tagged with k's scheme.
func (k *KEM) Seal(kind kem.Kind, data []byte) ([]byte, error) {
	return kem.Seal(kind, k.ps.ID, data)
}

// Open unwraps an envelope of the given kind produced for k's scheme and
// checks that its payload has the size kind requires.
func (k *KEM) Open(raw []byte, kind kem.Kind) ([]byte, error) {
	const op = "Open"
	env, err := kem.Open(raw, kind)
	if err != nil {
		return nil, errorf(op, "%w: %w", ErrInvalidParameter, err)
	}
	if env.Scheme != k.ps.ID {
		return nil, errorf(op, "%w: envelope is for %s, not %s", ErrInvalidKeyLength, env.Scheme, k.ps.Name)
	}
	want := map[kem.Kind]int{
		kem.KindPublicKey:  k.PublicKeySize(),
		kem.KindPrivateKey: k.PrivateKeySize(),
		kem.KindCiphertext: k.CiphertextSize(),
	}[kind]
	if err := k.checkLen(op, kind.String(), env.Data, want); err != nil {
		return nil, err
	}
	return env.Data, nil
}

package kyber

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/latticekem/kyber-go/internal/pke"
	"github.com/latticekem/kyber-go/internal/secret"
)

// PublicKey is a parsed encapsulation key. It is immutable and safe for
// concurrent use. When the KEM was configured with Materialize, the public
// matrix is generated once here and reused by every encapsulation.
type PublicKey struct {
	kem *KEM
	raw []byte
	hpk [32]byte
	pke *pke.PublicKey
}

// NewPublicKey parses pk. For ML-KEM parameter sets a key whose coefficients
// are not reduced mod q is rejected with ErrInvalidParameter; round-3 Kyber
// reduces them.
func (k *KEM) NewPublicKey(pk []byte) (*PublicKey, error) {
	return k.newPublicKey("NewPublicKey", pk, k.materialize)
}

func (k *KEM) newPublicKey(op string, pk []byte, materialize bool) (*PublicKey, error) {
	if err := k.checkLen(op, "pk", pk, k.PublicKeySize()); err != nil {
		return nil, err
	}
	p, ok := pke.NewPublicKey(k.pp, k.sym, pk, k.ps.Variant == VariantMLKEM)
	if !ok {
		k.log.Warn(context.Background(), "public key coefficient out of range", "op", op)
		return nil, errorf(op, "%w: public key is not canonically encoded", ErrInvalidParameter)
	}
	pub := &PublicKey{kem: k, raw: append([]byte(nil), pk...), pke: p}
	k.sym.H(&pub.hpk, pk)
	if materialize {
		p.Materialize()
	}
	return pub, nil
}

// Bytes returns a copy of the encoded key.
func (pub *PublicKey) Bytes() []byte {
	return append([]byte(nil), pub.raw...)
}

// KEM returns the instance that parsed pub.
func (pub *PublicKey) KEM() *KEM {
	return pub.kem
}

// Encapsulate returns a fresh ciphertext and the shared secret it carries.
func (pub *PublicKey) Encapsulate() (ct, ss []byte, err error) {
	ct = make([]byte, pub.kem.CiphertextSize())
	ss = make([]byte, SharedSecretSize)
	if err := pub.EncapsulateTo(ct, ss); err != nil {
		return nil, nil, err
	}
	return ct, ss, nil
}

// EncapsulateTo is Encapsulate writing into caller-owned buffers.
func (pub *PublicKey) EncapsulateTo(ct, ss []byte) error {
	const op = "Encapsulate"
	if pub == nil {
		return errorf(op, "%w: nil public key", ErrInvalidParameter)
	}
	if err := pub.kem.checkLen(op, "ct", ct, pub.kem.CiphertextSize()); err != nil {
		return err
	}
	if err := pub.kem.checkLen(op, "ss", ss, SharedSecretSize); err != nil {
		return err
	}
	return pub.encapsulateTo(op, ct, ss)
}

func (pub *PublicKey) encapsulateTo(op string, ct, ss []byte) error {
	var seed [EncapsulationSeedSize]byte
	defer secret.Wipe(seed[:])
	if err := pub.kem.readRandom(op, seed[:]); err != nil {
		return err
	}
	pub.encapsulate(ct, ss, seed[:])
	return nil
}

// encapsulate derives (K, coins) = G(m ‖ H(pk)) and encrypts m under coins.
// Round-3 Kyber hashes the seed into m and outputs KDF(K ‖ H(ct)); ML-KEM
// uses the seed as m and outputs K.
func (pub *PublicKey) encapsulate(ct, ss, seed []byte) {
	k := pub.kem
	var m [32]byte
	var kr [64]byte
	defer secret.Wipe(m[:])
	defer secret.Wipe(kr[:])

	if k.ps.Variant == VariantKyber {
		k.sym.H(&m, seed)
	} else {
		copy(m[:], seed)
	}
	k.sym.G(&kr, m[:], pub.hpk[:])
	pub.pke.Encrypt(ct, m[:], kr[32:])

	if k.ps.Variant == VariantKyber {
		var hc [32]byte
		k.sym.H(&hc, ct)
		k.sym.KDF(ss[:SharedSecretSize], kr[:32], hc[:])
		return
	}
	copy(ss, kr[:32])
}

// PrivateKey is a parsed decapsulation key. It owns copies of ŝ, H(pk) and
// z and wipes them on Destroy; every operation after Destroy fails with
// ErrKeyDestroyed. It is safe for concurrent use.
type PrivateKey struct {
	mu        sync.RWMutex
	kem       *KEM
	pke       *pke.PrivateKey
	pub       *PublicKey
	hpk       [32]byte
	z         [32]byte
	destroyed bool
}

// NewPrivateKey parses sk. H(pk) is taken from sk as stored at key
// generation, never recomputed.
func (k *KEM) NewPrivateKey(sk []byte) (*PrivateKey, error) {
	return k.newPrivateKey("NewPrivateKey", sk, k.materialize)
}

func (k *KEM) newPrivateKey(op string, sk []byte, materialize bool) (*PrivateKey, error) {
	if err := k.checkLen(op, "sk", sk, k.PrivateKeySize()); err != nil {
		return nil, err
	}
	pkOff, hOff, zOff := k.ps.skLayout()

	priv := &PrivateKey{kem: k, pke: pke.NewPrivateKey(k.pp, sk[:pkOff])}
	copy(priv.hpk[:], sk[hOff:zOff])
	copy(priv.z[:], sk[zOff:])

	// The embedded key was produced by key generation, so it is reduced
	// rather than checked.
	p, _ := pke.NewPublicKey(k.pp, k.sym, sk[pkOff:hOff], false)
	if materialize {
		p.Materialize()
	}
	priv.pub = &PublicKey{kem: k, raw: append([]byte(nil), sk[pkOff:hOff]...), hpk: priv.hpk, pke: p}
	return priv, nil
}

// GenerateKey returns handles for a fresh key pair. The encoded private key
// never leaves the call.
func (k *KEM) GenerateKey() (*PublicKey, *PrivateKey, error) {
	_, sk, err := k.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	defer secret.Wipe(sk)
	priv, err := k.newPrivateKey("GenerateKey", sk, k.materialize)
	if err != nil {
		return nil, nil, err
	}
	return priv.pub, priv, nil
}

// PublicKey returns the public half of priv.
func (priv *PrivateKey) PublicKey() *PublicKey {
	return priv.pub
}

// Decapsulate returns the shared secret carried by ct.
func (priv *PrivateKey) Decapsulate(ct []byte) ([]byte, error) {
	ss := make([]byte, SharedSecretSize)
	if err := priv.DecapsulateTo(ss, ct); err != nil {
		return nil, err
	}
	return ss, nil
}

// DecapsulateTo is Decapsulate writing into a caller-owned buffer.
func (priv *PrivateKey) DecapsulateTo(ss, ct []byte) error {
	const op = "Decapsulate"
	if priv == nil {
		return errorf(op, "%w: nil private key", ErrInvalidParameter)
	}
	priv.mu.RLock()
	defer priv.mu.RUnlock()
	if priv.destroyed {
		return errorf(op, "%w", ErrKeyDestroyed)
	}
	if err := priv.kem.checkLen(op, "ss", ss, SharedSecretSize); err != nil {
		return err
	}
	if err := priv.kem.checkLen(op, "ct", ct, priv.kem.CiphertextSize()); err != nil {
		return err
	}
	priv.decapsulate(ss, ct)
	return nil
}

// decapsulate decrypts ct, re-encrypts the result and selects between the
// derived key and the rejection value with constant-time primitives. Both
// candidates are always computed and nothing here branches on, logs or
// returns the outcome of the comparison.
func (priv *PrivateKey) decapsulate(ss, ct []byte) {
	k := priv.kem
	var m, sel [32]byte
	var kr [64]byte
	ct2 := make([]byte, len(ct))
	defer secret.Wipe(m[:])
	defer secret.Wipe(sel[:])
	defer secret.Wipe(kr[:])
	defer secret.Wipe(ct2)

	priv.pke.Decrypt(m[:], ct)
	k.sym.G(&kr, m[:], priv.hpk[:])
	priv.pub.pke.Encrypt(ct2, m[:], kr[32:])
	equal := subtle.ConstantTimeCompare(ct, ct2)

	if k.ps.Variant == VariantKyber {
		// ss = KDF(K' ‖ H(ct)) or KDF(z ‖ H(ct))
		copy(sel[:], priv.z[:])
		subtle.ConstantTimeCopy(equal, sel[:], kr[:32])
		var hc [32]byte
		k.sym.H(&hc, ct)
		k.sym.KDF(ss[:SharedSecretSize], sel[:], hc[:])
		return
	}
	// ss = K' or J(z ‖ ct)
	k.sym.KDF(sel[:], priv.z[:], ct)
	subtle.ConstantTimeCopy(equal, sel[:], kr[:32])
	copy(ss, sel[:])
}

// Destroy wipes the secret material held by priv. It is idempotent.
func (priv *PrivateKey) Destroy() {
	if priv == nil {
		return
	}
	priv.mu.Lock()
	defer priv.mu.Unlock()
	if priv.destroyed {
		return
	}
	priv.pke.Wipe()
	secret.Wipe(priv.z[:])
	secret.Wipe(priv.hpk[:])
	priv.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (priv *PrivateKey) Destroyed() bool {
	if priv == nil {
		return false
	}
	priv.mu.RLock()
	defer priv.mu.RUnlock()
	return priv.destroyed
}

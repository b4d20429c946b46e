// Package circlkem exposes a kyber.KEM through the
// github.com/cloudflare/circl/kem.Scheme interface, so code written against
// circl's scheme registry can use this implementation unchanged.
package circlkem

import (
	"crypto/subtle"
	"errors"

	"github.com/cloudflare/circl/kem"

	"github.com/latticekem/kyber-go/pkg/kyber"
)

type scheme struct {
	k *kyber.KEM
}

// New wraps k. The returned scheme inherits k's entropy source, provider and
// logger.
func New(k *kyber.KEM) kem.Scheme {
	return &scheme{k: k}
}

type publicKey struct {
	s   *scheme
	pub *kyber.PublicKey
}

type privateKey struct {
	s   *scheme
	raw []byte
	pk  *publicKey
}

func (s *scheme) Name() string               { return s.k.Name() }
func (s *scheme) CiphertextSize() int        { return s.k.CiphertextSize() }
func (s *scheme) SharedKeySize() int         { return s.k.SharedSecretSize() }
func (s *scheme) PrivateKeySize() int        { return s.k.PrivateKeySize() }
func (s *scheme) PublicKeySize() int         { return s.k.PublicKeySize() }
func (s *scheme) SeedSize() int              { return s.k.SeedSize() }
func (s *scheme) EncapsulationSeedSize() int { return s.k.EncapsulationSeedSize() }

func (s *scheme) GenerateKeyPair() (kem.PublicKey, kem.PrivateKey, error) {
	_, sk, err := s.k.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	priv, err := s.newPrivateKey(sk)
	if err != nil {
		return nil, nil, err
	}
	return priv.pk, priv, nil
}

// DeriveKeyPair panics if seed is not SeedSize bytes, as circl schemes do.
func (s *scheme) DeriveKeyPair(seed []byte) (kem.PublicKey, kem.PrivateKey) {
	if len(seed) != s.SeedSize() {
		panic(kem.ErrSeedSize)
	}
	_, sk, err := s.k.DeriveKeyPair(seed)
	if err != nil {
		panic(err)
	}
	priv, err := s.newPrivateKey(sk)
	if err != nil {
		panic(err)
	}
	return priv.pk, priv
}

func (s *scheme) Encapsulate(pk kem.PublicKey) (ct, ss []byte, err error) {
	pub, ok := pk.(*publicKey)
	if !ok || pub.s.k != s.k {
		return nil, nil, kem.ErrTypeMismatch
	}
	return pub.pub.Encapsulate()
}

func (s *scheme) EncapsulateDeterministically(pk kem.PublicKey, seed []byte) (ct, ss []byte, err error) {
	pub, ok := pk.(*publicKey)
	if !ok || pub.s.k != s.k {
		return nil, nil, kem.ErrTypeMismatch
	}
	if len(seed) != s.EncapsulationSeedSize() {
		return nil, nil, kem.ErrSeedSize
	}
	return s.k.EncapsulateDeterministic(pub.pub.Bytes(), seed)
}

func (s *scheme) Decapsulate(sk kem.PrivateKey, ct []byte) ([]byte, error) {
	priv, ok := sk.(*privateKey)
	if !ok || priv.s.k != s.k {
		return nil, kem.ErrTypeMismatch
	}
	if len(ct) != s.CiphertextSize() {
		return nil, kem.ErrCiphertextSize
	}
	return s.k.Decapsulate(priv.raw, ct)
}

func (s *scheme) UnmarshalBinaryPublicKey(buf []byte) (kem.PublicKey, error) {
	if len(buf) != s.PublicKeySize() {
		return nil, kem.ErrPubKeySize
	}
	pub, err := s.k.NewPublicKey(buf)
	if errors.Is(err, kyber.ErrInvalidParameter) {
		return nil, kem.ErrPubKey
	}
	if err != nil {
		return nil, err
	}
	return &publicKey{s: s, pub: pub}, nil
}

func (s *scheme) UnmarshalBinaryPrivateKey(buf []byte) (kem.PrivateKey, error) {
	if len(buf) != s.PrivateKeySize() {
		return nil, kem.ErrPrivKeySize
	}
	return s.newPrivateKey(buf)
}

func (s *scheme) newPrivateKey(sk []byte) (*privateKey, error) {
	raw, err := s.k.DerivePub(sk)
	if err != nil {
		return nil, err
	}
	pub, err := s.k.NewPublicKey(raw)
	if err != nil {
		return nil, err
	}
	return &privateKey{
		s:   s,
		raw: append([]byte(nil), sk...),
		pk:  &publicKey{s: s, pub: pub},
	}, nil
}

func (pk *publicKey) Scheme() kem.Scheme { return pk.s }

func (pk *publicKey) MarshalBinary() ([]byte, error) {
	return pk.pub.Bytes(), nil
}

func (pk *publicKey) Equal(other kem.PublicKey) bool {
	o, ok := other.(*publicKey)
	if !ok || o.s.k != pk.s.k {
		return false
	}
	return subtle.ConstantTimeCompare(pk.pub.Bytes(), o.pub.Bytes()) == 1
}

func (sk *privateKey) Scheme() kem.Scheme { return sk.s }

func (sk *privateKey) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), sk.raw...), nil
}

func (sk *privateKey) Equal(other kem.PrivateKey) bool {
	o, ok := other.(*privateKey)
	if !ok || o.s.k != sk.s.k {
		return false
	}
	return subtle.ConstantTimeCompare(sk.raw, o.raw) == 1
}

func (sk *privateKey) Public() kem.PublicKey { return sk.pk }

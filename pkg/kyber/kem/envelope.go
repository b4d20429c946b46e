package kem

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// ErrMalformedEnvelope is returned when an envelope cannot be parsed.
var ErrMalformedEnvelope = errors.New("kem: malformed envelope")

// Kind tags what an envelope carries.
type Kind uint8

const (
	KindPublicKey  Kind = 'P'
	KindPrivateKey Kind = 'S'
	KindCiphertext Kind = 'C'
)

func (k Kind) String() string {
	switch k {
	case KindPublicKey:
		return "public key"
	case KindPrivateKey:
		return "private key"
	case KindCiphertext:
		return "ciphertext"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

const envelopeMagic = "KEM1"

// Envelope is a self-describing container for an encoded key or ciphertext:
//
//	"KEM1" ‖ kind (1) ‖ scheme ID (2) ‖ uint16 length ‖ data
type Envelope struct {
	Kind   Kind
	Scheme ID
	Data   []byte
}

// MarshalBinary encodes e.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	if len(e.Data) > 0xffff {
		return nil, fmt.Errorf("%w: %d bytes of data", ErrMalformedEnvelope, len(e.Data))
	}
	var b cryptobyte.Builder
	b.AddBytes([]byte(envelopeMagic))
	b.AddUint8(uint8(e.Kind))
	b.AddUint16(uint16(e.Scheme))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(e.Data)
	})
	return b.Bytes()
}

// UnmarshalBinary decodes raw into e. Data is copied out of raw.
func (e *Envelope) UnmarshalBinary(raw []byte) error {
	s := cryptobyte.String(raw)

	var magic []byte
	if !s.ReadBytes(&magic, len(envelopeMagic)) || string(magic) != envelopeMagic {
		return fmt.Errorf("%w: bad magic", ErrMalformedEnvelope)
	}
	var kind uint8
	var id uint16
	var data cryptobyte.String
	if !s.ReadUint8(&kind) || !s.ReadUint16(&id) || !s.ReadUint16LengthPrefixed(&data) {
		return fmt.Errorf("%w: truncated", ErrMalformedEnvelope)
	}
	if !s.Empty() {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedEnvelope, len(s))
	}
	switch Kind(kind) {
	case KindPublicKey, KindPrivateKey, KindCiphertext:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedEnvelope, kind)
	}

	e.Kind = Kind(kind)
	e.Scheme = ID(id)
	e.Data = append([]byte(nil), data...)
	return nil
}

// Seal encodes data as an envelope of the given kind for scheme.
func Seal(kind Kind, scheme ID, data []byte) ([]byte, error) {
	e := Envelope{Kind: kind, Scheme: scheme, Data: data}
	return e.MarshalBinary()
}

// Open decodes raw and checks that it carries kind. The scheme is returned
// for the caller to check.
func Open(raw []byte, kind Kind) (*Envelope, error) {
	var e Envelope
	if err := e.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	if e.Kind != kind {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrMalformedEnvelope, e.Kind, kind)
	}
	return &e, nil
}

package kyber_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
)

// FuzzDecapsulate feeds arbitrary ciphertexts to both variants. Any input of
// the right length decapsulates without error to a stable secret; any other
// length is refused.
func FuzzDecapsulate(f *testing.F) {
	type party struct {
		k  *kyber.KEM
		sk []byte
		ct []byte
	}
	var parties []party
	for _, ps := range []kyber.ParameterSet{kyber.Kyber768, kyber.MLKEM768} {
		k, err := kyber.New(ps, kyber.Config{Logger: logging.Discard()})
		if err != nil {
			f.Fatal(err)
		}
		pk, sk, err := k.DeriveKeyPair(bytes.Repeat([]byte{0x42}, kyber.SeedSize))
		if err != nil {
			f.Fatal(err)
		}
		ct, _, err := k.EncapsulateDeterministic(pk, bytes.Repeat([]byte{0x17}, kyber.EncapsulationSeedSize))
		if err != nil {
			f.Fatal(err)
		}
		parties = append(parties, party{k: k, sk: sk, ct: ct})
	}

	f.Add(parties[0].ct)
	f.Add(make([]byte, 1088))
	f.Add(bytes.Repeat([]byte{0xFF}, 1088))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, ct []byte) {
		for _, p := range parties {
			ss, err := p.k.Decapsulate(p.sk, ct)
			if len(ct) != p.k.CiphertextSize() {
				if !errors.Is(err, kyber.ErrInvalidParameter) {
					t.Fatalf("%s: ct of %d bytes: got %v", p.k.Name(), len(ct), err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("%s: %v", p.k.Name(), err)
			}
			if len(ss) != kyber.SharedSecretSize {
				t.Fatalf("%s: shared secret of %d bytes", p.k.Name(), len(ss))
			}
			again, err := p.k.Decapsulate(p.sk, ct)
			if err != nil || !bytes.Equal(ss, again) {
				t.Fatalf("%s: decapsulation is not deterministic", p.k.Name())
			}
		}
	})
}

// FuzzPublicKey checks that parsing arbitrary public keys never panics, that
// Kyber accepts every full-length key and that ML-KEM fails only with
// ErrInvalidParameter.
func FuzzPublicKey(f *testing.F) {
	kyb, err := kyber.New(kyber.Kyber512, kyber.Config{Logger: logging.Discard()})
	if err != nil {
		f.Fatal(err)
	}
	ml, err := kyber.New(kyber.MLKEM512, kyber.Config{Logger: logging.Discard()})
	if err != nil {
		f.Fatal(err)
	}
	pk, _, err := ml.DeriveKeyPair(make([]byte, kyber.SeedSize))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(pk)
	f.Add(bytes.Repeat([]byte{0xFF}, len(pk)))

	f.Fuzz(func(t *testing.T, pk []byte) {
		_, errK := kyb.NewPublicKey(pk)
		_, errM := ml.NewPublicKey(pk)
		if len(pk) != ml.PublicKeySize() {
			if errK == nil || errM == nil {
				t.Fatalf("accepted %d-byte key", len(pk))
			}
			return
		}
		if errK != nil {
			t.Fatalf("kyber rejected a full-length key: %v", errK)
		}
		if errM != nil && !errors.Is(errM, kyber.ErrInvalidParameter) {
			t.Fatalf("unexpected error class: %v", errM)
		}
	})
}

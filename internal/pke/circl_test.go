package pke

import (
	"math/rand"
	"testing"

	"github.com/cloudflare/circl/pke/kyber/kyber1024"
	"github.com/cloudflare/circl/pke/kyber/kyber512"
	"github.com/cloudflare/circl/pke/kyber/kyber768"
	"github.com/stretchr/testify/require"

	"github.com/latticekem/kyber-go/internal/encoding"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// circlPKE adapts one circl CPAPKE instance to byte slices.
type circlPKE struct {
	params  Params
	keygen  func(seed []byte, fips bool) (pk, sk []byte)
	encrypt func(pk, m, coins []byte) []byte
}

func circlKyber512() circlPKE {
	return circlPKE{
		params: Params{K: 2, Eta1: 3, Eta2: 2, DU: 10, DV: 4},
		keygen: func(seed []byte, fips bool) ([]byte, []byte) {
			pk, sk := kyber512.NewKeyFromSeed(seed)
			if fips {
				pk, sk = kyber512.NewKeyFromSeedMLKEM(seed)
			}
			pkb, skb := make([]byte, kyber512.PublicKeySize), make([]byte, kyber512.PrivateKeySize)
			pk.Pack(pkb)
			sk.Pack(skb)
			return pkb, skb
		},
		encrypt: func(pkb, m, coins []byte) []byte {
			var pk kyber512.PublicKey
			pk.Unpack(pkb)
			ct := make([]byte, kyber512.CiphertextSize)
			pk.EncryptTo(ct, m, coins)
			return ct
		},
	}
}

func circlKyber768() circlPKE {
	return circlPKE{
		params: Params{K: 3, Eta1: 2, Eta2: 2, DU: 10, DV: 4},
		keygen: func(seed []byte, fips bool) ([]byte, []byte) {
			pk, sk := kyber768.NewKeyFromSeed(seed)
			if fips {
				pk, sk = kyber768.NewKeyFromSeedMLKEM(seed)
			}
			pkb, skb := make([]byte, kyber768.PublicKeySize), make([]byte, kyber768.PrivateKeySize)
			pk.Pack(pkb)
			sk.Pack(skb)
			return pkb, skb
		},
		encrypt: func(pkb, m, coins []byte) []byte {
			var pk kyber768.PublicKey
			pk.Unpack(pkb)
			ct := make([]byte, kyber768.CiphertextSize)
			pk.EncryptTo(ct, m, coins)
			return ct
		},
	}
}

func circlKyber1024() circlPKE {
	return circlPKE{
		params: Params{K: 4, Eta1: 2, Eta2: 2, DU: 11, DV: 5},
		keygen: func(seed []byte, fips bool) ([]byte, []byte) {
			pk, sk := kyber1024.NewKeyFromSeed(seed)
			if fips {
				pk, sk = kyber1024.NewKeyFromSeedMLKEM(seed)
			}
			pkb, skb := make([]byte, kyber1024.PublicKeySize), make([]byte, kyber1024.PrivateKeySize)
			pk.Pack(pkb)
			sk.Pack(skb)
			return pkb, skb
		},
		encrypt: func(pkb, m, coins []byte) []byte {
			var pk kyber1024.PublicKey
			pk.Unpack(pkb)
			ct := make([]byte, kyber1024.CiphertextSize)
			pk.EncryptTo(ct, m, coins)
			return ct
		},
	}
}

// The encryption core must agree with circl's CPAPKE byte for byte, which
// pins the matrix orientation, the noise nonces and every encoding.
func TestMatchesCirclCPAPKE(t *testing.T) {
	for name, ref := range map[string]circlPKE{
		"512":  circlKyber512(),
		"768":  circlKyber768(),
		"1024": circlKyber1024(),
	} {
		for _, fips := range []bool{false, true} {
			p := ref.params
			p.DomainSeparated = fips
			label := name
			if fips {
				label += "-fips"
			}
			t.Run(label, func(t *testing.T) {
				rng := rand.New(rand.NewSource(int64(100*p.K) + int64(len(name))))
				for i := 0; i < 5; i++ {
					d := randBytes(rng, SeedSize)
					wantPK, wantSK := ref.keygen(d, fips)

					pkb := make([]byte, p.PublicKeySize())
					skb := make([]byte, p.PrivateKeySize())
					KeyGen(p, symmetric.Software(), d, pkb, skb)
					require.Equal(t, wantPK, pkb)
					require.Equal(t, wantSK, skb)

					m := randBytes(rng, encoding.MessageBytes)
					coins := randBytes(rng, SeedSize)
					pk, ok := NewPublicKey(p, symmetric.Software(), pkb, true)
					require.True(t, ok)
					ct := make([]byte, p.CiphertextSize())
					pk.Encrypt(ct, m, coins)
					require.Equal(t, ref.encrypt(pkb, m, coins), ct)
				}
			})
		}
	}
}

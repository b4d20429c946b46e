package kyber

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/latticekem/kyber-go/pkg/kyber/kem"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

func newKEM(t testing.TB, ps ParameterSet) *KEM {
	t.Helper()
	k, err := New(ps, Config{Logger: logging.Discard()})
	require.NoError(t, err)
	return k
}

func seedOf(b byte, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = b + byte(i)
	}
	return s
}

func TestSizes(t *testing.T) {
	cases := []struct {
		ps         ParameterSet
		pk, sk, ct int
	}{
		{Kyber512, 800, 1632, 768},
		{Kyber768, 1184, 2400, 1088},
		{Kyber1024, 1568, 3168, 1568},
		{MLKEM512, 800, 1632, 768},
		{MLKEM768, 1184, 2400, 1088},
		{MLKEM1024, 1568, 3168, 1568},
	}
	for _, tc := range cases {
		t.Run(tc.ps.Name, func(t *testing.T) {
			k := newKEM(t, tc.ps)
			assert.Equal(t, tc.pk, k.PublicKeySize())
			assert.Equal(t, tc.sk, k.PrivateKeySize())
			assert.Equal(t, tc.ct, k.CiphertextSize())
			assert.Equal(t, 32, k.SharedSecretSize())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ps := range ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			k := newKEM(t, ps)
			for i := 0; i < 5; i++ {
				pk, sk, err := k.GenerateKeyPair()
				require.NoError(t, err)
				ct, ss, err := k.Encapsulate(pk)
				require.NoError(t, err)
				ss2, err := k.Decapsulate(sk, ct)
				require.NoError(t, err)
				require.Equal(t, ss, ss2)
			}
		})
	}
}

func TestDeterministicDerivation(t *testing.T) {
	for _, ps := range ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			k := newKEM(t, ps)
			seed := seedOf(1, SeedSize)
			pk1, sk1, err := k.DeriveKeyPair(seed)
			require.NoError(t, err)
			pk2, sk2, err := k.DeriveKeyPair(seed)
			require.NoError(t, err)
			require.Equal(t, pk1, pk2)
			require.Equal(t, sk1, sk2)

			other := seedOf(2, SeedSize)
			pk3, _, err := k.DeriveKeyPair(other)
			require.NoError(t, err)
			require.NotEqual(t, pk1, pk3)

			m := seedOf(9, EncapsulationSeedSize)
			ct1, ss1, err := k.EncapsulateDeterministic(pk1, m)
			require.NoError(t, err)
			ct2, ss2, err := k.EncapsulateDeterministic(pk1, m)
			require.NoError(t, err)
			require.Equal(t, ct1, ct2)
			require.Equal(t, ss1, ss2)

			got, err := k.Decapsulate(sk1, ct1)
			require.NoError(t, err)
			require.Equal(t, ss1, got)
		})
	}
}

func TestPrivateKeyLayout(t *testing.T) {
	for _, ps := range ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			k := newKEM(t, ps)
			seed := seedOf(3, SeedSize)
			pk, sk, err := k.DeriveKeyPair(seed)
			require.NoError(t, err)

			pkOff, hOff, zOff := ps.skLayout()
			require.Equal(t, pk, sk[pkOff:hOff])
			hpk := sha3.Sum256(pk)
			require.Equal(t, hpk[:], sk[hOff:zOff])
			require.Equal(t, seed[32:], sk[zOff:])

			derived, err := k.DerivePub(sk)
			require.NoError(t, err)
			require.Equal(t, pk, derived)
		})
	}
}

// A ciphertext with any bit flipped decapsulates without error to the
// implicit-rejection secret.
func TestTamperedCiphertext(t *testing.T) {
	for _, ps := range ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			k := newKEM(t, ps)
			seed := seedOf(4, SeedSize)
			pk, sk, err := k.DeriveKeyPair(seed)
			require.NoError(t, err)
			ct, ss, err := k.EncapsulateDeterministic(pk, seedOf(5, EncapsulationSeedSize))
			require.NoError(t, err)

			for _, pos := range []int{0, len(ct) / 2, len(ct) - 1} {
				bad := append([]byte(nil), ct...)
				bad[pos] ^= 0x01
				got, err := k.Decapsulate(sk, bad)
				require.NoError(t, err)
				require.NotEqual(t, ss, got)

				again, err := k.Decapsulate(sk, bad)
				require.NoError(t, err)
				require.Equal(t, got, again)

				require.Equal(t, rejectionSecret(ps, seed[32:], bad), got)
			}
		})
	}
}

// Decapsulating a tampered ciphertext performs exactly as many hash calls
// as decapsulating the genuine one.
func TestRejectionCallCount(t *testing.T) {
	for _, ps := range ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			sym := symmetric.NewSerialized(symmetric.Software())
			k, err := New(ps, Config{Provider: sym, Logger: logging.Discard()})
			require.NoError(t, err)
			pk, sk, err := k.DeriveKeyPair(seedOf(6, SeedSize))
			require.NoError(t, err)
			ct, ss, err := k.EncapsulateDeterministic(pk, seedOf(7, EncapsulationSeedSize))
			require.NoError(t, err)

			before := sym.Calls()
			got, err := k.Decapsulate(sk, ct)
			require.NoError(t, err)
			require.Equal(t, ss, got)
			valid := sym.Calls() - before

			for _, pos := range []int{0, len(ct) - 1} {
				bad := append([]byte(nil), ct...)
				bad[pos] ^= 0x80
				before = sym.Calls()
				got, err = k.Decapsulate(sk, bad)
				require.NoError(t, err)
				require.NotEqual(t, ss, got)
				require.Equal(t, valid, sym.Calls()-before, "position %d", pos)
			}
		})
	}
}

func rejectionSecret(ps ParameterSet, z, ct []byte) []byte {
	out := make([]byte, SharedSecretSize)
	h := sha3.NewShake256()
	h.Write(z)
	if ps.Variant == VariantKyber {
		hc := sha3.Sum256(ct)
		h.Write(hc[:])
	} else {
		h.Write(ct)
	}
	h.Read(out)
	return out
}

func TestLengthValidation(t *testing.T) {
	k := newKEM(t, MLKEM768)
	pk, sk, err := k.GenerateKeyPair()
	require.NoError(t, err)
	ct, _, err := k.Encapsulate(pk)
	require.NoError(t, err)

	sentinel := func(n int) []byte { return bytes.Repeat([]byte{0xAA}, n) }

	t.Run("GenerateKeyPairTo", func(t *testing.T) {
		pkBuf, skBuf := sentinel(k.PublicKeySize()-1), sentinel(k.PrivateKeySize())
		err := k.GenerateKeyPairTo(pkBuf, skBuf)
		require.ErrorIs(t, err, ErrInvalidParameter)
		require.Equal(t, sentinel(k.PublicKeySize()-1), pkBuf)
		require.Equal(t, sentinel(k.PrivateKeySize()), skBuf)
	})

	t.Run("EncapsulateTo", func(t *testing.T) {
		ctBuf, ssBuf := sentinel(k.CiphertextSize()), sentinel(SharedSecretSize)
		require.ErrorIs(t, k.EncapsulateTo(ctBuf, ssBuf, pk[1:]), ErrInvalidParameter)
		require.Equal(t, sentinel(k.CiphertextSize()), ctBuf)
		require.Equal(t, sentinel(SharedSecretSize), ssBuf)

		require.ErrorIs(t, k.EncapsulateTo(ctBuf, ssBuf[:31], pk), ErrInvalidParameter)
		require.ErrorIs(t, k.EncapsulateTo(ctBuf[:10], ssBuf, pk), ErrInvalidParameter)
		require.Equal(t, sentinel(k.CiphertextSize()), ctBuf)
	})

	t.Run("DecapsulateTo", func(t *testing.T) {
		ssBuf := sentinel(SharedSecretSize)
		require.ErrorIs(t, k.DecapsulateTo(ssBuf, ct[:len(ct)-1], sk), ErrInvalidParameter)
		require.ErrorIs(t, k.DecapsulateTo(ssBuf, append(ct, 0), sk), ErrInvalidParameter)
		require.ErrorIs(t, k.DecapsulateTo(ssBuf, ct, sk[:100]), ErrInvalidParameter)
		require.ErrorIs(t, k.DecapsulateTo(ssBuf[:16], ct, sk), ErrInvalidParameter)
		require.Equal(t, sentinel(SharedSecretSize), ssBuf)
	})

	t.Run("DerivePub", func(t *testing.T) {
		_, err := k.DerivePub(sk[1:])
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("Seeds", func(t *testing.T) {
		_, _, err := k.DeriveKeyPair(make([]byte, 63))
		require.ErrorIs(t, err, ErrInvalidKeyLength)
		_, _, err = k.EncapsulateDeterministic(pk, make([]byte, 33))
		require.ErrorIs(t, err, ErrInvalidKeyLength)
	})
}

func TestEntropyFailure(t *testing.T) {
	boom := errors.New("boom")
	k, err := New(MLKEM512, Config{Rand: iotest.ErrReader(boom), Logger: logging.Discard()})
	require.NoError(t, err)

	_, _, genErr := k.GenerateKeyPair()
	require.ErrorIs(t, genErr, ErrOutOfResources)
	var e *Error
	require.True(t, errors.As(genErr, &e))
	require.Equal(t, "GenerateKeyPair", e.Op)

	good := newKEM(t, MLKEM512)
	pk, _, err := good.GenerateKeyPair()
	require.NoError(t, err)

	ct, ss := make([]byte, k.CiphertextSize()), make([]byte, SharedSecretSize)
	require.ErrorIs(t, k.EncapsulateTo(ct, ss, pk), ErrOutOfResources)
	require.Equal(t, make([]byte, SharedSecretSize), ss)
}

func TestShortEntropy(t *testing.T) {
	k, err := New(Kyber512, Config{Rand: bytes.NewReader(make([]byte, 40)), Logger: logging.Discard()})
	require.NoError(t, err)
	_, _, err = k.GenerateKeyPair()
	require.ErrorIs(t, err, ErrOutOfResources)
}

func TestPublicKeyModulusCheck(t *testing.T) {
	for _, ps := range ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			k := newKEM(t, ps)
			pk, _, err := k.DeriveKeyPair(seedOf(6, SeedSize))
			require.NoError(t, err)

			// First coefficient set to 4095.
			bad := append([]byte(nil), pk...)
			bad[0] = 0xFF
			bad[1] |= 0x0F

			_, err = k.NewPublicKey(bad)
			_, _, encErr := k.Encapsulate(bad)
			if ps.Variant == VariantMLKEM {
				require.ErrorIs(t, err, ErrInvalidParameter)
				require.ErrorIs(t, encErr, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			require.NoError(t, encErr)
		})
	}
}

func TestKeyHandles(t *testing.T) {
	for _, materialize := range []bool{false, true} {
		k, err := New(MLKEM1024, Config{Materialize: materialize, Logger: logging.Discard()})
		require.NoError(t, err)

		pub, priv, err := k.GenerateKey()
		require.NoError(t, err)
		require.Same(t, pub, priv.PublicKey())
		require.Same(t, k, pub.KEM())

		ct, ss, err := pub.Encapsulate()
		require.NoError(t, err)
		got, err := priv.Decapsulate(ct)
		require.NoError(t, err)
		require.Equal(t, ss, got)

		ct2, ss2, err := k.Encapsulate(pub.Bytes())
		require.NoError(t, err)
		got2, err := priv.Decapsulate(ct2)
		require.NoError(t, err)
		require.Equal(t, ss2, got2)

		priv.Destroy()
		priv.Destroy()
		require.True(t, priv.Destroyed())
		_, err = priv.Decapsulate(ct)
		require.ErrorIs(t, err, ErrKeyDestroyed)
		require.ErrorIs(t, err, ErrInvalidParameter)
	}
}

func TestNilHandles(t *testing.T) {
	var pub *PublicKey
	require.ErrorIs(t, pub.EncapsulateTo(make([]byte, 1088), make([]byte, 32)), ErrInvalidParameter)
	var priv *PrivateKey
	_, err := priv.Decapsulate(make([]byte, 1088))
	require.ErrorIs(t, err, ErrInvalidParameter)
	priv.Destroy()
	require.False(t, priv.Destroyed())
}

func TestMaterializedMatchesOnDemand(t *testing.T) {
	lazy := newKEM(t, Kyber768)
	eager, err := New(Kyber768, Config{Materialize: true, Logger: logging.Discard()})
	require.NoError(t, err)

	pk, sk, err := lazy.DeriveKeyPair(seedOf(7, SeedSize))
	require.NoError(t, err)
	a, err := lazy.newPublicKey("test", pk, false)
	require.NoError(t, err)
	b, err := eager.NewPublicKey(pk)
	require.NoError(t, err)

	seed := seedOf(8, EncapsulationSeedSize)
	ctA, ssA := make([]byte, lazy.CiphertextSize()), make([]byte, SharedSecretSize)
	ctB, ssB := make([]byte, lazy.CiphertextSize()), make([]byte, SharedSecretSize)
	a.encapsulate(ctA, ssA, seed)
	b.encapsulate(ctB, ssB, seed)
	require.Equal(t, ctA, ctB)
	require.Equal(t, ssA, ssB)

	priv, err := eager.NewPrivateKey(sk)
	require.NoError(t, err)
	defer priv.Destroy()
	got, err := priv.Decapsulate(ctA)
	require.NoError(t, err)
	require.Equal(t, ssA, got)
}

func TestVariantsDiffer(t *testing.T) {
	seed := seedOf(10, SeedSize)
	k1 := newKEM(t, Kyber768)
	k2 := newKEM(t, MLKEM768)
	pk1, _, err := k1.DeriveKeyPair(seed)
	require.NoError(t, err)
	pk2, _, err := k2.DeriveKeyPair(seed)
	require.NoError(t, err)
	require.NotEqual(t, pk1, pk2)
}

func TestParseParameterSet(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want ParameterSet
	}{
		{"kyber768", Kyber768},
		{"Kyber-512", Kyber512},
		{"KYBER_1024", Kyber1024},
		{"ML-KEM-768", MLKEM768},
		{"mlkem512", MLKEM512},
		{"ml_kem 1024", MLKEM1024},
	} {
		got, err := ParseParameterSet(tc.in)
		require.NoError(t, err, tc.in)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseParameterSet(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
	_, err := ParseParameterSet("kyber2048")
	require.ErrorIs(t, err, ErrInvalidKeyLength)

	ps, err := ParameterSetByID(kem.MLKEM1024)
	require.NoError(t, err)
	require.Equal(t, MLKEM1024, ps)
	_, err = ParameterSetByID(kem.X25519)
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestNewRejectsBadParameters(t *testing.T) {
	bad := []ParameterSet{
		{Name: "k0", Variant: VariantMLKEM, K: 0, Eta1: 2, Eta2: 2, DU: 10, DV: 4},
		{Name: "eta", Variant: VariantMLKEM, K: 2, Eta1: 4, Eta2: 2, DU: 10, DV: 4},
		{Name: "du", Variant: VariantKyber, K: 2, Eta1: 2, Eta2: 2, DU: 12, DV: 4},
		{Name: "variant", K: 2, Eta1: 2, Eta2: 2, DU: 10, DV: 4},
	}
	for _, ps := range bad {
		_, err := New(ps, Config{})
		require.ErrorIs(t, err, ErrInvalidParameter, ps.Name)
	}
}

func TestSealOpen(t *testing.T) {
	k := newKEM(t, MLKEM768)
	pk, _, err := k.GenerateKeyPair()
	require.NoError(t, err)

	env, err := k.Seal(kem.KindPublicKey, pk)
	require.NoError(t, err)
	got, err := k.Open(env, kem.KindPublicKey)
	require.NoError(t, err)
	require.Equal(t, pk, got)

	_, err = k.Open(env, kem.KindCiphertext)
	require.ErrorIs(t, err, ErrInvalidParameter)

	other := newKEM(t, Kyber768)
	_, err = other.Open(env, kem.KindPublicKey)
	require.ErrorIs(t, err, ErrInvalidKeyLength)

	short, err := k.Seal(kem.KindPublicKey, pk[:10])
	require.NoError(t, err)
	_, err = k.Open(short, kem.KindPublicKey)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = k.Open(env[:len(env)-1], kem.KindPublicKey)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSerializedProvider(t *testing.T) {
	sym := symmetric.NewSerialized(symmetric.Software())
	k, err := New(MLKEM512, Config{Provider: sym, Logger: logging.Discard()})
	require.NoError(t, err)
	plain := newKEM(t, MLKEM512)

	seed := seedOf(11, SeedSize)
	pk, sk, err := k.DeriveKeyPair(seed)
	require.NoError(t, err)
	pk2, sk2, err := plain.DeriveKeyPair(seed)
	require.NoError(t, err)
	require.Equal(t, pk2, pk)
	require.Equal(t, sk2, sk)

	ct, ss, err := k.Encapsulate(pk)
	require.NoError(t, err)
	got, err := plain.Decapsulate(sk, ct)
	require.NoError(t, err)
	require.Equal(t, ss, got)
	require.NotZero(t, sym.Calls())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	k, err := New(MLKEM768, Config{Logger: logger})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "scheme=ML-KEM-768")

	seed := seedOf(12, SeedSize)
	pk, sk, err := k.DeriveKeyPair(seed)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "key pair generated")
	require.Contains(t, buf.String(), logging.Placeholder())

	ct, _, err := k.Encapsulate(pk)
	require.NoError(t, err)

	buf.Reset()
	_, err = k.Decapsulate(sk, ct)
	require.NoError(t, err)
	ct[0] ^= 1
	_, err = k.Decapsulate(sk, ct)
	require.NoError(t, err)
	require.Empty(t, buf.String(), "decapsulation must not log")

	_, err = k.Decapsulate(sk, ct[1:])
	require.Error(t, err)
	require.Contains(t, buf.String(), "buffer length mismatch")
	require.False(t, strings.Contains(buf.String(), string(sk[:8])))
}

func TestErrorFormatting(t *testing.T) {
	k := newKEM(t, Kyber512)
	_, err := k.Decapsulate(make([]byte, 3), make([]byte, 768))
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "kyber.Decapsulate: "), err.Error())
}

func TestZeroizeBytes(t *testing.T) {
	b := seedOf(1, 64)
	ZeroizeBytes(b)
	require.Equal(t, make([]byte, 64), b)
	ZeroizeBytes(nil)
}

func TestLibraryVersion(t *testing.T) {
	require.NotEmpty(t, LibraryVersion())
	require.Contains(t, FIPS203Revision, "203")
}

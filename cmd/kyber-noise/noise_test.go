package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticekem/kyber-go/internal/ring"
	"github.com/latticekem/kyber-go/pkg/kyber"
)

func TestDecryptionNoiseWithinBound(t *testing.T) {
	for _, ps := range kyber.ParameterSets() {
		t.Run(ps.Name, func(t *testing.T) {
			noise := decryptionNoise(ps, 20, "test")
			require.Len(t, noise, 20*ring.N)
			st := computeStats(noise)
			require.Less(t, st.MaxAbs, float64(ring.Q/4))
			require.InDelta(t, 0, st.Mean, 5)
		})
	}
}

func TestDecryptionNoiseDeterministic(t *testing.T) {
	a := decryptionNoise(kyber.Kyber512, 3, "same")
	b := decryptionNoise(kyber.Kyber512, 3, "same")
	require.Equal(t, a, b)
}

func TestCompressionErrorBound(t *testing.T) {
	for _, d := range []uint8{1, 4, 5, 10, 11} {
		errs := compressionError(d)
		require.Len(t, errs, ring.Q)
		st := computeStats(errs)
		bound := float64(ring.Q)/float64(uint(1)<<(d+1)) + 1
		require.LessOrEqual(t, st.MaxAbs, bound, "d=%d", d)
	}
}

func TestHistogram(t *testing.T) {
	labels, counts := histogram([]float64{-2, -2, 0, 3})
	require.Equal(t, []int{-2, -1, 0, 1, 2, 3}, labels)
	require.Equal(t, []int{2, 0, 1, 0, 0, 1}, counts)
}

func TestRenderPage(t *testing.T) {
	rep := analyze(kyber.MLKEM512, 2, "render")
	require.Len(t, rep.order, 3)
	var buf bytes.Buffer
	require.NoError(t, render(&buf, kyber.MLKEM512, rep))
	html := buf.String()
	require.True(t, strings.Contains(html, "decryption noise"))
	require.True(t, strings.Contains(html, "compression error"))
}

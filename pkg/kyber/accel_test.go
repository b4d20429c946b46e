package kyber_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/internal/testaccel"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
	"github.com/latticekem/kyber-go/pkg/kyber/symmetric"
)

// TestSharedAcceleratorConcurrentUse drives several KEM instances that share
// one serialized accelerator from many goroutines. The engine must never be
// entered twice at once and every exchange must still agree.
func TestSharedAcceleratorConcurrentUse(t *testing.T) {
	accel := testaccel.New()
	shared := symmetric.NewSerialized(accel)

	var kems []*kyber.KEM
	for _, ps := range []kyber.ParameterSet{kyber.Kyber512, kyber.MLKEM768, kyber.MLKEM1024} {
		k, err := kyber.New(ps, kyber.Config{Provider: shared, Materialize: true, Logger: logging.Discard()})
		require.NoError(t, err)
		kems = append(kems, k)
	}

	const numGoroutines = 12

	var wg sync.WaitGroup
	errors := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			k := kems[id%len(kems)]

			pub, priv, err := k.GenerateKey()
			if err != nil {
				errors <- fmt.Errorf("goroutine %d: keygen failed: %v", id, err)
				return
			}
			defer priv.Destroy()

			for j := 0; j < 3; j++ {
				ct, ss, err := pub.Encapsulate()
				if err != nil {
					errors <- fmt.Errorf("goroutine %d: encapsulate failed: %v", id, err)
					return
				}
				got, err := priv.Decapsulate(ct)
				if err != nil {
					errors <- fmt.Errorf("goroutine %d: decapsulate failed: %v", id, err)
					return
				}
				if string(got) != string(ss) {
					errors <- fmt.Errorf("goroutine %d: shared secrets differ", id)
					return
				}
			}
		}(i)
	}

	wg.Wait()
	close(errors)
	for err := range errors {
		t.Error(err)
	}

	require.Zero(t, accel.Overlaps(), "accelerator entered concurrently")
	require.Equal(t, accel.Entries(), shared.Calls())
}

package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "zero size", input: 0, expected: 128},
		{name: "negative size", input: -1, expected: 128},
		{name: "augmented 8x9", input: 72, expected: 128},
		{name: "exactly one class", input: 128, expected: 128},
		{name: "just over one class", input: 129, expected: 256},
		{name: "large size", input: 1000, expected: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetFloat64_BasicFunctionality(t *testing.T) {
	for _, n := range []int{0, 20, 72, 500} {
		buf := GetFloat64(n)
		assert.Len(t, buf, n)
		assert.GreaterOrEqual(t, cap(buf), n)
		if n > 0 {
			buf[n-1] = 42
			assert.InDelta(t, 42.0, buf[n-1], 1e-12)
		}
		PutFloat64(buf)
	}
}

func TestGetFloat64Zeroed(t *testing.T) {
	buf := GetFloat64(72)
	for i := range buf {
		buf[i] = float64(i + 1)
	}
	PutFloat64(buf)

	// Whether or not the pool hands back the same backing array, the
	// zeroed variant must never leak earlier contents.
	z := GetFloat64Zeroed(72)
	for i, v := range z {
		require.Zero(t, v, "index %d", i)
	}
	PutFloat64(z)
}

func TestPutFloat64_Edges(t *testing.T) {
	t.Run("nil buffer", func(t *testing.T) {
		PutFloat64(nil)
	})

	t.Run("foreign capacity is dropped", func(t *testing.T) {
		PutFloat64(make([]float64, 3))
	})
}

func TestConcurrentAccess(t *testing.T) {
	const goroutines = 50
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				buf := GetFloat64Zeroed(72)
				for k := range buf {
					buf[k] = float64(k)
				}
				PutFloat64(buf)
			}
		}()
	}
	wg.Wait()
}

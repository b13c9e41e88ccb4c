package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetMemoryStats(t *testing.T) {
	stats := GetMemoryStats()
	assert.Positive(t, stats.Alloc)
	assert.Positive(t, stats.TotalAlloc)

	str := stats.String()
	assert.Contains(t, str, "Alloc:")
	assert.Contains(t, str, "KB")
}

func TestBenchmarkResult(t *testing.T) {
	result := BenchmarkResult{
		Name:         "test_result",
		Duration:     100 * time.Millisecond,
		Iterations:   10,
		MemoryBefore: MemoryStats{Mallocs: 100},
		MemoryAfter:  MemoryStats{Mallocs: 130},
	}

	assert.Equal(t, 10*time.Millisecond, result.PerOp())
	assert.InDelta(t, 3.0, result.AllocsPerOp(), 1e-12)

	str := result.String()
	assert.Contains(t, str, "test_result")
	assert.Contains(t, str, "10 iterations")
	assert.Contains(t, str, "10ms")
	assert.Contains(t, str, "100ms")

	errorResult := BenchmarkResult{Name: "error_result", Error: errors.New("test error")}
	str = errorResult.String()
	assert.Contains(t, str, "ERROR")
	assert.Contains(t, str, "test error")
	assert.Zero(t, errorResult.PerOp())
}

func TestRun(t *testing.T) {
	calls := 0
	res := Run("count", 5, func() error {
		calls++
		return nil
	})
	assert.NoError(t, res.Error)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, res.Iterations)
	assert.Positive(t, res.Duration)
}

func TestRun_StopsAtError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	res := Run("fail", 10, func() error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, res.Error, boom)
	assert.Equal(t, 2, res.Iterations)
}

func BenchmarkMemoryStatsRetrieval(b *testing.B) {
	for range b.N {
		GetMemoryStats()
	}
}

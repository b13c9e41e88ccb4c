package common

import (
	"fmt"
	"runtime"
	"time"
)

// MemoryStats is the subset of runtime.MemStats a benchmark reports.
type MemoryStats struct {
	Alloc      uint64
	TotalAlloc uint64
	Mallocs    uint64
	NumGC      uint32
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Mallocs:    m.Mallocs,
		NumGC:      m.NumGC,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Mallocs: %d, GC: %d",
		m.Alloc/1024, m.TotalAlloc/1024, m.Mallocs, m.NumGC)
}

// BenchmarkResult holds the outcome of Run.
type BenchmarkResult struct {
	Name         string        `json:"name" yaml:"name"`
	Iterations   int           `json:"iterations" yaml:"iterations"`
	Duration     time.Duration `json:"duration_ns" yaml:"duration_ns"`
	MemoryBefore MemoryStats   `json:"-" yaml:"-"`
	MemoryAfter  MemoryStats   `json:"-" yaml:"-"`
	Error        error         `json:"-" yaml:"-"`
}

// PerOp returns the mean duration of one iteration.
func (br BenchmarkResult) PerOp() time.Duration {
	if br.Iterations <= 0 {
		return 0
	}
	return br.Duration / time.Duration(br.Iterations)
}

// AllocsPerOp returns the mean number of heap allocations per iteration.
func (br BenchmarkResult) AllocsPerOp() float64 {
	if br.Iterations <= 0 {
		return 0
	}
	return float64(br.MemoryAfter.Mallocs-br.MemoryBefore.Mallocs) / float64(br.Iterations)
}

func (br BenchmarkResult) String() string {
	if br.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", br.Name, br.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, allocs/op: %.1f",
		br.Name, br.Iterations, br.PerOp(), br.Duration, br.AllocsPerOp())
}

// Run calls fn iterations times and stops at the first error. The error
// result keeps the iterations completed before it.
func Run(name string, iterations int, fn func() error) BenchmarkResult {
	res := BenchmarkResult{Name: name}
	runtime.GC()
	res.MemoryBefore = GetMemoryStats()

	timer := Start(name)
	for range iterations {
		if err := fn(); err != nil {
			res.Error = err
			break
		}
		res.Iterations++
	}
	res.Duration = timer.Stop()
	res.MemoryAfter = GetMemoryStats()
	return res
}

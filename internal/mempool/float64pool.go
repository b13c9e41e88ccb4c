// Package mempool keeps sized pools of []float64 scratch buffers so that the
// per-frame solves (estimation, inversion) do not allocate on hot paths.
package mempool

import (
	"sync"
)

// classStep is the granularity of the size classes. An 8x9 augmented system
// (72 values) and a 4x5 inversion system (20 values) both land in the first class.
const classStep = 128

var float64Pools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next multiple of classStep.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	r := (n + classStep - 1) / classStep
	return r * classStep
}

func poolFor(cls int) *sync.Pool {
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return nil
	}
	return p
}

// GetFloat64 retrieves a []float64 buffer of length n from the pool.
// Contents are unspecified; callers that do not overwrite every element should
// use GetFloat64Zeroed. The caller must return it via PutFloat64 when done.
func GetFloat64(n int) []float64 {
	cls := sizeClass(n)
	p := poolFor(cls)
	if p == nil {
		buf := make([]float64, cls)
		return buf[:n]
	}
	buf, ok := p.Get().([]float64)
	if !ok || cap(buf) < cls {
		buf = make([]float64, cls)
	}
	return buf[:cap(buf)][:n]
}

// GetFloat64Zeroed is GetFloat64 with the first n elements cleared.
func GetFloat64Zeroed(n int) []float64 {
	buf := GetFloat64(n)
	clear(buf)
	return buf
}

// PutFloat64 returns a buffer to the pool. It is safe to pass a nil slice.
func PutFloat64(buf []float64) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		// Foreign buffer with an odd capacity; let the GC have it.
		return
	}
	p := poolFor(cls)
	if p == nil {
		return
	}
	p.Put(buf[:cap(buf)]) //nolint:staticcheck
}

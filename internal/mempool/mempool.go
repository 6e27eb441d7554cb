// Package mempool provides sized pools for the scratch buffers used on the
// decoding hot path: binary ink masks and row-density profiles.
package mempool

import (
	"sync"
)

var (
	boolPools    sync.Map // key: size class (int), value: *sync.Pool
	float64Pools sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to a multiple of 1024 to reduce pool churn.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	r := (n + step - 1) / step
	return r * step
}

// GetBool retrieves a []bool buffer of length n, zeroed.
// The caller must return it via PutBool when done.
func GetBool(n int) []bool {
	cls := sizeClass(n)
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]bool, n)
	}
	buf, ok := p.Get().([]bool)
	if !ok || cap(buf) < cls {
		buf = make([]bool, cls)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a buffer to the pool. Safe to pass nil.
func PutBool(buf []bool) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetFloat64 retrieves a []float64 buffer of length n, zeroed.
// The caller must return it via PutFloat64 when done.
func GetFloat64(n int) []float64 {
	cls := sizeClass(n)
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]float64, n)
	}
	buf, ok := p.Get().([]float64)
	if !ok || cap(buf) < cls {
		buf = make([]float64, cls)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// PutFloat64 returns a buffer to the pool. Safe to pass nil.
func PutFloat64(buf []float64) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

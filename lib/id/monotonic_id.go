package id

import (
	"strconv"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/benz9527/xavl/lib/infra"
)

const cacheLinePadSize = unsafe.Sizeof(cpu.CacheLinePad{})

// monotonicNonZeroID only increases by step. Zero is skipped on overflow,
// so it is never handed out.
// The counter owns a whole cache line to avoid false sharing between
// generators created next to each other.
type monotonicNonZeroID struct {
	_    [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
	val  uint64
	step uint64
	_    [cacheLinePadSize - 2*unsafe.Sizeof(*new(uint64))]byte
}

func (id *monotonicNonZeroID) next() uint64 {
	var v uint64
	if v = atomic.AddUint64(&id.val, id.step); v == 0 {
		v = atomic.AddUint64(&id.val, id.step)
	}
	return v
}

func newMonotonic(start, step uint64) (Generator, error) {
	if step == 0 {
		return nil, infra.NewErrorStack("[id] monotonic step must be positive")
	}
	src := &monotonicNonZeroID{val: start, step: step}
	return &defaultID{
		number: src.next,
		str: func() string {
			return strconv.FormatUint(src.next(), 10)
		},
	}, nil
}

func MonotonicNonZeroID() (Generator, error) {
	return newMonotonic(0, 1)
}

// MonotonicNonZeroIDFrom generates start+step, start+2*step, ...
func MonotonicNonZeroIDFrom(start, step uint64) (Generator, error) {
	return newMonotonic(start, step)
}

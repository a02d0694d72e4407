package osservices

import (
	"sort"
	"sync"
)

// BytePool is a size-bucketed pool of reusable read buffers, adapted from
// internal/runtime/asyncio.BytePool: same bucketing strategy,
// but sized from a single driver-supplied readbuf option instead of a fixed
// set of network buffer sizes, since each TCP/PTY endpoint picks its own
// buffer size via the `readbuf=<n>` option.
type BytePool struct {
	buckets []bucket
}

type bucket struct {
	size int
	pool sync.Pool
}

// NewBytePool builds a pool with buckets scaled around readbuf: readbuf/2,
// readbuf, and readbuf*2, so a slightly-off caller-requested size still
// reuses a buffer instead of falling back to allocation every time.
func NewBytePool(readbuf int) *BytePool {
	if readbuf <= 0 {
		readbuf = 4096
	}

	sizes := []int{readbuf / 2, readbuf, readbuf * 2}

	set := make(map[int]struct{})

	var uniq []int

	for _, s := range sizes {
		if s <= 0 {
			continue
		}

		if _, ok := set[s]; ok {
			continue
		}

		set[s] = struct{}{}
		uniq = append(uniq, s)
	}

	sort.Ints(uniq)

	buckets := make([]bucket, len(uniq))
	for i, sz := range uniq {
		sz := sz
		buckets[i] = bucket{size: sz, pool: sync.Pool{New: func() any { return make([]byte, sz) }}}
	}

	return &BytePool{buckets: buckets}
}

// Get returns a buffer with capacity >= n.
func (bp *BytePool) Get(n int) []byte {
	for i := range bp.buckets {
		if bp.buckets[i].size >= n {
			buf := bp.buckets[i].pool.Get().([]byte)

			return buf[:n]
		}
	}

	return make([]byte, n)
}

// Put returns a buffer to its bucket if it matches one exactly.
func (bp *BytePool) Put(buf []byte) {
	capn := cap(buf)

	for i := range bp.buckets {
		if bp.buckets[i].size == capn {
			bp.buckets[i].pool.Put(buf[:capn])

			return
		}
	}
}

// Package backing provides the concrete byte storage an Arena is built
// over: spec.md §2's "contiguous byte region." The default is a plain
// Go slice, matching original_source/alloc.c's
// `static uint8_t array[PG_AMOUNT*PG_SIZE]`. On unix build targets an
// anonymous-mmap alternative is available, grounded on and adapted
// from gdbx/mmap/mmap_unix.go, for hosts that want the reserved region
// to genuinely sit outside the Go heap.
package backing

// Store owns a fixed-size byte region and knows how to release it.
type Store interface {
	// Bytes returns the backing region. The returned slice's length
	// equals the size the Store was created with and never changes.
	Bytes() []byte

	// Close releases the region. Closing a slice-backed Store is a
	// no-op; closing an mmap-backed Store unmaps it. Bytes must not be
	// used after Close.
	Close() error
}

// sliceStore is the default Store: a single Go-heap-allocated slice.
type sliceStore struct {
	data []byte
}

// NewSlice creates a Store backed by a freshly allocated, zeroed Go
// slice of the given size.
func NewSlice(size int) Store {
	return &sliceStore{data: make([]byte, size)}
}

func (s *sliceStore) Bytes() []byte { return s.data }
func (s *sliceStore) Close() error  { return nil }

package pgalloc

import "unsafe"

// pageState is the discriminant of a page descriptor: spec.md §3's
// four-state sum type, re-expressed as an enum with state-checked
// accessors (Go has no tagged unions) per Design Notes §9's preferred
// re-expression, and grounded on gdbx/page.go's bit-tagged pageFlags
// discriminant technique adapted to an exclusive enum.
type pageState uint8

const (
	// pageFree is unused, available for multi-block init or a large run.
	pageFree pageState = iota

	// pageMultiBlk hosts many equal-sized blocks of one size class.
	pageMultiBlk

	// pageSingleBlk is the head page of a large allocation's run.
	pageSingleBlk

	// pageSIntermediate is a non-head member of a large allocation's run.
	pageSIntermediate
)

func (s pageState) String() string {
	switch s {
	case pageFree:
		return "Free"
	case pageMultiBlk:
		return "MultiBlk"
	case pageSingleBlk:
		return "SingleBlk"
	case pageSIntermediate:
		return "SIntermediate"
	default:
		return "Invalid"
	}
}

// pageDescriptor is one page's out-of-band bookkeeping record: spec.md
// §3's page descriptor. Only the fields matching State are meaningful;
// Free/SIntermediate pages carry no block information of their own.
type pageDescriptor struct {
	State pageState

	// SizeClass is the per-block payload size on this page.
	// Meaningful when State == pageMultiBlk.
	SizeClass int

	// FirstFreeOffset is the byte offset (relative to the arena base)
	// of the first not-busy header on this page, or -1 if the page is
	// full. Meaningful when State == pageMultiBlk.
	FirstFreeOffset int

	// FreeCount is the number of free blocks on this page.
	// Meaningful when State == pageMultiBlk.
	FreeCount int

	// RunLength is the number of consecutive pages belonging to this
	// one block, including this (head) page.
	// Meaningful when State == pageSingleBlk.
	RunLength int
}

// blockHeader is the HDR-byte prefix carrying a block's payload size
// and busy bit: spec.md §3's block header, laid out to match
// original_source/alloc.h's blk_t field set (payload size + busy).
//
// It is overlaid directly onto arena bytes via unsafe.Pointer, the
// technique gdbx/page.go uses for its own pageHeader
// ((*pageHeader)(unsafe.Pointer(&p.Data[0]))): both fields are
// fixed-width integers so the struct's in-memory layout is exactly its
// two fields back to back, with no compiler-inserted padding.
type blockHeader struct {
	PayloadSize uint32
	busy        uint32 // nonzero means busy; kept unexported, use Busy()/SetBusy
}

// headerSize is sizeof(blockHeader) before alignment; Geometry.hdr()
// rounds it up to the configured Alignment, mirroring
// original_source/alloc.h's ALIGN(sizeof(blk_t)).
var headerSize = int(unsafe.Sizeof(blockHeader{}))

// Busy reports whether the block is currently allocated.
func (h *blockHeader) Busy() bool {
	return h.busy != 0
}

// SetBusy sets the block's busy bit to busy.
func (h *blockHeader) SetBusy(busy bool) {
	if busy {
		h.busy = 1
	} else {
		h.busy = 0
	}
}

// headerAt overlays a *blockHeader onto the arena at the given byte
// offset. The caller must ensure offset+headerSize fits in data.
func headerAt(data []byte, offset int) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(&data[offset]))
}

package pgalloc

import "unsafe"

// The address resolver recovers the owning page and block header for
// an arbitrary user address, underpinning Free and Realloc. Grounded
// on original_source/alloc.c's get_pg_region/get_blk_region, fixing
// the page-range off-by-one spec.md §9(a) flags: the correct rule is
// (addr - arena_base) / PG_SIZE, never a variant that subtracts one on
// a match and so misclassifies the last page.

// addrOffset returns p's byte offset relative to the arena's backing
// array, or ok=false if p is nil or points outside the backing array
// entirely (a foreign allocation, not merely an out-of-range index).
func (a *Arena) addrOffset(p []byte) (int, bool) {
	if p == nil {
		return 0, false
	}
	base := unsafe.Pointer(unsafe.SliceData(a.data))
	ptr := unsafe.Pointer(unsafe.SliceData(p))
	if ptr == nil {
		return 0, false
	}
	diff := uintptr(ptr) - uintptr(base)
	// uintptr subtraction wraps for addresses before base; a huge
	// result here means ptr < base, i.e. foreign.
	if diff >= uintptr(len(a.data)) {
		return 0, false
	}
	return int(diff), true
}

// pageIndexForOffset returns the page owning the given arena-relative
// byte offset: spec.md §4.4's (addr-arena_base)/PG_SIZE.
func (a *Arena) pageIndexForOffset(off int) int {
	return off / a.geo.PgSize
}

// resolved identifies a live block by its owning page and the arena
// offset of its header.
type resolved struct {
	pageIndex int // page holding the header (the head, for large blocks)
	headerOff int
}

// resolveFailure classifies why resolve could not recover a block, so
// callers can raise the right contract-failure error per spec.md §7.
type resolveFailure int

const (
	resolveOK resolveFailure = iota
	resolveNotOwned
	resolveUnresolved
)

// resolve recovers the owning page and header for a user-facing
// address. It reports resolveNotOwned for addresses outside the
// arena, and resolveUnresolved for addresses landing on a Free page or
// falling in a MultiBlk page's dead space (past the last tiled
// header) — none of these are ever handed out as live user pointers.
func (a *Arena) resolve(p []byte) (resolved, resolveFailure) {
	off, ok := a.addrOffset(p)
	if !ok {
		return resolved{}, resolveNotOwned
	}
	pgIndex := a.pageIndexForOffset(off)
	if pgIndex < 0 || pgIndex >= len(a.pages) {
		return resolved{}, resolveNotOwned
	}

	switch a.pages[pgIndex].State {
	case pageFree:
		return resolved{}, resolveUnresolved

	case pageSIntermediate:
		head, ok := a.runHead(pgIndex)
		if !ok {
			return resolved{}, resolveUnresolved
		}
		return a.resolveSingleBlk(head, off)

	case pageSingleBlk:
		return a.resolveSingleBlk(pgIndex, off)

	case pageMultiBlk:
		return a.resolveMultiBlk(pgIndex, off)

	default:
		return resolved{}, resolveUnresolved
	}
}

func (a *Arena) resolveSingleBlk(head, off int) (resolved, resolveFailure) {
	base := head * a.geo.PgSize
	h := headerAt(a.data, base)
	span := base + a.geo.hdr() + int(h.PayloadSize)
	if off < base || off >= span {
		return resolved{}, resolveUnresolved
	}
	return resolved{pageIndex: head, headerOff: base}, resolveOK
}

func (a *Arena) resolveMultiBlk(pgIndex, off int) (resolved, resolveFailure) {
	pg := &a.pages[pgIndex]
	stride := a.geo.hdr() + pg.SizeClass
	found := -1
	a.multiBlkChain(pgIndex, func(hoff int) bool {
		if off >= hoff && off < hoff+stride {
			found = hoff
			return false
		}
		return true
	})
	if found < 0 {
		return resolved{}, resolveUnresolved
	}
	return resolved{pageIndex: pgIndex, headerOff: found}, resolveOK
}

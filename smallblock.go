package pgalloc

// The small-block engine manages pages holding many equal-sized
// blocks: page initialization, first-free discovery, freelist-count
// maintenance, and state transitions. Grounded on
// original_source/alloc.c's init_pg_multiblk/get_freeblk_pg/
// get_nextblk/pg_refresh_blkinfo, cross-checked against
// biscuit/src/mem.Physmem_t's free-list refresh discipline for the
// "recompute from the chain, fail fast on inconsistency" shape.

// blocksPerPage returns how many size-class blocks tile one page,
// per spec.md §4.2's tiling rule: advance by HDR+sizeClass while the
// next header plus its payload still fits.
func (a *Arena) blocksPerPage(sizeClass int) int {
	stride := a.geo.hdr() + sizeClass
	return a.geo.PgSize / stride
}

// findMultiBlkPage scans page descriptors in index order for the
// first MultiBlk page of the given size class with at least one free
// block. Returns -1 if none exists. Grounded on
// original_source/alloc.c's get_pg_class.
func (a *Arena) findMultiBlkPage(sizeClass int) int {
	for i, pg := range a.pages {
		if pg.State == pageMultiBlk && pg.SizeClass == sizeClass && pg.FreeCount > 0 {
			return i
		}
	}
	return -1
}

// findFreePage returns the lowest-indexed Free page, or -1.
// Grounded on original_source/alloc.c's get_pgs_free(1).
func (a *Arena) findFreePage() int {
	for i, pg := range a.pages {
		if pg.State == pageFree {
			return i
		}
	}
	return -1
}

// initMultiBlkPage tiles a Free page into blocks of sizeClass and
// transitions it to MultiBlk, per spec.md §4.2. The caller must have
// already verified the page is Free.
func (a *Arena) initMultiBlkPage(pgIndex, sizeClass int) {
	pageBase := pgIndex * a.geo.PgSize
	stride := a.geo.hdr() + sizeClass
	n := a.blocksPerPage(sizeClass)

	for i := 0; i < n; i++ {
		off := pageBase + i*stride
		h := headerAt(a.data, off)
		h.PayloadSize = uint32(sizeClass)
		h.SetBusy(false)
	}

	a.pages[pgIndex] = pageDescriptor{
		State:           pageMultiBlk,
		SizeClass:       sizeClass,
		FirstFreeOffset: pageBase,
		FreeCount:       n,
	}
}

// multiBlkChain calls visit for every header offset on pgIndex's
// block chain, in address order, stopping early if visit returns
// false. pgIndex must be a MultiBlk page.
func (a *Arena) multiBlkChain(pgIndex int, visit func(off int) bool) {
	pg := &a.pages[pgIndex]
	stride := a.geo.hdr() + pg.SizeClass
	n := a.blocksPerPage(pg.SizeClass)
	pageBase := pgIndex * a.geo.PgSize
	for i := 0; i < n; i++ {
		off := pageBase + i*stride
		if !visit(off) {
			return
		}
	}
}

// refreshMultiBlk recomputes FirstFreeOffset and FreeCount for a
// MultiBlk page by walking its chain, per spec.md §4.2's "refresh
// discipline": every block-level mutation is followed by a full
// recompute so I3 holds. If every block is free, the page returns to
// Free (spec.md §4.2's Free transition; the size class is forgotten).
func (a *Arena) refreshMultiBlk(pgIndex int) {
	pg := &a.pages[pgIndex]
	firstFree := -1
	freeCount := 0
	total := 0

	a.multiBlkChain(pgIndex, func(off int) bool {
		total++
		h := headerAt(a.data, off)
		if !h.Busy() {
			freeCount++
			if firstFree < 0 {
				firstFree = off
			}
		}
		return true
	})

	if freeCount == total {
		a.pages[pgIndex] = pageDescriptor{State: pageFree}
		return
	}

	pg.FirstFreeOffset = firstFree
	pg.FreeCount = freeCount
}

// allocSmall services a multi-block placement: find or create a page
// of sizeClass, claim its first free block, and return the block's
// payload as a slice. Grounded on original_source/alloc.c's mem_alloc
// multi-block path.
func (a *Arena) allocSmall(sizeClass int) ([]byte, error) {
	pgIndex := a.findMultiBlkPage(sizeClass)
	if pgIndex < 0 {
		pgIndex = a.findFreePage()
		if pgIndex < 0 {
			return nil, WrapError(ErrCapacity, errNoFreePage)
		}
		a.initMultiBlkPage(pgIndex, sizeClass)
	}

	pg := &a.pages[pgIndex]
	off := pg.FirstFreeOffset
	if off < 0 {
		// findMultiBlkPage only returns pages with FreeCount > 0; a
		// negative FirstFreeOffset here means I3 (free_count==0 iff
		// first_free_block is nil) has been violated by a prior bug.
		panic("pgalloc: multiblk page reports free blocks but no first-free offset")
	}

	h := headerAt(a.data, off)
	if h.Busy() {
		// I3 violated: the chain's first non-busy header is actually
		// busy. This is an allocator bug, not a caller error.
		panic("pgalloc: first-free block is already busy")
	}
	h.SetBusy(true)

	a.refreshMultiBlk(pgIndex)

	payload := int(h.PayloadSize)
	return a.data[off+a.geo.hdr() : off+a.geo.hdr()+payload], nil
}

// freeSmall clears a block's busy bit and refreshes the owning page's
// free-list bookkeeping. Grounded on original_source/alloc.c's
// mem_free multi-block branch.
func (a *Arena) freeSmall(pgIndex, off int) {
	h := headerAt(a.data, off)
	h.SetBusy(false)
	a.refreshMultiBlk(pgIndex)
}

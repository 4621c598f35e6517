package pgalloc

// The large-block engine manages runs of contiguous pages holding one
// user block each: contiguous-page search, header placement, and
// state transitions for the head and interior pages. Grounded on
// original_source/alloc.c's get_pgs_free/init_pgs_singleblk, with the
// snapshot's absent bounds check and the head/interior split modeled
// after biscuit/src/mem.Physmem_t's head/tail page bookkeeping.

// findFreeRun scans page descriptors in index order for the first run
// of `length` consecutive Free pages. Returns the run's starting index,
// or -1 if none exists (spec.md §4.3's lookup rule, including B4:
// a run longer than the arena always returns -1 here).
func (a *Arena) findFreeRun(length int) int {
	if length > len(a.pages) {
		return -1
	}
	run := 0
	for i, pg := range a.pages {
		if pg.State == pageFree {
			run++
			if run >= length {
				return i - run + 1
			}
		} else {
			run = 0
		}
	}
	return -1
}

// allocLarge services a single-block placement spanning `length`
// contiguous pages. Grounded on original_source/alloc.c's
// init_pgs_singleblk (absent from two of the three kept snapshots;
// reconstructed per spec.md §4.3).
func (a *Arena) allocLarge(length int) ([]byte, error) {
	head := a.findFreeRun(length)
	if head < 0 {
		return nil, WrapError(ErrCapacity, errNoFreeRun)
	}

	payload := length*a.geo.PgSize - a.geo.hdr()
	base := head * a.geo.PgSize
	h := headerAt(a.data, base)
	h.PayloadSize = uint32(payload)
	h.SetBusy(true)

	a.pages[head] = pageDescriptor{State: pageSingleBlk, RunLength: length}
	for i := head + 1; i < head+length; i++ {
		a.pages[i] = pageDescriptor{State: pageSIntermediate}
	}

	return a.data[base+a.geo.hdr() : base+a.geo.hdr()+payload], nil
}

// freeLarge clears the head header's busy bit (for symmetry and
// debuggability, per spec.md §4.3) and returns every page in the run
// to Free. No coalescing or splitting is performed.
func (a *Arena) freeLarge(head int) {
	pg := &a.pages[head]
	base := head * a.geo.PgSize
	h := headerAt(a.data, base)
	h.SetBusy(false)

	length := pg.RunLength
	for i := head; i < head+length; i++ {
		a.pages[i] = pageDescriptor{State: pageFree}
	}
}

// runHead walks descriptors leftward from an SIntermediate page until
// it finds that page's SingleBlk head, per spec.md §4.4's "For interior
// pages of a large block, the head is located by walking descriptors
// leftward until a non-SIntermediate descriptor is found."
func (a *Arena) runHead(pgIndex int) (int, bool) {
	for i := pgIndex; i >= 0; i-- {
		switch a.pages[i].State {
		case pageSIntermediate:
			continue
		case pageSingleBlk:
			if i+a.pages[i].RunLength > pgIndex {
				return i, true
			}
			return -1, false
		default:
			return -1, false
		}
	}
	return -1, false
}

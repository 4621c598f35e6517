package pgalloc

// placementKind distinguishes the two placement decisions the
// classifier can return: spec.md §4.1.
type placementKind uint8

const (
	placeMultiBlk placementKind = iota
	placeSingleBlk
)

// placement is the classifier's verdict for a requested byte count: a
// size class for multi-block placement, or a page-run length for
// single-block placement. Grounded on
// original_source/alloc.c's calc_pg_blk/calc_blk_class.
type placement struct {
	Kind      placementKind
	SizeClass int // valid when Kind == placeMultiBlk
	RunLength int // valid when Kind == placeSingleBlk
}

// classify maps a requested byte count to a placement decision per
// spec.md §4.1. It never consults page availability; a decision here
// can still fail to find space in the engine that acts on it.
func (a *Arena) classify(sz int) placement {
	if sz < 0 {
		sz = 0
	}
	if sz < a.geo.pgHalfSize() {
		return placement{Kind: placeMultiBlk, SizeClass: a.sizeClass(sz)}
	}
	hdr := a.geo.hdr()
	runLength := (sz + hdr + a.geo.PgSize - 1) / a.geo.PgSize
	return placement{Kind: placeSingleBlk, RunLength: runLength}
}

// sizeClass returns the smallest size class able to hold sz bytes.
// Classes double starting from Alignment (spec.md §4.1: "the first
// class is 1 << ALIGNMENT_LOG2, i.e. ALIGNMENT"). sz == 0 yields the
// smallest class (spec.md §9(d)) rather than a zero-sized class.
func (a *Arena) sizeClass(sz int) int {
	c := a.geo.Alignment
	for sz > c {
		c <<= 1
	}
	return c
}

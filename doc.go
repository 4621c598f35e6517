// Package pgalloc is a fixed-capacity general-purpose allocator over a
// statically reserved byte region.
//
// It services requests of widely different sizes from a small, bounded
// pool of fixed-size pages: small requests are packed many-to-a-page by
// size class, large requests span a contiguous run of whole pages. All
// bookkeeping lives in the arena itself or in an adjacent page table;
// no operation ever touches the Go heap for bulk storage once the
// arena is constructed.
//
// pgalloc is single-threaded and non-reentrant: callers that share an
// Arena between goroutines must serialize their own access (see the
// Arena docs). It targets environments where an external system
// allocator is unavailable or undesired, not general application use.
//
// Basic usage:
//
//	a, err := pgalloc.NewArena(pgalloc.Geometry{
//		PgSize:    1024,
//		PgAmount:  8,
//		Alignment: 16,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	blk, err := a.Alloc(128)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	blk, err = a.Realloc(blk, 256)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := a.Free(blk); err != nil {
//		log.Fatal(err)
//	}
package pgalloc

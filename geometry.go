package pgalloc

import "fmt"

// Geometry fixes the compile-time constants spec.md §3 hardwires
// (PG_SIZE, PG_AMOUNT, ALIGNMENT) as constructor arguments instead,
// since a Go package should not hardwire the shape of its caller's
// arena. NewArena validates a Geometry and rejects anything that would
// make the layout arithmetic in classifier.go/page.go ill-defined.
type Geometry struct {
	// PgSize is the number of bytes per page. Must be a power of two.
	PgSize int

	// PgAmount is the number of pages in the arena. Must be positive.
	PgAmount int

	// Alignment is the machine-word alignment used both for the first
	// (smallest) size class and to round the block header up to. Must
	// be a power of two that divides PgSize.
	Alignment int
}

// pgHalfSize is the decision boundary between small (multi-block) and
// large (single-block run) placement: spec.md §3's PG_HALF_SIZE.
func (g Geometry) pgHalfSize() int {
	return g.PgSize / 2
}

// hdr is the in-arena footprint of a block header: spec.md §3's HDR,
// align_up(sizeof(header), Alignment).
func (g Geometry) hdr() int {
	return alignUp(headerSize, g.Alignment)
}

// capacity is the total addressable arena size, PgAmount*PgSize.
func (g Geometry) capacity() int {
	return g.PgAmount * g.PgSize
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (g Geometry) validate() error {
	if !isPowerOfTwo(g.PgSize) {
		return WrapError(ErrConfig, fmt.Errorf("pg size %d is not a power of two", g.PgSize))
	}
	if g.PgAmount <= 0 {
		return WrapError(ErrConfig, fmt.Errorf("pg amount %d must be positive", g.PgAmount))
	}
	if !isPowerOfTwo(g.Alignment) {
		return WrapError(ErrConfig, fmt.Errorf("alignment %d is not a power of two", g.Alignment))
	}
	if g.PgSize%g.Alignment != 0 {
		return WrapError(ErrConfig, fmt.Errorf("alignment %d does not divide pg size %d", g.Alignment, g.PgSize))
	}
	if g.hdr() >= g.pgHalfSize() {
		return WrapError(ErrConfig, fmt.Errorf("header size %d leaves no room below half-page boundary %d", g.hdr(), g.pgHalfSize()))
	}
	return nil
}

// ordInt is satisfied by the integer types alignUp/alignDown operate
// on. Grounded on biscuit/src/util.Int, the constraint backing
// Roundup/Rounddown in the teacher's kernel memory-management helpers.
type ordInt interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~uintptr
}

// alignDown rounds v down to the nearest multiple of b.
// Grounded on biscuit/src/util.Rounddown.
func alignDown[T ordInt](v, b T) T {
	return v - (v % b)
}

// alignUp rounds v up to the nearest multiple of b.
// Grounded on biscuit/src/util.Roundup.
func alignUp[T ordInt](v, b T) T {
	return alignDown(v+b-1, b)
}

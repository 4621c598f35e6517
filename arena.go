package pgalloc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dpeckett/pgalloc/backing"
	"github.com/dpeckett/pgalloc/logx"
)

var (
	errNoFreePage = errors.New("no free page available")
	errNoFreeRun  = errors.New("no contiguous free run of the requested length")
)

// Arena is a fixed-capacity, single-threaded allocator over one
// reserved byte region: spec.md §2's two static structures (arena,
// page table) bundled as a single owned value threaded through every
// call, per Design Notes §9 ("a single owned value constructed once at
// program entry... rather than true global mutable state").
type Arena struct {
	id    uuid.UUID
	geo   Geometry
	store backing.Store
	data  []byte
	pages []pageDescriptor

	// mu serializes Arena's own methods. The allocator itself grants no
	// concurrency guarantees (spec.md §5 Non-goals); mu exists only so
	// that concurrent or reentrant misuse is observable rather than
	// silently corrupting the page table. See §5 of SPEC_FULL.md.
	mu sync.Mutex

	log logx.Logger
}

// Option configures a new Arena. See WithLogger and WithBacking.
type Option func(*arenaConfig)

type arenaConfig struct {
	log   logx.Logger
	store backing.Store
}

// WithLogger overrides the default stderr Logger.
func WithLogger(l logx.Logger) Option {
	return func(c *arenaConfig) { c.log = l }
}

// WithBacking overrides the default plain-slice backing Store, e.g.
// with backing.NewMmap's anonymous mapping.
func WithBacking(s backing.Store) Option {
	return func(c *arenaConfig) { c.store = s }
}

// NewArena validates geo and constructs a ready-to-use Arena with
// every page Free. This folds spec.md §6's separate init() into
// construction: there is no analogous "forgot to call init()" bug
// class in this API, since an *Arena cannot exist uninitialized.
func NewArena(geo Geometry, opts ...Option) (*Arena, error) {
	if err := geo.validate(); err != nil {
		return nil, err
	}

	cfg := arenaConfig{log: logx.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = backing.NewSlice(geo.capacity())
	}

	data := cfg.store.Bytes()
	if len(data) != geo.capacity() {
		return nil, WrapError(ErrConfig, fmt.Errorf("backing store size %d does not match arena capacity %d", len(data), geo.capacity()))
	}

	return &Arena{
		id:    uuid.New(),
		geo:   geo,
		store: cfg.store,
		data:  data,
		pages: make([]pageDescriptor, geo.PgAmount),
		log:   cfg.log,
	}, nil
}

// ID returns this arena's identity, stamped at construction. It has no
// bearing on allocator semantics; it exists so diagnostics from
// multiple arenas in one process (e.g. parallel tests) can be told
// apart, grounded on tomyedwab-yesterday's use of google/uuid for
// entity identity.
func (a *Arena) ID() uuid.UUID {
	return a.id
}

// Close releases the arena's backing store. An Arena must not be used
// after Close.
func (a *Arena) Close() error {
	return a.store.Close()
}

// lockGuard serializes Arena's methods and upgrades silent
// non-reentrancy violations into a logged warning, per §5 of
// SPEC_FULL.md. It returns an unlock function to defer.
func (a *Arena) lockGuard() func() {
	if !a.mu.TryLock() {
		a.log.Warn("arena %s: concurrent or reentrant call detected; pgalloc is single-threaded and non-reentrant", a.id)
		a.mu.Lock()
	}
	return a.mu.Unlock
}

// Alloc returns a block of sz usable bytes, or a capacity error if the
// arena cannot satisfy the request. sz == 0 succeeds and returns the
// smallest multi-block class's worth of address space (spec.md §9(d)).
func (a *Arena) Alloc(sz int) ([]byte, error) {
	defer a.lockGuard()()
	return a.allocLocked(sz)
}

// allocLocked is Alloc's body, split out so Realloc can call it while
// already holding the lock.
func (a *Arena) allocLocked(sz int) ([]byte, error) {
	pl := a.classify(sz)
	var (
		p   []byte
		err error
	)
	switch pl.Kind {
	case placeMultiBlk:
		p, err = a.allocSmall(pl.SizeClass)
	case placeSingleBlk:
		p, err = a.allocLarge(pl.RunLength)
	}
	if err != nil {
		return nil, err
	}
	return p[:sz], nil
}

// Free releases the block owning p. Freeing a foreign pointer or an
// already-free block is a contract failure (spec.md §7): it is
// reported through the Logger's Err channel and returns a non-nil
// error, but leaves the arena's state unchanged.
func (a *Arena) Free(p []byte) error {
	defer a.lockGuard()()
	return a.freeLocked(p)
}

func (a *Arena) freeLocked(p []byte) error {
	r, fail := a.resolve(p)
	switch fail {
	case resolveNotOwned:
		a.log.Err("arena %s: free() of pointer not owned by this arena", a.id)
		return WrapError(ErrNotOwned, nil)
	case resolveUnresolved:
		a.log.Err("arena %s: free() of pointer that does not resolve to a live block", a.id)
		return WrapError(ErrUnresolved, nil)
	}

	h := headerAt(a.data, r.headerOff)
	if !h.Busy() {
		a.log.Err("arena %s: double free at page %d offset %d", a.id, r.pageIndex, r.headerOff)
		return WrapError(ErrDoubleFree, nil)
	}

	switch a.pages[r.pageIndex].State {
	case pageMultiBlk:
		a.freeSmall(r.pageIndex, r.headerOff)
	case pageSingleBlk:
		a.freeLarge(r.pageIndex)
	default:
		// resolve() only ever returns pageMultiBlk or pageSingleBlk
		// heads; anything else means I1 has been violated.
		panic("pgalloc: resolved page is neither MultiBlk nor SingleBlk head")
	}
	return nil
}

// Realloc returns a block whose first min(oldPayload, sz) bytes equal
// p's current contents, resizing as needed per spec.md §4.5. If p's
// current payload already holds sz bytes, p is returned unchanged. On
// capacity failure, p remains valid and unchanged.
func (a *Arena) Realloc(p []byte, sz int) ([]byte, error) {
	defer a.lockGuard()()

	r, fail := a.resolve(p)
	switch fail {
	case resolveNotOwned:
		a.log.Err("arena %s: realloc() of pointer not owned by this arena", a.id)
		return nil, WrapError(ErrNotOwned, nil)
	case resolveUnresolved:
		a.log.Err("arena %s: realloc() of pointer that does not resolve to a live block", a.id)
		return nil, WrapError(ErrUnresolved, nil)
	}

	h := headerAt(a.data, r.headerOff)
	if !h.Busy() {
		a.log.Err("arena %s: realloc() of a free block at page %d offset %d", a.id, r.pageIndex, r.headerOff)
		return nil, WrapError(ErrDoubleFree, nil)
	}

	oldPayload := int(h.PayloadSize)
	if oldPayload >= sz {
		// Shrink / in-place-keep case: spec.md §4.5. Note the returned
		// slice is re-sliced to the *new* requested length even though
		// the header's payload_size is untouched, matching spec.md's
		// "the same pointer unchanged" (the class/run is not shrunk).
		base := r.headerOff + a.geo.hdr()
		return a.data[base : base+sz], nil
	}

	newBlk, err := a.allocLocked(sz)
	if err != nil {
		// Original block remains intact and valid (spec.md §4.5).
		return nil, err
	}

	oldBase := r.headerOff + a.geo.hdr()
	copy(newBlk, a.data[oldBase:oldBase+oldPayload])

	if err := a.freeLocked(p); err != nil {
		// Freeing our own just-resolved block cannot fail; if it does,
		// the page table is already inconsistent.
		panic(fmt.Sprintf("pgalloc: freeing old block during realloc failed: %v", err))
	}

	return newBlk, nil
}

// ArenaStats summarizes the page table, useful to diagnostics and the
// harness without requiring callers to walk pages themselves.
type ArenaStats struct {
	FreePages          int
	MultiBlkPages      int
	SingleBlkHeadPages int
	IntermediatePages  int
	LiveBlocks         int
	LiveBytes          int
}

// Stats walks the page table once and summarizes it.
func (a *Arena) Stats() ArenaStats {
	defer a.lockGuard()()

	var st ArenaStats
	for i, pg := range a.pages {
		switch pg.State {
		case pageFree:
			st.FreePages++
		case pageMultiBlk:
			st.MultiBlkPages++
			a.multiBlkChain(i, func(off int) bool {
				h := headerAt(a.data, off)
				if h.Busy() {
					st.LiveBlocks++
					st.LiveBytes += int(h.PayloadSize)
				}
				return true
			})
		case pageSingleBlk:
			st.SingleBlkHeadPages++
			h := headerAt(a.data, i*a.geo.PgSize)
			if h.Busy() {
				st.LiveBlocks++
				st.LiveBytes += int(h.PayloadSize)
			}
		case pageSIntermediate:
			st.IntermediatePages++
		}
	}
	return st
}

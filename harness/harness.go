package harness

import (
	"fmt"
	"hash/crc32"
	"math/rand/v2"

	"github.com/dpeckett/pgalloc"
	"github.com/dpeckett/pgalloc/logx"
)

// block tracks one harness-owned allocation, mirroring
// original_source/main.c's struct block_alloc_t.
type block struct {
	addr   []byte
	valid  bool
	size   int
	chksum uint32
}

// Harness drives an Arena through randomized or scripted
// alloc/realloc/free sequences and verifies data survives each
// realloc via CRC-32, mirroring original_source/main.c's
// specific_test and rand_test.
type Harness struct {
	arena  *pgalloc.Arena
	blks   []block
	log    logx.Logger
	replay *ReplayLog // optional, nil disables replay recording
	seq    uint64
}

// New creates a Harness tracking nblocks independent allocations
// against a.
func New(a *pgalloc.Arena, nblocks int, log logx.Logger, replay *ReplayLog) *Harness {
	if log == nil {
		log = logx.Nop
	}
	return &Harness{
		arena:  a,
		blks:   make([]block, nblocks),
		log:    log,
		replay: replay,
	}
}

func (h *Harness) record(op string, idx, size int) {
	if h.replay == nil {
		return
	}
	rec := CallRecord{ArenaID: h.arena.ID().String(), Op: op, BlockIdx: idx, Size: size}
	if err := h.replay.Append(rec); err != nil {
		h.log.Warn("harness: replay log append failed: %v", err)
	}
}

// AllocBlocks allocates size bytes into every currently-invalid
// tracked slot, mirroring main.c's alloc_blks.
func (h *Harness) AllocBlocks(size int) {
	for i := range h.blks {
		if h.blks[i].valid {
			continue
		}
		addr, err := h.arena.Alloc(size)
		h.record("alloc", i, size)
		if err != nil {
			h.blks[i].valid = false
			continue
		}
		h.blks[i] = block{addr: addr, size: size, valid: true}
	}
}

// FreeBlock releases the tracked block at idx, mirroring
// main.c's free_blk.
func (h *Harness) FreeBlock(idx int) error {
	if !h.blks[idx].valid {
		return nil
	}
	h.record("free", idx, 0)
	if err := h.arena.Free(h.blks[idx].addr); err != nil {
		return err
	}
	h.blks[idx].valid = false
	return nil
}

// ReallocBlock resizes the tracked block at idx to newSize, checking
// that the bytes preserved across the resize still match the
// pre-realloc checksum, mirroring main.c's realloc_blk.
func (h *Harness) ReallocBlock(idx, newSize int) error {
	if !h.blks[idx].valid {
		return nil
	}
	sizeBefore := h.blks[idx].size

	h.record("realloc", idx, newSize)
	addr, err := h.arena.Realloc(h.blks[idx].addr, newSize)
	if err != nil {
		h.log.Info("not enough memory to reallocate blk=%d", idx)
		return nil
	}

	if crc32.ChecksumIEEE(addr[:sizeBefore]) != h.blks[idx].chksum {
		h.log.Err("CRC err, blk=%d", idx)
		return fmt.Errorf("harness: CRC mismatch after realloc of block %d", idx)
	}

	h.blks[idx].addr = addr
	h.blks[idx].size = newSize
	h.blks[idx].chksum = crc32.ChecksumIEEE(addr)
	return nil
}

// CalcAllChecksums recomputes each valid block's checksum over its
// current contents, mirroring main.c's calc_allchksums.
func (h *Harness) CalcAllChecksums() {
	for i := range h.blks {
		if h.blks[i].valid {
			h.blks[i].chksum = crc32.ChecksumIEEE(h.blks[i].addr)
		} else {
			h.blks[i].chksum = 0
		}
	}
}

// SetRandValues fills a valid block with random bytes, mirroring
// main.c's set_rand_values (which used a custom RNG; this uses
// math/rand/v2, seeded by the caller via RunRandomized for
// reproducibility).
func (h *Harness) SetRandValues(rng *rand.Rand, idx int) {
	if !h.blks[idx].valid {
		return
	}
	for i := range h.blks[idx].addr {
		h.blks[idx].addr[i] = byte(rng.IntN(256))
	}
}

// ValidBlockCount returns how many tracked blocks currently hold a
// live allocation, mirroring main.c's get_valid_block_amount.
func (h *Harness) ValidBlockCount() int {
	n := 0
	for _, b := range h.blks {
		if b.valid {
			n++
		}
	}
	return n
}

// FreeAll releases every currently-valid tracked block, mirroring
// main.c's free_all_blks.
func (h *Harness) FreeAll() {
	for i := range h.blks {
		_ = h.FreeBlock(i)
	}
}

// RunDeterministic reproduces original_source/main.c's specific_test:
// allocate every block at size, checksum them, free blocks 3-5 (if
// present), realloc blocks 1, 2, and 0 to reallocSize, then free
// everything.
func (h *Harness) RunDeterministic(size, reallocSize int) error {
	h.AllocBlocks(size)
	h.CalcAllChecksums()
	if h.ValidBlockCount() == 0 {
		h.log.Err("0 valid blocks, no blocks allocated!")
	}

	for _, idx := range []int{3, 4, 5} {
		if idx < len(h.blks) {
			if err := h.FreeBlock(idx); err != nil {
				return err
			}
		}
	}

	for _, idx := range []int{1, 2, 0} {
		if idx < len(h.blks) {
			if err := h.ReallocBlock(idx, reallocSize); err != nil {
				return err
			}
		}
	}

	h.FreeAll()
	return nil
}

// RunRandomized reproduces original_source/main.c's rand_test: fill
// every block with random bytes, free a random subset, then issue as
// many reallocs as there are remaining valid blocks, each on a
// randomly chosen valid block (the same block may be picked more than
// once, so some blocks may not be reallocated), all seeded for
// reproducibility.
func (h *Harness) RunRandomized(seed uint64, size, reallocSize int) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))

	h.AllocBlocks(size)
	for i := range h.blks {
		h.SetRandValues(rng, i)
	}
	h.CalcAllChecksums()
	if h.ValidBlockCount() == 0 {
		h.log.Err("0 valid blocks, no blocks allocated!")
	}

	toFree := 2
	if n := h.ValidBlockCount(); n > toFree {
		toFree = 2 + rng.IntN(n-1)
	}
	freed := 0
	for freed < toFree && h.ValidBlockCount() > 0 {
		idx := rng.IntN(len(h.blks))
		if h.blks[idx].valid {
			if err := h.FreeBlock(idx); err != nil {
				return err
			}
			freed++
		}
	}

	remaining := h.ValidBlockCount()
	done := 0
	attempts := 0
	for done < remaining && attempts < remaining*len(h.blks)+16 {
		attempts++
		idx := rng.IntN(len(h.blks))
		if h.blks[idx].valid {
			if err := h.ReallocBlock(idx, reallocSize); err != nil {
				return err
			}
			done++
		}
	}

	h.FreeAll()
	return nil
}

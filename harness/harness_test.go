package harness

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/dpeckett/pgalloc"
	"github.com/dpeckett/pgalloc/logx"
)

func newTestArena(t *testing.T) *pgalloc.Arena {
	t.Helper()
	a, err := pgalloc.NewArena(pgalloc.Geometry{PgSize: 1024, PgAmount: 16, Alignment: 16}, pgalloc.WithLogger(logx.Nop))
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	return a
}

func TestRunDeterministicSucceeds(t *testing.T) {
	a := newTestArena(t)
	h := New(a, 6, logx.Nop, nil)

	if err := h.RunDeterministic(32, 64); err != nil {
		t.Fatalf("RunDeterministic: %v", err)
	}
	if n := h.ValidBlockCount(); n != 0 {
		t.Fatalf("ValidBlockCount after RunDeterministic = %d, want 0", n)
	}
}

func TestRunRandomizedSucceeds(t *testing.T) {
	a := newTestArena(t)
	h := New(a, 8, logx.Nop, nil)

	if err := h.RunRandomized(42, 24, 48); err != nil {
		t.Fatalf("RunRandomized: %v", err)
	}
	if n := h.ValidBlockCount(); n != 0 {
		t.Fatalf("ValidBlockCount after RunRandomized = %d, want 0", n)
	}
}

func TestRunRandomizedIsReproducibleForAGivenSeed(t *testing.T) {
	dir := t.TempDir()
	log1, err := OpenReplayLog(filepath.Join(dir, "run1.db"))
	if err != nil {
		t.Fatalf("OpenReplayLog (run 1): %v", err)
	}
	defer log1.Close()
	log2, err := OpenReplayLog(filepath.Join(dir, "run2.db"))
	if err != nil {
		t.Fatalf("OpenReplayLog (run 2): %v", err)
	}
	defer log2.Close()

	a1 := newTestArena(t)
	h1 := New(a1, 8, logx.Nop, log1)
	if err := h1.RunRandomized(7, 24, 48); err != nil {
		t.Fatalf("RunRandomized (run 1): %v", err)
	}
	st1 := a1.Stats()

	a2 := newTestArena(t)
	h2 := New(a2, 8, logx.Nop, log2)
	if err := h2.RunRandomized(7, 24, 48); err != nil {
		t.Fatalf("RunRandomized (run 2): %v", err)
	}
	st2 := a2.Stats()

	if st1 != st2 {
		t.Fatalf("same-seed runs diverged: %+v vs %+v", st1, st2)
	}

	// Both runs must have issued the same calls in the same order.
	recs1, err := log1.All()
	if err != nil {
		t.Fatalf("All (run 1): %v", err)
	}
	recs2, err := log2.All()
	if err != nil {
		t.Fatalf("All (run 2): %v", err)
	}
	if len(recs1) != len(recs2) {
		t.Fatalf("same-seed runs recorded %d vs %d calls", len(recs1), len(recs2))
	}
	for i := range recs1 {
		r1, r2 := recs1[i], recs2[i]
		if r1.Op != r2.Op || r1.BlockIdx != r2.BlockIdx || r1.Size != r2.Size {
			t.Fatalf("call %d diverged: %+v vs %+v", i, r1, r2)
		}
	}
}

func TestAllocFreeRealloc(t *testing.T) {
	a := newTestArena(t)
	h := New(a, 1, logx.Nop, nil)

	h.AllocBlocks(16)
	if h.ValidBlockCount() != 1 {
		t.Fatalf("ValidBlockCount = %d, want 1", h.ValidBlockCount())
	}

	rng := rand.New(rand.NewPCG(1, 2))
	h.SetRandValues(rng, 0)
	h.CalcAllChecksums()

	if err := h.ReallocBlock(0, 64); err != nil {
		t.Fatalf("ReallocBlock: %v", err)
	}

	if err := h.FreeBlock(0); err != nil {
		t.Fatalf("FreeBlock: %v", err)
	}
	if h.ValidBlockCount() != 0 {
		t.Fatalf("ValidBlockCount after free = %d, want 0", h.ValidBlockCount())
	}
}

package pgalloc

import (
	"testing"

	"github.com/dpeckett/pgalloc/logx"
)

func testArena(t *testing.T) *Arena {
	t.Helper()
	a, err := NewArena(Geometry{PgSize: 1024, PgAmount: 8, Alignment: 16}, WithLogger(logx.Nop))
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	return a
}

func TestClassifySmall(t *testing.T) {
	a := testArena(t)

	cases := []struct {
		sz   int
		want int
	}{
		{0, 16},
		{1, 16},
		{16, 16},
		{17, 32},
		{100, 128},
		{511, 512},
	}
	for _, c := range cases {
		pl := a.classify(c.sz)
		if pl.Kind != placeMultiBlk {
			t.Errorf("classify(%d).Kind = %v, want placeMultiBlk", c.sz, pl.Kind)
			continue
		}
		if pl.SizeClass != c.want {
			t.Errorf("classify(%d).SizeClass = %d, want %d", c.sz, pl.SizeClass, c.want)
		}
	}
}

func TestClassifyLarge(t *testing.T) {
	a := testArena(t)

	pl := a.classify(a.geo.pgHalfSize())
	if pl.Kind != placeSingleBlk {
		t.Fatalf("classify(pgHalfSize).Kind = %v, want placeSingleBlk", pl.Kind)
	}
	if pl.RunLength < 1 {
		t.Fatalf("classify(pgHalfSize).RunLength = %d, want >= 1", pl.RunLength)
	}

	// A request spanning several pages should report a run length
	// proportional to its size.
	pl2 := a.classify(a.geo.PgSize*3 + 1)
	if pl2.Kind != placeSingleBlk {
		t.Fatalf("classify(3 pages + 1).Kind = %v, want placeSingleBlk", pl2.Kind)
	}
	if pl2.RunLength != 4 {
		t.Fatalf("classify(3 pages + 1).RunLength = %d, want 4", pl2.RunLength)
	}
}

func TestClassifyNegativeSizeClampsToZero(t *testing.T) {
	a := testArena(t)
	pl := a.classify(-5)
	if pl.Kind != placeMultiBlk || pl.SizeClass != a.geo.Alignment {
		t.Fatalf("classify(-5) = %+v, want smallest multi-block class", pl)
	}
}

func TestSizeClassDoublesFromAlignment(t *testing.T) {
	a := testArena(t)
	got := a.sizeClass(33)
	if got != 64 {
		t.Errorf("sizeClass(33) = %d, want 64", got)
	}
}

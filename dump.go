package pgalloc

import (
	"fmt"
	"io"
)

// DefaultDumpColumns is the character-grid width spec.md §6 suggests
// ("e.g. 120 columns"). original_source/alloc.c's mem_dump used a
// fixed 80 (`chperpg`); this module generalizes it to a parameter
// (see SPEC_FULL.md §10) while keeping the exact four-symbol alphabet.
const DefaultDumpColumns = 120

// Dump writes one line per page to w, in the format spec.md §6
// specifies: "[index] addr=<hex>\t%<payload>%", where payload is a
// fixed-width character strip with one character per equal-sized
// arena slice: space for Free, '#' for occupied, '-' for a free
// small-block slot, '!' at the first column of each new small block,
// and '#' solid across a large allocation's interior pages.
func (a *Arena) Dump(w io.Writer) error {
	return a.DumpColumns(w, DefaultDumpColumns)
}

// DumpColumns is Dump with an explicit column width.
func (a *Arena) DumpColumns(w io.Writer, columns int) error {
	defer a.lockGuard()()

	if columns <= 0 {
		columns = DefaultDumpColumns
	}

	for i := range a.pages {
		pageBase := i * a.geo.PgSize
		if _, err := fmt.Fprintf(w, "[%d] addr=0x%04x\t%%", i, pageBase); err != nil {
			return err
		}
		prevOff := -1
		for col := 0; col < columns; col++ {
			off := pageBase + col*a.geo.PgSize/columns
			ch := a.dumpChar(i, off, prevOff)
			prevOff = off
			if _, err := io.WriteString(w, string(ch)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "%\n"); err != nil {
			return err
		}
	}
	return nil
}

// dumpChar renders the single character representing the arena byte
// at off, which the caller has already established lies on page
// pgIndex. prevOff is the offset sampled by the previous column (-1
// for the first column); a column is the first of its small block when
// prevOff lies before that block's header.
func (a *Arena) dumpChar(pgIndex, off, prevOff int) byte {
	pg := &a.pages[pgIndex]
	switch pg.State {
	case pageFree:
		return ' '

	case pageSingleBlk, pageSIntermediate:
		// The payload of a large allocation is one contiguous run of
		// bytes spanning the head page and every interior page; render
		// it solid regardless of which physical page off lands on.
		return '#'

	case pageMultiBlk:
		stride := a.geo.hdr() + pg.SizeClass
		pageBase := pgIndex * a.geo.PgSize
		n := a.blocksPerPage(pg.SizeClass)
		relOff := off - pageBase
		blockIdx := relOff / stride
		if blockIdx >= n {
			// Dead space past the last tiled header.
			return ' '
		}
		blockStart := blockIdx * stride
		if prevOff < pageBase+blockStart {
			return '!'
		}
		h := headerAt(a.data, pageBase+blockStart)
		if h.Busy() {
			return '#'
		}
		return '-'

	default:
		return '?'
	}
}

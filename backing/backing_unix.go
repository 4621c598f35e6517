//go:build unix

package backing

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapStore is an arena backed by an anonymous memory mapping rather
// than a Go-heap slice. Grounded on, and adapted from,
// gdbx/mmap/mmap_unix.go's unix.Mmap call: the teacher maps a file
// descriptor; here there is no file, only a fixed-size private, zeroed
// region (MAP_ANON|MAP_PRIVATE), which is the closer match to spec.md
// §1's "statically reserved byte region" on a host with no backing
// file at all.
type mmapStore struct {
	data []byte
}

// NewMmap creates a Store backed by an anonymous mmap of the given
// size. The region is zeroed on creation, matches the plain
// []byte-backed Store's contract, and is released on Close.
func NewMmap(size int) (Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("backing: invalid mmap size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap: %w", err)
	}
	return &mmapStore{data: data}, nil
}

func (m *mmapStore) Bytes() []byte { return m.data }

func (m *mmapStore) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

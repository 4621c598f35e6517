//go:build unix

package backing

import "testing"

func TestMmapStore(t *testing.T) {
	s, err := NewMmap(4096)
	if err != nil {
		t.Fatalf("NewMmap: %v", err)
	}
	defer s.Close()

	b := s.Bytes()
	if len(b) != 4096 {
		t.Fatalf("len(Bytes()) = %d, want 4096", len(b))
	}
	b[0] = 0xFF
	if s.Bytes()[0] != 0xFF {
		t.Fatal("mutation through Bytes() did not persist")
	}
}

func TestMmapStoreRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewMmap(0); err == nil {
		t.Fatal("NewMmap(0) succeeded, want an error")
	}
}

package backing

import "testing"

func TestSliceStore(t *testing.T) {
	s := NewSlice(64)
	if len(s.Bytes()) != 64 {
		t.Fatalf("len(Bytes()) = %d, want 64", len(s.Bytes()))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSliceStoreIsZeroed(t *testing.T) {
	s := NewSlice(16)
	for i, b := range s.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

package pgalloc

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapErrorUnwraps(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := WrapError(ErrCapacity, inner)

	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, want true")
	}
	if Code(err) != ErrCapacity {
		t.Fatalf("Code(err) = %v, want ErrCapacity", Code(err))
	}
}

func TestCodeOnNonPgallocError(t *testing.T) {
	if Code(fmt.Errorf("plain")) != 0 {
		t.Fatalf("Code(plain error) != 0")
	}
	if Code(nil) != 0 {
		t.Fatalf("Code(nil) != 0")
	}
}

func TestIsContractViolationCoversExpectedCodes(t *testing.T) {
	for _, code := range []ErrorCode{ErrNotOwned, ErrDoubleFree, ErrUnresolved} {
		if !IsContractViolation(NewError(code)) {
			t.Errorf("IsContractViolation(%v) = false, want true", code)
		}
	}
	if IsContractViolation(NewError(ErrCapacity)) {
		t.Error("IsContractViolation(ErrCapacity) = true, want false")
	}
	if IsContractViolation(NewError(ErrConfig)) {
		t.Error("IsContractViolation(ErrConfig) = true, want false")
	}
}

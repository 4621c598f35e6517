//go:build !unix

package backing

import "fmt"

// NewMmap is unavailable on non-unix build targets; callers should
// fall back to NewSlice there.
func NewMmap(size int) (Store, error) {
	return nil, fmt.Errorf("backing: anonymous mmap not supported on this platform")
}

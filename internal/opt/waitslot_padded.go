//go:build !spinx_disable_padding

package opt

import (
	"unsafe"
)

// WaitSlot_ is a per-waiter spin flag padded out to its own cache line.
//
// Array-based locks hand every participant a private slot to spin on;
// without padding, neighbouring slots share a line and every hand-off
// invalidates the lines of unrelated waiters. Padding trades memory
// (one line per potential participant) for isolation.
//
// Disable with: go build -tags=spinx_disable_padding
type WaitSlot_ struct {
	F uint32 // flag value, accessed atomically
	_ [(CacheLineSize_ - unsafe.Sizeof(struct {
		F uint32
	}{})%CacheLineSize_) % CacheLineSize_]byte
}

//go:build spinx_disable_padding

package opt

// WaitSlot_ is a per-waiter spin flag with padding force-disabled via
// the spinx_disable_padding build tag. Accepts the false-sharing risk
// in exchange for an O(maxThreads) footprint of 4 bytes per slot.
// Use: go build -tags=spinx_disable_padding
type WaitSlot_ struct {
	F uint32 // flag value, accessed atomically
}

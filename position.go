package coreemu

// Position is a node's canvas location. Z is optional: nil means the node
// has no elevation set.
type Position struct {
	X, Y float64
	Z    *float64
}

// LinkParams are the per-direction network-impairment parameters applied
// to an interface: bandwidth, delay, jitter, loss, duplication and burst.
// A zero value means "no impairment configured" for that field.
type LinkParams struct {
	BandwidthBPS uint64
	Delay        int64 // microseconds, matching the original wire units
	Jitter       int64 // microseconds
	Loss         float64
	Duplicate    int
	Burst        uint64
}

// IsZero reports whether no impairment has been configured.
func (p LinkParams) IsZero() bool {
	return p == LinkParams{}
}

package ipam

import (
	"fmt"
	"net/netip"
)

// NthAddr returns the address n hosts past prefix's network address,
// e.g. NthAddr(10.0.3.0/24, 5) is 10.0.3.5. Used to derive a node's
// control-net address deterministically from its node id.
func NthAddr(prefix netip.Prefix, n uint32) (netip.Addr, error) {
	prefix = prefix.Masked()
	if !prefix.Addr().Is4() {
		return netip.Addr{}, fmt.Errorf("only ipv4 prefixes are supported")
	}
	start, end, err := PrefixRange4(prefix)
	if err != nil {
		return netip.Addr{}, err
	}
	candidate := start + n
	if candidate > end {
		return netip.Addr{}, fmt.Errorf("offset %d exceeds prefix %s", n, prefix)
	}
	return Uint32ToAddr(candidate), nil
}

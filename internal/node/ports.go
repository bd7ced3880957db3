package node

import (
	"context"
	"net/netip"

	"coreemu"
)

// Runtime is what the core requires from an external node implementation:
// a fixed, opaque capability set. The core never inspects how shutdown,
// command execution or tunnel adoption are actually carried out — that is
// entirely the injected Runtime's concern. A nil Runtime is valid: the
// node behaves as a pure bookkeeping record with no external side effects,
// which is what most unit tests in this module use.
type Runtime interface {
	// Shutdown tears down whatever the runtime created for this node.
	Shutdown(ctx context.Context) error
	// Cmd executes command inside the node's namespace. Host-class only.
	Cmd(ctx context.Context, command string, wait bool) (string, error)
	// AdoptTunnel hands ifindex, already carrying mac/addrs, to a
	// physical-class node as a new local interface. Physical-class only.
	AdoptTunnel(ctx context.Context, ifindex int, mac string, addrs []netip.Prefix) error
}

// NoopRuntime implements Runtime with no side effects. Used as the
// default when a node is created without an injected Runtime.
type NoopRuntime struct{}

func (NoopRuntime) Shutdown(context.Context) error { return nil }

func (NoopRuntime) Cmd(context.Context, string, bool) (string, error) {
	return "", nil
}

func (NoopRuntime) AdoptTunnel(context.Context, int, string, []netip.Prefix) error {
	return nil
}

// WirelessEngine is the external mobility/wireless-link-quality engine a
// WLAN or EMANE network consults instead of static LinkParams. It is
// consulted, never owned: the core holds a reference, calls Startup
// during Instantiate and PostStartup on entering RUNTIME, and never
// shuts it down.
type WirelessEngine interface {
	// Startup asks the engine to start. ready is false when the engine
	// needs more time (e.g. EMANE still negotiating); the caller must not
	// advance the session into RUNTIME until the engine reports ready on
	// its own, later event.
	Startup(ctx context.Context) (ready bool, err error)
	// LinkUp reports whether node1 and node2 currently have a usable
	// wireless path on network net.
	LinkUp(net coreemu.NodeID, node1, node2 coreemu.NodeID) bool
	// PostStartup is called once the session reaches StateRuntime, after
	// every node has booted, so a mobility script can start moving nodes.
	PostStartup(ctx context.Context) error
}

// DistributedController resolves a tunnel endpoint for a link whose two
// endpoints live in different session instances. It is the only seam
// through which this module is aware that a session might be sharded
// across machines; everything else treats a tunnel node like any other
// network-class node.
type DistributedController interface {
	// Start brings up the distributed tunnels this controller manages.
	// Called on every Instantiate call, before any node boots.
	Start(ctx context.Context) error
	// TunnelFor returns the node id of the tunnel device representing
	// the remote end of a link to a node this controller doesn't host,
	// creating it on first use.
	TunnelFor(ctx context.Context, remoteNodeID coreemu.NodeID) (coreemu.NodeID, error)
}
